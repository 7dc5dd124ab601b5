package response

import (
	"errors"
	"time"

	"municipal-portal/internal/domain/request"
	"municipal-portal/pkg/id"
)

var (
	ErrNotFound = errors.New("response not found")
)

// Table: respuestas
type Response struct {
	ID          uint64         `gorm:"column:id;primaryKey;autoIncrement"`
	RequestID   uint64         `gorm:"column:id_solicitud;not null;index"`
	StaffRUT    string         `gorm:"column:rut_funcionario;size:12;not null"`
	RespondedAt time.Time      `gorm:"column:fecha_respuesta;not null"`
	Body        string         `gorm:"column:mensaje;type:text;not null"`
	// Status applied to the parent request
	Status      request.Status `gorm:"column:estado;type:enum('Aprobada','Rechazada');not null"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
}

func (Response) TableName() string { return "respuestas" }

func (r *Response) PublicID() string { return id.Pad(r.ID) }
