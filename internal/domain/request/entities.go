package request

import (
	"errors"
	"strings"
	"time"

	"municipal-portal/pkg/id"
)

var (
	ErrNotFound = errors.New("request not found")
)

type Status string

const (
	StatusPending  Status = "Pendiente"
	StatusApproved Status = "Aprobada"
	StatusRejected Status = "Rechazada"
)

// Terminal reports whether s is a state a response may set.
func (s Status) Terminal() bool { return s == StatusApproved || s == StatusRejected }

// ParseStatus accepts the stored Spanish tokens and their English aliases,
// case-insensitively.
func ParseStatus(raw string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pendiente", "pending":
		return StatusPending, true
	case "aprobada", "approved":
		return StatusApproved, true
	case "rechazada", "rejected":
		return StatusRejected, true
	}
	return "", false
}

// Table: solicitudes
type Request struct {
	ID                uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	RequesterRUT      string    `gorm:"column:rut_solicitante;size:12;not null;index"`
	TypeID            uint64    `gorm:"column:id_tipo;not null;index"`
	NotificationEmail *string   `gorm:"column:email_notificacion;size:255"`
	SubmittedAt       time.Time `gorm:"column:fecha_envio;not null"`
	Status            Status    `gorm:"column:estado;type:enum('Pendiente','Aprobada','Rechazada');default:'Pendiente';not null"`
	// Empty only inside the transaction that creates the row.
	FolderPath        string    `gorm:"column:ruta_carpeta;type:varchar(1024);not null;default:''"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Request) TableName() string { return "solicitudes" }

// PublicID is the 10-digit number printed on receipts and folder names.
func (r *Request) PublicID() string { return id.Pad(r.ID) }

// Email returns the notification address or "".
func (r *Request) Email() string {
	if r.NotificationEmail == nil {
		return ""
	}
	return *r.NotificationEmail
}

// Patch is a partial update: only non-nil fields are written.
type Patch struct {
	FolderPath        *string
	Status            *Status
	NotificationEmail *string
}

func (p Patch) Empty() bool {
	return p.FolderPath == nil && p.Status == nil && p.NotificationEmail == nil
}

// Columns maps the set fields to column names for a parameterized UPDATE.
func (p Patch) Columns() map[string]any {
	cols := make(map[string]any, 3)
	if p.FolderPath != nil {
		cols["ruta_carpeta"] = *p.FolderPath
	}
	if p.Status != nil {
		cols["estado"] = string(*p.Status)
	}
	if p.NotificationEmail != nil {
		cols["email_notificacion"] = *p.NotificationEmail
	}
	return cols
}
