package submission

import (
	"time"

	"municipal-portal/internal/domain/request"
	"municipal-portal/internal/infrastructure/attachment"
)

// Field is one additional form value. Order is kept as submitted.
type Field struct {
	Key   string
	Value string
}

type CreateRequestInput struct {
	RequesterRUT      string // verified by the auth layer
	TypeID            uint64
	NotificationEmail string // optional
	Fields            []Field
	Uploads           []attachment.Upload
}

type CreateRequestResult struct {
	ID         string         `json:"id"` // 10 digits
	FolderPath string         `json:"ruta"`
	Status     request.Status `json:"estado"`
}

type CreateResponseInput struct {
	RequestID uint64
	StaffRUT  string
	Body      string
	Status    string // Aprobada/Rechazada or approved/rejected
	Uploads   []attachment.Upload
}

type DeliveryOutcome string

const (
	DeliveryNotified  DeliveryOutcome = "notified"
	DeliveryNoAddress DeliveryOutcome = "no_address"
	DeliveryFailed    DeliveryOutcome = "failed"
)

type Delivery struct {
	Outcome   DeliveryOutcome `json:"resultado"`
	MessageID string          `json:"message_id,omitempty"`
	Error     string          `json:"error,omitempty"`
}

type CreateResponseResult struct {
	ID         string         `json:"id"`
	RequestID  string         `json:"id_solicitud"`
	FolderPath string         `json:"ruta"`
	Status     request.Status `json:"estado"`
	Delivery   Delivery       `json:"notificacion"`
}

// Viewer is the caller of a read; citizens only see their own requests.
type Viewer struct {
	RUT   string
	Staff bool
}

type ResponseSummary struct {
	ID          string         `json:"id"`
	StaffRUT    string         `json:"rut_funcionario"`
	RespondedAt time.Time      `json:"fecha_respuesta"`
	Status      request.Status `json:"estado"`
	Body        string         `json:"mensaje"`
}

type RequestDetail struct {
	ID                string            `json:"id"`
	RequesterRUT      string            `json:"rut_solicitante"`
	TypeID            uint64            `json:"id_tipo"`
	NotificationEmail string            `json:"email_notificacion,omitempty"`
	SubmittedAt       time.Time         `json:"fecha_envio"`
	Status            request.Status    `json:"estado"`
	FolderPath        string            `json:"ruta"`
	Responses         []ResponseSummary `json:"respuestas"`
}
