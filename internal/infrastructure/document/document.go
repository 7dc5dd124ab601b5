// Package document renders the request receipt and the response
// certificate as A4 PDFs and persists them next to the attachments.
package document

import (
	"bytes"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"municipal-portal/internal/domain/submission"
	"municipal-portal/internal/infrastructure/fsutil"
	"municipal-portal/pkg/id"
	"municipal-portal/pkg/locale"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NotProvided is printed when the citizen left the email blank.
const NotProvided = "No informado"

// Field is one additional form value, printed in submission order.
type Field struct {
	Key   string
	Value string
}

type RequestDocument struct {
	ID            uint64
	TypeName      string
	AreaName      string
	SubmittedAt   time.Time
	RequesterRUT  string
	RequesterName string
	Email         string
	Fields        []Field
	Attachments   []string // stored file names
	Images        []string // absolute paths of embeddable attachments
}

// RequestRef is the summary of the answered request printed on a response.
type RequestRef struct {
	ID            uint64
	TypeName      string
	SubmittedAt   time.Time
	RequesterRUT  string
	RequesterName string
	Email         string
}

type ResponseDocument struct {
	ID          uint64
	RespondedAt time.Time
	StaffRUT    string
	StaffName   string
	Status      string
	Body        string
	Request     RequestRef
	Attachments []string
	Images      []string
}

type Renderer struct {
	logoPath string
	logger   *slog.Logger
}

func NewRenderer(logoPath string, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{logoPath: logoPath, logger: logger}
}

func (r *Renderer) RenderRequest(doc RequestDocument) ([]byte, error) {
	return output(r.buildRequest(doc))
}

func (r *Renderer) RenderResponse(doc ResponseDocument) ([]byte, error) {
	return output(r.buildResponse(doc))
}

// Persist writes b as folder/name and returns the path once the file is
// synced and renamed into place.
func (r *Renderer) Persist(folder, name string, b []byte) (string, error) {
	path := filepath.Join(folder, name)
	if _, err := fsutil.WriteFileAtomic(path, bytes.NewReader(b)); err != nil {
		return "", fmt.Errorf("%w: %w", submission.ErrDocumentWrite, err)
	}
	return path, nil
}

func output(pdf *fpdf.Fpdf) ([]byte, error) {
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("%w: render: %w", submission.ErrDocumentWrite, err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: output: %w", submission.ErrDocumentWrite, err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) buildRequest(doc RequestDocument) *fpdf.Fpdf {
	p := r.newPage("Solicitud N° "+id.Pad(doc.ID), doc.SubmittedAt)
	p.title("COMPROBANTE DE SOLICITUD")

	p.section("Datos de la solicitud")
	p.line("N° de solicitud", id.Pad(doc.ID))
	p.line("Tipo de solicitud", doc.TypeName)
	if doc.AreaName != "" {
		p.line("Área", doc.AreaName)
	}
	p.line("Fecha de envío", locale.LongDateTime(doc.SubmittedAt))
	p.rule()

	p.section("Datos del solicitante")
	p.line("RUT", doc.RequesterRUT)
	p.line("Nombre", doc.RequesterName)
	p.line("Correo de notificación", orNotProvided(doc.Email))
	p.rule()

	if len(doc.Fields) > 0 {
		p.section("Antecedentes")
		for _, f := range doc.Fields {
			p.line(Label(f.Key), f.Value)
		}
		p.rule()
	}

	p.attachments(doc.Attachments)
	r.images(p, doc.Images)
	return p.pdf
}

func (r *Renderer) buildResponse(doc ResponseDocument) *fpdf.Fpdf {
	p := r.newPage("Respuesta N° "+id.Pad(doc.ID), doc.RespondedAt)
	p.title("RESPUESTA A SOLICITUD")

	p.section("Datos de la respuesta")
	p.line("N° de respuesta", id.Pad(doc.ID))
	p.line("Fecha de respuesta", locale.LongDateTime(doc.RespondedAt))
	p.line("Funcionario", doc.StaffName)
	p.line("RUT funcionario", doc.StaffRUT)
	p.line("Estado", doc.Status)
	p.rule()

	p.section("Solicitud respondida")
	p.line("N° de solicitud", id.Pad(doc.Request.ID))
	p.line("Tipo de solicitud", doc.Request.TypeName)
	p.line("Fecha de envío", locale.LongDateTime(doc.Request.SubmittedAt))
	p.line("Solicitante", strings.TrimSpace(doc.Request.RequesterName+" ("+doc.Request.RequesterRUT+")"))
	p.line("Correo de notificación", orNotProvided(doc.Request.Email))
	p.rule()

	p.section("Respuesta")
	p.paragraph(doc.Body)
	p.rule()

	p.attachments(doc.Attachments)
	r.images(p, doc.Images)
	return p.pdf
}

// Label turns a form key into a printed label: "numero_de_poste" becomes
// "Numero De Poste".
func Label(key string) string {
	s := strings.Join(strings.Fields(strings.ReplaceAll(key, "_", " ")), " ")
	return cases.Title(language.Spanish, cases.NoLower).String(s)
}

func orNotProvided(s string) string {
	if strings.TrimSpace(s) == "" {
		return NotProvided
	}
	return s
}
