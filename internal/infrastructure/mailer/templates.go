package mailer

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"text/template"
)

// ResponseNotice is what the citizen is told when a request is answered.
type ResponseNotice struct {
	CitizenName string
	RequestID   string
	TypeName    string
	Status      string
	RespondedAt string
	Body        string
}

const noticeSubject = "Respuesta a su solicitud N° {{.RequestID}}"

const noticeText = `Estimado(a) {{.CitizenName}}:

Su solicitud N° {{.RequestID}} ({{.TypeName}}) fue respondida el {{.RespondedAt}}.
Estado: {{.Status}}

{{.Body}}

Se adjunta el certificado de respuesta y los documentos asociados.

Municipalidad
`

const noticeHTML = `<p>Estimado(a) {{.CitizenName}}:</p>
<p>Su solicitud N° <strong>{{.RequestID}}</strong> ({{.TypeName}}) fue respondida el {{.RespondedAt}}.</p>
<p>Estado: <strong>{{.Status}}</strong></p>
<blockquote style="white-space: pre-line">{{.Body}}</blockquote>
<p>Se adjunta el certificado de respuesta y los documentos asociados.</p>
<p>Municipalidad</p>
`

var (
	subjectTmpl = template.Must(template.New("subject").Parse(noticeSubject))
	textTmpl    = template.Must(template.New("text").Parse(noticeText))
	htmlTmpl    = htmltemplate.Must(htmltemplate.New("html").Parse(noticeHTML))
)

// Message renders the notice for to, attaching files in order.
func (n ResponseNotice) Message(to string, attachments []string) (Message, error) {
	var subj, text, html bytes.Buffer
	if err := subjectTmpl.Execute(&subj, n); err != nil {
		return Message{}, fmt.Errorf("render subject: %w", err)
	}
	if err := textTmpl.Execute(&text, n); err != nil {
		return Message{}, fmt.Errorf("render text: %w", err)
	}
	if err := htmlTmpl.Execute(&html, n); err != nil {
		return Message{}, fmt.Errorf("render html: %w", err)
	}
	return Message{
		To:          to,
		Subject:     subj.String(),
		Text:        text.String(),
		HTML:        html.String(),
		Attachments: attachments,
	}, nil
}
