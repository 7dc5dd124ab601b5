package submission

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"municipal-portal/internal/domain/request"
	domainSubmission "municipal-portal/internal/domain/submission"
	"municipal-portal/internal/infrastructure/attachment"
	"municipal-portal/internal/testutil/sqlitedb"
)

func respond(e *env, in CreateResponseInput) (*CreateResponseResult, error) {
	if in.RequestID == 0 {
		in.RequestID = 1
	}
	if in.StaffRUT == "" {
		in.StaffRUT = staffRUT
	}
	if in.Body == "" {
		in.Body = "Se repuso la luminaria."
	}
	if in.Status == "" {
		in.Status = "Aprobada"
	}
	return e.uc.CreateResponse(context.Background(), in)
}

func status(t *testing.T, e *env, id uint64) request.Status {
	t.Helper()
	row, err := e.uc.Requests.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	return row.Status
}

// approved with one attachment; the citizen gets the certificate and the file
func TestCreateResponse_ScenarioB(t *testing.T) {
	e := newEnv(t)
	req := e.createRequest(t, "ana@example.com")

	res, err := respond(e, CreateResponseInput{
		Uploads: []attachment.Upload{pdfUpload("resolucion.pdf")},
	})
	if err != nil {
		t.Fatalf("CreateResponse: %v", err)
	}

	wantDir := filepath.Join(req.FolderPath, "Respuesta")
	if res.FolderPath != wantDir || res.Status != request.StatusApproved || res.RequestID != req.ID || res.ID != "0000000001" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if got := names(t, wantDir); !reflect.DeepEqual(got, []string{"resolucion.pdf", "respuesta.pdf"}) {
		t.Fatalf("Respuesta folder = %v", got)
	}
	if st := status(t, e, 1); st != request.StatusApproved {
		t.Fatalf("request status = %s", st)
	}
	if n := sqlitedb.Count(t, e.db, "respuestas"); n != 1 {
		t.Fatalf("responses = %d", n)
	}

	if res.Delivery.Outcome != DeliveryNotified || res.Delivery.MessageID != "<1@portal.test>" {
		t.Fatalf("delivery = %+v", res.Delivery)
	}
	if len(e.notifier.msgs) != 1 {
		t.Fatalf("notifications = %d", len(e.notifier.msgs))
	}
	msg := e.notifier.msgs[0]
	if msg.To != "ana@example.com" {
		t.Fatalf("to = %v", msg.To)
	}
	wantFiles := []string{filepath.Join(wantDir, "respuesta.pdf"), filepath.Join(wantDir, "resolucion.pdf")}
	if !reflect.DeepEqual(msg.Attachments, wantFiles) {
		t.Fatalf("attachments = %v, want %v", msg.Attachments, wantFiles)
	}
	if !strings.Contains(msg.Subject, req.ID) || !strings.Contains(msg.Text, "Ana Rojas") {
		t.Fatalf("message = %+v", msg)
	}
}

func TestCreateResponse_NotifierFailureKeepsResponse(t *testing.T) {
	e := newEnv(t)
	e.createRequest(t, "ana@example.com")
	e.notifier.err = errors.New("550 mailbox unavailable")

	res, err := respond(e, CreateResponseInput{Status: "rejected", Body: "Fuera de la comuna."})
	if err != nil {
		t.Fatalf("delivery failure must not fail the response: %v", err)
	}
	if res.Delivery.Outcome != DeliveryFailed || res.Delivery.Error == "" {
		t.Fatalf("delivery = %+v", res.Delivery)
	}
	if strings.Contains(res.Delivery.Error, "550") {
		t.Fatalf("smtp detail leaked to caller: %q", res.Delivery.Error)
	}
	if st := status(t, e, 1); st != request.StatusRejected {
		t.Fatalf("request status = %s", st)
	}
	if got := names(t, res.FolderPath); !reflect.DeepEqual(got, []string{"respuesta.pdf"}) {
		t.Fatalf("Respuesta folder = %v", got)
	}
}

func TestCreateResponse_NoAddress(t *testing.T) {
	e := newEnv(t)
	e.createRequest(t, "")

	res, err := respond(e, CreateResponseInput{})
	if err != nil {
		t.Fatalf("CreateResponse: %v", err)
	}
	if res.Delivery.Outcome != DeliveryNoAddress {
		t.Fatalf("delivery = %+v", res.Delivery)
	}
	if len(e.notifier.msgs) != 0 {
		t.Fatal("notifier called without an address")
	}
}

func TestCreateResponse_MailDisabled(t *testing.T) {
	e := newEnv(t, func(d *Deps, _ *Options) { d.Notifier = nil })
	e.createRequest(t, "ana@example.com")

	res, err := respond(e, CreateResponseInput{})
	if err != nil {
		t.Fatalf("CreateResponse: %v", err)
	}
	if res.Delivery.Outcome != DeliveryFailed || res.Delivery.Error != deliveryDisabledMsg {
		t.Fatalf("delivery = %+v", res.Delivery)
	}
}

// a response to a request that does not exist leaves nothing behind
func TestCreateResponse_ScenarioC(t *testing.T) {
	e := newEnv(t)

	_, err := respond(e, CreateResponseInput{RequestID: 999, Uploads: []attachment.Upload{pdfUpload("resolucion.pdf")}})
	if !errors.Is(err, domainSubmission.ErrReferenceNotFound) {
		t.Fatalf("want ErrReferenceNotFound, got %v", err)
	}
	if n := sqlitedb.Count(t, e.db, "respuestas"); n != 0 {
		t.Fatalf("responses = %d", n)
	}
	if got := files(t, e.root); len(got) != 0 {
		t.Fatalf("files = %v", got)
	}
	if len(e.notifier.msgs) != 0 {
		t.Fatal("notifier called")
	}
}

func TestCreateResponse_AlreadyResolved(t *testing.T) {
	e := newEnv(t)
	req := e.createRequest(t, "ana@example.com")
	if _, err := respond(e, CreateResponseInput{}); err != nil {
		t.Fatalf("first response: %v", err)
	}

	_, err := respond(e, CreateResponseInput{Status: "Rechazada"})
	if !errors.Is(err, domainSubmission.ErrAlreadyResolved) {
		t.Fatalf("want ErrAlreadyResolved, got %v", err)
	}
	if st := status(t, e, 1); st != request.StatusApproved {
		t.Fatalf("status changed to %s", st)
	}
	if n := sqlitedb.Count(t, e.db, "respuestas"); n != 1 {
		t.Fatalf("responses = %d", n)
	}
	if got := names(t, filepath.Join(req.FolderPath, "Respuesta")); !reflect.DeepEqual(got, []string{"respuesta.pdf"}) {
		t.Fatalf("Respuesta folder = %v", got)
	}
	if len(e.notifier.msgs) != 1 {
		t.Fatalf("notifications = %d", len(e.notifier.msgs))
	}
}

func TestCreateResponse_Rejections(t *testing.T) {
	tests := []struct {
		name string
		in   CreateResponseInput
		want error
	}{
		{"citizen answering", CreateResponseInput{StaffRUT: otherRUT}, domainSubmission.ErrForbidden},
		{"unknown staff", CreateResponseInput{StaffRUT: "10000013-K"}, domainSubmission.ErrReferenceNotFound},
		{"bad staff rut", CreateResponseInput{StaffRUT: "12345678-9"}, domainSubmission.ErrValidation},
		{"blank body", CreateResponseInput{Body: "   "}, domainSubmission.ErrValidation},
		{"pending is not an answer", CreateResponseInput{Status: "Pendiente"}, domainSubmission.ErrValidation},
		{"unknown status", CreateResponseInput{Status: "cerrada"}, domainSubmission.ErrValidation},
		{"disallowed extension", CreateResponseInput{Uploads: []attachment.Upload{attachment.FromBytes("run.sh", "", []byte("#!"))}}, domainSubmission.ErrUnsupportedFileType},
		{"upload named like the document", CreateResponseInput{Uploads: []attachment.Upload{attachment.FromBytes("respuesta.pdf", "", []byte("%PDF"))}}, domainSubmission.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			req := e.createRequest(t, "ana@example.com")
			if _, err := respond(e, tt.in); !errors.Is(err, tt.want) {
				t.Fatalf("want %v, got %v", tt.want, err)
			}

			if st := status(t, e, 1); st != request.StatusPending {
				t.Fatalf("status = %s", st)
			}
			if n := sqlitedb.Count(t, e.db, "respuestas"); n != 0 {
				t.Fatalf("responses = %d", n)
			}
			if _, err := os.Stat(filepath.Join(req.FolderPath, "Respuesta")); !os.IsNotExist(err) {
				t.Fatalf("Respuesta folder exists: %v", err)
			}
			if len(e.notifier.msgs) != 0 {
				t.Fatal("notifier called")
			}
		})
	}
}

func TestCreateResponse_MissingRequestFolder(t *testing.T) {
	e := newEnv(t)
	req := e.createRequest(t, "")
	if err := os.RemoveAll(req.FolderPath); err != nil {
		t.Fatal(err)
	}

	_, err := respond(e, CreateResponseInput{})
	if !errors.Is(err, domainSubmission.ErrIO) {
		t.Fatalf("want ErrIO, got %v", err)
	}
	if st := status(t, e, 1); st != request.StatusPending {
		t.Fatalf("status = %s", st)
	}
	if _, err := os.Stat(req.FolderPath); !os.IsNotExist(err) {
		t.Fatal("request folder recreated")
	}
}

func TestCreateResponse_DocumentFailureCompensates(t *testing.T) {
	e := newEnv(t)
	req := e.createRequest(t, "ana@example.com")
	e.uc.Documents = &faultyDocs{Documents: e.uc.Documents, persistErr: domainSubmission.ErrDocumentWrite}

	_, err := respond(e, CreateResponseInput{Uploads: []attachment.Upload{pdfUpload("resolucion.pdf")}})
	if !errors.Is(err, domainSubmission.ErrDocumentWrite) {
		t.Fatalf("want ErrDocumentWrite, got %v", err)
	}
	if st := status(t, e, 1); st != request.StatusPending {
		t.Fatalf("status = %s", st)
	}
	if n := sqlitedb.Count(t, e.db, "respuestas"); n != 0 {
		t.Fatalf("responses = %d", n)
	}
	if got := names(t, req.FolderPath); !reflect.DeepEqual(got, []string{"solicitud.pdf"}) {
		t.Fatalf("request folder = %v", got)
	}
	if len(e.notifier.msgs) != 0 {
		t.Fatal("notifier called")
	}
}

func TestCreateResponse_AfterFailedAttempt(t *testing.T) {
	e := newEnv(t)
	e.createRequest(t, "")
	docs := e.uc.Documents
	e.uc.Documents = &faultyDocs{Documents: docs, persistErr: domainSubmission.ErrDocumentWrite}
	if _, err := respond(e, CreateResponseInput{}); err == nil {
		t.Fatal("expected failure")
	}

	e.uc.Documents = docs
	res, err := respond(e, CreateResponseInput{Status: "approved"})
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if res.Status != request.StatusApproved {
		t.Fatalf("status = %s", res.Status)
	}
}
