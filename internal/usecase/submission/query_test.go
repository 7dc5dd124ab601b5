package submission

import (
	"context"
	"errors"
	"testing"

	"municipal-portal/internal/domain/request"
	domainSubmission "municipal-portal/internal/domain/submission"
)

func TestGetRequest_Access(t *testing.T) {
	e := newEnv(t)
	req := e.createRequest(t, "ana@example.com")
	if _, err := respond(e, CreateResponseInput{Status: "Rechazada", Body: "Duplicada."}); err != nil {
		t.Fatalf("CreateResponse: %v", err)
	}

	got, err := e.uc.GetRequest(context.Background(), 1, Viewer{RUT: citizenRUT})
	if err != nil {
		t.Fatalf("owner read: %v", err)
	}
	if got.ID != req.ID || got.Status != request.StatusRejected || got.FolderPath != req.FolderPath || got.NotificationEmail != "ana@example.com" {
		t.Fatalf("detail = %+v", got)
	}
	if len(got.Responses) != 1 || got.Responses[0].Body != "Duplicada." || got.Responses[0].StaffRUT != staffRUT {
		t.Fatalf("responses = %+v", got.Responses)
	}

	if _, err := e.uc.GetRequest(context.Background(), 1, Viewer{RUT: staffRUT, Staff: true}); err != nil {
		t.Fatalf("staff read: %v", err)
	}
	if _, err := e.uc.GetRequest(context.Background(), 1, Viewer{RUT: otherRUT}); !errors.Is(err, domainSubmission.ErrForbidden) {
		t.Fatalf("other citizen: want ErrForbidden, got %v", err)
	}
	if _, err := e.uc.GetRequest(context.Background(), 7, Viewer{RUT: staffRUT, Staff: true}); !errors.Is(err, domainSubmission.ErrReferenceNotFound) {
		t.Fatalf("missing: want ErrReferenceNotFound, got %v", err)
	}
}
