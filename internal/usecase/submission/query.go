package submission

import (
	"context"
	"errors"
	"fmt"

	"municipal-portal/internal/domain/request"
	domainSubmission "municipal-portal/internal/domain/submission"
	"municipal-portal/pkg/id"
)

// GetRequest reads a request and its responses from the ledger.
func (u *Usecase) GetRequest(ctx context.Context, requestID uint64, v Viewer) (*RequestDetail, error) {
	req, err := u.Requests.GetByID(ctx, requestID)
	if errors.Is(err, request.ErrNotFound) {
		return nil, fmt.Errorf("%w: request %s", domainSubmission.ErrReferenceNotFound, id.Pad(requestID))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domainSubmission.ErrTransaction, err)
	}
	if !v.Staff && v.RUT != req.RequesterRUT {
		return nil, fmt.Errorf("%w: request %s belongs to another citizen", domainSubmission.ErrForbidden, req.PublicID())
	}

	rows, err := u.Responses.ListByRequestID(ctx, req.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domainSubmission.ErrTransaction, err)
	}
	out := &RequestDetail{
		ID:                req.PublicID(),
		RequesterRUT:      req.RequesterRUT,
		TypeID:            req.TypeID,
		NotificationEmail: req.Email(),
		SubmittedAt:       req.SubmittedAt,
		Status:            req.Status,
		FolderPath:        req.FolderPath,
		Responses:         make([]ResponseSummary, 0, len(rows)),
	}
	for _, r := range rows {
		out.Responses = append(out.Responses, ResponseSummary{
			ID:          r.PublicID(),
			StaffRUT:    r.StaffRUT,
			RespondedAt: r.RespondedAt,
			Status:      r.Status,
			Body:        r.Body,
		})
	}
	return out, nil
}
