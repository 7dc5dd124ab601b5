package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"municipal-portal/internal/domain/directory"
	"municipal-portal/internal/domain/request"
	"municipal-portal/internal/domain/response"
	domainSubmission "municipal-portal/internal/domain/submission"
	"municipal-portal/internal/domain/uow"
	"municipal-portal/internal/infrastructure/attachment"
	"municipal-portal/internal/infrastructure/document"
	"municipal-portal/internal/infrastructure/folder"
	"municipal-portal/internal/infrastructure/mailer"
	"municipal-portal/internal/infrastructure/metrics"
	"municipal-portal/pkg/id"
	"municipal-portal/pkg/locale"
	"municipal-portal/pkg/rut"
)

const (
	deliveryFailedMsg   = "no fue posible enviar la notificación"
	deliveryDisabledMsg = "notificaciones por correo no configuradas"
)

// pending holds what the notification needs once the transaction commits.
type pending struct {
	to          string
	notice      mailer.ResponseNotice
	attachments []string
}

func validateResponse(in *CreateResponseInput) (request.Status, error) {
	if in.RequestID == 0 {
		return "", fmt.Errorf("%w: request id is required", domainSubmission.ErrValidation)
	}
	in.StaffRUT = rut.Normalize(in.StaffRUT)
	if !rut.Valid(in.StaffRUT) {
		return "", fmt.Errorf("%w: staff RUT %q", domainSubmission.ErrValidation, in.StaffRUT)
	}
	in.Body = strings.TrimSpace(in.Body)
	if in.Body == "" {
		return "", fmt.Errorf("%w: response body is required", domainSubmission.ErrValidation)
	}
	st, ok := request.ParseStatus(in.Status)
	if !ok || !st.Terminal() {
		return "", fmt.Errorf("%w: status %q must be Aprobada or Rechazada", domainSubmission.ErrValidation, in.Status)
	}
	for _, up := range in.Uploads {
		if err := attachment.Validate(attachment.KindResponse, up.Filename); err != nil {
			return "", err
		}
	}
	return st, nil
}

// CreateResponse answers a pending request. The parent row is locked for
// the whole transaction, so two responses to the same request serialize
// and the second one sees it resolved. The citizen is notified only after
// commit; a delivery failure is reported in the result, never as an error.
func (u *Usecase) CreateResponse(ctx context.Context, in CreateResponseInput) (*CreateResponseResult, error) {
	started := u.opts.Now()
	kind := string(attachment.KindResponse)

	st, err := validateResponse(&in)
	if err != nil {
		metrics.ObserveSubmission(kind, metrics.OutcomeRejected, started)
		return nil, err
	}

	parent := ctx
	ctx, cancel := u.withDeadline(ctx)
	defer cancel()

	comp := newCompensator(u.Folders, u.Logger, attachment.KindResponse)
	var (
		res    *CreateResponseResult
		outbox *pending
	)

	err = u.UoW.WithinRequestTx(ctx, in.RequestID, func(r uow.Repos, req *request.Request) error {
		out, p, err := u.createResponseTx(ctx, r, req, in, st, comp)
		if err != nil {
			comp.run()
			return err
		}
		res, outbox = out, p
		return nil
	})
	if err != nil {
		comp.run()
		err = classify(err)
		u.logFailure(kind, comp.stage, in.StaffRUT, err)
		metrics.ObserveSubmission(kind, outcomeOf(err), started)
		return nil, err
	}

	comp.reached(stageCommitted)
	metrics.ObserveSubmission(kind, metrics.OutcomeCreated, started)
	u.Logger.Info("response created",
		slog.String("id", res.ID),
		slog.String("request_id", res.RequestID),
		slog.String("status", string(st)),
		slog.String("folder", res.FolderPath),
	)

	res.Delivery = u.notify(parent, outbox)
	metrics.ObserveNotification(string(res.Delivery.Outcome))
	return res, nil
}

func (u *Usecase) createResponseTx(
	ctx context.Context,
	r uow.Repos,
	req *request.Request,
	in CreateResponseInput,
	st request.Status,
	comp *compensator,
) (*CreateResponseResult, *pending, error) {
	comp.reached(stageTransactionOpen)

	if req.FolderPath == "" || !u.Folders.Exists(req.FolderPath) {
		return nil, nil, fmt.Errorf("%w: folder of request %s is missing", domainSubmission.ErrIO, req.PublicID())
	}
	if req.Status != request.StatusPending {
		return nil, nil, fmt.Errorf("%w: request %s is %s", domainSubmission.ErrAlreadyResolved, req.PublicID(), req.Status)
	}

	staff, err := r.Directory.GetUser(ctx, in.StaffRUT)
	if errors.Is(err, directory.ErrUserNotFound) {
		return nil, nil, fmt.Errorf("%w: staff %s", domainSubmission.ErrReferenceNotFound, in.StaffRUT)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: load staff: %w", domainSubmission.ErrTransaction, err)
	}
	if !staff.Role.IsStaff() {
		return nil, nil, fmt.Errorf("%w: %s has role %s", domainSubmission.ErrForbidden, in.StaffRUT, staff.Role)
	}

	typ, err := lookupType(ctx, r.Directory, req.TypeID)
	if err != nil {
		return nil, nil, err
	}
	citizen, err := u.requesterName(ctx, r.Directory, req.RequesterRUT)
	if err != nil {
		// the request row already references this RUT; print it as is
		citizen = req.RequesterRUT
	}

	now := u.opts.Now()
	row := &response.Response{
		RequestID:   req.ID,
		StaffRUT:    in.StaffRUT,
		RespondedAt: now.UTC(),
		Body:        in.Body,
		Status:      st,
	}
	if err := r.Responses.Create(ctx, row); err != nil {
		return nil, nil, fmt.Errorf("%w: insert response: %w", domainSubmission.ErrTransaction, err)
	}

	dir := folder.ResponsePath(req.FolderPath)
	if err := checkpoint(ctx); err != nil {
		return nil, nil, err
	}
	created, err := u.Folders.Ensure(dir)
	if err != nil {
		return nil, nil, err
	}
	if created {
		comp.leaf = dir
	}
	comp.reached(stageFolderReady)

	stored := make([]string, 0, len(in.Uploads))
	for _, up := range in.Uploads {
		if err := checkpoint(ctx); err != nil {
			return nil, nil, err
		}
		n, err := u.Attachments.Save(ctx, dir, attachment.KindResponse, up)
		if err != nil {
			return nil, nil, err
		}
		comp.files = append(comp.files, filepath.Join(dir, n))
		stored = append(stored, n)
	}
	stored = manifest(stored)
	comp.reached(stageAttachmentsStored)

	respondedAt := now.In(u.opts.Location)
	doc := document.ResponseDocument{
		ID:          row.ID,
		RespondedAt: respondedAt,
		StaffRUT:    in.StaffRUT,
		StaffName:   displayName(staff, in.StaffRUT),
		Status:      string(st),
		Body:        in.Body,
		Request: document.RequestRef{
			ID:            req.ID,
			TypeName:      typ.Name,
			SubmittedAt:   req.SubmittedAt.In(u.opts.Location),
			RequesterRUT:  req.RequesterRUT,
			RequesterName: citizen,
			Email:         req.Email(),
		},
		Attachments: stored,
		Images:      imagePaths(dir, stored),
	}
	if err := checkpoint(ctx); err != nil {
		return nil, nil, err
	}
	b, err := u.Documents.RenderResponse(doc)
	if err != nil {
		return nil, nil, err
	}
	pdf, err := u.Documents.Persist(dir, attachment.DocumentName(attachment.KindResponse), b)
	if err != nil {
		return nil, nil, err
	}
	comp.pdf = pdf
	comp.reached(stageDocumentPersisted)

	if err := r.Requests.Update(ctx, req.ID, request.Patch{Status: &st}); err != nil {
		return nil, nil, fmt.Errorf("%w: set request status: %w", domainSubmission.ErrTransaction, err)
	}
	comp.reached(stageFolderPathCommitted)

	files := make([]string, 0, len(stored)+1)
	files = append(files, pdf)
	for _, n := range stored {
		files = append(files, filepath.Join(dir, n))
	}

	out := &CreateResponseResult{
		ID:         id.Pad(row.ID),
		RequestID:  req.PublicID(),
		FolderPath: dir,
		Status:     st,
	}
	p := &pending{
		to: req.Email(),
		notice: mailer.ResponseNotice{
			CitizenName: citizen,
			RequestID:   req.PublicID(),
			TypeName:    typ.Name,
			Status:      string(st),
			RespondedAt: locale.LongDateTime(respondedAt),
			Body:        in.Body,
		},
		attachments: files,
	}
	return out, p, nil
}

// notify makes the single post-commit delivery attempt. It runs on the
// caller's context, not the expired transactional one.
func (u *Usecase) notify(ctx context.Context, p *pending) Delivery {
	if p == nil || p.to == "" {
		return Delivery{Outcome: DeliveryNoAddress}
	}
	if u.Notifier == nil {
		return Delivery{Outcome: DeliveryFailed, Error: deliveryDisabledMsg}
	}

	msg, err := p.notice.Message(p.to, p.attachments)
	if err != nil {
		u.Logger.Error("render notification", slog.String("request_id", p.notice.RequestID), slog.Any("error", err))
		return Delivery{Outcome: DeliveryFailed, Error: deliveryFailedMsg}
	}

	ctx, cancel := context.WithTimeout(ctx, u.opts.MailTimeout)
	defer cancel()

	messageID, err := u.Notifier.Notify(ctx, msg)
	if err != nil {
		u.Logger.Warn("notification not delivered",
			slog.String("request_id", p.notice.RequestID),
			slog.Any("error", err),
		)
		return Delivery{Outcome: DeliveryFailed, Error: deliveryFailedMsg}
	}
	return Delivery{Outcome: DeliveryNotified, MessageID: messageID}
}
