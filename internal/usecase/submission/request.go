package submission

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"path/filepath"
	"strings"

	"municipal-portal/internal/domain/request"
	domainSubmission "municipal-portal/internal/domain/submission"
	"municipal-portal/internal/domain/uow"
	"municipal-portal/internal/infrastructure/attachment"
	"municipal-portal/internal/infrastructure/document"
	"municipal-portal/internal/infrastructure/folder"
	"municipal-portal/internal/infrastructure/metrics"
	"municipal-portal/pkg/id"
	"municipal-portal/pkg/rut"
)

func validateRequest(in *CreateRequestInput) error {
	in.RequesterRUT = rut.Normalize(in.RequesterRUT)
	if !rut.Valid(in.RequesterRUT) {
		return fmt.Errorf("%w: requester RUT %q", domainSubmission.ErrValidation, in.RequesterRUT)
	}
	if in.TypeID == 0 {
		return fmt.Errorf("%w: request type is required", domainSubmission.ErrValidation)
	}
	in.NotificationEmail = strings.TrimSpace(in.NotificationEmail)
	if in.NotificationEmail != "" {
		addr, err := mail.ParseAddress(in.NotificationEmail)
		if err != nil {
			return fmt.Errorf("%w: notification email %q", domainSubmission.ErrValidation, in.NotificationEmail)
		}
		in.NotificationEmail = addr.Address
	}
	// blank keys and values carry nothing to print
	fields := make([]Field, 0, len(in.Fields))
	for _, f := range in.Fields {
		f.Key, f.Value = strings.TrimSpace(f.Key), strings.TrimSpace(f.Value)
		if f.Key == "" || f.Value == "" {
			continue
		}
		fields = append(fields, f)
	}
	in.Fields = fields
	for _, up := range in.Uploads {
		if err := attachment.Validate(attachment.KindRequest, up.Filename); err != nil {
			return err
		}
	}
	return nil
}

// CreateRequest files a citizen request. On success the row is committed
// with its folder path and the folder holds the uploads and solicitud.pdf.
// On failure nothing created by this call remains.
func (u *Usecase) CreateRequest(ctx context.Context, in CreateRequestInput) (*CreateRequestResult, error) {
	started := u.opts.Now()
	kind := string(attachment.KindRequest)

	if err := validateRequest(&in); err != nil {
		metrics.ObserveSubmission(kind, metrics.OutcomeRejected, started)
		return nil, err
	}

	ctx, cancel := u.withDeadline(ctx)
	defer cancel()

	comp := newCompensator(u.Folders, u.Logger, attachment.KindRequest)
	var res *CreateRequestResult

	err := u.UoW.WithinTx(ctx, func(r uow.Repos) error {
		out, err := u.createRequestTx(ctx, r, in, comp)
		if err != nil {
			comp.run()
			return err
		}
		res = out
		return nil
	})
	if err != nil {
		// also covers a failed commit after every step succeeded
		comp.run()
		err = classify(err)
		u.logFailure(kind, comp.stage, in.RequesterRUT, err)
		metrics.ObserveSubmission(kind, outcomeOf(err), started)
		return nil, err
	}

	comp.reached(stageCommitted)
	metrics.ObserveSubmission(kind, metrics.OutcomeCreated, started)
	u.Logger.Info("request created",
		slog.String("id", res.ID),
		slog.String("rut", in.RequesterRUT),
		slog.String("folder", res.FolderPath),
		slog.Int("attachments", len(in.Uploads)),
	)
	return res, nil
}

func (u *Usecase) createRequestTx(ctx context.Context, r uow.Repos, in CreateRequestInput, comp *compensator) (*CreateRequestResult, error) {
	comp.reached(stageTransactionOpen)

	typ, err := lookupType(ctx, r.Directory, in.TypeID)
	if err != nil {
		return nil, err
	}
	name, err := u.requesterName(ctx, r.Directory, in.RequesterRUT)
	if err != nil {
		return nil, err
	}

	now := u.opts.Now()
	row := &request.Request{
		RequesterRUT: in.RequesterRUT,
		TypeID:       typ.ID,
		SubmittedAt:  now.UTC(),
		Status:       request.StatusPending,
	}
	if in.NotificationEmail != "" {
		email := in.NotificationEmail
		row.NotificationEmail = &email
	}
	if err := r.Requests.Create(ctx, row); err != nil {
		return nil, fmt.Errorf("%w: insert request: %w", domainSubmission.ErrTransaction, err)
	}

	layout := folder.RequestLayout{
		Root:        u.Folders.Root(),
		SubmittedAt: now.In(u.opts.Location),
		TypeName:    typ.Name,
		FullName:    name,
		ID:          row.ID,
	}
	leaf := layout.Path()

	if err := checkpoint(ctx); err != nil {
		return nil, err
	}
	created, err := u.Folders.EnsureChain(layout.Chain())
	comp.created(created, leaf)
	if err != nil {
		return nil, err
	}
	comp.reached(stageFolderReady)

	stored := make([]string, 0, len(in.Uploads))
	for _, up := range in.Uploads {
		if err := checkpoint(ctx); err != nil {
			return nil, err
		}
		n, err := u.Attachments.Save(ctx, leaf, attachment.KindRequest, up)
		if err != nil {
			return nil, err
		}
		comp.files = append(comp.files, filepath.Join(leaf, n))
		stored = append(stored, n)
	}
	stored = manifest(stored)
	comp.reached(stageAttachmentsStored)

	doc := document.RequestDocument{
		ID:            row.ID,
		TypeName:      typ.Name,
		AreaName:      typ.Area.Name,
		SubmittedAt:   layout.SubmittedAt,
		RequesterRUT:  in.RequesterRUT,
		RequesterName: name,
		Email:         in.NotificationEmail,
		Fields:        toDocumentFields(in.Fields),
		Attachments:   stored,
		Images:        imagePaths(leaf, stored),
	}
	if err := checkpoint(ctx); err != nil {
		return nil, err
	}
	b, err := u.Documents.RenderRequest(doc)
	if err != nil {
		return nil, err
	}
	pdf, err := u.Documents.Persist(leaf, attachment.DocumentName(attachment.KindRequest), b)
	if err != nil {
		return nil, err
	}
	comp.pdf = pdf
	comp.reached(stageDocumentPersisted)

	if err := r.Requests.Update(ctx, row.ID, request.Patch{FolderPath: &leaf}); err != nil {
		return nil, fmt.Errorf("%w: set folder path: %w", domainSubmission.ErrTransaction, err)
	}
	comp.reached(stageFolderPathCommitted)

	return &CreateRequestResult{
		ID:         id.Pad(row.ID),
		FolderPath: leaf,
		Status:     request.StatusPending,
	}, nil
}

func toDocumentFields(in []Field) []document.Field {
	out := make([]document.Field, len(in))
	for i, f := range in {
		out[i] = document.Field{Key: f.Key, Value: f.Value}
	}
	return out
}

func imagePaths(folder string, names []string) []string {
	var out []string
	for _, n := range names {
		if attachment.IsImage(n) {
			out = append(out, filepath.Join(folder, n))
		}
	}
	return out
}

func outcomeOf(err error) string {
	if clientError(err) {
		return metrics.OutcomeRejected
	}
	return metrics.OutcomeFailed
}

func (u *Usecase) logFailure(kind string, st stage, actor string, err error) {
	level := slog.LevelError
	if clientError(err) {
		level = slog.LevelInfo
	}
	u.Logger.Log(context.Background(), level, "submission aborted",
		slog.String("kind", kind),
		slog.String("stage", string(st)),
		slog.String("rut", actor),
		slog.Any("error", err),
	)
}
