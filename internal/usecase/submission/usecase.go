// Package submission runs the request and response pipelines: one
// transaction, the folder, the uploads and the PDF, with cleanup of every
// artifact of the attempt when anything before commit fails.
package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"municipal-portal/internal/domain/directory"
	"municipal-portal/internal/domain/request"
	"municipal-portal/internal/domain/response"
	domainSubmission "municipal-portal/internal/domain/submission"
	"municipal-portal/internal/domain/uow"
	"municipal-portal/internal/infrastructure/attachment"
	"municipal-portal/internal/infrastructure/document"
	"municipal-portal/internal/infrastructure/mailer"
)

type Folders interface {
	Root() string
	Ensure(path string) (bool, error)
	EnsureChain(dirs []string) ([]string, error)
	Exists(path string) bool
	Remove(path string) error
	RemoveEmpty(path string) error
	RemoveFile(path string) error
}

type Attachments interface {
	Save(ctx context.Context, folder string, kind attachment.Kind, up attachment.Upload) (string, error)
}

type Documents interface {
	RenderRequest(doc document.RequestDocument) ([]byte, error)
	RenderResponse(doc document.ResponseDocument) ([]byte, error)
	Persist(folder, name string, b []byte) (string, error)
}

type Notifier interface {
	Notify(ctx context.Context, msg mailer.Message) (string, error)
}

// Deps are process-wide handles built once in main. Notifier may be nil.
type Deps struct {
	UoW         uow.UnitOfWork
	Requests    request.Repository
	Responses   response.Repository
	Folders     Folders
	Attachments Attachments
	Documents   Documents
	Notifier    Notifier
	Logger      *slog.Logger
}

type Options struct {
	Location          *time.Location // folder names and printed dates
	SubmissionTimeout time.Duration  // transactional stage, 0 = unbounded
	MailTimeout       time.Duration
	Now               func() time.Time
}

type Usecase struct {
	Deps
	opts Options
}

func NewUsecase(d Deps, opts Options) *Usecase {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.MailTimeout <= 0 {
		opts.MailTimeout = 30 * time.Second
	}
	return &Usecase{Deps: d, opts: opts}
}

func (u *Usecase) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if u.opts.SubmissionTimeout > 0 {
		return context.WithTimeout(ctx, u.opts.SubmissionTimeout)
	}
	return context.WithCancel(ctx)
}

// checkpoint stops the pipeline between filesystem steps once the
// transactional deadline has passed.
func checkpoint(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", domainSubmission.ErrTransaction, err)
	}
	return nil
}

var taxonomy = []error{
	domainSubmission.ErrValidation,
	domainSubmission.ErrReferenceNotFound,
	domainSubmission.ErrUnsupportedFileType,
	domainSubmission.ErrForbidden,
	domainSubmission.ErrAlreadyResolved,
	domainSubmission.ErrIO,
	domainSubmission.ErrDocumentWrite,
	domainSubmission.ErrTransaction,
}

// classify maps whatever came out of the transaction onto the taxonomy.
// Anything unrecognized is a database-level failure.
func classify(err error) error {
	for _, t := range taxonomy {
		if errors.Is(err, t) {
			return err
		}
	}
	switch {
	case errors.Is(err, request.ErrNotFound):
		return fmt.Errorf("%w: %w", domainSubmission.ErrReferenceNotFound, err)
	default:
		return fmt.Errorf("%w: %w", domainSubmission.ErrTransaction, err)
	}
}

// clientError reports failures caused by the input rather than the system.
func clientError(err error) bool {
	return errors.Is(err, domainSubmission.ErrValidation) ||
		errors.Is(err, domainSubmission.ErrReferenceNotFound) ||
		errors.Is(err, domainSubmission.ErrUnsupportedFileType) ||
		errors.Is(err, domainSubmission.ErrForbidden) ||
		errors.Is(err, domainSubmission.ErrAlreadyResolved)
}

func lookupType(ctx context.Context, dir directory.Repository, id uint64) (*directory.RequestType, error) {
	t, err := dir.GetRequestType(ctx, id)
	if errors.Is(err, directory.ErrTypeNotFound) {
		return nil, fmt.Errorf("%w: request type %d", domainSubmission.ErrReferenceNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load request type: %w", domainSubmission.ErrTransaction, err)
	}
	return t, nil
}

// requesterName resolves the name printed on folders and documents. An
// unknown RUT is a missing reference; any other lookup failure falls back
// to the RUT itself and the insert enforces the reference.
func (u *Usecase) requesterName(ctx context.Context, dir directory.Repository, rut string) (string, error) {
	usr, err := dir.GetUser(ctx, rut)
	if errors.Is(err, directory.ErrUserNotFound) {
		return "", fmt.Errorf("%w: requester %s", domainSubmission.ErrReferenceNotFound, rut)
	}
	if err != nil {
		u.Logger.Warn("requester lookup failed, using RUT as name", slog.String("rut", rut), slog.Any("error", err))
		return rut, nil
	}
	return displayName(usr, rut), nil
}

func displayName(usr *directory.User, fallback string) string {
	if usr == nil || usr.FullName() == "" {
		return fallback
	}
	return usr.FullName()
}

// manifest de-duplicates stored names, keeping first-seen order; a repeated
// name was overwritten on disk.
func manifest(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
