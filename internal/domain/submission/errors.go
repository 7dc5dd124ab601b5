// Package submission holds the failure taxonomy shared by every stage of
// the request/response pipeline. Stages wrap these sentinels with %w so
// callers classify with errors.Is.
package submission

import "errors"

var (
	// rejected before any side effect
	ErrValidation          = errors.New("validation failed")
	ErrReferenceNotFound   = errors.New("referenced entity not found")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrForbidden           = errors.New("role not allowed to respond")
	ErrAlreadyResolved     = errors.New("request already resolved")

	// folder or file operation
	ErrIO            = errors.New("filesystem operation failed")
	ErrDocumentWrite = errors.New("document write failed")
	// commit, rollback or statement level database error
	ErrTransaction   = errors.New("transaction failed")

	// post-commit only; never rolls anything back
	ErrDelivery = errors.New("notification delivery failed")
)

// Compensable reports whether err must trigger cleanup of the attempt.
func Compensable(err error) bool {
	return err != nil && !errors.Is(err, ErrDelivery)
}
