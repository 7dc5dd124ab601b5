// Package attachment validates and writes uploaded files into a
// materialized request or response folder.
package attachment

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"municipal-portal/internal/domain/submission"
	"municipal-portal/internal/infrastructure/fsutil"
)

type Kind string

const (
	KindRequest  Kind = "solicitud"
	KindResponse Kind = "respuesta"
)

var allowList = map[Kind]map[string]struct{}{
	KindRequest:  set("jpg", "jpeg", "png", "gif", "webp", "pptx", "docx", "pdf"),
	KindResponse: set("jpg", "jpeg", "png", "gif", "webp", "pdf", "doc", "docx", "xls", "xlsx", "ppt", "pptx", "txt"),
}

// images the document renderer can embed full page
var embeddable = set("jpg", "jpeg", "png")

func set(exts ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		m[e] = struct{}{}
	}
	return m
}

// Allowed returns the sorted extensions accepted for kind.
func Allowed(kind Kind) []string {
	out := make([]string, 0, len(allowList[kind]))
	for e := range allowList[kind] {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

// Extension is the lower-cased extension without the dot.
func Extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// StoredName is the base name an upload is written under. Client paths
// with either separator are reduced to their last element.
func StoredName(filename string) string {
	return path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
}

func IsImage(name string) bool {
	_, ok := embeddable[Extension(name)]
	return ok
}

// DocumentName is the file the generated PDF of kind is written to.
func DocumentName(kind Kind) string { return string(kind) + ".pdf" }

// Validate rejects a filename whose extension is outside kind's allow-list,
// and an upload that would collide with the generated document.
func Validate(kind Kind, filename string) error {
	name := StoredName(filename)
	if name == "" || name == "." || name == "/" || name == ".." {
		return fmt.Errorf("%w: empty file name", submission.ErrValidation)
	}
	exts, ok := allowList[kind]
	if !ok {
		return fmt.Errorf("%w: unknown attachment kind %q", submission.ErrValidation, kind)
	}
	if _, ok := exts[Extension(name)]; !ok {
		return fmt.Errorf("%w: %q (allowed: %s)", submission.ErrUnsupportedFileType, name, strings.Join(Allowed(kind), ", "))
	}
	if strings.EqualFold(name, DocumentName(kind)) {
		return fmt.Errorf("%w: %q is reserved for the generated document", submission.ErrValidation, name)
	}
	return nil
}

// Upload is one received file. Open may be called more than once.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

func FromBytes(filename, contentType string, b []byte) Upload {
	return Upload{
		Filename:    filename,
		ContentType: contentType,
		Size:        int64(len(b)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(b)), nil
		},
	}
}

type Store struct{}

func NewStore() *Store { return &Store{} }

// Save writes up into folder under its original base name and returns that
// name. A file with the same name already in folder is replaced. The write
// is durable when Save returns.
func (s *Store) Save(ctx context.Context, folder string, kind Kind, up Upload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", submission.ErrIO, err)
	}
	if err := Validate(kind, up.Filename); err != nil {
		return "", err
	}
	if up.Open == nil {
		return "", fmt.Errorf("%w: upload %q has no payload", submission.ErrValidation, up.Filename)
	}

	name := StoredName(up.Filename)
	rc, err := up.Open()
	if err != nil {
		return "", fmt.Errorf("%w: open upload %q: %w", submission.ErrIO, name, err)
	}
	defer rc.Close()

	if _, err := fsutil.WriteFileAtomic(filepath.Join(folder, name), rc); err != nil {
		return "", fmt.Errorf("%w: %w", submission.ErrIO, err)
	}
	return name, nil
}
