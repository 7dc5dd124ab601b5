package http

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"municipal-portal/internal/infrastructure/attachment"
	"municipal-portal/internal/usecase/submission"

	"github.com/labstack/echo/v4"
)

// maxValueBytes caps a single text field.
const maxValueBytes = 64 << 10

var (
	errNotMultipart  = errors.New("expected multipart/form-data")
	errValueTooLarge = errors.New("form value too large")
)

type formValue struct {
	Name  string
	Value string
}

// multipartForm keeps text values and files in the order they were sent,
// which the PDF needs for additional fields.
type multipartForm struct {
	Values []formValue
	Files  []attachment.Upload
}

func (f *multipartForm) Get(name string) string {
	for _, v := range f.Values {
		if v.Name == name {
			return strings.TrimSpace(v.Value)
		}
	}
	return ""
}

// Extra returns every text value not named in reserved, in order.
func (f *multipartForm) Extra(reserved ...string) []submission.Field {
	skip := make(map[string]struct{}, len(reserved))
	for _, r := range reserved {
		skip[r] = struct{}{}
	}
	var out []submission.Field
	for _, v := range f.Values {
		if _, ok := skip[v.Name]; ok {
			continue
		}
		out = append(out, submission.Field{Key: v.Name, Value: v.Value})
	}
	return out
}

// readMultipart streams the body part by part. The whole body is capped
// at maxBytes; file parts are buffered in memory.
func readMultipart(c echo.Context, maxBytes int64) (*multipartForm, error) {
	req := c.Request()
	if maxBytes > 0 {
		req.Body = http.MaxBytesReader(c.Response(), req.Body, maxBytes)
	}
	mr, err := req.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errNotMultipart, err)
	}

	form := &multipartForm{}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return form, nil
		}
		if err != nil {
			return nil, err
		}
		if err := form.add(part); err != nil {
			_ = part.Close()
			return nil, err
		}
		_ = part.Close()
	}
}

func (f *multipartForm) add(part *multipart.Part) error {
	name := part.FormName()
	if fn := part.FileName(); fn != "" {
		b, err := io.ReadAll(part)
		if err != nil {
			return err
		}
		f.Files = append(f.Files, attachment.FromBytes(fn, part.Header.Get(echo.HeaderContentType), b))
		return nil
	}
	if name == "" {
		return nil
	}
	b, err := io.ReadAll(io.LimitReader(part, maxValueBytes+1))
	if err != nil {
		return err
	}
	if len(b) > maxValueBytes {
		return fmt.Errorf("%w: %s", errValueTooLarge, name)
	}
	f.Values = append(f.Values, formValue{Name: name, Value: string(b)})
	return nil
}

// formStatus maps a read failure to its HTTP status.
func formStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) || errors.Is(err, errValueTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}
