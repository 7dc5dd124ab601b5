package folder

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"municipal-portal/pkg/id"
	"municipal-portal/pkg/locale"
)

// ResponseDir is the subfolder of a request folder that holds its response.
const ResponseDir = "Respuesta"

// RequestLayout holds everything the request folder name is derived from.
type RequestLayout struct {
	Root        string
	SubmittedAt time.Time // already in the portal's timezone
	TypeName    string
	FullName    string
	ID          uint64
}

// Leaf is "{type} - {name}, {dd-mm-yyyy}, {id10}".
func (l RequestLayout) Leaf() string {
	return fmt.Sprintf("%s - %s, %s, %s",
		Segment(l.TypeName),
		Segment(l.FullName),
		locale.FolderDate(l.SubmittedAt),
		id.Pad(l.ID),
	)
}

// Chain lists the year, month and leaf directories in creation order.
func (l RequestLayout) Chain() []string {
	year := filepath.Join(l.Root, l.SubmittedAt.Format("2006"))
	month := filepath.Join(year, locale.MonthName(l.SubmittedAt.Month()))
	return []string{year, month, filepath.Join(month, l.Leaf())}
}

func (l RequestLayout) Path() string {
	c := l.Chain()
	return c[len(c)-1]
}

func ResponsePath(requestFolder string) string {
	return filepath.Join(requestFolder, ResponseDir)
}

var segmentReplacer = strings.NewReplacer("/", "-", "\\", "-", "\x00", "")

// Segment keeps a display name inside one path element.
func Segment(name string) string {
	s := strings.TrimSpace(segmentReplacer.Replace(name))
	if s == "" || s == "." || s == ".." {
		return "-"
	}
	return s
}
