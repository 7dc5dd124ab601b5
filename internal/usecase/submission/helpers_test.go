package submission

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"municipal-portal/internal/adapter/repository/mysql"
	"municipal-portal/internal/domain/directory"
	"municipal-portal/internal/infrastructure/attachment"
	"municipal-portal/internal/infrastructure/document"
	"municipal-portal/internal/infrastructure/folder"
	"municipal-portal/internal/infrastructure/logging"
	"municipal-portal/internal/infrastructure/mailer"
	"municipal-portal/internal/testutil/sqlitedb"

	"gorm.io/gorm"
)

const (
	citizenRUT = "11111111-1"
	otherRUT   = "22222222-2"
	staffRUT   = "12345678-5"
	typeID     = 3
)

var fixedNow = time.Date(2026, time.October, 16, 10, 30, 0, 0, time.UTC)

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []mailer.Message
	id   string
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, msg mailer.Message) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
	if n.err != nil {
		return "", n.err
	}
	return n.id, nil
}

// faultyDocs fails persistence on demand and renders through the real renderer.
type faultyDocs struct {
	Documents
	persistErr error
}

func (d *faultyDocs) Persist(folder, name string, b []byte) (string, error) {
	if d.persistErr != nil {
		return "", d.persistErr
	}
	return d.Documents.Persist(folder, name, b)
}

// faultyStore fails the nth Save (1-based) and stores the rest.
type faultyStore struct {
	Attachments
	failOn int
	err    error
	calls  int
}

func (s *faultyStore) Save(ctx context.Context, dir string, kind attachment.Kind, up attachment.Upload) (string, error) {
	s.calls++
	if s.calls == s.failOn {
		return "", s.err
	}
	return s.Attachments.Save(ctx, dir, kind, up)
}

type env struct {
	db       *gorm.DB
	root     string
	uc       *Usecase
	notifier *recordingNotifier
}

func newEnv(t *testing.T, tweak ...func(d *Deps, o *Options)) *env {
	t.Helper()
	db := sqlitedb.Open(t)
	sqlitedb.SeedType(t, db, typeID, "Alumbrado Público", "Obras")
	sqlitedb.SeedUser(t, db, citizenRUT, "Ana", "Rojas", directory.RoleCitizen)
	sqlitedb.SeedUser(t, db, otherRUT, "Luis", "Vera", directory.RoleCitizen)
	sqlitedb.SeedUser(t, db, staffRUT, "Pedro", "Soto", directory.RoleStaff)

	root := filepath.Join(t.TempDir(), "solicitudes")
	n := &recordingNotifier{id: "<1@portal.test>"}
	d := Deps{
		UoW:         mysql.NewGormUoW(db),
		Requests:    mysql.NewRequestRepository(db),
		Responses:   mysql.NewResponseRepository(db),
		Folders:     folder.NewMaterializer(root),
		Attachments: attachment.NewStore(),
		Documents:   document.NewRenderer("", logging.Discard()),
		Notifier:    n,
		Logger:      logging.Discard(),
	}
	o := Options{
		Location: time.UTC,
		Now:      func() time.Time { return fixedNow },
	}
	for _, f := range tweak {
		f(&d, &o)
	}
	return &env{db: db, root: root, uc: NewUsecase(d, o), notifier: n}
}

// files lists every regular file and directory under root, relative to it.
func files(t *testing.T, root string) []string {
	t.Helper()
	var out []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}
		rel, _ := filepath.Rel(root, p)
		out = append(out, rel)
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("walk %s: %v", root, err)
	}
	sort.Strings(out)
	return out
}

func names(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir %s: %v", dir, err)
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name())
	}
	return out
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.RGBA{R: 10, G: uint8(x * 5), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func pdfUpload(name string) attachment.Upload {
	return attachment.FromBytes(name, "application/pdf", []byte("%PDF-1.4 "+name))
}

func (e *env) createRequest(t *testing.T, email string) *CreateRequestResult {
	t.Helper()
	res, err := e.uc.CreateRequest(context.Background(), CreateRequestInput{
		RequesterRUT:      citizenRUT,
		TypeID:            typeID,
		NotificationEmail: email,
	})
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	return res
}
