package document

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"municipal-portal/internal/domain/submission"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: 120, B: uint8(y), A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func testLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

func sampleRequest() RequestDocument {
	return RequestDocument{
		ID:            1,
		TypeName:      "Poda de árboles",
		AreaName:      "Medio Ambiente",
		SubmittedAt:   time.Date(2026, 10, 16, 10, 30, 0, 0, time.UTC),
		RequesterRUT:  "11111111-1",
		RequesterName: "María Muñoz",
		Fields: []Field{
			{Key: "direccion", Value: "Av. Principal 123"},
			{Key: "numero_de_poste", Value: "A-17"},
		},
		Attachments: []string{"plano.pdf"},
	}
}

func TestLabel(t *testing.T) {
	tests := map[string]string{
		"numero_de_poste": "Numero De Poste",
		"direccion":       "Direccion",
		"calle__y_numero": "Calle Y Numero",
		"RUT_empresa":     "RUT Empresa",
	}
	for in, want := range tests {
		if got := Label(in); got != want {
			t.Fatalf("Label(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRenderRequest_ProducesPDF(t *testing.T) {
	logger, _ := testLogger()
	r := NewRenderer("", logger)

	b, err := r.RenderRequest(sampleRequest())
	if err != nil {
		t.Fatalf("RenderRequest: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF-")) {
		t.Fatalf("output is not a PDF: %q", b[:8])
	}
}

func TestRenderRequest_ImagesOnePerPage(t *testing.T) {
	dir := t.TempDir()
	wide := filepath.Join(dir, "ancha.png")
	tall := filepath.Join(dir, "alta.png")
	writePNG(t, wide, 400, 100)
	writePNG(t, tall, 100, 400)

	logger, _ := testLogger()
	doc := sampleRequest()
	doc.Images = []string{wide, tall}

	pdf := NewRenderer("", logger).buildRequest(doc)
	if pdf.Err() {
		t.Fatalf("render error: %v", pdf.Error())
	}
	if got := pdf.PageNo(); got != 3 {
		t.Fatalf("pages = %d, want 3 (text + 2 images)", got)
	}
}

func TestRenderRequest_BadImageSkippedWithWarning(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "rota.png")
	if err := os.WriteFile(broken, []byte("not a png"), 0o600); err != nil {
		t.Fatal(err)
	}
	logger, logs := testLogger()
	doc := sampleRequest()
	doc.Images = []string{broken}

	b, err := NewRenderer("", logger).RenderRequest(doc)
	if err != nil {
		t.Fatalf("RenderRequest must tolerate a bad image: %v", err)
	}
	if len(b) == 0 {
		t.Fatal("empty output")
	}
	if !strings.Contains(logs.String(), "skipping unreadable image") {
		t.Fatalf("missing warning, logs: %s", logs.String())
	}
}

func TestRenderRequest_Logo(t *testing.T) {
	logger, logs := testLogger()
	missing := filepath.Join(t.TempDir(), "logo.png")

	if _, err := NewRenderer(missing, logger).RenderRequest(sampleRequest()); err != nil {
		t.Fatalf("missing logo must not fail: %v", err)
	}
	if !strings.Contains(logs.String(), "logo not found") {
		t.Fatalf("missing warning, logs: %s", logs.String())
	}

	writePNG(t, missing, 120, 60)
	logs.Reset()
	if _, err := NewRenderer(missing, logger).RenderRequest(sampleRequest()); err != nil {
		t.Fatalf("with logo: %v", err)
	}
	if strings.Contains(logs.String(), "logo") {
		t.Fatalf("unexpected logo warning: %s", logs.String())
	}
}

func TestRenderResponse(t *testing.T) {
	logger, _ := testLogger()
	doc := ResponseDocument{
		ID:          4,
		RespondedAt: time.Date(2026, 10, 20, 15, 0, 0, 0, time.UTC),
		StaffRUT:    "12345678-5",
		StaffName:   "Pedro Soto",
		Status:      "Aprobada",
		Body:        strings.Repeat("Se autoriza la poda solicitada. ", 40),
		Request: RequestRef{
			ID:            1,
			TypeName:      "Poda de árboles",
			SubmittedAt:   time.Date(2026, 10, 16, 10, 30, 0, 0, time.UTC),
			RequesterRUT:  "11111111-1",
			RequesterName: "María Muñoz",
		},
		Attachments: []string{"resolucion.pdf"},
	}
	b, err := NewRenderer("", logger).RenderResponse(doc)
	if err != nil {
		t.Fatalf("RenderResponse: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF-")) {
		t.Fatal("output is not a PDF")
	}
}

func TestPersist(t *testing.T) {
	dir := t.TempDir()
	r := NewRenderer("", nil)

	path, err := r.Persist(dir, "solicitud.pdf", []byte("%PDF-1.3 test"))
	if err != nil {
		t.Fatalf("Persist: %v", err)
	}
	if path != filepath.Join(dir, "solicitud.pdf") {
		t.Fatalf("path = %q", path)
	}
	b, err := os.ReadFile(path)
	if err != nil || string(b) != "%PDF-1.3 test" {
		t.Fatalf("readback = %q, %v", b, err)
	}

	_, err = r.Persist(filepath.Join(dir, "missing"), "respuesta.pdf", []byte("x"))
	if !errors.Is(err, submission.ErrDocumentWrite) {
		t.Fatalf("want ErrDocumentWrite, got %v", err)
	}
}
