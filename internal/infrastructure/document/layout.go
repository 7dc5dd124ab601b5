package document

import (
	"log/slog"
	"os"
	"time"

	"github.com/go-pdf/fpdf"
)

const (
	margin     = 20.0 // mm, all sides
	logoWidth  = 35.0
	lineHeight = 6.0
	fontFamily = "Helvetica"
)

// page wraps an fpdf document with the portal's house style. Text goes
// through a cp1252 translator because the core fonts are not UTF-8.
type page struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func (r *Renderer) newPage(subject string, created time.Time) *page {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetTitle(subject, true)
	pdf.SetCreator("municipal-portal", true)
	pdf.SetCreationDate(created)
	pdf.AddPage()

	p := &page{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	r.logo(p)
	return p
}

func (r *Renderer) logo(p *page) {
	if r.logoPath == "" {
		return
	}
	if _, err := os.Stat(r.logoPath); err != nil {
		r.logger.Warn("logo not found, rendering without it", slog.String("path", r.logoPath))
		return
	}
	opts := fpdf.ImageOptions{ReadDpi: true}
	info := p.pdf.RegisterImageOptions(r.logoPath, opts)
	if p.pdf.Err() || info == nil {
		r.logger.Warn("logo unreadable, rendering without it",
			slog.String("path", r.logoPath), slog.Any("error", p.pdf.Error()))
		p.pdf.ClearError()
		return
	}
	p.pdf.ImageOptions(r.logoPath, margin, margin, logoWidth, 0, false, opts, 0, "")
	h := logoWidth * info.Height() / info.Width()
	p.pdf.SetY(margin + h + 4)
}

func (p *page) width() float64 {
	w, _ := p.pdf.GetPageSize()
	return w - 2*margin
}

func (p *page) title(s string) {
	p.pdf.SetFont(fontFamily, "B", 16)
	p.pdf.CellFormat(0, 10, p.tr(s), "", 1, "C", false, 0, "")
	p.pdf.Ln(2)
	p.rule()
}

func (p *page) section(s string) {
	p.pdf.SetFont(fontFamily, "B", 12)
	p.pdf.CellFormat(0, 8, p.tr(s), "", 1, "L", false, 0, "")
}

// line prints "Label: value", wrapping long values.
func (p *page) line(label, value string) {
	p.pdf.SetFont(fontFamily, "B", 10)
	l := p.tr(label + ": ")
	lw := p.pdf.GetStringWidth(l) + 1
	p.pdf.CellFormat(lw, lineHeight, l, "", 0, "L", false, 0, "")
	p.pdf.SetFont(fontFamily, "", 10)
	p.pdf.MultiCell(p.width()-lw, lineHeight, p.tr(value), "", "L", false)
}

func (p *page) paragraph(s string) {
	p.pdf.SetFont(fontFamily, "", 10)
	p.pdf.MultiCell(0, lineHeight, p.tr(s), "", "J", false)
}

// rule draws a thin separator across the text width.
func (p *page) rule() {
	p.pdf.Ln(2)
	y := p.pdf.GetY()
	p.pdf.SetDrawColor(160, 160, 160)
	p.pdf.SetLineWidth(0.2)
	p.pdf.Line(margin, y, margin+p.width(), y)
	p.pdf.Ln(3)
}

func (p *page) attachments(names []string) {
	p.section("Archivos adjuntos")
	p.pdf.SetFont(fontFamily, "", 10)
	if len(names) == 0 {
		p.pdf.CellFormat(0, lineHeight, p.tr("Sin archivos adjuntos"), "", 1, "L", false, 0, "")
		return
	}
	for _, n := range names {
		p.pdf.MultiCell(0, lineHeight, p.tr("- "+n), "", "L", false)
	}
}

// images appends one page per embeddable attachment, scaled to fit inside
// the margins with its aspect ratio kept. Unreadable images are skipped.
func (r *Renderer) images(p *page, paths []string) {
	w, h := p.pdf.GetPageSize()
	aw, ah := w-2*margin, h-2*margin

	for _, path := range paths {
		opts := fpdf.ImageOptions{ReadDpi: true}
		info := p.pdf.RegisterImageOptions(path, opts)
		if p.pdf.Err() || info == nil || info.Width() <= 0 || info.Height() <= 0 {
			r.logger.Warn("skipping unreadable image", slog.String("path", path), slog.Any("error", p.pdf.Error()))
			p.pdf.ClearError()
			continue
		}
		scale := aw / info.Width()
		if s := ah / info.Height(); s < scale {
			scale = s
		}
		iw, ih := info.Width()*scale, info.Height()*scale

		p.pdf.AddPage()
		p.pdf.ImageOptions(path, margin+(aw-iw)/2, margin, iw, ih, false, opts, 0, "")
	}
}
