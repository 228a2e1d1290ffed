package report

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

const reportFont = "report"

// PDF is the fpdf-backed Drawer. Positions are converted from page percent
// to points; fpdf measures y from the top, so anchored boxes are shifted up
// by their height.
type PDF struct {
	pdf       *fpdf.Fpdf
	font      string
	translate func(string) string
	width     float64
	height    float64
}

// NewPDF starts an A4 portrait document. fontPath names a TrueType font for
// non-Latin text; without it the core Helvetica font is used.
func NewPDF(fontPath string) *PDF {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	width, height := pdf.GetPageSize()

	p := &PDF{pdf: pdf, width: width, height: height}
	if fontPath != "" {
		pdf.AddUTF8Font(reportFont, "", fontPath)
		p.font = reportFont
		p.translate = func(s string) string { return s }
	} else {
		p.font = "Helvetica"
		p.translate = pdf.UnicodeTranslatorFromDescriptor("")
	}
	return p
}

func (p *PDF) point(at Point) (float64, float64) {
	return at.X / 100 * p.width, at.Y / 100 * p.height
}

// AddPage starts a new page.
func (p *PDF) AddPage() {
	p.pdf.AddPage()
}

func (p *PDF) DrawText(text string, at Point, style TextStyle) {
	if text == "" {
		return
	}
	x, y := p.point(at)
	p.pdf.SetFont(p.font, "", style.Size)
	p.pdf.SetTextColor(style.Color.R, style.Color.G, style.Color.B)
	p.pdf.Text(x, y, p.translate(text))
}

func (p *PDF) DrawImage(path string, at Point, size Size) {
	x, y := p.point(at)
	p.pdf.ImageOptions(path, x, y-size.H, size.W, size.H, false, fpdf.ImageOptions{ReadDpi: true}, 0, "")
}

func (p *PDF) DrawRect(at Point, size Size, style RectStyle) {
	x, y := p.point(at)
	p.pdf.SetDrawColor(style.Color.R, style.Color.G, style.Color.B)
	p.pdf.SetLineWidth(style.Width)
	p.pdf.Rect(x, y-size.H, size.W, size.H, "D")
}

// Err returns the first drawing error, such as an unreadable image.
func (p *PDF) Err() error {
	return p.pdf.Error()
}

// Write encodes the document to w.
func (p *PDF) Write(w io.Writer) error {
	if err := p.pdf.Error(); err != nil {
		return fmt.Errorf("draw pdf: %w", err)
	}
	if err := p.pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
