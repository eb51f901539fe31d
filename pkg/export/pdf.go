package export

import (
	"bytes"
	"fmt"

	"codeberg.org/go-pdf/fpdf"
)

// A4 report layout in points, measured from the bottom of the page.
const (
	pageHeight = 841.89
	marginLeft = 50.0
	layoutTop  = 800.0
	layoutLow  = 60.0
	lineHeight = 14.0
)

// reportWriter draws lines top to bottom, starting a new page below layoutLow.
type reportWriter struct {
	pdf *fpdf.Fpdf
	y   float64
}

// line draws txt if anything is left after sanitizing.
func (w *reportWriter) line(txt string, bold bool, size float64) {
	safe, _ := encodeLatin1(Sanitize(txt))
	if safe == "" {
		return
	}
	if w.y < layoutLow {
		w.pdf.AddPage()
		w.y = layoutTop
	}
	style := ""
	if bold {
		style = "B"
	}
	w.pdf.SetFont("Helvetica", style, size)
	w.pdf.Text(marginLeft, pageHeight-w.y, safe)
	w.y -= lineHeight
}

// PDF renders doc as an A4 report: bold title, the meta line, then each
// section heading followed by its lines wrapped at WrapWidth characters.
func PDF(doc Document) ([]byte, error) {
	doc = doc.withDefaults()

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(Sanitize(doc.Title), false)
	pdf.AddPage()

	w := &reportWriter{pdf: pdf, y: layoutTop}
	w.line(doc.Title, true, 16)
	w.y -= 6
	w.line(doc.MetaLine(), true, 11)
	w.y -= 10

	for _, s := range doc.Sections {
		w.line(s.Heading, true, 13)
		for _, l := range contentLines(Sanitize(s.Content)) {
			for _, chunk := range WrapLine(l, WrapWidth) {
				w.line(chunk, false, 11)
			}
		}
		w.y -= 8
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}
