package export

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"

	"codeberg.org/go-pdf/fpdf"

	"github.com/gardar/docscan/pkg/hocr"
)

// ErrNoPages is returned when there is nothing to put in a searchable PDF.
var ErrNoPages = errors.New("export: no pages to assemble")

// SearchablePDF builds a PDF with one page per image, each overlaid with the
// words of the matching hOCR page on an invisible text layer. Page sizes in
// points equal the image sizes in pixels.
func SearchablePDF(images []image.Image, doc *hocr.HOCR, cfg LayerConfig) ([]byte, error) {
	if doc == nil || len(doc.Pages) == 0 || len(images) == 0 {
		return nil, ErrNoPages
	}
	if len(images) < len(doc.Pages) {
		return nil, fmt.Errorf("not enough images (%d) for HOCR pages (%d)", len(images), len(doc.Pages))
	}
	if cfg.Font.Name == "" {
		cfg.Font = DefaultFont
	}

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)

	for i, page := range doc.Pages {
		b := images[i].Bounds()
		w, h := float64(b.Dx()), float64(b.Dy())
		if w == 0 || h == 0 {
			return nil, fmt.Errorf("image %d is empty", i+1)
		}

		pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})

		var buf bytes.Buffer
		if err := png.Encode(&buf, images[i]); err != nil {
			return nil, fmt.Errorf("failed to encode image %d: %w", i+1, err)
		}
		imageName := fmt.Sprintf("img%d", i)
		opts := fpdf.ImageOptions{ReadDpi: false, ImageType: "PNG"}
		pdf.RegisterImageOptionsReader(imageName, opts, &buf)
		pdf.ImageOptions(imageName, 0, 0, w, h, false, opts, 0, "")

		// hOCR boxes are relative to the page box; fall back to the image size
		hocrW, hocrH := page.BBox.Width(), page.BBox.Height()
		if hocrW <= 0 || hocrH <= 0 {
			hocrW, hocrH = w, h
		}
		transform := func(x, y float64) (float64, float64) {
			return normalizeCoords(x, y, hocrW, hocrH, w, h)
		}

		lossy, total := drawOCRLayer(pdf, page, cfg, i+1, transform)
		if cfg.LogWarnings && lossy > 0 {
			cfg.logger().Warn("export: lossy text layer encoding",
				"page", i+1, "lossy_words", lossy, "words", total)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// HOCR renders doc as hOCR XHTML.
func HOCR(doc *hocr.HOCR) ([]byte, error) {
	if doc == nil || len(doc.Pages) == 0 {
		return nil, ErrNoPages
	}
	return hocr.Generate(doc)
}
