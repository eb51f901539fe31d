package export

import (
	"fmt"

	"codeberg.org/go-pdf/fpdf"

	"github.com/gardar/docscan/pkg/hocr"
)

// drawOCRLayer draws the words of an hOCR page onto a layer of the current
// pdf page and returns how many words could not be encoded losslessly.
// The pageNum parameter is used to create unique layer names for each page.
func drawOCRLayer(
	pdf *fpdf.Fpdf,
	page hocr.Page,
	cfg LayerConfig,
	pageNum int,
	transform func(x, y float64) (float64, float64),
) (lossy, total int) {
	formattedLayerName := cfg.LayerName
	if pageNum > 0 {
		formattedLayerName = fmt.Sprintf("%s (Page %d)", cfg.LayerName, pageNum)
	}

	layer := pdf.AddLayer(formattedLayerName, true)
	pdf.BeginLayer(layer)
	pdf.SetFont(cfg.Font.Name, cfg.Font.Style, cfg.Font.Size)

	if cfg.Debug {
		pdf.SetTextColor(255, 0, 0) // highlight text in red
	} else {
		pdf.SetAlpha(0.0, "Normal") // hide text from normal view
	}

	for _, area := range page.Areas {
		for _, paragraph := range area.Paragraphs {
			for _, line := range paragraph.Lines {
				for _, word := range line.Words {
					if word.BBox.IsZero() || word.Text == "" {
						continue
					}
					if !drawWord(pdf, word, transform, cfg) {
						lossy++
					}
					total++
				}
			}
		}
	}

	if !cfg.Debug {
		pdf.SetAlpha(1.0, "Normal")
	}
	pdf.EndLayer()
	return lossy, total
}

// drawWord renders a single word stretched to its box. It reports false when
// the text had to be sanitized to fit the font encoding.
func drawWord(pdf *fpdf.Fpdf, word hocr.Word, transform func(x, y float64) (float64, float64), cfg LayerConfig) bool {
	x, y := transform(word.BBox.X1, word.BBox.Y1)
	x2, y2 := transform(word.BBox.X2, word.BBox.Y2)
	wordWidth := x2 - x

	text, exact := encodeLatin1(word.Text)
	if text == "" {
		return exact
	}

	strWidth := pdf.GetStringWidth(text)
	if strWidth > 0 {
		scale := wordWidth / strWidth
		pdf.SetFontSize(cfg.Font.Size * scale)
	}

	fontSize, _ := pdf.GetFontSize()
	y += fontSize * cfg.Font.AscentRatio

	pdf.Text(x, y, text)
	pdf.SetFontSize(cfg.Font.Size)

	if cfg.Debug {
		pdf.Rect(x, y-(fontSize*cfg.Font.AscentRatio), wordWidth, y2-(y-fontSize*cfg.Font.AscentRatio), "D")
	}
	return exact
}
