package ocr

import (
	"image"

	"github.com/gardar/docscan/pkg/hocr"
)

// WordsFromHOCR flattens an hOCR document into words in document order.
// Page numbers are 1-based; block, paragraph and line numbers are 1-based
// within their parent, following Tesseract's TSV numbering.
func WordsFromHOCR(doc *hocr.HOCR) []Word {
	var words []Word
	for pi, page := range doc.Pages {
		for bi, area := range page.Areas {
			for pari, par := range area.Paragraphs {
				for li, line := range par.Lines {
					for _, hw := range line.Words {
						w := Word{
							Text:       hw.Text,
							Confidence: hw.Confidence,
							PageNum:    pi + 1,
							BlockNum:   bi + 1,
							ParNum:     pari + 1,
							LineNum:    li + 1,
						}
						if !hw.BBox.IsZero() {
							w.BBox = &BBox{X0: hw.BBox.X1, Y0: hw.BBox.Y1, X1: hw.BBox.X2, Y1: hw.BBox.Y2}
						}
						words = append(words, w)
					}
				}
			}
		}
	}
	return words
}

// RecognitionFromHOCR builds a Recognition from an hOCR document.
func RecognitionFromHOCR(doc *hocr.HOCR) Recognition {
	words := WordsFromHOCR(doc)
	return Recognition{
		Text:           hocr.Text(doc),
		Words:          words,
		MeanConfidence: MeanConfidence(words),
	}
}

// HOCRFromWords rebuilds an hOCR hierarchy from words. A new container is
// opened whenever the corresponding number changes between neighbouring
// words; container boxes are the union of their words' boxes. size is the
// extent of the recognized image and becomes the page box.
func HOCRFromWords(words []Word, size image.Point, system string) *hocr.HOCR {
	doc := &hocr.HOCR{System: system, Metadata: map[string]string{}}
	pageBox := hocr.NewBoundingBox(0, 0, float64(size.X), float64(size.Y))

	var prev *Word
	for i := range words {
		w := words[i]
		newPage := prev == nil || w.PageNum != prev.PageNum
		newArea := newPage || w.BlockNum != prev.BlockNum
		newPar := newArea || w.ParNum != prev.ParNum
		newLine := newPar || w.LineNum != prev.LineNum
		prev = &words[i]

		if newPage {
			doc.Pages = append(doc.Pages, hocr.Page{PageNumber: len(doc.Pages), BBox: pageBox})
		}
		page := &doc.Pages[len(doc.Pages)-1]
		if newArea {
			page.Areas = append(page.Areas, hocr.Area{})
		}
		area := &page.Areas[len(page.Areas)-1]
		if newPar {
			area.Paragraphs = append(area.Paragraphs, hocr.Paragraph{})
		}
		par := &area.Paragraphs[len(area.Paragraphs)-1]
		if newLine {
			par.Lines = append(par.Lines, hocr.Line{})
		}
		line := &par.Lines[len(par.Lines)-1]

		var box hocr.BoundingBox
		if w.BBox != nil {
			box = hocr.NewBoundingBox(w.BBox.X0, w.BBox.Y0, w.BBox.X1, w.BBox.Y1)
		}
		line.Words = append(line.Words, hocr.Word{Text: w.Text, BBox: box, Confidence: w.Confidence})
		line.BBox = line.BBox.Union(box)
		par.BBox = par.BBox.Union(box)
		area.BBox = area.BBox.Union(box)
	}
	if len(doc.Pages) == 0 {
		doc.Pages = []hocr.Page{{BBox: pageBox}}
	}
	return doc
}
