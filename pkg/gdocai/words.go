package gdocai

import (
	"math"

	"cloud.google.com/go/documentai/apiv1/documentaipb"

	"github.com/gardar/docscan/pkg/ocr"
)

// WordsFromProto flattens a Document AI response into words in reading
// order. Tokens are attached to the line whose text anchor contains them,
// lines to paragraphs and paragraphs to blocks the same way. Numbers are
// 1-based within their parent; tokens outside any line are skipped.
func WordsFromProto(doc *documentaipb.Document) []ocr.Word {
	if doc == nil {
		return nil
	}
	text := newFullText(doc)
	var words []ocr.Word
	for pi, page := range doc.Pages {
		for bi, block := range page.Blocks {
			parNum := 0
			for _, para := range page.Paragraphs {
				if !isElementInParent(para.Layout, block.Layout) {
					continue
				}
				parNum++
				lineNum := 0
				for _, line := range page.Lines {
					if !isElementInParent(line.Layout, para.Layout) {
						continue
					}
					lineNum++
					for _, token := range page.Tokens {
						if !isElementInParent(token.Layout, line.Layout) {
							continue
						}
						w := ocr.Word{
							Text:     text.token(token),
							PageNum:  pi + 1,
							BlockNum: bi + 1,
							ParNum:   parNum,
							LineNum:  lineNum,
							BBox:     pixelBox(token.Layout, page.Dimension),
						}
						if token.Layout != nil {
							w.Confidence = float64(token.Layout.Confidence * 100)
						}
						words = append(words, w)
					}
				}
			}
		}
	}
	return words
}

// pixelBox converts normalized vertices to a pixel box on the page. It
// returns nil when the layout has no usable polygon.
func pixelBox(layout *documentaipb.Document_Page_Layout, dim *documentaipb.Document_Page_Dimension) *ocr.BBox {
	if layout == nil || layout.BoundingPoly == nil || dim == nil {
		return nil
	}
	vertices := layout.BoundingPoly.NormalizedVertices
	if len(vertices) == 0 {
		return nil
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, v := range vertices {
		x := float64(v.X * dim.Width)
		y := float64(v.Y * dim.Height)
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	return &ocr.BBox{
		X0: math.Round(minX),
		Y0: math.Round(minY),
		X1: math.Round(maxX),
		Y1: math.Round(maxY),
	}
}

// isElementInParent reports whether the first text segment of element lies
// within the first text segment of parent.
func isElementInParent(elementLayout, parentLayout *documentaipb.Document_Page_Layout) bool {
	if elementLayout == nil || parentLayout == nil ||
		elementLayout.TextAnchor == nil || parentLayout.TextAnchor == nil ||
		len(elementLayout.TextAnchor.TextSegments) == 0 || len(parentLayout.TextAnchor.TextSegments) == 0 {
		return false
	}

	elementStart := elementLayout.TextAnchor.TextSegments[0].StartIndex
	elementEnd := elementLayout.TextAnchor.TextSegments[0].EndIndex
	parentStart := parentLayout.TextAnchor.TextSegments[0].StartIndex
	parentEnd := parentLayout.TextAnchor.TextSegments[0].EndIndex

	return elementStart >= parentStart && elementEnd <= parentEnd
}
