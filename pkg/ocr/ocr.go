// Package ocr defines the OCR engine boundary of the pipeline and rebuilds
// reading lines from the word stream an engine emits.
//
// Engines report words in reading order, each tagged with the page, block,
// paragraph and line it belongs to. BuildLines groups contiguous runs of words
// sharing that key into lines; it never re-sorts.
//
// Engines:
//
// - Tesseract: local recognition through gosseract (requires -tags ocr)
// - StaticHOCR: replays a pre-computed hOCR document
//
// The Google Document AI engine lives in package gdocai.
package ocr

import (
	"context"
	"errors"
	"image"
	"math"
	"strings"
)

// ErrRecognitionFailed wraps any failure reported by an OCR engine.
var ErrRecognitionFailed = errors.New("ocr: recognition failed")

// BBox is a word rectangle in pixels of the recognized image.
type BBox struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Word is one recognized token. The structural numbers locate it in the
// engine's layout tree; only their equality matters.
type Word struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"` // 0-100
	LineNum    int     `json:"lineNum"`
	ParNum     int     `json:"parNum"`
	BlockNum   int     `json:"blockNum"`
	PageNum    int     `json:"pageNum"`
	BBox       *BBox   `json:"bbox,omitempty"`
}

// IsBlank reports whether the word carries no visible text.
func (w Word) IsBlank() bool {
	return strings.TrimSpace(w.Text) == ""
}

// Recognition is the output of an engine for one image.
type Recognition struct {
	Text  string `json:"text"`
	Words []Word `json:"words"`
	// MeanConfidence is the rounded mean word confidence, see MeanConfidence.
	MeanConfidence int `json:"meanConfidence"`
}

// ProgressFunc receives monotonically non-decreasing fractions in [0,1].
type ProgressFunc func(fraction float64)

// Engine recognizes text in an image. Implementations must honour ctx
// cancellation and report failures wrapped in ErrRecognitionFailed.
type Engine interface {
	Recognize(ctx context.Context, img image.Image, progress ProgressFunc) (Recognition, error)
}

// MeanConfidence returns the rounded mean confidence of the non-blank words,
// or 0 when there are none.
func MeanConfidence(words []Word) int {
	var sum float64
	n := 0
	for _, w := range words {
		if w.IsBlank() {
			continue
		}
		sum += w.Confidence
		n++
	}
	if n == 0 {
		return 0
	}
	return int(math.Round(sum / float64(n)))
}

// report calls progress with fraction if progress is set.
func report(progress ProgressFunc, fraction float64) {
	if progress != nil {
		progress(fraction)
	}
}
