//go:build !ocr

package ocr

import (
	"context"
	"errors"
	"image"
)

// ErrOCRNotEnabled is returned when Tesseract support was not compiled in.
// Rebuild with -tags ocr (requires the Tesseract and Leptonica libraries).
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// Tesseract is a stub engine used when the "ocr" build tag is not set.
type Tesseract struct{}

// NewTesseract returns ErrOCRNotEnabled.
func NewTesseract(languages ...string) (*Tesseract, error) {
	return nil, ErrOCRNotEnabled
}

// Recognize returns ErrOCRNotEnabled.
func (t *Tesseract) Recognize(context.Context, image.Image, ProgressFunc) (Recognition, error) {
	return Recognition{}, ErrOCRNotEnabled
}
