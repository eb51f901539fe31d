package ocr

import (
	"context"
	"fmt"
	"image"
	"os"

	"github.com/gardar/docscan/pkg/hocr"
)

// StaticHOCR is an Engine that ignores the image and returns a recognition
// parsed once from pre-computed hOCR, e.g. produced by an external
// `tesseract image out hocr` run.
type StaticHOCR struct {
	rec Recognition
}

// NewStaticHOCR parses data and returns an engine replaying it.
func NewStaticHOCR(data []byte) (*StaticHOCR, error) {
	doc, err := hocr.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("ocr: load hocr: %w", err)
	}
	return &StaticHOCR{rec: RecognitionFromHOCR(doc)}, nil
}

// LoadHOCRFile reads an hOCR file from disk.
func LoadHOCRFile(path string) (*StaticHOCR, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ocr: read hocr file: %w", err)
	}
	return NewStaticHOCR(data)
}

// Recognize returns the stored recognition.
func (s *StaticHOCR) Recognize(ctx context.Context, _ image.Image, progress ProgressFunc) (Recognition, error) {
	if err := ctx.Err(); err != nil {
		return Recognition{}, fmt.Errorf("%w: %w", ErrRecognitionFailed, err)
	}
	report(progress, 1)
	rec := s.rec
	rec.Words = append([]Word(nil), s.rec.Words...)
	return rec, nil
}
