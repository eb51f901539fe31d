//go:build ocr

package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"

	"github.com/gardar/docscan/pkg/hocr"
	"github.com/otiai10/gosseract/v2"
)

// ErrOCRNotEnabled is returned by the Tesseract engine when the binary was
// built without the "ocr" tag. It is never returned by this build.
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// Tesseract recognizes text with a local Tesseract installation through
// gosseract. Recognition output is requested as hOCR so that words keep their
// layout numbers and confidences.
type Tesseract struct {
	languages []string
	psm       gosseract.PageSegMode
}

// NewTesseract creates an engine for the given languages ("eng" when none).
func NewTesseract(languages ...string) (*Tesseract, error) {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	return &Tesseract{languages: languages, psm: gosseract.PSM_AUTO}, nil
}

// Recognize runs Tesseract on img. A fresh client is used per call so the
// engine can serve concurrent pipelines.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image, progress ProgressFunc) (Recognition, error) {
	if err := ctx.Err(); err != nil {
		return Recognition{}, fmt.Errorf("%w: %w", ErrRecognitionFailed, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return Recognition{}, fmt.Errorf("%w: encode image: %w", ErrRecognitionFailed, err)
	}
	report(progress, 0.1)

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.languages...); err != nil {
		return Recognition{}, fmt.Errorf("%w: set languages: %w", ErrRecognitionFailed, err)
	}
	if err := client.SetPageSegMode(t.psm); err != nil {
		return Recognition{}, fmt.Errorf("%w: set page segmentation mode: %w", ErrRecognitionFailed, err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return Recognition{}, fmt.Errorf("%w: set image: %w", ErrRecognitionFailed, err)
	}
	report(progress, 0.2)

	type result struct {
		out string
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := client.HOCRText()
		done <- result{out, err}
	}()

	var res result
	select {
	case <-ctx.Done():
		// The client is closed by the deferred call only after HOCRText
		// returns, so wait for it before leaving.
		<-done
		return Recognition{}, fmt.Errorf("%w: %w", ErrRecognitionFailed, ctx.Err())
	case res = <-done:
	}
	if res.err != nil {
		return Recognition{}, fmt.Errorf("%w: %w", ErrRecognitionFailed, res.err)
	}
	report(progress, 0.9)

	doc, err := hocr.Parse([]byte(res.out))
	if err != nil {
		return Recognition{}, fmt.Errorf("%w: %w", ErrRecognitionFailed, err)
	}
	report(progress, 1)
	return RecognitionFromHOCR(doc), nil
}
