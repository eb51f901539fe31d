// Package gdocai recognizes document images with Google Document AI.
//
// The package sends a rectified page image to a Document AI OCR processor and
// flattens the returned layout tree (blocks, paragraphs, lines, tokens) into
// the word stream the rest of the pipeline consumes. Word boxes are converted
// from Document AI's normalized vertices to pixels of the submitted image.
//
// Key Features:
//
// - Engine: an ocr.Engine backed by a Document AI processor
// - Word extraction with 1-based block, paragraph and line numbering
// - hOCR output through ocr.HOCRFromWords
// - Raw response access for debugging (Engine.OnResponse, ResponseJSON)
//
// Main Functions:
//
// - ProcessImage: Sends image bytes to Google Document AI for processing
// - WordsFromProto: Converts a Document AI response into ocr.Words
// - RecognitionFromProto: Builds an ocr.Recognition from a response
//
// Usage Requirements:
//
// - Google Cloud project with Document AI API enabled
// - Document AI processor configured for OCR
// - Authentication via a credentials file or GOOGLE_APPLICATION_CREDENTIALS
package gdocai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"

	"cloud.google.com/go/documentai/apiv1/documentaipb"

	"github.com/gardar/docscan/pkg/ocr"
)

// ErrIncompleteConfig is returned when a required processor setting is empty.
var ErrIncompleteConfig = errors.New("gdocai: project_id, location and processor_id are required")

// Config identifies the Document AI processor to call.
type Config struct {
	ProjectID   string `yaml:"project_id" json:"projectId"`
	Location    string `yaml:"location" json:"location"`
	ProcessorID string `yaml:"processor_id" json:"processorId"`
	// CredentialsFile overrides GOOGLE_APPLICATION_CREDENTIALS when set.
	CredentialsFile string `yaml:"credentials_file" json:"credentialsFile,omitempty"`
}

// Validate reports whether cfg names a processor.
func (cfg Config) Validate() error {
	if cfg.ProjectID == "" || cfg.Location == "" || cfg.ProcessorID == "" {
		return ErrIncompleteConfig
	}
	return nil
}

// ProcessFunc performs one Document AI request. ProcessImage is the default.
type ProcessFunc func(ctx context.Context, content []byte, mimeType string, cfg Config) (*documentaipb.Document, error)

// Engine is an ocr.Engine that calls Document AI.
type Engine struct {
	cfg     Config
	process ProcessFunc

	// OnResponse, if set, receives every raw response before conversion.
	OnResponse func(*documentaipb.Document)
}

// NewEngine returns an Engine for the processor described by cfg.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg, process: ProcessImage}, nil
}

// Recognize encodes img as PNG and submits it to Document AI.
func (e *Engine) Recognize(ctx context.Context, img image.Image, progress ocr.ProgressFunc) (ocr.Recognition, error) {
	if img == nil {
		return ocr.Recognition{}, fmt.Errorf("%w: nil image", ocr.ErrRecognitionFailed)
	}
	if err := ctx.Err(); err != nil {
		return ocr.Recognition{}, fmt.Errorf("%w: %w", ocr.ErrRecognitionFailed, err)
	}
	report(progress, 0)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return ocr.Recognition{}, fmt.Errorf("%w: encode image: %w", ocr.ErrRecognitionFailed, err)
	}
	report(progress, 0.2)

	doc, err := e.process(ctx, buf.Bytes(), "image/png", e.cfg)
	if err != nil {
		return ocr.Recognition{}, fmt.Errorf("%w: %w", ocr.ErrRecognitionFailed, err)
	}
	report(progress, 0.9)

	if e.OnResponse != nil {
		e.OnResponse(doc)
	}
	rec := RecognitionFromProto(doc)
	report(progress, 1)
	return rec, nil
}

// RecognitionFromProto builds a Recognition from a Document AI response.
// Text is the document's full text as returned by the service.
func RecognitionFromProto(doc *documentaipb.Document) ocr.Recognition {
	words := WordsFromProto(doc)
	return ocr.Recognition{
		Text:           doc.GetText(),
		Words:          words,
		MeanConfidence: ocr.MeanConfidence(words),
	}
}

func report(progress ocr.ProgressFunc, fraction float64) {
	if progress != nil {
		progress(fraction)
	}
}
