package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/fatih/color"

	"github.com/gardar/docscan/pkg/export"
	"github.com/gardar/docscan/pkg/gdocai"
	"github.com/gardar/docscan/pkg/history"
	"github.com/gardar/docscan/pkg/pipeline"
	"github.com/gardar/docscan/pkg/store"
)

// process reads the image at path and runs the pipeline on it, on the given
// region when one is set. With the Document AI engine, the raw response is
// written to debugAPI when set.
func process(ctx context.Context, cfg pipeline.Config, path string, region *image.Rectangle, debugAPI string, logger *slog.Logger) (*pipeline.Pipeline, *pipeline.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read image: %w", err)
	}
	engine, err := pipeline.NewEngine(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create OCR engine: %w", err)
	}
	if e, ok := engine.(*gdocai.Engine); ok && debugAPI != "" {
		e.OnResponse = func(doc *documentaipb.Document) {
			data, err := gdocai.ResponseJSON(doc)
			if err == nil {
				err = writeFile(debugAPI, data)
			}
			if err != nil {
				logger.Warn("failed to save Document AI response", "path", debugAPI, "error", err)
			}
		}
	}
	p := pipeline.New(engine,
		pipeline.WithConfig(cfg),
		pipeline.WithHistory(history.NewFile(cfg.History)),
		pipeline.WithLogger(logger),
	)

	progress := func(f float64) {
		logger.Debug("progress", "percent", int(f*100))
	}
	var res *pipeline.Result
	if region != nil {
		res, err = p.ProcessRegion(ctx, data, *region, progress)
	} else {
		res, err = p.Process(ctx, data, progress)
	}
	return p, res, err
}

// printSummary writes a human readable report of res to w. Words under the
// low-confidence threshold are highlighted.
func printSummary(w io.Writer, res *pipeline.Result, threshold float64) {
	bold := color.New(color.Bold).SprintFunc()
	warn := color.New(color.FgYellow).SprintFunc()
	low := color.New(color.FgRed, color.Underline).SprintFunc()

	switch {
	case res.Cropped:
		fmt.Fprintf(w, "%s manual crop\n", bold("Page:"))
	case res.Found:
		fmt.Fprintf(w, "%s detected and straightened\n", bold("Page:"))
	default:
		fmt.Fprintf(w, "%s %s\n", bold("Page:"), warn("not detected, recognized the original image (try -crop)"))
	}
	fmt.Fprintf(w, "%s %s (%s confidence)\n", bold("Document type:"), res.Classification.Type, res.Classification.Confidence)
	fmt.Fprintf(w, "%s %d%% over %d words\n", bold("OCR confidence:"), res.MeanConfidence, len(res.Words))

	if len(res.Lines) > 0 {
		fmt.Fprintf(w, "\n%s (words under %.0f%% highlighted)\n", bold("Lines:"), threshold)
		for i, line := range res.Lines {
			flagged := map[int]bool{}
			if i < len(res.LowConfidence) {
				for _, j := range res.LowConfidence[i] {
					flagged[j] = true
				}
			}
			words := make([]string, len(line.Words))
			for j, word := range line.Words {
				words[j] = word.Text
				if flagged[j] {
					words[j] = low(word.Text)
				}
			}
			fmt.Fprintf(w, "  %s\n", strings.Join(words, " "))
		}
	}

	fmt.Fprintf(w, "\n%s\n", bold("Sections:"))
	for _, s := range res.Sections {
		fmt.Fprintf(w, "  [%s] %d lines\n", s.Heading, strings.Count(s.Content, "\n")+1)
	}
}

// writeOutputs writes every requested output file.
func writeOutputs(res *pipeline.Result, out outputs, logger *slog.Logger) error {
	doc := res.Document()

	if out.text != "" {
		if err := writeFile(out.text, []byte(res.RawText+"\n")); err != nil {
			return err
		}
	}
	if out.json != "" {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		if err := writeFile(out.json, data); err != nil {
			return err
		}
	}
	if out.hocr != "" {
		data, err := export.HOCR(res.HOCR())
		if err != nil {
			return err
		}
		if err := writeFile(out.hocr, data); err != nil {
			return err
		}
	}
	if out.scanned != "" {
		var buf bytes.Buffer
		if err := png.Encode(&buf, res.Image); err != nil {
			return fmt.Errorf("failed to encode page image: %w", err)
		}
		if err := writeFile(out.scanned, buf.Bytes()); err != nil {
			return err
		}
	}
	if out.searchablePDF != "" {
		cfg := export.DefaultLayerConfig()
		cfg.Logger = logger
		data, err := export.SearchablePDF([]image.Image{res.Image}, res.HOCR(), cfg)
		if err != nil {
			return err
		}
		if err := writeFile(out.searchablePDF, data); err != nil {
			return err
		}
	}

	reports := []struct {
		path   string
		format export.Format
	}{
		{out.pdf, export.FormatPDF},
		{out.docx, export.FormatDOCX},
		{out.xlsx, export.FormatXLSX},
		{out.html, export.FormatHTML},
	}
	for _, r := range reports {
		if r.path == "" {
			continue
		}
		data, err := export.Render(r.format, doc)
		if err != nil {
			return err
		}
		if err := writeFile(r.path, data); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}

func saveDocument(ctx context.Context, dbPath string, res *pipeline.Result, logger *slog.Logger) (store.Record, error) {
	s, err := store.New(dbPath, store.WithLogger(logger))
	if err != nil {
		return store.Record{}, err
	}
	defer s.Close()
	return s.Save(ctx, res.Record())
}

func clearLocalHistory(ctx context.Context, path string) error {
	return history.NewFile(path).Clear(ctx)
}
