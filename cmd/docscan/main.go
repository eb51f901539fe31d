// docscan is a command-line tool that turns a photographed document into
// structured text.
//
// It locates the page in the photo, straightens it, recognizes the text,
// splits it into sections and guesses the document type. Results can be
// written in several formats, saved to the local SQLite document store or the
// history file, and searched later.
//
// Configuration:
//
// An optional YAML configuration file tunes the scanner and selects the OCR
// engine:
//
//	scan:
//	  max_dimension: 1400
//	ocr:
//	  engine: tesseract   # tesseract, documentai or hocr
//	  languages: [eng]
//	document_ai:
//	  project_id: "your-gcp-project-id"
//	  location: "us"
//	  processor_id: "your-processor-id"
//	database: docscan.db
//	history: docscan-history.json
//
// Usage:
//
//	docscan -image photo.jpg [options]
//	docscan -search "acme" [-from 2024-05-01] [-to 2024-05-31]
//	docscan -list-history
//
// Input options:
//
//	-image string   Path to the input image (JPEG, PNG, GIF, BMP, TIFF or WebP)
//	-config string  Path to the YAML configuration file
//	-engine string  OCR engine override: tesseract, documentai or hocr
//	-hocr string    Pre-computed hOCR file to replay instead of running OCR
//	-lang string    Comma separated Tesseract languages
//	-crop string    Manual crop x,y,w,h; skips page detection
//
// Output options:
//
//	-text string            Path to save the recognized text
//	-json string            Path to save the full result as JSON
//	-hocr-out string        Path to save the recognized words as hOCR
//	-scanned string         Path to save the straightened page as PNG
//	-pdf string             Path to save a PDF report
//	-searchable-pdf string  Path to save the page image with an invisible text layer
//	-docx string            Path to save a Word report
//	-xlsx string            Path to save an Excel report
//	-html string            Path to save an HTML report
//
// Persistence options:
//
//	-save            Save the result to the document store
//	-db string       Document store path (overrides the config)
//	-history         Add the result to the local history file
//	-list-history    Print the local history and exit
//	-clear-history   Empty the local history and exit
//	-search string   Search saved documents by title or text and exit
//	-from, -to       Inclusive YYYY-MM-DD date range for -search
//	-type string     Document type filter for -search
//	-limit int       Maximum number of search results
//
// Debug options:
//
//	-debug              Enable debug logging
//	-debug-api string   Path to save the raw Document AI response as JSON
//
// Example:
//
//	docscan -image receipt.jpg -text receipt.txt -pdf receipt.pdf -save
//	docscan -image page.png -engine hocr -hocr page.hocr -searchable-pdf page.pdf
//	docscan -image skewed.jpg -crop 120,80,900,1300 -json result.json
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gardar/docscan/pkg/pipeline"
	"github.com/gardar/docscan/pkg/scan"
)

// outputs holds the destination of every output flag.
type outputs struct {
	text          string
	json          string
	hocr          string
	scanned       string
	pdf           string
	searchablePDF string
	docx          string
	xlsx          string
	html          string
}

func main() {
	// Input flags.
	imagePath := flag.String("image", "", "Path to the input image")
	configPath := flag.String("config", "", "Path to the config YAML file")
	engine := flag.String("engine", "", "OCR engine: tesseract, documentai or hocr")
	hocrIn := flag.String("hocr", "", "Pre-computed hOCR file to replay instead of running OCR")
	lang := flag.String("lang", "", "Comma-separated Tesseract languages")
	cropSpec := flag.String("crop", "", "Manual crop as x,y,w,h (skips page detection)")

	// Output flags.
	var out outputs
	flag.StringVar(&out.text, "text", "", "Path to save the recognized text")
	flag.StringVar(&out.json, "json", "", "Path to save the full result as JSON")
	flag.StringVar(&out.hocr, "hocr-out", "", "Path to save the recognized words as hOCR")
	flag.StringVar(&out.scanned, "scanned", "", "Path to save the straightened page as PNG")
	flag.StringVar(&out.pdf, "pdf", "", "Path to save a PDF report")
	flag.StringVar(&out.searchablePDF, "searchable-pdf", "", "Path to save the page image with an invisible OCR text layer")
	flag.StringVar(&out.docx, "docx", "", "Path to save a Word report")
	flag.StringVar(&out.xlsx, "xlsx", "", "Path to save an Excel report")
	flag.StringVar(&out.html, "html", "", "Path to save an HTML report")

	// Persistence flags.
	save := flag.Bool("save", false, "Save the result to the document store")
	dbPath := flag.String("db", "", "Document store path (overrides the config)")
	addHistory := flag.Bool("history", false, "Add the result to the local history file")
	listHistory := flag.Bool("list-history", false, "Print the local history and exit")
	clearHistory := flag.Bool("clear-history", false, "Empty the local history and exit")
	search := flag.String("search", "", "Search saved documents by title or text and exit")
	from := flag.String("from", "", "First day (YYYY-MM-DD) included in -search")
	to := flag.String("to", "", "Last day (YYYY-MM-DD) included in -search")
	docType := flag.String("type", "", "Document type filter for -search")
	limit := flag.Int("limit", 0, "Maximum number of search results")

	debug := flag.Bool("debug", false, "Enable debug logging")
	debugAPI := flag.String("debug-api", "", "Path to save the raw Document AI response as JSON")

	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Create a map of provided flags to validate
	providedFlags := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		providedFlags[f.Name] = true
	})

	// Validate that provided string flags have values
	hasError := false
	validateFlag := func(name string, value string) {
		if providedFlags[name] && value == "" {
			fmt.Fprintf(os.Stderr, "Error: -%s flag requires a value\n", name)
			hasError = true
		}
	}

	validateFlag("image", *imagePath)
	validateFlag("config", *configPath)
	validateFlag("engine", *engine)
	validateFlag("hocr", *hocrIn)
	validateFlag("lang", *lang)
	validateFlag("crop", *cropSpec)
	validateFlag("text", out.text)
	validateFlag("json", out.json)
	validateFlag("hocr-out", out.hocr)
	validateFlag("scanned", out.scanned)
	validateFlag("pdf", out.pdf)
	validateFlag("searchable-pdf", out.searchablePDF)
	validateFlag("docx", out.docx)
	validateFlag("xlsx", out.xlsx)
	validateFlag("html", out.html)
	validateFlag("db", *dbPath)
	validateFlag("search", *search)
	validateFlag("debug-api", *debugAPI)

	if hasError {
		fmt.Fprintln(os.Stderr, "Usage:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	searching := providedFlags["search"] || providedFlags["from"] || providedFlags["to"] || providedFlags["type"]
	if *imagePath == "" && !searching && !*listHistory && !*clearHistory {
		fmt.Fprintln(os.Stderr, "Error: -image flag is required unless -search, -list-history or -clear-history is given")
		fmt.Fprintln(os.Stderr, "Usage:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg := pipeline.DefaultConfig()
	if *configPath != "" {
		loaded, err := pipeline.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *hocrIn != "" {
		cfg.OCR.Engine = pipeline.EngineHOCR
		cfg.OCR.HOCRFile = *hocrIn
	}
	if *engine != "" {
		cfg.OCR.Engine = *engine
	}
	if *lang != "" {
		cfg.OCR.Languages = strings.Split(*lang, ",")
	}
	if *dbPath != "" {
		cfg.Database = *dbPath
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case *clearHistory:
		if err := clearLocalHistory(ctx, cfg.History); err != nil {
			fmt.Fprintf(os.Stderr, "Error clearing history: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Cleared history at %s\n", cfg.History)
		return
	case *listHistory:
		if err := printHistory(ctx, os.Stdout, cfg.History); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading history: %v\n", err)
			os.Exit(1)
		}
		return
	case searching && *imagePath == "":
		if err := searchDocuments(ctx, os.Stdout, cfg.Database, *search, *from, *to, *docType, *limit); err != nil {
			fmt.Fprintf(os.Stderr, "Error searching documents: %v\n", err)
			os.Exit(1)
		}
		return
	}

	var region *image.Rectangle
	if *cropSpec != "" {
		r, err := scan.ParseRect(*cropSpec)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		region = &r
	}

	p, res, err := process(ctx, cfg, *imagePath, region, *debugAPI, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error processing %s: %v\n", *imagePath, err)
		os.Exit(1)
	}

	printSummary(os.Stdout, res, cfg.OCR.LowConfidence)

	if err := writeOutputs(res, out, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		os.Exit(1)
	}

	if *save {
		rec, err := saveDocument(ctx, cfg.Database, res, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error saving document: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Saved document %s to %s\n", rec.ID, cfg.Database)
	}
	if *addHistory {
		e, err := p.SaveHistory(ctx, res)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error saving history: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Added history entry %s\n", e.ID)
	}
}
