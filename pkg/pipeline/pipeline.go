// Package pipeline runs a photographed document through every stage: decode,
// page location and rectification, OCR, line reconstruction, section
// segmentation and document-type classification.
//
// A page that cannot be located is not an error. The pipeline then runs OCR
// on the unrectified image and reports Found == false, so callers can offer a
// manual crop (ProcessRegion).
//
// Progress is reported as a non-decreasing fraction: decode 0.05, scan 0.20,
// OCR mapped into [0.20, 0.90], segmentation 0.95, classification 1.0.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"sync"

	"github.com/gardar/docscan/pkg/classify"
	"github.com/gardar/docscan/pkg/export"
	"github.com/gardar/docscan/pkg/history"
	"github.com/gardar/docscan/pkg/hocr"
	"github.com/gardar/docscan/pkg/ocr"
	"github.com/gardar/docscan/pkg/scan"
	"github.com/gardar/docscan/pkg/segment"
	"github.com/gardar/docscan/pkg/store"
	"github.com/gardar/docscan/pkg/vision"
)

// Progress checkpoints.
const (
	ProgressDecoded    = 0.05
	ProgressScanned    = 0.20
	ProgressRecognized = 0.90
	ProgressSegmented  = 0.95
	ProgressClassified = 1.0
)

// Title lengths used for the two persistence targets.
const (
	HistoryTitleLen = 60
	StoreTitleLen   = 80
)

// ProgressFunc receives monotonically non-decreasing fractions in [0,1].
type ProgressFunc func(fraction float64)

// Result is everything the pipeline learned from one image.
type Result struct {
	// Image is the rectified page when Found, otherwise the image OCR ran on.
	Image   image.Image   `json:"-"`
	Format  string        `json:"format,omitempty"`
	Found   bool          `json:"scannedFound"`
	Cropped bool          `json:"cropped,omitempty"`
	Corners *scan.Corners `json:"corners,omitempty"`
	// Scale relates Corners to the input image.
	Scale float64 `json:"scale"`

	Recognition  ocr.Recognition `json:"-"`
	Words        []ocr.Word      `json:"words"`
	Lines        []ocr.LineGroup `json:"lines"`
	DroppedWords int             `json:"droppedWords"`
	// LowConfidence lists, per line, the indexes of words under the
	// configured threshold.
	LowConfidence  [][]int `json:"lowConfidence"`
	RawText        string  `json:"rawText"`
	MeanConfidence int     `json:"meanConfidence"`

	Sections       []segment.Section `json:"sections"`
	Classification classify.Result   `json:"classification"`
	Scores         []classify.Score  `json:"scores"`
}

// Title derives a title from the first non-empty line of the raw text,
// truncated to maxLen runes; "Untitled" when there is none.
func (r *Result) Title(maxLen int) string {
	return Title(r.RawText, maxLen)
}

// Title returns the first non-blank trimmed line of raw, cut to maxLen runes.
func Title(raw string, maxLen int) string {
	for _, l := range strings.Split(raw, "\n") {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if r := []rune(l); len(r) > maxLen {
			return string(r[:maxLen])
		}
		return l
	}
	return store.DefaultTitle
}

// Record converts the result for the document store.
func (r *Result) Record() store.Record {
	return store.Record{
		Title:          r.Title(StoreTitleLen),
		RawText:        r.RawText,
		Sections:       nonNil(r.Sections),
		ScannedFound:   r.Found,
		DocType:        string(r.Classification.Type),
		MeanConfidence: r.MeanConfidence,
	}
}

// Entry converts the result for the local history.
func (r *Result) Entry() history.Entry {
	return history.Entry{
		Title:          r.Title(HistoryTitleLen),
		ScannedFound:   r.Found,
		DocType:        string(r.Classification.Type),
		MeanConfidence: r.MeanConfidence,
		RawText:        r.RawText,
		Sections:       nonNil(r.Sections),
		Words:          r.Words,
	}
}

// Document converts the result for the export renderers.
func (r *Result) Document() export.Document {
	return export.Document{
		Title:          Title(r.RawText, StoreTitleLen),
		DocType:        string(r.Classification.Type),
		MeanConfidence: r.MeanConfidence,
		Sections:       r.Sections,
	}
}

// HOCR rebuilds an hOCR document of the recognized words over Image.
func (r *Result) HOCR() *hocr.HOCR {
	var size image.Point
	if r.Image != nil {
		size = r.Image.Bounds().Size()
	}
	return ocr.HOCRFromWords(r.Words, size, "docscan")
}

func nonNil(s []segment.Section) []segment.Section {
	if s == nil {
		return []segment.Section{}
	}
	return s
}

// Pipeline ties the stages together. It is safe for concurrent use.
type Pipeline struct {
	scanner *scan.Scanner
	engine  ocr.Engine
	rules   []segment.Rule
	lowConf float64
	history history.Store
	logger  *slog.Logger
}

// ErrNoHistory is returned by SaveHistory when no history store is set.
var ErrNoHistory = errors.New("pipeline: no history store configured")

// Option configures a Pipeline.
type Option func(*options)

type options struct {
	cfg     Config
	prims   vision.Primitives
	rules   []segment.Rule
	history history.Store
	logger  *slog.Logger
}

// WithConfig sets scan and OCR tuning.
func WithConfig(cfg Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithPrimitives replaces the pure-Go vision backend.
func WithPrimitives(p vision.Primitives) Option {
	return func(o *options) { o.prims = p }
}

// WithRules replaces the keyword table of the segmenter fallback.
func WithRules(rules []segment.Rule) Option {
	return func(o *options) { o.rules = rules }
}

// WithHistory sets the local history results are saved to.
func WithHistory(h history.Store) Option {
	return func(o *options) { o.history = h }
}

// WithLogger sets the logger for the pipeline and its scanner.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// New returns a pipeline recognizing text with engine.
func New(engine ocr.Engine, opts ...Option) *Pipeline {
	o := options{cfg: DefaultConfig(), rules: segment.DefaultRules, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.prims == nil {
		o.prims = vision.NewNative()
	}
	return &Pipeline{
		scanner: scan.NewScanner(o.prims, scan.WithConfig(o.cfg.Scan), scan.WithLogger(o.logger)),
		engine:  engine,
		rules:   o.rules,
		lowConf: o.cfg.OCR.LowConfidence,
		history: o.history,
		logger:  o.logger,
	}
}

// Process decodes data and runs every stage on it.
func (p *Pipeline) Process(ctx context.Context, data []byte, progress ProgressFunc) (*Result, error) {
	report := monotonic(progress)
	img, format, err := scan.Decode(data)
	if err != nil {
		return nil, err
	}
	report(ProgressDecoded)

	res, err := p.scanner.Scan(ctx, img)
	if err != nil {
		return nil, err
	}
	report(ProgressScanned)
	if !res.Found {
		p.logger.Info("pipeline: page not found, recognizing the original image")
	}

	out := &Result{
		Image:   res.Image,
		Format:  format,
		Found:   res.Found,
		Corners: res.Corners,
		Scale:   res.Scale,
	}
	if err := p.understand(ctx, out, report); err != nil {
		return nil, err
	}
	return out, nil
}

// ProcessRegion decodes data, crops it to region and runs OCR and the text
// stages on the crop. Page location is skipped.
func (p *Pipeline) ProcessRegion(ctx context.Context, data []byte, region image.Rectangle, progress ProgressFunc) (*Result, error) {
	report := monotonic(progress)
	img, format, err := scan.Decode(data)
	if err != nil {
		return nil, err
	}
	report(ProgressDecoded)

	cropped, err := scan.Crop(img, region)
	if err != nil {
		return nil, err
	}
	report(ProgressScanned)

	out := &Result{Image: cropped, Format: format, Cropped: true, Scale: 1}
	if err := p.understand(ctx, out, report); err != nil {
		return nil, err
	}
	return out, nil
}

// ProcessImage runs every stage on an already decoded image.
func (p *Pipeline) ProcessImage(ctx context.Context, img image.Image, progress ProgressFunc) (*Result, error) {
	report := monotonic(progress)
	res, err := p.scanner.Scan(ctx, img)
	if err != nil {
		return nil, err
	}
	report(ProgressScanned)
	out := &Result{Image: res.Image, Found: res.Found, Corners: res.Corners, Scale: res.Scale}
	if err := p.understand(ctx, out, report); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveHistory adds res to the local history, newest first.
func (p *Pipeline) SaveHistory(ctx context.Context, res *Result) (history.Entry, error) {
	if p.history == nil {
		return history.Entry{}, ErrNoHistory
	}
	return p.history.Save(ctx, res.Entry())
}

// History returns the local history store, nil when none is set.
func (p *Pipeline) History() history.Store {
	return p.history
}

// understand runs OCR, line reconstruction, segmentation and classification
// on out.Image.
func (p *Pipeline) understand(ctx context.Context, out *Result, report ProgressFunc) error {
	if p.engine == nil {
		return fmt.Errorf("%w: no engine configured", ocr.ErrRecognitionFailed)
	}
	rec, err := p.engine.Recognize(ctx, out.Image, func(f float64) {
		report(ProgressScanned + (ProgressRecognized-ProgressScanned)*clamp01(f))
	})
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	report(ProgressRecognized)

	lines, dropped := ocr.BuildLinesStats(rec.Words)
	out.Recognition = rec
	out.Lines = lines
	out.DroppedWords = dropped
	out.Words = make([]ocr.Word, 0, len(rec.Words)-dropped)
	out.LowConfidence = make([][]int, len(lines))
	for i, l := range lines {
		out.Words = append(out.Words, l.Words...)
		out.LowConfidence[i] = l.LowConfidence(p.lowConf)
	}
	out.MeanConfidence = ocr.MeanConfidence(out.Words)
	out.RawText = strings.TrimSpace(rec.Text)
	if out.RawText == "" {
		out.RawText = ocr.Text(lines)
	}

	out.Sections = segment.SegmentWith(out.RawText, p.rules)
	report(ProgressSegmented)

	out.Classification = classify.Classify(out.RawText)
	out.Scores = classify.Scores(out.RawText)
	report(ProgressClassified)

	p.logger.Debug("pipeline: processed image",
		"found", out.Found,
		"words", len(out.Words),
		"lines", len(out.Lines),
		"dropped_words", dropped,
		"sections", len(out.Sections),
		"doc_type", out.Classification.Type,
		"confidence", out.Classification.Confidence,
	)
	return nil
}

// monotonic wraps progress so it never goes backwards and stays in [0,1].
func monotonic(progress ProgressFunc) ProgressFunc {
	var (
		mu   sync.Mutex
		last float64
	)
	return func(f float64) {
		if progress == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		f = clamp01(f)
		if f < last {
			return
		}
		last = f
		progress(f)
	}
}

func clamp01(f float64) float64 {
	return min(max(f, 0), 1)
}
