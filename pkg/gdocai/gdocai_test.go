package gdocai

import (
	"context"
	"errors"
	"image"
	"strings"
	"testing"

	"cloud.google.com/go/documentai/apiv1/documentaipb"

	"github.com/gardar/docscan/pkg/ocr"
)

func layout(start, end int64, conf float32, x0, y0, x1, y1 float32) *documentaipb.Document_Page_Layout {
	return &documentaipb.Document_Page_Layout{
		TextAnchor: &documentaipb.Document_TextAnchor{
			TextSegments: []*documentaipb.Document_TextAnchor_TextSegment{{StartIndex: start, EndIndex: end}},
		},
		Confidence: conf,
		BoundingPoly: &documentaipb.BoundingPoly{
			NormalizedVertices: []*documentaipb.NormalizedVertex{
				{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1},
			},
		},
	}
}

// sampleDocument has two blocks: "Hello world" on one line and "Total 5" /
// "Thanks" on two lines of a second block.
func sampleDocument() *documentaipb.Document {
	text := "Hello world\nTotal 5\nThanks\n"
	tok := func(start, end int64, conf float32, x0 float32) *documentaipb.Document_Page_Token {
		return &documentaipb.Document_Page_Token{Layout: layout(start, end, conf, x0, 0.1, x0+0.1, 0.2)}
	}
	return &documentaipb.Document{
		Text: text,
		Pages: []*documentaipb.Document_Page{{
			Dimension: &documentaipb.Document_Page_Dimension{Width: 1000, Height: 500},
			Blocks: []*documentaipb.Document_Page_Block{
				{Layout: layout(0, 12, 0.9, 0, 0, 1, 0.3)},
				{Layout: layout(12, 27, 0.9, 0, 0.3, 1, 1)},
			},
			Paragraphs: []*documentaipb.Document_Page_Paragraph{
				{Layout: layout(0, 12, 0.9, 0, 0, 1, 0.3)},
				{Layout: layout(12, 27, 0.9, 0, 0.3, 1, 1)},
			},
			Lines: []*documentaipb.Document_Page_Line{
				{Layout: layout(0, 12, 0.9, 0, 0, 1, 0.3)},
				{Layout: layout(12, 20, 0.9, 0, 0.3, 1, 0.5)},
				{Layout: layout(20, 27, 0.9, 0, 0.5, 1, 0.7)},
			},
			Tokens: []*documentaipb.Document_Page_Token{
				tok(0, 6, 0.98, 0.1),
				tok(6, 12, 0.5, 0.3),
				tok(12, 18, 0.9, 0.1),
				tok(18, 20, 0.8, 0.3),
				tok(20, 27, 0.75, 0.1),
			},
		}},
	}
}

func TestWordsFromProto(t *testing.T) {
	words := WordsFromProto(sampleDocument())
	want := []struct {
		text                   string
		block, par, line, conf int
	}{
		{"Hello", 1, 1, 1, 98},
		{"world", 1, 1, 1, 50},
		{"Total", 2, 1, 1, 90},
		{"5", 2, 1, 1, 80},
		{"Thanks", 2, 1, 2, 75},
	}
	if len(words) != len(want) {
		t.Fatalf("got %d words, want %d: %+v", len(words), len(want), words)
	}
	for i, w := range want {
		got := words[i]
		if got.Text != w.text || got.PageNum != 1 || got.BlockNum != w.block || got.ParNum != w.par || got.LineNum != w.line {
			t.Errorf("word %d = %+v, want %+v", i, got, w)
		}
		if int(got.Confidence+0.5) != w.conf {
			t.Errorf("word %d confidence = %v, want %d", i, got.Confidence, w.conf)
		}
	}

	lines := ocr.BuildLines(words)
	if got := ocr.Text(lines); got != "Hello world\nTotal 5\nThanks" {
		t.Errorf("line text = %q", got)
	}
}

func TestWordsFromProtoScalesBoxes(t *testing.T) {
	words := WordsFromProto(sampleDocument())
	b := words[0].BBox
	if b == nil {
		t.Fatal("first word has no box")
	}
	if b.X0 != 100 || b.Y0 != 50 || b.X1 != 200 || b.Y1 != 100 {
		t.Errorf("box = %+v, want {100 50 200 100}", *b)
	}
}

func TestWordsFromProtoNil(t *testing.T) {
	if words := WordsFromProto(nil); words != nil {
		t.Errorf("WordsFromProto(nil) = %v", words)
	}
	doc := sampleDocument()
	doc.Pages[0].Dimension = nil
	for _, w := range WordsFromProto(doc) {
		if w.BBox != nil {
			t.Fatalf("word %q has a box without page dimension", w.Text)
		}
	}
}

func TestEngineRecognize(t *testing.T) {
	var gotMime string
	var progress []float64
	var raw *documentaipb.Document
	e := &Engine{
		cfg: Config{ProjectID: "p", Location: "eu", ProcessorID: "x"},
		process: func(_ context.Context, content []byte, mimeType string, _ Config) (*documentaipb.Document, error) {
			gotMime = mimeType
			if len(content) == 0 {
				t.Error("empty upload")
			}
			return sampleDocument(), nil
		},
		OnResponse: func(d *documentaipb.Document) { raw = d },
	}
	rec, err := e.Recognize(context.Background(), image.NewGray(image.Rect(0, 0, 10, 10)), func(f float64) {
		progress = append(progress, f)
	})
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if gotMime != "image/png" {
		t.Errorf("mime = %q", gotMime)
	}
	if raw == nil {
		t.Error("OnResponse not called")
	}
	if len(rec.Words) != 5 || rec.MeanConfidence != 79 {
		t.Errorf("recognition = %d words, mean %d", len(rec.Words), rec.MeanConfidence)
	}
	if !strings.HasPrefix(rec.Text, "Hello world") {
		t.Errorf("text = %q", rec.Text)
	}
	for i := 1; i < len(progress); i++ {
		if progress[i] < progress[i-1] {
			t.Fatalf("progress went backwards: %v", progress)
		}
	}
	if progress[len(progress)-1] != 1 {
		t.Errorf("final progress = %v", progress[len(progress)-1])
	}
}

func TestEngineRecognizeFailure(t *testing.T) {
	boom := errors.New("quota exceeded")
	e := &Engine{process: func(context.Context, []byte, string, Config) (*documentaipb.Document, error) {
		return nil, boom
	}}
	_, err := e.Recognize(context.Background(), image.NewGray(image.Rect(0, 0, 2, 2)), nil)
	if !errors.Is(err, ocr.ErrRecognitionFailed) || !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped recognition failure", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Recognize(ctx, image.NewGray(image.Rect(0, 0, 2, 2)), nil); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled err = %v", err)
	}
}

func TestNewEngineValidates(t *testing.T) {
	if _, err := NewEngine(Config{ProjectID: "p"}); !errors.Is(err, ErrIncompleteConfig) {
		t.Errorf("err = %v, want ErrIncompleteConfig", err)
	}
	if _, err := NewEngine(Config{ProjectID: "p", Location: "us", ProcessorID: "abc"}); err != nil {
		t.Errorf("NewEngine: %v", err)
	}
}

func TestResponseJSON(t *testing.T) {
	out, err := ResponseJSON(&documentaipb.Document{Text: "hi"})
	if err != nil {
		t.Fatalf("ResponseJSON: %v", err)
	}
	if !strings.Contains(string(out), `"text"`) || !strings.Contains(string(out), `"hi"`) {
		t.Errorf("json = %s", out)
	}
	if _, err := ResponseJSON(nil); err == nil {
		t.Error("nil document: expected error")
	}
}
