package hocr

import (
	"errors"
	"strings"
	"testing"
)

const tesseractSample = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Transitional//EN"
    "http://www.w3.org/TR/xhtml1/DTD/xhtml1-transitional.dtd">
<html xmlns="http://www.w3.org/1999/xhtml" xml:lang="en" lang="en">
 <head>
  <title></title>
  <meta http-equiv="Content-Type" content="text/html;charset=utf-8"/>
  <meta name='ocr-system' content='tesseract 5.3.0' />
  <meta name='ocr-capabilities' content='ocr_page ocr_carea ocr_par ocr_line ocrx_word ocrp_wconf'/>
 </head>
 <body>
  <div class='ocr_page' id='page_1' title='image "receipt.png"; bbox 0 0 800 600; ppageno 0'>
   <div class='ocr_carea' id='block_1_1' title="bbox 36 92 580 120">
    <p class='ocr_par' id='par_1_1' lang='eng' title="bbox 36 92 580 120">
     <span class='ocr_header' id='line_1_1' title="bbox 36 92 580 120; baseline 0 -5; x_size 28">
      <span class='ocrx_word' id='word_1_1' title='bbox 36 92 200 120; x_wconf 96'>INVOICE</span>
     </span>
     <span class='ocr_line' id='line_1_2' title="bbox 36 130 580 150; baseline 0 -4">
      <span class='ocrx_word' id='word_1_2' title='bbox 36 130 100 150; x_wconf 91'>Invoice</span>
      <span class='ocrx_word' id='word_1_3' title='bbox 110 130 140 150; x_wconf 62'><strong>No:</strong></span>
      <span class='ocrx_word' id='word_1_4' title='bbox 150 130 200 150; x_wconf 88'>42</span>
     </span>
    </p>
   </div>
   <div class='ocr_carea' id='block_1_2' title="bbox 36 300 580 320">
    <p class='ocr_par' id='par_1_2' lang='eng' title="bbox 36 300 580 320">
     <span class='ocr_line' id='line_1_3' title="bbox 36 300 580 320">
      <span class='ocrx_word' id='word_1_5' title='bbox 36 300 90 320; x_wconf 93'>Total</span>
      <span class='ocrx_word' id='word_1_6' title='bbox 100 300 120 320; x_wconf 0'> </span>
     </span>
    </p>
   </div>
  </div>
 </body>
</html>`

func TestParseTesseractOutput(t *testing.T) {
	doc, err := Parse([]byte(tesseractSample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.System != "tesseract 5.3.0" || doc.Language != "en" {
		t.Errorf("head metadata = %q %q", doc.System, doc.Language)
	}
	if len(doc.Pages) != 1 {
		t.Fatalf("pages = %d, want 1", len(doc.Pages))
	}
	page := doc.Pages[0]
	if page.ImageName != "receipt.png" || page.BBox != NewBoundingBox(0, 0, 800, 600) {
		t.Errorf("page = %+v", page)
	}
	if len(page.Areas) != 2 {
		t.Fatalf("areas = %d, want 2", len(page.Areas))
	}
	lines := page.Areas[0].Paragraphs[0].Lines
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}
	if lines[0].Class() != "ocr_header" || lines[0].Baseline != "0 -5" {
		t.Errorf("header line = %+v", lines[0])
	}
	w := lines[1].Words[1]
	if w.Text != "No:" || w.Confidence != 62 || w.BBox.Width() != 30 {
		t.Errorf("word = %+v", w)
	}
	if got := WordCount(doc); got != 6 {
		t.Errorf("WordCount = %d, want 6", got)
	}
}

func TestText(t *testing.T) {
	doc, err := Parse([]byte(tesseractSample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := "INVOICE\nInvoice No: 42\n\nTotal"
	if got := Text(doc); got != want {
		t.Errorf("Text = %q, want %q", got, want)
	}
}

func TestParseImplicitContainers(t *testing.T) {
	input := `<html><body>
<div class="ocr_page" title="bbox 0 0 100 100">
  <span class="ocr_line" title="bbox 0 0 100 10"><span class="ocrx_word" title="bbox 0 0 10 10; x_wconf 80">loose</span></span>
</div>
<div class="ocr_page" title="bbox 0 0 100 100; ppageno 1">
  <span class="ocrx_word" title="bbox 0 0 10 10">orphan</span>
</div>
</body></html>`

	doc, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(doc.Pages) != 2 {
		t.Fatalf("pages = %d, want 2", len(doc.Pages))
	}
	for i, page := range doc.Pages {
		if len(page.Areas) != 1 || len(page.Areas[0].Paragraphs) != 1 || len(page.Areas[0].Paragraphs[0].Lines) != 1 {
			t.Fatalf("page %d: words not wrapped in implicit containers: %+v", i, page)
		}
	}
	if doc.Pages[1].PageNumber != 1 {
		t.Errorf("second page number = %d", doc.Pages[1].PageNumber)
	}
	if got := Text(doc); got != "loose\n\norphan" {
		t.Errorf("Text = %q", got)
	}
}

func TestParseLatin1(t *testing.T) {
	input := []byte(`<html><head><meta http-equiv="Content-Type" content="text/html; charset=iso-8859-1"/></head><body>` +
		`<div class="ocr_page"><span class="ocrx_word">Caf` + "\xe9" + `</span></div></body></html>`)

	doc, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := Text(doc); got != "Café" {
		t.Errorf("Text = %q, want Café", got)
	}
}

func TestParseNoPages(t *testing.T) {
	_, err := Parse([]byte("<html><body><p>plain</p></body></html>"))
	if !errors.Is(err, ErrNoPages) {
		t.Fatalf("err = %v, want ErrNoPages", err)
	}
}

func TestGenerateParsesBack(t *testing.T) {
	doc := &HOCR{
		Title:    "scan",
		Language: "en",
		System:   "docscan",
		Pages: []Page{{
			BBox: NewBoundingBox(0, 0, 640, 480),
			Areas: []Area{{
				Paragraphs: []Paragraph{{
					Lines: []Line{{
						Words: []Word{
							{Text: "Fish & Chips", BBox: NewBoundingBox(10, 10, 90, 30), Confidence: 87.6},
							{Text: "<4.50>", BBox: NewBoundingBox(100, 10, 150, 30), Confidence: 91},
						},
					}},
				}},
			}},
		}},
	}

	out, err := Generate(doc)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(string(out), `id="word_2"`) {
		t.Errorf("generated ids missing:\n%s", out)
	}
	if !strings.Contains(string(out), "Fish &amp; Chips") {
		t.Errorf("word text not escaped:\n%s", out)
	}

	back, err := Parse(out)
	if err != nil {
		t.Fatalf("Parse(Generate()): %v", err)
	}
	words := back.Pages[0].Areas[0].Paragraphs[0].Lines[0].Words
	if len(words) != 2 || words[0].Text != "Fish & Chips" || words[1].Text != "<4.50>" {
		t.Fatalf("words = %+v", words)
	}
	if words[0].Confidence != 88 {
		t.Errorf("confidence = %v, want rounded 88", words[0].Confidence)
	}
	if back.System != "docscan" {
		t.Errorf("system = %q", back.System)
	}
}

func TestParseTitle(t *testing.T) {
	props := ParseTitle(`bbox 1 2 3 4; x_wconf 95; baseline 0.01 -3`)
	if props.BBox() != NewBoundingBox(1, 2, 3, 4) {
		t.Errorf("bbox = %+v", props.BBox())
	}
	if c, ok := props.Float("x_wconf"); !ok || c != 95 {
		t.Errorf("x_wconf = %v %v", c, ok)
	}
	if props.String("baseline") != "0.01 -3" {
		t.Errorf("baseline = %q", props.String("baseline"))
	}
	if !ParseTitle("bbox 1 2 x 4").BBox().IsZero() {
		t.Error("malformed bbox should be zero")
	}
}
