package hocr

// HOCR is a parsed hOCR document.
type HOCR struct {
	Title    string            // <title> of the document
	Language string            // Document language (html lang or dc.language)
	System   string            // ocr-system meta, e.g. "tesseract 5.3.0"
	Metadata map[string]string // Remaining ocr-* meta entries
	Pages    []Page
}

// Page corresponds to class 'ocr_page'.
type Page struct {
	ID         string
	PageNumber int         // ppageno property
	ImageName  string      // image property
	BBox       BoundingBox // Page extent in image pixels
	Areas      []Area
}

// Class returns the hOCR class name.
func (Page) Class() string { return "ocr_page" }

// Area corresponds to class 'ocr_carea' (a block in Tesseract terms).
type Area struct {
	ID         string
	BBox       BoundingBox
	Paragraphs []Paragraph
}

// Class returns the hOCR class name.
func (Area) Class() string { return "ocr_carea" }

// Paragraph corresponds to class 'ocr_par'.
type Paragraph struct {
	ID    string
	Lang  string
	BBox  BoundingBox
	Lines []Line
}

// Class returns the hOCR class name.
func (Paragraph) Class() string { return "ocr_par" }

// Line corresponds to class 'ocr_line' and its typographic variants
// ('ocr_header', 'ocr_caption', 'ocr_textfloat').
type Line struct {
	ID       string
	Kind     string // original class, "ocr_line" unless a variant was used
	BBox     BoundingBox
	Baseline string
	Words    []Word
}

// Class returns the hOCR class name.
func (l Line) Class() string {
	if l.Kind != "" {
		return l.Kind
	}
	return "ocr_line"
}

// Word corresponds to class 'ocrx_word'.
type Word struct {
	ID         string
	Text       string
	BBox       BoundingBox
	Confidence float64 // x_wconf, 0-100
	Lang       string
}

// Class returns the hOCR class name.
func (Word) Class() string { return "ocrx_word" }

// BoundingBox is the value of an hOCR 'bbox' property: the top-left (X1, Y1)
// and bottom-right (X2, Y2) corners in image pixels.
type BoundingBox struct {
	X1 float64
	Y1 float64
	X2 float64
	Y2 float64
}

// NewBoundingBox creates a bounding box from corner coordinates.
func NewBoundingBox(x1, y1, x2, y2 float64) BoundingBox {
	return BoundingBox{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// Width returns X2-X1.
func (b BoundingBox) Width() float64 { return b.X2 - b.X1 }

// Height returns Y2-Y1.
func (b BoundingBox) Height() float64 { return b.Y2 - b.Y1 }

// IsZero reports whether b was never set.
func (b BoundingBox) IsZero() bool { return b == BoundingBox{} }

// Union returns the smallest box containing b and o. A zero box is ignored.
func (b BoundingBox) Union(o BoundingBox) BoundingBox {
	if b.IsZero() {
		return o
	}
	if o.IsZero() {
		return b
	}
	return BoundingBox{
		X1: min(b.X1, o.X1),
		Y1: min(b.Y1, o.Y1),
		X2: max(b.X2, o.X2),
		Y2: max(b.Y2, o.Y2),
	}
}
