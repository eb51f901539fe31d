package hocr

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// ErrNoPages is returned when the input contains no recognizable page.
var ErrNoPages = errors.New("hocr: no ocr_page elements found")

var charsetPattern = regexp.MustCompile(`(?i)charset\s*=\s*["']?([\w-]+)`)

// Parse converts raw hOCR HTML into an HOCR document. Elements missing an
// intermediate container (for example lines placed directly on a page) are
// attached to an implicit container so that every word ends up at the same
// depth.
func Parse(data []byte) (*HOCR, error) {
	decoded, err := decodeCharset(data)
	if err != nil {
		return nil, err
	}
	root, err := html.Parse(bytes.NewReader(decoded))
	if err != nil {
		return nil, fmt.Errorf("hocr: parse html: %w", err)
	}

	doc := &HOCR{Metadata: make(map[string]string)}
	readHead(doc, root)

	b := &builder{doc: doc}
	b.walk(root)
	if len(doc.Pages) == 0 {
		return nil, ErrNoPages
	}
	return doc, nil
}

// decodeCharset converts single-byte encoded input to UTF-8.
func decodeCharset(data []byte) ([]byte, error) {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	m := charsetPattern.FindSubmatch(head)
	if m == nil {
		return data, nil
	}

	var enc encoding.Encoding
	switch strings.ToLower(string(m[1])) {
	case "utf-8", "utf8":
		return data, nil
	case "windows-1252", "cp1252":
		enc = charmap.Windows1252
	default:
		enc = charmap.ISO8859_1
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("hocr: decode %s: %w", m[1], err)
	}
	return out, nil
}

// Properties holds the semicolon separated entries of an hOCR title
// attribute, e.g. "bbox 100 200 300 400; x_wconf 95".
type Properties map[string][]string

// ParseTitle splits an hOCR title attribute into its properties.
func ParseTitle(title string) Properties {
	props := make(Properties)
	for _, part := range strings.Split(title, ";") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		props[fields[0]] = fields[1:]
	}
	return props
}

// BBox returns the bbox property, or a zero box when absent or malformed.
func (p Properties) BBox() BoundingBox {
	v := p["bbox"]
	if len(v) < 4 {
		return BoundingBox{}
	}
	var c [4]float64
	for i := range c {
		f, err := strconv.ParseFloat(v[i], 64)
		if err != nil {
			return BoundingBox{}
		}
		c[i] = f
	}
	return NewBoundingBox(c[0], c[1], c[2], c[3])
}

// Float returns the first value of key as a number.
func (p Properties) Float(key string) (float64, bool) {
	v := p[key]
	if len(v) == 0 {
		return 0, false
	}
	f, err := strconv.ParseFloat(v[0], 64)
	return f, err == nil
}

// String returns the values of key joined by spaces.
func (p Properties) String(key string) string {
	return strings.Join(p[key], " ")
}

func readHead(doc *HOCR, n *html.Node) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "html":
			if lang := attr(n, "lang"); lang != "" {
				doc.Language = lang
			}
		case "title":
			doc.Title = strings.TrimSpace(textContent(n))
		case "meta":
			name, content := attr(n, "name"), attr(n, "content")
			switch {
			case content == "":
			case name == "ocr-system":
				doc.System = content
			case name == "dc.language" && doc.Language == "":
				doc.Language = content
			case strings.HasPrefix(name, "ocr-"):
				doc.Metadata[name] = content
			}
		case "body":
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		readHead(doc, c)
	}
}

const (
	levelPage = iota
	levelArea
	levelPar
	levelLine
	levelCount
)

// builder assembles the document while walking the HTML tree. open tracks
// which container at each level may still receive children.
type builder struct {
	doc  *HOCR
	open [levelCount]bool
}

func (b *builder) enter(level int) {
	b.open[level] = true
	for l := level + 1; l < levelCount; l++ {
		b.open[l] = false
	}
}

func (b *builder) leave(level int) {
	for l := level; l < levelCount; l++ {
		b.open[l] = false
	}
}

func (b *builder) page() *Page {
	if !b.open[levelPage] {
		b.doc.Pages = append(b.doc.Pages, Page{PageNumber: len(b.doc.Pages)})
		b.enter(levelPage)
	}
	return &b.doc.Pages[len(b.doc.Pages)-1]
}

func (b *builder) area() *Area {
	p := b.page()
	if !b.open[levelArea] {
		p.Areas = append(p.Areas, Area{})
		b.enter(levelArea)
	}
	return &p.Areas[len(p.Areas)-1]
}

func (b *builder) paragraph() *Paragraph {
	a := b.area()
	if !b.open[levelPar] {
		a.Paragraphs = append(a.Paragraphs, Paragraph{})
		b.enter(levelPar)
	}
	return &a.Paragraphs[len(a.Paragraphs)-1]
}

func (b *builder) line() *Line {
	par := b.paragraph()
	if !b.open[levelLine] {
		par.Lines = append(par.Lines, Line{})
		b.enter(levelLine)
	}
	return &par.Lines[len(par.Lines)-1]
}

func (b *builder) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		class := ocrClass(n)
		props := ParseTitle(attr(n, "title"))
		id := attr(n, "id")

		switch class {
		case "ocr_page":
			// Close whatever is open so a new page is always started.
			b.leave(levelPage)
			p := b.page()
			p.ID = id
			p.BBox = props.BBox()
			p.ImageName = strings.Trim(props.String("image"), `"`)
			if no, ok := props.Float("ppageno"); ok {
				p.PageNumber = int(no)
			}
			b.walkChildren(n, levelPage)
			return
		case "ocr_carea":
			pg := b.page()
			pg.Areas = append(pg.Areas, Area{ID: id, BBox: props.BBox()})
			b.enter(levelArea)
			b.walkChildren(n, levelArea)
			return
		case "ocr_par":
			a := b.area()
			a.Paragraphs = append(a.Paragraphs, Paragraph{ID: id, Lang: attr(n, "lang"), BBox: props.BBox()})
			b.enter(levelPar)
			b.walkChildren(n, levelPar)
			return
		case "ocr_line", "ocr_header", "ocr_caption", "ocr_textfloat":
			par := b.paragraph()
			par.Lines = append(par.Lines, Line{
				ID:       id,
				Kind:     class,
				BBox:     props.BBox(),
				Baseline: props.String("baseline"),
			})
			b.enter(levelLine)
			b.walkChildren(n, levelLine)
			return
		case "ocrx_word":
			l := b.line()
			w := Word{
				ID:   id,
				Text: strings.TrimSpace(textContent(n)),
				BBox: props.BBox(),
				Lang: attr(n, "lang"),
			}
			if conf, ok := props.Float("x_wconf"); ok {
				w.Confidence = conf
			}
			l.Words = append(l.Words, w)
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.walk(c)
	}
}

func (b *builder) walkChildren(n *html.Node, level int) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.walk(c)
	}
	b.leave(level)
}

// ocrClass returns the first hOCR class of n, or "".
func ocrClass(n *html.Node) string {
	for _, c := range strings.Fields(attr(n, "class")) {
		if strings.HasPrefix(c, "ocr") {
			return c
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
	}
	return sb.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
