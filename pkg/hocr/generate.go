package hocr

import (
	"bytes"
	"embed"
	"fmt"
	"math"
	"strconv"
	"text/template"
)

//go:embed templates/hocr.tmpl
var templateFS embed.FS

var baseTemplate = template.Must(template.New("hocr.tmpl").Funcs(template.FuncMap{
	"esc":  template.HTMLEscapeString,
	"bbox": formatBBox,
	"conf": func(c float64) string { return strconv.Itoa(int(math.Round(c))) },
	"next": func(string) string { return "" },
}).ParseFS(templateFS, "templates/hocr.tmpl"))

// Generate renders doc as an hOCR document. Elements without an ID get one
// numbered per class in document order (page_1, block_1, par_1, line_1,
// word_1, ...).
func Generate(doc *HOCR) ([]byte, error) {
	tmpl, err := baseTemplate.Clone()
	if err != nil {
		return nil, fmt.Errorf("hocr: clone template: %w", err)
	}
	counters := map[string]int{}
	tmpl.Funcs(template.FuncMap{
		"next": func(kind string) string {
			counters[kind]++
			return kind + "_" + strconv.Itoa(counters[kind])
		},
	})

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, doc); err != nil {
		return nil, fmt.Errorf("hocr: render: %w", err)
	}
	return buf.Bytes(), nil
}

func formatBBox(b BoundingBox) string {
	return fmt.Sprintf("bbox %.0f %.0f %.0f %.0f", b.X1, b.Y1, b.X2, b.Y2)
}
