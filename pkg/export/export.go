// Package export renders recognized documents into shareable files.
//
// A Document (title, type, mean confidence and sections) can be rendered as
// a plain A4 PDF, a Word document, an Excel workbook or an HTML page. The
// package can also assemble a searchable PDF from rectified page images with
// the recognized words placed on an invisible text layer, and write hOCR.
//
// Key Features:
//
// - PDF: A4 text report using the core Helvetica fonts
// - SearchablePDF: page images with a toggleable invisible OCR layer
// - DOCX, XLSX and HTML renderers of the same report
// - Text sanitizing for single-byte PDF fonts
// - Detection of existing OCR layers in PDF data
//
// Main Functions:
//
// - Render: Renders a Document in a named Format
// - SearchablePDF: Creates a new PDF from images with OCR text layer
// - CheckOCRLayers: Reports OCR layers already present in a PDF
package export

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gardar/docscan/pkg/segment"
)

// ErrUnknownFormat is returned by Render for an unsupported format name.
var ErrUnknownFormat = errors.New("export: unknown format")

// Default labels for missing fields.
const (
	DefaultTitle   = "OCR Document"
	DefaultDocType = "Other"
	DefaultHeading = "Section"
)

// Document is the report rendered by every exporter.
type Document struct {
	Title          string            `json:"title"`
	DocType        string            `json:"docType"`
	MeanConfidence int               `json:"meanConfidence"`
	Sections       []segment.Section `json:"sections"`
}

// withDefaults fills empty title, type and headings.
func (d Document) withDefaults() Document {
	if strings.TrimSpace(d.Title) == "" {
		d.Title = DefaultTitle
	}
	if strings.TrimSpace(d.DocType) == "" {
		d.DocType = DefaultDocType
	}
	sections := make([]segment.Section, len(d.Sections))
	for i, s := range d.Sections {
		if strings.TrimSpace(s.Heading) == "" {
			s.Heading = DefaultHeading
		}
		sections[i] = s
	}
	d.Sections = sections
	return d
}

// MetaLine is the header line under the title.
func (d Document) MetaLine() string {
	return "Document Type: " + d.DocType + "  |  Confidence: " + strconv.Itoa(d.MeanConfidence) + "%"
}

// Format names an output format.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatXLSX Format = "xlsx"
	FormatHTML Format = "html"
	FormatText Format = "txt"
)

// Formats lists the formats Render accepts.
var Formats = []Format{FormatPDF, FormatDOCX, FormatXLSX, FormatHTML, FormatText}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Filename is the attachment name used for f.
func (f Format) Filename() string {
	return "ocr." + string(f)
}

// ParseFormat maps a case-insensitive name to a Format.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// Render renders doc in format f.
func Render(f Format, doc Document) ([]byte, error) {
	switch f {
	case FormatPDF:
		return PDF(doc)
	case FormatDOCX:
		return DOCX(doc)
	case FormatXLSX:
		return XLSX(doc)
	case FormatHTML:
		return HTML(doc)
	case FormatText:
		return []byte(Text(doc)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// Text renders doc as plain text with underlined headings.
func Text(doc Document) string {
	doc = doc.withDefaults()
	var sb strings.Builder
	sb.WriteString(doc.Title + "\n")
	sb.WriteString(doc.MetaLine() + "\n")
	for _, s := range doc.Sections {
		sb.WriteString("\n" + s.Heading + "\n")
		sb.WriteString(strings.Repeat("-", len([]rune(s.Heading))) + "\n")
		for _, l := range contentLines(s.Content) {
			sb.WriteString(l + "\n")
		}
	}
	return sb.String()
}

// contentLines splits section content into trimmed non-empty lines.
func contentLines(content string) []string {
	var lines []string
	for _, l := range strings.Split(content, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
