package export

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

var markdown = goldmark.New(goldmark.WithRendererOptions(gmhtml.WithHardWraps()))

// Markdown renders doc as Markdown with every recognized character escaped.
func Markdown(doc Document) string {
	doc = doc.withDefaults()
	var sb strings.Builder
	sb.WriteString("# " + escapeMarkdown(doc.Title) + "\n\n")
	sb.WriteString("**" + escapeMarkdown(doc.MetaLine()) + "**\n\n")
	for _, s := range doc.Sections {
		sb.WriteString("## " + escapeMarkdown(s.Heading) + "\n\n")
		lines := contentLines(s.Content)
		for i, l := range lines {
			sb.WriteString(escapeMarkdown(l))
			if i < len(lines)-1 {
				sb.WriteString("\n")
			}
		}
		if len(lines) > 0 {
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}

// HTML renders doc as a standalone HTML page.
func HTML(doc Document) ([]byte, error) {
	doc = doc.withDefaults()
	var body bytes.Buffer
	if err := markdown.Convert([]byte(Markdown(doc)), &body); err != nil {
		return nil, fmt.Errorf("failed to render HTML: %w", err)
	}

	var out bytes.Buffer
	out.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&out, "<title>%s</title>\n", html.EscapeString(doc.Title))
	out.WriteString("</head>\n<body>\n")
	out.Write(body.Bytes())
	out.WriteString("</body>\n</html>\n")
	return out.Bytes(), nil
}

// escapeMarkdown backslash-escapes ASCII punctuation so OCR text is never
// read as Markdown syntax.
func escapeMarkdown(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if r < 0x80 && strings.ContainsRune("\\`*_{}[]()#+-.!|<>&~\"'=:;,?@$%^/", r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
