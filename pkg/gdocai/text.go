package gdocai

import (
	"strings"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
)

// fullText holds the document text as runes; text anchor offsets count
// characters, not bytes.
type fullText []rune

func newFullText(doc *documentaipb.Document) fullText {
	return fullText(doc.GetText())
}

// anchor concatenates the segments of a layout's text anchor. Offsets outside
// the text are clamped.
func (t fullText) anchor(layout *documentaipb.Document_Page_Layout) string {
	segments := layout.GetTextAnchor().GetTextSegments()
	if len(segments) == 0 {
		return ""
	}
	var b strings.Builder
	for _, seg := range segments {
		start := min(max(int(seg.GetStartIndex()), 0), len(t))
		end := min(max(int(seg.GetEndIndex()), start), len(t))
		b.WriteString(string(t[start:end]))
	}
	return b.String()
}

// token returns the text of a token on one line.
func (t fullText) token(token *documentaipb.Document_Page_Token) string {
	text := strings.TrimSpace(t.anchor(token.GetLayout()))
	text = strings.ReplaceAll(text, "\n", " ")
	return strings.ReplaceAll(text, "\r", "")
}
