package export

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// WrapWidth is the number of characters per body line in the PDF report.
const WrapWidth = 95

var typographic = strings.NewReplacer(
	"\ufb00", "ff",
	"\ufb01", "fi",
	"\ufb02", "fl",
	"\ufb03", "ffi",
	"\ufb04", "ffl",
	"\u2018", "'",
	"\u2019", "'",
	"\u201c", `"`,
	"\u201d", `"`,
	"\u2013", "-",
	"\u2014", "-",
	"\u2022", "-",
	"\u00a0", " ",
)

// Sanitize maps s onto the characters the core PDF fonts can show: NFKC
// normalization, ASCII stand-ins for ligatures, curly quotes, dashes and
// bullets, and removal of anything outside printable Latin-1 and tab/CR/LF.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	s = typographic.Replace(norm.NFKC.String(s))
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			return r
		case r >= 0x20 && r <= 0x7E:
			return r
		case r >= 0xA0 && r <= 0xFF:
			return r
		}
		return -1
	}, s)
}

// WrapLine trims text and cuts it into chunks of at most width characters.
// It does not look for word boundaries.
func WrapLine(text string, width int) []string {
	runes := []rune(strings.TrimSpace(text))
	var out []string
	for len(runes) > width {
		out = append(out, string(runes[:width]))
		runes = runes[width:]
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}
