package export

import (
	"fmt"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// normalizeCoords rescales hOCR Bounding Box (bbox) coords to the PDF coords.
func normalizeCoords(x, y, hocrW, hocrH, pdfW, pdfH float64) (float64, float64) {
	nx := (x / hocrW) * pdfW
	ny := (y / hocrH) * pdfH
	return nx, ny
}

// encodeLatin1 converts s to the single-byte encoding of the core PDF fonts.
// Text that does not fit is sanitized first; exact is false in that case.
func encodeLatin1(s string) (out string, exact bool) {
	latin1, err := charmap.ISO8859_1.NewEncoder().String(s)
	if err == nil {
		return latin1, true
	}
	latin1, err = charmap.ISO8859_1.NewEncoder().String(Sanitize(s))
	if err != nil {
		return "", false
	}
	return latin1, false
}

// unescapePDFString undoes the backslash escapes of a PDF literal string.
func unescapePDFString(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 'r':
				out = append(out, '\r')
			case 'n':
				out = append(out, '\n')
			default:
				out = append(out, s[i])
			}
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}

// decodeUTF16BE decodes a PDF text string written as UTF-16BE with a byte
// order mark, surrogate pairs included.
func decodeUTF16BE(b []byte) (string, error) {
	if len(b) < 2 || b[0] != 0xFE || b[1] != 0xFF {
		return "", fmt.Errorf("export: not a UTF-16BE string")
	}
	out, err := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("export: decode UTF-16BE: %w", err)
	}
	return string(out), nil
}
