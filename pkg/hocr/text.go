package hocr

import "strings"

// Text returns the recognized text of doc in reading order: words joined by
// spaces, one line per hOCR line and a blank line between paragraphs.
func Text(doc *HOCR) string {
	var paragraphs []string
	for _, page := range doc.Pages {
		for _, area := range page.Areas {
			for _, par := range area.Paragraphs {
				var lines []string
				for _, line := range par.Lines {
					if s := LineText(line); s != "" {
						lines = append(lines, s)
					}
				}
				if len(lines) > 0 {
					paragraphs = append(paragraphs, strings.Join(lines, "\n"))
				}
			}
		}
	}
	return strings.Join(paragraphs, "\n\n")
}

// LineText joins the non-blank words of a line with single spaces.
func LineText(line Line) string {
	words := make([]string, 0, len(line.Words))
	for _, w := range line.Words {
		if t := strings.TrimSpace(w.Text); t != "" {
			words = append(words, t)
		}
	}
	return strings.Join(words, " ")
}

// WordCount returns the number of words in doc, blank ones included.
func WordCount(doc *HOCR) int {
	n := 0
	for _, page := range doc.Pages {
		for _, area := range page.Areas {
			for _, par := range area.Paragraphs {
				for _, line := range par.Lines {
					n += len(line.Words)
				}
			}
		}
	}
	return n
}
