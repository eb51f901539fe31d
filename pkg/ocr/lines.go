package ocr

import "strings"

// DefaultLowConfidence is the confidence below which words are flagged for
// review.
const DefaultLowConfidence = 70

// LineKey identifies the line a word belongs to.
type LineKey struct {
	Page  int `json:"page"`
	Block int `json:"block"`
	Par   int `json:"par"`
	Line  int `json:"line"`
}

// KeyOf returns the line key of w.
func KeyOf(w Word) LineKey {
	return LineKey{Page: w.PageNum, Block: w.BlockNum, Par: w.ParNum, Line: w.LineNum}
}

// LineGroup is a run of words sharing one LineKey, in emission order. It never
// contains blank words and is never empty.
type LineGroup struct {
	Key   LineKey `json:"key"`
	Words []Word  `json:"words"`
}

// Text joins the words with single spaces.
func (g LineGroup) Text() string {
	parts := make([]string, len(g.Words))
	for i, w := range g.Words {
		parts[i] = strings.TrimSpace(w.Text)
	}
	return strings.Join(parts, " ")
}

// MeanConfidence returns the average word confidence of the line.
func (g LineGroup) MeanConfidence() float64 {
	if len(g.Words) == 0 {
		return 0
	}
	var sum float64
	for _, w := range g.Words {
		sum += w.Confidence
	}
	return sum / float64(len(g.Words))
}

// LowConfidence returns the indices of words whose confidence is below
// threshold.
func (g LineGroup) LowConfidence(threshold float64) []int {
	var idx []int
	for i, w := range g.Words {
		if w.Confidence < threshold {
			idx = append(idx, i)
		}
	}
	return idx
}

// BuildLines groups words into lines. Blank words are dropped first; the
// remaining words are split wherever the line key changes between neighbours.
// Input order is trusted as reading order: a line whose words are interleaved
// with another line's is returned as several groups.
func BuildLines(words []Word) []LineGroup {
	lines, _ := BuildLinesStats(words)
	return lines
}

// BuildLinesStats is BuildLines that also reports how many blank words were
// dropped.
func BuildLinesStats(words []Word) (lines []LineGroup, dropped int) {
	var cur *LineGroup
	for _, w := range words {
		if w.IsBlank() {
			dropped++
			continue
		}
		key := KeyOf(w)
		if cur == nil || cur.Key != key {
			lines = append(lines, LineGroup{Key: key})
			cur = &lines[len(lines)-1]
		}
		cur.Words = append(cur.Words, w)
	}
	return lines, dropped
}

// Text renders lines one per row.
func Text(lines []LineGroup) string {
	rows := make([]string, len(lines))
	for i, l := range lines {
		rows[i] = l.Text()
	}
	return strings.Join(rows, "\n")
}
