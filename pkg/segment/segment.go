// Package segment splits recognized text into labeled sections.
//
// Text with visible headings (lines ending in a colon, short upper-case
// lines, markdown-style '#' lines) is cut at those headings. Text without
// them is bucketed line by line against a keyword table instead.
package segment

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Section is a labeled run of lines.
type Section struct {
	Heading string `json:"heading"`
	Content string `json:"content"`
}

const maxUpperHeadingLen = 60

var (
	whitespaceRun  = regexp.MustCompile(`\s+`)
	markdownPrefix = regexp.MustCompile(`^#+\s+`)
)

// Segment returns the sections of raw using DefaultRules as the keyword
// fallback.
func Segment(raw string) []Section {
	return SegmentWith(raw, DefaultRules)
}

// SegmentWith is Segment with a custom keyword table.
func SegmentWith(raw string, rules []Rule) []Section {
	lines := NormalizeLines(raw)
	sections := HeadingPass(lines)
	if len(sections) > 1 {
		return sections
	}
	return KeywordPass(lines, rules)
}

// NormalizeLines splits raw on newlines, collapses whitespace runs to a
// single space, trims, and drops empty lines.
func NormalizeLines(raw string) []string {
	var lines []string
	for _, l := range strings.Split(raw, "\n") {
		l = strings.TrimSpace(whitespaceRun.ReplaceAllString(l, " "))
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// IsHeading reports whether a normalized line reads as a section heading.
// Lines without letters (e.g. "12/05/2024") count as upper-case.
func IsHeading(line string) bool {
	t := strings.TrimSpace(line)
	n := utf8.RuneCountInString(t)
	if n <= 2 {
		return false
	}
	switch {
	case strings.HasSuffix(t, ":"):
		return true
	case strings.ToUpper(t) == t && n <= maxUpperHeadingLen:
		return true
	default:
		return markdownPrefix.MatchString(t)
	}
}

// headingLabel strips every ':' and '#' from a heading line.
func headingLabel(line string) string {
	label := strings.TrimSpace(strings.NewReplacer(":", "", "#", "").Replace(line))
	if label == "" {
		return GeneralHeading
	}
	return label
}

// HeadingPass cuts lines at headings. Heading lines become labels and are not
// part of any content; a heading directly followed by another heading yields
// no section.
func HeadingPass(lines []string) []Section {
	var (
		sections []Section
		label    = GeneralHeading
		buf      []string
	)
	flush := func() {
		if len(buf) > 0 {
			sections = append(sections, Section{Heading: label, Content: strings.Join(buf, "\n")})
			buf = nil
		}
	}
	for _, l := range lines {
		if IsHeading(l) {
			flush()
			label = headingLabel(l)
			continue
		}
		buf = append(buf, l)
	}
	flush()
	return sections
}

// KeywordPass assigns each line to the first rule with a keyword contained in
// it (case-insensitive), or to General. Sections come out General first, then
// in rule order; empty ones are omitted.
func KeywordPass(lines []string, rules []Rule) []Section {
	general := []string{}
	buckets := make([][]string, len(rules))

	for _, l := range lines {
		lower := strings.ToLower(l)
		matched := false
		for i, r := range rules {
			if containsAny(lower, r.Keywords) {
				buckets[i] = append(buckets[i], l)
				matched = true
				break
			}
		}
		if !matched {
			general = append(general, l)
		}
	}

	var sections []Section
	if len(general) > 0 {
		sections = append(sections, Section{Heading: GeneralHeading, Content: strings.Join(general, "\n")})
	}
	for i, r := range rules {
		if len(buckets[i]) > 0 {
			sections = append(sections, Section{Heading: r.Heading, Content: strings.Join(buckets[i], "\n")})
		}
	}
	return sections
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
