package segment

import (
	"reflect"
	"strings"
	"testing"
)

const invoiceText = "INVOICE\nInvoice No: 123\nBill To: ACME\nTotal: $500"

func TestIsHeading(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"INVOICE", true},
		{"Customer:", true},
		{"# Notes", true},
		{"## Line items", true},
		{"Invoice No: 123", false},
		{"a:", false},
		{"AB", false},
		{"ab:", true},
		{"2024-01-01", true}, // no letters, so it is its own upper case
		{"#hashtag", false},
		{strings.Repeat("A", 61), false},
		{strings.Repeat("A", 60), true},
	}
	for _, tt := range tests {
		if got := IsHeading(tt.line); got != tt.want {
			t.Errorf("IsHeading(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestNormalizeLines(t *testing.T) {
	got := NormalizeLines("  a   b \n\n\t c \r\n   \n")
	want := []string{"a b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeLines = %q, want %q", got, want)
	}
}

func TestHeadingPassInvoice(t *testing.T) {
	sections := HeadingPass(NormalizeLines(invoiceText))
	want := []Section{{Heading: "INVOICE", Content: "Invoice No: 123\nBill To: ACME\nTotal: $500"}}
	if !reflect.DeepEqual(sections, want) {
		t.Errorf("HeadingPass = %+v, want %+v", sections, want)
	}
}

func TestSegmentUsesHeadings(t *testing.T) {
	raw := "Acme Ltd\nCustomer:\nJohn Smith\nITEMS\nWidget x2\nGadget x1\n# Notes\nThank you"
	got := Segment(raw)
	want := []Section{
		{Heading: "General", Content: "Acme Ltd"},
		{Heading: "Customer", Content: "John Smith"},
		{Heading: "ITEMS", Content: "Widget x2\nGadget x1"},
		{Heading: "Notes", Content: "Thank you"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Segment = %+v, want %+v", got, want)
	}
}

func TestSegmentConsecutiveHeadingsDropEarlierLabel(t *testing.T) {
	got := Segment("FIRST\nSECOND\nbody line\nTHIRD\nmore text")
	want := []Section{
		{Heading: "SECOND", Content: "body line"},
		{Heading: "THIRD", Content: "more text"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Segment = %+v, want %+v", got, want)
	}
}

func TestSegmentFallsBackToKeywords(t *testing.T) {
	got := Segment(invoiceText)
	// Only one heading section, so lines are bucketed; "INVOICE" matches no rule.
	want := []Section{
		{Heading: "General", Content: "INVOICE\nInvoice No: 123\nBill To: ACME"},
		{Heading: "Payment / Amounts", Content: "Total: $500"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Segment = %+v, want %+v", got, want)
	}
}

func TestKeywordPassOrderAndFirstMatch(t *testing.T) {
	lines := []string{
		"Grand total 40.00",
		"hello there",
		"Phone 555-0100",
		"Due date 2024-05-01",
		"Payment terms net 30",
		"Email and total", // contact rule comes first
	}
	got := KeywordPass(lines, DefaultRules)
	want := []Section{
		{Heading: "General", Content: "hello there"},
		{Heading: "Contact Info", Content: "Phone 555-0100\nEmail and total"},
		{Heading: "Dates", Content: "Due date 2024-05-01"},
		{Heading: "Payment / Amounts", Content: "Grand total 40.00"},
		{Heading: "Terms / Notes", Content: "Payment terms net 30"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("KeywordPass = %+v, want %+v", got, want)
	}
}

func TestSegmentPreservesLines(t *testing.T) {
	inputs := []string{
		"Acme Ltd\nCustomer:\nJohn Smith\nITEMS\nWidget x2",
		"one line only",
		"phone 1\nsome text\ntotal 3",
	}
	for _, raw := range inputs {
		lines := NormalizeLines(raw)
		headings := 0
		for _, l := range lines {
			if IsHeading(l) {
				headings++
			}
		}

		sections := Segment(raw)
		content := 0
		for _, s := range sections {
			content += len(strings.Split(s.Content, "\n"))
		}
		if len(HeadingPass(lines)) > 1 {
			if content+headings != len(lines) {
				t.Errorf("%q: %d content + %d heading lines != %d lines", raw, content, headings, len(lines))
			}
		} else if content != len(lines) {
			t.Errorf("%q: keyword buckets hold %d of %d lines", raw, content, len(lines))
		}
	}
}

func TestSegmentEmpty(t *testing.T) {
	if got := Segment("   \n\n"); len(got) != 0 {
		t.Errorf("Segment(blank) = %+v, want none", got)
	}
}
