//go:build cgo

package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gardar/docscan/pkg/segment"
)

// fakeClock returns successive instants starting at start, step apart.
func fakeClock(start time.Time, step time.Duration) func() time.Time {
	next := start
	return func() time.Time {
		t := next
		next = next.Add(step)
		return t
	}
}

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := New(dbPath, opts...)
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func record(title, raw string) Record {
	return Record{
		Title:          title,
		RawText:        raw,
		Sections:       []segment.Section{{Heading: "General", Content: raw}},
		DocType:        "Invoice",
		MeanConfidence: 88,
	}
}

func TestNewCreatesParentDirAndMigrates(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "sub", "dir", "docs.db")
	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("creating store in nested dir: %v", err)
	}
	defer s.Close()

	v, err := s.SchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != len(migrations) {
		t.Errorf("schema version = %d, want %d", v, len(migrations))
	}

	// Reopening is a no-op for migrations.
	s.Close()
	s, err = New(dbPath)
	if err != nil {
		t.Fatalf("reopening: %v", err)
	}
	s.Close()
}

func TestSaveAndGet(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2024, 5, 1, 10, 30, 0, 0, time.FixedZone("ICT", 7*3600))
	s := newTestStore(t, WithClock(func() time.Time { return created }))

	saved, err := s.Save(ctx, record("ACME invoice", "INVOICE\nTotal: $500"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("no id assigned")
	}
	if !saved.CreatedAt.Equal(created) || saved.CreatedAt.Location() != time.UTC {
		t.Errorf("created_at = %v, want %v in UTC", saved.CreatedAt, created)
	}

	got, err := s.Get(ctx, saved.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != "ACME invoice" || got.DocType != "Invoice" || got.MeanConfidence != 88 {
		t.Errorf("Get = %+v", got)
	}
	if len(got.Sections) != 1 || got.Sections[0].Content != "INVOICE\nTotal: $500" {
		t.Errorf("sections = %+v", got.Sections)
	}
	if !got.CreatedAt.Equal(saved.CreatedAt) {
		t.Errorf("created_at round trip %v != %v", got.CreatedAt, saved.CreatedAt)
	}
}

func TestSaveValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Save(ctx, Record{RawText: "  ", Sections: []segment.Section{}}); !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("blank raw text: err = %v", err)
	}
	if _, err := s.Save(ctx, Record{RawText: "text"}); !errors.Is(err, ErrInvalidRecord) {
		t.Errorf("nil sections: err = %v", err)
	}

	rec, err := s.Save(ctx, Record{Title: strings.Repeat("é", 130), RawText: "x", Sections: []segment.Section{}})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if n := len([]rune(rec.Title)); n != MaxTitleLen {
		t.Errorf("title runes = %d, want %d", n, MaxTitleLen)
	}
	if rec.DocType != DefaultType {
		t.Errorf("doc type = %q", rec.DocType)
	}

	rec, err = s.Save(ctx, Record{RawText: "x", Sections: []segment.Section{}})
	if err != nil {
		t.Fatal(err)
	}
	if rec.Title != DefaultTitle {
		t.Errorf("title = %q, want %q", rec.Title, DefaultTitle)
	}
}

func TestGetNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 5, 1, 23, 0, 0, 0, time.UTC)
	s := newTestStore(t, WithClock(fakeClock(start, 12*time.Hour)))

	// Created 05-01 23:00, 05-02 11:00, 05-02 23:00, 05-03 11:00.
	inputs := []Record{
		record("Receipt Store 12", "Cashier: Ann\nTotal 120"),
		record("Lease agreement", "This agreement is hereby made"),
		record("Invoice 100%", "Bill To: ACME"),
		record("Untitled", "invoice_no 7 acme"),
	}
	inputs[0].DocType = "Receipt"
	for _, r := range inputs {
		if _, err := s.Save(ctx, r); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	day := func(s string) time.Time {
		d, err := ParseDay(s)
		if err != nil {
			t.Fatal(err)
		}
		return d
	}

	tests := []struct {
		name string
		q    Query
		want []string
	}{
		{"all newest first", Query{}, []string{"Untitled", "Invoice 100%", "Lease agreement", "Receipt Store 12"}},
		{"case-insensitive raw text", Query{Text: "ACME"}, []string{"Untitled", "Invoice 100%"}},
		{"title match", Query{Text: "lease"}, []string{"Lease agreement"}},
		{"percent is literal", Query{Text: "100%"}, []string{"Invoice 100%"}},
		{"underscore is literal", Query{Text: "invoice_no"}, []string{"Untitled"}},
		{"whole day range", Query{From: day("2024-05-02"), To: day("2024-05-02")}, []string{"Invoice 100%", "Lease agreement"}},
		{"from only", Query{From: day("2024-05-03")}, []string{"Untitled"}},
		{"to only", Query{To: day("2024-05-01")}, []string{"Receipt Store 12"}},
		{"text and range", Query{Text: "acme", To: day("2024-05-02")}, []string{"Invoice 100%"}},
		{"doc type", Query{DocType: "Receipt"}, []string{"Receipt Store 12"}},
		{"limit", Query{Limit: 2}, []string{"Untitled", "Invoice 100%"}},
		{"no match", Query{Text: "passport"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Search(ctx, tt.q)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			titles := make([]string, len(got))
			for i, r := range got {
				titles[i] = r.Title
			}
			if strings.Join(titles, "|") != strings.Join(tt.want, "|") {
				t.Errorf("titles = %q, want %q", titles, tt.want)
			}
		})
	}
}

func TestLimitOf(t *testing.T) {
	for in, want := range map[int]int{0: DefaultLimit, -3: DefaultLimit, 10: 10, 500: MaxLimit} {
		if got := limitOf(in); got != want {
			t.Errorf("limitOf(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestParseDay(t *testing.T) {
	if d, err := ParseDay(""); err != nil || !d.IsZero() {
		t.Errorf("ParseDay(\"\") = %v, %v", d, err)
	}
	if _, err := ParseDay("05/01/2024"); err == nil {
		t.Error("expected error for bad date")
	}
}
