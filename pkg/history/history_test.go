package history

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gardar/docscan/pkg/ocr"
	"github.com/gardar/docscan/pkg/segment"
)

func entry(title string) Entry {
	return Entry{
		Title:    title,
		RawText:  title + "\nbody",
		DocType:  "Other",
		Sections: []segment.Section{{Heading: "General", Content: "body"}},
		Words:    []ocr.Word{{Text: title, Confidence: 91, PageNum: 1, BlockNum: 1, ParNum: 1, LineNum: 1}},
	}
}

func stores(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemory(),
		"file":   NewFile(filepath.Join(t.TempDir(), "nested", "history.json")),
	}
}

func TestStoreNewestFirstAndClear(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for _, title := range []string{"first", "second", "third"} {
				e, err := s.Save(ctx, entry(title))
				if err != nil {
					t.Fatalf("Save(%s): %v", title, err)
				}
				if e.ID == uuid.Nil || e.CreatedAt.IsZero() {
					t.Errorf("Save(%s) did not stamp entry: %+v", title, e)
				}
			}

			list, err := s.List(ctx)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(list) != 3 || list[0].Title != "third" || list[2].Title != "first" {
				t.Fatalf("List order = %v", titles(list))
			}
			if len(list[0].Words) != 1 || list[0].Words[0].Confidence != 91 {
				t.Errorf("words not kept: %+v", list[0].Words)
			}

			if err := s.Clear(ctx); err != nil {
				t.Fatalf("Clear: %v", err)
			}
			list, err = s.List(ctx)
			if err != nil || len(list) != 0 {
				t.Errorf("after Clear: %v, %v", titles(list), err)
			}
		})
	}
}

func TestStoreRejectsEmptyText(t *testing.T) {
	for name, s := range stores(t) {
		if _, err := s.Save(context.Background(), Entry{Title: "x", RawText: " \n"}); !errors.Is(err, ErrInvalidEntry) {
			t.Errorf("%s: err = %v, want ErrInvalidEntry", name, err)
		}
	}
}

func TestStoreHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for name, s := range stores(t) {
		if _, err := s.Save(ctx, entry("x")); !errors.Is(err, context.Canceled) {
			t.Errorf("%s: err = %v", name, err)
		}
	}
}

func TestFilePersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.json")
	f := NewFile(path)
	f.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	saved, err := f.Save(ctx, entry("receipt"))
	if err != nil {
		t.Fatal(err)
	}

	list, err := NewFile(path).List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != saved.ID || !list[0].CreatedAt.Equal(saved.CreatedAt) {
		t.Errorf("reloaded = %+v, want %+v", list, saved)
	}
}

func TestFileCorruptReadsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	list, err := NewFile(path).List(context.Background())
	if err != nil || len(list) != 0 {
		t.Errorf("List = %v, %v", titles(list), err)
	}
}

func titles(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Title
	}
	return out
}
