// Package history keeps a local, newest-first list of recognitions.
//
// Two implementations are provided: Memory for tests and short-lived
// processes, and File which persists the list as a JSON document.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gardar/docscan/pkg/ocr"
	"github.com/gardar/docscan/pkg/segment"
)

// ErrInvalidEntry is returned by Save for an entry without text.
var ErrInvalidEntry = errors.New("history: entry has no text")

// Entry is one saved recognition with its words.
type Entry struct {
	ID             uuid.UUID         `json:"id"`
	CreatedAt      time.Time         `json:"createdAt"`
	Title          string            `json:"title"`
	ScannedFound   bool              `json:"scannedFound"`
	DocType        string            `json:"docType"`
	MeanConfidence int               `json:"meanConfidence"`
	RawText        string            `json:"rawText"`
	Sections       []segment.Section `json:"sections"`
	Words          []ocr.Word        `json:"words"`
}

// Store is a newest-first list of entries.
type Store interface {
	// Save assigns the entry an id and creation time and puts it first.
	Save(ctx context.Context, e Entry) (Entry, error)
	List(ctx context.Context) ([]Entry, error)
	Clear(ctx context.Context) error
}

// stamp validates e and fills the generated fields.
func stamp(e Entry, now time.Time) (Entry, error) {
	if strings.TrimSpace(e.RawText) == "" {
		return Entry{}, ErrInvalidEntry
	}
	e.ID = uuid.New()
	e.CreatedAt = now.UTC()
	return e, nil
}

// Memory is an in-process Store.
type Memory struct {
	mu      sync.Mutex
	entries []Entry
	now     func() time.Time
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{now: time.Now}
}

func (m *Memory) Save(ctx context.Context, e Entry) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	e, err := stamp(e, m.now())
	if err != nil {
		return Entry{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append([]Entry{e}, m.entries...)
	return e, nil
}

func (m *Memory) List(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry{}, m.entries...), nil
}

func (m *Memory) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
	return nil
}

// File is a Store backed by a JSON file. A missing or unreadable file reads
// as an empty history, as does a file that fails to decode.
type File struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// NewFile returns a File store at path. The file is created on first write.
func NewFile(path string) *File {
	return &File{path: path, now: time.Now}
}

// Path returns the backing file.
func (f *File) Path() string { return f.path }

func (f *File) Save(ctx context.Context, e Entry) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	e, err := stamp(e, f.now())
	if err != nil {
		return Entry{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	entries := f.load()
	if err := f.write(append([]Entry{e}, entries...)); err != nil {
		return Entry{}, err
	}
	return e, nil
}

func (f *File) List(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load(), nil
}

func (f *File) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.write([]Entry{})
}

func (f *File) load() []Entry {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return []Entry{}
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil || entries == nil {
		return []Entry{}
	}
	return entries
}

// write replaces the file through a temporary sibling and a rename.
func (f *File) write(entries []Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("history: encode: %w", err)
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("history: create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".history-*.json")
	if err != nil {
		return fmt.Errorf("history: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("history: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("history: write: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("history: replace %s: %w", f.path, err)
	}
	return nil
}
