// Package store persists recognized documents in SQLite and searches them.
//
// Records are searched by a case-insensitive substring of the title or raw
// text and by an inclusive range of whole creation days (UTC), newest first.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/gardar/docscan/pkg/segment"
)

var (
	// ErrInvalidRecord is returned by Save for blank raw text or nil sections.
	ErrInvalidRecord = errors.New("store: missing raw text or sections")
	// ErrNotFound is returned by Get for an unknown id.
	ErrNotFound = errors.New("store: document not found")
)

// Limits and defaults.
const (
	MaxTitleLen  = 120
	DefaultLimit = 50
	MaxLimit     = 200
	DefaultTitle = "Untitled"
	DefaultType  = "Other"
)

// timeLayout sorts lexically in chronological order.
const timeLayout = "2006-01-02T15:04:05.000Z"

// Record is one saved recognition.
type Record struct {
	ID             string            `json:"id"`
	Title          string            `json:"title"`
	RawText        string            `json:"rawText"`
	Sections       []segment.Section `json:"sections"`
	ScannedFound   bool              `json:"scannedFound"`
	DocType        string            `json:"docType"`
	MeanConfidence int               `json:"meanConfidence"`
	CreatedAt      time.Time         `json:"createdAt"`
}

// Query filters Search. Zero values leave a filter off.
type Query struct {
	Text    string    // substring of title or raw text
	From    time.Time // first day included (UTC date)
	To      time.Time // last day included (UTC date)
	DocType string
	Limit   int // DefaultLimit when 0, capped at MaxLimit
}

// Store wraps the SQLite database.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for migrations.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock replaces time.Now for creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New opens (or creates) a SQLite database at the given path and applies the
// schema and pending migrations.
func New(dbPath string, opts ...Option) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &Store{db: db, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save validates rec, assigns its id and creation time, and inserts it. The
// stored title is trimmed to MaxTitleLen runes.
func (s *Store) Save(ctx context.Context, rec Record) (Record, error) {
	if strings.TrimSpace(rec.RawText) == "" || rec.Sections == nil {
		return Record{}, ErrInvalidRecord
	}
	if strings.TrimSpace(rec.Title) == "" {
		rec.Title = DefaultTitle
	}
	if r := []rune(rec.Title); len(r) > MaxTitleLen {
		rec.Title = string(r[:MaxTitleLen])
	}
	if rec.DocType == "" {
		rec.DocType = DefaultType
	}
	rec.ID = uuid.NewString()
	rec.CreatedAt = s.now().UTC().Truncate(time.Millisecond)

	sections, err := json.Marshal(rec.Sections)
	if err != nil {
		return Record{}, fmt.Errorf("encoding sections: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (id, title, raw_text, sections, scanned_found, doc_type, mean_confidence, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Title, rec.RawText, string(sections), rec.ScannedFound, rec.DocType, rec.MeanConfidence,
		rec.CreatedAt.Format(timeLayout))
	if err != nil {
		return Record{}, fmt.Errorf("inserting document: %w", err)
	}
	return rec, nil
}

const selectColumns = `SELECT id, title, raw_text, sections, scanned_found, doc_type, mean_confidence, created_at FROM documents`

// Get returns the record with the given id.
func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec, err
}

// Search returns records matching q, newest first.
func (s *Store) Search(ctx context.Context, q Query) ([]Record, error) {
	var (
		where []string
		args  []interface{}
	)
	if text := strings.TrimSpace(q.Text); text != "" {
		pattern := "%" + escapeLike(text) + "%"
		where = append(where, `(title LIKE ? ESCAPE '\' OR raw_text LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	if !q.From.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, dayStart(q.From).Format(timeLayout))
	}
	if !q.To.IsZero() {
		where = append(where, "created_at <= ?")
		args = append(args, dayStart(q.To).Add(24*time.Hour-time.Millisecond).Format(timeLayout))
	}
	if q.DocType != "" {
		where = append(where, "doc_type = ?")
		args = append(args, q.DocType)
	}

	query := selectColumns
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC LIMIT ?"
	args = append(args, limitOf(q.Limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching documents: %w", err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ParseDay parses a YYYY-MM-DD date as a UTC day. An empty string yields the
// zero time.
func ParseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("store: invalid date %q: %w", s, err)
	}
	return t, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (Record, error) {
	var (
		rec       Record
		sections  string
		createdAt string
	)
	if err := row.Scan(&rec.ID, &rec.Title, &rec.RawText, &sections, &rec.ScannedFound,
		&rec.DocType, &rec.MeanConfidence, &createdAt); err != nil {
		return Record{}, err
	}
	if err := json.Unmarshal([]byte(sections), &rec.Sections); err != nil {
		return Record{}, fmt.Errorf("decoding sections of %s: %w", rec.ID, err)
	}
	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return Record{}, fmt.Errorf("decoding created_at of %s: %w", rec.ID, err)
	}
	rec.CreatedAt = t
	return rec, nil
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func limitOf(n int) int {
	switch {
	case n <= 0:
		return DefaultLimit
	case n > MaxLimit:
		return MaxLimit
	default:
		return n
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
