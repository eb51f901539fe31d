package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/gardar/docscan/pkg/history"
	"github.com/gardar/docscan/pkg/store"
)

const titleWidth = 48

func newTable(w io.Writer, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(header)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Title", WidthMax: titleWidth},
		{Name: "Confidence", Align: text.AlignRight},
	})
	return t
}

// searchDocuments prints the saved documents matching the filters.
func searchDocuments(ctx context.Context, w io.Writer, dbPath, query, from, to, docType string, limit int) error {
	q := store.Query{Text: query, DocType: docType, Limit: limit}
	var err error
	if q.From, err = store.ParseDay(from); err != nil {
		return err
	}
	if q.To, err = store.ParseDay(to); err != nil {
		return err
	}

	s, err := store.New(dbPath)
	if err != nil {
		return err
	}
	defer s.Close()

	records, err := s.Search(ctx, q)
	if err != nil {
		return err
	}

	t := newTable(w, table.Row{"ID", "Created", "Type", "Confidence", "Page", "Title"})
	for _, r := range records {
		t.AppendRow(table.Row{r.ID, r.CreatedAt.Local().Format(time.DateTime), r.DocType,
			fmt.Sprintf("%d%%", r.MeanConfidence), found(r.ScannedFound), r.Title})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", fmt.Sprintf("%d documents", len(records))})
	t.Render()
	return nil
}

// printHistory prints the local history, newest first.
func printHistory(ctx context.Context, w io.Writer, path string) error {
	entries, err := history.NewFile(path).List(ctx)
	if err != nil {
		return err
	}
	t := newTable(w, table.Row{"ID", "Created", "Type", "Confidence", "Page", "Title"})
	for _, e := range entries {
		t.AppendRow(table.Row{e.ID, e.CreatedAt.Local().Format(time.DateTime), e.DocType,
			fmt.Sprintf("%d%%", e.MeanConfidence), found(e.ScannedFound), e.Title})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", fmt.Sprintf("%d entries", len(entries))})
	t.Render()
	return nil
}

func found(ok bool) string {
	if ok {
		return "scanned"
	}
	return "original"
}
