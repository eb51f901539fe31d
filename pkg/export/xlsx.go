package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Sheet names of the workbook written by XLSX.
const (
	SummarySheet = "Summary"
	LinesSheet   = "Lines"
)

// XLSX renders doc as a workbook. The Summary sheet holds the title, type,
// confidence and one row per section; the Lines sheet holds one row per
// content line tagged with its section.
func XLSX(doc Document) ([]byte, error) {
	doc = doc.withDefaults()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	if _, err := f.NewSheet(LinesSheet); err != nil {
		return nil, fmt.Errorf("failed to add sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create style: %w", err)
	}

	rows := [][]interface{}{
		{"Title", doc.Title},
		{"Document Type", doc.DocType},
		{"Confidence", doc.MeanConfidence},
		{},
		{"Heading", "Content"},
	}
	for _, s := range doc.Sections {
		rows = append(rows, []interface{}{s.Heading, s.Content})
	}
	if err := setRows(f, SummarySheet, rows); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(SummarySheet, "A1", "A3", bold); err != nil {
		return nil, fmt.Errorf("failed to style cells: %w", err)
	}
	if err := f.SetCellStyle(SummarySheet, "A5", "B5", bold); err != nil {
		return nil, fmt.Errorf("failed to style cells: %w", err)
	}
	if err := f.SetColWidth(SummarySheet, "A", "A", 24); err != nil {
		return nil, fmt.Errorf("failed to size columns: %w", err)
	}
	if err := f.SetColWidth(SummarySheet, "B", "B", 80); err != nil {
		return nil, fmt.Errorf("failed to size columns: %w", err)
	}

	lines := [][]interface{}{{"Section", "Line"}}
	for _, s := range doc.Sections {
		for _, l := range strings.Split(s.Content, "\n") {
			if l != "" {
				lines = append(lines, []interface{}{s.Heading, l})
			}
		}
	}
	if err := setRows(f, LinesSheet, lines); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(LinesSheet, "A1", "B1", bold); err != nil {
		return nil, fmt.Errorf("failed to style cells: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to generate XLSX: %w", err)
	}
	return buf.Bytes(), nil
}

func setRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
