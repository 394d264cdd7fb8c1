package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/semsim/internal/models"
)

// ExportFormat is the file format for exported groups.
type ExportFormat string

const (
	ExportXLSX ExportFormat = "xlsx"
	ExportJSON ExportFormat = "json"
)

const (
	groupsSheet  = "Groups"
	summarySheet = "Summary"
)

// ParseExportFormat maps a --format flag value, or a file extension, to a format.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))); f {
	case ExportXLSX, ExportJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown export format %q; use xlsx or json", s)
	}
}

type exportedGroup struct {
	Group int      `json:"group"`
	Count int      `json:"count"`
	Valid bool     `json:"valid"`
	Items []string `json:"items"`
}

// ExportGroups writes groups to w. XLSX output has one row per item on the
// Groups sheet and one row per group on the Summary sheet.
func ExportGroups(w io.Writer, groups []models.SimilarityGroup, format ExportFormat) error {
	switch format {
	case ExportJSON:
		out := make([]exportedGroup, 0, len(groups))
		for i, g := range groups {
			out = append(out, exportedGroup{Group: i + 1, Count: g.Count(), Valid: g.Valid, Items: g.Texts()})
		}
		return writeJSON(w, out)
	case ExportXLSX:
		return exportXLSX(w, groups)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

func exportXLSX(w io.Writer, groups []models.SimilarityGroup) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", groupsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}

	if err := f.SetSheetRow(groupsSheet, "A1", &[]any{"Group", "Item", "Text"}); err != nil {
		return err
	}
	if err := f.SetSheetRow(summarySheet, "A1", &[]any{"Group", "Items", "Valid"}); err != nil {
		return err
	}

	row := 2
	for i, g := range groups {
		for j, text := range g.Texts() {
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(groupsSheet, cell, &[]any{i + 1, j + 1, text}); err != nil {
				return fmt.Errorf("write group %d item %d: %w", i+1, j+1, err)
			}
			row++
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &[]any{i + 1, g.Count(), g.Valid}); err != nil {
			return fmt.Errorf("write summary for group %d: %w", i+1, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
