package inventory

import (
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/meur/wftracker/internal/models"
	"github.com/xuri/excelize/v2"
)

// ExportFileName is the suggested download name for JSON backups
const ExportFileName = "wf-tracker-backup.json"

// SpreadsheetFileName is the suggested download name for XLSX exports
const SpreadsheetFileName = "wf-tracker.xlsx"

var spreadsheetHeaders = []string{
	"id", "name", "category", "prime", "status", "owned", "mastered",
	"duplicates", "components_owned", "components_total", "progress", "missing", "notes",
}

// WriteSpreadsheet writes one row per item to w as an XLSX workbook
func WriteSpreadsheet(w io.Writer, items []models.UserItem) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	for i, h := range spreadsheetHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, item := range items {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(1, string(item.ID))
		set(2, item.Name)
		set(3, string(item.Category))
		set(4, item.IsPrime)
		set(5, item.Status.Label())
		set(6, item.Owned)
		set(7, item.Mastered)
		set(8, item.Duplicates)
		set(9, item.OwnedComponents())
		set(10, len(item.Components))
		set(11, models.RoundProgress(item.Progress()))
		set(12, missingComponents(item))
		set(13, item.Notes)
	}

	if _, err := f.WriteTo(w); err != nil {
		return errors.Wrap(err, "failed to write spreadsheet")
	}
	return nil
}

func missingComponents(item models.UserItem) string {
	var names []string
	for _, c := range item.Components {
		if !c.Owned {
			names = append(names, c.Name)
		}
	}
	return strings.Join(names, ", ")
}
