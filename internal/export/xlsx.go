package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding exported samples.
const SheetName = "Samples"

// WriteXLSX writes records as a single-sheet workbook with a bold header
// row and the same columns as the CSV export.
func WriteXLSX(w io.Writer, records []Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	cols := Header(records)
	if len(cols) == 0 {
		_, err := f.WriteTo(w)
		return err
	}

	boldStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for i, h := range cols {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(SheetName, cell, h)
		f.SetCellStyle(SheetName, cell, cell, boldStyle)

		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(SheetName, col, col, 18)
	}

	for r, rec := range records {
		for c, key := range cols {
			v, _ := rec.Get(key)
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(SheetName, cell, cellValue(v)); err != nil {
				return fmt.Errorf("write %s: %w", cell, err)
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func cellValue(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return ""
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if fl, err := val.Float64(); err == nil {
			return fl
		}
		return val.String()
	default:
		return val
	}
}
