// Package export renders orders and the financial report as xlsx workbooks.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of an xlsx workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Sheet is one worksheet: a header row followed by data rows.
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]any
	// MoneyCols are zero-based column indexes rendered with two decimals.
	MoneyCols []int
}

// Write renders sheets into a workbook and streams it to w.
func Write(w io.Writer, sheets ...Sheet) error {
	if len(sheets) == 0 {
		return fmt.Errorf("export: no sheets")
	}
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	amount, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return err
	}

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.Name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			return err
		}
		if err := writeSheet(f, s, bold, amount); err != nil {
			return fmt.Errorf("export: sheet %s: %w", s.Name, err)
		}
	}
	return f.Write(w)
}

func writeSheet(f *excelize.File, s Sheet, bold, amount int) error {
	header := make([]any, len(s.Headers))
	for i, h := range s.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(s.Name, "A1", &header); err != nil {
		return err
	}
	if len(s.Headers) > 0 {
		last, err := excelize.CoordinatesToCellName(len(s.Headers), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(s.Name, "A1", last, bold); err != nil {
			return err
		}
		lastCol, _, err := excelize.SplitCellName(last)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(s.Name, "A", lastCol, 18); err != nil {
			return err
		}
	}

	for r, row := range s.Rows {
		values := make([]any, len(row))
		for c, v := range row {
			values[c] = cellValue(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(s.Name, cell, &values); err != nil {
			return err
		}
	}

	if len(s.Rows) > 0 {
		for _, col := range s.MoneyCols {
			top, err := excelize.CoordinatesToCellName(col+1, 2)
			if err != nil {
				return err
			}
			bottom, err := excelize.CoordinatesToCellName(col+1, len(s.Rows)+1)
			if err != nil {
				return err
			}
			if err := f.SetCellStyle(s.Name, top, bottom, amount); err != nil {
				return err
			}
		}
	}
	return nil
}

// cellValue converts domain values into types excelize stores natively.
func cellValue(v any) any {
	switch x := v.(type) {
	case decimal.Decimal:
		return x.InexactFloat64()
	case *string:
		if x == nil {
			return ""
		}
		return *x
	case time.Time:
		return x.Format("2006-01-02")
	default:
		return v
	}
}
