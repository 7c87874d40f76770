package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/hal2001/BatchGetSymbols/internal/contracts"
	"github.com/hal2001/BatchGetSymbols/internal/panel"
)

// Sheet names
const (
	SheetControl = "Control"
	SheetPanel   = "Panel"
	SheetWide    = "Wide"
)

// WriteXLSX writes a workbook with Control and Panel sheets
// A non-empty wideColumn adds a date × ticker sheet of that column.
func WriteXLSX(w io.Writer, res *contracts.Result, wideColumn string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetControl); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := setRow(f, SheetControl, 1, stringsToCells(controlHeader)); err != nil {
		return err
	}
	for i, rec := range res.Control {
		cells := []interface{}{
			rec.Ticker, rec.Source.String(), formatDate(rec.FirstDate), formatDate(rec.LastDate),
			rec.TotalObs, rec.Coverage, rec.Threshold, string(rec.Decision),
			rec.DownloadStatus, rec.Error,
		}
		if err := setRow(f, SheetControl, i+2, cells); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(SheetPanel); err != nil {
		return fmt.Errorf("create sheet %s: %w", SheetPanel, err)
	}
	if err := setRow(f, SheetPanel, 1, stringsToCells(panelHeader)); err != nil {
		return err
	}
	for i, row := range res.Panel {
		cells := []interface{}{row.Ticker, formatDate(row.RefDate)}
		for _, v := range panelValues(row) {
			cells = append(cells, cellValue(v))
		}
		if err := setRow(f, SheetPanel, i+2, cells); err != nil {
			return err
		}
	}

	if wideColumn != "" {
		if err := writeWide(f, panel.Wide(res.Panel, wideColumn)); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeWide(f *excelize.File, table panel.WideTable) error {
	if _, err := f.NewSheet(SheetWide); err != nil {
		return fmt.Errorf("create sheet %s: %w", SheetWide, err)
	}

	header := []interface{}{"ref_date"}
	for _, t := range table.Tickers {
		header = append(header, t)
	}
	if err := setRow(f, SheetWide, 1, header); err != nil {
		return err
	}

	for i, d := range table.Dates {
		cells := []interface{}{formatDate(d)}
		for _, v := range table.Values[i] {
			cells = append(cells, cellValue(v))
		}
		if err := setRow(f, SheetWide, i+2, cells); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

// cellValue unwraps a nullable so excelize leaves the cell blank
func cellValue(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func stringsToCells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
