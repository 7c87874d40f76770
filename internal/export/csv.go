package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/hal2001/BatchGetSymbols/internal/contracts"
)

// WriteControlCSV writes one line per control record
func WriteControlCSV(w io.Writer, records []contracts.ControlRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(controlHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, rec := range records {
		if err := cw.Write(controlRecord(rec)); err != nil {
			return fmt.Errorf("write %s: %w", rec.Ticker, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WritePanelCSV writes the long panel; missing values are empty cells
func WritePanelCSV(w io.Writer, rows []contracts.PriceObservation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(panelHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		line := []string{row.Ticker, formatDate(row.RefDate)}
		for _, v := range panelValues(row) {
			line = append(line, formatFloat(v))
		}
		if err := cw.Write(line); err != nil {
			return fmt.Errorf("write %s: %w", row.Ticker, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(contracts.DateLayout)
}
