// Package export writes batch results to CSV, XLSX and JSON files.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/hal2001/BatchGetSymbols/internal/contracts"
)

// Output formats
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatJSON = "json"
)

var controlHeader = []string{
	"ticker", "source", "first_date", "last_date", "total_obs", "coverage",
	"threshold", "decision", "download_status", "error",
}

var panelHeader = []string{
	"ticker", "ref_date", "price_open", "price_high", "price_low", "price_close",
	"price_adjusted", "volume", "return_adjusted", "return_closing",
}

// Options controls WriteFiles
type Options struct {
	Dir        string
	Prefix     string   // file name stem, e.g. the job id
	Formats    []string // csv, xlsx, json
	WideColumn string   // xlsx only; empty skips the wide sheet
}

// WriteFiles writes res in every requested format and returns the created paths
func WriteFiles(res *contracts.Result, opts Options) ([]string, error) {
	if res == nil {
		return nil, fmt.Errorf("export: nil result")
	}
	if opts.Prefix == "" {
		opts.Prefix = res.RunID
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	var paths []string
	for _, format := range opts.Formats {
		switch format {
		case FormatCSV:
			control := filepath.Join(opts.Dir, opts.Prefix+"_control.csv")
			if err := writeFile(control, func(w io.Writer) error { return WriteControlCSV(w, res.Control) }); err != nil {
				return paths, err
			}
			panel := filepath.Join(opts.Dir, opts.Prefix+"_panel.csv")
			if err := writeFile(panel, func(w io.Writer) error { return WritePanelCSV(w, res.Panel) }); err != nil {
				return paths, err
			}
			paths = append(paths, control, panel)
		case FormatXLSX:
			path := filepath.Join(opts.Dir, opts.Prefix+".xlsx")
			if err := writeFile(path, func(w io.Writer) error { return WriteXLSX(w, res, opts.WideColumn) }); err != nil {
				return paths, err
			}
			paths = append(paths, path)
		case FormatJSON:
			path := filepath.Join(opts.Dir, opts.Prefix+".json")
			if err := writeFile(path, func(w io.Writer) error { return WriteJSON(w, res) }); err != nil {
				return paths, err
			}
			paths = append(paths, path)
		default:
			return paths, fmt.Errorf("export: unknown format %q", format)
		}
	}
	return paths, nil
}

// WriteJSON writes the result as indented JSON
func WriteJSON(w io.Writer, res *contracts.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func controlRecord(rec contracts.ControlRecord) []string {
	return []string{
		rec.Ticker,
		rec.Source.String(),
		formatDate(rec.FirstDate),
		formatDate(rec.LastDate),
		strconv.Itoa(rec.TotalObs),
		strconv.FormatFloat(rec.Coverage, 'f', -1, 64),
		strconv.FormatFloat(rec.Threshold, 'f', -1, 64),
		string(rec.Decision),
		rec.DownloadStatus,
		rec.Error,
	}
}

func panelValues(row contracts.PriceObservation) []*float64 {
	return []*float64{
		row.PriceOpen, row.PriceHigh, row.PriceLow, row.PriceClose,
		row.PriceAdjusted, row.Volume, row.ReturnAdjusted, row.ReturnClosing,
	}
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
