package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hal2001/BatchGetSymbols/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// every command prints through these helpers
// ═══════════════════════════════════════════════════════════

// out is where command output goes; tests swap it
var out io.Writer = os.Stdout

// RunMetadata describes a batch run for the header
type RunMetadata struct {
	Title     string
	Tickers   int
	FirstDate string
	LastDate  string
	Bench     string
	Mode      string // sequential, parallel
}

// PrintRunHeader prints a formatted run header
func PrintRunHeader(meta RunMetadata) {
	fmt.Fprintln(out)
	PrintDoubleSeparator()
	fmt.Fprintf(out, "  %s\n", meta.Title)
	PrintSeparator()
	fmt.Fprintf(out, "  Tickers   : %d\n", meta.Tickers)
	fmt.Fprintf(out, "  Period    : %s ~ %s\n", meta.FirstDate, meta.LastDate)
	fmt.Fprintf(out, "  Benchmark : %s\n", meta.Bench)
	if meta.Mode != "" {
		fmt.Fprintf(out, "  Mode      : %s\n", meta.Mode)
	}
	PrintSeparator()
}

// PrintControlTable prints one line per control record
func PrintControlTable(records []contracts.ControlRecord) {
	columns := []string{"TICKER", "SOURCE", "OBS", "COVERAGE", "DECISION", "STATUS", "ERROR"}
	widths := []int{12, 7, 6, 9, 8, 7, 0}
	PrintTableHeader(columns, widths)

	for _, rec := range records {
		PrintTableRow([]string{
			rec.Ticker,
			rec.Source.String(),
			fmt.Sprintf("%d", rec.TotalObs),
			formatCoverage(rec.Coverage),
			string(rec.Decision),
			rec.DownloadStatus,
			rec.Error,
		}, widths)
	}
}

// PrintRunSummary prints the kept/dropped totals of a result
func PrintRunSummary(res *contracts.Result, seconds float64) {
	kept := len(res.KeptTickers())
	fmt.Fprintln(out)
	fmt.Fprintf(out, "✅ Run %s completed in %.2fs: %d/%d tickers kept, %d panel rows\n",
		res.RunID, seconds, kept, len(res.Control), len(res.Panel))
	if dropped := len(res.Control) - kept; dropped > 0 {
		PrintWarning(fmt.Sprintf("%d tickers dropped by the quality screen", dropped))
	}
}

func formatCoverage(c float64) string {
	return fmt.Sprintf("%.1f%%", c*100)
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Fprintln(out, "───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Fprintln(out, "═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Fprintf(out, "⚠️  %s\n", message)
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Fprintf(out, "✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Fprintf(out, "❌ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Fprintf(out, "ℹ️  %s\n", message)
}

// PrintTableHeader prints a table header
// A zero width leaves the column unpadded.
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	totalWidth := 0
	for i, width := range widths {
		if width == 0 {
			width = len(columns[i])
		}
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Fprintln(out, strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	var b strings.Builder
	for i, val := range values {
		fmt.Fprintf(&b, "%-*s", widths[i], val)
		if i < len(values)-1 {
			b.WriteString("  ")
		}
	}
	fmt.Fprintln(out, strings.TrimRight(b.String(), " "))
}

// PrintList prints a bulleted list
func PrintList(items []string) {
	for _, item := range items {
		fmt.Fprintf(out, "   • %s\n", item)
	}
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Fprintf(out, "   %-*s : %s\n", keyWidth, key, value)
}
