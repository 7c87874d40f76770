package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hal2001/BatchGetSymbols/internal/contracts"
)

// sourcesCmd represents the sources command
var sourcesCmd = &cobra.Command{
	Use:   "sources [tickers...]",
	Short: "Show which source each ticker downloads from",
	Long: `Classifies tickers by naming convention without touching the network.

  contains '_'     → google (retired, rejected by run)
  six digits       → naver  (KRX codes)
  anything else    → yahoo

Example:
  go run ./cmd/bgs sources AAPL 005930 BVMF_PETR4 ^GSPC
  go run ./cmd/bgs sources --source naver 005930 AAPL 000660`,
	RunE: runSources,
}

var sourcesOnly string

func init() {
	rootCmd.AddCommand(sourcesCmd)

	sourcesCmd.Flags().StringVar(&sourcesOnly, "source", "", "only list tickers routed to this source")
}

func runSources(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(out, "Known sources:")
		for _, src := range contracts.Sources {
			status := "active"
			if src.Deprecated() {
				status = "deprecated"
			}
			PrintKeyValue(src.String(), status, 8)
		}
		return nil
	}

	var only contracts.Source
	if sourcesOnly != "" {
		src, err := contracts.ParseSource(sourcesOnly)
		if err != nil {
			return err
		}
		only = src
	}

	widths := []int{14, 8, 0}
	PrintTableHeader([]string{"Ticker", "Source", "Status"}, widths)
	for _, ticker := range args {
		src := contracts.ClassifySource(ticker)
		if only != "" && src != only {
			continue
		}
		status := "ok"
		if src.Deprecated() {
			status = "deprecated"
		}
		PrintTableRow([]string{ticker, src.String(), status}, widths)
	}

	return nil
}
