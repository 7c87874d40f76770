package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hal2001/BatchGetSymbols/internal/universe"
	"github.com/hal2001/BatchGetSymbols/pkg/httputil"
	"github.com/hal2001/BatchGetSymbols/pkg/logger"
)

// universeCmd represents the universe command
var universeCmd = &cobra.Command{
	Use:   "universe [sp500|ftse100]",
	Short: "Print the current members of an index",
	Long: `Scrapes the index composition table from Wikipedia.

Example:
  go run ./cmd/bgs universe sp500
  go run ./cmd/bgs universe ftse100 --tickers-only`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{universe.IndexSP500, universe.IndexFTSE100},
	RunE:      runUniverse,
}

var (
	universeTickersOnly bool
)

func init() {
	rootCmd.AddCommand(universeCmd)

	// Flags
	universeCmd.Flags().BoolVar(&universeTickersOnly, "tickers-only", false, "print tickers separated by spaces")
}

func runUniverse(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.New(cfg)

	client := universe.NewClient(httputil.New(cfg, log), log, "")
	members, err := client.Fetch(context.Background(), args[0])
	if err != nil {
		return err
	}

	if universeTickersOnly {
		fmt.Fprintln(out, strings.Join(universe.Tickers(members), " "))
		return nil
	}

	widths := []int{10, 40, 0}
	PrintTableHeader([]string{"Ticker", "Company", "Sector"}, widths)
	for _, m := range members {
		PrintTableRow([]string{m.Ticker, m.Company, m.Sector}, widths)
	}
	PrintSeparator()
	fmt.Fprintf(out, "  %d members\n", len(members))

	return nil
}
