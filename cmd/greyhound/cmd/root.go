package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "greyhound",
	Short: "A daily-bar strategy backtester with risk-bounded position sizing",
	Long: `Greyhound simulates simple trading strategies against historical daily
price series and reports realized profit/loss under a risk-bounded
position-sizing rule.

It provides tools for:
  - Backtesting a basket of tickers in parallel
  - Running a single symbol end-to-end with a full trade log
  - Importing daily bar data into a local SQLite store
  - Moving-average and convergence/divergence signal generation`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
