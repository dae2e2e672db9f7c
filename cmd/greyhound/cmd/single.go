package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/greyhound/config"
	"github.com/rustyeddy/greyhound/instrument"
	"github.com/rustyeddy/greyhound/internal/applog"
	"github.com/rustyeddy/greyhound/internal/id"
	"github.com/rustyeddy/greyhound/market"
	"github.com/rustyeddy/greyhound/sim"
	"github.com/rustyeddy/greyhound/strategies"
)

var singleCmd = &cobra.Command{
	Use:   "single",
	Short: "Backtest one symbol and print its trade log",
	Long: `Single runs the full pipeline for one symbol - load bars, generate the
signal, paper trade - then prints every logged trade plus the final P&L and
max drawdown.

Example:
  greyhound single -y spy -c config.yaml --strategy ema`,
	RunE: runSingle,
}

var (
	sgSymbol   string
	sgConfig   string
	sgStrategy string
	sgStart    string
	sgEnd      string
	sgLocale   string
)

func init() {
	rootCmd.AddCommand(singleCmd)

	singleCmd.Flags().StringVarP(&sgSymbol, "symbol", "y", "", "ticker symbol (required)")
	singleCmd.Flags().StringVarP(&sgConfig, "config", "c", "", "path to configuration file (required)")
	singleCmd.Flags().StringVarP(&sgStrategy, "strategy", "s", "ema", "strategy name (ema, macd)")
	singleCmd.Flags().StringVar(&sgStart, "start", "2014-01-01", "first date of the backtest range")
	singleCmd.Flags().StringVar(&sgEnd, "end", "2021-06-30", "last date of the backtest range")
	singleCmd.Flags().StringVar(&sgLocale, "locale", "en-US", "locale for currency output")

	singleCmd.MarkFlagRequired("symbol")
	singleCmd.MarkFlagRequired("config")
}

func runSingle(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(sgConfig)
	if err != nil {
		return err
	}

	log := applog.New("single", cfg.Logging.LogLevel).
		With().Str("run", id.New()).Logger()

	start, end, err := parseRange(sgStart, sgEnd)
	if err != nil {
		return err
	}

	src, err := market.OpenSource(cfg.DataSource)
	if err != nil {
		return err
	}
	defer src.Close()

	ctx := context.Background()
	in, err := instrument.New(ctx, src, sgSymbol, start, end, cfg.DataMap.ColumnName, log)
	if err != nil {
		return err
	}

	strat, err := strategies.New(sgStrategy, cfg, log)
	if err != nil {
		return err
	}
	if err := strategies.Generate(strat, in); err != nil {
		return err
	}
	if err := sim.NewEngine(in, cfg, log).Run(sgStrategy); err != nil {
		return err
	}

	for _, trade := range in.Trades() {
		fmt.Printf("%s  %6d @ %.3f\n",
			trade.Date.Format("2006-01-02"), trade.Shares, trade.Price)
	}

	pnl, err := in.PnL(time.Time{})
	if err != nil {
		return err
	}
	drawdown, err := in.MaxDrawdown(time.Time{})
	if err != nil {
		return err
	}

	pnlOut, err := formatCurrency(pnl, sgLocale)
	if err != nil {
		return err
	}
	ddOut, err := formatCurrency(drawdown, sgLocale)
	if err != nil {
		return err
	}
	fmt.Printf("%s pnl/max-draw: %s/%s\n", in.Symbol(), pnlOut, ddOut)
	return nil
}
