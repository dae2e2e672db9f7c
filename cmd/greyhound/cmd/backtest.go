package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rustyeddy/greyhound/config"
	"github.com/rustyeddy/greyhound/internal/applog"
	"github.com/rustyeddy/greyhound/internal/id"
	"github.com/rustyeddy/greyhound/market"
	"github.com/rustyeddy/greyhound/portfolio"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Backtest a basket of tickers and print the aggregate P&L",
	Long: `Backtest loads every ticker in the ticker-list file, generates the chosen
signal for each, runs the risk-bounded paper-trading loop, and prints the
aggregate basket P&L as localized currency.

Example:
  greyhound backtest -f tickers.txt -c config.yaml --strategy ema`,
	RunE: runBacktest,
}

var (
	btTickerFile string
	btConfig     string
	btStrategy   string
	btWorkers    int
	btStart      string
	btEnd        string
	btLocale     string
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVarP(&btTickerFile, "tickers", "f", "", "path to ticker-list file, one symbol per line (required)")
	backtestCmd.Flags().StringVarP(&btConfig, "config", "c", "", "path to configuration file (required)")
	backtestCmd.Flags().StringVarP(&btStrategy, "strategy", "s", "ema", "strategy name (ema, macd)")
	backtestCmd.Flags().IntVarP(&btWorkers, "workers", "w", 0, "worker pool size (0 = number of CPUs)")
	backtestCmd.Flags().StringVar(&btStart, "start", "2014-01-01", "first date of the backtest range")
	backtestCmd.Flags().StringVar(&btEnd, "end", "2021-06-30", "last date of the backtest range")
	backtestCmd.Flags().StringVar(&btLocale, "locale", "en-US", "locale for currency output")

	backtestCmd.MarkFlagRequired("tickers")
	backtestCmd.MarkFlagRequired("config")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(btConfig)
	if err != nil {
		return err
	}

	log := applog.New("backtest", cfg.Logging.LogLevel).
		With().Str("run", id.New()).Logger()

	symbols, err := readTickerFile(btTickerFile)
	if err != nil {
		return err
	}

	start, end, err := parseRange(btStart, btEnd)
	if err != nil {
		return err
	}

	src, err := market.OpenSource(cfg.DataSource)
	if err != nil {
		return err
	}
	defer src.Close()

	ctx := context.Background()
	pf, err := portfolio.New(ctx, cfg, src, symbols, start, end, log)
	if err != nil {
		return err
	}

	if err := pf.RunBacktests(btStrategy, btWorkers); err != nil {
		if len(pf.Tickers()) == 0 {
			return err
		}
		// Failed instruments are isolated; report and aggregate the rest.
		log.Warn().Err(err).Msg("some instruments failed")
	}

	pnl, err := pf.BasketPnL()
	if err != nil {
		return err
	}

	out, err := formatCurrency(pnl, btLocale)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

// readTickerFile reads one symbol per line, trimmed and lower-cased. Blank
// lines and #-comments are skipped.
func readTickerFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ticker file: %w", err)
	}
	defer f.Close()

	var symbols []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.ToLower(strings.TrimSpace(sc.Text()))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		symbols = append(symbols, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("ticker file %s contains no symbols", path)
	}
	return symbols, nil
}

func parseRange(start, end string) (time.Time, time.Time, error) {
	s, err := market.ParseDay(start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("bad start date %q: %w", start, err)
	}
	e, err := market.ParseDay(end)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("bad end date %q: %w", end, err)
	}
	if e.Before(s) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date %s before start date %s", end, start)
	}
	return s, e, nil
}

// formatCurrency renders amount as localized USD, e.g. "-$10,006.20".
func formatCurrency(amount float64, locale string) (string, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return "", fmt.Errorf("bad locale %q: %w", locale, err)
	}
	p := message.NewPrinter(tag)
	return p.Sprintf("%v", currency.NarrowSymbol(currency.USD.Amount(amount))), nil
}
