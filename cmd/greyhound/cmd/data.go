package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/greyhound/market"
)

var dataCmd = &cobra.Command{
	Use:   "data",
	Short: "Manage the local daily bar store",
}

var dataImportCmd = &cobra.Command{
	Use:   "import [symbols...]",
	Short: "Import CSV bar files into a SQLite bar store",
	Long: `Import reads <csv-dir>/<symbol>.csv files (date,open,high,low,close,volume)
and writes their bars into the SQLite store. With no symbols given, every
.csv file in the directory is imported.

Example:
  greyhound data import --csv-dir ./data --db bars.db spy nvda`,
	RunE: runDataImport,
}

var (
	diCSVDir string
	diDBPath string
)

func init() {
	rootCmd.AddCommand(dataCmd)
	dataCmd.AddCommand(dataImportCmd)

	dataImportCmd.Flags().StringVar(&diCSVDir, "csv-dir", "", "directory of <symbol>.csv bar files (required)")
	dataImportCmd.Flags().StringVar(&diDBPath, "db", "./bars.db", "path to the SQLite bar store")

	dataImportCmd.MarkFlagRequired("csv-dir")
}

func runDataImport(cmd *cobra.Command, args []string) error {
	symbols := args
	if len(symbols) == 0 {
		var err error
		symbols, err = csvSymbols(diCSVDir)
		if err != nil {
			return err
		}
	}

	store, err := market.NewSQLiteSource(diDBPath)
	if err != nil {
		return fmt.Errorf("open bar store: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	for _, symbol := range symbols {
		symbol = strings.ToLower(strings.TrimSpace(symbol))
		bars, err := readCSVBars(diCSVDir, symbol)
		if err != nil {
			return err
		}
		if err := store.InsertBars(ctx, symbol, bars); err != nil {
			return err
		}
		fmt.Printf("imported %d bars for %s\n", len(bars), symbol)
	}
	return nil
}

func csvSymbols(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read csv dir: %w", err)
	}
	var symbols []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".csv") {
			continue
		}
		symbols = append(symbols, strings.TrimSuffix(name, ".csv"))
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no .csv files in %s", dir)
	}
	return symbols, nil
}

func readCSVBars(dir, symbol string) ([]market.Bar, error) {
	path := filepath.Join(dir, symbol+".csv")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	bars, err := market.ReadBars(f, time.Time{}, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return bars, nil
}
