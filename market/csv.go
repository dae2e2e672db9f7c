package market

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// CSVSource reads daily bars from <dir>/<symbol>.csv files with the header
// date,open,high,low,close,volume.
type CSVSource struct {
	dir string
}

func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{dir: dir}
}

func (s *CSVSource) Bars(ctx context.Context, symbol string, start, end time.Time) ([]Bar, error) {
	path := filepath.Join(s.dir, strings.ToLower(symbol)+".csv")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bars for %s: %w", symbol, err)
	}
	defer f.Close()

	bars, err := ReadBars(f, start, end)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return bars, nil
}

func (s *CSVSource) Close() error { return nil }

// ReadBars parses bar rows from r, keeping only dates within [start, end]
// (zero bounds are unbounded). A leading header row is skipped.
func ReadBars(r io.Reader, start, end time.Time) ([]Bar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var bars []Bar
	first := true
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return bars, nil
		}
		if err != nil {
			return nil, err
		}
		if len(row) == 0 {
			continue
		}
		if first {
			first = false
			if strings.EqualFold(strings.TrimSpace(row[0]), "date") {
				continue
			}
		}

		bar, err := parseBarRow(row)
		if err != nil {
			return nil, err
		}
		if !start.IsZero() && bar.Date.Before(Day(start)) {
			continue
		}
		if !end.IsZero() && bar.Date.After(Day(end)) {
			continue
		}
		bars = append(bars, bar)
	}
}

func parseBarRow(row []string) (Bar, error) {
	if len(row) < 6 {
		return Bar{}, fmt.Errorf("bad row (need date,open,high,low,close,volume): %v", row)
	}

	date, err := ParseDay(strings.TrimSpace(row[0]))
	if err != nil {
		return Bar{}, fmt.Errorf("bad date %q: %w", row[0], err)
	}

	vals := make([]float64, 5)
	for i := 1; i < 6; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
		if err != nil {
			return Bar{}, fmt.Errorf("bad value %q: %w", row[i], err)
		}
		vals[i-1] = v
	}

	return Bar{
		Date:   date,
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}, nil
}
