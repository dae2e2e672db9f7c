package market

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

var (
	ErrNoData         = errors.New("no data for symbol in range")
	ErrColumnNotFound = errors.New("column not found")
	ErrDateNotFound   = errors.New("date not in series")
)

// Series is a dense, date-ascending table of daily bars for one symbol plus a
// derived percent-change column over the configured trading price column.
//
// The table is immutable after construction except for Trim, which returns a
// new Series sharing no mutable state with the original.
type Series struct {
	dates []time.Time
	open  []float64
	high  []float64
	low   []float64
	close []float64
	vol   []float64
	pct   []float64

	priceCol string
	index    map[time.Time]int
}

// NewSeries builds a Series from bars, sorted ascending by date. priceCol
// names the trading price column (data_map.column_name) used for the derived
// percent-change column; empty defaults to close.
func NewSeries(bars []Bar, priceCol string) (*Series, error) {
	if len(bars) == 0 {
		return nil, ErrNoData
	}
	if priceCol == "" {
		priceCol = ColClose
	}

	sorted := make([]Bar, len(bars))
	copy(sorted, bars)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	s := &Series{
		dates:    make([]time.Time, len(sorted)),
		open:     make([]float64, len(sorted)),
		high:     make([]float64, len(sorted)),
		low:      make([]float64, len(sorted)),
		close:    make([]float64, len(sorted)),
		vol:      make([]float64, len(sorted)),
		priceCol: priceCol,
		index:    make(map[time.Time]int, len(sorted)),
	}
	for i, b := range sorted {
		d := Day(b.Date)
		if _, dup := s.index[d]; dup {
			return nil, fmt.Errorf("duplicate bar for %s", d.Format("2006-01-02"))
		}
		s.dates[i] = d
		s.open[i] = b.Open
		s.high[i] = b.High
		s.low[i] = b.Low
		s.close[i] = b.Close
		s.vol[i] = b.Volume
		s.index[d] = i
	}

	px, err := s.Column(priceCol)
	if err != nil {
		return nil, fmt.Errorf("price column %q: %w", priceCol, err)
	}
	s.pct = pctChange(px)
	return s, nil
}

// pctChange returns the day-over-day percent change; the first element is NaN.
func pctChange(xs []float64) []float64 {
	out := make([]float64, len(xs))
	out[0] = math.NaN()
	for i := 1; i < len(xs); i++ {
		if xs[i-1] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = xs[i]/xs[i-1] - 1
	}
	return out
}

// Trim returns a new Series restricted to dates within [start, end]
// inclusive. A zero start or end leaves that side unbounded.
func (s *Series) Trim(start, end time.Time) (*Series, error) {
	var bars []Bar
	for i, d := range s.dates {
		if !start.IsZero() && d.Before(Day(start)) {
			continue
		}
		if !end.IsZero() && d.After(Day(end)) {
			continue
		}
		bars = append(bars, s.Bar(i))
	}
	if len(bars) == 0 {
		return nil, ErrNoData
	}
	return NewSeries(bars, s.priceCol)
}

// Len returns the number of dates in the series.
func (s *Series) Len() int { return len(s.dates) }

// Dates returns the ascending date index. Callers must not modify it.
func (s *Series) Dates() []time.Time { return s.dates }

// Index returns the position of date in the series.
func (s *Series) Index(date time.Time) (int, bool) {
	i, ok := s.index[Day(date)]
	return i, ok
}

// LastDate returns the final date in the series.
func (s *Series) LastDate() time.Time { return s.dates[len(s.dates)-1] }

// Bar reconstructs the bar at position i.
func (s *Series) Bar(i int) Bar {
	return Bar{
		Date:   s.dates[i],
		Open:   s.open[i],
		High:   s.high[i],
		Low:    s.low[i],
		Close:  s.close[i],
		Volume: s.vol[i],
	}
}

// Column returns the named column aligned to the date index. Callers must not
// modify the returned slice.
func (s *Series) Column(name string) ([]float64, error) {
	switch name {
	case ColOpen:
		return s.open, nil
	case ColHigh:
		return s.high, nil
	case ColLow:
		return s.low, nil
	case ColClose:
		return s.close, nil
	case ColVolume:
		return s.vol, nil
	case ColPctChange:
		return s.pct, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
}

// PriceColumn returns the configured trading price column name.
func (s *Series) PriceColumn() string { return s.priceCol }

// Price returns the trading price at date, read from the configured column.
func (s *Series) Price(date time.Time) (float64, error) {
	return s.PriceAt(date, s.priceCol)
}

// PriceAt returns the value of column col at date.
func (s *Series) PriceAt(date time.Time, col string) (float64, error) {
	i, ok := s.Index(date)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrDateNotFound, Day(date).Format("2006-01-02"))
	}
	xs, err := s.Column(col)
	if err != nil {
		return 0, err
	}
	return xs[i], nil
}
