// Package instrument owns the per-symbol price series, the chronological
// trade ledger, and the point-in-time accounting queries computed from it.
package instrument

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rustyeddy/greyhound/market"
)

// ErrDateNotInSeries is returned when a trade or accounting query names a
// date absent from the loaded price index.
var ErrDateNotInSeries = errors.New("date not in price series")

// Instrument holds historical OHLC data for one symbol alongside the trading
// state built on top of it: a date-aligned trade ledger and the signal series
// produced by strategies.
//
// The ledger has one row per series date, zero-initialized at construction.
// Rows are never deleted; LogTrade overwrites a row's trade fields. All
// accounting queries are prefix aggregates over the ledger, which is what
// makes repeated point-in-time look-backs cheap.
type Instrument struct {
	symbol  string
	series  *market.Series
	ledger  []TradeRow
	signals map[string][]float64
	log     zerolog.Logger
}

// TradeRow is one ledger row: the signed share delta traded on a date and the
// price it was traded at.
type TradeRow struct {
	Date   time.Time
	Shares int64
	Price  float64
}

// Cost returns the signed cash impact of the row: -Shares * Price.
func (r TradeRow) Cost() float64 {
	return -float64(r.Shares) * r.Price
}

// New constructs an Instrument by loading the symbol's bars from src, trimming
// them to [start, end], and zero-initializing the ledger over the trimmed
// range. priceCol names the trading price column.
func New(ctx context.Context, src market.Source, symbol string, start, end time.Time, priceCol string, log zerolog.Logger) (*Instrument, error) {
	symbol = strings.ToLower(strings.TrimSpace(symbol))

	bars, err := src.Bars(ctx, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", symbol, err)
	}

	series, err := market.NewSeries(bars, priceCol)
	if err != nil {
		return nil, fmt.Errorf("build series for %s: %w", symbol, err)
	}

	return FromSeries(symbol, series, log), nil
}

// FromSeries constructs an Instrument over an already-loaded series.
func FromSeries(symbol string, series *market.Series, log zerolog.Logger) *Instrument {
	symbol = strings.ToLower(strings.TrimSpace(symbol))
	in := &Instrument{
		symbol:  symbol,
		series:  series,
		ledger:  make([]TradeRow, series.Len()),
		signals: make(map[string][]float64),
		log:     log.With().Str("symbol", symbol).Logger(),
	}
	for i, d := range series.Dates() {
		in.ledger[i].Date = d
	}
	in.log.Debug().
		Str("start", series.Dates()[0].Format("2006-01-02")).
		Str("end", series.LastDate().Format("2006-01-02")).
		Int("days", series.Len()).
		Msg("instrument loaded")
	return in
}

// Symbol returns the normalized (lower-case) symbol.
func (in *Instrument) Symbol() string { return in.symbol }

// Series returns the instrument's price series.
func (in *Instrument) Series() *market.Series { return in.series }

// Price returns the trading price at date (configured price column). A zero
// date means the last date in the series.
func (in *Instrument) Price(date time.Time) (float64, error) {
	i, err := in.at(date)
	if err != nil {
		return 0, err
	}
	return in.series.Price(in.ledger[i].Date)
}

// PriceAt returns the value of column col at date.
func (in *Instrument) PriceAt(date time.Time, col string) (float64, error) {
	i, err := in.at(date)
	if err != nil {
		return 0, err
	}
	return in.series.PriceAt(in.ledger[i].Date, col)
}

// SetSignal stores a signal series under name. The series must be aligned to
// the price index.
func (in *Instrument) SetSignal(name string, signal []float64) error {
	if len(signal) != in.series.Len() {
		return fmt.Errorf("signal %q has %d values for %d dates", name, len(signal), in.series.Len())
	}
	in.signals[name] = signal
	return nil
}

// Signal returns the signal series stored under name.
func (in *Instrument) Signal(name string) ([]float64, bool) {
	s, ok := in.signals[name]
	return s, ok
}

// at resolves a query date to a ledger position. A zero date means the last
// date in the series.
func (in *Instrument) at(date time.Time) (int, error) {
	if date.IsZero() {
		return len(in.ledger) - 1, nil
	}
	i, ok := in.series.Index(date)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrDateNotInSeries, market.Day(date).Format("2006-01-02"))
	}
	return i, nil
}

// LogTrade records a signed share delta at date. The cash impact is derived
// as -shares * price. A second call for the same date replaces the prior
// trade, it does not accumulate.
func (in *Instrument) LogTrade(date time.Time, shares int64, price float64) error {
	if date.IsZero() {
		return fmt.Errorf("%w: zero trade date", ErrDateNotInSeries)
	}
	i, ok := in.series.Index(date)
	if !ok {
		return fmt.Errorf("%w: %s", ErrDateNotInSeries, market.Day(date).Format("2006-01-02"))
	}
	in.ledger[i].Shares = shares
	in.ledger[i].Price = price
	in.log.Debug().
		Str("date", in.ledger[i].Date.Format("2006-01-02")).
		Int64("shares", shares).
		Float64("price", price).
		Msg("trade logged")
	return nil
}

// HeldShares returns the cumulative share position at date: the sum of all
// share deltas logged for dates up to and including date.
func (in *Instrument) HeldShares(date time.Time) (int64, error) {
	i, err := in.at(date)
	if err != nil {
		return 0, err
	}
	var shares int64
	for _, row := range in.ledger[:i+1] {
		shares += row.Shares
	}
	return shares, nil
}

// HeldShareValue returns the dollar value of the held position at date,
// priced from the configured trading column.
func (in *Instrument) HeldShareValue(date time.Time) (float64, error) {
	return in.HeldShareValueAt(date, in.series.PriceColumn())
}

// HeldShareValueAt returns the held position value at date priced from col.
func (in *Instrument) HeldShareValueAt(date time.Time, col string) (float64, error) {
	i, err := in.at(date)
	if err != nil {
		return 0, err
	}
	shares, err := in.HeldShares(in.ledger[i].Date)
	if err != nil {
		return 0, err
	}
	price, err := in.series.PriceAt(in.ledger[i].Date, col)
	if err != nil {
		return 0, err
	}
	return float64(shares) * price, nil
}

// CashPosition returns the cumulative cash impact of all trades up to and
// including date. Buying costs cash (negative), selling returns it.
func (in *Instrument) CashPosition(date time.Time) (float64, error) {
	i, err := in.at(date)
	if err != nil {
		return 0, err
	}
	var cash float64
	for _, row := range in.ledger[:i+1] {
		cash += row.Cost()
	}
	return cash, nil
}

// MaxDrawdown returns the worst (most negative) cumulative cash position
// observed on any date up to and including date.
func (in *Instrument) MaxDrawdown(date time.Time) (float64, error) {
	i, err := in.at(date)
	if err != nil {
		return 0, err
	}
	var cash, worst float64
	for _, row := range in.ledger[:i+1] {
		cash += row.Cost()
		if cash < worst {
			worst = cash
		}
	}
	return worst, nil
}

// PnL returns held share value plus cash position at date.
func (in *Instrument) PnL(date time.Time) (float64, error) {
	i, err := in.at(date)
	if err != nil {
		return 0, err
	}
	d := in.ledger[i].Date
	value, err := in.HeldShareValue(d)
	if err != nil {
		return 0, err
	}
	cash, err := in.CashPosition(d)
	if err != nil {
		return 0, err
	}
	return value + cash, nil
}

// Ledger returns a copy of every ledger row in date order, including the
// zero rows for dates with no trade.
func (in *Instrument) Ledger() []TradeRow {
	out := make([]TradeRow, len(in.ledger))
	copy(out, in.ledger)
	return out
}

// Trades returns a copy of the ledger rows with nonzero shares, in date order.
func (in *Instrument) Trades() []TradeRow {
	var out []TradeRow
	for _, row := range in.ledger {
		if row.Shares != 0 {
			out = append(out, row)
		}
	}
	return out
}
