package portfolio

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rustyeddy/greyhound/config"
	"github.com/rustyeddy/greyhound/market"
	"github.com/rustyeddy/greyhound/strategies"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memSource serves synthetic bars per symbol without touching disk.
type memSource struct {
	bars map[string][]market.Bar
}

func (m *memSource) Bars(_ context.Context, symbol string, start, end time.Time) ([]market.Bar, error) {
	bars, ok := m.bars[symbol]
	if !ok {
		return nil, fmt.Errorf("no bars for %q", symbol)
	}
	var out []market.Bar
	for _, b := range bars {
		if !start.IsZero() && b.Date.Before(start) {
			continue
		}
		if !end.IsZero() && b.Date.After(end) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (m *memSource) Close() error { return nil }

// syntheticBars generates days of oscillating closes around base, varied
// enough that the stock strategies emit trades.
func syntheticBars(base float64, days int) []market.Bar {
	start := time.Date(2015, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]market.Bar, days)
	for i := range bars {
		c := base + 8*math.Sin(float64(i)/4)
		bars[i] = market.Bar{
			Date: start.AddDate(0, 0, i), Open: c - 0.5, High: c + 1,
			Low: c - 1, Close: c, Volume: 1e6,
		}
	}
	return bars
}

func testSource() *memSource {
	return &memSource{bars: map[string][]market.Bar{
		"spy": syntheticBars(180, 60),
		"qqq": syntheticBars(95, 60),
		"iwm": syntheticBars(120, 60),
	}}
}

func testPortfolio(t *testing.T, symbols ...string) *Portfolio {
	t.Helper()
	p, err := New(context.Background(), config.Default(), testSource(),
		symbols, time.Time{}, time.Time{}, zerolog.Nop())
	require.NoError(t, err)
	return p
}

func TestNewNormalizesSymbols(t *testing.T) {
	p := testPortfolio(t, " SPY ", "qqq", "")

	assert.Equal(t, []string{"qqq", "spy"}, p.Tickers())

	in, ok := p.Instrument("SPY")
	require.True(t, ok)
	assert.Equal(t, "spy", in.Symbol())

	_, ok = p.Instrument("iwm")
	assert.False(t, ok)
}

func TestNewLoadFailure(t *testing.T) {
	_, err := New(context.Background(), config.Default(), testSource(),
		[]string{"spy", "nvda"}, time.Time{}, time.Time{}, zerolog.Nop())
	assert.Error(t, err)
}

func TestAggregatesKeyedBySymbol(t *testing.T) {
	p := testPortfolio(t, "spy", "qqq")

	spy, _ := p.Instrument("spy")
	d := spy.Series().Dates()[3]
	price, err := spy.Price(d)
	require.NoError(t, err)
	require.NoError(t, spy.LogTrade(d, 10, price))

	values, err := p.HeldShareValues(time.Time{})
	require.NoError(t, err)
	require.Len(t, values, 2)
	last, err := spy.Price(time.Time{})
	require.NoError(t, err)
	assert.InDelta(t, 10*last, values["spy"], 1e-9)
	assert.Zero(t, values["qqq"])

	cash, err := p.CashPositions(time.Time{})
	require.NoError(t, err)
	assert.InDelta(t, -10*price, cash["spy"], 1e-9)

	draws, err := p.MaxDrawdowns(time.Time{})
	require.NoError(t, err)
	assert.InDelta(t, -10*price, draws["spy"], 1e-9)
	assert.Zero(t, draws["qqq"])
}

func TestAggregatesBadDate(t *testing.T) {
	p := testPortfolio(t, "spy")
	_, err := p.HeldShareValues(time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Error(t, err)
}

func TestBasketPnLAdditive(t *testing.T) {
	p := testPortfolio(t, "spy", "qqq", "iwm")
	require.NoError(t, p.RunBacktests("ema", 1))

	var want float64
	for _, sym := range p.Tickers() {
		in, _ := p.Instrument(sym)
		pnl, err := in.PnL(time.Time{})
		require.NoError(t, err)
		want += pnl
	}

	got, err := p.BasketPnL()
	require.NoError(t, err)
	assert.InDelta(t, want, got, 1e-9)
}

// The pool spreads instruments over goroutines; results must not depend on
// worker count.
func TestRunBacktestsParallelMatchesSequential(t *testing.T) {
	seq := testPortfolio(t, "spy", "qqq", "iwm")
	par := testPortfolio(t, "spy", "qqq", "iwm")

	require.NoError(t, seq.RunBacktests("ema", 1))
	require.NoError(t, par.RunBacktests("ema", 4))

	for _, sym := range seq.Tickers() {
		a, _ := seq.Instrument(sym)
		b, _ := par.Instrument(sym)
		assert.Equal(t, a.Trades(), b.Trades(), sym)

		pa, err := a.PnL(time.Time{})
		require.NoError(t, err)
		pb, err := b.PnL(time.Time{})
		require.NoError(t, err)
		assert.InDelta(t, pa, pb, 1e-9, sym)
	}
}

func TestRunBacktestsUnknownStrategy(t *testing.T) {
	p := testPortfolio(t, "spy")
	assert.ErrorIs(t, p.RunBacktests("turtles", 1), strategies.ErrUnknownStrategy)
}

func TestRunBacktestsEmpty(t *testing.T) {
	p := testPortfolio(t)
	assert.NoError(t, p.RunBacktests("ema", 4))
}

// fragile errors on series whose first close carries the poison value, and
// otherwise emits an all-hold signal.
type fragile struct{}

var errPoisoned = errors.New("poisoned series")

func (fragile) Name() string { return "fragile" }

func (fragile) CreateFactors(s *market.Series) (strategies.Factors, error) {
	if s.Bar(0).Close == 666 {
		return nil, errPoisoned
	}
	return strategies.Factors{"flat": make([]float64, s.Len())}, nil
}

func (fragile) CreateSignal(f strategies.Factors) []float64 { return f["flat"] }

func init() {
	strategies.Register("fragile", func(*config.Config, zerolog.Logger) strategies.Strategy {
		return fragile{}
	})
}

func TestRunBacktestsIsolatesFailures(t *testing.T) {
	src := testSource()
	src.bars["bad"] = syntheticBars(666, 40)
	for i := range src.bars["bad"] {
		src.bars["bad"][i].Close = 666
	}

	p, err := New(context.Background(), config.Default(), src,
		[]string{"spy", "bad", "qqq"}, time.Time{}, time.Time{}, zerolog.Nop())
	require.NoError(t, err)

	err = p.RunBacktests("fragile", 2)
	require.ErrorIs(t, err, errPoisoned)
	assert.Contains(t, err.Error(), "bad")

	// The healthy instruments still completed their pipelines.
	for _, sym := range []string{"spy", "qqq"} {
		in, _ := p.Instrument(sym)
		_, ok := in.Signal("fragile")
		assert.True(t, ok, sym)
	}
}
