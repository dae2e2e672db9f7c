// Package portfolio composes a basket of instruments sharing one
// configuration, aggregates their per-instrument accounting, and distributes
// independent backtest pipelines across a bounded worker pool.
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rustyeddy/greyhound/config"
	"github.com/rustyeddy/greyhound/instrument"
	"github.com/rustyeddy/greyhound/market"
	"github.com/rustyeddy/greyhound/sim"
	"github.com/rustyeddy/greyhound/strategies"
)

// Portfolio maps normalized symbols to their instruments. The configuration
// is shared read-only; no other state crosses instruments.
type Portfolio struct {
	cfg         *config.Config
	instruments map[string]*instrument.Instrument
	log         zerolog.Logger
}

// New loads one instrument per symbol from src over [start, end].
func New(ctx context.Context, cfg *config.Config, src market.Source, symbols []string, start, end time.Time, log zerolog.Logger) (*Portfolio, error) {
	p := &Portfolio{
		cfg:         cfg,
		instruments: make(map[string]*instrument.Instrument, len(symbols)),
		log:         log,
	}

	for _, symbol := range symbols {
		symbol = strings.ToLower(strings.TrimSpace(symbol))
		if symbol == "" {
			continue
		}
		in, err := instrument.New(ctx, src, symbol, start, end, cfg.DataMap.ColumnName, log)
		if err != nil {
			return nil, fmt.Errorf("portfolio: %w", err)
		}
		p.instruments[symbol] = in
		log.Info().Str("symbol", symbol).Msg("added to portfolio")
	}
	return p, nil
}

// Tickers returns the sorted symbols held by the portfolio.
func (p *Portfolio) Tickers() []string {
	out := make([]string, 0, len(p.instruments))
	for sym := range p.instruments {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// Instrument returns the instrument for symbol.
func (p *Portfolio) Instrument(symbol string) (*instrument.Instrument, bool) {
	in, ok := p.instruments[strings.ToLower(symbol)]
	return in, ok
}

// HeldShareValues returns each instrument's held share value at date, keyed
// by symbol. A zero date means each instrument's own last date.
func (p *Portfolio) HeldShareValues(date time.Time) (map[string]float64, error) {
	return p.each(date, (*instrument.Instrument).HeldShareValue)
}

// CashPositions returns each instrument's cash position at date.
func (p *Portfolio) CashPositions(date time.Time) (map[string]float64, error) {
	return p.each(date, (*instrument.Instrument).CashPosition)
}

// MaxDrawdowns returns each instrument's max drawdown at date.
func (p *Portfolio) MaxDrawdowns(date time.Time) (map[string]float64, error) {
	return p.each(date, (*instrument.Instrument).MaxDrawdown)
}

func (p *Portfolio) each(date time.Time, query func(*instrument.Instrument, time.Time) (float64, error)) (map[string]float64, error) {
	out := make(map[string]float64, len(p.instruments))
	for sym, in := range p.instruments {
		v, err := query(in, date)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", sym, err)
		}
		out[sym] = v
	}
	return out, nil
}

// BasketPnL sums each instrument's profit and loss at its own last date.
// Purely additive; no correlation or netting.
func (p *Portfolio) BasketPnL() (float64, error) {
	var total float64
	for sym, in := range p.instruments {
		pnl, err := in.PnL(time.Time{})
		if err != nil {
			return 0, fmt.Errorf("%s: %w", sym, err)
		}
		total += pnl
	}
	return total, nil
}

type result struct {
	inst *instrument.Instrument
	err  error
}

// RunBacktests generates the named signal and runs the simulation loop for
// every instrument, spreading the work across min(workers, instruments)
// goroutines (workers <= 0 means GOMAXPROCS).
//
// Each instrument is owned by exactly one worker for its whole pipeline; the
// jobs and results channels are the only shared objects and carry ownership
// with the message. Failures are isolated per instrument and come back joined
// into one error after every instrument has reported; successful instruments
// are placed back into the map as results arrive.
func (p *Portfolio) RunBacktests(strategyName string, workers int) error {
	n := len(p.instruments)
	if n == 0 {
		return nil
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}

	jobs := make(chan *instrument.Instrument)
	results := make(chan result, n)

	for w := 0; w < workers; w++ {
		go func() {
			for in := range jobs {
				results <- result{inst: in, err: p.runOne(in, strategyName)}
			}
		}()
	}

	for _, in := range p.instruments {
		jobs <- in
	}
	close(jobs)

	var errs []error
	for i := 0; i < n; i++ {
		res := <-results
		if res.err != nil {
			p.log.Error().Err(res.err).Str("symbol", res.inst.Symbol()).Msg("backtest failed")
			errs = append(errs, fmt.Errorf("%s: %w", res.inst.Symbol(), res.err))
			continue
		}
		p.instruments[res.inst.Symbol()] = res.inst
	}
	return errors.Join(errs...)
}

// runOne is the full single-instrument pipeline: build the strategy, write
// its signal onto the instrument, then run the simulation loop.
func (p *Portfolio) runOne(in *instrument.Instrument, strategyName string) error {
	strat, err := strategies.New(strategyName, p.cfg, p.log)
	if err != nil {
		return err
	}
	if err := strategies.Generate(strat, in); err != nil {
		return err
	}
	return sim.NewEngine(in, p.cfg, p.log).Run(strategyName)
}
