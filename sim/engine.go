// Package sim walks an instrument's dates in order, consults a named signal,
// performs risk-bounded order sizing, and posts trades to the ledger.
package sim

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"github.com/rustyeddy/greyhound/config"
	"github.com/rustyeddy/greyhound/instrument"
)

// ErrSignalNotFound is returned when Run names a signal the instrument does
// not carry.
var ErrSignalNotFound = errors.New("signal not found on instrument")

// Direction is the side of a risk check.
type Direction string

const (
	Buy  Direction = "buy"
	Sell Direction = "sell"
)

// Engine is the causal paper-trading loop for one instrument. The only state
// it reads between dates is the instrument's own ledger, so within one
// instrument the date ordering is load-bearing: later risk checks depend on
// earlier trades.
type Engine struct {
	inst         *instrument.Instrument
	riskLimit    float64
	buyBoundary  float64
	sellBoundary float64
	log          zerolog.Logger
}

func NewEngine(in *instrument.Instrument, cfg *config.Config, log zerolog.Logger) *Engine {
	return &Engine{
		inst:         in,
		riskLimit:    cfg.Strategy.MaxPositionRisk,
		buyBoundary:  cfg.Strategy.BuySignalBoundary,
		sellBoundary: cfg.Strategy.SellSignalBoundary,
		log:          log.With().Str("symbol", in.Symbol()).Logger(),
	}
}

// Run performs the paper trade: for each date in order, signal check -> risk
// check -> trade size -> log trade. Signals at or above the buy boundary buy,
// signals at or below the sell boundary liquidate, anything between (or NaN)
// holds. Zero-size trades are still logged as no-op rows.
func (e *Engine) Run(signalName string) error {
	sig, ok := e.inst.Signal(signalName)
	if !ok {
		return fmt.Errorf("%w: %q on %s", ErrSignalNotFound, signalName, e.inst.Symbol())
	}

	for i, date := range e.inst.Series().Dates() {
		v := sig[i]
		if math.IsNaN(v) {
			continue
		}

		var dir Direction
		switch {
		case v >= e.buyBoundary:
			dir = Buy
		case v <= e.sellBoundary:
			dir = Sell
		default:
			continue
		}

		shares, err := e.RiskCheck(dir, date)
		if err != nil {
			return err
		}
		price, err := e.inst.Price(date)
		if err != nil {
			return err
		}
		if dir == Sell {
			shares = -shares
		}

		e.log.Info().
			Str("date", date.Format("2006-01-02")).
			Str("direction", string(dir)).
			Int64("shares", shares).
			Float64("price", price).
			Msg("trade")

		if err := e.inst.LogTrade(date, shares, price); err != nil {
			return err
		}
	}
	return nil
}

// RiskCheck sizes a trade at date. Exposure is measured over trades already
// in the ledger, which at this point covers dates before date only, since
// date's own trade has not been posted yet.
//
// Buys add floor(allowed / price) shares while allowed risk remains, else
// nothing. Sells return the entire held position: full liquidation, not a
// risk-proportional reduction.
func (e *Engine) RiskCheck(dir Direction, date time.Time) (int64, error) {
	existing, err := e.inst.HeldShareValue(date)
	if err != nil {
		return 0, err
	}
	allowed := e.riskLimit - math.Abs(existing)

	e.log.Debug().
		Str("date", date.Format("2006-01-02")).
		Float64("allowed_risk", allowed).
		Msg("risk check")

	switch dir {
	case Buy:
		if allowed <= 0 {
			return 0, nil
		}
		price, err := e.inst.Price(date)
		if err != nil {
			return 0, err
		}
		return int64(math.Floor(allowed / price)), nil

	case Sell:
		return e.inst.HeldShares(date)

	default:
		return 0, fmt.Errorf("unknown direction %q", dir)
	}
}
