package strategies

import (
	"github.com/rs/zerolog"
	"github.com/rustyeddy/greyhound/config"
	"github.com/rustyeddy/greyhound/indicators"
	"github.com/rustyeddy/greyhound/market"
)

// MovingAverage generates buy/sell events from how far price has stretched
// away from its exponential moving average.
//
// The histogram (price minus EMA) is normalized over the whole series, so the
// signal uses future information. That is deliberate: this is the naive
// baseline strategy carried over from the research notebooks, not a causal
// production strategy.
type MovingAverage struct {
	window int
	log    zerolog.Logger
}

func init() {
	Register("ema", func(cfg *config.Config, log zerolog.Logger) Strategy {
		return NewMovingAverage(cfg.Strategy.EMA.Window, log)
	})
}

func NewMovingAverage(window int, log zerolog.Logger) *MovingAverage {
	return &MovingAverage{window: window, log: log}
}

func (m *MovingAverage) Name() string { return "ema" }

// CreateFactors derives ema, histogram, and hist_norm columns from the
// configured trading price column.
func (m *MovingAverage) CreateFactors(s *market.Series) (Factors, error) {
	px, err := s.Column(s.PriceColumn())
	if err != nil {
		return nil, err
	}

	ema, err := indicators.EWMSpan(px, m.window)
	if err != nil {
		return nil, err
	}
	hist := indicators.Sub(px, ema)

	// Min-max normalize over the entire series. A constant histogram would
	// divide by zero; fall back to an all-zero normalized column.
	lo, hi := indicators.Min(hist), indicators.Max(hist)
	norm := make([]float64, len(hist))
	if hi > lo {
		for i, h := range hist {
			norm[i] = (h - lo) / (hi - lo)
		}
	}

	m.log.Debug().Int("window", m.window).Msg("ema factors calculated")

	return Factors{
		"ema":       ema,
		"histogram": hist,
		"hist_norm": norm,
	}, nil
}

// CreateSignal emits the first difference of the overbought/oversold level so
// a sustained level produces a single edge event. The first value is NaN by
// construction of the difference.
func (m *MovingAverage) CreateSignal(f Factors) []float64 {
	norm := f["hist_norm"]
	mean := indicators.Mean(norm)

	raw := make([]float64, len(norm))
	for i, v := range norm {
		switch {
		case v >= 1.1*mean: // overbought, sell bias
			raw[i] = -1
		case v <= 0.9*mean: // oversold, buy bias
			raw[i] = 1
		}
	}

	m.log.Debug().Msg("ema signal generated")
	return indicators.Diff(raw)
}
