package strategies

import (
	"github.com/rs/zerolog"
	"github.com/rustyeddy/greyhound/config"
	"github.com/rustyeddy/greyhound/indicators"
	"github.com/rustyeddy/greyhound/market"
)

// ConvergenceDivergence generates buy/sell events from the MACD histogram:
// the spread between a fast/slow EMA difference and its own signal-line EMA,
// compared against fixed histogram thresholds.
type ConvergenceDivergence struct {
	fast    int
	slow    int
	signal  int
	histMax float64
	histMin float64
	log     zerolog.Logger
}

func init() {
	Register("macd", func(cfg *config.Config, log zerolog.Logger) Strategy {
		return NewConvergenceDivergence(cfg.Strategy.MACD, log)
	})
}

func NewConvergenceDivergence(cfg config.MACDConfig, log zerolog.Logger) *ConvergenceDivergence {
	return &ConvergenceDivergence{
		fast:    cfg.Fast,
		slow:    cfg.Slow,
		signal:  cfg.Signal,
		histMax: cfg.HistogramMax,
		histMin: cfg.HistogramMin,
		log:     log,
	}
}

func (c *ConvergenceDivergence) Name() string { return "macd" }

// CreateFactors derives macd_fast, macd_slow, macd, macd_sig, and histogram
// columns from the close price.
func (c *ConvergenceDivergence) CreateFactors(s *market.Series) (Factors, error) {
	px, err := s.Column(market.ColClose)
	if err != nil {
		return nil, err
	}

	fast, err := indicators.EWMSpan(px, c.fast)
	if err != nil {
		return nil, err
	}
	slow, err := indicators.EWMSpan(px, c.slow)
	if err != nil {
		return nil, err
	}
	macd := indicators.Sub(fast, slow)

	sig, err := indicators.EWMSpan(macd, c.signal)
	if err != nil {
		return nil, err
	}
	hist := indicators.Sub(macd, sig)

	c.log.Debug().
		Int("fast", c.fast).Int("slow", c.slow).Int("signal", c.signal).
		Msg("macd factors calculated")

	return Factors{
		"macd_fast": fast,
		"macd_slow": slow,
		"macd":      macd,
		"macd_sig":  sig,
		"histogram": hist,
	}, nil
}

// CreateSignal emits -1 where the histogram reaches the sell threshold, +1
// where it reaches the buy threshold, else 0. The two bands are evaluated
// together; a histogram value can never satisfy both since histMin is below
// histMax.
func (c *ConvergenceDivergence) CreateSignal(f Factors) []float64 {
	hist := f["histogram"]

	signal := make([]float64, len(hist))
	for i, h := range hist {
		switch {
		case h >= c.histMax:
			signal[i] = -1
		case h <= c.histMin:
			signal[i] = 1
		}
	}

	c.log.Debug().Msg("macd signal generated")
	return signal
}
