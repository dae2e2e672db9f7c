// Package strategies contains the signal generators. A strategy consumes an
// instrument's price series in two phases: CreateFactors derives intermediate
// columns (moving averages, histograms), CreateSignal turns them into a
// per-date series of sell/hold/buy events in {-1, 0, +1}.
package strategies

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rustyeddy/greyhound/config"
	"github.com/rustyeddy/greyhound/instrument"
	"github.com/rustyeddy/greyhound/market"
)

// ErrUnknownStrategy is returned when the factory is given an unregistered
// strategy name.
var ErrUnknownStrategy = errors.New("unknown strategy")

// Factors holds the named intermediate columns a strategy derives from the
// price series, each aligned to the series' date index.
type Factors map[string][]float64

// Strategy is the capability a signal generator must provide.
type Strategy interface {
	// Name is the key the signal series is stored under on the instrument.
	Name() string

	// CreateFactors derives the strategy's factor columns from the series.
	CreateFactors(s *market.Series) (Factors, error)

	// CreateSignal turns factor columns into the emitted signal series.
	CreateSignal(f Factors) []float64
}

// Constructor builds a strategy from the run configuration.
type Constructor func(cfg *config.Config, log zerolog.Logger) Strategy

var registry = map[string]Constructor{}

// Register adds a strategy constructor under name. Called from init.
func Register(name string, ctor Constructor) {
	registry[name] = ctor
}

// New builds the named strategy, failing with ErrUnknownStrategy for names
// that were never registered.
func New(name string, cfg *config.Config, log zerolog.Logger) (Strategy, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
	return ctor(cfg, log), nil
}

// Generate runs both strategy phases against the instrument and stores the
// resulting signal series on it under the strategy's name.
func Generate(s Strategy, in *instrument.Instrument) error {
	factors, err := s.CreateFactors(in.Series())
	if err != nil {
		return fmt.Errorf("%s factors for %s: %w", s.Name(), in.Symbol(), err)
	}
	return in.SetSignal(s.Name(), s.CreateSignal(factors))
}
