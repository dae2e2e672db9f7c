// Package market provides daily bar storage, date-indexed price series, and
// the pluggable data sources that load them.
package market

import (
	"context"
	"fmt"
	"time"
)

// Source loads daily bars for a symbol. Dates outside the source's coverage
// are simply absent from the result; sources never fabricate bars.
type Source interface {
	Bars(ctx context.Context, symbol string, start, end time.Time) ([]Bar, error)
	Close() error
}

// SourceConfig selects and locates a bar source.
type SourceConfig struct {
	Type string `json:"type" yaml:"type"` // "csv" or "sqlite"
	Path string `json:"path" yaml:"path"` // directory for csv, db file for sqlite
}

// OpenSource opens the bar source described by cfg.
func OpenSource(cfg SourceConfig) (Source, error) {
	switch cfg.Type {
	case "csv":
		return NewCSVSource(cfg.Path), nil
	case "sqlite":
		return NewSQLiteSource(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown data source type %q (supported: csv, sqlite)", cfg.Type)
	}
}
