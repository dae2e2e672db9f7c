package market

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const barSchema = `
CREATE TABLE IF NOT EXISTS bars (
	symbol TEXT NOT NULL,
	date TEXT NOT NULL,
	open REAL NOT NULL,
	high REAL NOT NULL,
	low REAL NOT NULL,
	close REAL NOT NULL,
	volume REAL NOT NULL,
	PRIMARY KEY (symbol, date)
);

CREATE INDEX IF NOT EXISTS idx_bars_symbol ON bars(symbol);
`

// SQLiteSource reads daily bars from a SQLite bar store.
type SQLiteSource struct {
	db *sql.DB
}

func NewSQLiteSource(path string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(barSchema); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteSource{db: db}, nil
}

func (s *SQLiteSource) Bars(ctx context.Context, symbol string, start, end time.Time) ([]Bar, error) {
	q := `SELECT date, open, high, low, close, volume FROM bars WHERE symbol = ?`
	args := []any{strings.ToLower(symbol)}
	if !start.IsZero() {
		q += ` AND date >= ?`
		args = append(args, Day(start).Format("2006-01-02"))
	}
	if !end.IsZero() {
		q += ` AND date <= ?`
		args = append(args, Day(end).Format("2006-01-02"))
	}
	q += ` ORDER BY date`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query bars for %s: %w", symbol, err)
	}
	defer rows.Close()

	var bars []Bar
	for rows.Next() {
		var dateStr string
		var b Bar
		if err := rows.Scan(&dateStr, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, err
		}
		if b.Date, err = ParseDay(dateStr); err != nil {
			return nil, fmt.Errorf("bad stored date %q: %w", dateStr, err)
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// InsertBars writes bars for symbol into the store, replacing rows that share
// a date. Used by the data-import tooling, never during a backtest run.
func (s *SQLiteSource) InsertBars(ctx context.Context, symbol string, bars []Bar) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO bars (symbol, date, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	sym := strings.ToLower(symbol)
	for _, b := range bars {
		_, err := stmt.ExecContext(ctx, sym, Day(b.Date).Format("2006-01-02"),
			b.Open, b.High, b.Low, b.Close, b.Volume)
		if err != nil {
			return fmt.Errorf("insert bar %s %s: %w", sym, b.Date.Format("2006-01-02"), err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteSource) Close() error { return s.db.Close() }
