package market

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteSource {
	t.Helper()

	path := filepath.Join(t.TempDir(), "bars.db")
	src, err := NewSQLiteSource(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Close() })
	return src
}

func TestSQLiteRoundTrip(t *testing.T) {
	src := newTestStore(t)
	ctx := context.Background()

	in, err := ReadBars(strings.NewReader(sampleCSV), time.Time{}, time.Time{})
	require.NoError(t, err)
	require.NoError(t, src.InsertBars(ctx, "SPY", in))

	out, err := src.Bars(ctx, "spy", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, out, len(in))
	for i := range in {
		assert.Equal(t, in[i], out[i])
	}
}

func TestSQLiteRange(t *testing.T) {
	src := newTestStore(t)
	ctx := context.Background()

	in, err := ReadBars(strings.NewReader(sampleCSV), time.Time{}, time.Time{})
	require.NoError(t, err)
	require.NoError(t, src.InsertBars(ctx, "spy", in))

	start, _ := ParseDay("2015-01-05")
	out, err := src.Bars(ctx, "spy", start, time.Time{})
	require.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Equal(t, start, out[0].Date)

	// Dates outside coverage are absent, never fabricated.
	far, _ := ParseDay("2020-01-01")
	out, err = src.Bars(ctx, "spy", far, time.Time{})
	assert.NoError(t, err)
	assert.Empty(t, out)
}

func TestSQLiteInsertReplaces(t *testing.T) {
	src := newTestStore(t)
	ctx := context.Background()

	d, _ := ParseDay("2015-01-02")
	bar := Bar{Date: d, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10}
	require.NoError(t, src.InsertBars(ctx, "spy", []Bar{bar}))

	bar.Close = 1.75
	require.NoError(t, src.InsertBars(ctx, "spy", []Bar{bar}))

	out, err := src.Bars(ctx, "spy", time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 1.75, out[0].Close)
}

func TestOpenSource(t *testing.T) {
	src, err := OpenSource(SourceConfig{Type: "csv", Path: t.TempDir()})
	assert.NoError(t, err)
	assert.NoError(t, src.Close())

	src, err = OpenSource(SourceConfig{Type: "sqlite", Path: filepath.Join(t.TempDir(), "b.db")})
	assert.NoError(t, err)
	assert.NoError(t, src.Close())

	_, err = OpenSource(SourceConfig{Type: "hdf5", Path: "x"})
	assert.Error(t, err)
}
