package market

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBars(t *testing.T) []Bar {
	t.Helper()
	rows := []struct {
		date  string
		close float64
	}{
		{"2015-01-02", 100},
		{"2015-01-05", 102},
		{"2015-01-06", 99},
		{"2015-01-07", 99},
		{"2015-01-08", 103},
	}
	var bars []Bar
	for _, r := range rows {
		d, err := ParseDay(r.date)
		require.NoError(t, err)
		bars = append(bars, Bar{
			Date: d, Open: r.close - 1, High: r.close + 2,
			Low: r.close - 2, Close: r.close, Volume: 500,
		})
	}
	return bars
}

func TestNewSeries(t *testing.T) {
	s, err := NewSeries(testBars(t), ColClose)
	require.NoError(t, err)

	assert.Equal(t, 5, s.Len())
	assert.Equal(t, ColClose, s.PriceColumn())

	d, _ := ParseDay("2015-01-08")
	assert.Equal(t, d, s.LastDate())

	i, ok := s.Index(d)
	assert.True(t, ok)
	assert.Equal(t, 4, i)

	// Weekend date is not in the index.
	weekend, _ := ParseDay("2015-01-03")
	_, ok = s.Index(weekend)
	assert.False(t, ok)
}

func TestNewSeriesSortsBars(t *testing.T) {
	bars := testBars(t)
	bars[0], bars[4] = bars[4], bars[0]

	s, err := NewSeries(bars, "")
	require.NoError(t, err)

	dates := s.Dates()
	for i := 1; i < len(dates); i++ {
		assert.True(t, dates[i-1].Before(dates[i]))
	}
}

func TestNewSeriesRejectsEmptyAndDuplicates(t *testing.T) {
	_, err := NewSeries(nil, ColClose)
	assert.ErrorIs(t, err, ErrNoData)

	bars := testBars(t)
	bars = append(bars, bars[2])
	_, err = NewSeries(bars, ColClose)
	assert.Error(t, err)
}

func TestSeriesColumns(t *testing.T) {
	s, err := NewSeries(testBars(t), ColClose)
	require.NoError(t, err)

	closes, err := s.Column(ColClose)
	assert.NoError(t, err)
	assert.Equal(t, []float64{100, 102, 99, 99, 103}, closes)

	vol, err := s.Column(ColVolume)
	assert.NoError(t, err)
	assert.Equal(t, 500.0, vol[0])

	_, err = s.Column("bogus")
	assert.ErrorIs(t, err, ErrColumnNotFound)
}

func TestSeriesPctChange(t *testing.T) {
	s, err := NewSeries(testBars(t), ColClose)
	require.NoError(t, err)

	pct, err := s.Column(ColPctChange)
	require.NoError(t, err)

	assert.True(t, math.IsNaN(pct[0]))
	assert.InDelta(t, 0.02, pct[1], 1e-9)
	assert.InDelta(t, -3.0/102.0, pct[2], 1e-9)
	assert.InDelta(t, 0.0, pct[3], 1e-9)
}

func TestSeriesTrim(t *testing.T) {
	s, err := NewSeries(testBars(t), ColClose)
	require.NoError(t, err)

	start, _ := ParseDay("2015-01-05")
	end, _ := ParseDay("2015-01-07")

	trimmed, err := s.Trim(start, end)
	require.NoError(t, err)
	assert.Equal(t, 3, trimmed.Len())
	assert.Equal(t, start, trimmed.Dates()[0])
	assert.Equal(t, end, trimmed.LastDate())

	// Zero bounds leave that side open.
	open, err := s.Trim(time.Time{}, end)
	require.NoError(t, err)
	assert.Equal(t, 4, open.Len())

	// A range with no bars is an error, not a fabricated series.
	farStart, _ := ParseDay("2020-01-01")
	_, err = s.Trim(farStart, time.Time{})
	assert.ErrorIs(t, err, ErrNoData)
}

func TestSeriesPrice(t *testing.T) {
	s, err := NewSeries(testBars(t), ColClose)
	require.NoError(t, err)

	d, _ := ParseDay("2015-01-06")
	px, err := s.Price(d)
	assert.NoError(t, err)
	assert.Equal(t, 99.0, px)

	high, err := s.PriceAt(d, ColHigh)
	assert.NoError(t, err)
	assert.Equal(t, 101.0, high)

	missing, _ := ParseDay("2015-01-03")
	_, err = s.Price(missing)
	assert.ErrorIs(t, err, ErrDateNotFound)
}

func TestDay(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	ts := time.Date(2015, 1, 6, 22, 30, 0, 0, loc)
	assert.Equal(t, time.Date(2015, 1, 7, 0, 0, 0, 0, time.UTC), Day(ts))
}
