package applog

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewLevels(t *testing.T) {
	log := New("test", "debug")
	assert.Equal(t, zerolog.DebugLevel, log.GetLevel())

	log = New("test", "warn")
	assert.Equal(t, zerolog.WarnLevel, log.GetLevel())
}

func TestNewBadLevelFallsBackToInfo(t *testing.T) {
	log := New("test", "loud")
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())
}

func TestNewWriterTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf, "backtest", "info")

	log.Info().Msg("hello")
	out := buf.String()
	assert.Contains(t, out, `"component":"backtest"`)
	assert.Contains(t, out, "hello")
}
