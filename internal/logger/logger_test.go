package logger

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatRFC3339Millis(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 6, 789_123_456, time.FixedZone("CET", 3600))
	assert.Equal(t, "2024-03-09T13:05:06.789Z", formatRFC3339Millis(ts))
}

func TestNewWithWriter(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, false)

	log.Debug("hidden")
	log.Info("dataset loaded", "rows", 3, "source", "")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "dataset loaded")
	assert.Contains(t, out, "rows")
	assert.NotContains(t, out, "source", "empty string attrs are dropped")
}
