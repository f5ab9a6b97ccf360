package logging

import (
	"bytes"
	"testing"

	charmlog "github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		in   string
		want charmlog.Level
	}{
		{"debug", charmlog.DebugLevel},
		{" WARN ", charmlog.WarnLevel},
		{"warning", charmlog.WarnLevel},
		{"error", charmlog.ErrorLevel},
		{"info", charmlog.InfoLevel},
		{"bogus", charmlog.InfoLevel},
		{"", charmlog.InfoLevel},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, levelFromString(tc.in), "level %q", tc.in)
	}
}

func TestNewWithWriter_JSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn", true)

	log.Info("hidden")
	assert.Empty(t, buf.String())

	log.Warn("stage failed", "stage", "summary")
	out := buf.String()
	assert.Contains(t, out, "stage failed")
	assert.Contains(t, out, `"stage":"summary"`)
}
