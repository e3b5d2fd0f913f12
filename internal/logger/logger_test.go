package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeKVs_RedactsSecrets(t *testing.T) {
	out := sanitizeKVs([]interface{}{"employer", "hartford", "api_key", "abc", "TELEGRAM_TOKEN", "xyz", "dangling"})
	assert.Equal(t, []interface{}{"employer", "hartford", "api_key", "[REDACTED]", "TELEGRAM_TOKEN", "[REDACTED]", "dangling"}, out)
}

func TestNewNop(t *testing.T) {
	l := NewNop()
	assert.NotPanics(t, func() {
		l.With("k", "v").Info("hello", "a", 1)
	})
}
