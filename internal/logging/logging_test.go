package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dharsanguruparan/ReelRelay/internal/config"
)

func TestNewWritesJSONWithService(t *testing.T) {
	var buf bytes.Buffer
	logger := New("relay", config.LogConfig{Level: "debug", Format: "json"}, &buf)
	logger.Debug().Int64("chat_id", 42).Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "relay", entry["svc"])
	assert.Equal(t, "hello", entry["message"])
	assert.Equal(t, float64(42), entry["chat_id"])
}

func TestNewUnknownLevelIsInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := New("relay", config.LogConfig{Level: "chatty"}, &buf)
	logger.Debug().Msg("hidden")
	assert.Zero(t, buf.Len())

	logger.Info().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestFromContext(t *testing.T) {
	var fallbackBuf, reqBuf bytes.Buffer
	fallback := New("relay", config.LogConfig{}, &fallbackBuf)
	req := New("relay", config.LogConfig{}, &reqBuf).With().Str("request_id", "r-1").Logger()

	l := FromContext(context.Background(), fallback)
	l.Info().Msg("plain")
	assert.Contains(t, fallbackBuf.String(), "plain")

	l = FromContext(req.WithContext(context.Background()), fallback)
	l.Info().Msg("scoped")
	assert.Contains(t, reqBuf.String(), `"request_id":"r-1"`)
}
