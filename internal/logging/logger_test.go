package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHandler_JSONAndLevel(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(newHandler(&buf, "warn", false))

	log.Info("dropped")
	assert.Zero(t, buf.Len())

	log.Warn("kept", "identifier", "+5511999999999")
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "kept", rec["msg"])
	assert.Equal(t, "WARN", rec["level"])
}

func TestNewHandler_InvalidLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(newHandler(&buf, "loud", true))

	log.Debug("dropped")
	assert.Zero(t, buf.Len())
	log.Info("kept")
	assert.Contains(t, buf.String(), "msg=kept")
}
