package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSanitizePayloadMasksSensitiveKeys(t *testing.T) {
	payload := map[string]any{
		"accountId": "a-1",
		"nested": map[string]any{
			"Channel-Key": "secret",
			"password":    "hunter2",
		},
		"items": []any{map[string]any{"pin": "1234"}},
	}

	sanitized, ok := SanitizePayload(payload).(map[string]any)
	require.True(t, ok)

	assert.Equal(t, "a-1", sanitized["accountId"])
	nested := sanitized["nested"].(map[string]any)
	assert.Equal(t, "******", nested["Channel-Key"])
	assert.Equal(t, "******", nested["password"])
	items := sanitized["items"].([]any)
	assert.Equal(t, "******", items[0].(map[string]any)["pin"])
}

func TestSanitizePayloadUnmarshalableValue(t *testing.T) {
	assert.Equal(t, "<unavailable>", SanitizePayload(make(chan int)))
}

func TestInfoAndErrorWriteStructuredFields(t *testing.T) {
	core, recorded := observer.New(zap.InfoLevel)
	restore := Replace(zap.New(core))
	defer restore()

	Info("ledger deposit success", Fields{"accountId": "a-1", "password": "x"})
	Error("ledger deposit failed", errors.New("boom"), Fields{"accountId": "a-1"})

	entries := recorded.All()
	require.Len(t, entries, 2)

	first := entries[0].ContextMap()
	assert.Equal(t, "a-1", first["accountId"])
	assert.Equal(t, "******", first["password"])

	second := entries[1].ContextMap()
	assert.Equal(t, "boom", second["error"])
	assert.Equal(t, "ledger deposit failed", entries[1].Message)
}

func TestSetLevel(t *testing.T) {
	defer func() { _ = SetLevel("info") }()

	require.NoError(t, SetLevel("debug"))
	assert.True(t, level.Enabled(zap.DebugLevel))

	require.NoError(t, SetLevel(""))
	assert.False(t, level.Enabled(zap.DebugLevel))

	assert.Error(t, SetLevel("verbose"))
}
