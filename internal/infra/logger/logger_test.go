package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelByEnv(t *testing.T) {
	var buf bytes.Buffer
	NewWriter(&buf, "prod").Debug("hidden")
	assert.Empty(t, buf.String())

	NewWriter(&buf, "dev").Debug("shown", "owner", int64(7))
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, "smeta-bot", rec["service"])
	assert.EqualValues(t, 7, rec["owner"])
	assert.Contains(t, rec, "source")
}
