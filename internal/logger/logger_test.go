package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, hclog.Debug, ParseLevel("debug"))
	assert.Equal(t, hclog.Warn, ParseLevel("WARN"))
	assert.Equal(t, hclog.Info, ParseLevel(""))
	assert.Equal(t, hclog.Info, ParseLevel("nonsense"))
}

func TestInitJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Name: "test", Level: "info", Format: "json", Output: &buf})

	Info("item created", "id", "abc")

	line := strings.TrimSpace(buf.String())
	require.NotEmpty(t, line)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "item created", entry["@message"])
	assert.Equal(t, "abc", entry["id"])
	assert.Equal(t, "test", entry["@module"])
}

func TestSetLevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Level: "info", Output: &buf})

	Debug("hidden")
	assert.Empty(t, buf.String())

	SetLevel("debug")
	Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}
