package openaiclient

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"goa.design/mcpcore/sampling"
)

func TestParseArgumentsDecodesValidJSON(t *testing.T) {
	t.Parallel()
	got := parseArguments(`{"q":"go"}`)
	assert.Equal(t, map[string]any{"q": "go"}, got)
}

func TestParseArgumentsFallsBackToRawOnInvalidJSON(t *testing.T) {
	t.Parallel()
	got := parseArguments("not json")
	assert.Equal(t, map[string]any{"raw": "not json"}, got)
}

func TestToolResultTextPassesThroughStrings(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "plain text", toolResultText(sampling.ToolResultPart{Content: "plain text"}))
}

func TestToolResultTextSerializesStructuredContent(t *testing.T) {
	t.Parallel()
	got := toolResultText(sampling.ToolResultPart{Content: map[string]any{"ok": true}})
	assert.JSONEq(t, `{"ok":true}`, got)
}
