package schema

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDefs() map[string]map[string]any {
	return map[string]map[string]any{
		"Address": {
			"type":  "object",
			"title": "Address",
			"properties": map[string]any{
				"city": map[string]any{"type": "string"},
			},
		},
		"User": {
			"type":  "object",
			"title": "User",
			"properties": map[string]any{
				"name":    map[string]any{"type": "string"},
				"address": map[string]any{"$ref": "#/components/schemas/Address"},
			},
		},
		"Unrelated": {
			"type": "object",
		},
	}
}

func TestCompressRewritesRefsAndDropsUnreachable(t *testing.T) {
	t.Parallel()

	root := map[string]any{
		"$ref": "#/components/schemas/User",
	}
	out := Compress(root, sampleDefs())

	assert.Equal(t, "#/$defs/User", out["$ref"])
	defs, ok := out["$defs"].(map[string]any)
	require.True(t, ok)
	_, hasUser := defs["User"]
	_, hasAddress := defs["Address"]
	_, hasUnrelated := defs["Unrelated"]
	assert.True(t, hasUser)
	assert.True(t, hasAddress, "Address is transitively reachable from User and must survive")
	assert.False(t, hasUnrelated, "Unrelated is not reachable from root and must be pruned")
}

func TestCompressPrunesTitles(t *testing.T) {
	t.Parallel()

	root := map[string]any{"$ref": "#/components/schemas/User"}
	out := Compress(root, sampleDefs())
	defs := out["$defs"].(map[string]any)
	user := defs["User"].(map[string]any)
	_, hasTitle := user["title"]
	assert.False(t, hasTitle)
}

func TestCompressHandlesMutualCycles(t *testing.T) {
	t.Parallel()

	defs := map[string]map[string]any{
		"A": {"type": "object", "properties": map[string]any{"b": map[string]any{"$ref": "#/components/schemas/B"}}},
		"B": {"type": "object", "properties": map[string]any{"a": map[string]any{"$ref": "#/components/schemas/A"}}},
	}
	root := map[string]any{"$ref": "#/components/schemas/A"}

	done := make(chan map[string]any, 1)
	go func() { done <- Compress(root, defs) }()
	out := <-done

	outDefs := out["$defs"].(map[string]any)
	assert.Contains(t, outDefs, "A")
	assert.Contains(t, outDefs, "B")
}

func TestCompressProducesIndependentTrees(t *testing.T) {
	t.Parallel()

	defs := sampleDefs()
	root := map[string]any{"$ref": "#/components/schemas/User"}

	first := Compress(root, defs)
	second := Compress(root, defs)

	require.True(t, cmp.Equal(first, second))

	// Mutate the first result's nested def in place; the second result and
	// the shared defs pool must be unaffected, proving no shared backing
	// map/slice crossed between calls or from the source defs.
	firstDefs := first["$defs"].(map[string]any)
	firstUser := firstDefs["User"].(map[string]any)
	firstProps := firstUser["properties"].(map[string]any)
	firstProps["name"] = map[string]any{"type": "integer"}

	secondDefs := second["$defs"].(map[string]any)
	secondUser := secondDefs["User"].(map[string]any)
	secondProps := secondUser["properties"].(map[string]any)
	assert.Equal(t, map[string]any{"type": "string"}, secondProps["name"])

	assert.Equal(t, "User", defs["User"]["title"], "source defs pool must be untouched")
}
