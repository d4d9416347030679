package bedrockclient

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"goa.design/mcpcore/sampling"
)

func TestSanitizeToolNameReplacesDisallowedRunes(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "web_search-tool", sanitizeToolName("web.search-tool"))
	assert.Equal(t, "already_safe", sanitizeToolName("already_safe"))
}

func TestToolNameMapsAreConsistentBothDirections(t *testing.T) {
	t.Parallel()
	canonToSan, sanToCanon := toolNameMaps(nil)
	assert.Empty(t, canonToSan)
	assert.Empty(t, sanToCanon)

	canonToSan, sanToCanon = toolNameMaps([]*sampling.ToolDefinition{{Name: "web.search"}})
	assert.Equal(t, "web_search", canonToSan["web.search"])
	assert.Equal(t, "web.search", sanToCanon["web_search"])
}

func TestPtrValueHandlesNil(t *testing.T) {
	t.Parallel()
	assert.Equal(t, int32(0), ptrValue(nil))
	v := int32(7)
	assert.Equal(t, int32(7), ptrValue(&v))
}
