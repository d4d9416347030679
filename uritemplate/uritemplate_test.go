package uritemplate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchSimpleVariable(t *testing.T) {
	t.Parallel()

	tpl, err := Compile("users://{id}/profile")
	require.NoError(t, err)

	params, ok := tpl.Match("users://42/profile")
	require.True(t, ok)
	assert.Equal(t, "42", params["id"])

	_, ok = tpl.Match("users://42/other")
	assert.False(t, ok)
}

func TestMatchSimpleVariableRejectsSlash(t *testing.T) {
	t.Parallel()

	tpl, err := Compile("users://{id}/profile")
	require.NoError(t, err)

	_, ok := tpl.Match("users://42/43/profile")
	assert.False(t, ok)
}

func TestMatchWildcardConsumesSlashes(t *testing.T) {
	t.Parallel()

	tpl, err := Compile("files://{path*}")
	require.NoError(t, err)

	params, ok := tpl.Match("files://a/b/c.txt")
	require.True(t, ok)
	assert.Equal(t, "a/b/c.txt", params["path"])
}

func TestMatchQueryOperator(t *testing.T) {
	t.Parallel()

	tpl, err := Compile("search://{query}{?limit,offset}")
	require.NoError(t, err)

	params, ok := tpl.Match("search://widgets?limit=10&offset=0")
	require.True(t, ok)
	assert.Equal(t, "widgets", params["query"])
	assert.Equal(t, "10", params["limit"])
	assert.Equal(t, "0", params["offset"])
}

func TestParamNamesInDeclarationOrder(t *testing.T) {
	t.Parallel()

	tpl, err := Compile("a://{x}/{y}")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, tpl.ParamNames())
}
