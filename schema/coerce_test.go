package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerceInt(t *testing.T) {
	t.Parallel()

	v, err := Coerce(CoerceInt, "42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	_, err = Coerce(CoerceInt, "not-a-number")
	require.Error(t, err)
	var ce *CoercionError
	assert.ErrorAs(t, err, &ce)
}

func TestCoerceBool(t *testing.T) {
	t.Parallel()

	v, err := Coerce(CoerceBool, "true")
	require.NoError(t, err)
	assert.Equal(t, true, v)
}

func TestCoerceUUID(t *testing.T) {
	t.Parallel()

	v, err := Coerce(CoerceUUID, "550e8400-e29b-41d4-a716-446655440000")
	require.NoError(t, err)
	assert.NotNil(t, v)

	_, err = Coerce(CoerceUUID, "not-a-uuid")
	assert.Error(t, err)
}

func TestCoercePassesThroughNonStrings(t *testing.T) {
	t.Parallel()

	v, err := Coerce(CoerceInt, int64(7))
	require.NoError(t, err)
	assert.Equal(t, int64(7), v)
}
