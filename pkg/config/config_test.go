package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSV(t *testing.T) {
	t.Parallel()

	assert.Nil(t, CSV(""))
	assert.Equal(t, []string{"a:9092", "b:9092"}, CSV(" a:9092, ,b:9092 "))
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("MP_STR", "value")
	t.Setenv("MP_INT", "42")
	t.Setenv("MP_BAD_INT", "x")
	t.Setenv("MP_BOOL", "false")
	t.Setenv("MP_DUR", "90s")
	t.Setenv("MP_BAD_DUR", "-1s")

	assert.Equal(t, "value", EnvDefault("MP_STR", "def"))
	assert.Equal(t, "def", EnvDefault("MP_UNSET", "def"))
	assert.Equal(t, 42, EnvIntDefault("MP_INT", 1))
	assert.Equal(t, 1, EnvIntDefault("MP_BAD_INT", 1))
	assert.False(t, EnvBoolDefault("MP_BOOL", true))
	assert.True(t, EnvBoolDefault("MP_UNSET", true))
	assert.Equal(t, 90*time.Second, EnvDurationDefault("MP_DUR", time.Minute))
	assert.Equal(t, time.Minute, EnvDurationDefault("MP_BAD_DUR", time.Minute))
}

func TestRequired(t *testing.T) {
	t.Parallel()

	var r Required
	r.String("ok", "A")
	r.String(" ", "B")
	r.Bytes(nil, "C")

	err := r.Err()
	require.Error(t, err)
	var missing *MissingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"B", "C"}, missing.Names)

	var ok Required
	ok.String("x", "A")
	assert.NoError(t, ok.Err())
}
