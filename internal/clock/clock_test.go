package clock

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWindowHalfOpen(t *testing.T) {
	w := Window{StartHour: 10, EndHour: 22}

	require.False(t, w.Contains(9))
	require.True(t, w.Contains(10))
	require.True(t, w.Contains(21))
	require.False(t, w.Contains(22))
	require.False(t, w.Contains(23))
}

func TestFromOverridePrecedence(t *testing.T) {
	cfg := 15

	t.Setenv("FAKE_NOW_HOUR", "8")
	require.Equal(t, 8, FromOverride(&cfg).Hour())

	t.Setenv("FAKE_NOW_HOUR", "")
	require.Equal(t, 15, FromOverride(&cfg).Hour())

	// Out-of-range env values fall through to the config override.
	t.Setenv("FAKE_NOW_HOUR", "25")
	require.Equal(t, 15, FromOverride(&cfg).Hour())
}

func TestFromOverrideSystemFallback(t *testing.T) {
	t.Setenv("FAKE_NOW_HOUR", "")
	h := FromOverride(nil).Hour()
	require.GreaterOrEqual(t, h, 0)
	require.LessOrEqual(t, h, 23)
}
