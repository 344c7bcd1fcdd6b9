package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTo(t *testing.T) {
	require.Equal(t, 10.53, RoundTo(10.5271, 2))
	require.Equal(t, -36.79, RoundTo(-36.7942, 2))
	require.Equal(t, 76.0, RoundTo(75.96, 1))
	require.Equal(t, 3.0, RoundTo(3.4, 0))
}

func TestNowUTC(t *testing.T) {
	require.Equal(t, "UTC", NowUTC().Location().String())
}
