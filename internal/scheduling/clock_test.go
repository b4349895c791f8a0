package scheduling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeHHMM(t *testing.T) {
	got, err := NormalizeHHMM("9:05")
	require.NoError(t, err)
	assert.Equal(t, "09:05", got)

	for _, raw := range []string{"", "9", "24:00", "12:60", "ab:cd", "1:5", "123:00"} {
		_, err := NormalizeHHMM(raw)
		assert.Error(t, err, raw)
	}
}

func TestAddMinutesDetectsMidnightOverflow(t *testing.T) {
	end, overflow, err := AddMinutes("09:00", 180)
	require.NoError(t, err)
	assert.Equal(t, "12:00", end)
	assert.False(t, overflow)

	end, overflow, err = AddMinutes("21:00", 180)
	require.NoError(t, err)
	assert.Equal(t, "00:00", end)
	assert.True(t, overflow)

	end, overflow, err = AddMinutes("20:59", 180)
	require.NoError(t, err)
	assert.Equal(t, "23:59", end)
	assert.False(t, overflow)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("01.03.2025")
	require.NoError(t, err)
	assert.Equal(t, 2025, d.Year())
	assert.Equal(t, 3, int(d.Month()))

	_, err = ParseDate("2025-03-01")
	assert.Error(t, err)
	_, err = ParseDate("31.02.2025")
	assert.Error(t, err)
}
