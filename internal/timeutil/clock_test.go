package timeutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToMinutes(t *testing.T) {
	testCases := []struct {
		clock     string
		expected  int
		expectErr bool
	}{
		{"00:00", 0, false},
		{"08:00", 480, false},
		{"09:30", 570, false},
		{"18:00", 1080, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"8am", 0, true},
		{"", 0, true},
		{"12", 0, true},
		{"ab:cd", 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.clock, func(t *testing.T) {
			got, err := ToMinutes(tc.clock)
			if tc.expectErr {
				assert.ErrorIs(t, err, ErrInvalidTimeFormat)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.expected, got)
			}
		})
	}
}

func TestToClock(t *testing.T) {
	assert.Equal(t, "00:00", ToClock(0))
	assert.Equal(t, "08:30", ToClock(510))
	assert.Equal(t, "18:00", ToClock(1080))
}

func TestOverlaps(t *testing.T) {
	// Touching endpoints do not overlap.
	assert.False(t, Overlaps(480, 540, 540, 600))
	assert.False(t, Overlaps(540, 600, 480, 540))
	assert.True(t, Overlaps(480, 541, 540, 600))
	assert.True(t, Overlaps(500, 520, 480, 600)) // fully inside
	assert.False(t, Overlaps(480, 500, 520, 540))
}

func TestOverlapMinutes(t *testing.T) {
	assert.Equal(t, 0, OverlapMinutes(480, 540, 540, 600))
	assert.Equal(t, 60, OverlapMinutes(600, 720, 540, 660)) // 10:00-12:00 vs 09:00-11:00
	assert.Equal(t, 120, OverlapMinutes(540, 660, 480, 720))
	assert.Equal(t, 0, OverlapMinutes(480, 600, 780, 840))
}

func TestContains(t *testing.T) {
	assert.True(t, Contains(480, 600, 480, 1080))
	assert.True(t, Contains(500, 1080, 480, 1080)) // inclusive bounds
	assert.False(t, Contains(470, 600, 480, 1080))
	assert.False(t, Contains(480, 1081, 480, 1080))
	assert.False(t, Contains(660, 780, 480, 720)) // straddles the range end
}
