package timeutil

import (
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidTimeFormat is returned when a clock string does not parse as "HH:MM".
var ErrInvalidTimeFormat = fmt.Errorf("invalid time format, expected HH:MM")

// ToMinutes converts a zero-padded "HH:MM" clock string to minutes since midnight.
func ToMinutes(clock string) (int, error) {
	parts := strings.Split(clock, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, clock)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, clock)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, clock)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: %q out of range", ErrInvalidTimeFormat, clock)
	}
	return h*60 + m, nil
}

// ToClock converts minutes since midnight back to a zero-padded "HH:MM" string.
func ToClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Overlaps reports whether the half-open intervals [s1,e1) and [s2,e2)
// intersect with positive measure. Touching endpoints do not overlap.
func Overlaps(s1, e1, s2, e2 int) bool {
	return s1 < e2 && e1 > s2
}

// OverlapMinutes returns the size of the intersection of [s1,e1) and [s2,e2),
// or 0 when the intervals are disjoint.
func OverlapMinutes(s1, e1, s2, e2 int) int {
	lo := s1
	if s2 > lo {
		lo = s2
	}
	hi := e1
	if e2 < hi {
		hi = e2
	}
	if hi <= lo {
		return 0
	}
	return hi - lo
}

// Contains reports whether [slotStart,slotEnd] lies fully inside
// [rangeStart,rangeEnd]. Both bounds are inclusive.
func Contains(slotStart, slotEnd, rangeStart, rangeEnd int) bool {
	return slotStart >= rangeStart && slotEnd <= rangeEnd
}
