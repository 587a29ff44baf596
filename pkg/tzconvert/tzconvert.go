// Package tzconvert converts whole hours between UTC and a fixed UTC offset.
// All timestamps in rwTZ are stored in UTC; local hours exist only for scoring
// and display.
package tzconvert

import (
	"fmt"
	"strconv"
	"strings"
)

// UTCToLocal converts a UTC hour to the local hour for a UTC offset.
// Example: UTCToLocal(15, -5) converts 15:00 UTC to 10:00 in UTC-5.
// Example: UTCToLocal(2, -5) converts 02:00 UTC to 21:00 the previous day.
//
// The result is always in [0, 23], for any offset, because the modulo is
// floored rather than truncated toward zero.
func UTCToLocal(utcHour, utcOffset int) int {
	return floorMod(utcHour+utcOffset, 24)
}

// LocalToUTC converts a local hour at a UTC offset back to the UTC hour.
// Example: LocalToUTC(10, -5) converts 10:00 in UTC-5 to 15:00 UTC.
func LocalToUTC(localHour, utcOffset int) int {
	return floorMod(localHour-utcOffset, 24)
}

// InWindow reports whether hour lies in the half-open interval [start, end).
func InWindow(hour, start, end int) bool {
	return start <= hour && hour < end
}

// FormatOffset renders an offset the way results are printed: "UTC+2", "UTC-5", "UTC+0".
func FormatOffset(utcOffset int) string {
	return fmt.Sprintf("UTC%+d", utcOffset)
}

// ParseOffset extracts the offset from "UTC", "UTC+8", "UTC-5", "+3" or "-11".
// It returns false when the string is not one of those forms.
func ParseOffset(s string) (int, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.ToUpper(s), "UTC")
	if s == "" {
		return 0, true
	}
	offset, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return offset, true
}

func floorMod(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}
