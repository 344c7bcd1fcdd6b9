package util

import "time"

// NowUTC exposes time.Now for deterministic testing.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// RoundTo rounds v to the given number of decimal places.
func RoundTo(v float64, places int) float64 {
	pow := 1.0
	for i := 0; i < places; i++ {
		pow *= 10
	}
	if v < 0 {
		return -float64(int64(-v*pow+0.5)) / pow
	}
	return float64(int64(v*pow+0.5)) / pow
}
