package reporting

import "math"

// round2 rounds half-up to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// percentage returns part/whole as a percentage with two decimals, or 0 when whole is 0.
// The ratio is scaled by 10000 before rounding so the result keeps two decimals.
func percentage(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(whole)*10000) / 100
}

// average returns total/count rounded to two decimals, or 0 when count is 0.
func average(total, count int) float64 {
	if count == 0 {
		return 0
	}
	return round2(float64(total) / float64(count))
}
