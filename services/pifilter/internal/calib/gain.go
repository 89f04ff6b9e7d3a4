package calib

import (
	"math"
	"time"
)

// Gain polynomial coefficients supplied by the Chandra calibration team
// (V. Kashyap). The polynomial is evaluated in years since 2000.0.
const (
	gainC0 = 1.0418475
	gainC1 = 0.020125799
	gainC2 = 0.010877227
	gainC3 = -0.0014310146
	gainC4 = 5.8426766e-05

	gainEpoch = 2000.0
)

// Gain returns the multiplicative HRC gain-degradation correction for an
// observation starting at the given decimal year.
func Gain(decimalYear float64) float64 {
	x := decimalYear - gainEpoch
	return gainC0 +
		gainC1*x +
		gainC2*math.Pow(x, 2) +
		gainC3*math.Pow(x, 3) +
		gainC4*math.Pow(x, 4)
}

// DecimalYear expresses t as year plus the elapsed fraction of that
// calendar year, measured in UTC.
func DecimalYear(t time.Time) float64 {
	t = t.UTC()
	start := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)
	frac := float64(t.Sub(start)) / float64(end.Sub(start))
	return float64(t.Year()) + frac
}
