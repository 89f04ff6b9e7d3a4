package calib

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// SampNorm normalises the scaled amplifier signal.
const SampNorm = 148.0

// Amplifiers holds the six raw amplifier channels and the scale factor of a
// photon list, one slice element per photon.
type Amplifiers struct {
	AV1, AV2, AV3 []float64
	AU1, AU2, AU3 []float64
	ScaleFactor   []float64
}

// Len returns the photon count, or an error when the channels disagree.
func (a Amplifiers) Len() (int, error) {
	n := len(a.ScaleFactor)
	for i, ch := range [][]float64{a.AV1, a.AV2, a.AV3, a.AU1, a.AU2, a.AU3} {
		if len(ch) != n {
			return 0, fmt.Errorf("amplifier channel %d has %d values, amp_sf has %d", i, len(ch), n)
		}
	}
	return n, nil
}

// SumAmps returns av1+av2+av3+au1+au2+au3 for every photon.
func SumAmps(a Amplifiers) ([]float64, error) {
	n, err := a.Len()
	if err != nil {
		return nil, err
	}
	sum := make([]float64, n)
	for _, ch := range [][]float64{a.AV1, a.AV2, a.AV3, a.AU1, a.AU2, a.AU3} {
		floats.Add(sum, ch)
	}
	return sum, nil
}

// Samp scales summed amplifier signals by 2^(amp_sf-1)/148.
func Samp(sumAmps, scaleFactor []float64) ([]float64, error) {
	if len(sumAmps) != len(scaleFactor) {
		return nil, fmt.Errorf("sumamps has %d values, amp_sf has %d", len(sumAmps), len(scaleFactor))
	}
	factor := make([]float64, len(scaleFactor))
	for i, sf := range scaleFactor {
		factor[i] = math.Pow(2, sf-1.0)
	}
	out := make([]float64, len(sumAmps))
	floats.MulTo(out, sumAmps, factor)
	for i := range out {
		out[i] /= SampNorm
	}
	return out, nil
}

// PI applies the observation gain to every scaled signal.
func PI(gain float64, samp []float64) []float64 {
	out := make([]float64, len(samp))
	floats.ScaleTo(out, gain, samp)
	return out
}
