package utils

import (
	"math"
	"strconv"
	"strings"

	"github.com/02loveslollipop/hrc-pi-filter/services/pifilter/internal/models"
	"github.com/02loveslollipop/hrc-pi-filter/services/pifilter/internal/photonlist"
)

// Photon list column names.
const (
	ColumnPI       = "PI"
	ColumnLatitude = "lat (deg)"
)

// PriorCalibrationColumns are the upstream calibration columns replaced by
// the recomputed PI.
var PriorCalibrationColumns = []string{"PHA", "samp", "sumamps", "pi"}

// AmplifierColumns are read in this order: av1, av2, av3, au1, au2, au3, amp_sf.
var AmplifierColumns = []string{"av1", "av2", "av3", "au1", "au2", "au3", "amp_sf"}

// Accepted PI channel range, exclusive at both ends.
const (
	PIMin = 10.0
	PIMax = 250.0
)

// LatitudeOffset remaps latitude from [0,180] to [-90,90].
const LatitudeOffset = -90.0

// InPIRange reports whether pi lies strictly inside (PIMin, PIMax).
func InPIRange(pi float64) bool {
	return pi > PIMin && pi < PIMax
}

// ShiftLatitude applies LatitudeOffset to every value.
func ShiftLatitude(lat []float64) []float64 {
	out := make([]float64, len(lat))
	for i, v := range lat {
		out[i] = v + LatitudeOffset
	}
	return out
}

// FormatFloat renders v as the shortest decimal that round-trips, switching
// to exponent notation outside [1e-4, 1e16) and always keeping a fractional
// part in fixed notation (90 -> "90.0", 1.5e-05 -> "1.5e-05").
func FormatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return ""
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}

	sci := strconv.FormatFloat(v, 'e', -1, 64)
	exp, _ := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if v != 0 && (exp < -4 || exp >= 16) {
		return sci
	}

	fixed := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsRune(fixed, '.') {
		fixed += ".0"
	}
	return fixed
}

// FormatColumn renders every value with FormatFloat.
func FormatColumn(values []float64) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = FormatFloat(v)
	}
	return out
}

// BuildPhotonRows converts a filtered table into publishable rows. PI and
// latitude are parsed back from the table so stored values match the file.
func BuildPhotonRows(t *photonlist.Table) ([]models.PhotonRow, error) {
	pi, err := t.Floats(ColumnPI)
	if err != nil {
		return nil, err
	}
	lat, err := t.Floats(ColumnLatitude)
	if err != nil {
		return nil, err
	}

	rows := make([]models.PhotonRow, 0, t.Len())
	for i, record := range t.Rows {
		fields := make(map[string]string, len(t.Header))
		for j, name := range t.Header {
			if name == ColumnPI || name == ColumnLatitude {
				continue
			}
			fields[name] = record[j]
		}
		rows = append(rows, models.PhotonRow{
			RowIndex: i,
			PI:       pi[i],
			LatDeg:   lat[i],
			Fields:   fields,
		})
	}
	return rows, nil
}
