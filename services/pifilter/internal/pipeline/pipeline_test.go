package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/02loveslollipop/hrc-pi-filter/services/pifilter/internal/calib"
	"github.com/02loveslollipop/hrc-pi-filter/services/pifilter/internal/catalogue"
	"github.com/02loveslollipop/hrc-pi-filter/services/pifilter/internal/config"
	"github.com/02loveslollipop/hrc-pi-filter/services/pifilter/internal/photonlist"
	"github.com/02loveslollipop/hrc-pi-filter/services/pifilter/internal/utils"
)

var inputHeader = []string{
	"time", "chipx", "chipy", "tdetx", "tdety", "x", "y",
	"PHA", "samp", "sumamps", "pi",
	"av1", "av2", "av3", "au1", "au2", "au3", "amp_sf",
	"lon (deg)", "lat (deg)", "emiss (deg)", "alt (km)",
}

// photonLine builds an input row whose whole amplifier sum sits on av1.
func photonLine(i int, sumAmps, ampSF float64, lat string) string {
	cells := []string{
		fmt.Sprintf("6.8%03d0e8", i), "1000", "2000", "16000", "16500", "4096.5", "4095.25",
		"99", "0.5", "12", "7",
		strconv.FormatFloat(sumAmps, 'f', -1, 64), "0", "0", "0", "0", "0", strconv.FormatFloat(ampSF, 'f', -1, 64),
		"123.456", lat, "45.00", fmt.Sprintf("row-%d", i),
	}
	return strings.Join(cells, ",")
}

func inputBody() string {
	lines := []string{
		strings.Join(inputHeader, ","),
		photonLine(0, 600, 3, "95.25"),   // PI 16.2 kept
		photonLine(1, 6, 1, "80"),        // PI 0.04 dropped
		photonLine(2, 37000, 1, "100.5"), // PI exactly 250 dropped
		photonLine(3, 1480, 1, "90"),     // PI exactly 10 dropped
		photonLine(4, 14800, 1, "0"),     // PI 100 kept
	}
	return strings.Join(lines, "\n") + "\n"
}

func TestTransform(t *testing.T) {
	table, err := photonlist.Read(strings.NewReader(inputBody()))
	require.NoError(t, err)

	require.NoError(t, Transform(table, 1.0, 15))

	require.Equal(t, 2, table.Len())
	assert.Equal(t, utils.ColumnPI, table.Header[15])
	assert.Len(t, table.Header, len(inputHeader)-len(utils.PriorCalibrationColumns)+1)
	for _, dropped := range utils.PriorCalibrationColumns {
		_, err := table.Index(dropped)
		assert.Error(t, err, "column %s should be dropped", dropped)
	}

	pi, err := table.Floats(utils.ColumnPI)
	require.NoError(t, err)
	assert.InDelta(t, 600*4/148.0, pi[0], 1e-12)
	assert.InDelta(t, 100.0, pi[1], 1e-12)

	lat, err := table.Floats(utils.ColumnLatitude)
	require.NoError(t, err)
	assert.Equal(t, []float64{5.25, -90}, lat)

	latIdx, err := table.Index(utils.ColumnLatitude)
	require.NoError(t, err)
	assert.Equal(t, "-90.0", table.Rows[1][latIdx])

	altIdx, err := table.Index("alt (km)")
	require.NoError(t, err)
	assert.Equal(t, "row-0", table.Rows[0][altIdx])
	assert.Equal(t, "row-4", table.Rows[1][altIdx])
}

func TestTransformErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		column int
	}{
		{"missing amplifier column", "av1,lat (deg)\n1,2\n", 0},
		{"non-numeric amplifier", strings.Replace(inputBody(), ",600,", ",oops,", 1), 15},
		{"column index beyond width", inputBody(), 40},
		{"missing prior calibration column", strings.Replace(inputBody(), "sumamps", "sumamp", 1), 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := photonlist.Read(strings.NewReader(tt.body))
			require.NoError(t, err)
			assert.Error(t, Transform(table, 1.0, tt.column))
		})
	}
}

type fixture struct {
	cfg   config.Config
	input string
}

func newFixture(t *testing.T, obsID string) fixture {
	t.Helper()
	dir := t.TempDir()

	input := filepath.Join(dir, obsID+"_photonlist_full_obs_ellipse.txt")
	require.NoError(t, os.WriteFile(input, []byte(inputBody()), 0o644))

	ids := filepath.Join(dir, "ObsIDs_with_samp.txt")
	require.NoError(t, os.WriteFile(ids, []byte("1862\t1\n18608\t1\n"), 0o644))

	cat := excelize.NewFile()
	defer cat.Close()
	require.NoError(t, cat.SetCellValue("Sheet1", "A1", "ObsID"))
	require.NoError(t, cat.SetCellValue("Sheet1", "B1", "Start Date"))
	require.NoError(t, cat.SetCellValue("Sheet1", "A2", 18608))
	require.NoError(t, cat.SetCellValue("Sheet1", "B2", "2016-07-02T00:00:00"))
	catPath := filepath.Join(dir, "catalogue_all_data.xlsx")
	require.NoError(t, cat.SaveAs(catPath))

	return fixture{
		cfg: config.Config{
			ObsID:         obsID,
			FolderPath:    dir,
			CataloguePath: catPath,
			SampIDsPath:   ids,
			PIColumnIndex: 15,
		},
		input: input,
	}
}

func TestRun(t *testing.T) {
	fx := newFixture(t, "18608")

	result, err := Run(fx.cfg)
	require.NoError(t, err)

	summary := result.Summary
	assert.Equal(t, 18608, summary.ObsID)
	assert.Equal(t, "primary", string(summary.Layout))
	assert.Equal(t, time.Date(2016, time.July, 2, 0, 0, 0, 0, time.UTC), summary.StartDate)
	assert.InDelta(t, 2016.5, summary.DecimalYear, 1e-12)
	assert.InDelta(t, calib.Gain(2016.5), summary.Gain, 1e-12)
	assert.Equal(t, 5, summary.InputRows)
	assert.LessOrEqual(t, summary.OutputRows, summary.InputRows)
	assert.Equal(t, fx.cfg.OutputPath(), summary.OutputPath)

	written, err := photonlist.Load(fx.cfg.OutputPath())
	require.NoError(t, err)
	assert.Equal(t, result.Table, written)
	assert.Equal(t, summary.OutputRows, written.Len())

	pi, err := written.Floats(utils.ColumnPI)
	require.NoError(t, err)
	for _, v := range pi {
		assert.Greater(t, v, utils.PIMin)
		assert.Less(t, v, utils.PIMax)
		assert.LessOrEqual(t, summary.PIMin, v)
		assert.GreaterOrEqual(t, summary.PIMax, v)
	}
	assert.Equal(t, 3, summary.OutputRows)

	input, err := photonlist.Load(fx.input)
	require.NoError(t, err)
	assertPassThrough(t, input, written)
}

// assertPassThrough checks every surviving row against its input row: all
// kept columns are identical except latitude, which is shifted by -90.
func assertPassThrough(t *testing.T, input, output *photonlist.Table) {
	t.Helper()
	key, err := input.Index("alt (km)")
	require.NoError(t, err)
	byKey := make(map[string][]string, input.Len())
	for _, row := range input.Rows {
		byKey[row[key]] = row
	}

	outKey, err := output.Index("alt (km)")
	require.NoError(t, err)
	for _, row := range output.Rows {
		src, ok := byKey[row[outKey]]
		require.True(t, ok)
		for j, name := range output.Header {
			if name == utils.ColumnPI {
				continue
			}
			i, err := input.Index(name)
			require.NoError(t, err)
			if name == utils.ColumnLatitude {
				in, err := strconv.ParseFloat(src[i], 64)
				require.NoError(t, err)
				out, err := strconv.ParseFloat(row[j], 64)
				require.NoError(t, err)
				assert.Equal(t, in-90, out)
				continue
			}
			assert.Equal(t, src[i], row[j], "column %s", name)
		}
	}
}

func TestRunIsIdempotent(t *testing.T) {
	fx := newFixture(t, "18608")

	_, err := Run(fx.cfg)
	require.NoError(t, err)
	first, err := os.ReadFile(fx.cfg.OutputPath())
	require.NoError(t, err)

	_, err = Run(fx.cfg)
	require.NoError(t, err)
	second, err := os.ReadFile(fx.cfg.OutputPath())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRunMissingObservation(t *testing.T) {
	fx := newFixture(t, "4242")

	_, err := Run(fx.cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, catalogue.ErrObservationNotFound))

	_, statErr := os.Stat(fx.cfg.OutputPath())
	assert.True(t, os.IsNotExist(statErr), "no output should be written")
}

func TestRunMissingInputs(t *testing.T) {
	fx := newFixture(t, "18608")
	fx.cfg.SampIDsPath = filepath.Join(fx.cfg.FolderPath, "absent.txt")
	_, err := Run(fx.cfg)
	assert.Error(t, err)

	fx = newFixture(t, "18608")
	require.NoError(t, os.Remove(fx.input))
	_, err = Run(fx.cfg)
	assert.Error(t, err)
}
