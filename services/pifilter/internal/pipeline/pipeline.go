package pipeline

import (
	"fmt"
	"log"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/02loveslollipop/hrc-pi-filter/services/pifilter/internal/calib"
	"github.com/02loveslollipop/hrc-pi-filter/services/pifilter/internal/catalogue"
	"github.com/02loveslollipop/hrc-pi-filter/services/pifilter/internal/config"
	"github.com/02loveslollipop/hrc-pi-filter/services/pifilter/internal/models"
	"github.com/02loveslollipop/hrc-pi-filter/services/pifilter/internal/obsids"
	"github.com/02loveslollipop/hrc-pi-filter/services/pifilter/internal/photonlist"
	"github.com/02loveslollipop/hrc-pi-filter/services/pifilter/internal/utils"
)

// Result is a finished run: the filtered table and its summary.
type Result struct {
	Table   *photonlist.Table
	Summary models.RunSummary
}

// Run loads the inputs named by cfg, recomputes PI, filters and writes the
// output photon list.
func Run(cfg config.Config) (Result, error) {
	obsID := cfg.ObsIDNumber()

	sampIDs, err := obsids.Load(cfg.SampIDsPath)
	if err != nil {
		return Result{}, err
	}
	layout := sampIDs.Layout(obsID)
	log.Printf("obsID %d uses the %s layout (%d samp observations listed)", obsID, layout, len(sampIDs))

	table, err := photonlist.Load(cfg.InputPath())
	if err != nil {
		return Result{}, err
	}
	log.Printf("loaded %d photons from %s", table.Len(), cfg.InputPath())

	cat, err := catalogue.Open(cfg.CataloguePath, cfg.CatalogueSheet)
	if err != nil {
		return Result{}, err
	}
	obs, err := cat.Lookup(obsID)
	if err != nil {
		return Result{}, err
	}

	decYear := calib.DecimalYear(obs.StartDate)
	gain := calib.Gain(decYear)
	log.Printf("obsID %d started %s (decimal year %.6f), gain %.6f", obsID, obs.StartDate.Format("2006-01-02T15:04:05"), decYear, gain)

	inputRows := table.Len()
	if err := Transform(table, gain, cfg.PIColumnIndex); err != nil {
		return Result{}, err
	}

	summary := models.RunSummary{
		ObsID:       obsID,
		Layout:      layout,
		StartDate:   obs.StartDate,
		DecimalYear: decYear,
		Gain:        gain,
		InputRows:   inputRows,
		OutputRows:  table.Len(),
		OutputPath:  cfg.OutputPath(),
	}
	if err := summarisePI(table, &summary); err != nil {
		return Result{}, err
	}

	if err := table.Save(cfg.OutputPath()); err != nil {
		return Result{}, err
	}
	log.Printf("kept %d of %d photons with %g < PI < %g, wrote %s", summary.OutputRows, inputRows, utils.PIMin, utils.PIMax, summary.OutputPath)

	return Result{Table: table, Summary: summary}, nil
}

// Transform recomputes PI with the observation gain, replaces the prior
// calibration columns with it at piColumn, remaps latitude and drops
// photons outside the accepted PI range. table is modified in place.
func Transform(table *photonlist.Table, gain float64, piColumn int) error {
	amps, err := readAmplifiers(table)
	if err != nil {
		return err
	}
	sumAmps, err := calib.SumAmps(amps)
	if err != nil {
		return err
	}
	samp, err := calib.Samp(sumAmps, amps.ScaleFactor)
	if err != nil {
		return err
	}
	pi := calib.PI(gain, samp)

	lat, err := table.Floats(utils.ColumnLatitude)
	if err != nil {
		return err
	}

	if err := table.Drop(utils.PriorCalibrationColumns...); err != nil {
		return fmt.Errorf("drop prior calibration: %w", err)
	}
	if err := table.Insert(piColumn, utils.ColumnPI, utils.FormatColumn(pi)); err != nil {
		return err
	}
	if err := table.Set(utils.ColumnLatitude, utils.FormatColumn(utils.ShiftLatitude(lat))); err != nil {
		return err
	}

	table.Filter(func(i int) bool { return utils.InPIRange(pi[i]) })
	return nil
}

func readAmplifiers(table *photonlist.Table) (calib.Amplifiers, error) {
	cols := make([][]float64, len(utils.AmplifierColumns))
	for i, name := range utils.AmplifierColumns {
		values, err := table.Floats(name)
		if err != nil {
			return calib.Amplifiers{}, err
		}
		cols[i] = values
	}
	return calib.Amplifiers{
		AV1: cols[0], AV2: cols[1], AV3: cols[2],
		AU1: cols[3], AU2: cols[4], AU3: cols[5],
		ScaleFactor: cols[6],
	}, nil
}

func summarisePI(table *photonlist.Table, summary *models.RunSummary) error {
	if table.Len() == 0 {
		return nil
	}
	pi, err := table.Floats(utils.ColumnPI)
	if err != nil {
		return err
	}
	summary.PIMin = floats.Min(pi)
	summary.PIMax = floats.Max(pi)
	summary.PIMean = stat.Mean(pi, nil)
	return nil
}
