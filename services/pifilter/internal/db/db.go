package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/02loveslollipop/hrc-pi-filter/services/pifilter/internal/models"
)

const upsertObservationSQL = `INSERT INTO hrc.observations (obs_id, layout, start_date, decimal_year, gain, input_rows, output_rows, pi_min, pi_mean, pi_max, output_path, processed_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,NOW())
ON CONFLICT (obs_id) DO UPDATE
SET layout = EXCLUDED.layout,
    start_date = EXCLUDED.start_date,
    decimal_year = EXCLUDED.decimal_year,
    gain = EXCLUDED.gain,
    input_rows = EXCLUDED.input_rows,
    output_rows = EXCLUDED.output_rows,
    pi_min = EXCLUDED.pi_min,
    pi_mean = EXCLUDED.pi_mean,
    pi_max = EXCLUDED.pi_max,
    output_path = EXCLUDED.output_path,
    processed_at = NOW()`

// photonColumns is the hrc.photons column order used by photonSource.
var photonColumns = []string{"obs_id", "row_index", "pi", "lat_deg", "fields"}

// photonSource streams photons as COPY rows in photonColumns order.
func photonSource(obsID int, photons []models.PhotonRow) pgx.CopyFromSource {
	return pgx.CopyFromSlice(len(photons), func(i int) ([]any, error) {
		p := photons[i]
		return []any{obsID, p.RowIndex, p.PI, p.LatDeg, p.Fields}, nil
	})
}

// PublishRun stores the run summary and replaces the observation's photons
// in a single transaction, so publishing the same run twice is a no-op.
func PublishRun(ctx context.Context, pool *pgxpool.Pool, summary models.RunSummary, photons []models.PhotonRow) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, upsertObservationSQL,
		summary.ObsID, string(summary.Layout), summary.StartDate, summary.DecimalYear, summary.Gain,
		summary.InputRows, summary.OutputRows, summary.PIMin, summary.PIMean, summary.PIMax, summary.OutputPath,
	); err != nil {
		return fmt.Errorf("upsert observation %d: %w", summary.ObsID, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM hrc.photons WHERE obs_id = $1`, summary.ObsID); err != nil {
		return fmt.Errorf("clear photons for %d: %w", summary.ObsID, err)
	}

	if len(photons) > 0 {
		copied, err := tx.CopyFrom(ctx,
			pgx.Identifier{"hrc", "photons"},
			photonColumns,
			photonSource(summary.ObsID, photons),
		)
		if err != nil {
			return fmt.Errorf("copy photons for %d: %w", summary.ObsID, err)
		}
		if int(copied) != len(photons) {
			return fmt.Errorf("copied %d of %d photons for %d", copied, len(photons), summary.ObsID)
		}
	}

	return tx.Commit(ctx)
}
