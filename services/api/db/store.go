package db

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store wraps database access helpers.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store backed by a pgx pool.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Observation is a published PI filter run.
type Observation struct {
	ObsID       int       `json:"obs_id"`
	Layout      string    `json:"layout"`
	StartDate   time.Time `json:"start_date"`
	DecimalYear float64   `json:"decimal_year"`
	Gain        float64   `json:"gain"`
	InputRows   int       `json:"input_rows"`
	OutputRows  int       `json:"output_rows"`
	PIMin       float64   `json:"pi_min"`
	PIMean      float64   `json:"pi_mean"`
	PIMax       float64   `json:"pi_max"`
	OutputPath  string    `json:"output_path"`
	ProcessedAt time.Time `json:"processed_at"`
}

// ObservationsPage is one page of observations plus the overall count.
type ObservationsPage struct {
	Observations []Observation `json:"observations"`
	TotalCount   int           `json:"total_count"`
}

const observationColumns = `obs_id, layout, start_date, decimal_year, gain, input_rows, output_rows, pi_min, pi_mean, pi_max, output_path, processed_at`

func scanObservation(row pgx.Row, o *Observation) error {
	return row.Scan(
		&o.ObsID,
		&o.Layout,
		&o.StartDate,
		&o.DecimalYear,
		&o.Gain,
		&o.InputRows,
		&o.OutputRows,
		&o.PIMin,
		&o.PIMean,
		&o.PIMax,
		&o.OutputPath,
		&o.ProcessedAt,
	)
}

// ListObservations returns published runs ordered by observation start.
func (s *Store) ListObservations(ctx context.Context, limit, offset int) (*ObservationsPage, error) {
	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM hrc.observations`).Scan(&total); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+observationColumns+` FROM hrc.observations ORDER BY start_date, obs_id LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	observations := make([]Observation, 0, limit)
	for rows.Next() {
		var o Observation
		if err := scanObservation(rows, &o); err != nil {
			return nil, err
		}
		observations = append(observations, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &ObservationsPage{Observations: observations, TotalCount: total}, nil
}

// GetObservation returns a published run, or nil when obsID is unknown.
func (s *Store) GetObservation(ctx context.Context, obsID int) (*Observation, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+observationColumns+` FROM hrc.observations WHERE obs_id = $1`, obsID)

	var o Observation
	if err := scanObservation(row, &o); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

// Photon is a stored, PI-filtered photon.
type Photon struct {
	RowIndex int               `json:"row_index"`
	PI       float64           `json:"pi"`
	LatDeg   float64           `json:"lat_deg"`
	Fields   map[string]string `json:"fields"`
}

// PhotonQuery holds filters for retrieving photons of one observation.
type PhotonQuery struct {
	ObsID  int
	PIMin  *float64
	PIMax  *float64
	Limit  int
	Offset int
}

// PhotonsPage is one page of photons plus the filtered count.
type PhotonsPage struct {
	Photons    []Photon `json:"photons"`
	TotalCount int      `json:"total_count"`
}

// photonsSQL builds the count and page queries for q. countArgs binds the
// count query; pageArgs additionally binds LIMIT and OFFSET.
func photonsSQL(q PhotonQuery) (countSQL, pageSQL string, countArgs, pageArgs []any) {
	conditions := []string{"obs_id = $1"}
	args := []any{q.ObsID}

	if q.PIMin != nil {
		args = append(args, *q.PIMin)
		conditions = append(conditions, "pi >= $"+strconv.Itoa(len(args)))
	}
	if q.PIMax != nil {
		args = append(args, *q.PIMax)
		conditions = append(conditions, "pi <= $"+strconv.Itoa(len(args)))
	}
	where := " WHERE " + strings.Join(conditions, " AND ")

	limitPos := len(args) + 1
	offsetPos := len(args) + 2

	query := strings.Builder{}
	query.WriteString("SELECT row_index, pi, lat_deg, fields FROM hrc.photons")
	query.WriteString(where)
	query.WriteString(" ORDER BY row_index")
	query.WriteString(" LIMIT $" + strconv.Itoa(limitPos) + " OFFSET $" + strconv.Itoa(offsetPos))

	pageArgs = append(append([]any{}, args...), q.Limit, q.Offset)
	return "SELECT COUNT(*) FROM hrc.photons" + where, query.String(), args, pageArgs
}

// FetchPhotons returns photons in file order, optionally narrowed to a PI
// window (inclusive bounds).
func (s *Store) FetchPhotons(ctx context.Context, q PhotonQuery) (*PhotonsPage, error) {
	countSQL, pageSQL, countArgs, pageArgs := photonsSQL(q)

	var total int
	if err := s.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, pageSQL, pageArgs...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	photons := make([]Photon, 0, q.Limit)
	for rows.Next() {
		var p Photon
		if err := rows.Scan(&p.RowIndex, &p.PI, &p.LatDeg, &p.Fields); err != nil {
			return nil, err
		}
		photons = append(photons, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &PhotonsPage{Photons: photons, TotalCount: total}, nil
}
