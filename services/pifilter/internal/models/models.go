package models

import "time"

// Observation is a catalogue entry for a single Chandra observation.
type Observation struct {
	ObsID     int
	StartDate time.Time
}

// Layout names the historical directory layout of an observation.
type Layout string

const (
	LayoutPrimary Layout = "primary" // observation already carried SAMP values
	LayoutRepro   Layout = "repro"
)

// RunSummary captures the outcome of one PI filter run.
type RunSummary struct {
	ObsID       int
	Layout      Layout
	StartDate   time.Time
	DecimalYear float64
	Gain        float64
	InputRows   int
	OutputRows  int
	PIMin       float64
	PIMean      float64
	PIMax       float64
	OutputPath  string
}

// PhotonRow is a filtered photon ready for publishing. Fields holds the
// pass-through columns keyed by header name.
type PhotonRow struct {
	RowIndex int
	PI       float64
	LatDeg   float64
	Fields   map[string]string
}
