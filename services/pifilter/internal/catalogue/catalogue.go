package catalogue

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/02loveslollipop/hrc-pi-filter/services/pifilter/internal/models"
)

// Catalogue column headers.
const (
	ColumnObsID     = "ObsID"
	ColumnStartDate = "Start Date"
)

var (
	// ErrObservationNotFound is returned when no catalogue row matches.
	ErrObservationNotFound = errors.New("observation not found in catalogue")
	// ErrDuplicateObservation is returned when more than one row matches.
	ErrDuplicateObservation = errors.New("observation listed more than once in catalogue")
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Catalogue holds the rows of the observation spreadsheet.
type Catalogue struct {
	header []string
	rows   [][]string
	// date1904 is set when the workbook counts date serials from 1904.
	date1904 bool
}

// Open reads sheet from the workbook at path. An empty sheet name selects
// the first sheet.
func Open(path, sheet string) (*Catalogue, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open catalogue: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("catalogue %s has no sheets", path)
		}
		sheet = sheets[0]
	}

	props, err := f.GetWorkbookProps()
	if err != nil {
		return nil, fmt.Errorf("read catalogue workbook properties: %w", err)
	}
	date1904 := props.Date1904 != nil && *props.Date1904

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read catalogue sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("catalogue sheet %q is empty", sheet)
	}
	return &Catalogue{header: rows[0], rows: rows[1:], date1904: date1904}, nil
}

// Lookup returns the single observation with the given ID.
func (c *Catalogue) Lookup(obsID int) (models.Observation, error) {
	idCol, err := c.column(ColumnObsID)
	if err != nil {
		return models.Observation{}, err
	}
	dateCol, err := c.column(ColumnStartDate)
	if err != nil {
		return models.Observation{}, err
	}

	match := -1
	for i, row := range c.rows {
		id, ok := parseID(cell(row, idCol))
		if !ok || id != obsID {
			continue
		}
		if match >= 0 {
			return models.Observation{}, fmt.Errorf("obsID %d: %w", obsID, ErrDuplicateObservation)
		}
		match = i
	}
	if match < 0 {
		return models.Observation{}, fmt.Errorf("obsID %d: %w", obsID, ErrObservationNotFound)
	}

	raw := cell(c.rows[match], dateCol)
	start, err := ParseStartDate(raw, c.date1904)
	if err != nil {
		return models.Observation{}, fmt.Errorf("obsID %d: %w", obsID, err)
	}
	return models.Observation{ObsID: obsID, StartDate: start}, nil
}

func (c *Catalogue) column(name string) (int, error) {
	for i, h := range c.header {
		if strings.TrimSpace(h) == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("catalogue has no %q column", name)
}

// GetRows trims trailing empty cells, so short rows are expected.
func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseID(s string) (int, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v != float64(int(v)) {
		return 0, false
	}
	return int(v), true
}

// ParseStartDate accepts an Excel date serial or a textual timestamp and
// returns it in UTC. date1904 selects the workbook's 1904 date system for
// serials.
func ParseStartDate(s string, date1904 bool) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("start date is empty")
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, date1904)
		if err != nil {
			return time.Time{}, fmt.Errorf("start date %q: %w", s, err)
		}
		return t.UTC(), nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised start date %q", s)
}
