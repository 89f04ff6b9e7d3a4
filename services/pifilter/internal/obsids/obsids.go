package obsids

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/02loveslollipop/hrc-pi-filter/services/pifilter/internal/models"
)

// Set lists the observations that originally shipped with SAMP values.
type Set map[int]struct{}

// Load reads the header-less, tab-delimited ID table at path. Only the
// first column is used.
func Load(path string) (Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open samp id table: %w", err)
	}
	defer f.Close()

	return Read(f)
}

// Read parses an ID table from r. Lines whose first field is not an
// integer (a header row, notes) are logged and skipped.
func Read(r io.Reader) (Set, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	set := make(Set)
	line := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read samp id table: %w", err)
		}
		line++
		field := strings.TrimSpace(record[0])
		if field == "" {
			continue
		}
		id, err := strconv.Atoi(field)
		if err != nil {
			log.Printf("samp id table line %d: skipping non-numeric obsID %q", line, field)
			continue
		}
		set[id] = struct{}{}
	}
	return set, nil
}

// Contains reports whether obsID is in the set.
func (s Set) Contains(obsID int) bool {
	_, ok := s[obsID]
	return ok
}

// Layout classifies obsID by data layout.
func (s Set) Layout(obsID int) models.Layout {
	if s.Contains(obsID) {
		return models.LayoutPrimary
	}
	return models.LayoutRepro
}
