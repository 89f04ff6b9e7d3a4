package photonlist

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Table is a photon list held as raw text, one row per photon. Cells are
// kept verbatim so columns that are never recomputed round-trip unchanged.
type Table struct {
	Header []string
	Rows   [][]string
}

// Load reads the comma-delimited photon list at path.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open photon list: %w", err)
	}
	defer f.Close()

	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Read parses a photon list whose first record is the header.
func Read(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("photon list is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	t := &Table{Header: header}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read photon: %w", err)
		}
		t.Rows = append(t.Rows, record)
	}
	return t, nil
}

// Len returns the number of photons.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Index returns the position of the named column.
func (t *Table) Index(name string) (int, error) {
	for i, h := range t.Header {
		if h == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("column %q not found", name)
}

// Floats parses the named column. Every cell must be numeric.
func (t *Table) Floats(name string) ([]float64, error) {
	idx, err := t.Index(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[idx]), 64)
		if err != nil {
			return nil, fmt.Errorf("column %q row %d: %q is not numeric", name, i+1, row[idx])
		}
		out[i] = v
	}
	return out, nil
}

// Drop removes the named columns. Every name must exist.
func (t *Table) Drop(names ...string) error {
	drop := make(map[int]bool, len(names))
	for _, name := range names {
		idx, err := t.Index(name)
		if err != nil {
			return err
		}
		drop[idx] = true
	}

	t.Header = keep(t.Header, drop)
	for i, row := range t.Rows {
		t.Rows[i] = keep(row, drop)
	}
	return nil
}

func keep(cells []string, drop map[int]bool) []string {
	out := make([]string, 0, len(cells)-len(drop))
	for i, c := range cells {
		if !drop[i] {
			out = append(out, c)
		}
	}
	return out
}

// Insert adds a column at position pos. values must hold one cell per row.
func (t *Table) Insert(pos int, name string, values []string) error {
	if pos < 0 || pos > len(t.Header) {
		return fmt.Errorf("insert %q at %d: table has %d columns", name, pos, len(t.Header))
	}
	if _, err := t.Index(name); err == nil {
		return fmt.Errorf("column %q already exists", name)
	}
	if len(values) != len(t.Rows) {
		return fmt.Errorf("insert %q: %d values for %d rows", name, len(values), len(t.Rows))
	}

	t.Header = insertAt(t.Header, pos, name)
	for i, row := range t.Rows {
		t.Rows[i] = insertAt(row, pos, values[i])
	}
	return nil
}

func insertAt(cells []string, pos int, v string) []string {
	out := make([]string, 0, len(cells)+1)
	out = append(out, cells[:pos]...)
	out = append(out, v)
	return append(out, cells[pos:]...)
}

// Set overwrites the named column.
func (t *Table) Set(name string, values []string) error {
	idx, err := t.Index(name)
	if err != nil {
		return err
	}
	if len(values) != len(t.Rows) {
		return fmt.Errorf("set %q: %d values for %d rows", name, len(values), len(t.Rows))
	}
	for i, row := range t.Rows {
		row[idx] = values[i]
	}
	return nil
}

// Filter keeps the rows for which keepRow returns true, preserving order.
func (t *Table) Filter(keepRow func(i int) bool) {
	out := t.Rows[:0]
	for i, row := range t.Rows {
		if keepRow(i) {
			out = append(out, row)
		}
	}
	t.Rows = out
}

// Write renders the table as comma-delimited text with a header row.
func (t *Table) Write(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Header); err != nil {
		return err
	}
	if err := writer.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("write photons: %w", err)
	}
	return nil
}

// Save writes the table to path, replacing any existing file.
func (t *Table) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create photon list: %w", err)
	}
	if err := t.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
