package metadata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/geovolt/geophygis/pkg/survey"
	"github.com/paulmach/orb/geojson"
)

// Columns of the metadata table. The first four are always present, the device
// columns only for profiles that have a device header.
const (
	ColumnID          = "ID"
	ColumnLength      = "LENGTH"
	ColumnSpacing     = "SPACING"
	ColumnArray       = "ARRAY"
	ColumnFieldLength = "field_LENGTH"
	ColumnDate        = "DATE"
	ColumnTime        = "TIME"
	ColumnDevice      = "DEVICE"
	ColumnOperator    = "OPERATOR"
	ColumnNotes       = "NOTES"

	separator = ';'
)

var header = []string{
	ColumnID, ColumnLength, ColumnSpacing, ColumnArray,
	ColumnFieldLength, ColumnDate, ColumnTime, ColumnDevice, ColumnOperator, ColumnNotes,
}

// numeric columns are joined as numbers, everything else as text
var numeric = map[string]bool{ColumnLength: true, ColumnSpacing: true}

// Row renders one metadata record as a table row.
func Row(m *survey.ProfileMetadata) []string {
	row := []string{
		m.ID,
		survey.FormatNumber(m.ProfileLength),
		survey.FormatNumber(m.BaseSpacing),
		m.ArrayName,
	}
	if d := m.Device; d != nil {
		row = append(row, d.FieldLength, d.Date, d.Time, d.Device, d.Operator, d.Notes)
	}
	return row
}

// WriteCSV writes the header and one row per record, in the given order.
func WriteCSV(w io.Writer, records []*survey.ProfileMetadata) error {
	cw := csv.NewWriter(w)
	cw.Comma = separator
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing metadata header: %w", err)
	}
	for _, m := range records {
		if err := cw.Write(Row(m)); err != nil {
			return fmt.Errorf("writing metadata row %s: %w", m.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Table is a metadata table indexed by profile ID.
type Table struct {
	columns []string
	rows    map[string][]string
}

// ReadCSV loads a metadata table. Rows may be shorter than the header; a repeated ID
// keeps its first row.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = separator
	cr.FieldsPerRecord = -1

	columns, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("metadata table has no header")
		}
		return nil, fmt.Errorf("reading metadata header: %w", err)
	}
	if len(columns) == 0 || columns[0] != ColumnID {
		return nil, fmt.Errorf("metadata table must start with an %s column", ColumnID)
	}

	t := &Table{columns: columns, rows: map[string][]string{}}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading metadata table: %w", err)
		}
		if _, dup := t.rows[rec[0]]; !dup {
			t.rows[rec[0]] = rec
		}
	}
	return t, nil
}

// Len returns the number of distinct profile IDs.
func (t *Table) Len() int {
	return len(t.rows)
}

// Columns returns the joined column names without the ID column.
func (t *Table) Columns() []string {
	return t.columns[1:]
}

// Lookup returns the joined attributes of a profile. Every column is present in the
// result; columns the row does not carry, and every column of an unknown ID, are nil.
func (t *Table) Lookup(id string) (geojson.Properties, bool) {
	row, ok := t.rows[id]
	props := geojson.Properties{}
	for i, col := range t.columns[1:] {
		idx := i + 1
		if !ok || idx >= len(row) {
			props[col] = nil
			continue
		}
		props[col] = value(col, row[idx])
	}
	return props, ok
}

func value(col, raw string) any {
	if numeric[col] {
		if f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			return f
		}
	}
	return raw
}
