package metadata

import (
	"context"
	"math"

	"github.com/geovolt/geophygis/internal/geometry"
	"github.com/geovolt/geophygis/pkg/survey"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
)

// Derived attributes added to every merged line.
const (
	FieldGISLength   = "GIS_LENGTH"
	FieldLengthError = "LEN_ERR_[%]"
	FieldAzimuth     = "AZIM"
	FieldDirection   = "DIRECTION"
)

// FeatureSink receives the merged line features.
type FeatureSink interface {
	Add(f *geojson.Feature)
}

// DocRow is one line of the documentation sheet.
type DocRow struct {
	ID        string
	GISLength float64
	Length    string
	Array     string
	Spacing   string
	Direction string
}

// MergeStats counts the outcome of a merge.
type MergeStats struct {
	Lines     int
	Matched   int
	Unmatched int
}

// Merger joins a metadata table onto survey line features.
type Merger struct {
	table *Table
	mode  geometry.Mode
}

func NewMerger(table *Table, mode geometry.Mode) *Merger {
	return &Merger{table: table, mode: mode}
}

// Merge left-joins the metadata onto every line, adds the derived attributes and
// forwards the result to sink. Input features are not modified. The context is
// checked before each line; on cancellation the rows merged so far are returned
// with the context error.
func (m *Merger) Merge(ctx context.Context, lines []*geojson.Feature, sink FeatureSink) ([]DocRow, MergeStats, error) {
	log := zap.S().Named("metadata")
	var (
		rows  []DocRow
		stats MergeStats
	)
	for _, line := range lines {
		if err := ctx.Err(); err != nil {
			return rows, stats, err
		}
		stats.Lines++

		out, row, matched := m.mergeOne(line)
		if matched {
			stats.Matched++
		} else {
			stats.Unmatched++
			log.Debugf("line %q has no metadata", row.ID)
		}
		sink.Add(out)
		rows = append(rows, row)
	}
	log.Infof("merged %d lines, %d without metadata", stats.Lines, stats.Unmatched)
	return rows, stats, nil
}

func (m *Merger) mergeOne(line *geojson.Feature) (*geojson.Feature, DocRow, bool) {
	out := geojson.NewFeature(line.Geometry)
	out.ID = line.ID
	out.BBox = line.BBox
	out.Properties = line.Properties.Clone()
	if out.Properties == nil {
		out.Properties = geojson.Properties{}
	}

	id, _ := geometry.String(out.Properties, ColumnID)
	joined, matched := m.table.Lookup(id)
	for k, v := range joined {
		out.Properties[k] = v
	}

	gisLength := survey.Round(geometry.Length(line.Geometry, m.mode), 1)
	out.Properties[FieldGISLength] = gisLength

	if length, ok := geometry.Float(out.Properties, ColumnLength); ok && length > 0 {
		out.Properties[FieldLengthError] = LengthError(length, gisLength)
	} else {
		out.Properties[FieldLengthError] = nil
	}

	direction := DirectionError
	if az, ok := geometry.Azimuth(line.Geometry, m.mode); ok {
		azim := RoundAzimuth(az)
		out.Properties[FieldAzimuth] = azim
		direction = Direction(float64(azim))
	} else {
		out.Properties[FieldAzimuth] = nil
	}
	out.Properties[FieldDirection] = direction

	row := DocRow{ID: id, GISLength: survey.Round(gisLength, 2), Direction: direction}
	row.Length, _ = geometry.String(out.Properties, ColumnLength)
	row.Array, _ = geometry.String(out.Properties, ColumnArray)
	row.Spacing, _ = geometry.String(out.Properties, ColumnSpacing)
	return out, row, matched
}

// LengthError is the relative difference between the field and the measured length in
// percent, rounded to 2 decimals.
func LengthError(length, gisLength float64) float64 {
	return survey.Round(math.Abs(length-gisLength)/length*100, 2)
}
