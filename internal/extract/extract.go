package extract

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"iter"

	"github.com/geovolt/geophygis/internal/geometry"
	"github.com/geovolt/geophygis/pkg/survey"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
)

const (
	DefaultIDField        = "ID"
	DefaultDistanceField  = "distance"
	DefaultElevationField = "DEM_1"
)

// FeatureSink receives every feature read by the extractor.
type FeatureSink interface {
	Add(f *geojson.Feature)
}

// Options configures which attributes hold the profile identity, the distance along
// the profile and the sampled elevation.
type Options struct {
	IDField        string
	DistanceField  string
	ElevationField string
	// NullValue is an optional second elevation value meaning "no sample".
	NullValue *float64
}

// Stats counts the features seen by one extraction.
type Stats struct {
	Features int
	Records  int
	Skipped  int
}

// Extractor turns sampled point features into point records.
type Extractor struct {
	opts Options
}

// NewExtractor creates an Extractor, filling in the default attribute names.
func NewExtractor(opts Options) *Extractor {
	if opts.IDField == "" {
		opts.IDField = DefaultIDField
	}
	if opts.DistanceField == "" {
		opts.DistanceField = DefaultDistanceField
	}
	if opts.ElevationField == "" {
		opts.ElevationField = DefaultElevationField
	}
	return &Extractor{opts: opts}
}

// Record converts one feature. It reports false when the elevation is a null
// sentinel or unparseable, or when the identity or distance are missing.
func (e *Extractor) Record(f *geojson.Feature) (survey.PointRecord, bool) {
	if f == nil {
		return survey.PointRecord{}, false
	}
	elevation, ok := geometry.Float(f.Properties, e.opts.ElevationField)
	if !ok || elevation == survey.NullElevation {
		return survey.PointRecord{}, false
	}
	if e.opts.NullValue != nil && elevation == *e.opts.NullValue {
		return survey.PointRecord{}, false
	}
	id, ok := geometry.String(f.Properties, e.opts.IDField)
	if !ok {
		return survey.PointRecord{}, false
	}
	distance, ok := geometry.Float(f.Properties, e.opts.DistanceField)
	if !ok {
		return survey.PointRecord{}, false
	}
	return survey.PointRecord{ProfileID: id, Distance: distance, Elevation: elevation}, true
}

// scan yields every feature with its record, or a nil record when the feature is
// not recorded.
func (e *Extractor) scan(features []*geojson.Feature) iter.Seq2[*geojson.Feature, *survey.PointRecord] {
	return func(yield func(*geojson.Feature, *survey.PointRecord) bool) {
		for _, f := range features {
			var rec *survey.PointRecord
			if r, ok := e.Record(f); ok {
				rec = &r
			}
			if !yield(f, rec) {
				return
			}
		}
	}
}

// Records lazily yields the valid records of features.
func (e *Extractor) Records(features []*geojson.Feature) iter.Seq[survey.PointRecord] {
	return func(yield func(survey.PointRecord) bool) {
		for _, r := range e.scan(features) {
			if r == nil {
				continue
			}
			if !yield(*r) {
				return
			}
		}
	}
}

// Run forwards every feature to sink and appends the valid records to the scratch
// table. The context is checked before each feature; on cancellation the features
// already forwarded and written stay in place and ctx.Err() is returned.
func (e *Extractor) Run(ctx context.Context, features []*geojson.Feature, sink FeatureSink, scratch io.Writer) (Stats, error) {
	var stats Stats
	w := NewScratchWriter(scratch)
	for f, r := range e.scan(features) {
		if err := ctx.Err(); err != nil {
			_ = w.Flush()
			return stats, err
		}
		stats.Features++
		sink.Add(f)

		if r == nil {
			stats.Skipped++
			continue
		}
		if err := w.Write(*r); err != nil {
			return stats, err
		}
		stats.Records++
	}
	if err := w.Flush(); err != nil {
		return stats, err
	}
	zap.S().Named("extract").Debugf("extracted %d records from %d features (%d skipped)", stats.Records, stats.Features, stats.Skipped)
	return stats, nil
}

// ScratchWriter appends point records to a tab separated scratch table.
type ScratchWriter struct {
	w *bufio.Writer
}

func NewScratchWriter(w io.Writer) *ScratchWriter {
	return &ScratchWriter{w: bufio.NewWriter(w)}
}

// Write appends one "{ID}\t{distance}\t{elevation}" row.
func (s *ScratchWriter) Write(r survey.PointRecord) error {
	_, err := fmt.Fprintf(s.w, "%s\t%s\t%s\n", r.ProfileID, survey.FormatDecimal(r.Distance), survey.FormatDecimal(r.Elevation))
	if err != nil {
		return fmt.Errorf("writing scratch record: %w", err)
	}
	return nil
}

func (s *ScratchWriter) Flush() error {
	return s.w.Flush()
}
