package geometry

import (
	"fmt"
	"os"

	"github.com/paulmach/orb/geojson"
)

// ReadFeatureCollection loads a GeoJSON feature collection from path.
func ReadFeatureCollection(path string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading features %q: %w", path, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("invalid feature collection %q: %w", path, err)
	}
	return fc, nil
}

// Sink accumulates features and writes them as one feature collection on Close.
// The destination file is created by NewSink so an unusable destination fails early.
type Sink struct {
	file *os.File
	fc   *geojson.FeatureCollection
}

// NewSink creates the destination file for a feature collection.
func NewSink(path string) (*Sink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating feature sink %q: %w", path, err)
	}
	return &Sink{file: f, fc: geojson.NewFeatureCollection()}, nil
}

// Add appends a feature unmodified.
func (s *Sink) Add(f *geojson.Feature) {
	s.fc.Append(f)
}

// Len returns the number of features added so far.
func (s *Sink) Len() int {
	return len(s.fc.Features)
}

// Path returns the destination file name.
func (s *Sink) Path() string {
	return s.file.Name()
}

// Close writes the collection and closes the destination file.
func (s *Sink) Close() error {
	data, err := s.fc.MarshalJSON()
	if err != nil {
		_ = s.file.Close()
		return fmt.Errorf("encoding features: %w", err)
	}
	if _, err := s.file.Write(data); err != nil {
		_ = s.file.Close()
		return fmt.Errorf("writing features %q: %w", s.file.Name(), err)
	}
	return s.file.Close()
}
