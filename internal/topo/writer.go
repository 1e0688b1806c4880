package topo

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/geovolt/geophygis/pkg/survey"
	"go.uber.org/zap"
)

const (
	// SourceSuffix is the extension of the resistivity data file of a profile.
	SourceSuffix = ".dat"
	// OutputSuffix is appended to the profile ID to name the merged data file.
	OutputSuffix = "_topo.dat"

	topographyMarker = "2"
	terminatorLines  = 5
	aggregateHeader  = "TOPO of:"
	aggregateEnd     = "###"
)

// ErrInvalidProfileID is returned for profile IDs that cannot name a file inside the
// source and output directories.
var ErrInvalidProfileID = errors.New("invalid profile ID")

// CheckID rejects IDs that are empty, contain a path separator or are not local
// file names.
func CheckID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || !filepath.IsLocal(id) {
		return fmt.Errorf("%w %q", ErrInvalidProfileID, id)
	}
	return nil
}

// Writer merges smoothed topography into copies of the profiles' data files.
type Writer struct {
	sourceDir string
	outputDir string
	aggregate io.Writer
}

// NewWriter creates a Writer reading {ID}.dat from sourceDir, writing {ID}_topo.dat
// into outputDir and appending every topography block to aggregate.
func NewWriter(sourceDir, outputDir string, aggregate io.Writer) *Writer {
	return &Writer{sourceDir: sourceDir, outputDir: outputDir, aggregate: aggregate}
}

// SourcePath returns the data file expected for a profile.
func (w *Writer) SourcePath(id string) (string, error) {
	if err := CheckID(id); err != nil {
		return "", err
	}
	return filepath.Join(w.sourceDir, id+SourceSuffix), nil
}

// OutputPath returns the merged data file written for a profile.
func (w *Writer) OutputPath(id string) (string, error) {
	if err := CheckID(id); err != nil {
		return "", err
	}
	return filepath.Join(w.outputDir, id+OutputSuffix), nil
}

// ProfileID recovers the profile ID from a merged data file path.
func ProfileID(outputPath string) string {
	return strings.TrimSuffix(filepath.Base(outputPath), OutputSuffix)
}

// Write produces the merged data file of p and returns its path. A missing source
// file is reported with an error wrapping os.ErrNotExist and nothing is written.
func (w *Writer) Write(p survey.Profile) (string, error) {
	src, err := w.SourcePath(p.ID)
	if err != nil {
		return "", err
	}
	dest, err := w.OutputPath(p.ID)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return "", fmt.Errorf("reading source data file: %w", err)
	}

	var rows bytes.Buffer
	for _, r := range p.Records {
		fmt.Fprintf(&rows, "%s\t%s\n", survey.FormatDecimal(r.Distance), survey.FormatDecimal(survey.Round(r.Elevation, 3)))
	}

	var out bytes.Buffer
	for _, line := range StripTerminators(data) {
		out.WriteString(line)
		out.WriteByte('\n')
	}
	out.WriteString(topographyMarker + "\n")
	out.WriteString(strconv.Itoa(len(p.Records)) + "\n")
	out.Write(rows.Bytes())
	out.WriteString(strings.Repeat("0\n", terminatorLines))

	if err := os.WriteFile(dest, out.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("writing topography file: %w", err)
	}

	if _, err := fmt.Fprintf(w.aggregate, "%s%s\n%s%s\n", aggregateHeader, p.ID, rows.String(), aggregateEnd); err != nil {
		return "", fmt.Errorf("writing topography log: %w", err)
	}

	zap.S().Named("topo").Debugf("wrote %s (%d points)", dest, len(p.Records))
	return dest, nil
}

// StripTerminators splits a data file into lines and drops the trailing run of
// lines holding a single 0.
func StripTerminators(data []byte) []string {
	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "0" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
