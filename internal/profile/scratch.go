package profile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/geovolt/geophygis/pkg/survey"
)

// ReadScratch parses a tab separated scratch table of "{ID}\t{distance}\t{elevation}"
// rows. Blank lines are ignored.
func ReadScratch(r io.Reader) ([]survey.PointRecord, error) {
	var records []survey.PointRecord
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) != 3 {
			return nil, fmt.Errorf("scratch line %d: expected 3 fields, got %d", line, len(fields))
		}
		distance, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("scratch line %d: invalid distance: %w", line, err)
		}
		elevation, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("scratch line %d: invalid elevation: %w", line, err)
		}
		records = append(records, survey.PointRecord{
			ProfileID: NormalizeID(fields[0]),
			Distance:  distance,
			Elevation: elevation,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading scratch table: %w", err)
	}
	return records, nil
}

// NormalizeID strips serialization artifacts from a profile ID: surrounding
// whitespace, a b'...' bytes literal wrapper and surrounding quote marks.
func NormalizeID(id string) string {
	id = strings.TrimSpace(id)
	if len(id) >= 3 && id[0] == 'b' && (id[1] == '\'' || id[1] == '"') && id[len(id)-1] == id[1] {
		id = id[2 : len(id)-1]
	}
	for len(id) >= 2 && (id[0] == '\'' || id[0] == '"') && id[len(id)-1] == id[0] {
		id = id[1 : len(id)-1]
	}
	return id
}
