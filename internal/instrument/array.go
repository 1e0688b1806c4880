package instrument

import (
	"bufio"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/geovolt/geophygis/pkg/survey"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// headerValues is the number of leading values of a data file that describe the
// array rather than electrode positions: spacing, array code, point count,
// x-location type and the IP flag.
const headerValues = 5

// ParseArrayFile reads the array geometry of a resistivity data file.
func ParseArrayFile(path string) (*survey.ArrayFileHeader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	header, err := parseArray(f, path)
	if err != nil {
		return nil, err
	}
	zap.S().Named("instrument").Debugf("parsed %s: spacing=%v array=%s length=%v", path, header.BaseSpacing, header.ArrayType, header.ProfileLength)
	return header, nil
}

// ParseArrayData reads the array geometry from r. The first line is the profile title.
func ParseArrayData(r io.Reader) (*survey.ArrayFileHeader, error) {
	return parseArray(r, "<data>")
}

func parseArray(r io.Reader, name string) (*survey.ArrayFileHeader, error) {
	var values []float64
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if line == 1 {
			continue
		}
		text := strings.TrimRight(scanner.Text(), "\r\n")
		if strings.TrimSpace(text) == "" {
			continue
		}
		v, err := strconv.ParseFloat(firstField(text), 64)
		if err != nil {
			return nil, &ParseError{Path: name, Line: line, Err: errors.Wrap(err, "invalid leading value")}
		}
		values = append(values, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, &ParseError{Path: name, Err: errors.Wrap(err, "reading data file")}
	}

	positions := make([]int, len(values))
	for i, v := range values {
		positions[i] = int(math.Trunc(v))
	}
	for len(positions) > 0 && positions[len(positions)-1] == 0 {
		positions = positions[:len(positions)-1]
	}
	if len(positions) <= headerValues {
		return nil, &ParseError{Path: name, Err: ErrNoElectrodes}
	}

	minElectrode, maxElectrode := positions[headerValues], positions[headerValues]
	for _, p := range positions[headerValues+1:] {
		minElectrode = min(minElectrode, p)
		maxElectrode = max(maxElectrode, p)
	}

	spacing := values[0]
	code := positions[1]
	arrayType := survey.ArrayTypeFromCode(code)
	return &survey.ArrayFileHeader{
		BaseSpacing:        spacing,
		ArrayCode:          code,
		ArrayType:          arrayType,
		ElectrodePositions: positions,
		MinElectrode:       minElectrode,
		MaxElectrode:       maxElectrode,
		ProfileLength:      arrayType.ProfileLength(minElectrode, maxElectrode, spacing),
	}, nil
}

// firstField returns the first value of a data line. Lines indented with a space are
// space separated, any other line is tab separated.
func firstField(line string) string {
	sep := "\t"
	if line[0] == ' ' {
		sep = " "
	}
	field, _, _ := strings.Cut(strings.TrimLeft(line, " \t"), sep)
	if i := strings.IndexAny(field, " \t"); i >= 0 {
		field = field[:i]
	}
	return field
}
