package instrument

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/geovolt/geophygis/pkg/survey"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// deviceHeaderLines is the number of leading lines read from a device header file.
const deviceHeaderLines = 25

// deviceLayout locates the header fields of one device format.
// Line indices are 0-based, in the order field length, date, time, device,
// operator, notes.
type deviceLayout struct {
	lines [6]int
	clean func(string) string
	// blank lists the field positions that are always emptied.
	blank []int
}

var (
	aresIILabel = regexp.MustCompile(`.*: `)
	ares3DLabel = regexp.MustCompile(`.*:\t`)
	ares3DSpace = regexp.MustCompile(`.*: \t`)

	aresIIResidue = []string{"Operator:", "Note:", "Profile length:", " m"}
)

func cleanAresII(s string) string {
	s = strings.ReplaceAll(s, "\t", "")
	s = aresIILabel.ReplaceAllString(s, "")
	for _, r := range aresIIResidue {
		s = strings.ReplaceAll(s, r, "")
	}
	return s
}

func cleanAres3D(s string) string {
	s = ares3DLabel.ReplaceAllString(s, "")
	return ares3DSpace.ReplaceAllString(s, "")
}

var deviceLayouts = map[survey.DeviceFormat]deviceLayout{
	survey.AresII: {lines: [6]int{13, 2, 1, 0, 4, 5}, clean: cleanAresII},
	survey.Ares3D: {lines: [6]int{9, 3, 24, 0, 2, 4}, clean: cleanAres3D, blank: []int{2}},
}

// DetectDeviceFormat picks the layout of a device header from its leading lines.
// Headers that are not recognized as ARES-II are read with the ARES-3D layout.
func DetectDeviceFormat(lines []string) survey.DeviceFormat {
	if len(lines) > 1 && strings.Contains(lines[1], "Time") {
		return survey.AresII
	}
	return survey.Ares3D
}

// ParseDeviceHeaderFile reads the acquisition fields of a device header file.
func ParseDeviceHeaderFile(path string) (*survey.DeviceHeader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h, err := ParseDeviceHeader(f)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	zap.S().Named("instrument").Debugf("parsed %s header %s", h.Format, path)
	return h, nil
}

// ParseDeviceHeader reads the first lines of r and extracts the acquisition fields.
// Extraction is best effort: missing lines yield empty fields.
func ParseDeviceHeader(r io.Reader) (*survey.DeviceHeader, error) {
	lines := make([]string, 0, deviceHeaderLines)
	scanner := bufio.NewScanner(r)
	for len(lines) < deviceHeaderLines && scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r\n"))
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading device header")
	}
	for len(lines) < deviceHeaderLines {
		lines = append(lines, "")
	}

	format := DetectDeviceFormat(lines)
	layout := deviceLayouts[format]

	var fields [6]string
	for i, idx := range layout.lines {
		fields[i] = layout.clean(lines[idx])
	}
	for _, i := range layout.blank {
		fields[i] = ""
	}

	return &survey.DeviceHeader{
		Format:      format,
		FieldLength: fields[0],
		Date:        fields[1],
		Time:        fields[2],
		Device:      fields[3],
		Operator:    fields[4],
		Notes:       fields[5],
	}, nil
}
