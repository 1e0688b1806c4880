package instrument

import (
	"errors"
	"fmt"
)

var (
	// ErrNoElectrodes is returned when a data file holds no electrode records
	// after its header values and trailing zeros are removed.
	ErrNoElectrodes = errors.New("no electrode records")
)

// ParseError reports a data file that could not be interpreted.
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parsing %s line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("parsing %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
