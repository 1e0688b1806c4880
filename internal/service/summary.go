package service

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/geovolt/geophygis/internal/instrument"
	"github.com/geovolt/geophygis/internal/profile"
	"github.com/google/uuid"
)

type ProfileErrorKind int

const (
	FileNotFound ProfileErrorKind = iota
	ParseError
)

func (k ProfileErrorKind) String() string {
	if k == ParseError {
		return "parse error"
	}
	return "file not found"
}

// ProfileError is a recoverable failure of one profile. The run goes on without it.
type ProfileError struct {
	ProfileID string
	Kind      ProfileErrorKind
	Err       error
}

func (e *ProfileError) Error() string {
	return e.Err.Error()
}

func (e *ProfileError) Unwrap() error {
	return e.Err
}

// NewProfileError classifies err as a missing file or a parse failure.
func NewProfileError(profileID string, err error) *ProfileError {
	var perr *instrument.ParseError
	switch {
	case errors.As(err, &perr):
		return &ProfileError{ProfileID: profileID, Kind: ParseError, Err: NewErrProfileParse(profileID, err)}
	case errors.Is(err, os.ErrNotExist):
		return &ProfileError{ProfileID: profileID, Kind: FileNotFound, Err: NewErrProfileNotFound(profileID, err)}
	default:
		return &ProfileError{ProfileID: profileID, Kind: ParseError, Err: NewErrProfileParse(profileID, err)}
	}
}

type WindowAdjustment struct {
	ProfileID string
	Window    profile.Window
}

// Summary reports the outcome of one run.
type Summary struct {
	RunID     uuid.UUID
	Direction string
	Workspace string

	Features  int
	Profiles  int
	Outputs   []string
	Errors    []*ProfileError
	Adjusted  []WindowAdjustment
	Batches   int
	Unmatched int

	InversionFailures int
}

func (s *Summary) addError(err *ProfileError) {
	s.Errors = append(s.Errors, err)
}

// Failed returns the IDs of profiles with at least one error, in report order.
func (s *Summary) Failed() []string {
	seen := map[string]bool{}
	var ids []string
	for _, e := range s.Errors {
		if !seen[e.ProfileID] {
			seen[e.ProfileID] = true
			ids = append(ids, e.ProfileID)
		}
	}
	return ids
}

// Print writes a human readable report of the run.
func (s *Summary) Print(out io.Writer) error {
	w := tabwriter.NewWriter(out, 0, 8, 1, '\t', 0)
	fmt.Fprintf(w, "RUN\t%s\n", s.RunID)
	fmt.Fprintf(w, "DIRECTION\t%s\n", s.Direction)
	if s.Workspace != "" {
		fmt.Fprintf(w, "WORKSPACE\t%s\n", s.Workspace)
	}
	fmt.Fprintf(w, "FEATURES\t%d\n", s.Features)
	fmt.Fprintf(w, "PROFILES\t%d\n", s.Profiles)
	fmt.Fprintf(w, "FAILED\t%d\n", len(s.Failed()))
	fmt.Fprintf(w, "OUTPUTS\t%d\n", len(s.Outputs))
	if s.Direction == "export" {
		fmt.Fprintf(w, "BATCHES\t%d\n", s.Batches)
		fmt.Fprintf(w, "INVERSION FAILURES\t%d\n", s.InversionFailures)
	} else {
		fmt.Fprintf(w, "LINES WITHOUT METADATA\t%d\n", s.Unmatched)
	}
	for _, a := range s.Adjusted {
		fmt.Fprintf(w, "WINDOW\t%s\t%d -> %d\n", a.ProfileID, a.Window.Requested, a.Window.Effective)
	}
	for _, e := range s.Errors {
		fmt.Fprintf(w, "ERROR\t%s\t%s\t%v\n", e.ProfileID, e.Kind, e.Err)
	}
	return w.Flush()
}
