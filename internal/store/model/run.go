package model

import (
	"encoding/json"
	"time"

	"github.com/geovolt/geophygis/pkg/survey"
	"github.com/google/uuid"
)

type Run struct {
	ID         uuid.UUID `gorm:"primaryKey;"`
	Direction  string    `gorm:"index;not null"`
	ParentDir  string    `gorm:"not null"`
	Workspace  string
	StartedAt  time.Time
	FinishedAt *time.Time
	Profiles   []Profile `gorm:"foreignKey:RunID;references:ID;constraint:OnDelete:CASCADE;"`
}

type RunList []Run

func NewRun(id uuid.UUID, direction, parentDir, workspace string, startedAt time.Time) Run {
	return Run{
		ID:        id,
		Direction: direction,
		ParentDir: parentDir,
		Workspace: workspace,
		StartedAt: startedAt,
	}
}

func (r Run) String() string {
	val, _ := json.Marshal(r)
	return string(val)
}

// Failures counts the profiles of the run that did not complete.
func (r Run) Failures() int {
	n := 0
	for _, p := range r.Profiles {
		if p.Status != StatusOK {
			n++
		}
	}
	return n
}

// Profile statuses
const (
	StatusOK         = "ok"
	StatusNotFound   = "not_found"
	StatusParseError = "parse_error"
)

type Profile struct {
	RunID         uuid.UUID `gorm:"primaryKey;column:run_id;"`
	ProfileID     string    `gorm:"primaryKey;column:profile_id;type:VARCHAR;size:100;"`
	Status        string    `gorm:"column:status;type:VARCHAR;size:20;not null"`
	Message       string
	ProfileLength *float64
	BaseSpacing   *float64
	ArrayName     string
	FieldLength   string
	Date          string
	Time          string
	Device        string
	Operator      string
	Notes         string
}

// NewProfileFromMetadata records a successfully read profile.
func NewProfileFromMetadata(runID uuid.UUID, m *survey.ProfileMetadata) Profile {
	length, spacing := m.ProfileLength, m.BaseSpacing
	p := Profile{
		RunID:         runID,
		ProfileID:     m.ID,
		Status:        StatusOK,
		ProfileLength: &length,
		BaseSpacing:   &spacing,
		ArrayName:     m.ArrayName,
	}
	if d := m.Device; d != nil {
		p.FieldLength = d.FieldLength
		p.Date = d.Date
		p.Time = d.Time
		p.Device = d.Device
		p.Operator = d.Operator
		p.Notes = d.Notes
	}
	return p
}

// NewWrittenProfile records an exported profile, which carries no metadata.
func NewWrittenProfile(runID uuid.UUID, profileID string) Profile {
	return Profile{RunID: runID, ProfileID: profileID, Status: StatusOK}
}

// NewFailedProfile records a profile that could not be processed.
func NewFailedProfile(runID uuid.UUID, profileID, status, message string) Profile {
	return Profile{
		RunID:     runID,
		ProfileID: profileID,
		Status:    status,
		Message:   message,
	}
}
