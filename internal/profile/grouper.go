package profile

import (
	"sort"

	"github.com/geovolt/geophygis/pkg/survey"
)

// Group sorts records by distance and then, stably, by profile ID, and splits the
// result into profiles at every ID change. The input slice is not modified.
func Group(records []survey.PointRecord) []survey.Profile {
	if len(records) == 0 {
		return nil
	}
	sorted := make([]survey.PointRecord, len(records))
	copy(sorted, records)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Distance < sorted[j].Distance
	})
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ProfileID < sorted[j].ProfileID
	})

	var profiles []survey.Profile
	start := 0
	for i := 1; i <= len(sorted); i++ {
		if i < len(sorted) && sorted[i].ProfileID == sorted[i-1].ProfileID {
			continue
		}
		profiles = append(profiles, survey.Profile{
			ID:      sorted[start].ProfileID,
			Records: sorted[start:i:i],
		})
		start = i
	}
	return profiles
}

// Flatten concatenates the records of profiles in order.
func Flatten(profiles []survey.Profile) []survey.PointRecord {
	var out []survey.PointRecord
	for _, p := range profiles {
		out = append(out, p.Records...)
	}
	return out
}
