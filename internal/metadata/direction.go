package metadata

import "math"

// DirectionError is the direction label of azimuths outside every sector.
const DirectionError = "err"

type sector struct {
	name     string
	from, to float64
}

// Sector bounds are exclusive. Azimuths exactly on a bound, and those in the
// (292.5, 295.5] band between W and NW, belong to no sector.
var sectors = []sector{
	{"NE", 22.5, 67.5},
	{"E", 67.5, 112.5},
	{"SE", 112.5, 157.5},
	{"S", 157.5, 202.5},
	{"SW", 202.5, 247.5},
	{"W", 247.5, 292.5},
	{"NW", 295.5, 337.5},
}

// Direction maps an azimuth in degrees to its compass label.
func Direction(azimuth float64) string {
	if azimuth > 337.5 || azimuth < 22.5 {
		return "N"
	}
	for _, s := range sectors {
		if azimuth > s.from && azimuth < s.to {
			return s.name
		}
	}
	return DirectionError
}

// RoundAzimuth rounds an azimuth to whole degrees within [0, 360).
func RoundAzimuth(azimuth float64) int {
	a := int(math.Round(azimuth))
	if a >= 360 {
		a -= 360
	}
	return a
}
