package geometry

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"
)

// Mode selects how line features are measured.
type Mode string

const (
	// Planar measures in the units of a projected CRS.
	Planar Mode = "planar"
	// Geodesic treats coordinates as WGS84 lon/lat and measures in meters.
	Geodesic Mode = "geodesic"
)

// ParseMode validates a measurement mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case Planar, "":
		return Planar, nil
	case Geodesic:
		return Geodesic, nil
	default:
		return "", fmt.Errorf("unknown measurement mode %q", s)
	}
}

// Length returns the length of a line geometry.
func Length(g orb.Geometry, mode Mode) float64 {
	if g == nil {
		return 0
	}
	if mode == Geodesic {
		return geo.Length(g)
	}
	return planar.Length(g)
}

// Endpoints returns the first and last vertex of a line geometry.
func Endpoints(g orb.Geometry) (orb.Point, orb.Point, bool) {
	switch t := g.(type) {
	case orb.LineString:
		if len(t) == 0 {
			return orb.Point{}, orb.Point{}, false
		}
		return t[0], t[len(t)-1], true
	case orb.MultiLineString:
		var first, last orb.LineString
		for _, ls := range t {
			if len(ls) == 0 {
				continue
			}
			if first == nil {
				first = ls
			}
			last = ls
		}
		if first == nil {
			return orb.Point{}, orb.Point{}, false
		}
		return first[0], last[len(last)-1], true
	default:
		return orb.Point{}, orb.Point{}, false
	}
}

// Azimuth returns the clockwise angle from north, in degrees within [0, 360),
// of the direction from the first to the last vertex of a line geometry.
func Azimuth(g orb.Geometry, mode Mode) (float64, bool) {
	start, end, ok := Endpoints(g)
	if !ok || start.Equal(end) {
		return 0, false
	}
	var deg float64
	if mode == Geodesic {
		deg = geo.Bearing(start, end)
	} else {
		deg = math.Atan2(end.X()-start.X(), end.Y()-start.Y()) * 180 / math.Pi
	}
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg -= 360
	}
	return deg, true
}
