package profile

import (
	"github.com/geovolt/geophygis/pkg/survey"
)

// Window is the outcome of fitting a requested window size to a profile.
type Window struct {
	Requested int
	Effective int
	// Clamped reports that the requested size exceeded half the profile length.
	Clamped bool
}

// FitWindow fits a requested window size to a profile of n samples. A window larger
// than half the profile is clamped to n/2, and the size is forced odd.
func FitWindow(requested, n int) Window {
	w := Window{Requested: requested, Effective: requested}
	if requested <= 0 {
		w.Effective = 0
		return w
	}
	if 2*w.Effective > n {
		w.Effective = n / 2
		w.Clamped = true
	}
	if w.Effective%2 == 0 {
		w.Effective++
	}
	return w
}

// Smooth applies the moving average filter with the requested window size to values.
// A window of zero returns a copy of values. Values at index k < half from either end
// (except the end points themselves) are averaged over a 2k+1 window anchored at
// that end; all means are rounded to two decimals.
func Smooth(values []float64, requested int) ([]float64, Window) {
	out := make([]float64, len(values))
	copy(out, values)

	w := FitWindow(requested, len(values))
	if w.Effective == 0 || len(values) == 0 {
		return out, w
	}

	n := len(values)
	half := (w.Effective - 1) / 2
	for j := half; j < n-half; j++ {
		out[j] = mean(values[j-half : j+half+1])
	}
	for k := 1; k < half; k++ {
		out[k] = mean(values[:2*k+1])
		out[n-1-k] = mean(values[n-1-2*k:])
	}
	return out, w
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return survey.Round(sum/float64(len(values)), 2)
}

// SmoothProfile returns a copy of p with smoothed elevations.
func SmoothProfile(p survey.Profile, requested int) (survey.Profile, Window) {
	smoothed, w := Smooth(p.Elevations(), requested)
	out := survey.Profile{ID: p.ID, Records: make([]survey.PointRecord, len(p.Records))}
	for i, r := range p.Records {
		r.Elevation = smoothed[i]
		out.Records[i] = r
	}
	return out, w
}
