package geo

import "math"

// KmPerDegree is the rough planar conversion used throughout the system.
// Thresholds elsewhere (0.01, 0.005 degree windows) are calibrated against
// this approximation, so do not swap it for a geodesic formula.
const KmPerDegree = 111.0

// Point is a latitude/longitude pair in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Window is an axis-aligned degree tolerance. Two points are considered
// nearby when both absolute coordinate deltas fall within the window.
type Window struct {
	Lat float64
	Lng float64
}

// WindowDeg builds a square window of the given tolerance.
func WindowDeg(deg float64) Window {
	return Window{Lat: deg, Lng: deg}
}

// Located is any record carrying a coordinate.
type Located interface {
	Coord() Point
}

// Correlate returns the records whose coordinates fall within the window
// around ref. It is a pure per-axis box filter, not a distance metric.
// An empty input yields an empty result.
func Correlate[T Located](ref Point, records []T, w Window) []T {
	nearby := make([]T, 0, len(records))
	for _, rec := range records {
		p := rec.Coord()
		if math.Abs(p.Lat-ref.Lat) <= w.Lat && math.Abs(p.Lng-ref.Lng) <= w.Lng {
			nearby = append(nearby, rec)
		}
	}
	return nearby
}

// Distance returns the planar degree distance between two points in
// kilometers.
func Distance(a, b Point) float64 {
	dLat := b.Lat - a.Lat
	dLng := b.Lng - a.Lng
	return math.Sqrt(dLat*dLat+dLng*dLng) * KmPerDegree
}

// InCorridor reports whether p lies inside the axis-aligned bounding
// rectangle spanned by a and b, padded on each side. This coarse corridor
// check stands in for a real path buffer.
func InCorridor(p, a, b Point, pad float64) bool {
	return p.Lat >= math.Min(a.Lat, b.Lat)-pad &&
		p.Lat <= math.Max(a.Lat, b.Lat)+pad &&
		p.Lng >= math.Min(a.Lng, b.Lng)-pad &&
		p.Lng <= math.Max(a.Lng, b.Lng)+pad
}
