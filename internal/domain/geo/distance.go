package geo

import "github.com/tidwall/geodesic"

// Distance returns the geodesic distance in meters between two points on the
// WGS-84 ellipsoid. It solves the inverse problem with Karney's algorithm,
// which converges for every pair including antipodal points.
//
// The result is symmetric bit for bit and exactly 0 for identical points.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	if lat1 == lat2 && lon1 == lon2 {
		return 0
	}

	// Canonical order keeps floating point rounding identical for (a, b) and (b, a).
	if lat1 > lat2 || (lat1 == lat2 && lon1 > lon2) {
		lat1, lon1, lat2, lon2 = lat2, lon2, lat1, lon1
	}

	var meters float64

	geodesic.WGS84.Inverse(lat1, lon1, lat2, lon2, &meters, nil, nil)

	return meters
}
