// Package geo provides the geographic bounding-box math used to scope
// provider queries. All coordinates use the WGS84 datum (same as GPS).
package geo

// Constants for bounding-box calculations
const (
	// KmPerDegree is the approximate great-circle distance covered by one
	// degree of latitude. Used to turn a radius into a degree offset.
	KmPerDegree = 100.0

	// MinDegreeOffset is the floor applied to the computed degree offset so
	// that very small radii still produce a usable query box.
	MinDegreeOffset = 0.05
)

// RectangleBounds is a geographic box defined by its edge coordinates in
// decimal degrees.
type RectangleBounds struct {
	// North is the northern edge latitude (-90 to +90)
	North float64 `json:"north"`

	// South is the southern edge latitude (-90 to +90)
	South float64 `json:"south"`

	// East is the eastern edge longitude (-180 to +180)
	East float64 `json:"east"`

	// West is the western edge longitude (-180 to +180)
	West float64 `json:"west"`
}

// FromCircle converts a center point and radius in kilometers into a
// bounding rectangle. The offset is a flat-earth approximation
// (radiusKm / 100 degrees, floored at 0.05) applied symmetrically to both
// axes; it is not geodesically exact and large radii near the poles are
// not corrected.
func FromCircle(lat, lon, radiusKm float64) RectangleBounds {
	offset := radiusKm / KmPerDegree
	if offset < MinDegreeOffset {
		offset = MinDegreeOffset
	}

	return Sanitize(RectangleBounds{
		North: lat + offset,
		South: lat - offset,
		East:  lon + offset,
		West:  lon - offset,
	})
}

// FromCorners builds a bounding rectangle from a northwest and southeast
// corner pair. Inverted corners are tolerated; the result is sanitized.
func FromCorners(nwLat, nwLon, seLat, seLon float64) RectangleBounds {
	return Sanitize(RectangleBounds{
		North: nwLat,
		South: seLat,
		East:  seLon,
		West:  nwLon,
	})
}

// Sanitize repairs an inverted rectangle by swapping edges so that
// North >= South and East >= West. It never rejects input and is
// idempotent, so it can be applied after every bounds mutation (manual
// edit, search result, viewport capture) before the box reaches a
// provider query.
func Sanitize(b RectangleBounds) RectangleBounds {
	if b.South > b.North {
		b.North, b.South = b.South, b.North
	}
	if b.West > b.East {
		b.East, b.West = b.West, b.East
	}
	return b
}
