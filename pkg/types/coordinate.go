package types

import (
	"fmt"
	"math"
	"strconv"
)

// Coordinate is a WGS84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate ensures the pair lies within the WGS84 ranges.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) {
		return fmt.Errorf("coordinate: NaN component")
	}
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("coordinate: latitude %f out of range", c.Lat)
	}
	if c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("coordinate: longitude %f out of range", c.Lon)
	}
	return nil
}

// Equal compares two coordinates exactly.
func (c Coordinate) Equal(other Coordinate) bool {
	return c.Lat == other.Lat && c.Lon == other.Lon
}

// LonLat renders the pair in the lon,lat order routing services expect.
func (c Coordinate) LonLat() string {
	return strconv.FormatFloat(c.Lon, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lat, 'f', -1, 64)
}

// Bounds is the smallest box enclosing a set of coordinates.
type Bounds struct {
	SouthWest Coordinate `json:"south_west"`
	NorthEast Coordinate `json:"north_east"`
}

// BoundsOf returns the enclosing box of points; ok is false when points is empty.
func BoundsOf(points []Coordinate) (Bounds, bool) {
	if len(points) == 0 {
		return Bounds{}, false
	}
	b := Bounds{SouthWest: points[0], NorthEast: points[0]}
	for _, p := range points[1:] {
		b.SouthWest.Lat = math.Min(b.SouthWest.Lat, p.Lat)
		b.SouthWest.Lon = math.Min(b.SouthWest.Lon, p.Lon)
		b.NorthEast.Lat = math.Max(b.NorthEast.Lat, p.Lat)
		b.NorthEast.Lon = math.Max(b.NorthEast.Lon, p.Lon)
	}
	return b, true
}
