package domain

import "math"

const earthMajorRadius = 6378137.0

// Mercator projects WGS84 degrees onto web-Mercator metres.
func Mercator(lat, lng float64) (mlat, mlng float64) {
	mlng = earthMajorRadius * lng * math.Pi / 180.0
	mlat = earthMajorRadius * math.Log(math.Tan(math.Pi/4.0+lat*(math.Pi/180.0)/2.0))
	return mlat, mlng
}
