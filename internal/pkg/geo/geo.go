// Package geo holds the great-circle math used by the equipment radius search.
package geo

import "math"

const EarthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two points in kilometers.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	lat1Rad := toRad(lat1)
	lat2Rad := toRad(lat2)
	dLat := lat2Rad - lat1Rad
	dLng := toRad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// KmToDegrees converts a distance along a meridian to degrees of latitude.
func KmToDegrees(km float64) float64 {
	return toDeg(km / EarthRadiusKm)
}

// Box is a lat/lng rectangle. When WrapsLng is set the box crosses the
// antimeridian and covers lng >= MinLng OR lng <= MaxLng.
type Box struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
	WrapsLng       bool
}

// Contains reports whether the point lies inside the box.
func (b Box) Contains(lat, lng float64) bool {
	if lat < b.MinLat || lat > b.MaxLat {
		return false
	}
	if b.WrapsLng {
		return lng >= b.MinLng || lng <= b.MaxLng
	}
	return lng >= b.MinLng && lng <= b.MaxLng
}

// BoundingBoxAround returns the smallest box that contains every point within
// radiusKm of (lat, lng). Longitude opens to the full range when the circle
// reaches a pole.
func BoundingBoxAround(lat, lng, radiusKm float64) Box {
	// 1e-9 keeps points sitting exactly on the circle inside the box.
	angular := radiusKm/EarthRadiusKm + 1e-9
	latRad := toRad(lat)

	minLat := latRad - angular
	maxLat := latRad + angular

	if minLat <= -math.Pi/2 || maxLat >= math.Pi/2 {
		return Box{
			MinLat: math.Max(toDeg(minLat), -90),
			MaxLat: math.Min(toDeg(maxLat), 90),
			MinLng: -180,
			MaxLng: 180,
		}
	}

	dLng := math.Asin(math.Min(1, math.Sin(angular)/math.Cos(latRad)))
	minLng := lng - toDeg(dLng)
	maxLng := lng + toDeg(dLng)

	box := Box{MinLat: toDeg(minLat), MaxLat: toDeg(maxLat), MinLng: minLng, MaxLng: maxLng}
	switch {
	case maxLng-minLng >= 360:
		box.MinLng, box.MaxLng = -180, 180
	case minLng < -180:
		box.MinLng, box.WrapsLng = minLng+360, true
	case maxLng > 180:
		box.MaxLng, box.WrapsLng = maxLng-360, true
	}
	return box
}

func toRad(deg float64) float64 { return deg * math.Pi / 180.0 }

func toDeg(rad float64) float64 { return rad * 180.0 / math.Pi }
