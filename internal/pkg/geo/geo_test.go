package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineKm(t *testing.T) {
	// Kochi -> Thrissur, about 66 km.
	d := HaversineKm(9.9312, 76.2673, 10.5276, 76.2144)
	assert.InDelta(t, 66.5, d, 2.0)

	assert.InDelta(t, 0, HaversineKm(10, 76, 10, 76), 1e-9)

	// one degree of latitude
	assert.InDelta(t, 111.19, HaversineKm(0, 0, 1, 0), 0.05)
}

func TestKmToDegrees(t *testing.T) {
	assert.InDelta(t, 1.0, KmToDegrees(111.195), 1e-3)
}

func TestBoundingBoxAround_ContainsCircle(t *testing.T) {
	lat, lng, radius := 10.0, 76.0, 50.0
	box := BoundingBoxAround(lat, lng, radius)

	assert.False(t, box.WrapsLng)
	assert.True(t, box.Contains(lat, lng))

	// points on the circle at the four compass directions
	deg := KmToDegrees(radius)
	assert.True(t, box.Contains(lat+deg*0.999, lng))
	assert.True(t, box.Contains(lat-deg*0.999, lng))
	assert.True(t, box.Contains(lat, lng+deg*0.99))
	assert.True(t, box.Contains(lat, lng-deg*0.99))

	assert.False(t, box.Contains(lat+1, lng))
	assert.False(t, box.Contains(lat, lng+1))
}

func TestBoundingBoxAround_Antimeridian(t *testing.T) {
	box := BoundingBoxAround(0, 179.9, 50)

	assert.True(t, box.WrapsLng)
	assert.True(t, box.Contains(0, 179.95))
	assert.True(t, box.Contains(0, -179.9))
	assert.False(t, box.Contains(0, 0))
}

func TestBoundingBoxAround_Pole(t *testing.T) {
	box := BoundingBoxAround(89.9, 0, 50)

	assert.Equal(t, -180.0, box.MinLng)
	assert.Equal(t, 180.0, box.MaxLng)
	assert.Equal(t, 90.0, box.MaxLat)
	assert.True(t, box.Contains(89.95, 120))
}
