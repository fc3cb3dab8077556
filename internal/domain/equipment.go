package domain

import (
	"errors"
	"math"
	"strings"
	"time"
)

var ErrInvalidLocation = errors.New("invalid location")

// GeoPoint is a GeoJSON point; Coordinates are [longitude, latitude].
type GeoPoint struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

func NewGeoPoint(lat, lng float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: []float64{lng, lat}}
}

func (p GeoPoint) Lng() float64 { return p.Coordinates[0] }
func (p GeoPoint) Lat() float64 { return p.Coordinates[1] }

func (p GeoPoint) Validate() error {
	if p.Type != "Point" || len(p.Coordinates) != 2 {
		return ErrInvalidLocation
	}
	lng, lat := p.Coordinates[0], p.Coordinates[1]
	if math.IsNaN(lng) || math.IsNaN(lat) || math.IsInf(lng, 0) || math.IsInf(lat, 0) {
		return ErrInvalidLocation
	}
	if lng < -180 || lng > 180 || lat < -90 || lat > 90 {
		return ErrInvalidLocation
	}
	return nil
}

type Equipment struct {
	ID           string         `json:"id"`
	OwnerID      string         `json:"owner_id"`
	OwnerName    string         `json:"owner_name"`
	OwnerContact string         `json:"owner_contact"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Category     string         `json:"category"`
	PricePerHour float64        `json:"price_per_hour"`
	Images       []string       `json:"images"`
	Location     GeoPoint       `json:"location"`
	Address      string         `json:"address"`
	District     string         `json:"district"`
	Village      string         `json:"village"`
	Availability []Availability `json:"availability"`
	CreatedAt    time.Time      `json:"created_at"`
}

// RoomKey is the notification room for listings in a district.
func (e *Equipment) RoomKey() string {
	return RoomKey(e.District)
}

// RoomKey derives the notification room name from a district. Matching is
// case-insensitive and ignores surrounding whitespace.
func RoomKey(district string) string {
	return "rental_" + strings.ToLower(strings.TrimSpace(district))
}
