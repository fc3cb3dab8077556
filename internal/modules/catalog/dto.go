package catalog

import "agrirent/internal/domain"

// CreateEquipmentRequest is the body of POST /equipment. OwnerID may be left
// empty when the request carries a token; it is taken from the token then.
type CreateEquipmentRequest struct {
	OwnerID      string                `json:"owner_id"`
	OwnerName    string                `json:"owner_name" binding:"required"`
	OwnerContact string                `json:"owner_contact" binding:"required"`
	Name         string                `json:"name" binding:"required"`
	Description  string                `json:"description"`
	Category     string                `json:"category" binding:"required"`
	PricePerHour float64               `json:"price_per_hour" binding:"gte=0"`
	Images       []string              `json:"images"`
	Location     domain.GeoPoint       `json:"location"`
	Address      string                `json:"address"`
	District     string                `json:"district" binding:"required"`
	Village      string                `json:"village"`
	Availability []domain.Availability `json:"availability"`
}

type NearbyParams struct {
	Lat      float64
	Lng      float64
	RadiusKm float64 // 0 means the configured default
	Category string
	Limit    int // 0 means the configured cap
}

// NearbyItem is one search hit; the equipment fields are inlined.
type NearbyItem struct {
	domain.Equipment
	DistanceKm float64 `json:"distance_km"`
}

// NearbyLimits bound radius searches.
type NearbyLimits struct {
	DefaultRadiusKm float64
	MaxRadiusKm     float64
	MaxResults      int
}
