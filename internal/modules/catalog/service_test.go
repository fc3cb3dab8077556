package catalog

import (
	"context"
	"testing"

	"agrirent/internal/database"
	"agrirent/internal/domain"
	"agrirent/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) *Service {
	t.Helper()
	db, err := database.Connect(":memory:")
	require.NoError(t, err)
	require.NoError(t, repository.AutoMigrate(db))
	return NewService(repository.NewEquipmentRepository(db), testLimits)
}

func TestAddEquipment_ResetsBookingState(t *testing.T) {
	svc := newService(t)
	someone := "someone"

	e, err := svc.AddEquipment(context.Background(), CreateEquipmentRequest{
		OwnerID:      "u1",
		OwnerName:    "Anil",
		OwnerContact: "+91 90000 00001",
		Name:         "Tractor",
		Category:     "tractor",
		Location:     domain.NewGeoPoint(10.52, 76.21),
		District:     " Thrissur ",
		Availability: []domain.Availability{{
			Date:  "2025-01-10",
			Slots: []domain.TimeSlot{{ID: "s1", StartTime: "10:00", EndTime: "13:00", IsBooked: true, BookedBy: &someone}},
		}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "Thrissur", e.District)
	assert.Equal(t, []string{}, e.Images)

	got, err := svc.GetByID(context.Background(), e.ID)
	require.NoError(t, err)
	slot, ok := domain.FindSlot(got.Availability, "2025-01-10", "s1")
	require.True(t, ok)
	assert.False(t, slot.IsBooked)
	assert.Nil(t, slot.BookedBy)
}

func TestFindNearby_LimitCappedByConfig(t *testing.T) {
	svc := newService(t)
	svc.limits.MaxResults = 2

	for i := 0; i < 4; i++ {
		_, err := svc.AddEquipment(context.Background(), CreateEquipmentRequest{
			OwnerID:  "u1",
			Name:     "Tiller",
			Category: "tiller",
			Location: domain.NewGeoPoint(10.5+float64(i)*0.01, 76.2),
			District: "Thrissur",
		})
		require.NoError(t, err)
	}

	items, err := svc.FindNearby(context.Background(), NearbyParams{Lat: 10.5, Lng: 76.2, Limit: 50})
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.LessOrEqual(t, items[0].DistanceKm, items[1].DistanceKm)
}

func TestGetByID_NotFound(t *testing.T) {
	svc := newService(t)

	_, err := svc.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
