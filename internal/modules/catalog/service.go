package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"agrirent/internal/domain"
	"agrirent/internal/metrics"
	"agrirent/internal/pkg/logger"
	"agrirent/internal/pkg/utils"
	"agrirent/internal/repository"
)

type Service struct {
	equipmentRepo *repository.EquipmentRepository
	limits        NearbyLimits
}

func NewService(equipmentRepo *repository.EquipmentRepository, limits NearbyLimits) *Service {
	return &Service{equipmentRepo: equipmentRepo, limits: limits}
}

// AddEquipment stores a new listing and returns it with its generated id.
// Every slot starts free whatever the payload says.
func (s *Service) AddEquipment(ctx context.Context, req CreateEquipmentRequest) (*domain.Equipment, error) {
	if strings.TrimSpace(req.OwnerID) == "" {
		return nil, fmt.Errorf("%w: owner_id is required", ErrValidation)
	}
	if err := req.Location.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := domain.ValidateAvailability(req.Availability); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	days := make([]domain.Availability, len(req.Availability))
	for i, d := range req.Availability {
		slots := make([]domain.TimeSlot, len(d.Slots))
		for j, slot := range d.Slots {
			slot.IsBooked = false
			slot.BookedBy = nil
			slots[j] = slot
		}
		days[i] = domain.Availability{Date: d.Date, Slots: slots}
	}

	e := &domain.Equipment{
		OwnerID:      req.OwnerID,
		OwnerName:    req.OwnerName,
		OwnerContact: req.OwnerContact,
		Name:         req.Name,
		Description:  req.Description,
		Category:     req.Category,
		PricePerHour: req.PricePerHour,
		Images:       utils.CleanImages(req.Images),
		Location:     req.Location,
		Address:      req.Address,
		District:     strings.TrimSpace(req.District),
		Village:      req.Village,
		Availability: days,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.equipmentRepo.Create(ctx, e); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: duplicate availability", ErrValidation)
		}
		return nil, err
	}

	logger.Info().
		Str("equipment_id", e.ID).
		Str("owner_id", e.OwnerID).
		Str("district", e.District).
		Msg("equipment listed")
	return e, nil
}

// FindNearby returns equipment within the radius, nearest first.
func (s *Service) FindNearby(ctx context.Context, p NearbyParams) ([]NearbyItem, error) {
	if math.IsNaN(p.Lat) || p.Lat < -90 || p.Lat > 90 {
		return nil, fmt.Errorf("%w: lat must be within [-90, 90]", ErrValidation)
	}
	if math.IsNaN(p.Lng) || p.Lng < -180 || p.Lng > 180 {
		return nil, fmt.Errorf("%w: lng must be within [-180, 180]", ErrValidation)
	}

	radius := p.RadiusKm
	if radius == 0 {
		radius = s.limits.DefaultRadiusKm
	}
	if math.IsNaN(radius) || radius < 0 || radius > s.limits.MaxRadiusKm {
		return nil, fmt.Errorf("%w: radius must be within (0, %g] km", ErrValidation, s.limits.MaxRadiusKm)
	}

	limit := p.Limit
	if limit <= 0 || limit > s.limits.MaxResults {
		limit = s.limits.MaxResults
	}

	start := time.Now()
	results, err := s.equipmentRepo.FindNearby(ctx, repository.NearbyQuery{
		Lat:      p.Lat,
		Lng:      p.Lng,
		RadiusKm: radius,
		Category: strings.TrimSpace(p.Category),
		Limit:    limit,
	})
	metrics.NearbyQueryDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	items := make([]NearbyItem, 0, len(results))
	for _, r := range results {
		items = append(items, NearbyItem{Equipment: *r.Equipment, DistanceKm: r.DistanceKm})
	}
	return items, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*domain.Equipment, error) {
	e, err := s.equipmentRepo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	return e, err
}

func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]domain.Equipment, error) {
	return s.equipmentRepo.ListByOwner(ctx, ownerID)
}

// ListBookingsByUser flattens every slot booked by userID into one row each,
// in listing then calendar order.
func (s *Service) ListBookingsByUser(ctx context.Context, userID string) ([]domain.UserBooking, error) {
	list, err := s.equipmentRepo.ListBookedBy(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := []domain.UserBooking{}
	for _, e := range list {
		for _, day := range e.Availability {
			for _, slot := range day.Slots {
				if slot.BookedBy == nil || *slot.BookedBy != userID {
					continue
				}
				out = append(out, domain.UserBooking{
					EquipmentID:  e.ID,
					Name:         e.Name,
					OwnerName:    e.OwnerName,
					OwnerContact: e.OwnerContact,
					Location:     e.Location,
					Images:       e.Images,
					District:     e.District,
					Village:      e.Village,
					Date:         day.Date,
					Slot:         slot,
				})
			}
		}
	}
	return out, nil
}

// DeleteEquipment reports false both for an unknown id and for a listing
// owned by someone else.
func (s *Service) DeleteEquipment(ctx context.Context, id, ownerID string) (bool, error) {
	deleted, err := s.equipmentRepo.DeleteByIDAndOwner(ctx, id, ownerID)
	if err != nil {
		return false, err
	}
	if deleted {
		logger.Info().Str("equipment_id", id).Str("owner_id", ownerID).Msg("equipment deleted")
	}
	return deleted, nil
}
