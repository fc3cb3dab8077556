package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"agrirent/internal/domain"
	"agrirent/internal/pkg/geo"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EquipmentRepository struct {
	db *gorm.DB
}

func NewEquipmentRepository(db *gorm.DB) *EquipmentRepository {
	return &EquipmentRepository{db: db}
}

type equipmentModel struct {
	ID           string    `gorm:"column:id;primaryKey;size:36"`
	OwnerID      string    `gorm:"column:owner_id;index;not null"`
	OwnerName    string    `gorm:"column:owner_name"`
	OwnerContact string    `gorm:"column:owner_contact"`
	Name         string    `gorm:"column:name;not null"`
	Description  string    `gorm:"column:description"`
	Category     string    `gorm:"column:category;index"`
	PricePerHour float64   `gorm:"column:price_per_hour"`
	Images       []string  `gorm:"column:images;serializer:json"`
	Latitude     float64   `gorm:"column:latitude;index:idx_equipment_geo,priority:1"`
	Longitude    float64   `gorm:"column:longitude;index:idx_equipment_geo,priority:2"`
	Address      string    `gorm:"column:address"`
	District     string    `gorm:"column:district;index"`
	Village      string    `gorm:"column:village"`
	CreatedAt    time.Time `gorm:"column:created_at"`

	Availability []availabilityModel `gorm:"foreignKey:EquipmentID;constraint:OnDelete:CASCADE"`
}

func (equipmentModel) TableName() string { return "equipment" }

func (m *equipmentModel) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// availabilityModel is one date of an equipment's calendar; (equipment_id, day)
// is unique so a date cannot appear twice for the same listing.
type availabilityModel struct {
	ID          int64  `gorm:"column:id;primaryKey"`
	EquipmentID string `gorm:"column:equipment_id;size:36;not null;uniqueIndex:idx_availability_equipment_day"`
	Day         string `gorm:"column:day;size:10;not null;uniqueIndex:idx_availability_equipment_day"`
	Position    int    `gorm:"column:position"`

	Slots []slotModel `gorm:"foreignKey:AvailabilityID;constraint:OnDelete:CASCADE"`
}

func (availabilityModel) TableName() string { return "equipment_availability" }

type slotModel struct {
	ID             int64      `gorm:"column:id;primaryKey"`
	AvailabilityID int64      `gorm:"column:availability_id;not null;uniqueIndex:idx_slot_availability_slot"`
	SlotID         string     `gorm:"column:slot_id;not null;uniqueIndex:idx_slot_availability_slot"`
	Position       int        `gorm:"column:position"`
	StartTime      string     `gorm:"column:start_time"`
	EndTime        string     `gorm:"column:end_time"`
	IsBooked       bool       `gorm:"column:is_booked;not null"`
	BookedBy       *string    `gorm:"column:booked_by;index"`
	BookedAt       *time.Time `gorm:"column:booked_at"`
}

func (slotModel) TableName() string { return "equipment_time_slots" }

// AutoMigrate creates the catalog tables and the lat/lng index used by FindNearby.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&equipmentModel{}, &availabilityModel{}, &slotModel{})
}

func toEquipmentModel(e *domain.Equipment) equipmentModel {
	m := equipmentModel{
		ID:           e.ID,
		OwnerID:      e.OwnerID,
		OwnerName:    e.OwnerName,
		OwnerContact: e.OwnerContact,
		Name:         e.Name,
		Description:  e.Description,
		Category:     e.Category,
		PricePerHour: e.PricePerHour,
		Images:       e.Images,
		Latitude:     e.Location.Lat(),
		Longitude:    e.Location.Lng(),
		Address:      e.Address,
		District:     e.District,
		Village:      e.Village,
		CreatedAt:    e.CreatedAt,
	}

	m.Availability = make([]availabilityModel, 0, len(e.Availability))
	for i, day := range e.Availability {
		am := availabilityModel{Day: day.Date, Position: i}
		am.Slots = make([]slotModel, 0, len(day.Slots))
		for j, s := range day.Slots {
			am.Slots = append(am.Slots, slotModel{
				SlotID:    s.ID,
				Position:  j,
				StartTime: s.StartTime,
				EndTime:   s.EndTime,
				IsBooked:  s.IsBooked,
				BookedBy:  s.BookedBy,
			})
		}
		m.Availability = append(m.Availability, am)
	}
	return m
}

func toDomainEquipment(m equipmentModel) *domain.Equipment {
	images := m.Images
	if images == nil {
		images = []string{}
	}

	e := &domain.Equipment{
		ID:           m.ID,
		OwnerID:      m.OwnerID,
		OwnerName:    m.OwnerName,
		OwnerContact: m.OwnerContact,
		Name:         m.Name,
		Description:  m.Description,
		Category:     m.Category,
		PricePerHour: m.PricePerHour,
		Images:       images,
		Location:     domain.NewGeoPoint(m.Latitude, m.Longitude),
		Address:      m.Address,
		District:     m.District,
		Village:      m.Village,
		CreatedAt:    m.CreatedAt,
		Availability: make([]domain.Availability, 0, len(m.Availability)),
	}

	for _, am := range m.Availability {
		day := domain.Availability{Date: am.Day, Slots: make([]domain.TimeSlot, 0, len(am.Slots))}
		for _, s := range am.Slots {
			day.Slots = append(day.Slots, domain.TimeSlot{
				ID:        s.SlotID,
				StartTime: s.StartTime,
				EndTime:   s.EndTime,
				IsBooked:  s.IsBooked,
				BookedBy:  s.BookedBy,
			})
		}
		e.Availability = append(e.Availability, day)
	}
	return e
}

func withAvailability(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Availability", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Availability.Slots", func(db *gorm.DB) *gorm.DB { return db.Order("position") })
}

// Create stores the equipment with its whole calendar as one write.
func (r *EquipmentRepository) Create(ctx context.Context, e *domain.Equipment) error {
	m := toEquipmentModel(e)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
		return fmt.Errorf("EquipmentRepository.Create: %w", err)
	}
	*e = *toDomainEquipment(m)
	return nil
}

func (r *EquipmentRepository) GetByID(ctx context.Context, id string) (*domain.Equipment, error) {
	var m equipmentModel
	err := withAvailability(r.db.WithContext(ctx)).First(&m, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("EquipmentRepository.GetByID: %w", err)
	}
	return toDomainEquipment(m), nil
}

func (r *EquipmentRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Equipment, error) {
	var models []equipmentModel
	err := withAvailability(r.db.WithContext(ctx)).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("EquipmentRepository.ListByOwner: %w", err)
	}
	return toDomainList(models), nil
}

// ListBookedBy returns every equipment that has at least one slot booked by userID.
func (r *EquipmentRepository) ListBookedBy(ctx context.Context, userID string) ([]domain.Equipment, error) {
	db := r.db.WithContext(ctx)
	bookedDays := db.Model(&slotModel{}).Select("availability_id").Where("booked_by = ?", userID)
	equipmentIDs := db.Model(&availabilityModel{}).Select("equipment_id").Where("id IN (?)", bookedDays)

	var models []equipmentModel
	err := withAvailability(db).
		Where("id IN (?)", equipmentIDs).
		Order("created_at").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("EquipmentRepository.ListBookedBy: %w", err)
	}
	return toDomainList(models), nil
}

// DeleteByIDAndOwner removes the listing only when ownerID matches. A missing
// id and a foreign owner both report false.
func (r *EquipmentRepository) DeleteByIDAndOwner(ctx context.Context, id, ownerID string) (bool, error) {
	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND owner_id = ?", id, ownerID).Delete(&equipmentModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		days := tx.Model(&availabilityModel{}).Select("id").Where("equipment_id = ?", id)
		if err := tx.Where("availability_id IN (?)", days).Delete(&slotModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("equipment_id = ?", id).Delete(&availabilityModel{}).Error; err != nil {
			return err
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("EquipmentRepository.DeleteByIDAndOwner: %w", err)
	}
	return deleted, nil
}

type NearbyQuery struct {
	Lat      float64
	Lng      float64
	RadiusKm float64
	Category string
	Limit    int
}

type NearbyResult struct {
	Equipment  *domain.Equipment
	DistanceKm float64
}

// FindNearby narrows candidates with the lat/lng index using a bounding box
// around the circle, then keeps those within RadiusKm by great-circle
// distance, nearest first.
func (r *EquipmentRepository) FindNearby(ctx context.Context, q NearbyQuery) ([]NearbyResult, error) {
	box := geo.BoundingBoxAround(q.Lat, q.Lng, q.RadiusKm)
	db := r.db.WithContext(ctx)

	stmt := db.Model(&equipmentModel{}).
		Where("latitude BETWEEN ? AND ?", box.MinLat, box.MaxLat)
	if box.WrapsLng {
		stmt = stmt.Where("(longitude >= ? OR longitude <= ?)", box.MinLng, box.MaxLng)
	} else {
		stmt = stmt.Where("longitude BETWEEN ? AND ?", box.MinLng, box.MaxLng)
	}
	if q.Category != "" {
		stmt = stmt.Where("category = ?", q.Category)
	}

	var candidates []equipmentModel
	if err := stmt.Select("id", "latitude", "longitude").Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("EquipmentRepository.FindNearby: %w", err)
	}

	type hit struct {
		id       string
		distance float64
	}
	hits := make([]hit, 0, len(candidates))
	for _, c := range candidates {
		d := geo.HaversineKm(q.Lat, q.Lng, c.Latitude, c.Longitude)
		if d <= q.RadiusKm {
			hits = append(hits, hit{id: c.ID, distance: d})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].distance != hits[j].distance {
			return hits[i].distance < hits[j].distance
		}
		return hits[i].id < hits[j].id
	})
	if q.Limit > 0 && len(hits) > q.Limit {
		hits = hits[:q.Limit]
	}
	if len(hits) == 0 {
		return []NearbyResult{}, nil
	}

	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.id
	}
	var models []equipmentModel
	if err := withAvailability(db).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("EquipmentRepository.FindNearby: %w", err)
	}
	byID := make(map[string]equipmentModel, len(models))
	for _, m := range models {
		byID[m.ID] = m
	}

	out := make([]NearbyResult, 0, len(hits))
	for _, h := range hits {
		m, ok := byID[h.id]
		if !ok {
			// deleted between the two reads
			continue
		}
		out = append(out, NearbyResult{Equipment: toDomainEquipment(m), DistanceKm: h.distance})
	}
	return out, nil
}

// MarkSlotBooked flips one free slot to booked in a single conditional
// UPDATE. It reports true only when this call performed the transition; a
// booked slot, an unknown date or slot, and an unknown equipment all give false.
func (r *EquipmentRepository) MarkSlotBooked(ctx context.Context, equipmentID, date, slotID, userID string) (bool, error) {
	db := r.db.WithContext(ctx)
	day := db.Model(&availabilityModel{}).
		Select("id").
		Where("equipment_id = ? AND day = ?", equipmentID, date)

	res := db.Model(&slotModel{}).
		Where("slot_id = ? AND is_booked = ? AND availability_id IN (?)", slotID, false, day).
		Updates(map[string]any{
			"is_booked": true,
			"booked_by": userID,
			"booked_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, fmt.Errorf("EquipmentRepository.MarkSlotBooked: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// DescribeSlot reads the current state of a slot. It exists to explain a
// failed MarkSlotBooked and must not gate a write.
func (r *EquipmentRepository) DescribeSlot(ctx context.Context, equipmentID, date, slotID string) (domain.SlotState, error) {
	db := r.db.WithContext(ctx)

	var n int64
	if err := db.Model(&equipmentModel{}).Where("id = ?", equipmentID).Count(&n).Error; err != nil {
		return "", fmt.Errorf("EquipmentRepository.DescribeSlot: %w", err)
	}
	if n == 0 {
		return domain.SlotEquipmentNotFound, nil
	}

	day := db.Model(&availabilityModel{}).
		Select("id").
		Where("equipment_id = ? AND day = ?", equipmentID, date)

	var slot slotModel
	err := db.Where("slot_id = ? AND availability_id IN (?)", slotID, day).First(&slot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.SlotNotFound, nil
	}
	if err != nil {
		return "", fmt.Errorf("EquipmentRepository.DescribeSlot: %w", err)
	}
	if slot.IsBooked {
		return domain.SlotAlreadyBooked, nil
	}
	return domain.SlotFree, nil
}

func toDomainList(models []equipmentModel) []domain.Equipment {
	out := make([]domain.Equipment, 0, len(models))
	for _, m := range models {
		out = append(out, *toDomainEquipment(m))
	}
	return out
}
