package booking

import (
	"context"

	"agrirent/internal/domain"
	"agrirent/internal/queue"
)

// SlotStore is the storage side of a booking. MarkSlotBooked must apply its
// predicate and mutation as one atomic operation.
type SlotStore interface {
	MarkSlotBooked(ctx context.Context, equipmentID, date, slotID, userID string) (bool, error)
	DescribeSlot(ctx context.Context, equipmentID, date, slotID string) (domain.SlotState, error)
	GetByID(ctx context.Context, id string) (*domain.Equipment, error)
}

// EventPublisher forwards confirmed bookings to the message broker.
type EventPublisher interface {
	PublishSlotBooked(ctx context.Context, event queue.SlotBookedEvent) error
}
