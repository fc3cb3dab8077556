// Package queue publishes booking events to RabbitMQ for downstream consumers
// (owner SMS, analytics) that should not query the primary database.
package queue

import "time"

// SlotBookedEvent is published once per confirmed slot booking.
type SlotBookedEvent struct {
	EquipmentID   string    `json:"equipment_id"`
	EquipmentName string    `json:"equipment_name"`
	OwnerID       string    `json:"owner_id"`
	OwnerContact  string    `json:"owner_contact"`
	District      string    `json:"district"`
	Date          string    `json:"date"`
	SlotID        string    `json:"slot_id"`
	UserID        string    `json:"user_id"`
	UserName      string    `json:"user_name"`
	UserContact   string    `json:"user_contact"`
	BookedAt      time.Time `json:"booked_at"`
}
