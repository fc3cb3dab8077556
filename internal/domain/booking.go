package domain

// BookingRequest drives a single slot reservation attempt. It is never stored.
type BookingRequest struct {
	EquipmentID string `json:"equipment_id" validate:"required"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	SlotID      string `json:"slot_id" validate:"required"`
	UserID      string `json:"user_id" validate:"required"`
	UserName    string `json:"user_name" validate:"required"`
	UserContact string `json:"user_contact" validate:"required"`
}

// UserBooking is one slot booked by a user, flattened with its equipment summary.
type UserBooking struct {
	EquipmentID  string   `json:"equipment_id"`
	Name         string   `json:"name"`
	OwnerName    string   `json:"owner_name"`
	OwnerContact string   `json:"owner_contact"`
	Location     GeoPoint `json:"location"`
	Images       []string `json:"images"`
	District     string   `json:"district"`
	Village      string   `json:"village"`
	Date         string   `json:"date"`
	Slot         TimeSlot `json:"slot"`
}

// SlotState explains why a booking attempt did not apply.
type SlotState string

const (
	SlotFree              SlotState = "free"
	SlotAlreadyBooked     SlotState = "already_booked"
	SlotNotFound          SlotState = "slot_not_found"
	SlotEquipmentNotFound SlotState = "equipment_not_found"
)
