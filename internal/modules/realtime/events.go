package realtime

import (
	"encoding/json"

	"agrirent/internal/modules/booking"
)

// Inbound message types.
const (
	MsgJoinRoom       = "join_room"
	MsgJoinRentalRoom = "join_rental_room" // older clients
	MsgRequestBooking = "request_booking"
	MsgPing           = "ping"
)

// Outbound event types.
const (
	EventRoomJoined       = "room_joined"
	EventBookingConfirmed = "booking_confirmed"
	EventBookingFailed    = "booking_failed"
	EventBookingError     = "booking_error"
	EventSlotUpdated      = "slot_updated"
	EventPong             = "pong"
	EventError            = "error"
)

// ClientMessage is the envelope of every frame a client sends.
type ClientMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Event is the envelope of every frame the server sends.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type JoinRoomPayload struct {
	District string `json:"district"`
	Village  string `json:"village"`
}

type RoomJoinedPayload struct {
	Room string `json:"room"`
}

type BookingConfirmedPayload struct {
	Message       string `json:"message"`
	OwnerContact  string `json:"owner_contact"`
	OwnerName     string `json:"owner_name"`
	EquipmentName string `json:"equipment_name"`
	EquipmentID   string `json:"equipment_id"`
	Date          string `json:"date"`
	SlotID        string `json:"slot_id"`
}

type MessagePayload struct {
	Message string `json:"message"`
}

type SlotUpdatedPayload struct {
	EquipmentID string `json:"equipment_id"`
	Date        string `json:"date"`
	SlotID      string `json:"slot_id"`
	Status      string `json:"status"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewRoomJoinedEvent(room string) Event {
	return Event{Type: EventRoomJoined, Data: RoomJoinedPayload{Room: room}}
}

func NewBookingConfirmedEvent(conf *booking.Confirmation) Event {
	ownerName := conf.OwnerName
	if ownerName == "" {
		ownerName = "Owner"
	}
	equipmentName := conf.EquipmentName
	if equipmentName == "" {
		equipmentName = "Equipment"
	}
	return Event{Type: EventBookingConfirmed, Data: BookingConfirmedPayload{
		Message:       "Booking confirmed!",
		OwnerContact:  conf.OwnerContact,
		OwnerName:     ownerName,
		EquipmentName: equipmentName,
		EquipmentID:   conf.EquipmentID,
		Date:          conf.Date,
		SlotID:        conf.SlotID,
	}}
}

func NewBookingFailedEvent(message string) Event {
	return Event{Type: EventBookingFailed, Data: MessagePayload{Message: message}}
}

func NewBookingErrorEvent(message string) Event {
	return Event{Type: EventBookingError, Data: MessagePayload{Message: message}}
}

func NewSlotUpdatedEvent(equipmentID, date, slotID string) Event {
	return Event{Type: EventSlotUpdated, Data: SlotUpdatedPayload{
		EquipmentID: equipmentID,
		Date:        date,
		SlotID:      slotID,
		Status:      "booked",
	}}
}

func NewPongEvent() Event {
	return Event{Type: EventPong}
}

func NewErrorEvent(code, message string) Event {
	return Event{Type: EventError, Data: ErrorPayload{Code: code, Message: message}}
}
