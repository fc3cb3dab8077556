package booking

// Confirmation is returned for a booking that committed. Owner and equipment
// fields are empty if the listing could not be re-read afterwards.
type Confirmation struct {
	EquipmentID   string `json:"equipment_id"`
	EquipmentName string `json:"equipment_name"`
	OwnerID       string `json:"owner_id"`
	OwnerName     string `json:"owner_name"`
	OwnerContact  string `json:"owner_contact"`
	District      string `json:"district"`
	Date          string `json:"date"`
	SlotID        string `json:"slot_id"`
	BookedBy      string `json:"booked_by"`
}
