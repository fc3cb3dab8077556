package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidAvailability = errors.New("invalid availability")

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Availability is the set of bookable slots on one calendar date.
type Availability struct {
	Date  string     `json:"date"`
	Slots []TimeSlot `json:"slots"`
}

// TimeSlot flips from free to booked exactly once; nothing releases it.
type TimeSlot struct {
	ID        string  `json:"id"`
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	IsBooked  bool    `json:"is_booked"`
	BookedBy  *string `json:"booked_by"`
}

// ValidateAvailability checks the structure supplied at listing time: ISO
// dates that are unique per equipment, and slot ids unique within a date.
func ValidateAvailability(days []Availability) error {
	seenDates := make(map[string]struct{}, len(days))
	for i, day := range days {
		if _, err := time.Parse(DateLayout, day.Date); err != nil {
			return fmt.Errorf("%w: availability[%d].date %q is not YYYY-MM-DD", ErrInvalidAvailability, i, day.Date)
		}
		if _, dup := seenDates[day.Date]; dup {
			return fmt.Errorf("%w: date %s listed more than once", ErrInvalidAvailability, day.Date)
		}
		seenDates[day.Date] = struct{}{}

		seenSlots := make(map[string]struct{}, len(day.Slots))
		for j, slot := range day.Slots {
			if strings.TrimSpace(slot.ID) == "" {
				return fmt.Errorf("%w: %s slot[%d] has no id", ErrInvalidAvailability, day.Date, j)
			}
			if _, dup := seenSlots[slot.ID]; dup {
				return fmt.Errorf("%w: slot id %q repeated on %s", ErrInvalidAvailability, slot.ID, day.Date)
			}
			seenSlots[slot.ID] = struct{}{}

			if err := validateSlotWindow(slot); err != nil {
				return fmt.Errorf("%w: %s slot %q: %v", ErrInvalidAvailability, day.Date, slot.ID, err)
			}
		}
	}
	return nil
}

func validateSlotWindow(slot TimeSlot) error {
	start, err := time.Parse(TimeLayout, slot.StartTime)
	if err != nil {
		return fmt.Errorf("start_time %q is not HH:MM", slot.StartTime)
	}
	end, err := time.Parse(TimeLayout, slot.EndTime)
	if err != nil {
		return fmt.Errorf("end_time %q is not HH:MM", slot.EndTime)
	}
	if !end.After(start) {
		return errors.New("end_time must be after start_time")
	}
	return nil
}

// FindSlot returns the slot with the given id on date, if present.
func FindSlot(days []Availability, date, slotID string) (*TimeSlot, bool) {
	for i := range days {
		if days[i].Date != date {
			continue
		}
		for j := range days[i].Slots {
			if days[i].Slots[j].ID == slotID {
				return &days[i].Slots[j], true
			}
		}
	}
	return nil, false
}
