package venues

import (
	"time"

	"slotbook/internal/slots"
)

// Collection is the document collection holding venue aggregates.
const Collection = "venues"

// Venue is stored as a single document: its slot definitions and the
// capacity ledger always change together in one transaction.
type Venue struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Timezone  string           `json:"timezone"`
	Slots     []slots.TimeSlot `json:"slots"`
	Ledger    Ledger           `json:"ledger"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Location resolves the venue timezone, defaulting to UTC.
func (v *Venue) Location() *time.Location {
	if v.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(v.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Slot looks a slot up by key.
func (v *Venue) Slot(key slots.Key) (slots.TimeSlot, bool) {
	for _, s := range v.Slots {
		if s.Key() == key {
			return s, true
		}
	}
	return slots.TimeSlot{}, false
}

func (v *Venue) slotIndex(key slots.Key) int {
	for i, s := range v.Slots {
		if s.Key() == key {
			return i
		}
	}
	return -1
}
