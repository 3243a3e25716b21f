package venues

import (
	"errors"
	"fmt"

	"slotbook/internal/slots"
)

var (
	ErrVenueNotFound        = errors.New("venue not found")
	ErrInvalidSlot          = errors.New("slot does not exist at this venue")
	ErrInsufficientCapacity = errors.New("insufficient capacity")
	ErrCapacityBelowBooked  = errors.New("capacity cannot be lower than seats already booked")
	ErrSlotHasBookings      = errors.New("slot still has booked seats")
	ErrInvalidSeatCount     = errors.New("seat count must be positive")
)

// InsufficientCapacityError carries how many seats were still free when a
// request could not be honoured.
type InsufficientCapacityError struct {
	SlotKey   slots.Key
	Requested int
	Available int
}

func (e *InsufficientCapacityError) Error() string {
	return fmt.Sprintf("insufficient capacity at %s: requested %d, available %d", e.SlotKey, e.Requested, e.Available)
}

func (e *InsufficientCapacityError) Unwrap() error {
	return ErrInsufficientCapacity
}

// Ledger maps a slot key to the seats currently committed against it.
// It is only ever mutated inside a store transaction on the owning venue.
type Ledger map[slots.Key]int

// Booked returns the committed seats for key.
func (v *Venue) Booked(key slots.Key) int {
	return v.Ledger[key]
}

// Available is capacity minus booked seats, floored at zero.
func (v *Venue) Available(key slots.Key) (int, error) {
	slot, ok := v.Slot(key)
	if !ok {
		return 0, fmt.Errorf("%s: %w", key, ErrInvalidSlot)
	}
	return max(slot.Capacity-v.Booked(key), 0), nil
}

// Adjust applies delta to the ledger entry for key.
//
// A positive delta must fit in the slot's remaining capacity, otherwise an
// *InsufficientCapacityError is returned and the ledger is untouched. A
// release that would take the count below zero is clamped to zero and the
// clamped amount is returned as drift so the caller can report it.
func (v *Venue) Adjust(key slots.Key, delta int) (drift int, err error) {
	if v.Ledger == nil {
		v.Ledger = make(Ledger)
	}

	if delta > 0 {
		available, err := v.Available(key)
		if err != nil {
			return 0, err
		}
		if delta > available {
			return 0, &InsufficientCapacityError{SlotKey: key, Requested: delta, Available: available}
		}
		v.Ledger[key] += delta
		return 0, nil
	}

	next := v.Ledger[key] + delta
	if next < 0 {
		drift = -next
		next = 0
	}
	if next == 0 {
		delete(v.Ledger, key)
	} else {
		v.Ledger[key] = next
	}
	return drift, nil
}

// Snapshot returns a copy of the ledger.
func (v *Venue) Snapshot() Ledger {
	out := make(Ledger, len(v.Ledger))
	for k, n := range v.Ledger {
		out[k] = n
	}
	return out
}

// SetBooked overwrites a ledger entry. Reserved for reconciliation.
func (v *Venue) SetBooked(key slots.Key, booked int) {
	if v.Ledger == nil {
		v.Ledger = make(Ledger)
	}
	if booked <= 0 {
		delete(v.Ledger, key)
		return
	}
	v.Ledger[key] = booked
}

// SetCapacity changes a slot's capacity. It refuses to go below the seats
// already committed.
func (v *Venue) SetCapacity(key slots.Key, capacity int) error {
	if capacity <= 0 {
		return fmt.Errorf("capacity must be positive: %w", ErrInvalidSeatCount)
	}
	i := v.slotIndex(key)
	if i < 0 {
		return fmt.Errorf("%s: %w", key, ErrInvalidSlot)
	}
	if booked := v.Booked(key); capacity < booked {
		return fmt.Errorf("%s has %d booked: %w", key, booked, ErrCapacityBelowBooked)
	}
	v.Slots[i].Capacity = capacity
	return nil
}

// RemoveSlot drops an unbooked slot.
func (v *Venue) RemoveSlot(key slots.Key) error {
	i := v.slotIndex(key)
	if i < 0 {
		return fmt.Errorf("%s: %w", key, ErrInvalidSlot)
	}
	if booked := v.Booked(key); booked > 0 {
		return fmt.Errorf("%s has %d booked: %w", key, booked, ErrSlotHasBookings)
	}
	v.Slots = append(v.Slots[:i], v.Slots[i+1:]...)
	delete(v.Ledger, key)
	return nil
}
