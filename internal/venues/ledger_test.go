package venues

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slotbook/internal/slots"
)

func newTestVenue(capacity, booked int) (*Venue, slots.Key) {
	slot := slots.TimeSlot{Date: "2024-11-23", Time: "10:00", Weekday: "Sat", Capacity: capacity, DurationMinutes: 60}
	v := &Venue{ID: "v1", Slots: []slots.TimeSlot{slot}, Ledger: Ledger{}}
	if booked > 0 {
		v.Ledger[slot.Key()] = booked
	}
	return v, slot.Key()
}

func TestLedger_Available(t *testing.T) {
	v, key := newTestVenue(20, 18)

	available, err := v.Available(key)
	require.NoError(t, err)
	assert.Equal(t, 2, available)

	_, err = v.Available("2024-11-23T11:00")
	assert.ErrorIs(t, err, ErrInvalidSlot)
}

func TestLedger_AdjustRejectsOverCapacity(t *testing.T) {
	v, key := newTestVenue(20, 18)

	_, err := v.Adjust(key, 3)
	var capErr *InsufficientCapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, 2, capErr.Available)
	assert.Equal(t, 3, capErr.Requested)
	assert.ErrorIs(t, err, ErrInsufficientCapacity)
	assert.Equal(t, 18, v.Booked(key))

	_, err = v.Adjust(key, 2)
	require.NoError(t, err)
	assert.Equal(t, 20, v.Booked(key))
}

func TestLedger_AdjustUnknownSlot(t *testing.T) {
	v, _ := newTestVenue(5, 0)
	_, err := v.Adjust("2024-11-24T10:00", 1)
	assert.ErrorIs(t, err, ErrInvalidSlot)
}

func TestLedger_ReleaseClampsAndReportsDrift(t *testing.T) {
	v, key := newTestVenue(10, 2)

	drift, err := v.Adjust(key, -5)
	require.NoError(t, err)
	assert.Equal(t, 3, drift)
	assert.Equal(t, 0, v.Booked(key))
	assert.NotContains(t, v.Ledger, key)
}

func TestLedger_SnapshotIsACopy(t *testing.T) {
	v, key := newTestVenue(10, 4)
	snap := v.Snapshot()
	_, err := v.Adjust(key, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, snap[key])
	assert.Equal(t, 5, v.Booked(key))
}

func TestLedger_SetCapacity(t *testing.T) {
	v, key := newTestVenue(10, 6)

	assert.ErrorIs(t, v.SetCapacity(key, 5), ErrCapacityBelowBooked)
	assert.ErrorIs(t, v.SetCapacity(key, 0), ErrInvalidSeatCount)
	require.NoError(t, v.SetCapacity(key, 6))

	slot, ok := v.Slot(key)
	require.True(t, ok)
	assert.Equal(t, 6, slot.Capacity)
}

func TestLedger_RemoveSlot(t *testing.T) {
	v, key := newTestVenue(10, 1)
	assert.ErrorIs(t, v.RemoveSlot(key), ErrSlotHasBookings)

	_, err := v.Adjust(key, -1)
	require.NoError(t, err)
	require.NoError(t, v.RemoveSlot(key))
	assert.Empty(t, v.Slots)
	assert.ErrorIs(t, v.RemoveSlot(key), ErrInvalidSlot)
}
