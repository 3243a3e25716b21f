package slots_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slotbook/internal/slots"
)

func keys(list []slots.TimeSlot) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = s.Key().String()
	}
	return out
}

func TestExpand_EmitsSlotsUpToEndExclusive(t *testing.T) {
	got, err := slots.Expand(slots.Rule{
		Date: "2024-11-23", StartTime: "09:00", EndTime: "11:00",
		SlotDurationMinutes: 30, Capacity: 12,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"2024-11-23T09:00", "2024-11-23T09:30", "2024-11-23T10:00", "2024-11-23T10:30",
	}, keys(got))
	for _, s := range got {
		assert.Equal(t, "Sat", s.Weekday)
		assert.Equal(t, 12, s.Capacity)
		assert.Equal(t, 30, s.DurationMinutes)
	}
}

func TestExpand_InvalidRange(t *testing.T) {
	for _, tc := range []struct{ start, end string }{
		{"11:00", "09:00"},
		{"09:00", "09:00"},
	} {
		_, err := slots.Expand(slots.Rule{
			Date: "2024-11-23", StartTime: tc.start, EndTime: tc.end,
			SlotDurationMinutes: 30, Capacity: 5,
		})
		require.ErrorIs(t, err, slots.ErrInvalidRange)

		var rangeErr *slots.InvalidRangeError
		require.ErrorAs(t, err, &rangeErr)
		assert.Equal(t, tc.start, rangeErr.StartTime)
	}
}

func TestExpand_InvalidRule(t *testing.T) {
	cases := []slots.Rule{
		{Date: "23/11/2024", StartTime: "09:00", EndTime: "10:00", SlotDurationMinutes: 30, Capacity: 1},
		{Date: "2024-11-23", StartTime: "9am", EndTime: "10:00", SlotDurationMinutes: 30, Capacity: 1},
		{Date: "2024-11-23", StartTime: "09:00", EndTime: "10:00", SlotDurationMinutes: 0, Capacity: 1},
		{Date: "2024-11-23", StartTime: "09:00", EndTime: "10:00", SlotDurationMinutes: 30, Capacity: 0},
	}
	for _, rule := range cases {
		_, err := slots.Expand(rule)
		assert.ErrorIs(t, err, slots.ErrInvalidRule, "rule %+v", rule)
	}
}

func TestGenerate_OverlapRejection(t *testing.T) {
	// GIVEN: 09:00-11:00 in 30 minute steps on Saturday 2024-11-23
	first, err := slots.Generate(nil, []slots.Rule{{
		Date: "2024-11-23", StartTime: "09:00", EndTime: "11:00", SlotDurationMinutes: 30, Capacity: 10,
	}})
	require.NoError(t, err)
	require.Len(t, first.Slots, 4)
	assert.Zero(t, first.RejectedOverlaps())

	// WHEN: generating 10:00-12:00 on the same date
	second, err := slots.Generate(first.Slots, []slots.Rule{{
		Date: "2024-11-23", StartTime: "10:00", EndTime: "12:00", SlotDurationMinutes: 30, Capacity: 10,
	}})
	require.NoError(t, err)

	// THEN: 10:00 and 10:30 are rejected, only 11:00 and 11:30 are added
	assert.Equal(t, 2, second.RejectedOverlaps())
	assert.Equal(t, []string{"2024-11-23T10:00", "2024-11-23T10:30"}, keys(second.Rejected))
	assert.Equal(t, []string{"2024-11-23T11:00", "2024-11-23T11:30"}, keys(second.Added))
	assert.Len(t, second.Slots, 6)
}

func TestGenerate_PartialOverlapWithLongerSlot(t *testing.T) {
	existing := []slots.TimeSlot{{
		Date: "2024-11-25", Time: "10:00", Weekday: "Mon", Capacity: 5, DurationMinutes: 90,
	}}

	res, err := slots.Generate(existing, []slots.Rule{{
		Date: "2024-11-25", StartTime: "09:00", EndTime: "12:00", SlotDurationMinutes: 60, Capacity: 5,
	}})
	require.NoError(t, err)

	// 09:00-10:00 touches but does not intersect 10:00-11:30.
	assert.Equal(t, []string{"2024-11-25T10:00", "2024-11-25T11:00"}, keys(res.Rejected))
	assert.Equal(t, []string{"2024-11-25T09:00"}, keys(res.Added))
}

func TestGenerate_LaterRuleWinsForSameKey(t *testing.T) {
	res, err := slots.Generate(nil, []slots.Rule{
		{Date: "2024-11-24", StartTime: "09:00", EndTime: "10:00", SlotDurationMinutes: 60, Capacity: 5},
		{Date: "2024-11-24", StartTime: "09:00", EndTime: "10:00", SlotDurationMinutes: 60, Capacity: 8},
	})
	require.NoError(t, err)
	require.Len(t, res.Slots, 1)
	assert.Equal(t, 8, res.Slots[0].Capacity)
	assert.Zero(t, res.RejectedOverlaps())
}

func TestGenerate_DifferentDatesNeverOverlap(t *testing.T) {
	existing := []slots.TimeSlot{{Date: "2024-11-23", Time: "10:00", Weekday: "Sat", Capacity: 5, DurationMinutes: 60}}
	res, err := slots.Generate(existing, []slots.Rule{{
		Date: "2024-11-30", StartTime: "10:00", EndTime: "11:00", SlotDurationMinutes: 60, Capacity: 5,
	}})
	require.NoError(t, err)
	assert.Len(t, res.Added, 1)
	assert.Zero(t, res.RejectedOverlaps())
}

func TestGenerate_InvalidRuleLeavesNothing(t *testing.T) {
	res, err := slots.Generate(nil, []slots.Rule{
		{Date: "2024-11-23", StartTime: "09:00", EndTime: "10:00", SlotDurationMinutes: 30, Capacity: 5},
		{Date: "2024-11-23", StartTime: "12:00", EndTime: "10:00", SlotDurationMinutes: 30, Capacity: 5},
	})
	assert.ErrorIs(t, err, slots.ErrInvalidRange)
	assert.Empty(t, res.Slots)
}

func TestSort_WeekdayOrderThenTime(t *testing.T) {
	// 2024-11-25 Mon, 2024-11-23 Sat, 2024-11-24 Sun, 2024-11-29 Fri
	res, err := slots.Generate(nil, []slots.Rule{
		{Date: "2024-11-29", StartTime: "08:00", EndTime: "09:00", SlotDurationMinutes: 60, Capacity: 1},
		{Date: "2024-11-25", StartTime: "10:00", EndTime: "11:00", SlotDurationMinutes: 60, Capacity: 1},
		{Date: "2024-11-24", StartTime: "12:00", EndTime: "13:00", SlotDurationMinutes: 60, Capacity: 1},
		{Date: "2024-11-23", StartTime: "14:00", EndTime: "15:00", SlotDurationMinutes: 60, Capacity: 1},
		{Date: "2024-11-23", StartTime: "07:00", EndTime: "08:00", SlotDurationMinutes: 60, Capacity: 1},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"2024-11-23T07:00",
		"2024-11-23T14:00",
		"2024-11-24T12:00",
		"2024-11-25T10:00",
		"2024-11-29T08:00",
	}, keys(res.Slots))
}

func TestParseKey(t *testing.T) {
	k, err := slots.ParseKey("2024-11-23T09:30")
	require.NoError(t, err)
	assert.Equal(t, "2024-11-23", k.Date())
	assert.Equal(t, "09:30", k.Clock())

	_, err = slots.ParseKey("2024-11-23 09:30")
	assert.ErrorIs(t, err, slots.ErrInvalidKey)
}
