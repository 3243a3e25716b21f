// Package slots expands generation rules into bookable time slots and merges
// them into a venue's existing slot list.
package slots

import (
	"fmt"
	"sort"
	"time"
)

type interval struct {
	date  string
	start int
	end   int
}

func (a interval) overlaps(b interval) bool {
	if a.date != b.date {
		return false
	}
	if a.start == b.start {
		return true
	}
	return a.start < b.end && b.start < a.end
}

// Generate expands rules and merges the result into existing. It is pure:
// the caller decides whether to persist Result.Slots.
//
// Within one call a key produced by several rules takes the later rule's
// values. A candidate that overlaps an existing slot, or an already
// accepted candidate, is rejected and reported rather than merged.
func Generate(existing []TimeSlot, rules []Rule) (Result, error) {
	var (
		order      []Key
		candidates = make(map[Key]TimeSlot)
	)
	for _, rule := range rules {
		expanded, err := Expand(rule)
		if err != nil {
			return Result{}, err
		}
		for _, slot := range expanded {
			k := slot.Key()
			if _, seen := candidates[k]; !seen {
				order = append(order, k)
			}
			candidates[k] = slot
		}
	}

	taken := make([]interval, 0, len(existing)+len(order))
	for _, slot := range existing {
		if iv, err := slotInterval(slot); err == nil {
			taken = append(taken, iv)
		}
	}

	result := Result{}
	for _, k := range order {
		candidate := candidates[k]
		iv, err := slotInterval(candidate)
		if err != nil {
			return Result{}, err
		}
		if overlapsAny(iv, taken) {
			result.Rejected = append(result.Rejected, candidate)
			continue
		}
		taken = append(taken, iv)
		result.Added = append(result.Added, candidate)
	}

	merged := make([]TimeSlot, 0, len(existing)+len(result.Added))
	merged = append(merged, existing...)
	merged = append(merged, result.Added...)
	Sort(merged)
	result.Slots = merged
	return result, nil
}

// Expand turns one rule into its slots without looking at anything else.
func Expand(rule Rule) ([]TimeSlot, error) {
	day, err := time.Parse(DateLayout, rule.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: date %q", ErrInvalidRule, rule.Date)
	}
	start, err := minuteOfDay(rule.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := minuteOfDay(rule.EndTime)
	if err != nil {
		return nil, err
	}
	if start >= end {
		return nil, &InvalidRangeError{Date: rule.Date, StartTime: rule.StartTime, EndTime: rule.EndTime}
	}
	if rule.SlotDurationMinutes <= 0 {
		return nil, fmt.Errorf("%w: slot duration must be positive", ErrInvalidRule)
	}
	if rule.Capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity must be positive", ErrInvalidRule)
	}

	label := WeekdayLabel(day.Weekday())
	var out []TimeSlot
	for m := start; m < end; m += rule.SlotDurationMinutes {
		out = append(out, TimeSlot{
			Date:            rule.Date,
			Time:            fmt.Sprintf("%02d:%02d", m/60, m%60),
			Weekday:         label,
			Capacity:        rule.Capacity,
			DurationMinutes: rule.SlotDurationMinutes,
		})
	}
	return out, nil
}

// Sort orders slots by weekday (Sat, Sun, Mon..Fri), then time of day, then date.
func Sort(list []TimeSlot) {
	sort.SliceStable(list, func(i, j int) bool {
		ri, rj := rankOf(list[i]), rankOf(list[j])
		if ri != rj {
			return ri < rj
		}
		if list[i].Time != list[j].Time {
			return list[i].Time < list[j].Time
		}
		return list[i].Date < list[j].Date
	})
}

func rankOf(s TimeSlot) int {
	day, err := time.Parse(DateLayout, s.Date)
	if err != nil {
		return 7
	}
	return weekdayRank(day.Weekday())
}

func slotInterval(s TimeSlot) (interval, error) {
	start, err := minuteOfDay(s.Time)
	if err != nil {
		return interval{}, err
	}
	return interval{date: s.Date, start: start, end: start + s.DurationMinutes}, nil
}

func overlapsAny(iv interval, taken []interval) bool {
	for _, other := range taken {
		if iv.overlaps(other) {
			return true
		}
	}
	return false
}

func minuteOfDay(clock string) (int, error) {
	t, err := time.Parse(ClockLayout, clock)
	if err != nil {
		return 0, fmt.Errorf("%w: time %q", ErrInvalidRule, clock)
	}
	return t.Hour()*60 + t.Minute(), nil
}
