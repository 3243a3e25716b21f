package slots

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
	keyLayout   = DateLayout + "T" + ClockLayout
)

var (
	ErrInvalidRange = errors.New("start time must be before end time")
	ErrInvalidRule  = errors.New("invalid slot generation rule")
	ErrInvalidKey   = errors.New("invalid slot key")
)

// Key identifies a slot within a venue: its calendar date and time of day,
// rendered as "2006-01-02T15:04".
type Key string

func NewKey(date, clock string) Key {
	return Key(date + "T" + clock)
}

// ParseKey validates s and returns it as a Key.
func ParseKey(s string) (Key, error) {
	if _, err := time.Parse(keyLayout, s); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	return Key(s), nil
}

func (k Key) String() string {
	return string(k)
}

// Date returns the date part of the key.
func (k Key) Date() string {
	date, _, _ := strings.Cut(string(k), "T")
	return date
}

// Clock returns the time-of-day part of the key.
func (k Key) Clock() string {
	_, clock, _ := strings.Cut(string(k), "T")
	return clock
}

// TimeSlot is one bookable (date, time of day) unit at a venue.
type TimeSlot struct {
	Date            string `json:"date"`
	Time            string `json:"time"`
	Weekday         string `json:"weekday"`
	Capacity        int    `json:"capacity"`
	DurationMinutes int    `json:"duration_minutes"`
}

func (s TimeSlot) Key() Key {
	return NewKey(s.Date, s.Time)
}

// StartIn returns the slot's wall-clock start in loc.
func (s TimeSlot) StartIn(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	start, err := time.ParseInLocation(keyLayout, string(s.Key()), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidKey, s.Key())
	}
	return start, nil
}

// Rule expands into slots every SlotDurationMinutes from StartTime up to,
// but excluding, EndTime on Date.
type Rule struct {
	Date                string `json:"date" validate:"required,slotdate"`
	StartTime           string `json:"start_time" validate:"required,clock"`
	EndTime             string `json:"end_time" validate:"required,clock"`
	SlotDurationMinutes int    `json:"slot_duration_minutes" validate:"required,min=1,max=1440"`
	Capacity            int    `json:"capacity" validate:"required,min=1"`
}

// InvalidRangeError reports a rule whose window is empty or inverted.
type InvalidRangeError struct {
	Date      string
	StartTime string
	EndTime   string
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range on %s: %s is not before %s", e.Date, e.StartTime, e.EndTime)
}

func (e *InvalidRangeError) Unwrap() error {
	return ErrInvalidRange
}

// Result is the outcome of merging generated slots into an existing list.
type Result struct {
	// Slots is the merged list in display order.
	Slots []TimeSlot `json:"slots"`
	// Added are the candidates that were accepted.
	Added []TimeSlot `json:"added"`
	// Rejected are candidates dropped for overlapping an existing or accepted slot.
	Rejected []TimeSlot `json:"rejected"`
}

func (r Result) RejectedOverlaps() int {
	return len(r.Rejected)
}

// WeekdayLabel returns the short label used on slots, e.g. "Sat".
func WeekdayLabel(d time.Weekday) string {
	return d.String()[:3]
}

// weekdayRank orders Saturday first, then Sunday, then Monday to Friday.
func weekdayRank(d time.Weekday) int {
	return (int(d) + 1) % 7
}
