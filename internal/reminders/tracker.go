// Package reminders tracks which scheduled booking notifications have fired.
//
// It is a pure state table: the schedulers that decide when to look are
// outside it. Marking a kind is idempotent, so a trigger that fires twice
// notifies once.
package reminders

import (
	"errors"
	"time"
)

type Kind string

const (
	KindConfirmation    Kind = "confirmation"
	KindThreeDaysBefore Kind = "three_days_before"
	KindOneDayBefore    Kind = "one_day_before"
	KindOneHourBefore   Kind = "one_hour_before"
)

var ErrUnknownKind = errors.New("unknown reminder kind")

// Kinds lists every reminder kind in firing order.
var Kinds = []Kind{KindConfirmation, KindThreeDaysBefore, KindOneDayBefore, KindOneHourBefore}

func (k Kind) IsValid() bool {
	switch k {
	case KindConfirmation, KindThreeDaysBefore, KindOneDayBefore, KindOneHourBefore:
		return true
	}
	return false
}

func (k Kind) String() string {
	return string(k)
}

// ParseKind accepts the stored form ("one_day_before").
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.IsValid() {
		return "", ErrUnknownKind
	}
	return k, nil
}

// lead is how long before the slot start each timed kind opens.
var lead = map[Kind]time.Duration{
	KindThreeDaysBefore: 72 * time.Hour,
	KindOneDayBefore:    24 * time.Hour,
	KindOneHourBefore:   time.Hour,
}

// next is the kind whose window closes the previous one.
var next = map[Kind]Kind{
	KindThreeDaysBefore: KindOneDayBefore,
	KindOneDayBefore:    KindOneHourBefore,
}

type Entry struct {
	Sent   bool       `json:"sent"`
	SentAt *time.Time `json:"sent_at,omitempty"`
}

// State holds one entry per kind.
type State map[Kind]Entry

// NewState returns a state with every kind unsent.
func NewState() State {
	s := make(State, len(Kinds))
	for _, k := range Kinds {
		s[k] = Entry{}
	}
	return s
}

// Reset marks every kind unsent. Used when a booking moves to another slot.
func (s State) Reset() {
	for _, k := range Kinds {
		s[k] = Entry{}
	}
}

func (s State) Sent(k Kind) bool {
	return s[k].Sent
}

// Mark records k as sent at now. It returns false, and changes nothing, if
// k had already been sent.
func (s State) Mark(k Kind, now time.Time) (bool, error) {
	if !k.IsValid() {
		return false, ErrUnknownKind
	}
	if s[k].Sent {
		return false, nil
	}
	at := now.UTC()
	s[k] = Entry{Sent: true, SentAt: &at}
	return true, nil
}

// Unmark clears k if it is still the send recorded at sentAt. It returns
// false when k was unsent or has been marked again since.
func (s State) Unmark(k Kind, sentAt time.Time) bool {
	e := s[k]
	if !e.Sent || e.SentAt == nil || !e.SentAt.Equal(sentAt.UTC()) {
		return false
	}
	s[k] = Entry{}
	return true
}

// SentAt returns when k was marked, or the zero time.
func (s State) SentAt(k Kind) time.Time {
	if e := s[k]; e.Sent && e.SentAt != nil {
		return *e.SentAt
	}
	return time.Time{}
}

// Window returns the interval in which k should fire for a slot starting at start.
// The confirmation window opens immediately.
func Window(k Kind, start time.Time) (from, until time.Time) {
	if k == KindConfirmation {
		return time.Time{}, start
	}
	from = start.Add(-lead[k])
	until = start
	if n, ok := next[k]; ok {
		until = start.Add(-lead[n])
	}
	return from, until
}

// Due lists unsent kinds whose window contains now. A window that closed
// unsent is skipped rather than sent late.
func (s State) Due(start, now time.Time) []Kind {
	var due []Kind
	for _, k := range Kinds {
		if s[k].Sent {
			continue
		}
		from, until := Window(k, start)
		if now.Before(from) || !now.Before(until) {
			continue
		}
		due = append(due, k)
	}
	return due
}
