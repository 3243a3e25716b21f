package bookings

type Status string

const (
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

func (s Status) IsValid() bool {
	return s == StatusConfirmed || s == StatusCancelled
}

func (s Status) String() string {
	return string(s)
}

// HoldsSeats reports whether a booking in this status counts against the ledger.
func (s Status) HoldsSeats() bool {
	return s == StatusConfirmed
}

// IsTerminal is true for cancelled bookings; there is no way back.
func (s Status) IsTerminal() bool {
	return s == StatusCancelled
}
