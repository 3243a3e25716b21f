package bookings

import (
	"time"

	"slotbook/internal/reminders"
)

type BookingResponse struct {
	ID                 string          `json:"id"`
	Reference          string          `json:"reference"`
	VenueID            string          `json:"venue_id"`
	SlotKey            string          `json:"slot_key"`
	Date               string          `json:"date"`
	Time               string          `json:"time"`
	Weekday            string          `json:"weekday"`
	SeatCount          int             `json:"seat_count"`
	Status             Status          `json:"status"`
	Contact            Contact         `json:"contact"`
	Reminders          reminders.State `json:"reminders,omitempty"`
	CancellationReason string          `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	CancelledAt        *time.Time      `json:"cancelled_at,omitempty"`
}

// CreateBookingResponse is the only response that ever carries the
// management token in clear.
type CreateBookingResponse struct {
	Booking         BookingResponse `json:"booking"`
	ManagementToken string          `json:"management_token"`
}

type DueRemindersResponse struct {
	BookingID string           `json:"booking_id"`
	Due       []reminders.Kind `json:"due"`
}

type MarkReminderResponse struct {
	BookingID string         `json:"booking_id"`
	Kind      reminders.Kind `json:"kind"`
	Notify    bool           `json:"notify"`
}

func ToBookingResponse(b *Booking) BookingResponse {
	return BookingResponse{
		ID:                 b.ID,
		Reference:          b.Reference,
		VenueID:            b.VenueID,
		SlotKey:            b.SlotKey.String(),
		Date:               b.SlotKey.Date(),
		Time:               b.SlotKey.Clock(),
		Weekday:            b.Weekday,
		SeatCount:          b.SeatCount,
		Status:             b.Status,
		Contact:            b.Contact,
		Reminders:          b.Reminders,
		CancellationReason: b.CancellationReason,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
		CancelledAt:        b.CancelledAt,
	}
}

func ToBookingResponses(list []*Booking) []BookingResponse {
	out := make([]BookingResponse, 0, len(list))
	for _, b := range list {
		out = append(out, ToBookingResponse(b))
	}
	return out
}
