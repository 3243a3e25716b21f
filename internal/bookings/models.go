package bookings

import (
	"errors"
	"time"

	"slotbook/internal/notifications"
	"slotbook/internal/reminders"
	"slotbook/internal/slots"
)

// Collection holds booking documents, parented by venue id.
const Collection = "bookings"

var (
	ErrBookingNotFound      = errors.New("booking not found")
	ErrAlreadyCancelled     = errors.New("booking is already cancelled")
	ErrConcurrencyExhausted = errors.New("too many concurrent changes to this venue, please retry")
	ErrInvalidToken         = errors.New("invalid booking token")
)

type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// Booking is a confirmed or cancelled reservation of seats in one slot.
type Booking struct {
	ID                 string          `json:"id"`
	Reference          string          `json:"reference"`
	TokenHash          string          `json:"token_hash"`
	VenueID            string          `json:"venue_id"`
	SlotKey            slots.Key       `json:"slot_key"`
	Weekday            string          `json:"weekday"`
	SeatCount          int             `json:"seat_count"`
	Status             Status          `json:"status"`
	Contact            Contact         `json:"contact"`
	Reminders          reminders.State `json:"reminders"`
	CancellationReason string          `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	CancelledAt        *time.Time      `json:"cancelled_at,omitempty"`
}

func (b *Booking) notificationContext() notifications.BookingContext {
	return notifications.BookingContext{
		BookingID:    b.ID,
		VenueID:      b.VenueID,
		SlotKey:      b.SlotKey.String(),
		SlotDate:     b.SlotKey.Date(),
		SlotTime:     b.SlotKey.Clock(),
		Weekday:      b.Weekday,
		SeatCount:    b.SeatCount,
		ContactName:  b.Contact.Name,
		ContactEmail: b.Contact.Email,
		ContactPhone: b.Contact.Phone,
	}
}

// reminderNotification maps a reminder kind to the message it triggers.
func reminderNotification(k reminders.Kind) notifications.NotificationType {
	switch k {
	case reminders.KindThreeDaysBefore:
		return notifications.NotificationTypeReminderThreeDays
	case reminders.KindOneDayBefore:
		return notifications.NotificationTypeReminderOneDay
	case reminders.KindOneHourBefore:
		return notifications.NotificationTypeReminderOneHour
	default:
		return notifications.NotificationTypeBookingConfirmed
	}
}
