package notifications

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationTypeBookingConfirmed   NotificationType = "BOOKING_CONFIRMED"
	NotificationTypeBookingTransferred NotificationType = "BOOKING_TRANSFERRED"
	NotificationTypeBookingCancelled   NotificationType = "BOOKING_CANCELLED"
	NotificationTypeReminderThreeDays  NotificationType = "REMINDER_THREE_DAYS_BEFORE"
	NotificationTypeReminderOneDay     NotificationType = "REMINDER_ONE_DAY_BEFORE"
	NotificationTypeReminderOneHour    NotificationType = "REMINDER_ONE_HOUR_BEFORE"
)

type NotificationChannel string

const (
	NotificationChannelEmail NotificationChannel = "EMAIL"
	NotificationChannelSMS   NotificationChannel = "SMS"
)

type NotificationPriority string

const (
	NotificationPriorityLow    NotificationPriority = "LOW"
	NotificationPriorityMedium NotificationPriority = "MEDIUM"
	NotificationPriorityHigh   NotificationPriority = "HIGH"
)

// BookingContext is the booking data a dispatcher needs to render a message.
type BookingContext struct {
	BookingID    string `json:"booking_id"`
	VenueID      string `json:"venue_id"`
	SlotKey      string `json:"slot_key"`
	SlotDate     string `json:"slot_date"`
	SlotTime     string `json:"slot_time"`
	Weekday      string `json:"weekday"`
	SeatCount    int    `json:"seat_count"`
	ContactName  string `json:"contact_name"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone,omitempty"`
}

// Notification is the message handed to the broker. Rendering and delivery
// happen in the external dispatcher.
type Notification struct {
	ID       string               `json:"id"`
	Type     NotificationType     `json:"type"`
	Priority NotificationPriority `json:"priority"`
	Channels []NotificationChannel `json:"channels"`

	RecipientName  string `json:"recipient_name"`
	RecipientEmail string `json:"recipient_email"`
	RecipientPhone string `json:"recipient_phone,omitempty"`

	Booking      BookingContext         `json:"booking"`
	TemplateData map[string]interface{} `json:"template_data,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

type NotificationBuilder struct {
	notification *Notification
}

func NewNotificationBuilder() *NotificationBuilder {
	return &NotificationBuilder{
		notification: &Notification{
			ID:           uuid.NewString(),
			Priority:     NotificationPriorityMedium,
			CreatedAt:    time.Now().UTC(),
			TemplateData: make(map[string]interface{}),
		},
	}
}

func (nb *NotificationBuilder) WithType(t NotificationType) *NotificationBuilder {
	nb.notification.Type = t
	nb.notification.Priority = GetDefaultPriority(t)
	return nb
}

// WithBooking sets the booking context and derives recipient and channels from it.
func (nb *NotificationBuilder) WithBooking(b BookingContext) *NotificationBuilder {
	nb.notification.Booking = b
	nb.notification.RecipientName = b.ContactName
	nb.notification.RecipientEmail = b.ContactEmail
	nb.notification.RecipientPhone = b.ContactPhone

	channels := []NotificationChannel{NotificationChannelEmail}
	if b.ContactPhone != "" {
		channels = append(channels, NotificationChannelSMS)
	}
	nb.notification.Channels = channels
	return nb
}

func (nb *NotificationBuilder) WithTemplateData(key string, value interface{}) *NotificationBuilder {
	nb.notification.TemplateData[key] = value
	return nb
}

func (nb *NotificationBuilder) Build() *Notification {
	return nb.notification
}

func GetDefaultPriority(t NotificationType) NotificationPriority {
	switch t {
	case NotificationTypeReminderOneHour, NotificationTypeBookingTransferred:
		return NotificationPriorityHigh
	case NotificationTypeReminderThreeDays:
		return NotificationPriorityLow
	default:
		return NotificationPriorityMedium
	}
}

// GetPartitionKey keeps every message about one booking on one partition.
func (n *Notification) GetPartitionKey() string {
	return n.Booking.BookingID
}

func (n *Notification) ToJSON() ([]byte, error) {
	return json.Marshal(n)
}
