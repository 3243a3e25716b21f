package bookings

type ContactRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=200"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"omitempty,e164"`
}

type CreateBookingRequest struct {
	SlotKey   string         `json:"slot_key" validate:"required,slotkey"`
	SeatCount int            `json:"seat_count" validate:"required,min=1,max=500"`
	Contact   ContactRequest `json:"contact"`
}

type TransferBookingRequest struct {
	SlotKey   string `json:"slot_key" validate:"required,slotkey"`
	SeatCount int    `json:"seat_count" validate:"required,min=1,max=500"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}
