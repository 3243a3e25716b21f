package venues

import "slotbook/internal/slots"

type CreateVenueRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=200"`
	Timezone string `json:"timezone" validate:"omitempty,timezone"`
}

type GenerateSlotsRequest struct {
	Rules []slots.Rule `json:"rules" validate:"required,min=1,dive"`
}

type UpdateSlotCapacityRequest struct {
	Capacity int `json:"capacity" validate:"required,min=1"`
}

type AvailabilityFilters struct {
	Date string `form:"date" validate:"omitempty,slotdate"`
}
