package venues

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"slotbook/internal/docstore"
	"slotbook/internal/shared/utils/response"
	"slotbook/internal/shared/utils/validation"
	"slotbook/internal/slots"
)

type Controller struct {
	service   Service
	validator *validator.Validate
}

func NewController(service Service) *Controller {
	return &Controller{
		service:   service,
		validator: validation.New(),
	}
}

// CreateVenue handles POST /api/v1/venues
func (c *Controller) CreateVenue(ctx *gin.Context) {
	var req CreateVenueRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}
	if err := c.validator.Struct(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return
	}

	venue, err := c.service.CreateVenue(ctx.Request.Context(), req)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to create venue", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Venue created successfully", venue, nil)
}

// GetVenue handles GET /api/v1/venues/:id
func (c *Controller) GetVenue(ctx *gin.Context) {
	venue, err := c.service.GetVenue(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		c.respondError(ctx, "Failed to get venue", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Venue retrieved successfully", venue, nil)
}

// ListVenues handles GET /api/v1/venues
func (c *Controller) ListVenues(ctx *gin.Context) {
	list, err := c.service.ListVenues(ctx.Request.Context())
	if err != nil {
		c.respondError(ctx, "Failed to list venues", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Venues retrieved successfully", list, nil)
}

// GetAvailability handles GET /api/v1/venues/:id/availability
func (c *Controller) GetAvailability(ctx *gin.Context) {
	var filters AvailabilityFilters
	if err := ctx.ShouldBindQuery(&filters); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}
	if err := c.validator.Struct(&filters); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return
	}

	availability, err := c.service.GetAvailability(ctx.Request.Context(), ctx.Param("id"), filters.Date)
	if err != nil {
		c.respondError(ctx, "Failed to get availability", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Availability retrieved successfully", availability, nil)
}

// GenerateSlots handles POST /api/v1/venues/:id/slots/generate
func (c *Controller) GenerateSlots(ctx *gin.Context) {
	var req GenerateSlotsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}
	if err := c.validator.Struct(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return
	}

	result, err := c.service.GenerateSlots(ctx.Request.Context(), ctx.Param("id"), req.Rules)
	if err != nil {
		c.respondError(ctx, "Failed to generate slots", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Slots generated successfully", result, nil)
}

// UpdateSlotCapacity handles PATCH /api/v1/venues/:id/slots/:slotKey
func (c *Controller) UpdateSlotCapacity(ctx *gin.Context) {
	key, err := slots.ParseKey(ctx.Param("slotKey"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid slot key", nil, err.Error())
		return
	}

	var req UpdateSlotCapacityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}
	if err := c.validator.Struct(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return
	}

	venue, err := c.service.UpdateSlotCapacity(ctx.Request.Context(), ctx.Param("id"), key, req.Capacity)
	if err != nil {
		c.respondError(ctx, "Failed to update slot capacity", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Slot capacity updated successfully", venue, nil)
}

// RemoveSlot handles DELETE /api/v1/venues/:id/slots/:slotKey
func (c *Controller) RemoveSlot(ctx *gin.Context) {
	key, err := slots.ParseKey(ctx.Param("slotKey"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid slot key", nil, err.Error())
		return
	}

	venue, err := c.service.RemoveSlot(ctx.Request.Context(), ctx.Param("id"), key)
	if err != nil {
		c.respondError(ctx, "Failed to remove slot", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Slot removed successfully", venue, nil)
}

func (c *Controller) respondError(ctx *gin.Context, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrVenueNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrInvalidSlot),
		errors.Is(err, slots.ErrInvalidRange),
		errors.Is(err, slots.ErrInvalidRule),
		errors.Is(err, ErrInvalidSeatCount):
		status = http.StatusBadRequest
	case errors.Is(err, ErrCapacityBelowBooked), errors.Is(err, ErrSlotHasBookings):
		status = http.StatusConflict
	case errors.Is(err, docstore.ErrRetriesExhausted):
		status = http.StatusServiceUnavailable
	}
	response.RespondJSON(ctx, "error", status, message, nil, err.Error())
}
