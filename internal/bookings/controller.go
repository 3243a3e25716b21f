package bookings

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"slotbook/internal/reminders"
	"slotbook/internal/shared/utils/response"
	"slotbook/internal/shared/utils/validation"
	"slotbook/internal/slots"
	"slotbook/internal/venues"
)

const (
	// TokenHeader carries the booking management token.
	TokenHeader = "X-Booking-Token"
	tokenQuery  = "token"
	bookingKey  = "booking"
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

// RequireToken admits requests that present the management token of the
// booking named by :id.
func (c *Controller) RequireToken() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := ctx.GetHeader(TokenHeader)
		if token == "" {
			token = ctx.Query(tokenQuery)
		}

		booking, err := c.service.VerifyToken(ctx.Request.Context(), ctx.Param("id"), token)
		if err != nil {
			c.respondError(ctx, "Booking access denied", err)
			ctx.Abort()
			return
		}

		ctx.Set(bookingKey, booking)
		ctx.Next()
	}
}

// CreateBooking handles POST /api/v1/venues/:id/bookings
func (c *Controller) CreateBooking(ctx *gin.Context) {
	var req CreateBookingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}
	if err := c.validator.Struct(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return
	}

	booking, token, err := c.service.CreateBooking(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		c.respondError(ctx, "Failed to create booking", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Booking confirmed successfully", CreateBookingResponse{
		Booking:         ToBookingResponse(booking),
		ManagementToken: token,
	}, nil)
}

// ListVenueBookings handles GET /api/v1/venues/:id/bookings
func (c *Controller) ListVenueBookings(ctx *gin.Context) {
	list, err := c.service.ListVenueBookings(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		c.respondError(ctx, "Failed to list bookings", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Bookings retrieved successfully", ToBookingResponses(list), nil)
}

// GetBooking handles GET /api/v1/bookings/:id
func (c *Controller) GetBooking(ctx *gin.Context) {
	booking, ok := ctx.Get(bookingKey)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusForbidden, "Booking access denied", nil, ErrInvalidToken.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Booking retrieved successfully", ToBookingResponse(booking.(*Booking)), nil)
}

// TransferBooking handles POST /api/v1/bookings/:id/transfer
func (c *Controller) TransferBooking(ctx *gin.Context) {
	var req TransferBookingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}
	if err := c.validator.Struct(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
		return
	}
	key, err := slots.ParseKey(req.SlotKey)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid slot key", nil, err.Error())
		return
	}

	booking, err := c.service.TransferBooking(ctx.Request.Context(), ctx.Param("id"), key, req.SeatCount)
	if err != nil {
		c.respondError(ctx, "Failed to transfer booking", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Booking transferred successfully", ToBookingResponse(booking), nil)
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel
func (c *Controller) CancelBooking(ctx *gin.Context) {
	var req CancelBookingRequest
	// The body is optional.
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
			return
		}
		if err := c.validator.Struct(&req); err != nil {
			response.RespondJSON(ctx, "error", http.StatusBadRequest, "Validation failed", nil, err.Error())
			return
		}
	}

	booking, err := c.service.CancelBooking(ctx.Request.Context(), ctx.Param("id"), req.Reason)
	if err != nil {
		c.respondError(ctx, "Failed to cancel booking", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Booking cancelled successfully", ToBookingResponse(booking), nil)
}

// DeleteBooking handles DELETE /api/v1/admin/bookings/:id
func (c *Controller) DeleteBooking(ctx *gin.Context) {
	booking, err := c.service.DeleteBooking(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		c.respondError(ctx, "Failed to delete booking", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Booking deleted successfully", ToBookingResponse(booking), nil)
}

// DueReminders handles GET /api/v1/admin/bookings/:id/reminders
func (c *Controller) DueReminders(ctx *gin.Context) {
	id := ctx.Param("id")
	due, err := c.service.DueReminders(ctx.Request.Context(), id)
	if err != nil {
		c.respondError(ctx, "Failed to get due reminders", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Due reminders retrieved successfully", DueRemindersResponse{
		BookingID: id,
		Due:       due,
	}, nil)
}

// MarkReminderSent handles POST /api/v1/admin/bookings/:id/reminders/:kind
func (c *Controller) MarkReminderSent(ctx *gin.Context) {
	kind, err := reminders.ParseKind(ctx.Param("kind"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid reminder kind", nil, err.Error())
		return
	}

	id := ctx.Param("id")
	notify, err := c.service.MarkReminderSent(ctx.Request.Context(), id, kind)
	if err != nil {
		c.respondError(ctx, "Failed to mark reminder", err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Reminder marked successfully", MarkReminderResponse{
		BookingID: id,
		Kind:      kind,
		Notify:    notify,
	}, nil)
}

func (c *Controller) respondError(ctx *gin.Context, message string, err error) {
	status := http.StatusInternalServerError
	var capacityErr *venues.InsufficientCapacityError

	switch {
	case errors.As(err, &capacityErr):
		response.RespondJSON(ctx, "error", http.StatusConflict, message, gin.H{
			"slot_key":  capacityErr.SlotKey.String(),
			"requested": capacityErr.Requested,
			"available": capacityErr.Available,
		}, err.Error())
		return
	case errors.Is(err, ErrBookingNotFound), errors.Is(err, venues.ErrVenueNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrAlreadyCancelled):
		status = http.StatusConflict
	case errors.Is(err, ErrConcurrencyExhausted):
		status = http.StatusServiceUnavailable
	case errors.Is(err, ErrInvalidToken):
		status = http.StatusForbidden
	case errors.Is(err, venues.ErrInvalidSlot),
		errors.Is(err, venues.ErrInvalidSeatCount),
		errors.Is(err, slots.ErrInvalidKey),
		errors.Is(err, reminders.ErrUnknownKind):
		status = http.StatusBadRequest
	}
	response.RespondJSON(ctx, "error", status, message, nil, err.Error())
}
