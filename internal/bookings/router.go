package bookings

import (
	"slotbook/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupBookingRoutes configures all booking-related routes
func SetupBookingRoutes(rg *gin.RouterGroup, controller *Controller) {
	// Anyone may book; listing is for admins
	rg.POST("/venues/:id/bookings", controller.CreateBooking) // POST /api/v1/venues/:id/bookings
	rg.GET("/venues/:id/bookings", middleware.JWTAuth(), middleware.RequireAdmin(), controller.ListVenueBookings)

	// Self-service, authorised by the management token
	bookings := rg.Group("/bookings/:id")
	bookings.Use(controller.RequireToken())
	{
		bookings.GET("", controller.GetBooking)                // GET /api/v1/bookings/:id
		bookings.POST("/transfer", controller.TransferBooking) // POST /api/v1/bookings/:id/transfer
		bookings.POST("/cancel", controller.CancelBooking)     // POST /api/v1/bookings/:id/cancel
	}

	admin := rg.Group("/admin/bookings")
	admin.Use(middleware.JWTAuth(), middleware.RequireAdmin())
	{
		admin.DELETE("/:id", controller.DeleteBooking)                  // DELETE /api/v1/admin/bookings/:id
		admin.GET("/:id/reminders", controller.DueReminders)            // GET /api/v1/admin/bookings/:id/reminders
		admin.POST("/:id/reminders/:kind", controller.MarkReminderSent) // POST /api/v1/admin/bookings/:id/reminders/:kind
	}
}

// Route definitions for reference:
//
// BOOKING
// POST   /api/v1/venues/:id/bookings                  - Book seats in a slot
// Request body: { "slot_key": "2024-11-23T10:00", "seat_count": 2, "contact": {...} }
// Response carries management_token once; keep it.
//
// SELF SERVICE (X-Booking-Token header or ?token=)
// GET    /api/v1/bookings/:id                         - View booking
// POST   /api/v1/bookings/:id/transfer                - Move to another slot / seat count
// POST   /api/v1/bookings/:id/cancel                  - Cancel, releasing seats
//
// ADMIN
// GET    /api/v1/venues/:id/bookings                  - All bookings of a venue
// DELETE /api/v1/admin/bookings/:id                   - Delete and release
// GET    /api/v1/admin/bookings/:id/reminders         - Reminders due now
// POST   /api/v1/admin/bookings/:id/reminders/:kind   - Mark a reminder sent
