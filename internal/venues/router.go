package venues

import (
	"slotbook/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupVenueRoutes(rg *gin.RouterGroup, controller *Controller) {
	// Public venue reads
	public := rg.Group("/venues")
	{
		public.GET("", controller.ListVenues)                        // GET /api/v1/venues
		public.GET("/:id", controller.GetVenue)                      // GET /api/v1/venues/:id
		public.GET("/:id/availability", controller.GetAvailability) // GET /api/v1/venues/:id/availability
	}

	// Venue administration
	admin := rg.Group("/venues")
	admin.Use(middleware.JWTAuth(), middleware.RequireAdmin())
	{
		admin.POST("", controller.CreateVenue)                          // POST /api/v1/venues
		admin.POST("/:id/slots/generate", controller.GenerateSlots)     // POST /api/v1/venues/:id/slots/generate
		admin.PATCH("/:id/slots/:slotKey", controller.UpdateSlotCapacity) // PATCH /api/v1/venues/:id/slots/:slotKey
		admin.DELETE("/:id/slots/:slotKey", controller.RemoveSlot)      // DELETE /api/v1/venues/:id/slots/:slotKey
	}
}
