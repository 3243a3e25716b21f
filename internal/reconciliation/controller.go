package reconciliation

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"slotbook/internal/shared/utils/response"
	"slotbook/internal/venues"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// Reconcile handles POST /api/v1/admin/reconcile?venue_id=
func (c *Controller) Reconcile(ctx *gin.Context) {
	report, err := c.service.Reconcile(ctx.Request.Context(), ctx.Query("venue_id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, venues.ErrVenueNotFound) {
			status = http.StatusNotFound
		}
		response.RespondJSON(ctx, "error", status, "Reconciliation failed", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Reconciliation completed", report, nil)
}

// ListRuns handles GET /api/v1/admin/reconciliation/runs?limit=
func (c *Controller) ListRuns(ctx *gin.Context) {
	limit := 0
	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			response.RespondJSON(ctx, "error", http.StatusBadRequest, "limit must be between 1 and 100", nil, nil)
			return
		}
		limit = n
	}

	runs, err := c.service.ListRuns(ctx.Request.Context(), limit)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusInternalServerError, "Failed to list reconciliation runs", nil, err.Error())
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Reconciliation runs retrieved successfully", runs, nil)
}
