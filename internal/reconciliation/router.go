package reconciliation

import (
	"slotbook/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupReconciliationRoutes(rg *gin.RouterGroup, controller *Controller) {
	admin := rg.Group("/admin")
	admin.Use(middleware.JWTAuth(), middleware.RequireAdmin())
	{
		admin.POST("/reconcile", controller.Reconcile)         // POST /api/v1/admin/reconcile
		admin.GET("/reconciliation/runs", controller.ListRuns) // GET /api/v1/admin/reconciliation/runs
	}
}
