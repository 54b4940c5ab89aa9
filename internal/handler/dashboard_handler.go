package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edukasys/sfa-records-api/internal/service"
	appErrors "github.com/edukasys/sfa-records-api/pkg/errors"
	"github.com/edukasys/sfa-records-api/pkg/response"
)

// DashboardHandler exposes the dashboard aggregate endpoint.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler constructs DashboardHandler.
func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// Stats godoc
// @Summary Dashboard statistics
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/stats [get]
func (h *DashboardHandler) Stats(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	stats, cacheHit, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	if cacheHit {
		c.Header("X-Cache", "HIT")
	}
	response.JSON(c, http.StatusOK, stats, nil)
}
