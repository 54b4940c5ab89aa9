package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edukasys/sfa-records-api/internal/service"
	appErrors "github.com/edukasys/sfa-records-api/pkg/errors"
	"github.com/edukasys/sfa-records-api/pkg/response"
)

// ProfileHandler exposes the authenticated admin's profile endpoints.
type ProfileHandler struct {
	admins *service.AdminService
}

// NewProfileHandler constructs ProfileHandler.
func NewProfileHandler(admins *service.AdminService) *ProfileHandler {
	return &ProfileHandler{admins: admins}
}

// Get godoc
// @Summary Get admin profile
// @Tags Profile
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /profile [get]
func (h *ProfileHandler) Get(c *gin.Context) {
	actor := actorFromContext(c)
	admin, err := h.admins.Profile(c.Request.Context(), actor.AdminID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, admin, nil)
}

// Update godoc
// @Summary Update admin profile
// @Tags Profile
// @Accept json
// @Produce json
// @Param payload body service.UpdateProfileRequest true "Profile payload"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /profile [put]
func (h *ProfileHandler) Update(c *gin.Context) {
	var req service.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	admin, err := h.admins.UpdateProfile(c.Request.Context(), actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, admin, nil)
}

// ChangePassword godoc
// @Summary Change admin password
// @Tags Profile
// @Accept json
// @Produce json
// @Param payload body service.ChangePasswordRequest true "Password payload"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /profile/password [put]
func (h *ProfileHandler) ChangePassword(c *gin.Context) {
	var req service.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.admins.ChangePassword(c.Request.Context(), actorFromContext(c), req); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "Password changed successfully.")
}
