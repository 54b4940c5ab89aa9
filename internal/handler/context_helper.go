package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/edukasys/sfa-records-api/internal/lifecycle"
	"github.com/edukasys/sfa-records-api/internal/middleware"
	"github.com/edukasys/sfa-records-api/internal/models"
	appErrors "github.com/edukasys/sfa-records-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextAdminKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func actorFromContext(c *gin.Context) lifecycle.Actor {
	actor := lifecycle.Actor{IPAddress: c.ClientIP()}
	if claims := claimsFromContext(c); claims != nil {
		actor.AdminID = claims.AdminID
	}
	return actor
}

func idParam(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrNotFound, "resource not found")
	}
	return id, nil
}

func listFilterFromQuery(c *gin.Context) models.ListFilter {
	var filter models.ListFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Status = c.Query("status")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")
	return filter
}
