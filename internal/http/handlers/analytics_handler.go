// Analytics HTTP handlers.
//
// Read-only dashboard endpoints:
//   - GET /analytics/overall
//   - GET /analytics/user
//   - GET /analytics/impact
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SravanamCharan20/EcoBites2/internal/services"
)

// AnalyticsService defines the aggregate views consumed by HTTP handlers.
type AnalyticsService interface {
	// Overall returns the user's counts next to community totals.
	Overall(ctx context.Context, userID string) (*services.OverallStats, error)
	// User returns the per-user dashboard.
	User(ctx context.Context, userID string) (*services.UserStats, error)
	// Impact relates the user's activity to platform totals.
	Impact(ctx context.Context, userID string) (*services.ImpactStats, error)
}

// OverallAnalytics godoc
// @ID          overallAnalytics
// @Summary     Overall donation and request counts
// @Tags        Analytics
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {object}  services.OverallStats
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /analytics/overall [get]
func (h *Handlers) OverallAnalytics(c *gin.Context) {
	uid, okID := requireUserID(c)
	if !okID {
		return
	}
	stats, err := h.analyticsSvc.Overall(c.Request.Context(), uid)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, stats)
}

// UserAnalytics godoc
// @ID          userAnalytics
// @Summary     Monthly trend and success rate for the current user
// @Tags        Analytics
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {object}  services.UserStats
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /analytics/user [get]
func (h *Handlers) UserAnalytics(c *gin.Context) {
	uid, okID := requireUserID(c)
	if !okID {
		return
	}
	stats, err := h.analyticsSvc.User(c.Request.Context(), uid)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, stats)
}

// ImpactAnalytics godoc
// @ID          impactAnalytics
// @Summary     The current user's share of platform activity
// @Tags        Analytics
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {object}  services.ImpactStats
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /analytics/impact [get]
func (h *Handlers) ImpactAnalytics(c *gin.Context) {
	uid, okID := requireUserID(c)
	if !okID {
		return
	}
	stats, err := h.analyticsSvc.Impact(c.Request.Context(), uid)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, stats)
}
