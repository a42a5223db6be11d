// Handler wiring shared across endpoint files.
//
// Handlers are transport-thin: they validate input, call application
// services through narrow interfaces, and translate results into HTTP
// responses. Service errors are mapped here to the stable error codes in
// errors.go; nothing below this layer knows about HTTP statuses.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SravanamCharan20/EcoBites2/internal/services"
	"github.com/SravanamCharan20/EcoBites2/internal/utils"
)

// Handlers groups the HTTP endpoints for accounts, donations, requests,
// chats, and analytics. It depends on abstract service interfaces to keep
// transport concerns separate from business logic.
type Handlers struct {
	authSvc      AuthService
	donationSvc  DonationService
	requestSvc   RequestService
	chatSvc      ChatService
	analyticsSvc AnalyticsService
}

// New constructs a Handlers instance bound to the given services.
func New(authSvc AuthService, donationSvc DonationService, requestSvc RequestService, chatSvc ChatService, analyticsSvc AnalyticsService) *Handlers {
	return &Handlers{
		authSvc:      authSvc,
		donationSvc:  donationSvc,
		requestSvc:   requestSvc,
		chatSvc:      chatSvc,
		analyticsSvc: analyticsSvc,
	}
}

// userID extracts the authenticated user id from the Gin context, where
// the auth middleware put it. The context is the only identity source;
// request headers are never consulted.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// requireUserID resolves the acting user or aborts with 401.
func requireUserID(c *gin.Context) (string, bool) {
	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return "", false
	}
	return uid, true
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// failFromService maps well-known service errors to HTTP responses and
// reports whether err was handled. Unmatched errors are the caller's
// responsibility (usually a 500 with an operation-specific code).
func failFromService(c *gin.Context, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, services.ErrValidation):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrInvalidKind):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "kind must be food or nonfood")
	case errors.Is(err, services.ErrEmptyMessage), errors.Is(err, services.ErrMessageTooLong):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, err.Error())
	case errors.Is(err, services.ErrForbidden), errors.Is(err, services.ErrOwnDonation):
		fail(c, http.StatusForbidden, ErrCodeForbidden, err.Error())
	case errors.Is(err, services.ErrInvalidParticipant):
		fail(c, http.StatusForbidden, ErrCodeInvalidParticipant, err.Error())
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrDonationNotFound),
		errors.Is(err, services.ErrRequestNotFound),
		errors.Is(err, services.ErrChatNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrUsernameTaken),
		errors.Is(err, services.ErrSelfChat):
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
	default:
		return false
	}
	return true
}
