// Donation request HTTP handlers.
//
// This file exposes REST endpoints for the request workflow:
//   - POST /requests                 (file a request, idempotency-key aware)
//   - GET  /requests/mine            (requests the user filed)
//   - GET  /requests/incoming        (requests against the user's donations)
//   - POST /requests/{id}/accept     (donor accepts; opens the chat)
//   - POST /requests/{id}/reject     (donor rejects)
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/SravanamCharan20/EcoBites2/internal/domain"
	"github.com/SravanamCharan20/EcoBites2/internal/services"
)

// RequestService defines the request workflow operations consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type RequestService interface {
	// Create files a pending request against a donation.
	Create(ctx context.Context, userID string, in services.RequestInput) (*domain.DonationRequest, error)
	// ListMine returns the requests the user filed.
	ListMine(ctx context.Context, userID, kind string) ([]domain.DonationRequest, error)
	// ListIncoming returns requests against the user's donations.
	ListIncoming(ctx context.Context, donorID string) ([]domain.DonationRequest, error)
	// Accept marks a pending request accepted and opens the chat.
	Accept(ctx context.Context, requestID, actorID string) (*domain.DonationRequest, *domain.Chat, error)
	// Reject marks a pending request rejected.
	Reject(ctx context.Context, requestID, actorID string) (*domain.DonationRequest, error)
}

// CreateRequestRequest is the JSON payload for filing a donation request.
type CreateRequestRequest struct {
	DonationID    string          `json:"donation_id" binding:"required" format:"uuid"`
	RequesterName string          `json:"requester_name" binding:"required" example:"Ravi"`
	ContactNumber string          `json:"contact_number" binding:"required" example:"+91-8888888888"`
	Address       domain.Address  `json:"address"`
	Location      domain.Location `json:"location"`
	Description   string          `json:"description,omitempty"`
}

// AcceptResponse wraps the decided request and the chat opened for the pair.
type AcceptResponse struct {
	Request *domain.DonationRequest `json:"request"`
	Chat    *domain.Chat            `json:"chat"`
}

// CreateRequest godoc
// @ID          createRequest
// @Summary     Request a donation
// @Description Files a pending request against someone else's donation.
// @Tags        Requests
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       Idempotency-Key  header  string  false "Safe-retry key"
// @Param       body             body    handlers.CreateRequestRequest  true  "Request payload"
//
// @Success     201  {object}  domain.DonationRequest
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     403  {object}  handlers.ErrorResponse  "Own donation"
// @Failure     404  {object}  handlers.ErrorResponse  "Donation not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /requests [post]
func (h *Handlers) CreateRequest(c *gin.Context) {
	uid, okID := requireUserID(c)
	if !okID {
		return
	}

	var req CreateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	r, err := h.requestSvc.Create(c.Request.Context(), uid, services.RequestInput{
		DonationID:    req.DonationID,
		RequesterName: req.RequesterName,
		ContactNumber: req.ContactNumber,
		Address:       req.Address,
		Location:      req.Location,
		Description:   req.Description,
	})
	if err != nil {
		if !failFromService(c, err) {
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		}
		return
	}
	c.Set("resourceID", r.ID)
	ok(c, http.StatusCreated, r)
}

// ListMyRequests godoc
// @ID          listMyRequests
// @Summary     List requests the current user filed
// @Tags        Requests
// @Produce     json
// @Security    BearerAuth
//
// @Param       kind  query  string  false  "Filter by food or nonfood"
//
// @Success     200  {array}   domain.DonationRequest
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /requests/mine [get]
func (h *Handlers) ListMyRequests(c *gin.Context) {
	uid, okID := requireUserID(c)
	if !okID {
		return
	}
	items, err := h.requestSvc.ListMine(c.Request.Context(), uid, c.Query("kind"))
	if err != nil {
		if !failFromService(c, err) {
			fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, items)
}

// ListIncomingRequests godoc
// @ID          listIncomingRequests
// @Summary     List requests against the current user's donations
// @Tags        Requests
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {array}   domain.DonationRequest
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /requests/incoming [get]
func (h *Handlers) ListIncomingRequests(c *gin.Context) {
	uid, okID := requireUserID(c)
	if !okID {
		return
	}
	items, err := h.requestSvc.ListIncoming(c.Request.Context(), uid)
	if err != nil {
		if !failFromService(c, err) {
			fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, items)
}

// AcceptRequest godoc
// @ID          acceptRequest
// @Summary     Accept a donation request
// @Description Marks a pending request accepted and opens (or resolves) the
// @Description chat between donor and requester.
// @Tags        Requests
// @Produce     json
// @Security    BearerAuth
//
// @Param       id  path  string  true  "Request ID (UUID)"  format(uuid)
//
// @Success     200  {object}  handlers.AcceptResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     403  {object}  handlers.ErrorResponse  "Not the donation owner"
// @Failure     404  {object}  handlers.ErrorResponse  "Request not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /requests/{id}/accept [post]
func (h *Handlers) AcceptRequest(c *gin.Context) {
	uid, okID := requireUserID(c)
	if !okID {
		return
	}
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "request id must be a UUID")
		return
	}

	req, chat, err := h.requestSvc.Accept(c.Request.Context(), id, uid)
	if err != nil {
		if !failFromService(c, err) {
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, AcceptResponse{Request: req, Chat: chat})
}

// RejectRequest godoc
// @ID          rejectRequest
// @Summary     Reject a donation request
// @Tags        Requests
// @Produce     json
// @Security    BearerAuth
//
// @Param       id  path  string  true  "Request ID (UUID)"  format(uuid)
//
// @Success     200  {object}  domain.DonationRequest
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     403  {object}  handlers.ErrorResponse  "Not the donation owner"
// @Failure     404  {object}  handlers.ErrorResponse  "Request not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /requests/{id}/reject [post]
func (h *Handlers) RejectRequest(c *gin.Context) {
	uid, okID := requireUserID(c)
	if !okID {
		return
	}
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "request id must be a UUID")
		return
	}

	req, err := h.requestSvc.Reject(c.Request.Context(), id, uid)
	if err != nil {
		if !failFromService(c, err) {
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, req)
}
