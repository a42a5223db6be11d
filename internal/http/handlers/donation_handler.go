// Donation HTTP handlers.
//
// This file exposes REST endpoints for donation resources:
//   - POST   /donations                (create, idempotency-key aware)
//   - GET    /donations                (active listings, optional nearest sort)
//   - GET    /donations/mine           (current user's listings)
//   - GET    /donations/{id}           (single donation with items)
//   - PUT    /donations/{id}           (owner-gated update)
//   - DELETE /donations/{id}           (owner-gated delete)
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/SravanamCharan20/EcoBites2/internal/domain"
	"github.com/SravanamCharan20/EcoBites2/internal/services"
)

// DonationService defines donation operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type DonationService interface {
	// Create posts a donation owned by userID.
	Create(ctx context.Context, userID string, in services.DonationInput) (*domain.Donation, error)
	// Get fetches one donation with its items.
	Get(ctx context.Context, id string) (*domain.Donation, error)
	// ListAvailable returns the active donations of one kind.
	ListAvailable(ctx context.Context, kind string) ([]domain.Donation, error)
	// ListNearest returns active donations ranked by distance from the viewer.
	ListNearest(ctx context.Context, kind string, viewerLat, viewerLon float64) ([]services.RankedDonation, error)
	// ListMine returns the donations userID posted.
	ListMine(ctx context.Context, userID, kind string) ([]domain.Donation, error)
	// Update applies an owner-gated patch.
	Update(ctx context.Context, id, userID string, upd services.DonationUpdate) (*domain.Donation, error)
	// Delete removes an owned donation.
	Delete(ctx context.Context, id, userID string) error
}

// DonationItemPayload is one item in a donation payload.
type DonationItemPayload struct {
	Name       string     `json:"name" binding:"required" example:"Rice bags"`
	Quantity   int        `json:"quantity" example:"3"`
	Condition  string     `json:"condition,omitempty" example:"good"`
	ExpiryDate *time.Time `json:"expiry_date,omitempty"`
}

// CreateDonationRequest is the JSON payload for posting a donation.
type CreateDonationRequest struct {
	Kind           string                `json:"kind" binding:"required" example:"food"`
	DonorName      string                `json:"donor_name" binding:"required" example:"Asha Kitchen"`
	ContactNumber  string                `json:"contact_number" binding:"required" example:"+91-9999999999"`
	Description    string                `json:"description,omitempty"`
	Address        domain.Address        `json:"address"`
	Location       domain.Location       `json:"location"`
	AvailableUntil time.Time             `json:"available_until" binding:"required"`
	Items          []DonationItemPayload `json:"items" binding:"required"`
}

// UpdateDonationRequest is the JSON payload for a partial donation update.
// Absent fields are left unchanged; a present items array replaces the item
// set wholesale.
type UpdateDonationRequest struct {
	DonorName      *string               `json:"donor_name,omitempty"`
	ContactNumber  *string               `json:"contact_number,omitempty"`
	Description    *string               `json:"description,omitempty"`
	Address        *domain.Address       `json:"address,omitempty"`
	Location       *domain.Location      `json:"location,omitempty"`
	AvailableUntil *time.Time            `json:"available_until,omitempty"`
	Items          []DonationItemPayload `json:"items,omitempty"`
}

func itemInputs(items []DonationItemPayload) []services.DonationItemInput {
	if items == nil {
		return nil
	}
	out := make([]services.DonationItemInput, 0, len(items))
	for _, it := range items {
		out = append(out, services.DonationItemInput{
			Name:       it.Name,
			Quantity:   it.Quantity,
			Condition:  it.Condition,
			ExpiryDate: it.ExpiryDate,
		})
	}
	return out
}

// CreateDonation godoc
// @ID          createDonation
// @Summary     Post a donation
// @Description Creates a food or non-food donation with its items.
// @Tags        Donations
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       Idempotency-Key  header  string  false "Safe-retry key"
// @Param       body             body    handlers.CreateDonationRequest  true  "Donation payload"
//
// @Success     201  {object}  domain.Donation
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /donations [post]
func (h *Handlers) CreateDonation(c *gin.Context) {
	uid, okID := requireUserID(c)
	if !okID {
		return
	}

	var req CreateDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	d, err := h.donationSvc.Create(c.Request.Context(), uid, services.DonationInput{
		Kind:           req.Kind,
		DonorName:      req.DonorName,
		ContactNumber:  req.ContactNumber,
		Description:    req.Description,
		Address:        req.Address,
		Location:       req.Location,
		AvailableUntil: req.AvailableUntil,
		Items:          itemInputs(req.Items),
	})
	if err != nil {
		if !failFromService(c, err) {
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		}
		return
	}
	c.Set("resourceID", d.ID)
	ok(c, http.StatusCreated, d)
}

// ListDonations godoc
// @ID          listDonations
// @Summary     List active donations
// @Description Returns active donations of one kind, newest first. When lat
// @Description and lon are supplied the list is ranked by distance instead.
// @Tags        Donations
// @Produce     json
//
// @Param       kind  query  string  true   "food or nonfood"
// @Param       lat   query  number  false  "Viewer latitude"
// @Param       lon   query  number  false  "Viewer longitude"
//
// @Success     200  {array}   services.RankedDonation
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /donations [get]
func (h *Handlers) ListDonations(c *gin.Context) {
	ctx := c.Request.Context()
	kind := c.Query("kind")

	latStr, lonStr := c.Query("lat"), c.Query("lon")
	if latStr != "" && lonStr != "" {
		lat, errLat := strconv.ParseFloat(latStr, 64)
		lon, errLon := strconv.ParseFloat(lonStr, 64)
		if errLat != nil || errLon != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "lat and lon must be numbers")
			return
		}
		ranked, err := h.donationSvc.ListNearest(ctx, kind, lat, lon)
		if err != nil {
			if !failFromService(c, err) {
				fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
			}
			return
		}
		ok(c, http.StatusOK, ranked)
		return
	}

	items, err := h.donationSvc.ListAvailable(ctx, kind)
	if err != nil {
		if !failFromService(c, err) {
			fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, items)
}

// ListMyDonations godoc
// @ID          listMyDonations
// @Summary     List the current user's donations
// @Tags        Donations
// @Produce     json
// @Security    BearerAuth
//
// @Param       kind  query  string  true  "food or nonfood"
//
// @Success     200  {array}   domain.Donation
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /donations/mine [get]
func (h *Handlers) ListMyDonations(c *gin.Context) {
	uid, okID := requireUserID(c)
	if !okID {
		return
	}
	items, err := h.donationSvc.ListMine(c.Request.Context(), uid, c.Query("kind"))
	if err != nil {
		if !failFromService(c, err) {
			fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, items)
}

// GetDonation godoc
// @ID          getDonation
// @Summary     Fetch one donation
// @Tags        Donations
// @Produce     json
//
// @Param       id  path  string  true  "Donation ID (UUID)"  format(uuid)
//
// @Success     200  {object}  domain.Donation
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Donation not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /donations/{id} [get]
func (h *Handlers) GetDonation(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "donation id must be a UUID")
		return
	}
	d, err := h.donationSvc.Get(c.Request.Context(), id)
	if err != nil {
		if !failFromService(c, err) {
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, d)
}

// UpdateDonation godoc
// @ID          updateDonation
// @Summary     Update a donation
// @Description Applies a partial update to a donation owned by the current user.
// @Tags        Donations
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       id    path  string  true  "Donation ID (UUID)"  format(uuid)
// @Param       body  body  handlers.UpdateDonationRequest  true  "Donation patch"
//
// @Success     200  {object}  domain.Donation
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "Donation not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /donations/{id} [put]
func (h *Handlers) UpdateDonation(c *gin.Context) {
	uid, okID := requireUserID(c)
	if !okID {
		return
	}
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "donation id must be a UUID")
		return
	}

	var req UpdateDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	d, err := h.donationSvc.Update(c.Request.Context(), id, uid, services.DonationUpdate{
		DonorName:      req.DonorName,
		ContactNumber:  req.ContactNumber,
		Description:    req.Description,
		Address:        req.Address,
		Location:       req.Location,
		AvailableUntil: req.AvailableUntil,
		Items:          itemInputs(req.Items),
	})
	if err != nil {
		if !failFromService(c, err) {
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, d)
}

// DeleteDonation godoc
// @ID          deleteDonation
// @Summary     Delete a donation
// @Tags        Donations
// @Security    BearerAuth
//
// @Param       id  path  string  true  "Donation ID (UUID)"  format(uuid)
//
// @Success     204  {string}  string  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "Donation not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /donations/{id} [delete]
func (h *Handlers) DeleteDonation(c *gin.Context) {
	uid, okID := requireUserID(c)
	if !okID {
		return
	}
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "donation id must be a UUID")
		return
	}
	if err := h.donationSvc.Delete(c.Request.Context(), id, uid); err != nil {
		if !failFromService(c, err) {
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	noContent(c)
}
