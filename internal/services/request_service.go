// Package services – RequestService
//
// This file implements the request workflow: a user asks for someone
// else's donation, the donor sees incoming requests, and an accept opens a
// chat between the two parties while a reject closes the request. Status
// transitions are one-shot; a request that already left pending cannot be
// decided again.
package services

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/SravanamCharan20/EcoBites2/internal/domain"
)

// RequestRepo defines the repository contract required by RequestService.
type RequestRepo interface {
	// CreateRequest inserts a pending donation request.
	CreateRequest(ctx context.Context, db *gorm.DB, r *domain.DonationRequest) (*domain.DonationRequest, error)

	// GetRequest fetches a request by ID.
	GetRequest(ctx context.Context, db *gorm.DB, id string) (*domain.DonationRequest, error)

	// ListRequestsByUser returns requests made by a user.
	ListRequestsByUser(ctx context.Context, db *gorm.DB, userID, kind string) ([]domain.DonationRequest, error)

	// ListRequestsForDonor returns requests against a donor's donations.
	ListRequestsForDonor(ctx context.Context, db *gorm.DB, donorID string) ([]domain.DonationRequest, error)

	// UpdateRequestStatus transitions a pending request.
	UpdateRequestStatus(ctx context.Context, db *gorm.DB, id, status string) error

	// GetDonation fetches the donation a request points at.
	GetDonation(ctx context.Context, db *gorm.DB, id string) (*domain.Donation, error)
}

// ChatOpener is the slice of ChatService the accept path needs.
type ChatOpener interface {
	CreateOrGet(ctx context.Context, donorID, requesterID string) (*domain.Chat, error)
}

// RequestService provides the donation request workflow.
type RequestService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the request repository used by this service.
	Repo RequestRepo
	// Chats opens the donor/requester chat on accept.
	Chats ChatOpener
}

// NewRequestService constructs a RequestService.
func NewRequestService(db *gorm.DB, r RequestRepo, chats ChatOpener) *RequestService {
	return &RequestService{DB: db, Repo: r, Chats: chats}
}

// RequestInput is the payload for filing a donation request.
type RequestInput struct {
	DonationID    string
	RequesterName string
	ContactNumber string
	Address       domain.Address
	Location      domain.Location
	Description   string
}

// Create files a pending request by userID against a donation. Requesting
// your own donation is rejected; the donation must exist.
func (s *RequestService) Create(ctx context.Context, userID string, in RequestInput) (*domain.DonationRequest, error) {
	tr := otel.Tracer("services/RequestService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("donation.id", in.DonationID),
		),
	)
	defer span.End()

	if strings.TrimSpace(in.DonationID) == "" {
		return nil, wrapValidation("donation_id is required")
	}
	if strings.TrimSpace(in.RequesterName) == "" {
		return nil, wrapValidation("requester name is required")
	}
	if strings.TrimSpace(in.ContactNumber) == "" {
		return nil, wrapValidation("contact number is required")
	}

	donation, err := s.Repo.GetDonation(ctx, s.DB, in.DonationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDonationNotFound
		}
		return nil, err
	}
	if donation.UserID == userID {
		return nil, ErrOwnDonation
	}

	r := &domain.DonationRequest{
		DonationID:    donation.ID,
		UserID:        userID,
		Kind:          donation.Kind,
		RequesterName: strings.TrimSpace(in.RequesterName),
		ContactNumber: strings.TrimSpace(in.ContactNumber),
		Address:       in.Address,
		Location:      in.Location,
		Description:   strings.TrimSpace(in.Description),
	}
	return s.Repo.CreateRequest(ctx, s.DB, r)
}

// ListMine returns the requests userID has filed. Kind is optional.
func (s *RequestService) ListMine(ctx context.Context, userID, kind string) ([]domain.DonationRequest, error) {
	out, err := s.Repo.ListRequestsByUser(ctx, s.DB, userID, strings.ToLower(strings.TrimSpace(kind)))
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.DonationRequest{}
	}
	return out, nil
}

// ListIncoming returns the requests filed against donorID's donations.
func (s *RequestService) ListIncoming(ctx context.Context, donorID string) ([]domain.DonationRequest, error) {
	out, err := s.Repo.ListRequestsForDonor(ctx, s.DB, donorID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.DonationRequest{}
	}
	return out, nil
}

// Accept marks a pending request accepted and opens (or resolves) the chat
// between the donor and the requester. Only the donation's owner may accept.
// The chat is returned so the handler can point the client at it.
func (s *RequestService) Accept(ctx context.Context, requestID, actorID string) (*domain.DonationRequest, *domain.Chat, error) {
	tr := otel.Tracer("services/RequestService")
	ctx, span := tr.Start(ctx, "Accept",
		trace.WithAttributes(
			attribute.String("request.id", requestID),
			attribute.String("user.id", actorID),
		),
	)
	defer span.End()

	req, donation, err := s.loadForDecision(ctx, requestID, actorID)
	if err != nil {
		return nil, nil, err
	}

	if err := s.Repo.UpdateRequestStatus(ctx, s.DB, requestID, domain.RequestAccepted); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrRequestNotFound
		}
		return nil, nil, err
	}
	req.Status = domain.RequestAccepted

	chat, err := s.Chats.CreateOrGet(ctx, donation.UserID, req.UserID)
	if err != nil {
		// The acceptance is already durable; a chat failure surfaces but
		// does not roll the decision back.
		return req, nil, err
	}
	return req, chat, nil
}

// Reject marks a pending request rejected. Only the donation's owner may
// reject.
func (s *RequestService) Reject(ctx context.Context, requestID, actorID string) (*domain.DonationRequest, error) {
	tr := otel.Tracer("services/RequestService")
	ctx, span := tr.Start(ctx, "Reject",
		trace.WithAttributes(
			attribute.String("request.id", requestID),
			attribute.String("user.id", actorID),
		),
	)
	defer span.End()

	req, _, err := s.loadForDecision(ctx, requestID, actorID)
	if err != nil {
		return nil, err
	}

	if err := s.Repo.UpdateRequestStatus(ctx, s.DB, requestID, domain.RequestRejected); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	req.Status = domain.RequestRejected
	return req, nil
}

// loadForDecision fetches the request and its donation and verifies that
// actorID owns the donation and the request is still pending.
func (s *RequestService) loadForDecision(ctx context.Context, requestID, actorID string) (*domain.DonationRequest, *domain.Donation, error) {
	req, err := s.Repo.GetRequest(ctx, s.DB, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrRequestNotFound
		}
		return nil, nil, err
	}
	if req.Status != domain.RequestPending {
		return nil, nil, ErrRequestNotFound
	}

	donation, err := s.Repo.GetDonation(ctx, s.DB, req.DonationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrDonationNotFound
		}
		return nil, nil, err
	}
	if donation.UserID != actorID {
		return nil, nil, ErrForbidden
	}
	return req, donation, nil
}
