package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/SravanamCharan20/EcoBites2/internal/domain"
	"github.com/SravanamCharan20/EcoBites2/internal/services"
)

func requestPayload() map[string]any {
	return map[string]any{
		"donation_id":    uuid.NewString(),
		"requester_name": "Ravi",
		"contact_number": "+91-8888888888",
	}
}

func TestCreateRequest(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		st := &stubs{}
		st.requests.create = func(ctx context.Context, userID string, in services.RequestInput) (*domain.DonationRequest, error) {
			if userID != "u1" || in.RequesterName != "Ravi" {
				t.Errorf("input not forwarded: user=%q in=%+v", userID, in)
			}
			return &domain.DonationRequest{ID: "r1", UserID: userID}, nil
		}
		r := newRouter(http.MethodPost, "/requests", st.handlers().CreateRequest)

		w := doJSON(t, r, http.MethodPost, "/requests", "u1", requestPayload())
		if w.Code != http.StatusCreated {
			t.Fatalf("status = %d; want 201 (%s)", w.Code, w.Body.String())
		}
	})

	t.Run("own donation forbidden", func(t *testing.T) {
		st := &stubs{}
		st.requests.create = func(ctx context.Context, userID string, in services.RequestInput) (*domain.DonationRequest, error) {
			return nil, services.ErrOwnDonation
		}
		r := newRouter(http.MethodPost, "/requests", st.handlers().CreateRequest)
		w := doJSON(t, r, http.MethodPost, "/requests", "u1", requestPayload())
		if w.Code != http.StatusForbidden {
			t.Fatalf("status = %d; want 403", w.Code)
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		st := &stubs{}
		r := newRouter(http.MethodPost, "/requests", st.handlers().CreateRequest)
		w := doJSON(t, r, http.MethodPost, "/requests", "u1", map[string]any{"donation_id": uuid.NewString()})
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d; want 400", w.Code)
		}
	})
}

func TestAcceptRequest(t *testing.T) {
	t.Run("returns request and chat", func(t *testing.T) {
		st := &stubs{}
		st.requests.accept = func(ctx context.Context, requestID, actorID string) (*domain.DonationRequest, *domain.Chat, error) {
			if actorID != "donor" {
				t.Errorf("actorID = %q", actorID)
			}
			return &domain.DonationRequest{ID: requestID, Status: domain.RequestAccepted},
				&domain.Chat{ID: "c1", DonorID: "donor", RequesterID: "req"}, nil
		}
		r := newRouter(http.MethodPost, "/requests/:id/accept", st.handlers().AcceptRequest)

		w := doJSON(t, r, http.MethodPost, "/requests/"+uuid.NewString()+"/accept", "donor", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d; want 200 (%s)", w.Code, w.Body.String())
		}
		resp := decodeBody[AcceptResponse](t, w)
		if resp.Request == nil || resp.Request.Status != domain.RequestAccepted {
			t.Fatalf("request = %+v", resp.Request)
		}
		if resp.Chat == nil || resp.Chat.ID != "c1" {
			t.Fatalf("chat = %+v", resp.Chat)
		}
	})

	t.Run("rejects non-uuid id", func(t *testing.T) {
		st := &stubs{}
		r := newRouter(http.MethodPost, "/requests/:id/accept", st.handlers().AcceptRequest)
		w := doJSON(t, r, http.MethodPost, "/requests/nope/accept", "donor", nil)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d; want 400", w.Code)
		}
	})

	t.Run("not the donor", func(t *testing.T) {
		st := &stubs{}
		st.requests.accept = func(ctx context.Context, requestID, actorID string) (*domain.DonationRequest, *domain.Chat, error) {
			return nil, nil, services.ErrForbidden
		}
		r := newRouter(http.MethodPost, "/requests/:id/accept", st.handlers().AcceptRequest)
		w := doJSON(t, r, http.MethodPost, "/requests/"+uuid.NewString()+"/accept", "stranger", nil)
		if w.Code != http.StatusForbidden {
			t.Fatalf("status = %d; want 403", w.Code)
		}
	})
}

func TestRejectRequest(t *testing.T) {
	st := &stubs{}
	st.requests.reject = func(ctx context.Context, requestID, actorID string) (*domain.DonationRequest, error) {
		return &domain.DonationRequest{ID: requestID, Status: domain.RequestRejected}, nil
	}
	r := newRouter(http.MethodPost, "/requests/:id/reject", st.handlers().RejectRequest)

	w := doJSON(t, r, http.MethodPost, "/requests/"+uuid.NewString()+"/reject", "donor", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", w.Code)
	}
	req := decodeBody[domain.DonationRequest](t, w)
	if req.Status != domain.RequestRejected {
		t.Fatalf("status = %q; want rejected", req.Status)
	}
}

func TestListRequests(t *testing.T) {
	t.Run("mine forwards kind", func(t *testing.T) {
		st := &stubs{}
		st.requests.listMine = func(ctx context.Context, userID, kind string) ([]domain.DonationRequest, error) {
			if userID != "u1" || kind != "food" {
				t.Errorf("args = %q %q", userID, kind)
			}
			return []domain.DonationRequest{}, nil
		}
		r := newRouter(http.MethodGet, "/requests/mine", st.handlers().ListMyRequests)
		w := doJSON(t, r, http.MethodGet, "/requests/mine?kind=food", "u1", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d; want 200", w.Code)
		}
	})

	t.Run("incoming requires identity", func(t *testing.T) {
		st := &stubs{}
		r := newRouter(http.MethodGet, "/requests/incoming", st.handlers().ListIncomingRequests)
		w := doJSON(t, r, http.MethodGet, "/requests/incoming", "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d; want 401", w.Code)
		}
	})
}
