package handlers

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/SravanamCharan20/EcoBites2/internal/domain"
	"github.com/SravanamCharan20/EcoBites2/internal/services"
)

func TestRegister(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		st := &stubs{}
		st.auth.register = func(ctx context.Context, username, email, password string) (*domain.User, string, error) {
			if username != "alice" || email != "a@example.com" {
				t.Errorf("inputs not forwarded: %q %q", username, email)
			}
			return &domain.User{ID: "u1", Username: username}, "tok", nil
		}
		r := newRouter(http.MethodPost, "/auth/register", st.handlers().Register)

		w := doJSON(t, r, http.MethodPost, "/auth/register", "", map[string]string{
			"username": "alice", "email": "a@example.com", "password": "longenough",
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("status = %d; want 201 (%s)", w.Code, w.Body.String())
		}
		resp := decodeBody[AuthResponse](t, w)
		if resp.User.ID != "u1" || resp.Token != "tok" {
			t.Fatalf("unexpected response: %+v", resp)
		}
	})

	t.Run("invalid body", func(t *testing.T) {
		st := &stubs{}
		r := newRouter(http.MethodPost, "/auth/register", st.handlers().Register)
		w := doJSON(t, r, http.MethodPost, "/auth/register", "", map[string]string{"username": "alice"})
		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d; want 400", w.Code)
		}
	})

	t.Run("email taken", func(t *testing.T) {
		st := &stubs{}
		st.auth.register = func(ctx context.Context, username, email, password string) (*domain.User, string, error) {
			return nil, "", services.ErrEmailTaken
		}
		r := newRouter(http.MethodPost, "/auth/register", st.handlers().Register)
		w := doJSON(t, r, http.MethodPost, "/auth/register", "", map[string]string{
			"username": "alice", "email": "a@example.com", "password": "longenough",
		})
		if w.Code != http.StatusConflict {
			t.Fatalf("status = %d; want 409", w.Code)
		}
	})
}

func TestLogin(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		st := &stubs{}
		st.auth.login = func(ctx context.Context, email, password string) (*domain.User, string, error) {
			return &domain.User{ID: "u1"}, "tok", nil
		}
		r := newRouter(http.MethodPost, "/auth/login", st.handlers().Login)
		w := doJSON(t, r, http.MethodPost, "/auth/login", "", map[string]string{
			"email": "a@example.com", "password": "pw-anything",
		})
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d; want 200", w.Code)
		}
	})

	t.Run("bad credentials", func(t *testing.T) {
		st := &stubs{}
		st.auth.login = func(ctx context.Context, email, password string) (*domain.User, string, error) {
			return nil, "", services.ErrInvalidCredentials
		}
		r := newRouter(http.MethodPost, "/auth/login", st.handlers().Login)
		w := doJSON(t, r, http.MethodPost, "/auth/login", "", map[string]string{
			"email": "a@example.com", "password": "wrong",
		})
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d; want 401", w.Code)
		}
		if !strings.Contains(w.Body.String(), ErrCodeUnauthorized) {
			t.Fatalf("body = %s", w.Body.String())
		}
	})
}

func TestGetProfile(t *testing.T) {
	st := &stubs{}
	st.auth.profile = func(ctx context.Context, userID string) (*domain.User, error) {
		return &domain.User{ID: userID, Username: "alice"}, nil
	}
	r := newRouter(http.MethodGet, "/profile", st.handlers().GetProfile)

	t.Run("requires identity", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/profile", "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d; want 401", w.Code)
		}
	})

	t.Run("returns the account", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/profile", "u1", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d; want 200", w.Code)
		}
		u := decodeBody[domain.User](t, w)
		if u.ID != "u1" {
			t.Fatalf("user = %+v", u)
		}
	})
}

func TestUpdateProfile(t *testing.T) {
	var gotUpd services.ProfileUpdate
	st := &stubs{}
	st.auth.updateProfile = func(ctx context.Context, userID string, upd services.ProfileUpdate) (*domain.User, error) {
		gotUpd = upd
		return &domain.User{ID: userID}, nil
	}
	r := newRouter(http.MethodPut, "/profile", st.handlers().UpdateProfile)

	w := doJSON(t, r, http.MethodPut, "/profile", "u1", map[string]string{"username": "newname"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", w.Code)
	}
	if gotUpd.Username == nil || *gotUpd.Username != "newname" {
		t.Fatalf("username not forwarded: %+v", gotUpd)
	}
	if gotUpd.ProfilePicture != nil {
		t.Fatalf("absent fields must stay nil")
	}
}
