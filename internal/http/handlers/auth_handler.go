// Account HTTP handlers.
//
// This file exposes REST endpoints for registration, login, and the current
// user's profile:
//   - POST /auth/register
//   - POST /auth/login
//   - GET  /profile
//   - PUT  /profile
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SravanamCharan20/EcoBites2/internal/domain"
	"github.com/SravanamCharan20/EcoBites2/internal/services"
)

// AuthService defines the account operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type AuthService interface {
	// Register creates an account and returns it with a bearer token.
	Register(ctx context.Context, username, email, password string) (*domain.User, string, error)
	// Login verifies credentials and returns the user with a bearer token.
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
	// Profile returns the account for userID.
	Profile(ctx context.Context, userID string) (*domain.User, error)
	// UpdateProfile applies a partial profile update.
	UpdateProfile(ctx context.Context, userID string, upd services.ProfileUpdate) (*domain.User, error)
}

// RegisterRequest is the JSON payload for creating an account.
type RegisterRequest struct {
	Username string `json:"username" binding:"required" example:"greenshare"`
	Email    string `json:"email"    binding:"required" example:"donor@example.com"`
	Password string `json:"password" binding:"required" example:"correct horse battery"`
}

// LoginRequest is the JSON payload for logging in.
type LoginRequest struct {
	Email    string `json:"email"    binding:"required" example:"donor@example.com"`
	Password string `json:"password" binding:"required" example:"correct horse battery"`
}

// AuthResponse wraps the account and its freshly issued bearer token.
type AuthResponse struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

// UpdateProfileRequest is the JSON payload for a partial profile update.
// Absent fields are left unchanged.
type UpdateProfileRequest struct {
	Username       *string `json:"username,omitempty"`
	ProfilePicture *string `json:"profile_picture,omitempty"`
}

// Register godoc
// @ID          register
// @Summary     Register an account
// @Description Creates an account and returns it with a bearer token.
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.RegisterRequest  true  "Registration payload"
//
// @Success     201  {object}  handlers.AuthResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     409  {object}  handlers.ErrorResponse  "Email or username taken"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/register [post]
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	user, token, err := h.authSvc.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if !failFromService(c, err) {
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, AuthResponse{User: user, Token: token})
}

// Login godoc
// @ID          login
// @Summary     Log in
// @Description Verifies credentials and returns the user with a bearer token.
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.LoginRequest  true  "Login payload"
//
// @Success     200  {object}  handlers.AuthResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Invalid credentials"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	user, token, err := h.authSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if !failFromService(c, err) {
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, AuthResponse{User: user, Token: token})
}

// GetProfile godoc
// @ID          getProfile
// @Summary     Current user's profile
// @Tags        Auth
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {object}  domain.User
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /profile [get]
func (h *Handlers) GetProfile(c *gin.Context) {
	uid, okID := requireUserID(c)
	if !okID {
		return
	}
	user, err := h.authSvc.Profile(c.Request.Context(), uid)
	if err != nil {
		if !failFromService(c, err) {
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, user)
}

// UpdateProfile godoc
// @ID          updateProfile
// @Summary     Update the current user's profile
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       body  body  handlers.UpdateProfileRequest  true  "Profile patch"
//
// @Success     200  {object}  domain.User
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Failure     409  {object}  handlers.ErrorResponse  "Username taken"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /profile [put]
func (h *Handlers) UpdateProfile(c *gin.Context) {
	uid, okID := requireUserID(c)
	if !okID {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	user, err := h.authSvc.UpdateProfile(c.Request.Context(), uid, services.ProfileUpdate{
		Username:       req.Username,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		if !failFromService(c, err) {
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, user)
}
