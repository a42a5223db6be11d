// Package services – AuthService
//
// This file implements account registration, login, and profile management.
// Passwords never leave this layer unhashed: registration stores a bcrypt
// digest and login compares against it. Successful registration and login
// both return a signed bearer token so clients can authenticate follow-up
// requests and the websocket handshake.
package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/SravanamCharan20/EcoBites2/internal/auth"
	"github.com/SravanamCharan20/EcoBites2/internal/domain"
)

// UserRepo defines the repository contract required by AuthService.
type UserRepo interface {
	// CreateUser inserts a new user row.
	CreateUser(ctx context.Context, db *gorm.DB, username, email, passwordHash string) (*domain.User, error)

	// GetUser fetches a user by ID.
	GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error)

	// GetUserByEmail fetches a user by email.
	GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error)

	// UpdateUser applies a column patch to the stored user.
	UpdateUser(ctx context.Context, db *gorm.DB, id string, patch map[string]any) error
}

// AuthService provides registration, login, and profile operations.
type AuthService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the user repository used by this service.
	Repo UserRepo
	// Tokens issues and validates bearer tokens.
	Tokens *auth.TokenManager

	// MinPasswordRunes rejects passwords shorter than this.
	MinPasswordRunes int
}

// NewAuthService constructs an AuthService with a default password policy.
func NewAuthService(db *gorm.DB, r UserRepo, tokens *auth.TokenManager) *AuthService {
	return &AuthService{
		DB:               db,
		Repo:             r,
		Tokens:           tokens,
		MinPasswordRunes: 8,
	}
}

// Register creates an account and returns the user with a fresh token.
// Email comparison is case-insensitive (stored lowercased). Collisions map
// to ErrEmailTaken / ErrUsernameTaken.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*domain.User, string, error) {
	tr := otel.Tracer("services/AuthService")
	ctx, span := tr.Start(ctx, "Register")
	defer span.End()

	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" {
		return nil, "", wrapValidation("username is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, "", wrapValidation("email is invalid")
	}
	if utf8.RuneCountInString(password) < s.MinPasswordRunes {
		return nil, "", wrapValidation("password is too short")
	}

	if existing, err := s.Repo.GetUserByEmail(ctx, s.DB, email); err == nil && existing != nil {
		return nil, "", ErrEmailTaken
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, "", err
	}

	u, err := s.Repo.CreateUser(ctx, s.DB, username, email, hash)
	if err != nil {
		// The unique indexes are the authority; the pre-check above only
		// narrows the race window.
		low := strings.ToLower(err.Error())
		switch {
		case strings.Contains(low, "users.email"):
			return nil, "", ErrEmailTaken
		case strings.Contains(low, "users.username"):
			return nil, "", ErrUsernameTaken
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return nil, "", ErrEmailTaken
		}
		return nil, "", err
	}

	token, err := s.Tokens.Issue(u.ID)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Login verifies credentials and returns the user with a fresh token.
// Unknown email and wrong password both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	tr := otel.Tracer("services/AuthService")
	ctx, span := tr.Start(ctx, "Login")
	defer span.End()

	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.Repo.GetUserByEmail(ctx, s.DB, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.Tokens.Issue(u.ID)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Profile returns the account for userID.
func (s *AuthService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	u, err := s.Repo.GetUser(ctx, s.DB, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// ProfileUpdate carries the optional fields of an update; nil means "leave
// unchanged".
type ProfileUpdate struct {
	Username       *string
	ProfilePicture *string
}

// UpdateProfile applies the provided fields and returns the updated user.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*domain.User, error) {
	tr := otel.Tracer("services/AuthService")
	ctx, span := tr.Start(ctx, "UpdateProfile",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	patch := map[string]any{}
	if upd.Username != nil {
		name := strings.TrimSpace(*upd.Username)
		if name == "" {
			return nil, wrapValidation("username must not be blank")
		}
		patch["username"] = name
	}
	if upd.ProfilePicture != nil {
		patch["profile_picture"] = strings.TrimSpace(*upd.ProfilePicture)
	}

	if len(patch) > 0 {
		if err := s.Repo.UpdateUser(ctx, s.DB, userID, patch); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrUserNotFound
			}
			low := strings.ToLower(err.Error())
			if strings.Contains(low, "users.username") {
				return nil, ErrUsernameTaken
			}
			return nil, err
		}
	}
	return s.Profile(ctx, userID)
}

// wrapValidation attaches a field message to the ErrValidation sentinel so
// handlers can both match the class and surface the detail.
func wrapValidation(msg string) error {
	return &validationError{msg: msg}
}

type validationError struct{ msg string }

func (e *validationError) Error() string { return e.msg }
func (e *validationError) Unwrap() error { return ErrValidation }
