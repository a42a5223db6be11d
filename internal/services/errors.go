// Package services defines the business logic for accounts, donations,
// donation requests, chats, and analytics. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer;
// translation into user-facing messages or HTTP status codes is performed
// at the handler layer.
package services

import "errors"

// Account-related errors.
var (
	// ErrEmailTaken is returned when registration collides with an
	// existing account's email address.
	ErrEmailTaken = errors.New("email already registered")

	// ErrUsernameTaken is returned when registration collides with an
	// existing account's username.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrInvalidCredentials is returned on login when the email is unknown
	// or the password does not match. The two cases are deliberately
	// indistinguishable to callers.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrUserNotFound indicates that the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// Donation-related errors.
var (
	// ErrDonationNotFound indicates that the requested donation does not
	// exist or is not accessible to the current user.
	ErrDonationNotFound = errors.New("donation not found")

	// ErrInvalidKind is returned when a donation kind is neither "food"
	// nor "nonfood".
	ErrInvalidKind = errors.New("invalid donation kind")

	// ErrValidation is returned when a create or update payload fails
	// field validation; it is wrapped with a field-specific message.
	ErrValidation = errors.New("validation failed")
)

// Request-related errors.
var (
	// ErrRequestNotFound indicates that the requested donation request
	// does not exist or has already left the pending state.
	ErrRequestNotFound = errors.New("request not found")

	// ErrOwnDonation is returned when a user tries to request a donation
	// they posted themselves.
	ErrOwnDonation = errors.New("cannot request own donation")

	// ErrForbidden is returned when the acting user is not allowed to
	// perform the operation (e.g. deciding a request on someone else's
	// donation).
	ErrForbidden = errors.New("forbidden")
)

// Chat-related errors.
var (
	// ErrChatNotFound indicates that the requested chat does not exist.
	ErrChatNotFound = errors.New("chat not found")

	// ErrSelfChat is returned when both chat participants resolve to the
	// same user.
	ErrSelfChat = errors.New("cannot open a chat with yourself")

	// ErrInvalidParticipant is returned when the acting user is not one of
	// the chat's two parties.
	ErrInvalidParticipant = errors.New("not a chat participant")

	// ErrEmptyMessage is returned when a message append carries no content.
	ErrEmptyMessage = errors.New("message content is empty")

	// ErrMessageTooLong is returned when a message exceeds the configured
	// maximum length.
	ErrMessageTooLong = errors.New("message content too long")
)
