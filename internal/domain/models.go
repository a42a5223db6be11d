// Package domain defines the persistence models for users, donations,
// donation requests, chats, and chat messages. These types are mapped with
// GORM and form the core data layer of the donation-matching application.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Donation kinds accepted across the API.
const (
	KindFood    = "food"
	KindNonFood = "nonfood"
)

// Request status values. A request starts pending; the donor either accepts
// or rejects it. Accepting a request opens a chat between donor and requester.
const (
	RequestPending  = "pending"
	RequestAccepted = "accepted"
	RequestRejected = "rejected"
)

// Address is an embedded postal address. All fields are optional; the
// geocoder falls back to city/state/country when street is absent.
type Address struct {
	Street     string `json:"street,omitempty"      gorm:"type:varchar(255)"`
	City       string `json:"city,omitempty"        gorm:"type:varchar(128)"`
	State      string `json:"state,omitempty"       gorm:"type:varchar(128)"`
	PostalCode string `json:"postal_code,omitempty" gorm:"type:varchar(32)"`
	Country    string `json:"country,omitempty"     gorm:"type:varchar(128)"`
}

// Location is an embedded WGS84 coordinate pair. Pointers distinguish
// "not provided" from a genuine (0, 0) fix.
type Location struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// HasCoordinates reports whether both latitude and longitude are set.
func (l Location) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// User represents a registered account. Passwords are stored as bcrypt
// hashes and never serialized.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Username / Email: unique account identifiers.
//   - PasswordHash: bcrypt digest, excluded from JSON.
//   - ProfilePicture: optional avatar URL.
type User struct {
	ID             string         `json:"id"              gorm:"type:char(36);primaryKey"`
	Username       string         `json:"username"        gorm:"type:varchar(64);not null;uniqueIndex"`
	Email          string         `json:"email"           gorm:"type:varchar(255);not null;uniqueIndex"`
	PasswordHash   string         `json:"-"               gorm:"type:varchar(255);not null"`
	ProfilePicture string         `json:"profile_picture,omitempty" gorm:"type:varchar(512)"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-"               gorm:"index"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Donation represents a posted donation (food or non-food) with its contact
// details, pickup address, optional coordinates, and child items.
//
// Fields:
//   - Kind: "food" or "nonfood" (enforced by DB constraint).
//   - AvailableUntil: a donation is "active" while this lies in the future.
//   - Items: child rows, cascade-deleted with the donation.
type Donation struct {
	ID             string         `json:"id"             gorm:"type:char(36);primaryKey"`
	UserID         string         `json:"user_id"        gorm:"type:char(36);not null;index:idx_user_donations"`
	Kind           string         `json:"kind"           gorm:"type:varchar(16);not null;index;check:kind IN ('food','nonfood')"`
	DonorName      string         `json:"donor_name"     gorm:"type:varchar(128);not null"`
	ContactNumber  string         `json:"contact_number" gorm:"type:varchar(32);not null"`
	Description    string         `json:"description,omitempty" gorm:"type:text"`
	Address        Address        `json:"address"        gorm:"embedded;embeddedPrefix:addr_"`
	Location       Location       `json:"location"       gorm:"embedded;embeddedPrefix:loc_"`
	AvailableUntil time.Time      `json:"available_until" gorm:"not null;index"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-"              gorm:"index"`

	Items []DonationItem `json:"items" gorm:"foreignKey:DonationID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Donation.
func (Donation) TableName() string { return "donations" }

// Active reports whether the donation is still available at t.
func (d Donation) Active(t time.Time) bool { return d.AvailableUntil.After(t) }

// DonationItem is a single item within a donation, e.g. one dish of a food
// donation or one article of a non-food donation. Quantity defaults to 1.
type DonationItem struct {
	ID         string     `json:"id"          gorm:"type:char(36);primaryKey"`
	DonationID string     `json:"donation_id" gorm:"type:char(36);not null;index"`
	Name       string     `json:"name"        gorm:"type:varchar(255);not null"`
	Quantity   int        `json:"quantity"    gorm:"not null;default:1"`
	Condition  string     `json:"condition,omitempty" gorm:"type:varchar(64)"` // non-food only
	ExpiryDate *time.Time `json:"expiry_date,omitempty"`                       // food only
	CreatedAt  time.Time  `json:"created_at"`
}

// TableName returns the database table name for DonationItem.
func (DonationItem) TableName() string { return "donation_items" }

// DonationRequest captures a user's request for someone else's donation.
// It carries the requester's contact details so the donor can reach them
// once the request is accepted.
type DonationRequest struct {
	ID            string         `json:"id"             gorm:"type:char(36);primaryKey"`
	DonationID    string         `json:"donation_id"    gorm:"type:char(36);not null;index"`
	UserID        string         `json:"user_id"        gorm:"type:char(36);not null;index"`
	Kind          string         `json:"kind"           gorm:"type:varchar(16);not null;check:kind IN ('food','nonfood')"`
	RequesterName string         `json:"requester_name" gorm:"type:varchar(128);not null"`
	ContactNumber string         `json:"contact_number" gorm:"type:varchar(32);not null"`
	Address       Address        `json:"address"        gorm:"embedded;embeddedPrefix:addr_"`
	Location      Location       `json:"location"       gorm:"embedded;embeddedPrefix:loc_"`
	Description   string         `json:"description,omitempty" gorm:"type:text"`
	Status        string         `json:"status"         gorm:"type:varchar(16);not null;default:'pending';check:status IN ('pending','accepted','rejected')"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-"              gorm:"index"`

	Donation Donation `json:"-" gorm:"foreignKey:DonationID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for DonationRequest.
func (DonationRequest) TableName() string { return "donation_requests" }

// Chat is a persisted two-party conversation between a donor and a
// requester. Self-chats (donor == requester) are rejected at creation and
// filtered again at read time.
//
// UpdatedAt doubles as the last-activity marker: appending a message
// touches the chat row so that chat lists order by recency.
type Chat struct {
	ID          string         `json:"id"           gorm:"type:char(36);primaryKey"`
	DonorID     string         `json:"donor_id"     gorm:"type:char(36);not null;index:idx_chat_pair,priority:1"`
	RequesterID string         `json:"requester_id" gorm:"type:char(36);not null;index:idx_chat_pair,priority:2"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"   gorm:"index"`
	DeletedAt   gorm.DeletedAt `json:"-"            gorm:"index"`
}

// TableName returns the database table name for Chat.
func (Chat) TableName() string { return "chats" }

// HasParticipant reports whether userID is one of the chat's two parties.
func (c Chat) HasParticipant(userID string) bool {
	return userID == c.DonorID || userID == c.RequesterID
}

// Counterpart returns the participant that is not userID. The second return
// value is false when userID is not a participant at all.
func (c Chat) Counterpart(userID string) (string, bool) {
	switch userID {
	case c.DonorID:
		return c.RequesterID, true
	case c.RequesterID:
		return c.DonorID, true
	default:
		return "", false
	}
}

// ChatMessage is a single utterance within a chat. Messages are append-only
// and immutable: there is no edit or delete operation, and CreatedAt is set
// server-side at append time.
type ChatMessage struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	ChatID    string    `json:"chat_id"    gorm:"type:char(36);not null;index:idx_chat_msgs,priority:1"`
	SenderID  string    `json:"sender_id"  gorm:"type:char(36);not null"`
	Content   string    `json:"content"    gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_chat_msgs,priority:2"`

	Chat Chat `json:"-" gorm:"foreignKey:ChatID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for ChatMessage.
func (ChatMessage) TableName() string { return "chat_messages" }
