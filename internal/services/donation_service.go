// Package services – DonationService
//
// This file implements donation lifecycle operations: posting food and
// non-food donations with their items, listing the active ones (optionally
// sorted by distance from the viewer), and owner-gated update and delete.
//
// Distance sorting is best-effort. Donations that stored coordinates are
// measured directly; donations with only a postal address go through the
// geocoder, and a failed lookup simply leaves that donation unranked at the
// end of the list instead of failing the request.
package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/SravanamCharan20/EcoBites2/internal/domain"
	"github.com/SravanamCharan20/EcoBites2/internal/geo"
)

// DonationRepo defines the repository contract required by DonationService.
type DonationRepo interface {
	// CreateDonation inserts a donation with its items.
	CreateDonation(ctx context.Context, db *gorm.DB, d *domain.Donation) (*domain.Donation, error)

	// GetDonation fetches a donation with items by ID.
	GetDonation(ctx context.Context, db *gorm.DB, id string) (*domain.Donation, error)

	// ListAvailableDonations returns active donations of one kind.
	ListAvailableDonations(ctx context.Context, db *gorm.DB, kind string, now time.Time) ([]domain.Donation, error)

	// ListDonationsByUser returns a user's donations of one kind.
	ListDonationsByUser(ctx context.Context, db *gorm.DB, userID, kind string) ([]domain.Donation, error)

	// UpdateDonation applies a column patch, optionally rewriting items.
	UpdateDonation(ctx context.Context, db *gorm.DB, id, userID string, patch map[string]any, items []domain.DonationItem) error

	// DeleteDonation soft-deletes an owned donation.
	DeleteDonation(ctx context.Context, db *gorm.DB, id, userID string) error
}

// DonationService provides donation CRUD and distance-ranked listings.
type DonationService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the donation repository used by this service.
	Repo DonationRepo
	// Geocoder resolves addresses for distance sorting; nil disables
	// address-based ranking.
	Geocoder geo.Geocoder

	// NameLocale controls title casing of donor and item names.
	NameLocale language.Tag

	// Now is the clock; tests may override it.
	Now func() time.Time
}

// NewDonationService constructs a DonationService.
func NewDonationService(db *gorm.DB, r DonationRepo, geocoder geo.Geocoder) *DonationService {
	return &DonationService{
		DB:         db,
		Repo:       r,
		Geocoder:   geocoder,
		NameLocale: language.English,
		Now:        time.Now,
	}
}

// DonationInput is the payload for posting a donation.
type DonationInput struct {
	Kind           string
	DonorName      string
	ContactNumber  string
	Description    string
	Address        domain.Address
	Location       domain.Location
	AvailableUntil time.Time
	Items          []DonationItemInput
}

// DonationItemInput is one item of a donation payload.
type DonationItemInput struct {
	Name       string
	Quantity   int
	Condition  string     // non-food only
	ExpiryDate *time.Time // food only
}

// RankedDonation pairs a donation with its distance from the viewer in
// kilometers. DistanceKm is nil when the distance could not be determined.
type RankedDonation struct {
	domain.Donation
	DistanceKm *float64 `json:"distance_km,omitempty"`
}

// Create validates and persists a donation owned by userID.
func (s *DonationService) Create(ctx context.Context, userID string, in DonationInput) (*domain.Donation, error) {
	tr := otel.Tracer("services/DonationService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("donation.kind", in.Kind),
		),
	)
	defer span.End()

	kind := strings.ToLower(strings.TrimSpace(in.Kind))
	if kind != domain.KindFood && kind != domain.KindNonFood {
		return nil, ErrInvalidKind
	}
	caser := cases.Title(s.locale())
	donorName := caser.String(strings.TrimSpace(in.DonorName))
	if donorName == "" {
		return nil, wrapValidation("donor name is required")
	}
	if strings.TrimSpace(in.ContactNumber) == "" {
		return nil, wrapValidation("contact number is required")
	}
	if len(in.Items) == 0 {
		return nil, wrapValidation("at least one item is required")
	}
	if in.AvailableUntil.IsZero() || !in.AvailableUntil.After(s.Now()) {
		return nil, wrapValidation("available_until must be in the future")
	}

	d := &domain.Donation{
		UserID:         userID,
		Kind:           kind,
		DonorName:      donorName,
		ContactNumber:  strings.TrimSpace(in.ContactNumber),
		Description:    strings.TrimSpace(in.Description),
		Address:        in.Address,
		Location:       in.Location,
		AvailableUntil: in.AvailableUntil.UTC(),
	}
	for _, it := range in.Items {
		name := caser.String(strings.TrimSpace(it.Name))
		if name == "" {
			return nil, wrapValidation("item name is required")
		}
		d.Items = append(d.Items, domain.DonationItem{
			Name:       name,
			Quantity:   it.Quantity,
			Condition:  strings.TrimSpace(it.Condition),
			ExpiryDate: it.ExpiryDate,
		})
	}

	return s.Repo.CreateDonation(ctx, s.DB, d)
}

// Get fetches a single donation with its items.
func (s *DonationService) Get(ctx context.Context, id string) (*domain.Donation, error) {
	d, err := s.Repo.GetDonation(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDonationNotFound
		}
		return nil, err
	}
	return d, nil
}

// ListAvailable returns the active donations of one kind, newest first.
func (s *DonationService) ListAvailable(ctx context.Context, kind string) ([]domain.Donation, error) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind != domain.KindFood && kind != domain.KindNonFood {
		return nil, ErrInvalidKind
	}
	out, err := s.Repo.ListAvailableDonations(ctx, s.DB, kind, s.Now().UTC())
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Donation{}
	}
	return out, nil
}

// ListNearest returns the active donations of one kind ranked by distance
// from the viewer's coordinates. Donations whose position cannot be
// determined keep their recency order after all ranked ones.
func (s *DonationService) ListNearest(ctx context.Context, kind string, viewerLat, viewerLon float64) ([]RankedDonation, error) {
	tr := otel.Tracer("services/DonationService")
	ctx, span := tr.Start(ctx, "ListNearest",
		trace.WithAttributes(attribute.String("donation.kind", kind)),
	)
	defer span.End()

	donations, err := s.ListAvailable(ctx, kind)
	if err != nil {
		return nil, err
	}

	ranked := make([]RankedDonation, 0, len(donations))
	for _, d := range donations {
		rd := RankedDonation{Donation: d}
		if c, ok := s.resolvePosition(ctx, d); ok {
			km := geo.Haversine(viewerLat, viewerLon, c.Lat, c.Lon)
			rd.DistanceKm = &km
		}
		ranked = append(ranked, rd)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i].DistanceKm, ranked[j].DistanceKm
		switch {
		case a != nil && b != nil:
			return *a < *b
		case a != nil:
			return true
		default:
			return false
		}
	})
	return ranked, nil
}

// resolvePosition yields a donation's coordinates, preferring the stored
// fix over a geocoder lookup.
func (s *DonationService) resolvePosition(ctx context.Context, d domain.Donation) (geo.Coordinates, bool) {
	if d.Location.HasCoordinates() {
		return geo.Coordinates{Lat: *d.Location.Latitude, Lon: *d.Location.Longitude}, true
	}
	if s.Geocoder == nil {
		return geo.Coordinates{}, false
	}
	c, err := s.Geocoder.Geocode(ctx, d.Address)
	if err != nil {
		return geo.Coordinates{}, false
	}
	return c, true
}

// ListMine returns the donations userID posted, of one kind.
func (s *DonationService) ListMine(ctx context.Context, userID, kind string) ([]domain.Donation, error) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	if kind != domain.KindFood && kind != domain.KindNonFood {
		return nil, ErrInvalidKind
	}
	out, err := s.Repo.ListDonationsByUser(ctx, s.DB, userID, kind)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Donation{}
	}
	return out, nil
}

// DonationUpdate carries the optional fields of an update; nil means
// "leave unchanged". A non-nil Items slice replaces the item set wholesale.
type DonationUpdate struct {
	DonorName      *string
	ContactNumber  *string
	Description    *string
	Address        *domain.Address
	Location       *domain.Location
	AvailableUntil *time.Time
	Items          []DonationItemInput
}

// Update applies an owner-gated patch and returns the refreshed donation.
func (s *DonationService) Update(ctx context.Context, id, userID string, upd DonationUpdate) (*domain.Donation, error) {
	tr := otel.Tracer("services/DonationService")
	ctx, span := tr.Start(ctx, "Update",
		trace.WithAttributes(
			attribute.String("donation.id", id),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	caser := cases.Title(s.locale())
	patch := map[string]any{}
	if upd.DonorName != nil {
		name := caser.String(strings.TrimSpace(*upd.DonorName))
		if name == "" {
			return nil, wrapValidation("donor name must not be blank")
		}
		patch["donor_name"] = name
	}
	if upd.ContactNumber != nil {
		num := strings.TrimSpace(*upd.ContactNumber)
		if num == "" {
			return nil, wrapValidation("contact number must not be blank")
		}
		patch["contact_number"] = num
	}
	if upd.Description != nil {
		patch["description"] = strings.TrimSpace(*upd.Description)
	}
	if upd.Address != nil {
		patch["addr_street"] = upd.Address.Street
		patch["addr_city"] = upd.Address.City
		patch["addr_state"] = upd.Address.State
		patch["addr_postal_code"] = upd.Address.PostalCode
		patch["addr_country"] = upd.Address.Country
	}
	if upd.Location != nil {
		patch["loc_latitude"] = upd.Location.Latitude
		patch["loc_longitude"] = upd.Location.Longitude
	}
	if upd.AvailableUntil != nil {
		if !upd.AvailableUntil.After(s.Now()) {
			return nil, wrapValidation("available_until must be in the future")
		}
		patch["available_until"] = upd.AvailableUntil.UTC()
	}

	var items []domain.DonationItem
	if upd.Items != nil {
		items = make([]domain.DonationItem, 0, len(upd.Items))
		for _, it := range upd.Items {
			name := caser.String(strings.TrimSpace(it.Name))
			if name == "" {
				return nil, wrapValidation("item name is required")
			}
			items = append(items, domain.DonationItem{
				Name:       name,
				Quantity:   it.Quantity,
				Condition:  strings.TrimSpace(it.Condition),
				ExpiryDate: it.ExpiryDate,
			})
		}
	}

	if len(patch) == 0 && items == nil {
		return s.Get(ctx, id)
	}
	if len(patch) == 0 {
		// The repository requires at least one column change to assert
		// ownership; touching updated_at is harmless and keeps the item
		// rewrite inside the same ownership-checked transaction.
		patch["updated_at"] = s.Now().UTC()
	}

	if err := s.Repo.UpdateDonation(ctx, s.DB, id, userID, patch, items); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDonationNotFound
		}
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes a donation owned by userID.
func (s *DonationService) Delete(ctx context.Context, id, userID string) error {
	tr := otel.Tracer("services/DonationService")
	ctx, span := tr.Start(ctx, "Delete",
		trace.WithAttributes(
			attribute.String("donation.id", id),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	if err := s.Repo.DeleteDonation(ctx, s.DB, id, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDonationNotFound
		}
		return err
	}
	return nil
}

func (s *DonationService) locale() language.Tag {
	if s.NameLocale == language.Und {
		return language.English
	}
	return s.NameLocale
}
