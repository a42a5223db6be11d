package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/SravanamCharan20/EcoBites2/internal/domain"
	"github.com/SravanamCharan20/EcoBites2/internal/geo"
)

type fakeDonationRepo struct {
	created   *domain.Donation
	createErr error

	getDonation *domain.Donation
	getErr      error

	listKind      string
	listNow       time.Time
	listDonations []domain.Donation
	listErr       error

	mineUserID    string
	mineKind      string
	mineDonations []domain.Donation

	updateID     string
	updateUserID string
	updatePatch  map[string]any
	updateItems  []domain.DonationItem
	updateErr    error

	deleteID     string
	deleteUserID string
	deleteErr    error
}

func (r *fakeDonationRepo) CreateDonation(ctx context.Context, db *gorm.DB, d *domain.Donation) (*domain.Donation, error) {
	r.created = d
	if r.createErr != nil {
		return nil, r.createErr
	}
	d.ID = "d1"
	return d, nil
}

func (r *fakeDonationRepo) GetDonation(ctx context.Context, db *gorm.DB, id string) (*domain.Donation, error) {
	return r.getDonation, r.getErr
}

func (r *fakeDonationRepo) ListAvailableDonations(ctx context.Context, db *gorm.DB, kind string, now time.Time) ([]domain.Donation, error) {
	r.listKind, r.listNow = kind, now
	return r.listDonations, r.listErr
}

func (r *fakeDonationRepo) ListDonationsByUser(ctx context.Context, db *gorm.DB, userID, kind string) ([]domain.Donation, error) {
	r.mineUserID, r.mineKind = userID, kind
	return r.mineDonations, nil
}

func (r *fakeDonationRepo) UpdateDonation(ctx context.Context, db *gorm.DB, id, userID string, patch map[string]any, items []domain.DonationItem) error {
	r.updateID, r.updateUserID, r.updatePatch, r.updateItems = id, userID, patch, items
	return r.updateErr
}

func (r *fakeDonationRepo) DeleteDonation(ctx context.Context, db *gorm.DB, id, userID string) error {
	r.deleteID, r.deleteUserID = id, userID
	return r.deleteErr
}

// fakeGeocoder answers from a fixed table keyed by street.
type fakeGeocoder struct {
	byStreet map[string]geo.Coordinates
	calls    int
}

func (g *fakeGeocoder) Geocode(ctx context.Context, addr domain.Address) (geo.Coordinates, error) {
	g.calls++
	c, ok := g.byStreet[addr.Street]
	if !ok {
		return geo.Coordinates{}, errors.New("no match")
	}
	return c, nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func validInput(until time.Time) DonationInput {
	return DonationInput{
		Kind:           domain.KindFood,
		DonorName:      "asha kitchen",
		ContactNumber:  "+91-9999999999",
		AvailableUntil: until,
		Items:          []DonationItemInput{{Name: "rice bags", Quantity: 2}},
	}
}

func TestDonationCreate_Validation(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s := NewDonationService(nil, &fakeDonationRepo{}, nil)
	s.Now = fixedClock(now)

	in := validInput(now.Add(time.Hour))
	in.Kind = "electronics"
	if _, err := s.Create(context.Background(), "u1", in); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("bad kind: got %v; want ErrInvalidKind", err)
	}

	in = validInput(now.Add(time.Hour))
	in.DonorName = "  "
	if _, err := s.Create(context.Background(), "u1", in); !errors.Is(err, ErrValidation) {
		t.Fatalf("blank donor: got %v; want ErrValidation", err)
	}

	in = validInput(now.Add(time.Hour))
	in.Items = nil
	if _, err := s.Create(context.Background(), "u1", in); !errors.Is(err, ErrValidation) {
		t.Fatalf("no items: got %v; want ErrValidation", err)
	}

	in = validInput(now) // not strictly in the future
	if _, err := s.Create(context.Background(), "u1", in); !errors.Is(err, ErrValidation) {
		t.Fatalf("expiry now: got %v; want ErrValidation", err)
	}

	in = validInput(now.Add(time.Hour))
	in.Items = []DonationItemInput{{Name: "   "}}
	if _, err := s.Create(context.Background(), "u1", in); !errors.Is(err, ErrValidation) {
		t.Fatalf("blank item name: got %v; want ErrValidation", err)
	}
}

func TestDonationCreate_TitleCasesNames(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	r := &fakeDonationRepo{}
	s := NewDonationService(nil, r, nil)
	s.Now = fixedClock(now)

	d, err := s.Create(context.Background(), "u1", validInput(now.Add(time.Hour)))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if d.DonorName != "Asha Kitchen" {
		t.Fatalf("donor name = %q; want title case", d.DonorName)
	}
	if len(r.created.Items) != 1 || r.created.Items[0].Name != "Rice Bags" {
		t.Fatalf("item name = %+v; want title case", r.created.Items)
	}
	if r.created.Kind != domain.KindFood || r.created.UserID != "u1" {
		t.Fatalf("unexpected donation: %+v", r.created)
	}
}

func TestListAvailable(t *testing.T) {
	r := &fakeDonationRepo{listDonations: nil}
	s := NewDonationService(nil, r, nil)

	if _, err := s.ListAvailable(context.Background(), "toys"); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("bad kind: got %v; want ErrInvalidKind", err)
	}

	out, err := s.ListAvailable(context.Background(), " FOOD ")
	if err != nil {
		t.Fatalf("ListAvailable: %v", err)
	}
	if out == nil {
		t.Fatalf("must return empty slice, not nil")
	}
	if r.listKind != domain.KindFood {
		t.Fatalf("kind not normalized: %q", r.listKind)
	}
}

func coords(lat, lon float64) domain.Location {
	return domain.Location{Latitude: &lat, Longitude: &lon}
}

func TestListNearest_RankingAndFallbacks(t *testing.T) {
	// Viewer sits at the origin. "near" has stored coordinates, "far" too;
	// "geocoded" resolves through the geocoder; "lost" fails lookup and
	// must sort last with no distance.
	r := &fakeDonationRepo{listDonations: []domain.Donation{
		{ID: "far", Location: coords(10, 10)},
		{ID: "lost", Address: domain.Address{Street: "unknown"}},
		{ID: "geocoded", Address: domain.Address{Street: "elm"}},
		{ID: "near", Location: coords(0.1, 0.1)},
	}}
	g := &fakeGeocoder{byStreet: map[string]geo.Coordinates{
		"elm": {Lat: 1, Lon: 1},
	}}
	s := NewDonationService(nil, r, g)

	out, err := s.ListNearest(context.Background(), domain.KindFood, 0, 0)
	if err != nil {
		t.Fatalf("ListNearest: %v", err)
	}
	if len(out) != 4 {
		t.Fatalf("expected 4 results, got %d", len(out))
	}

	order := []string{out[0].ID, out[1].ID, out[2].ID, out[3].ID}
	want := []string{"near", "geocoded", "far", "lost"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v; want %v", order, want)
		}
	}
	if out[3].DistanceKm != nil {
		t.Fatalf("failed geocode must leave distance unset")
	}
	if out[0].DistanceKm == nil || *out[0].DistanceKm <= 0 {
		t.Fatalf("nearest distance not computed: %v", out[0].DistanceKm)
	}
	// Stored coordinates win without a lookup; only "lost" and "geocoded"
	// should have reached the geocoder.
	if g.calls != 2 {
		t.Fatalf("geocoder calls = %d; want 2", g.calls)
	}
}

func TestListNearest_NilGeocoderKeepsRecencyOrder(t *testing.T) {
	r := &fakeDonationRepo{listDonations: []domain.Donation{
		{ID: "first", Address: domain.Address{Street: "a"}},
		{ID: "second", Address: domain.Address{Street: "b"}},
	}}
	s := NewDonationService(nil, r, nil)

	out, err := s.ListNearest(context.Background(), domain.KindFood, 0, 0)
	if err != nil {
		t.Fatalf("ListNearest: %v", err)
	}
	if out[0].ID != "first" || out[1].ID != "second" {
		t.Fatalf("unranked donations must keep their order: %+v", out)
	}
}

func TestListMine(t *testing.T) {
	r := &fakeDonationRepo{}
	s := NewDonationService(nil, r, nil)

	out, err := s.ListMine(context.Background(), "u1", "NonFood")
	if err != nil || out == nil {
		t.Fatalf("ListMine: out=%v err=%v", out, err)
	}
	if r.mineUserID != "u1" || r.mineKind != domain.KindNonFood {
		t.Fatalf("args not forwarded: %q %q", r.mineUserID, r.mineKind)
	}
}

func TestDonationUpdate_PatchColumns(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	refreshed := &domain.Donation{ID: "d1"}
	r := &fakeDonationRepo{getDonation: refreshed}
	s := NewDonationService(nil, r, nil)
	s.Now = fixedClock(now)

	name := "new donor"
	addr := domain.Address{Street: "1 Main", City: "Pune", State: "MH", PostalCode: "411001", Country: "IN"}
	until := now.Add(48 * time.Hour)
	got, err := s.Update(context.Background(), "d1", "u1", DonationUpdate{
		DonorName:      &name,
		Address:        &addr,
		AvailableUntil: &until,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got != refreshed {
		t.Fatalf("expected the refreshed donation back")
	}
	if r.updateID != "d1" || r.updateUserID != "u1" {
		t.Fatalf("ownership args not forwarded")
	}
	if r.updatePatch["donor_name"] != "New Donor" {
		t.Fatalf("donor_name = %v", r.updatePatch["donor_name"])
	}
	if r.updatePatch["addr_city"] != "Pune" || r.updatePatch["addr_country"] != "IN" {
		t.Fatalf("address columns missing: %+v", r.updatePatch)
	}
	if r.updatePatch["available_until"] != until.UTC() {
		t.Fatalf("available_until = %v", r.updatePatch["available_until"])
	}
	if r.updateItems != nil {
		t.Fatalf("items must stay untouched when not provided")
	}
}

func TestDonationUpdate_ItemsOnlyTouchesRow(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	r := &fakeDonationRepo{getDonation: &domain.Donation{ID: "d1"}}
	s := NewDonationService(nil, r, nil)
	s.Now = fixedClock(now)

	_, err := s.Update(context.Background(), "d1", "u1", DonationUpdate{
		Items: []DonationItemInput{{Name: "dal", Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(r.updateItems) != 1 || r.updateItems[0].Name != "Dal" {
		t.Fatalf("items not rewritten: %+v", r.updateItems)
	}
	if _, ok := r.updatePatch["updated_at"]; !ok {
		t.Fatalf("item-only update must still touch the row: %+v", r.updatePatch)
	}
}

func TestDonationUpdate_EmptyIsRead(t *testing.T) {
	r := &fakeDonationRepo{getDonation: &domain.Donation{ID: "d1"}}
	s := NewDonationService(nil, r, nil)

	if _, err := s.Update(context.Background(), "d1", "u1", DonationUpdate{}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if r.updateID != "" {
		t.Fatalf("empty update must not hit the repository")
	}
}

func TestDonationUpdate_PastExpiry(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s := NewDonationService(nil, &fakeDonationRepo{}, nil)
	s.Now = fixedClock(now)

	past := now.Add(-time.Hour)
	if _, err := s.Update(context.Background(), "d1", "u1", DonationUpdate{AvailableUntil: &past}); !errors.Is(err, ErrValidation) {
		t.Fatalf("got %v; want ErrValidation", err)
	}
}

func TestDonationUpdate_NotOwner(t *testing.T) {
	name := "x"
	r := &fakeDonationRepo{updateErr: gorm.ErrRecordNotFound}
	s := NewDonationService(nil, r, nil)

	if _, err := s.Update(context.Background(), "d1", "intruder", DonationUpdate{DonorName: &name}); !errors.Is(err, ErrDonationNotFound) {
		t.Fatalf("got %v; want ErrDonationNotFound", err)
	}
}

func TestDonationDelete(t *testing.T) {
	r := &fakeDonationRepo{}
	s := NewDonationService(nil, r, nil)

	if err := s.Delete(context.Background(), "d1", "u1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if r.deleteID != "d1" || r.deleteUserID != "u1" {
		t.Fatalf("args not forwarded")
	}

	r.deleteErr = gorm.ErrRecordNotFound
	if err := s.Delete(context.Background(), "d1", "u2"); !errors.Is(err, ErrDonationNotFound) {
		t.Fatalf("got %v; want ErrDonationNotFound", err)
	}
}
