package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/SravanamCharan20/EcoBites2/internal/domain"
)

func donationModels() []any {
	return []any{&domain.Donation{}, &domain.DonationItem{}}
}

func seedDonation(t *testing.T, db *gorm.DB, userID, kind string, until time.Time) *domain.Donation {
	t.Helper()
	d, err := CreateDonation(context.Background(), db, &domain.Donation{
		UserID:         userID,
		Kind:           kind,
		DonorName:      "Asha Kitchen",
		ContactNumber:  "+91-9999999999",
		AvailableUntil: until,
		Items: []domain.DonationItem{
			{Name: "Rice", Quantity: 2},
			{Name: "Dal"}, // quantity defaults to 1
		},
	})
	if err != nil {
		t.Fatalf("seed donation: %v", err)
	}
	return d
}

func TestCreateDonation_AssignsIDsAndItemDefaults(t *testing.T) {
	db := newRepoDB(t, donationModels()...)

	future := time.Now().UTC().Add(24 * time.Hour)
	d := seedDonation(t, db, "u1", domain.KindFood, future)

	if d.ID == "" {
		t.Fatalf("donation ID not assigned")
	}
	if len(d.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(d.Items))
	}
	for _, it := range d.Items {
		if it.ID == "" || it.DonationID != d.ID {
			t.Fatalf("item not linked: %+v", it)
		}
		if it.Quantity < 1 {
			t.Fatalf("quantity not defaulted: %+v", it)
		}
	}
}

func TestGetDonation_PreloadsItems(t *testing.T) {
	db := newRepoDB(t, donationModels()...)

	if _, err := GetDonation(context.Background(), db, "missing"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("missing donation: got %v; want ErrRecordNotFound", err)
	}

	d := seedDonation(t, db, "u1", domain.KindFood, time.Now().UTC().Add(time.Hour))
	got, err := GetDonation(context.Background(), db, d.ID)
	if err != nil {
		t.Fatalf("GetDonation: %v", err)
	}
	if len(got.Items) != 2 {
		t.Fatalf("items not preloaded: %+v", got.Items)
	}
}

func TestListAvailableDonations_FiltersExpiredAndKind(t *testing.T) {
	db := newRepoDB(t, donationModels()...)
	now := time.Now().UTC()

	active := seedDonation(t, db, "u1", domain.KindFood, now.Add(time.Hour))
	seedDonation(t, db, "u1", domain.KindFood, now.Add(-time.Hour))   // expired
	seedDonation(t, db, "u1", domain.KindNonFood, now.Add(time.Hour)) // other kind

	out, err := ListAvailableDonations(context.Background(), db, domain.KindFood, now)
	if err != nil {
		t.Fatalf("ListAvailableDonations: %v", err)
	}
	if len(out) != 1 || out[0].ID != active.ID {
		t.Fatalf("unexpected listing: %+v", out)
	}
	if len(out[0].Items) == 0 {
		t.Fatalf("items not preloaded in listing")
	}
}

func TestListDonationsByUser(t *testing.T) {
	db := newRepoDB(t, donationModels()...)
	until := time.Now().UTC().Add(time.Hour)

	mine := seedDonation(t, db, "u1", domain.KindNonFood, until)
	seedDonation(t, db, "u2", domain.KindNonFood, until)
	seedDonation(t, db, "u1", domain.KindFood, until)

	out, err := ListDonationsByUser(context.Background(), db, "u1", domain.KindNonFood)
	if err != nil {
		t.Fatalf("ListDonationsByUser: %v", err)
	}
	if len(out) != 1 || out[0].ID != mine.ID {
		t.Fatalf("unexpected listing: %+v", out)
	}
}

func TestUpdateDonation_OwnershipAndItemRewrite(t *testing.T) {
	db := newRepoDB(t, donationModels()...)
	d := seedDonation(t, db, "u1", domain.KindFood, time.Now().UTC().Add(time.Hour))

	// Wrong owner -> not found.
	err := UpdateDonation(context.Background(), db, d.ID, "intruder", map[string]any{"donor_name": "X"}, nil)
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("wrong owner: got %v; want ErrRecordNotFound", err)
	}

	// Column patch without touching items.
	if err := UpdateDonation(context.Background(), db, d.ID, "u1", map[string]any{"donor_name": "New Name"}, nil); err != nil {
		t.Fatalf("patch: %v", err)
	}
	got, err := GetDonation(context.Background(), db, d.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.DonorName != "New Name" {
		t.Fatalf("donor_name = %q; want New Name", got.DonorName)
	}
	if len(got.Items) != 2 {
		t.Fatalf("items must be untouched when nil, got %d", len(got.Items))
	}

	// Item rewrite replaces the set wholesale.
	items := []domain.DonationItem{{Name: "Blankets", Quantity: 0}}
	if err := UpdateDonation(context.Background(), db, d.ID, "u1", map[string]any{"description": "winter"}, items); err != nil {
		t.Fatalf("rewrite items: %v", err)
	}
	got, err = GetDonation(context.Background(), db, d.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(got.Items) != 1 || got.Items[0].Name != "Blankets" || got.Items[0].Quantity != 1 {
		t.Fatalf("unexpected items after rewrite: %+v", got.Items)
	}
}

func TestDeleteDonation(t *testing.T) {
	db := newRepoDB(t, donationModels()...)
	d := seedDonation(t, db, "u1", domain.KindFood, time.Now().UTC().Add(time.Hour))

	if err := DeleteDonation(context.Background(), db, d.ID, "intruder"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("wrong owner: got %v; want ErrRecordNotFound", err)
	}
	if err := DeleteDonation(context.Background(), db, d.ID, "u1"); err != nil {
		t.Fatalf("DeleteDonation: %v", err)
	}
	if _, err := GetDonation(context.Background(), db, d.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("deleted row still visible: %v", err)
	}
	// Deleting again finds nothing.
	if err := DeleteDonation(context.Background(), db, d.ID, "u1"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("double delete: got %v; want ErrRecordNotFound", err)
	}
}

func TestCountDonations_Filters(t *testing.T) {
	db := newRepoDB(t, donationModels()...)
	now := time.Now().UTC()

	seedDonation(t, db, "u1", domain.KindFood, now.Add(time.Hour))
	seedDonation(t, db, "u1", domain.KindFood, now.Add(-time.Hour))
	seedDonation(t, db, "u2", domain.KindNonFood, now.Add(time.Hour))

	total, err := CountDonations(context.Background(), db, "", "", nil)
	if err != nil || total != 3 {
		t.Fatalf("all: total=%d err=%v; want 3", total, err)
	}
	total, err = CountDonations(context.Background(), db, "u1", domain.KindFood, nil)
	if err != nil || total != 2 {
		t.Fatalf("u1 food: total=%d err=%v; want 2", total, err)
	}
	total, err = CountDonations(context.Background(), db, "u1", domain.KindFood, &now)
	if err != nil || total != 1 {
		t.Fatalf("u1 food active: total=%d err=%v; want 1", total, err)
	}
}

func TestCountDonationItems_ExcludesDeletedDonations(t *testing.T) {
	db := newRepoDB(t, donationModels()...)
	until := time.Now().UTC().Add(time.Hour)

	d1 := seedDonation(t, db, "u1", domain.KindFood, until) // 2 items
	seedDonation(t, db, "u2", domain.KindFood, until)       // 2 items

	total, err := CountDonationItems(context.Background(), db, "", domain.KindFood)
	if err != nil || total != 4 {
		t.Fatalf("platform-wide: total=%d err=%v; want 4", total, err)
	}
	total, err = CountDonationItems(context.Background(), db, "u1", "")
	if err != nil || total != 2 {
		t.Fatalf("u1: total=%d err=%v; want 2", total, err)
	}

	if err := DeleteDonation(context.Background(), db, d1.ID, "u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	total, err = CountDonationItems(context.Background(), db, "", "")
	if err != nil || total != 2 {
		t.Fatalf("after delete: total=%d err=%v; want 2", total, err)
	}
}
