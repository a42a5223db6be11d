// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Donation
// model and its child items.
//
// Error semantics:
//   - When a donation is not found, functions return gorm.ErrRecordNotFound
//     (also exported as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/SravanamCharan20/EcoBites2/internal/domain"
)

// CreateDonation inserts a donation together with its child items in one
// transaction. IDs and UTC timestamps are assigned here.
func CreateDonation(ctx context.Context, db *gorm.DB, d *domain.Donation) (*domain.Donation, error) {
	now := time.Now().UTC()
	d.ID = uuid.NewString()
	d.CreatedAt = now
	for i := range d.Items {
		d.Items[i].ID = uuid.NewString()
		d.Items[i].DonationID = d.ID
		d.Items[i].CreatedAt = now
		if d.Items[i].Quantity < 1 {
			d.Items[i].Quantity = 1
		}
	}
	if err := db.WithContext(ctx).Create(d).Error; err != nil {
		return nil, err
	}
	return d, nil
}

// GetDonation fetches a donation with its items, or ErrNotFound if missing.
func GetDonation(ctx context.Context, db *gorm.DB, id string) (*domain.Donation, error) {
	var d domain.Donation
	err := db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListAvailableDonations returns donations of the given kind whose
// AvailableUntil lies after now, newest first, items preloaded.
func ListAvailableDonations(ctx context.Context, db *gorm.DB, kind string, now time.Time) ([]domain.Donation, error) {
	var out []domain.Donation
	err := db.WithContext(ctx).
		Preload("Items").
		Where("kind = ? AND available_until > ?", kind, now).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// ListDonationsByUser returns all donations of one kind posted by userID,
// newest first, items preloaded.
func ListDonationsByUser(ctx context.Context, db *gorm.DB, userID, kind string) ([]domain.Donation, error) {
	var out []domain.Donation
	err := db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ? AND kind = ?", userID, kind).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// UpdateDonation replaces the mutable donation columns and, when items is
// non-nil, rewrites the child rows. Ownership is enforced by the user_id
// predicate; a non-matching row yields ErrNotFound.
func UpdateDonation(ctx context.Context, db *gorm.DB, id, userID string, patch map[string]any, items []domain.DonationItem) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Donation{}).
			Where("id = ? AND user_id = ?", id, userID).
			Updates(patch)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if items == nil {
			return nil
		}
		if err := tx.Where("donation_id = ?", id).Delete(&domain.DonationItem{}).Error; err != nil {
			return err
		}
		now := time.Now().UTC()
		for i := range items {
			items[i].ID = uuid.NewString()
			items[i].DonationID = id
			items[i].CreatedAt = now
			if items[i].Quantity < 1 {
				items[i].Quantity = 1
			}
		}
		if len(items) == 0 {
			return nil
		}
		return tx.Create(&items).Error
	})
}

// DeleteDonation soft-deletes a donation owned by userID.
// Returns ErrNotFound when no matching row exists.
func DeleteDonation(ctx context.Context, db *gorm.DB, id, userID string) error {
	res := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&domain.Donation{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountDonations counts donations matching the given filters. Zero-valued
// filters are skipped, mirroring the original's countDocuments calls.
func CountDonations(ctx context.Context, db *gorm.DB, userID, kind string, activeAfter *time.Time) (int64, error) {
	q := db.WithContext(ctx).Model(&domain.Donation{})
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	if activeAfter != nil {
		q = q.Where("available_until > ?", *activeAfter)
	}
	var total int64
	err := q.Count(&total).Error
	return total, err
}

// CountDonationItems sums the item rows across a user's donations of one
// kind. An empty userID counts platform-wide.
func CountDonationItems(ctx context.Context, db *gorm.DB, userID, kind string) (int64, error) {
	q := db.WithContext(ctx).
		Model(&domain.DonationItem{}).
		Joins("JOIN donations ON donations.id = donation_items.donation_id").
		Where("donations.deleted_at IS NULL")
	if userID != "" {
		q = q.Where("donations.user_id = ?", userID)
	}
	if kind != "" {
		q = q.Where("donations.kind = ?", kind)
	}
	var total int64
	err := q.Count(&total).Error
	return total, err
}
