// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// DonationRequest model.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/SravanamCharan20/EcoBites2/internal/domain"
)

// CreateRequest inserts a donation request with pending status.
func CreateRequest(ctx context.Context, db *gorm.DB, r *domain.DonationRequest) (*domain.DonationRequest, error) {
	r.ID = uuid.NewString()
	r.Status = domain.RequestPending
	r.CreatedAt = time.Now().UTC()
	if err := db.WithContext(ctx).Create(r).Error; err != nil {
		return nil, err
	}
	return r, nil
}

// GetRequest fetches a request by ID, or ErrNotFound if missing.
func GetRequest(ctx context.Context, db *gorm.DB, id string) (*domain.DonationRequest, error) {
	var r domain.DonationRequest
	if err := db.WithContext(ctx).Where("id = ?", id).First(&r).Error; err != nil {
		return nil, err
	}
	return &r, nil
}

// ListRequestsByUser returns requests made by userID, newest first.
// Kind is optional; empty matches both food and non-food.
func ListRequestsByUser(ctx context.Context, db *gorm.DB, userID, kind string) ([]domain.DonationRequest, error) {
	q := db.WithContext(ctx).Where("user_id = ?", userID)
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	var out []domain.DonationRequest
	err := q.Order("created_at desc").Find(&out).Error
	return out, err
}

// ListRequestsForDonor returns requests against donations owned by donorID,
// newest first.
func ListRequestsForDonor(ctx context.Context, db *gorm.DB, donorID string) ([]domain.DonationRequest, error) {
	var out []domain.DonationRequest
	err := db.WithContext(ctx).
		Joins("JOIN donations ON donations.id = donation_requests.donation_id").
		Where("donations.user_id = ? AND donations.deleted_at IS NULL", donorID).
		Order("donation_requests.created_at desc").
		Find(&out).Error
	return out, err
}

// UpdateRequestStatus transitions a pending request to accepted or rejected.
// The pending predicate makes the transition one-shot: a second accept or
// reject finds zero rows and returns ErrNotFound.
func UpdateRequestStatus(ctx context.Context, db *gorm.DB, id, status string) error {
	res := db.WithContext(ctx).
		Model(&domain.DonationRequest{}).
		Where("id = ? AND status = ?", id, domain.RequestPending).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountRequests counts requests by user/kind/status; empty filters are skipped.
func CountRequests(ctx context.Context, db *gorm.DB, userID, kind, status string) (int64, error) {
	q := db.WithContext(ctx).Model(&domain.DonationRequest{})
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	err := q.Count(&total).Error
	return total, err
}
