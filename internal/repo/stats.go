// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the aggregate queries behind the
// analytics endpoints (overall stats, monthly trends, donation impact) and
// the lightweight metadata queries used for conditional responses (ETags).
// Each function is context-aware and safe to call from services or handlers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/SravanamCharan20/EcoBites2/internal/domain"
)

// MonthlyDonationStat is one month's donation activity for a user:
// how many donations were posted and how many items they contained.
type MonthlyDonationStat struct {
	Month     int   `json:"month"` // 1..12
	Donations int64 `json:"donations"`
	Items     int64 `json:"items"`
}

// MonthlyDonationStats groups a user's donations of one kind by calendar
// month of the given year, ordered January to December. Months without
// activity are omitted, matching the original aggregation output.
func MonthlyDonationStats(ctx context.Context, db *gorm.DB, userID, kind string, year int) ([]MonthlyDonationStat, error) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	var out []MonthlyDonationStat
	err := db.WithContext(ctx).
		Model(&domain.Donation{}).
		Select(`CAST(strftime('%m', donations.created_at) AS INTEGER) AS month,
			COUNT(DISTINCT donations.id) AS donations,
			COUNT(donation_items.id) AS items`).
		Joins("LEFT JOIN donation_items ON donation_items.donation_id = donations.id").
		Where("donations.user_id = ? AND donations.kind = ?", userID, kind).
		Where("donations.created_at >= ? AND donations.created_at < ?", start, end).
		Group("month").
		Order("month ASC").
		Scan(&out).Error
	return out, err
}

// ChatsStats returns aggregate metadata for a user's chats: the total number
// of rows and the maximum UpdatedAt timestamp among those rows. Used for
// weak-ETag generation on the chat list endpoint. When the user has no
// chats, the returned count is 0 and maxUpdatedAt is nil.
func ChatsStats(ctx context.Context, db *gorm.DB, userID string) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Chat{}).
		Where("(donor_id = ? OR requester_id = ?) AND donor_id <> requester_id", userID, userID)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}

// MessagesStats returns aggregate metadata for messages within a chat:
// the total number of rows and the latest CreatedAt among them. When the
// chat has no messages, the returned count is 0 and maxCreatedAt is nil.
func MessagesStats(ctx context.Context, db *gorm.DB, chatID string) (count int64, maxCreatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.ChatMessage{}).Where("chat_id = ?", chatID)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	var row struct {
		CreatedAt time.Time
	}
	if err = q.Select("created_at").Order("created_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.CreatedAt, nil
}
