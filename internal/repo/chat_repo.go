// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Chat and
// ChatMessage models.
//
// The chat message log is the durable write path: the realtime relay only
// notifies online recipients after an append here has succeeded, so these
// functions are the sole source of truth for message history.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/SravanamCharan20/EcoBites2/internal/domain"
)

// CreateChat inserts a new chat row between a donor and a requester.
func CreateChat(ctx context.Context, db *gorm.DB, donorID, requesterID string) (*domain.Chat, error) {
	c := &domain.Chat{
		ID:          uuid.NewString(),
		DonorID:     donorID,
		RequesterID: requesterID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// GetChat fetches a chat by ID, or ErrNotFound if missing.
func GetChat(ctx context.Context, db *gorm.DB, id string) (*domain.Chat, error) {
	var c domain.Chat
	if err := db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// FindChatByPair looks up an existing chat for the participant pair in
// either orientation, or ErrNotFound. The unordered match is what makes
// chat creation idempotent per pair.
func FindChatByPair(ctx context.Context, db *gorm.DB, a, b string) (*domain.Chat, error) {
	var c domain.Chat
	err := db.WithContext(ctx).
		Where("(donor_id = ? AND requester_id = ?) OR (donor_id = ? AND requester_id = ?)", a, b, b, a).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListChatsForUser returns chats where userID is a participant, most recent
// activity first. Self-chats are filtered out even though
// creation rejects them.
func ListChatsForUser(ctx context.Context, db *gorm.DB, userID string) ([]domain.Chat, error) {
	var out []domain.Chat
	err := db.WithContext(ctx).
		Where("(donor_id = ? OR requester_id = ?) AND donor_id <> requester_id", userID, userID).
		Order("updated_at desc").
		Find(&out).Error
	return out, err
}

// AppendMessage inserts a message row and touches the parent chat's
// UpdatedAt so chat lists order by recency. Both writes happen in one
// transaction; the message timestamp is set server-side.
func AppendMessage(ctx context.Context, db *gorm.DB, chatID, senderID, content string) (*domain.ChatMessage, error) {
	now := time.Now().UTC()
	m := &domain.ChatMessage{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: now,
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		return tx.Model(&domain.Chat{}).
			Where("id = ?", chatID).
			Update("updated_at", now).Error
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ListMessages returns the full ordered log for a chat
// (CreatedAt ASC, ID ASC, so insertion order is chronological order).
func ListMessages(ctx context.Context, db *gorm.DB, chatID string) ([]domain.ChatMessage, error) {
	var out []domain.ChatMessage
	err := db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

// CountMessages uses a raw COUNT so a missing table surfaces as an error.
func CountMessages(ctx context.Context, db *gorm.DB, chatID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Raw("SELECT COUNT(*) FROM chat_messages WHERE chat_id = ?", chatID).
		Scan(&total).Error
	return total, err
}

// ListMessagesPage returns a paginated slice ordered (CreatedAt ASC, ID ASC).
func ListMessagesPage(ctx context.Context, db *gorm.DB, chatID string, offset, limit int) ([]domain.ChatMessage, error) {
	var out []domain.ChatMessage
	err := db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
