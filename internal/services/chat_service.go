// Package services – ChatService
//
// This file implements the ChatService, which manages persisted chats and
// their append-only message logs. It enforces the two invariants the rest
// of the system leans on: a chat pair is unordered and unique (creating a
// chat for a pair that already has one returns the existing row), and a
// chat's own participants are the only users who may read or append to it.
//
// The REST append implemented here is the durability point for messages.
// The websocket relay only notifies; it never writes, and it consumes this
// service through the narrow GetChat lookup.
//
// Observability: public methods are OpenTelemetry-instrumented; spans carry
// chat and user identifiers.
package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/SravanamCharan20/EcoBites2/internal/domain"
)

// ChatRepo defines the repository contract required by ChatService.
type ChatRepo interface {
	// CreateChat inserts a new chat row for the donor/requester pair.
	CreateChat(ctx context.Context, db *gorm.DB, donorID, requesterID string) (*domain.Chat, error)

	// GetChat fetches a chat by ID.
	GetChat(ctx context.Context, db *gorm.DB, id string) (*domain.Chat, error)

	// FindChatByPair looks up an existing chat for the pair in either
	// orientation.
	FindChatByPair(ctx context.Context, db *gorm.DB, a, b string) (*domain.Chat, error)

	// ListChatsForUser returns chats the user participates in, most
	// recent activity first.
	ListChatsForUser(ctx context.Context, db *gorm.DB, userID string) ([]domain.Chat, error)

	// AppendMessage persists one message and touches the chat's activity
	// timestamp.
	AppendMessage(ctx context.Context, db *gorm.DB, chatID, senderID, content string) (*domain.ChatMessage, error)

	// ListMessages returns the full ordered log for a chat.
	ListMessages(ctx context.Context, db *gorm.DB, chatID string) ([]domain.ChatMessage, error)

	// CountMessages returns the number of messages in a chat.
	CountMessages(ctx context.Context, db *gorm.DB, chatID string) (int64, error)

	// ListMessagesPage returns one page of the ordered log.
	ListMessagesPage(ctx context.Context, db *gorm.DB, chatID string, offset, limit int) ([]domain.ChatMessage, error)
}

// ChatService provides chat lifecycle and message log operations.
type ChatService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the chat repository used by this service.
	Repo ChatRepo

	// MaxContentRunes caps appended messages by rune length. Zero means
	// no cap.
	MaxContentRunes int
}

// NewChatService constructs a ChatService with a default message cap.
func NewChatService(db *gorm.DB, r ChatRepo) *ChatService {
	return &ChatService{
		DB:              db,
		Repo:            r,
		MaxContentRunes: 4000,
	}
}

// CreateOrGet returns the chat between donorID and requesterID, creating it
// when none exists yet. The pair is unordered: a later call with the two ids
// swapped resolves to the same chat. Self-chats are rejected.
func (s *ChatService) CreateOrGet(ctx context.Context, donorID, requesterID string) (*domain.Chat, error) {
	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "CreateOrGet",
		trace.WithAttributes(
			attribute.String("donor.id", donorID),
			attribute.String("requester.id", requesterID),
		),
	)
	defer span.End()

	donorID = strings.TrimSpace(donorID)
	requesterID = strings.TrimSpace(requesterID)
	if donorID == "" || requesterID == "" {
		return nil, ErrValidation
	}
	if donorID == requesterID {
		return nil, ErrSelfChat
	}

	existing, err := s.Repo.FindChatByPair(ctx, s.DB, donorID, requesterID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created, err := s.Repo.CreateChat(ctx, s.DB, donorID, requesterID)
	if err != nil {
		// A concurrent create for the same pair may have won the race.
		if found, ferr := s.Repo.FindChatByPair(ctx, s.DB, donorID, requesterID); ferr == nil {
			return found, nil
		}
		return nil, err
	}
	return created, nil
}

// GetChat fetches a chat by id. It satisfies the relay's chat directory
// contract, so the lookup does no participant check: the relay resolves the
// recipient itself from the row.
func (s *ChatService) GetChat(ctx context.Context, chatID string) (*domain.Chat, error) {
	c, err := s.Repo.GetChat(ctx, s.DB, chatID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	return c, nil
}

// List returns the chats userID participates in, most recently active first.
func (s *ChatService) List(ctx context.Context, userID string) ([]domain.Chat, error) {
	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "List",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	chats, err := s.Repo.ListChatsForUser(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	if chats == nil {
		chats = []domain.Chat{}
	}
	return chats, nil
}

// Append validates and persists one message to the chat's log. The sender
// must be a chat participant; content is trimmed and length-checked. The
// returned message carries the server-assigned timestamp, which is what the
// caller should hand to the relay.
func (s *ChatService) Append(ctx context.Context, chatID, senderID, content string) (*domain.ChatMessage, error) {
	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "Append",
		trace.WithAttributes(
			attribute.String("chat.id", chatID),
			attribute.String("user.id", senderID),
		),
	)
	defer span.End()

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}
	if s.MaxContentRunes > 0 && utf8.RuneCountInString(content) > s.MaxContentRunes {
		return nil, ErrMessageTooLong
	}

	chat, err := s.Repo.GetChat(ctx, s.DB, chatID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	if !chat.HasParticipant(senderID) {
		return nil, ErrInvalidParticipant
	}

	return s.Repo.AppendMessage(ctx, s.DB, chatID, senderID, content)
}

// Messages returns the full ordered log of a chat. The reader must be a
// participant.
func (s *ChatService) Messages(ctx context.Context, chatID, userID string) ([]domain.ChatMessage, error) {
	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "Messages",
		trace.WithAttributes(
			attribute.String("chat.id", chatID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	chat, err := s.Repo.GetChat(ctx, s.DB, chatID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	if !chat.HasParticipant(userID) {
		return nil, ErrInvalidParticipant
	}

	msgs, err := s.Repo.ListMessages(ctx, s.DB, chatID)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []domain.ChatMessage{}
	}
	return msgs, nil
}

// MessagesPage returns one page of a chat's log plus the total count. It
// applies defaults for invalid page/pageSize and enforces participation.
func (s *ChatService) MessagesPage(ctx context.Context, chatID, userID string, page, pageSize int) ([]domain.ChatMessage, int64, error) {
	tr := otel.Tracer("services/ChatService")
	ctx, span := tr.Start(ctx, "MessagesPage",
		trace.WithAttributes(
			attribute.String("chat.id", chatID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	chat, err := s.Repo.GetChat(ctx, s.DB, chatID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrChatNotFound
		}
		return nil, 0, err
	}
	if !chat.HasParticipant(userID) {
		return nil, 0, ErrInvalidParticipant
	}

	total, err := s.Repo.CountMessages(ctx, s.DB, chatID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.ChatMessage{}, 0, nil
	}

	items, err := s.Repo.ListMessagesPage(ctx, s.DB, chatID, offset, pageSize)
	return items, total, err
}
