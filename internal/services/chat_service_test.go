package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/SravanamCharan20/EcoBites2/internal/domain"
)

// ----- Fake repo -----

type fakeChatRepo struct {
	createDonorID     string
	createRequesterID string
	createChat        *domain.Chat
	createErr         error

	getID   string
	getChat *domain.Chat
	getErr  error

	findA, findB string
	findChat     *domain.Chat
	findErr      error

	listUserID string
	listChats  []domain.Chat
	listErr    error

	appendChatID  string
	appendSender  string
	appendContent string
	appendMsg     *domain.ChatMessage
	appendErr     error

	msgsChatID string
	msgs       []domain.ChatMessage
	msgsErr    error

	countTotal int64
	countErr   error

	pageOffset int
	pageLimit  int
	pageItems  []domain.ChatMessage
	pageErr    error
}

func (r *fakeChatRepo) CreateChat(ctx context.Context, db *gorm.DB, donorID, requesterID string) (*domain.Chat, error) {
	r.createDonorID, r.createRequesterID = donorID, requesterID
	if r.createErr != nil {
		return nil, r.createErr
	}
	if r.createChat != nil {
		return r.createChat, nil
	}
	return &domain.Chat{ID: "c1", DonorID: donorID, RequesterID: requesterID}, nil
}

func (r *fakeChatRepo) GetChat(ctx context.Context, db *gorm.DB, id string) (*domain.Chat, error) {
	r.getID = id
	return r.getChat, r.getErr
}

func (r *fakeChatRepo) FindChatByPair(ctx context.Context, db *gorm.DB, a, b string) (*domain.Chat, error) {
	r.findA, r.findB = a, b
	return r.findChat, r.findErr
}

func (r *fakeChatRepo) ListChatsForUser(ctx context.Context, db *gorm.DB, userID string) ([]domain.Chat, error) {
	r.listUserID = userID
	return r.listChats, r.listErr
}

func (r *fakeChatRepo) AppendMessage(ctx context.Context, db *gorm.DB, chatID, senderID, content string) (*domain.ChatMessage, error) {
	r.appendChatID, r.appendSender, r.appendContent = chatID, senderID, content
	if r.appendErr != nil {
		return nil, r.appendErr
	}
	if r.appendMsg != nil {
		return r.appendMsg, nil
	}
	return &domain.ChatMessage{ID: "m1", ChatID: chatID, SenderID: senderID, Content: content}, nil
}

func (r *fakeChatRepo) ListMessages(ctx context.Context, db *gorm.DB, chatID string) ([]domain.ChatMessage, error) {
	r.msgsChatID = chatID
	return r.msgs, r.msgsErr
}

func (r *fakeChatRepo) CountMessages(ctx context.Context, db *gorm.DB, chatID string) (int64, error) {
	return r.countTotal, r.countErr
}

func (r *fakeChatRepo) ListMessagesPage(ctx context.Context, db *gorm.DB, chatID string, offset, limit int) ([]domain.ChatMessage, error) {
	r.pageOffset, r.pageLimit = offset, limit
	return r.pageItems, r.pageErr
}

func pairChat() *domain.Chat {
	return &domain.Chat{ID: "c1", DonorID: "donor", RequesterID: "req"}
}

// ----- Tests -----

func TestNewChatService_Defaults(t *testing.T) {
	r := &fakeChatRepo{}
	s := NewChatService(nil, r)
	if s.Repo != r {
		t.Fatalf("repo not set")
	}
	if s.MaxContentRunes != 4000 {
		t.Fatalf("MaxContentRunes default = %d; want 4000", s.MaxContentRunes)
	}
}

func TestCreateOrGet_Validation(t *testing.T) {
	s := NewChatService(nil, &fakeChatRepo{})

	if _, err := s.CreateOrGet(context.Background(), "  ", "u1"); !errors.Is(err, ErrValidation) {
		t.Fatalf("blank donor: got %v; want ErrValidation", err)
	}
	if _, err := s.CreateOrGet(context.Background(), "u1", "u1"); !errors.Is(err, ErrSelfChat) {
		t.Fatalf("self chat: got %v; want ErrSelfChat", err)
	}
}

func TestCreateOrGet_ReturnsExisting(t *testing.T) {
	existing := pairChat()
	r := &fakeChatRepo{findChat: existing}
	s := NewChatService(nil, r)

	got, err := s.CreateOrGet(context.Background(), "donor", "req")
	if err != nil {
		t.Fatalf("CreateOrGet: %v", err)
	}
	if got != existing {
		t.Fatalf("expected the existing chat back")
	}
	if r.createDonorID != "" {
		t.Fatalf("CreateChat must not run when the pair already has a chat")
	}
}

func TestCreateOrGet_CreatesWhenMissing(t *testing.T) {
	r := &fakeChatRepo{findErr: gorm.ErrRecordNotFound}
	s := NewChatService(nil, r)

	got, err := s.CreateOrGet(context.Background(), "donor", "req")
	if err != nil {
		t.Fatalf("CreateOrGet: %v", err)
	}
	if got.DonorID != "donor" || got.RequesterID != "req" {
		t.Fatalf("unexpected chat: %+v", got)
	}
}

func TestCreateOrGet_RaceFallsBackToFind(t *testing.T) {
	// First Find misses, Create loses a race, second Find must win.
	winner := pairChat()
	r := &raceChatRepo{fakeChatRepo: fakeChatRepo{createErr: errors.New("unique violation")}, second: winner}
	s := NewChatService(nil, r)

	got, err := s.CreateOrGet(context.Background(), "donor", "req")
	if err != nil {
		t.Fatalf("CreateOrGet: %v", err)
	}
	if got != winner {
		t.Fatalf("expected the concurrently created chat")
	}
}

// raceChatRepo returns not-found on the first FindChatByPair and a hit on
// the second, mimicking a lost create race.
type raceChatRepo struct {
	fakeChatRepo
	calls  int
	second *domain.Chat
}

func (r *raceChatRepo) FindChatByPair(ctx context.Context, db *gorm.DB, a, b string) (*domain.Chat, error) {
	r.calls++
	if r.calls == 1 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.second, nil
}

func TestGetChat_MapsNotFound(t *testing.T) {
	r := &fakeChatRepo{getErr: gorm.ErrRecordNotFound}
	s := NewChatService(nil, r)
	if _, err := s.GetChat(context.Background(), "missing"); !errors.Is(err, ErrChatNotFound) {
		t.Fatalf("got %v; want ErrChatNotFound", err)
	}
}

func TestList_NeverNil(t *testing.T) {
	s := NewChatService(nil, &fakeChatRepo{listChats: nil})
	out, err := s.List(context.Background(), "u1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if out == nil {
		t.Fatalf("List must return an empty slice, not nil")
	}
}

func TestAppend_Validation(t *testing.T) {
	r := &fakeChatRepo{getChat: pairChat()}
	s := NewChatService(nil, r)

	if _, err := s.Append(context.Background(), "c1", "donor", "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("blank content: got %v; want ErrEmptyMessage", err)
	}

	s.MaxContentRunes = 5
	if _, err := s.Append(context.Background(), "c1", "donor", "toolongmsg"); !errors.Is(err, ErrMessageTooLong) {
		t.Fatalf("over cap: got %v; want ErrMessageTooLong", err)
	}
	// Multi-byte runes count as runes, not bytes.
	if _, err := s.Append(context.Background(), "c1", "donor", "☃☃☃☃☃"); err != nil {
		t.Fatalf("5 runes should fit: %v", err)
	}
}

func TestAppend_ParticipantsOnly(t *testing.T) {
	r := &fakeChatRepo{getChat: pairChat()}
	s := NewChatService(nil, r)

	if _, err := s.Append(context.Background(), "c1", "stranger", "hi"); !errors.Is(err, ErrInvalidParticipant) {
		t.Fatalf("non-participant: got %v; want ErrInvalidParticipant", err)
	}

	msg, err := s.Append(context.Background(), "c1", "req", "  hi there  ")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if msg.Content != "hi there" || r.appendContent != "hi there" {
		t.Fatalf("content not trimmed: %q", r.appendContent)
	}
}

func TestAppend_ChatNotFound(t *testing.T) {
	r := &fakeChatRepo{getErr: gorm.ErrRecordNotFound}
	s := NewChatService(nil, r)
	if _, err := s.Append(context.Background(), "missing", "u", "hi"); !errors.Is(err, ErrChatNotFound) {
		t.Fatalf("got %v; want ErrChatNotFound", err)
	}
}

func TestMessages_ParticipantGate(t *testing.T) {
	r := &fakeChatRepo{getChat: pairChat(), msgs: []domain.ChatMessage{{ID: "m1"}}}
	s := NewChatService(nil, r)

	if _, err := s.Messages(context.Background(), "c1", "stranger"); !errors.Is(err, ErrInvalidParticipant) {
		t.Fatalf("non-participant read: got %v; want ErrInvalidParticipant", err)
	}
	out, err := s.Messages(context.Background(), "c1", "donor")
	if err != nil || len(out) != 1 {
		t.Fatalf("Messages: len=%d err=%v", len(out), err)
	}
}

func TestMessagesPage_DefaultsAndShortCircuit(t *testing.T) {
	r := &fakeChatRepo{getChat: pairChat(), countTotal: 0}
	s := NewChatService(nil, r)

	items, total, err := s.MessagesPage(context.Background(), "c1", "donor", 0, -5)
	if err != nil {
		t.Fatalf("MessagesPage: %v", err)
	}
	if total != 0 || len(items) != 0 || items == nil {
		t.Fatalf("empty log: items=%v total=%d", items, total)
	}
	if r.pageLimit != 0 {
		t.Fatalf("page query must be skipped when total is 0")
	}
}

func TestMessagesPage_OffsetLimit(t *testing.T) {
	r := &fakeChatRepo{
		getChat:    pairChat(),
		countTotal: 42,
		pageItems:  []domain.ChatMessage{{ID: "x"}, {ID: "y"}},
	}
	s := NewChatService(nil, r)

	items, total, err := s.MessagesPage(context.Background(), "c1", "req", 3, 10)
	if err != nil {
		t.Fatalf("MessagesPage: %v", err)
	}
	if total != 42 || len(items) != 2 {
		t.Fatalf("items=%d total=%d; want 2/42", len(items), total)
	}
	if r.pageOffset != 20 || r.pageLimit != 10 {
		t.Fatalf("offset/limit = %d/%d; want 20/10", r.pageOffset, r.pageLimit)
	}
}

func TestMessagesPage_CountErrorPropagates(t *testing.T) {
	sentinel := errors.New("boom")
	r := &fakeChatRepo{getChat: pairChat(), countErr: sentinel}
	s := NewChatService(nil, r)

	if _, _, err := s.MessagesPage(context.Background(), "c1", "donor", 1, 10); !errors.Is(err, sentinel) {
		t.Fatalf("got %v; want count error", err)
	}
}

func TestAppend_LongContentBoundary(t *testing.T) {
	r := &fakeChatRepo{getChat: pairChat()}
	s := NewChatService(nil, r)

	exact := strings.Repeat("a", s.MaxContentRunes)
	if _, err := s.Append(context.Background(), "c1", "donor", exact); err != nil {
		t.Fatalf("content at the cap must pass: %v", err)
	}
	if _, err := s.Append(context.Background(), "c1", "donor", exact+"a"); !errors.Is(err, ErrMessageTooLong) {
		t.Fatalf("one over the cap: got %v; want ErrMessageTooLong", err)
	}
}
