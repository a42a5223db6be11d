package realtime

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/SravanamCharan20/EcoBites2/internal/config"
	"github.com/SravanamCharan20/EcoBites2/internal/domain"
)

type stubDirectory struct {
	chats map[string]*domain.Chat
}

func (d *stubDirectory) GetChat(ctx context.Context, chatID string) (*domain.Chat, error) {
	c, ok := d.chats[chatID]
	if !ok {
		return nil, errors.New("chat not found")
	}
	return c, nil
}

func newTestHub(t *testing.T, chats map[string]*domain.Chat) *Hub {
	t.Helper()
	dir := &stubDirectory{chats: chats}
	return NewHub(dir, config.RealtimeConfig{SendBuffer: 4}, zerolog.Nop())
}

func payload(senderID string) MessagePayload {
	return MessagePayload{SenderID: senderID, Content: "hi", Timestamp: time.Now().UTC()}
}

func TestRelay_DeliversToOnlineCounterpart(t *testing.T) {
	h := newTestHub(t, map[string]*domain.Chat{
		"c1": {ID: "c1", DonorID: "donor", RequesterID: "req"},
	})
	recipient := &stubConn{accept: true}
	h.Join("req", recipient)

	h.Relay(context.Background(), "c1", payload("donor"))

	if len(recipient.delivered) != 1 {
		t.Fatalf("delivered %d events; want 1", len(recipient.delivered))
	}
	evt := recipient.delivered[0]
	if evt.Type != EventNewMessage || evt.ChatID != "c1" || evt.Message.SenderID != "donor" {
		t.Fatalf("unexpected event: %+v", evt)
	}
}

func TestRelay_SilentNoOps(t *testing.T) {
	h := newTestHub(t, map[string]*domain.Chat{
		"c1":   {ID: "c1", DonorID: "donor", RequesterID: "req"},
		"self": {ID: "self", DonorID: "u1", RequesterID: "u1"},
	})
	bystander := &stubConn{accept: true}
	h.Join("req", bystander)
	h.Join("u1", bystander)

	// Unknown chat.
	h.Relay(context.Background(), "missing", payload("donor"))
	// Self-chat.
	h.Relay(context.Background(), "self", payload("u1"))
	// Sender is not a participant.
	h.Relay(context.Background(), "c1", payload("stranger"))

	if len(bystander.delivered) != 0 {
		t.Fatalf("no-op branches must not deliver: %+v", bystander.delivered)
	}
}

func TestRelay_RecipientOffline(t *testing.T) {
	h := newTestHub(t, map[string]*domain.Chat{
		"c1": {ID: "c1", DonorID: "donor", RequesterID: "req"},
	})
	sender := &stubConn{accept: true}
	h.Join("donor", sender)

	// Nothing to assert beyond "does not panic and does not echo back".
	h.Relay(context.Background(), "c1", payload("donor"))
	if len(sender.delivered) != 0 {
		t.Fatalf("relay must never echo to the sender: %+v", sender.delivered)
	}
}

func TestRelay_QueueFullIsDropped(t *testing.T) {
	h := newTestHub(t, map[string]*domain.Chat{
		"c1": {ID: "c1", DonorID: "donor", RequesterID: "req"},
	})
	saturated := &stubConn{accept: false}
	h.Join("req", saturated)

	h.Relay(context.Background(), "c1", payload("donor"))

	// The event reached Deliver but was refused; at-most-once means no
	// retry, so exactly one attempt.
	if len(saturated.delivered) != 1 {
		t.Fatalf("attempts = %d; want exactly 1", len(saturated.delivered))
	}
}

func TestRelay_AfterDisconnectDeliversNothing(t *testing.T) {
	h := newTestHub(t, map[string]*domain.Chat{
		"c1": {ID: "c1", DonorID: "donor", RequesterID: "req"},
	})
	recipient := &stubConn{accept: true}
	h.Join("req", recipient)
	h.Drop(recipient)

	h.Relay(context.Background(), "c1", payload("donor"))

	if len(recipient.delivered) != 0 {
		t.Fatalf("disconnected recipient must not receive: %+v", recipient.delivered)
	}
}

func TestHub_DropUnbinds(t *testing.T) {
	h := newTestHub(t, nil)
	c := &stubConn{}
	h.Join("u1", c)
	if h.Presence().Len() != 1 {
		t.Fatalf("join did not bind")
	}
	h.Drop(c)
	if h.Presence().Len() != 0 {
		t.Fatalf("drop did not unbind")
	}
}

func TestClientDeliver_Buffering(t *testing.T) {
	h := newTestHub(t, nil)
	h.cfg.SendBuffer = 2
	c := NewClient(h, nil, "")

	if !c.Deliver(OutboundEvent{Type: EventNewMessage}) {
		t.Fatalf("first event must queue")
	}
	if !c.Deliver(OutboundEvent{Type: EventNewMessage}) {
		t.Fatalf("second event must queue")
	}
	if c.Deliver(OutboundEvent{Type: EventNewMessage}) {
		t.Fatalf("full queue must refuse without blocking")
	}
}

func TestClientDeliver_AfterClose(t *testing.T) {
	h := newTestHub(t, nil)
	c := NewClient(h, nil, "")

	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	if c.Deliver(OutboundEvent{Type: EventNewMessage}) {
		t.Fatalf("closed client must refuse delivery")
	}
}
