package realtime

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/SravanamCharan20/EcoBites2/internal/config"
	"github.com/SravanamCharan20/EcoBites2/internal/domain"
)

// ChatDirectory resolves a chat's participants for the relay. It is
// satisfied by the chat service; tests inject fakes.
type ChatDirectory interface {
	GetChat(ctx context.Context, chatID string) (*domain.Chat, error)
}

var (
	relayDelivered = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_notifications_delivered_total",
		Help: "Notifications pushed to an online recipient.",
	})
	relayDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_notifications_dropped_total",
			Help: "Notifications dropped by the relay, by reason.",
		},
		[]string{"reason"},
	)
	presenceBound = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "relay_presence_bound_users",
		Help: "Users currently bound in the presence table.",
	})
)

func init() {
	prometheus.MustRegister(relayDelivered, relayDropped, presenceBound)
}

// Hub owns the presence table and performs relay operations. Every failure
// branch is absorbed and logged: nothing on this path is surfaced to the
// sending client and nothing is fatal to the process; the durable write
// path is the only place user-visible errors come from.
type Hub struct {
	presence *Presence
	chats    ChatDirectory
	cfg      config.RealtimeConfig
	log      zerolog.Logger
}

// NewHub constructs a Hub with its own lifecycle-scoped presence table.
func NewHub(chats ChatDirectory, cfg config.RealtimeConfig, log zerolog.Logger) *Hub {
	return &Hub{
		presence: NewPresence(),
		chats:    chats,
		cfg:      cfg,
		log:      log.With().Str("component", "realtime").Logger(),
	}
}

// Presence exposes the hub's presence table (used by tests and the ws
// handler's cleanup path).
func (h *Hub) Presence() *Presence { return h.presence }

// Join binds userID to conn in the presence table.
func (h *Hub) Join(userID string, conn Conn) {
	h.presence.Join(userID, conn)
	presenceBound.Set(float64(h.presence.Len()))
	h.log.Debug().Str("user_id", userID).Msg("presence join")
}

// Drop removes conn from the presence table by connection identity.
func (h *Hub) Drop(conn Conn) {
	h.presence.Remove(conn)
	presenceBound.Set(float64(h.presence.Len()))
}

// Relay forwards a just-persisted message to the other participant of the
// chat, if that participant is currently online.
//
// Semantics (all misses are silent no-ops, logged only):
//   - unknown chat: advisory no-op, not an error to the sender;
//   - donor == requester: aborted;
//   - sender not a participant: aborted;
//   - recipient offline: dropped, the persisted log is the only record;
//   - recipient's send queue full: dropped (at-most-once, no backlog).
//
// The chat lookup is the only blocking step; the presence table tolerates
// concurrent joins and removals while it is outstanding.
func (h *Hub) Relay(ctx context.Context, chatID string, msg MessagePayload) {
	chat, err := h.chats.GetChat(ctx, chatID)
	if err != nil {
		relayDropped.WithLabelValues("chat_not_found").Inc()
		h.log.Warn().Str("chat_id", chatID).Err(err).Msg("relay: chat not found")
		return
	}
	if chat.DonorID == chat.RequesterID {
		relayDropped.WithLabelValues("self_chat").Inc()
		h.log.Warn().Str("chat_id", chatID).Msg("relay: self-chat, not delivering")
		return
	}
	recipientID, ok := chat.Counterpart(msg.SenderID)
	if !ok {
		relayDropped.WithLabelValues("invalid_sender").Inc()
		h.log.Warn().
			Str("chat_id", chatID).
			Str("sender_id", msg.SenderID).
			Msg("relay: sender is not a chat participant")
		return
	}

	conn, online := h.presence.Lookup(recipientID)
	if !online {
		relayDropped.WithLabelValues("recipient_offline").Inc()
		return
	}

	delivered := conn.Deliver(OutboundEvent{
		Type:    EventNewMessage,
		ChatID:  chatID,
		Message: msg,
	})
	if !delivered {
		relayDropped.WithLabelValues("send_queue_full").Inc()
		h.log.Warn().
			Str("chat_id", chatID).
			Str("recipient_id", recipientID).
			Msg("relay: recipient send queue full, notification dropped")
		return
	}
	relayDelivered.Inc()
}
