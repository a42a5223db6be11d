// Package realtime implements the websocket relay that pushes new-message
// notifications to online chat participants. The relay is advisory only:
// the REST append endpoint is the durability point, and a notification that
// finds its recipient offline is dropped, not queued. Delivery is
// at-most-once and unordered; a recipient who missed a push sees the
// message on its next fetch of the chat log.
package realtime

import "time"

// Inbound event types sent by clients.
const (
	// EventJoin binds the sending connection to a user id in the presence
	// table ("join" in the original socket protocol).
	EventJoin = "join"
	// EventSendMessage asks the relay to notify the other chat participant
	// of an already-persisted message.
	EventSendMessage = "sendMessage"
)

// EventNewMessage is the single outbound event type, delivered only to the
// resolved recipient's connection.
const EventNewMessage = "newMessage"

// MessagePayload mirrors the persisted message fields carried over the
// socket. SenderID passes through the relay unmodified.
type MessagePayload struct {
	SenderID  string    `json:"senderId"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// InboundEvent is the envelope decoded from client frames. Fields are
// populated according to Type: UserID for join, ChatID/Message for
// sendMessage.
type InboundEvent struct {
	Type    string          `json:"type"`
	UserID  string          `json:"userId,omitempty"`
	ChatID  string          `json:"chatId,omitempty"`
	Message *MessagePayload `json:"message,omitempty"`
}

// OutboundEvent is the envelope written to a recipient's connection.
type OutboundEvent struct {
	Type    string         `json:"type"`
	ChatID  string         `json:"chatId"`
	Message MessagePayload `json:"message"`
}
