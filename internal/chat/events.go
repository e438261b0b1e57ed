package chat

import "encoding/json"

// Client-emitted events.
const (
	EventJoinRoom           = "join_room"
	EventLeaveRoom          = "leave_room"
	EventSendMessage        = "send_message"
	EventSendPrivateMessage = "send_private_message"
	EventTyping             = "typing"
	EventStopTyping         = "stop_typing"
)

// Server-emitted events.
const (
	EventNewMessage        = "new_message"
	EventNewPrivateMessage = "new_private_message"
	EventUserJoined        = "user_joined"
	EventUserLeft          = "user_left"
	EventUserTyping        = "user_typing"
	EventUserStopTyping    = "user_stop_typing"
	EventCachedMessages    = "cached_messages"
	EventMessageSent       = "message_sent"
	EventError             = "error"
)

// Envelope frames every message on the wire, in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type outbound struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type JoinRoomPayload struct {
	ChatRoomID uint `json:"chatroom_id"`
}

type SendMessagePayload struct {
	ChatRoomID uint   `json:"chatroom_id"`
	Content    string `json:"content"`
}

type SendPrivatePayload struct {
	ReceiverID uint   `json:"receiver_id"`
	Content    string `json:"content"`
}

// TypingPayload targets either a room or a single receiver; exactly one
// of the two fields is expected to be set.
type TypingPayload struct {
	ChatRoomID uint `json:"chatroom_id,omitempty"`
	ReceiverID uint `json:"receiver_id,omitempty"`
}

type UserEventPayload struct {
	UserID    uint   `json:"user_id"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

type CachedMessagesPayload struct {
	Messages []json.RawMessage `json:"messages"`
}

type MessageSentPayload struct {
	MessageID uint `json:"message_id"`
	Success   bool `json:"success"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
