package chat

import "time"

// User is the identity attached to a session at handshake time. It is
// looked up once and never refreshed for the lifetime of the connection.
type User struct {
	ID             uint   `json:"id"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	ProfilePicture string `json:"profile_picture,omitempty"`
}

// Message is a persisted room message as returned by the durable store.
type Message struct {
	ID         uint      `json:"id"`
	ChatRoomID uint      `json:"chat_room_id"`
	UserID     uint      `json:"user_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// PrivateMessage is a persisted direct message between two users.
type PrivateMessage struct {
	ID         uint      `json:"id"`
	SenderID   uint      `json:"sender_id"`
	ReceiverID uint      `json:"receiver_id"`
	Content    string    `json:"content"`
	IsRead     bool      `json:"is_read"`
	CreatedAt  time.Time `json:"created_at"`
}

// MessagePayload is the outward shape of a room message: the persisted
// row joined with the author's display fields.
type MessagePayload struct {
	Message
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	ProfilePicture string `json:"profile_picture,omitempty"`
}

// PrivateMessagePayload is the outward shape of a private message
// delivered to the receiver's personal channel.
type PrivateMessagePayload struct {
	PrivateMessage
	SenderFirstName      string `json:"sender_first_name"`
	SenderLastName       string `json:"sender_last_name"`
	SenderProfilePicture string `json:"sender_profile_picture,omitempty"`
}

// PrivateMessageRow is a history-fetch row carrying display fields for
// both parties.
type PrivateMessageRow struct {
	PrivateMessage
	SenderFirstName   string `json:"sender_first_name"`
	SenderLastName    string `json:"sender_last_name"`
	ReceiverFirstName string `json:"receiver_first_name"`
	ReceiverLastName  string `json:"receiver_last_name"`
}

// Conversation summarizes a private-message thread with one other user.
type Conversation struct {
	OtherUserID     uint      `json:"other_user_id"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	ProfilePicture  string    `json:"profile_picture,omitempty"`
	LastMessage     string    `json:"last_message"`
	LastMessageTime time.Time `json:"last_message_time"`
	UnreadCount     int       `json:"unread_count"`
}
