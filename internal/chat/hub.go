package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"mindbridge/infrastructure"
)

// Presence is the live user -> connection-handle directory. Set
// overwrites any prior entry (last write wins); Delete removes the entry
// only if it still belongs to the given handle.
type Presence interface {
	Set(ctx context.Context, userID uint, handle string) error
	Get(ctx context.Context, userID uint) (string, error)
	Delete(ctx context.Context, userID uint, handle string) error
}

// Hub is the messaging core. It is constructed once per process and
// handed to every connection handler; it owns the in-process room and
// personal-channel registries and orchestrates join/leave, room
// broadcast, private delivery, typing indicators and disconnect cleanup
// against the injected collaborators.
type Hub struct {
	repo     Repository
	presence Presence
	history  History

	mu    sync.RWMutex
	rooms map[uint]map[string]*Session // room id -> connection handle -> session
	users map[uint]*Session            // personal channel, last write wins
}

func NewHub(repo Repository, presence Presence, history History) *Hub {
	return &Hub{
		repo:     repo,
		presence: presence,
		history:  history,
		rooms:    make(map[uint]map[string]*Session),
		users:    make(map[uint]*Session),
	}
}

// Register attaches an authenticated session to its personal channel and
// records it in the presence directory. A prior session for the same
// user is overwritten, not fanned out to.
func (h *Hub) Register(ctx context.Context, s *Session) {
	h.mu.Lock()
	h.users[s.User.ID] = s
	h.mu.Unlock()

	if err := h.presence.Set(ctx, s.User.ID, s.Handle); err != nil {
		log.Printf("Failed to register presence for user %d: %v", s.User.ID, err)
	}

	log.Printf("User connected: %d - %s", s.User.ID, s.User.FirstName)
}

// Unregister runs the disconnect cleanup exactly once regardless of how
// the connection ended: leave every joined room with a notification to
// the remaining members, release the personal channel, and remove the
// presence entry unless a newer session already owns it.
func (h *Hub) Unregister(ctx context.Context, s *Session) {
	s.cleanup.Do(func() {
		for _, roomID := range s.Rooms() {
			s.DetachRoom(roomID)
			h.removeFromRoom(roomID, s)
			h.notifyRoom(roomID, EventUserLeft, UserEventPayload{
				UserID:    s.User.ID,
				FirstName: s.User.FirstName,
				LastName:  s.User.LastName,
			}, s.Handle)
		}

		h.mu.Lock()
		if current, ok := h.users[s.User.ID]; ok && current == s {
			delete(h.users, s.User.ID)
		}
		h.mu.Unlock()

		if err := h.presence.Delete(ctx, s.User.ID, s.Handle); err != nil {
			log.Printf("Failed to remove presence for user %d: %v", s.User.ID, err)
		}

		s.MarkDisconnected()
		log.Printf("User disconnected: %d", s.User.ID)
	})
}

// JoinRoom attaches the session to a room after re-validating durable
// membership, notifies the other participants, and replays the recent
// message cache to the caller, oldest first. Joining an already-joined
// room repeats the notification and the replay.
func (h *Hub) JoinRoom(ctx context.Context, s *Session, roomID uint) error {
	member, err := h.repo.IsRoomMember(ctx, roomID, s.User.ID)
	if err != nil {
		s.EmitError("Error joining chat room")
		return fmt.Errorf("%w: membership check: %v", infrastructure.ErrPersistence, err)
	}
	if !member {
		s.EmitError("Not a member of this chat room")
		return infrastructure.ErrAuthorization
	}

	h.addToRoom(roomID, s)
	s.AttachRoom(roomID)
	log.Printf("User %d joined chatroom %d", s.User.ID, roomID)

	h.notifyRoom(roomID, EventUserJoined, UserEventPayload{
		UserID:    s.User.ID,
		FirstName: s.User.FirstName,
		LastName:  s.User.LastName,
	}, s.Handle)

	h.replayHistory(ctx, s, roomID)
	return nil
}

// replayHistory sends the cached scroll-back as a one-time reply. The
// cache stores newest first; clients want oldest first.
func (h *Hub) replayHistory(ctx context.Context, s *Session, roomID uint) {
	cached, err := h.history.Range(ctx, roomID, RecentLimit)
	if err != nil {
		log.Printf("Failed to read message cache for room %d: %v", roomID, err)
		return
	}
	if len(cached) == 0 {
		return
	}
	messages := make([]json.RawMessage, 0, len(cached))
	for i := len(cached) - 1; i >= 0; i-- {
		messages = append(messages, json.RawMessage(cached[i]))
	}
	_ = s.Emit(EventCachedMessages, CachedMessagesPayload{Messages: messages})
}

// LeaveRoom detaches the session from the room and notifies the other
// participants. Leaving a room not currently joined is a no-op.
func (h *Hub) LeaveRoom(s *Session, roomID uint) {
	if !s.DetachRoom(roomID) {
		return
	}
	h.removeFromRoom(roomID, s)
	h.notifyRoom(roomID, EventUserLeft, UserEventPayload{
		UserID:    s.User.ID,
		FirstName: s.User.FirstName,
		LastName:  s.User.LastName,
	}, s.Handle)
}

// SendMessage persists a room message, broadcasts it to every session in
// the room including the sender, and pushes it onto the recent-message
// cache. Authorization is the join-time check: the session must hold the
// room in its joined set. A failed persist aborts the whole operation; a
// failed cache push is logged and swallowed because the message is
// already durable and delivered.
func (h *Hub) SendMessage(ctx context.Context, s *Session, roomID uint, content string) error {
	if !s.JoinedRoom(roomID) {
		s.EmitError("Not joined to this chat room")
		return infrastructure.ErrAuthorization
	}

	msg, err := h.repo.InsertRoomMessage(ctx, roomID, s.User.ID, content)
	if err != nil {
		s.EmitError("Error sending message")
		return fmt.Errorf("%w: %v", infrastructure.ErrPersistence, err)
	}

	payload := MessagePayload{
		Message:        *msg,
		FirstName:      s.User.FirstName,
		LastName:       s.User.LastName,
		ProfilePicture: s.User.ProfilePicture,
	}

	h.broadcastRoom(roomID, EventNewMessage, payload)
	h.cacheMessage(ctx, roomID, payload)
	return nil
}

func (h *Hub) cacheMessage(ctx context.Context, roomID uint, payload MessagePayload) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to encode message %d for cache: %v", payload.ID, err)
		return
	}
	if err := h.history.PushFront(ctx, roomID, raw); err != nil {
		log.Printf("Failed to cache message %d for room %d: %v", payload.ID, roomID, err)
		return
	}
	if err := h.history.Trim(ctx, roomID, RecentLimit); err != nil {
		log.Printf("Failed to trim message cache for room %d: %v", roomID, err)
	}
}

// SendPrivate persists a direct message unconditionally, then delivers
// it to the receiver's personal channel if the presence directory says
// they are connected here. The sender always gets an acknowledgment with
// the persisted id; an offline receiver fetches the message later
// through the history endpoint.
func (h *Hub) SendPrivate(ctx context.Context, s *Session, receiverID uint, content string) error {
	if receiverID == s.User.ID {
		s.EmitError("Cannot send message to yourself")
		return infrastructure.ErrValidation
	}

	msg, err := h.repo.InsertPrivateMessage(ctx, s.User.ID, receiverID, content)
	if err != nil {
		s.EmitError("Error sending private message")
		return fmt.Errorf("%w: %v", infrastructure.ErrPersistence, err)
	}

	handle, err := h.presence.Get(ctx, receiverID)
	if err != nil {
		log.Printf("Failed to look up presence for user %d: %v", receiverID, err)
	}
	if handle != "" {
		h.mu.RLock()
		receiver := h.users[receiverID]
		h.mu.RUnlock()
		if receiver != nil && receiver.Handle == handle {
			_ = receiver.Emit(EventNewPrivateMessage, PrivateMessagePayload{
				PrivateMessage:       *msg,
				SenderFirstName:      s.User.FirstName,
				SenderLastName:       s.User.LastName,
				SenderProfilePicture: s.User.ProfilePicture,
			})
		}
	}

	_ = s.Emit(EventMessageSent, MessageSentPayload{MessageID: msg.ID, Success: true})
	return nil
}

// Typing routes a fire-and-forget typing indicator to the other members
// of a room or to one receiver's personal channel. Nothing is persisted
// and an unreachable target just drops the event.
func (h *Hub) Typing(s *Session, target TypingPayload, stopped bool) {
	event := EventUserTyping
	payload := UserEventPayload{UserID: s.User.ID, FirstName: s.User.FirstName}
	if stopped {
		event = EventUserStopTyping
		payload = UserEventPayload{UserID: s.User.ID}
	}

	switch {
	case target.ChatRoomID != 0:
		h.notifyRoom(target.ChatRoomID, event, payload, s.Handle)
	case target.ReceiverID != 0:
		h.mu.RLock()
		receiver := h.users[target.ReceiverID]
		h.mu.RUnlock()
		if receiver != nil {
			_ = receiver.Emit(event, payload)
		}
	}
}

func (h *Hub) addToRoom(roomID uint, s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room := h.rooms[roomID]
	if room == nil {
		room = make(map[string]*Session)
		h.rooms[roomID] = room
	}
	room[s.Handle] = s
}

func (h *Hub) removeFromRoom(roomID uint, s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room := h.rooms[roomID]
	if room == nil {
		return
	}
	delete(room, s.Handle)
	if len(room) == 0 {
		delete(h.rooms, roomID)
	}
}

func (h *Hub) roomSessions(roomID uint) []*Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	sessions := make([]*Session, 0, len(h.rooms[roomID]))
	for _, s := range h.rooms[roomID] {
		sessions = append(sessions, s)
	}
	return sessions
}

// broadcastRoom sends to every session in the room, the sender included.
func (h *Hub) broadcastRoom(roomID uint, event string, data interface{}) {
	for _, member := range h.roomSessions(roomID) {
		if err := member.Emit(event, data); err != nil {
			log.Printf("Failed to send %s to user %d: %v", event, member.User.ID, err)
		}
	}
}

// notifyRoom sends to every session in the room except the one holding
// the excluded handle.
func (h *Hub) notifyRoom(roomID uint, event string, data interface{}, excludeHandle string) {
	for _, member := range h.roomSessions(roomID) {
		if member.Handle == excludeHandle {
			continue
		}
		if err := member.Emit(event, data); err != nil {
			log.Printf("Failed to send %s to user %d: %v", event, member.User.ID, err)
		}
	}
}
