package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"mindbridge/infrastructure"
	"mindbridge/pkg/jwt"
)

// SocketHandler upgrades HTTP requests to websocket connections, runs
// the credential handshake, and pumps inbound events through a dispatch
// table into the hub.
type SocketHandler struct {
	hub      *Hub
	tokens   *jwt.JWT
	upgrader websocket.Upgrader
	dispatch map[string]eventHandler
}

type eventHandler func(ctx context.Context, s *Session, data json.RawMessage)

func NewSocketHandler(hub *Hub, tokens *jwt.JWT) *SocketHandler {
	h := &SocketHandler{
		hub:    hub,
		tokens: tokens,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	h.dispatch = map[string]eventHandler{
		EventJoinRoom:           h.handleJoinRoom,
		EventLeaveRoom:          h.handleLeaveRoom,
		EventSendMessage:        h.handleSendMessage,
		EventSendPrivateMessage: h.handleSendPrivate,
		EventTyping:             h.handleTyping,
		EventStopTyping:         h.handleStopTyping,
	}
	return h
}

// ServeWS authenticates the handshake credential before upgrading; a
// bad, missing or unresolvable credential refuses the connection and no
// room interaction is possible. On success the session is registered
// with the hub (personal channel + presence) and the read loop runs
// until the connection drops. Cleanup runs exactly once either way.
func (h *SocketHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	user, err := h.authenticate(r)
	if err != nil {
		log.Printf("Websocket handshake rejected: %v", err)
		http.Error(w, "authentication error", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Websocket upgrade error: %v", err)
		return
	}

	session := NewSession(conn)
	session.Authenticate(user)
	h.hub.Register(r.Context(), session)

	defer func() {
		h.hub.Unregister(context.Background(), session)
		_ = session.Close()
	}()

	h.readLoop(session)
}

func (h *SocketHandler) authenticate(r *http.Request) (*User, error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	if token == "" {
		return nil, infrastructure.ErrMissingToken
	}

	claims, err := h.tokens.ValidateToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", infrastructure.ErrAuthentication, err)
	}

	user, err := h.hub.repo.FindUser(r.Context(), claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", infrastructure.ErrAuthentication, err)
	}
	return user, nil
}

func (h *SocketHandler) readLoop(s *Session) {
	for {
		env, err := s.ReadEnvelope()
		if err != nil {
			// A frame that is not valid JSON is the client's fault, not
			// the transport's. Tell them and keep the connection alive.
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				s.EmitError("Invalid message frame")
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Websocket read error for user %d: %v", s.User.ID, err)
			}
			return
		}

		handler, ok := h.dispatch[env.Event]
		if !ok {
			log.Printf("Unknown event %q from user %d", env.Event, s.User.ID)
			continue
		}
		handler(context.Background(), s, env.Data)
	}
}

func (h *SocketHandler) handleJoinRoom(ctx context.Context, s *Session, data json.RawMessage) {
	var p JoinRoomPayload
	if err := json.Unmarshal(data, &p); err != nil || p.ChatRoomID == 0 {
		s.EmitError("Invalid join_room payload")
		return
	}
	if err := h.hub.JoinRoom(ctx, s, p.ChatRoomID); err != nil {
		log.Printf("Join chatroom error for user %d: %v", s.User.ID, err)
	}
}

func (h *SocketHandler) handleLeaveRoom(ctx context.Context, s *Session, data json.RawMessage) {
	var p JoinRoomPayload
	if err := json.Unmarshal(data, &p); err != nil || p.ChatRoomID == 0 {
		s.EmitError("Invalid leave_room payload")
		return
	}
	h.hub.LeaveRoom(s, p.ChatRoomID)
}

func (h *SocketHandler) handleSendMessage(ctx context.Context, s *Session, data json.RawMessage) {
	var p SendMessagePayload
	if err := json.Unmarshal(data, &p); err != nil || p.ChatRoomID == 0 || p.Content == "" {
		s.EmitError("Invalid send_message payload")
		return
	}
	if err := h.hub.SendMessage(ctx, s, p.ChatRoomID, p.Content); err != nil {
		log.Printf("Send message error for user %d: %v", s.User.ID, err)
	}
}

func (h *SocketHandler) handleSendPrivate(ctx context.Context, s *Session, data json.RawMessage) {
	var p SendPrivatePayload
	if err := json.Unmarshal(data, &p); err != nil || p.ReceiverID == 0 || p.Content == "" {
		s.EmitError("Invalid send_private_message payload")
		return
	}
	if err := h.hub.SendPrivate(ctx, s, p.ReceiverID, p.Content); err != nil {
		log.Printf("Send private message error for user %d: %v", s.User.ID, err)
	}
}

func (h *SocketHandler) handleTyping(ctx context.Context, s *Session, data json.RawMessage) {
	var p TypingPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	h.hub.Typing(s, p, false)
}

func (h *SocketHandler) handleStopTyping(ctx context.Context, s *Session, data json.RawMessage) {
	var p TypingPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	h.hub.Typing(s, p, true)
}
