package chat

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// State is the lifecycle of one connection session.
type State int

const (
	StateConnecting State = iota
	StateAuthenticated
	StateDisconnected
)

// Conn is the transport handle a session writes to. *websocket.Conn
// satisfies it; tests substitute an in-memory fake.
type Conn interface {
	ReadJSON(v interface{}) error
	WriteJSON(v interface{}) error
	Close() error
}

var errSessionClosed = errors.New("session is disconnected")

// Session is the in-memory state of one live client connection: the
// authenticated identity, the transport handle, and the set of rooms
// this connection has attached to for fan-out. The joined set is only a
// local cache; durable membership is re-validated at join time.
type Session struct {
	// Handle uniquely identifies this connection in the presence
	// directory, so a disconnect can tell its own entry from a newer one.
	Handle string
	User   *User

	conn Conn

	mu    sync.Mutex
	state State
	rooms map[uint]struct{}

	cleanup sync.Once
}

func NewSession(conn Conn) *Session {
	return &Session{
		Handle: uuid.New().String(),
		conn:   conn,
		state:  StateConnecting,
		rooms:  make(map[uint]struct{}),
	}
}

// Authenticate attaches the resolved identity and moves the session to
// the authenticated state. The identity is immutable afterwards.
func (s *Session) Authenticate(user *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.User = user
	s.state = StateAuthenticated
}

func (s *Session) MarkDisconnected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateDisconnected
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Emit writes one event to the transport. Writes are serialized because
// websocket connections permit a single concurrent writer.
func (s *Session) Emit(event string, data interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateDisconnected {
		return errSessionClosed
	}
	return s.conn.WriteJSON(outbound{Event: event, Data: data})
}

func (s *Session) EmitError(message string) {
	_ = s.Emit(EventError, ErrorPayload{Message: message})
}

// ReadEnvelope blocks until the next inbound event. Only the connection's
// read loop may call it.
func (s *Session) ReadEnvelope() (*Envelope, error) {
	var env Envelope
	if err := s.conn.ReadJSON(&env); err != nil {
		return nil, err
	}
	return &env, nil
}

func (s *Session) AttachRoom(roomID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[roomID] = struct{}{}
}

// DetachRoom reports whether the room was actually joined, so leaving a
// room that was never joined stays a silent no-op.
func (s *Session) DetachRoom(roomID uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[roomID]; !ok {
		return false
	}
	delete(s.rooms, roomID)
	return true
}

func (s *Session) JoinedRoom(roomID uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.rooms[roomID]
	return ok
}

func (s *Session) Rooms() []uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]uint, 0, len(s.rooms))
	for id := range s.rooms {
		ids = append(ids, id)
	}
	return ids
}

func (s *Session) Close() error {
	return s.conn.Close()
}
