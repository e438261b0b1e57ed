package chat

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindbridge/pkg/jwt"
)

// scriptedConn plays back a fixed sequence of reads, then reports EOF.
type scriptedConn struct {
	fakeConn
	reads []func(v interface{}) error
}

func (c *scriptedConn) ReadJSON(v interface{}) error {
	if len(c.reads) == 0 {
		return io.EOF
	}
	next := c.reads[0]
	c.reads = c.reads[1:]
	return next(v)
}

func TestServeWSRejectsBadHandshake(t *testing.T) {
	tokens := jwt.NewJWT("test-secret", 3600)
	hub, _, _ := newTestHub(&fakeRepo{})
	handler := NewSocketHandler(hub, tokens)

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		rec := httptest.NewRecorder()

		handler.ServeWS(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ws?token=garbage", nil)
		rec := httptest.NewRecorder()

		handler.ServeWS(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token in header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		req.Header.Set("Authorization", "Bearer also-garbage")
		rec := httptest.NewRecorder()

		handler.ServeWS(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestDispatchRejectsMalformedPayloads(t *testing.T) {
	tokens := jwt.NewJWT("test-secret", 3600)
	hub, _, _ := newTestHub(&fakeRepo{member: true})
	handler := NewSocketHandler(hub, tokens)
	ctx := context.Background()

	tests := []struct {
		name    string
		event   func(context.Context, *Session, json.RawMessage)
		payload string
		want    string
	}{
		{"join without room", handler.handleJoinRoom, `{}`, "Invalid join_room payload"},
		{"join garbage", handler.handleJoinRoom, `not json`, "Invalid join_room payload"},
		{"leave without room", handler.handleLeaveRoom, `{}`, "Invalid leave_room payload"},
		{"send without content", handler.handleSendMessage, `{"chatroom_id":7}`, "Invalid send_message payload"},
		{"send without room", handler.handleSendMessage, `{"content":"hi"}`, "Invalid send_message payload"},
		{"private without receiver", handler.handleSendPrivate, `{"content":"hi"}`, "Invalid send_private_message payload"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, conn := newTestSession(1, "Alice")
			tt.event(ctx, s, json.RawMessage(tt.payload))

			errEvent, ok := conn.find(EventError)
			require.True(t, ok)
			assert.Equal(t, tt.want, errEvent.Data.(ErrorPayload).Message)
		})
	}
}

func TestReadLoopSurvivesMalformedFrames(t *testing.T) {
	tokens := jwt.NewJWT("test-secret", 3600)
	repo := &fakeRepo{member: true}
	hub, _, _ := newTestHub(repo)
	handler := NewSocketHandler(hub, tokens)

	badFrame := func(raw string) func(v interface{}) error {
		return func(v interface{}) error {
			return json.Unmarshal([]byte(raw), v)
		}
	}

	conn := &scriptedConn{reads: []func(v interface{}) error{
		badFrame(`{not json`),
		badFrame(`[1,2,3]`),
		func(v interface{}) error {
			*(v.(*Envelope)) = Envelope{Event: EventJoinRoom, Data: json.RawMessage(`{"chatroom_id":7}`)}
			return nil
		},
	}}

	s := NewSession(conn)
	s.Authenticate(&User{ID: 1, FirstName: "Alice"})
	hub.Register(context.Background(), s)

	handler.readLoop(s)

	assert.Equal(t, 2, conn.count(EventError), "each malformed frame is reported")
	errEvent, ok := conn.find(EventError)
	require.True(t, ok)
	assert.Equal(t, "Invalid message frame", errEvent.Data.(ErrorPayload).Message)
	assert.True(t, s.JoinedRoom(7), "frames after a malformed one are still dispatched")
}

func TestDispatchRoutesValidSendMessage(t *testing.T) {
	tokens := jwt.NewJWT("test-secret", 3600)
	repo := &fakeRepo{member: true}
	hub, _, _ := newTestHub(repo)
	handler := NewSocketHandler(hub, tokens)
	ctx := context.Background()

	s, conn := newTestSession(1, "Alice")
	hub.Register(ctx, s)
	require.NoError(t, hub.JoinRoom(ctx, s, 7))

	handler.handleSendMessage(ctx, s, json.RawMessage(`{"chatroom_id":7,"content":"hello"}`))

	require.Len(t, repo.roomMessages, 1)
	assert.Equal(t, 1, conn.count(EventNewMessage))
}
