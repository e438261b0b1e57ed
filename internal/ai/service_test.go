package ai

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mindbridge/internal/database"
)

type fakeLLM struct {
	reply string
	err   error
	calls int
	last  []ChatTurn
}

func (f *fakeLLM) Complete(ctx context.Context, history []ChatTurn) (string, error) {
	f.calls++
	f.last = history
	return f.reply, f.err
}

func newTestDB(t *testing.T) *database.Database {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	tdb := &database.Database{DB: db}
	require.NoError(t, tdb.Migrate())
	return tdb
}

func TestChatCallsModelAndPersistsHistory(t *testing.T) {
	db := newTestDB(t)
	llm := &fakeLLM{reply: "That sounds difficult. Tell me more."}
	s := NewService(db, llm)
	ctx := context.Background()

	result, err := s.Chat(ctx, 1, 0, "I had a stressful week")
	require.NoError(t, err)
	assert.Equal(t, llm.reply, result.Message)
	assert.False(t, result.CrisisDetected)
	assert.NotZero(t, result.ConversationID)
	assert.Equal(t, 1, llm.calls)

	conv, err := s.Conversation(ctx, 1, result.ConversationID)
	require.NoError(t, err)

	var history []ChatTurn
	require.NoError(t, json.Unmarshal([]byte(conv.History), &history))
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "I had a stressful week", history[0].Content)
	assert.Equal(t, "assistant", history[1].Role)
}

func TestChatContinuesConversation(t *testing.T) {
	db := newTestDB(t)
	llm := &fakeLLM{reply: "ok"}
	s := NewService(db, llm)
	ctx := context.Background()

	first, err := s.Chat(ctx, 1, 0, "hello")
	require.NoError(t, err)
	second, err := s.Chat(ctx, 1, first.ConversationID, "still here")
	require.NoError(t, err)
	assert.Equal(t, first.ConversationID, second.ConversationID)

	require.Len(t, llm.last, 3, "the model sees the prior turns")
	assert.Equal(t, "still here", llm.last[2].Content)
}

func TestChatCrisisSkipsModelAndFlagIsSticky(t *testing.T) {
	db := newTestDB(t)
	llm := &fakeLLM{reply: "should not be used"}
	s := NewService(db, llm)
	ctx := context.Background()

	result, err := s.Chat(ctx, 1, 0, "I want to end my life")
	require.NoError(t, err)
	assert.True(t, result.CrisisDetected)
	assert.Contains(t, result.Message, "988")
	assert.Zero(t, llm.calls, "crisis responses never reach the model")

	// A calm follow-up gets a model reply, but the conversation stays
	// flagged.
	followup, err := s.Chat(ctx, 1, result.ConversationID, "thanks, I am feeling calmer")
	require.NoError(t, err)
	assert.False(t, followup.CrisisDetected)
	assert.Equal(t, 1, llm.calls)

	conv, err := s.Conversation(ctx, 1, result.ConversationID)
	require.NoError(t, err)
	assert.True(t, conv.CrisisDetected)
}

func TestChatRejectsForeignConversation(t *testing.T) {
	db := newTestDB(t)
	s := NewService(db, &fakeLLM{reply: "ok"})
	ctx := context.Background()

	mine, err := s.Chat(ctx, 1, 0, "hello")
	require.NoError(t, err)

	_, err = s.Chat(ctx, 2, mine.ConversationID, "let me in")
	assert.ErrorIs(t, err, ErrConversationNotFound)

	_, err = s.Conversation(ctx, 2, mine.ConversationID)
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestChatModelFailure(t *testing.T) {
	db := newTestDB(t)
	s := NewService(db, &fakeLLM{err: errors.New("upstream down")})

	_, err := s.Chat(context.Background(), 1, 0, "hello")
	assert.Error(t, err)
}

func TestConversationsOmitHistory(t *testing.T) {
	db := newTestDB(t)
	s := NewService(db, &fakeLLM{reply: "ok"})
	ctx := context.Background()

	_, err := s.Chat(ctx, 1, 0, "first")
	require.NoError(t, err)
	_, err = s.Chat(ctx, 1, 0, "second")
	require.NoError(t, err)
	_, err = s.Chat(ctx, 2, 0, "someone else")
	require.NoError(t, err)

	list, err := s.Conversations(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, conv := range list {
		assert.Empty(t, conv.History, "listings exclude the history body")
	}
}
