package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"mindbridge/internal/database"
)

var ErrConversationNotFound = errors.New("conversation not found")

const crisisResponse = `I'm really concerned about what you're sharing. Please know that you're not alone, and there are people who want to help you right now.

Please contact emergency services immediately:
- National Suicide Prevention Lifeline: 988
- Crisis Text Line: Text HOME to 741741
- International Association for Suicide Prevention: https://www.iasp.info/resources/Crisis_Centres/

Would you like me to connect you with a professional therapist on our platform right away?`

type Service struct {
	db  *database.Database
	llm LLMClient
}

func NewService(db *database.Database, llm LLMClient) *Service {
	return &Service{db: db, llm: llm}
}

type ChatResult struct {
	Message        string `json:"message"`
	ConversationID uint   `json:"conversation_id"`
	CrisisDetected bool   `json:"crisis_detected"`
}

// Chat appends the user's message to the conversation and produces a
// reply. Crisis language short-circuits the language-model call with a
// scripted safety response and flags the conversation; the flag is
// sticky for the conversation's lifetime.
func (s *Service) Chat(ctx context.Context, userID, conversationID uint, message string) (*ChatResult, error) {
	var conv database.AIConversation
	if conversationID != 0 {
		err := s.db.WithContext(ctx).
			Where("id = ? AND user_id = ?", conversationID, userID).
			First(&conv).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load conversation: %w", err)
		}
	}

	var history []ChatTurn
	if conv.History != "" {
		// A corrupt history column starts the conversation over rather
		// than blocking the user.
		_ = json.Unmarshal([]byte(conv.History), &history)
	}
	history = append(history, ChatTurn{Role: "user", Content: message})

	crisis := IsCrisis(message)

	var reply string
	if crisis {
		reply = crisisResponse
	} else {
		var err error
		reply, err = s.llm.Complete(ctx, history)
		if err != nil {
			return nil, fmt.Errorf("language model call failed: %w", err)
		}
	}

	history = append(history, ChatTurn{Role: "assistant", Content: reply})
	raw, err := json.Marshal(history)
	if err != nil {
		return nil, fmt.Errorf("failed to encode conversation history: %w", err)
	}

	conv.UserID = userID
	conv.History = string(raw)
	if crisis {
		conv.CrisisDetected = true
	}
	if err := s.db.WithContext(ctx).Save(&conv).Error; err != nil {
		return nil, fmt.Errorf("failed to save conversation: %w", err)
	}

	return &ChatResult{
		Message:        reply,
		ConversationID: conv.ID,
		CrisisDetected: crisis,
	}, nil
}

func (s *Service) Conversation(ctx context.Context, userID, conversationID uint) (*database.AIConversation, error) {
	var conv database.AIConversation
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", conversationID, userID).
		First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	return &conv, nil
}

// Conversations lists the user's conversations without history bodies.
func (s *Service) Conversations(ctx context.Context, userID uint) ([]database.AIConversation, error) {
	var conversations []database.AIConversation
	err := s.db.WithContext(ctx).
		Select("id", "user_id", "crisis_detected", "created_at", "updated_at").
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&conversations).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return conversations, nil
}
