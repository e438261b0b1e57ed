// Package rooms manages group chat rooms and their durable membership
// lists, which the messaging core's join authorization reads.
package rooms

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mindbridge/infrastructure"
	"mindbridge/internal/database"
)

var ErrRoomNotFound = errors.New("chat room not found")

type Service struct {
	db *database.Database
}

func NewService(db *database.Database) *Service {
	return &Service{db: db}
}

// Create makes a new active room with the creator as its first member.
func (s *Service) Create(ctx context.Context, name, description string, creatorID uint) (*database.ChatRoom, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: room name is required", infrastructure.ErrValidation)
	}

	room := &database.ChatRoom{
		Name:        name,
		Description: description,
		IsActive:    true,
		CreatedBy:   creatorID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(room).Error; err != nil {
			return err
		}
		member := &database.ChatRoomMember{
			ChatRoomID: room.ID,
			UserID:     creatorID,
			JoinedAt:   time.Now(),
		}
		return tx.Create(member).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat room: %w", err)
	}
	return room, nil
}

// AddMember enrolls a user into a room. Adding an existing member is a
// no-op so clients can retry safely.
func (s *Service) AddMember(ctx context.Context, roomID, userID uint) error {
	var room database.ChatRoom
	err := s.db.WithContext(ctx).Where("id = ? AND is_active = true", roomID).First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRoomNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to look up chat room: %w", err)
	}

	member := &database.ChatRoomMember{
		ChatRoomID: roomID,
		UserID:     userID,
		JoinedAt:   time.Now(),
	}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(member).Error
	if err != nil {
		return fmt.Errorf("failed to add room member: %w", err)
	}
	return nil
}

func (s *Service) RemoveMember(ctx context.Context, roomID, userID uint) error {
	err := s.db.WithContext(ctx).
		Where("chat_room_id = ? AND user_id = ?", roomID, userID).
		Delete(&database.ChatRoomMember{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove room member: %w", err)
	}
	return nil
}

// List returns the active rooms the user belongs to.
func (s *Service) List(ctx context.Context, userID uint) ([]database.ChatRoom, error) {
	var rooms []database.ChatRoom
	err := s.db.WithContext(ctx).
		Joins("JOIN chat_room_members ON chat_room_members.chat_room_id = chat_rooms.id").
		Where("chat_room_members.user_id = ? AND chat_rooms.is_active = true", userID).
		Order("chat_rooms.created_at DESC").
		Find(&rooms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list chat rooms: %w", err)
	}
	return rooms, nil
}
