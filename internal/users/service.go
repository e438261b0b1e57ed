// Package users covers account self-service: viewing and editing the
// profile, password changes and account deletion.
package users

import (
	"context"
	"errors"
	"fmt"

	passwordvalidator "github.com/wagslane/go-password-validator"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"mindbridge/infrastructure"
	"mindbridge/internal/database"
)

// minPasswordEntropy mirrors the registration floor so a password
// change cannot weaken an account.
const minPasswordEntropy = 50

type Service struct {
	db *database.Database
}

func NewService(db *database.Database) *Service {
	return &Service{db: db}
}

func (s *Service) Profile(ctx context.Context, userID uint) (*database.User, error) {
	var user database.User
	err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, infrastructure.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

type UpdateInput struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	ProfilePicture string `json:"profile_picture"`
}

func (s *Service) UpdateProfile(ctx context.Context, userID uint, input UpdateInput) (*database.User, error) {
	if input.FirstName == "" || input.LastName == "" {
		return nil, fmt.Errorf("%w: first and last name are required", infrastructure.ErrValidation)
	}

	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.FirstName = input.FirstName
	user.LastName = input.LastName
	user.ProfilePicture = input.ProfilePicture
	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

// ChangePassword requires the current password before accepting a new
// one, so a stolen token alone cannot lock the owner out.
func (s *Service) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	if err := passwordvalidator.Validate(next, minPasswordEntropy); err != nil {
		return fmt.Errorf("%w: %v", infrastructure.ErrValidation, err)
	}

	user, err := s.Profile(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)) != nil {
		return infrastructure.ErrAuthentication
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.db.WithContext(ctx).
		Model(&database.User{}).
		Where("id = ?", userID).
		Update("password_hash", string(hash)).Error
	if err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}
	return nil
}

func (s *Service) DeleteAccount(ctx context.Context, userID uint) error {
	result := s.db.WithContext(ctx).Where("id = ?", userID).Delete(&database.User{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return infrastructure.ErrUserNotFound
	}
	return nil
}

// List returns accounts filtered by role, for the admin console.
func (s *Service) List(ctx context.Context, role string) ([]database.User, error) {
	query := s.db.WithContext(ctx).Order("created_at DESC")
	if role != "" {
		query = query.Where("role = ?", role)
	}

	var users []database.User
	if err := query.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}
