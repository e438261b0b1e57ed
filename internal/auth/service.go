package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"

	"github.com/google/uuid"
	passwordvalidator "github.com/wagslane/go-password-validator"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"mindbridge/infrastructure"
	"mindbridge/internal/database"
	"mindbridge/pkg/jwt"
)

// minPasswordEntropy is the bits-of-entropy floor for new passwords.
const minPasswordEntropy = 50

// EmailSender is the outbound mail collaborator; delivery failures are
// logged, never fatal to registration.
type EmailSender interface {
	SendVerificationEmail(to, firstName, verificationCode string) error
}

type Service struct {
	db     *database.Database
	tokens *jwt.JWT
	email  EmailSender
}

func NewService(db *database.Database, tokens *jwt.JWT, email EmailSender) *Service {
	return &Service{db: db, tokens: tokens, email: email}
}

type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

func (s *Service) Register(ctx context.Context, input RegisterInput) (*database.User, error) {
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return nil, fmt.Errorf("%w: invalid email address", infrastructure.ErrValidation)
	}
	if input.FirstName == "" || input.LastName == "" {
		return nil, fmt.Errorf("%w: first and last name are required", infrastructure.ErrValidation)
	}
	if err := passwordvalidator.Validate(input.Password, minPasswordEntropy); err != nil {
		return nil, fmt.Errorf("%w: %v", infrastructure.ErrValidation, err)
	}

	role := input.Role
	switch role {
	case "":
		role = database.RoleUser
	case database.RoleUser, database.RoleTherapist:
	default:
		return nil, fmt.Errorf("%w: unknown role %q", infrastructure.ErrValidation, input.Role)
	}

	var existing database.User
	err := s.db.WithContext(ctx).Where("email = ?", input.Email).First(&existing).Error
	if err == nil {
		return nil, infrastructure.ErrUserAlreadyExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &database.User{
		Email:            input.Email,
		PasswordHash:     string(hash),
		FirstName:        input.FirstName,
		LastName:         input.LastName,
		Role:             role,
		VerificationCode: uuid.New().String(),
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.email.SendVerificationEmail(user.Email, user.FirstName, user.VerificationCode); err != nil {
		log.Printf("Failed to send verification email to %s: %v", user.Email, err)
	}

	return user, nil
}

type Tokens struct {
	AccessToken string `json:"access_token"`
}

func (s *Service) Login(ctx context.Context, email, password string) (*Tokens, error) {
	var user database.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, infrastructure.ErrAuthentication
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, infrastructure.ErrAuthentication
	}

	access, err := s.tokens.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &Tokens{AccessToken: access}, nil
}

func (s *Service) VerifyEmail(ctx context.Context, code string) error {
	if code == "" {
		return fmt.Errorf("%w: verification code required", infrastructure.ErrValidation)
	}

	result := s.db.WithContext(ctx).
		Model(&database.User{}).
		Where("verification_code = ? AND is_verified = false", code).
		Updates(map[string]interface{}{"is_verified": true, "verification_code": ""})
	if result.Error != nil {
		return fmt.Errorf("failed to verify email: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return infrastructure.ErrUserNotFound
	}
	return nil
}
