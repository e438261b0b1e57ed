package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mindbridge/infrastructure"
	"mindbridge/internal/database"
	"mindbridge/pkg/jwt"
)

type fakeEmail struct {
	sentTo   []string
	lastCode string
	err      error
}

func (f *fakeEmail) SendVerificationEmail(to, firstName, verificationCode string) error {
	f.sentTo = append(f.sentTo, to)
	f.lastCode = verificationCode
	return f.err
}

func newTestService(t *testing.T) (*Service, *fakeEmail) {
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

	email := &fakeEmail{}
	return NewService(tdb, jwt.NewJWT("test-secret", 3600), email), email
}

// Validation runs before any collaborator is touched, so these cases
// need no database.

func TestRegisterValidation(t *testing.T) {
	s := NewService(nil, nil, nil)

	tests := []struct {
		name  string
		input RegisterInput
	}{
		{"invalid email", RegisterInput{Email: "not-an-email", Password: "correct horse battery staple", FirstName: "A", LastName: "B"}},
		{"missing first name", RegisterInput{Email: "a@example.com", Password: "correct horse battery staple", LastName: "B"}},
		{"missing last name", RegisterInput{Email: "a@example.com", Password: "correct horse battery staple", FirstName: "A"}},
		{"weak password", RegisterInput{Email: "a@example.com", Password: "abc", FirstName: "A", LastName: "B"}},
		{"unknown role", RegisterInput{Email: "a@example.com", Password: "correct horse battery staple", FirstName: "A", LastName: "B", Role: "admin"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Register(context.Background(), tt.input)
			assert.ErrorIs(t, err, infrastructure.ErrValidation)
		})
	}
}

func TestVerifyEmailRequiresCode(t *testing.T) {
	s := NewService(nil, nil, nil)
	err := s.VerifyEmail(context.Background(), "")
	assert.ErrorIs(t, err, infrastructure.ErrValidation)
}

func TestRegisterLoginVerifyFlow(t *testing.T) {
	s, email := newTestService(t)
	ctx := context.Background()

	input := RegisterInput{
		Email:     "alice@example.com",
		Password:  "correct horse battery staple",
		FirstName: "Alice",
		LastName:  "Doe",
		Role:      database.RoleTherapist,
	}

	user, err := s.Register(ctx, input)
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, database.RoleTherapist, user.Role)
	assert.False(t, user.IsVerified)
	assert.NotEmpty(t, user.VerificationCode)
	assert.NotEqual(t, input.Password, user.PasswordHash)
	assert.Equal(t, []string{"alice@example.com"}, email.sentTo)

	_, err = s.Register(ctx, input)
	assert.ErrorIs(t, err, infrastructure.ErrUserAlreadyExists)

	_, err = s.Login(ctx, input.Email, "wrong password")
	assert.ErrorIs(t, err, infrastructure.ErrAuthentication)

	tokens, err := s.Login(ctx, input.Email, input.Password)
	require.NoError(t, err)
	claims, err := s.tokens.ValidateToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	require.NoError(t, s.VerifyEmail(ctx, email.lastCode))

	var stored database.User
	require.NoError(t, s.db.Where("id = ?", user.ID).First(&stored).Error)
	assert.True(t, stored.IsVerified)
	assert.Empty(t, stored.VerificationCode)

	// The code is single use.
	assert.ErrorIs(t, s.VerifyEmail(ctx, email.lastCode), infrastructure.ErrUserNotFound)
}

func TestRegisterDeliveryFailureIsNotFatal(t *testing.T) {
	s, email := newTestService(t)
	email.err = assert.AnError

	_, err := s.Register(context.Background(), RegisterInput{
		Email:     "bob@example.com",
		Password:  "correct horse battery staple",
		FirstName: "Bob",
		LastName:  "Doe",
	})
	require.NoError(t, err)
}

func TestLoginUnknownUser(t *testing.T) {
	s, _ := newTestService(t)
	_, err := s.Login(context.Background(), "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, infrastructure.ErrAuthentication)
}
