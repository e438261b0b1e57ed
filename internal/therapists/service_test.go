package therapists

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mindbridge/infrastructure"
	"mindbridge/internal/database"
)

func newTestService(t *testing.T) *Service {
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

	return NewService(tdb)
}

func seedUser(t *testing.T, s *Service, id uint, firstName string) {
	t.Helper()
	user := &database.User{
		ID:           id,
		Email:        fmt.Sprintf("user%d@example.com", id),
		PasswordHash: "x",
		FirstName:    firstName,
		LastName:     "Doe",
		Role:         database.RoleUser,
	}
	require.NoError(t, s.db.Create(user).Error)
}

func TestRegisterValidation(t *testing.T) {
	s := NewService(nil)

	tests := []struct {
		name  string
		input RegisterInput
	}{
		{"missing license", RegisterInput{Specialization: "anxiety"}},
		{"missing specialization", RegisterInput{LicenseNumber: "LIC-1"}},
		{"negative experience", RegisterInput{LicenseNumber: "LIC-1", Specialization: "anxiety", YearsExperience: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Register(context.Background(), 1, tt.input)
			assert.ErrorIs(t, err, infrastructure.ErrValidation)
		})
	}
}

func TestRegisterUpgradesRole(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	seedUser(t, s, 1, "Alice")

	profile, err := s.Register(ctx, 1, RegisterInput{
		LicenseNumber:   "LIC-1",
		Specialization:  "anxiety",
		Bio:             "CBT practitioner",
		YearsExperience: 6,
	})
	require.NoError(t, err)
	assert.NotZero(t, profile.ID)
	assert.False(t, profile.IsVerified)

	var user database.User
	require.NoError(t, s.db.Where("id = ?", 1).First(&user).Error)
	assert.Equal(t, database.RoleTherapist, user.Role)
}

func TestRegisterConflicts(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	seedUser(t, s, 1, "Alice")
	seedUser(t, s, 2, "Bob")

	_, err := s.Register(ctx, 1, RegisterInput{LicenseNumber: "LIC-1", Specialization: "anxiety"})
	require.NoError(t, err)

	_, err = s.Register(ctx, 1, RegisterInput{LicenseNumber: "LIC-2", Specialization: "anxiety"})
	assert.ErrorIs(t, err, ErrProfileExists)

	_, err = s.Register(ctx, 2, RegisterInput{LicenseNumber: "LIC-1", Specialization: "trauma"})
	assert.ErrorIs(t, err, ErrLicenseInUse)
}

func TestRegisterUnknownUserRollsBack(t *testing.T) {
	s := newTestService(t)

	_, err := s.Register(context.Background(), 99, RegisterInput{LicenseNumber: "LIC-9", Specialization: "anxiety"})
	assert.ErrorIs(t, err, infrastructure.ErrUserNotFound)

	var count int64
	require.NoError(t, s.db.Model(&database.TherapistProfile{}).Count(&count).Error)
	assert.Zero(t, count, "failed registration leaves no profile behind")
}

func TestListFiltersVerifiedAndSpecialization(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	seedUser(t, s, 1, "Alice")
	seedUser(t, s, 2, "Bob")
	seedUser(t, s, 3, "Carol")

	alice, err := s.Register(ctx, 1, RegisterInput{LicenseNumber: "LIC-1", Specialization: "anxiety", YearsExperience: 6})
	require.NoError(t, err)
	bob, err := s.Register(ctx, 2, RegisterInput{LicenseNumber: "LIC-2", Specialization: "trauma", YearsExperience: 3})
	require.NoError(t, err)
	_, err = s.Register(ctx, 3, RegisterInput{LicenseNumber: "LIC-3", Specialization: "anxiety"})
	require.NoError(t, err)

	require.NoError(t, s.Verify(ctx, alice.ID))
	require.NoError(t, s.Verify(ctx, bob.ID))

	listings, err := s.List(ctx, "", true)
	require.NoError(t, err)
	require.Len(t, listings, 2, "unverified profiles stay out of the directory")
	assert.Equal(t, "Alice", listings[0].FirstName, "most experienced first")

	listings, err = s.List(ctx, "trauma", true)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "Bob", listings[0].FirstName)

	pending, err := s.List(ctx, "", false)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "Carol", pending[0].FirstName)
}

func TestGetAndMyProfile(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	seedUser(t, s, 1, "Alice")

	registered, err := s.Register(ctx, 1, RegisterInput{LicenseNumber: "LIC-1", Specialization: "anxiety"})
	require.NoError(t, err)

	listing, err := s.Get(ctx, registered.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", listing.FirstName)
	assert.Equal(t, "LIC-1", listing.LicenseNumber)

	_, err = s.Get(ctx, 999)
	assert.ErrorIs(t, err, ErrProfileNotFound)

	mine, err := s.MyProfile(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, mine.ID)

	_, err = s.MyProfile(ctx, 2)
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestUpdateKeepsLicense(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	seedUser(t, s, 1, "Alice")

	_, err := s.Register(ctx, 1, RegisterInput{LicenseNumber: "LIC-1", Specialization: "anxiety", YearsExperience: 2})
	require.NoError(t, err)

	updated, err := s.Update(ctx, 1, UpdateInput{
		Specialization:  "trauma",
		Bio:             "EMDR certified",
		YearsExperience: 3,
		Availability:    "weekdays",
	})
	require.NoError(t, err)
	assert.Equal(t, "trauma", updated.Specialization)
	assert.Equal(t, "LIC-1", updated.LicenseNumber)

	_, err = s.Update(ctx, 1, UpdateInput{Specialization: "", YearsExperience: 1})
	assert.ErrorIs(t, err, infrastructure.ErrValidation)
}

func TestVerifyUnknownProfile(t *testing.T) {
	s := newTestService(t)
	assert.ErrorIs(t, s.Verify(context.Background(), 42), ErrProfileNotFound)
}
