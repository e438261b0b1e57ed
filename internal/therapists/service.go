// Package therapists manages the professional directory: therapist
// registration with license details, admin verification and the
// searchable listing users browse when booking sessions.
package therapists

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"mindbridge/infrastructure"
	"mindbridge/internal/database"
)

var (
	ErrProfileExists   = errors.New("therapist profile already exists")
	ErrLicenseInUse    = errors.New("license number already registered")
	ErrProfileNotFound = errors.New("therapist profile not found")
)

type Service struct {
	db *database.Database
}

func NewService(db *database.Database) *Service {
	return &Service{db: db}
}

type RegisterInput struct {
	LicenseNumber   string `json:"license_number"`
	Specialization  string `json:"specialization"`
	Bio             string `json:"bio"`
	YearsExperience int    `json:"years_experience"`
	Availability    string `json:"availability"`
}

// Register creates a therapist profile for the user and upgrades their
// role. The profile starts unverified; an admin vouches for the license
// via Verify before the therapist appears in the default listing.
func (s *Service) Register(ctx context.Context, userID uint, input RegisterInput) (*database.TherapistProfile, error) {
	if input.LicenseNumber == "" {
		return nil, fmt.Errorf("%w: license number is required", infrastructure.ErrValidation)
	}
	if input.Specialization == "" {
		return nil, fmt.Errorf("%w: specialization is required", infrastructure.ErrValidation)
	}
	if input.YearsExperience < 0 {
		return nil, fmt.Errorf("%w: years of experience cannot be negative", infrastructure.ErrValidation)
	}

	var existing database.TherapistProfile
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&existing).Error
	if err == nil {
		return nil, ErrProfileExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing profile: %w", err)
	}

	err = s.db.WithContext(ctx).Where("license_number = ?", input.LicenseNumber).First(&existing).Error
	if err == nil {
		return nil, ErrLicenseInUse
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check license number: %w", err)
	}

	profile := &database.TherapistProfile{
		UserID:          userID,
		LicenseNumber:   input.LicenseNumber,
		Specialization:  input.Specialization,
		Bio:             input.Bio,
		YearsExperience: input.YearsExperience,
		Availability:    input.Availability,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(profile).Error; err != nil {
			return err
		}
		result := tx.Model(&database.User{}).
			Where("id = ?", userID).
			Update("role", database.RoleTherapist)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return infrastructure.ErrUserNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, infrastructure.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to register therapist: %w", err)
	}
	return profile, nil
}

// Listing is a directory row: the profile plus the therapist's display
// name pulled from the users table.
type Listing struct {
	database.TherapistProfile
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// List returns verified therapists, optionally narrowed to a
// specialization. Passing verified=false surfaces pending profiles,
// which the admin review screen uses.
func (s *Service) List(ctx context.Context, specialization string, verified bool) ([]Listing, error) {
	query := s.db.WithContext(ctx).
		Model(&database.TherapistProfile{}).
		Select("therapist_profiles.*, users.first_name, users.last_name").
		Joins("JOIN users ON users.id = therapist_profiles.user_id").
		Where("therapist_profiles.is_verified = ?", verified).
		Order("therapist_profiles.years_experience DESC")
	if specialization != "" {
		query = query.Where("therapist_profiles.specialization = ?", specialization)
	}

	var listings []Listing
	if err := query.Scan(&listings).Error; err != nil {
		return nil, fmt.Errorf("failed to list therapists: %w", err)
	}
	return listings, nil
}

func (s *Service) Get(ctx context.Context, profileID uint) (*Listing, error) {
	var listing Listing
	err := s.db.WithContext(ctx).
		Model(&database.TherapistProfile{}).
		Select("therapist_profiles.*, users.first_name, users.last_name").
		Joins("JOIN users ON users.id = therapist_profiles.user_id").
		Where("therapist_profiles.id = ?", profileID).
		Scan(&listing).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load therapist: %w", err)
	}
	if listing.ID == 0 {
		return nil, ErrProfileNotFound
	}
	return &listing, nil
}

// MyProfile returns the therapist profile owned by the user.
func (s *Service) MyProfile(ctx context.Context, userID uint) (*database.TherapistProfile, error) {
	var profile database.TherapistProfile
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load therapist profile: %w", err)
	}
	return &profile, nil
}

type UpdateInput struct {
	Specialization  string `json:"specialization"`
	Bio             string `json:"bio"`
	YearsExperience int    `json:"years_experience"`
	Availability    string `json:"availability"`
}

// Update edits the owner's profile. License number is immutable; a new
// license means a new verification pass, which is out of band.
func (s *Service) Update(ctx context.Context, userID uint, input UpdateInput) (*database.TherapistProfile, error) {
	if input.Specialization == "" {
		return nil, fmt.Errorf("%w: specialization is required", infrastructure.ErrValidation)
	}
	if input.YearsExperience < 0 {
		return nil, fmt.Errorf("%w: years of experience cannot be negative", infrastructure.ErrValidation)
	}

	profile, err := s.MyProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile.Specialization = input.Specialization
	profile.Bio = input.Bio
	profile.YearsExperience = input.YearsExperience
	profile.Availability = input.Availability
	if err := s.db.WithContext(ctx).Save(profile).Error; err != nil {
		return nil, fmt.Errorf("failed to update therapist profile: %w", err)
	}
	return profile, nil
}

// Verify marks a profile's license as checked. The handler restricts
// this to admins.
func (s *Service) Verify(ctx context.Context, profileID uint) error {
	result := s.db.WithContext(ctx).
		Model(&database.TherapistProfile{}).
		Where("id = ?", profileID).
		Update("is_verified", true)
	if result.Error != nil {
		return fmt.Errorf("failed to verify therapist: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrProfileNotFound
	}
	return nil
}
