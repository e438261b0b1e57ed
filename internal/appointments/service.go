// Package appointments handles booking sessions between users and
// therapists, with email confirmations on booking and status changes.
package appointments

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"mindbridge/infrastructure"
	"mindbridge/internal/database"
)

var (
	ErrAppointmentNotFound  = errors.New("appointment not found")
	ErrNotTherapist         = errors.New("selected user is not a therapist")
	ErrNotificationNotFound = errors.New("notification not found")
)

// EmailSender is the outbound mail collaborator.
type EmailSender interface {
	SendAppointmentEmail(to, firstName string, scheduledAt time.Time, status string) error
}

type Service struct {
	db    *database.Database
	email EmailSender
}

func NewService(db *database.Database, email EmailSender) *Service {
	return &Service{db: db, email: email}
}

// Book creates a pending appointment with a therapist at a future time.
func (s *Service) Book(ctx context.Context, userID, therapistID uint, scheduledAt time.Time, notes string) (*database.Appointment, error) {
	if !scheduledAt.After(time.Now()) {
		return nil, fmt.Errorf("%w: appointment time must be in the future", infrastructure.ErrValidation)
	}
	if therapistID == userID {
		return nil, fmt.Errorf("%w: cannot book an appointment with yourself", infrastructure.ErrValidation)
	}

	var therapist database.User
	err := s.db.WithContext(ctx).Where("id = ?", therapistID).First(&therapist).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, infrastructure.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up therapist: %w", err)
	}
	if therapist.Role != database.RoleTherapist {
		return nil, ErrNotTherapist
	}

	appointment := &database.Appointment{
		UserID:      userID,
		TherapistID: therapistID,
		ScheduledAt: scheduledAt,
		Status:      database.AppointmentPending,
		Notes:       notes,
	}
	if err := s.db.WithContext(ctx).Create(appointment).Error; err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	s.notify(ctx, userID, appointment)
	return appointment, nil
}

// Confirm moves a pending appointment to confirmed. Only the therapist
// on the appointment may confirm it.
func (s *Service) Confirm(ctx context.Context, appointmentID, therapistID uint) error {
	return s.transition(ctx, appointmentID, therapistID, database.AppointmentConfirmed)
}

// Cancel may be done by either party.
func (s *Service) Cancel(ctx context.Context, appointmentID, requesterID uint) error {
	var appointment database.Appointment
	err := s.db.WithContext(ctx).
		Where("id = ? AND (user_id = ? OR therapist_id = ?)", appointmentID, requesterID, requesterID).
		First(&appointment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrAppointmentNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to look up appointment: %w", err)
	}

	appointment.Status = database.AppointmentCancelled
	if err := s.db.WithContext(ctx).Save(&appointment).Error; err != nil {
		return fmt.Errorf("failed to cancel appointment: %w", err)
	}

	s.notify(ctx, appointment.UserID, &appointment)
	return nil
}

func (s *Service) transition(ctx context.Context, appointmentID, therapistID uint, status string) error {
	var appointment database.Appointment
	err := s.db.WithContext(ctx).
		Where("id = ? AND therapist_id = ?", appointmentID, therapistID).
		First(&appointment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrAppointmentNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to look up appointment: %w", err)
	}

	appointment.Status = status
	if err := s.db.WithContext(ctx).Save(&appointment).Error; err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}

	s.notify(ctx, appointment.UserID, &appointment)
	return nil
}

// List returns appointments where the user is either party.
func (s *Service) List(ctx context.Context, userID uint) ([]database.Appointment, error) {
	var appointments []database.Appointment
	err := s.db.WithContext(ctx).
		Where("user_id = ? OR therapist_id = ?", userID, userID).
		Order("scheduled_at ASC").
		Find(&appointments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

// Notifications returns the user's in-app notifications, newest first.
func (s *Service) Notifications(ctx context.Context, userID uint) ([]database.Notification, error) {
	var notifications []database.Notification
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&notifications).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// MarkNotificationRead acknowledges one notification. Scoped to the
// owner so a user cannot clear someone else's badge.
func (s *Service) MarkNotificationRead(ctx context.Context, notificationID, userID uint) error {
	result := s.db.WithContext(ctx).
		Model(&database.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("is_read", true)
	if result.Error != nil {
		return fmt.Errorf("failed to mark notification read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// MarkAllNotificationsRead clears the user's entire unread set.
func (s *Service) MarkAllNotificationsRead(ctx context.Context, userID uint) error {
	err := s.db.WithContext(ctx).
		Model(&database.Notification{}).
		Where("user_id = ? AND is_read = false", userID).
		Update("is_read", true).Error
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

// UnreadNotificationCount backs the badge counter in clients.
func (s *Service) UnreadNotificationCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&database.Notification{}).
		Where("user_id = ? AND is_read = false", userID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// notify records an in-app notification and emails the booking user
// about the appointment's current status. Both are best effort.
func (s *Service) notify(ctx context.Context, userID uint, appointment *database.Appointment) {
	notification := &database.Notification{
		UserID:  userID,
		Kind:    "appointment",
		Content: fmt.Sprintf("Your appointment on %s is %s", appointment.ScheduledAt.Format(time.RFC1123), appointment.Status),
	}
	if err := s.db.WithContext(ctx).Create(notification).Error; err != nil {
		log.Printf("Failed to record notification for user %d: %v", userID, err)
	}

	var user database.User
	if err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		log.Printf("Failed to load user %d for appointment email: %v", userID, err)
		return
	}
	if err := s.email.SendAppointmentEmail(user.Email, user.FirstName, appointment.ScheduledAt, appointment.Status); err != nil {
		log.Printf("Failed to send appointment email to %s: %v", user.Email, err)
	}
}
