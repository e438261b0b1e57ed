package database

import "time"

const (
	RoleUser      = "user"
	RoleTherapist = "therapist"
	RoleAdmin     = "admin"
)

type User struct {
	ID               uint   `gorm:"primaryKey"`
	Email            string `gorm:"uniqueIndex;not null"`
	PasswordHash     string `gorm:"not null"`
	FirstName        string `gorm:"not null"`
	LastName         string `gorm:"not null"`
	Role             string `gorm:"not null;default:user"`
	ProfilePicture   string
	IsVerified       bool `gorm:"not null;default:false"`
	VerificationCode string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type TherapistProfile struct {
	ID              uint   `gorm:"primaryKey"`
	UserID          uint   `gorm:"uniqueIndex;not null"`
	LicenseNumber   string `gorm:"uniqueIndex;not null"`
	Specialization  string `gorm:"index;not null"`
	Bio             string
	YearsExperience int
	Availability    string
	IsVerified      bool `gorm:"not null;default:false"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type ChatRoom struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"not null"`
	Description string
	IsActive    bool `gorm:"not null;default:true"`
	CreatedBy   uint
	CreatedAt   time.Time
}

type ChatRoomMember struct {
	ID         uint `gorm:"primaryKey"`
	ChatRoomID uint `gorm:"index:idx_room_member,unique;not null"`
	UserID     uint `gorm:"index:idx_room_member,unique;not null"`
	JoinedAt   time.Time
}

type Message struct {
	ID         uint   `gorm:"primaryKey"`
	ChatRoomID uint   `gorm:"index;not null"`
	UserID     uint   `gorm:"not null"`
	Content    string `gorm:"not null"`
	IsFlagged  bool   `gorm:"not null;default:false"`
	CreatedAt  time.Time
}

type PrivateMessage struct {
	ID         uint   `gorm:"primaryKey"`
	SenderID   uint   `gorm:"index;not null"`
	ReceiverID uint   `gorm:"index;not null"`
	Content    string `gorm:"not null"`
	IsRead     bool   `gorm:"not null;default:false"`
	CreatedAt  time.Time
}

const (
	AppointmentPending   = "pending"
	AppointmentConfirmed = "confirmed"
	AppointmentCancelled = "cancelled"
)

type Appointment struct {
	ID          uint `gorm:"primaryKey"`
	UserID      uint `gorm:"index;not null"`
	TherapistID uint `gorm:"index;not null"`
	ScheduledAt time.Time
	Status      string `gorm:"not null;default:pending"`
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type AIConversation struct {
	ID             uint   `gorm:"primaryKey"`
	UserID         uint   `gorm:"index;not null"`
	History        string `gorm:"type:text"`
	CrisisDetected bool   `gorm:"not null;default:false"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (AIConversation) TableName() string { return "ai_conversations" }

type Notification struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"index;not null"`
	Kind      string `gorm:"not null"`
	Content   string `gorm:"not null"`
	IsRead    bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
}
