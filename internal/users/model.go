package users

import (
	"time"

	"github.com/angelmondragon/foodorder-backend/pkg/enums"
	"github.com/google/uuid"
)

// User is the credentials row. Profile data lives in the record store.
type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Email        string         `gorm:"not null;uniqueIndex"`
	PasswordHash string         `gorm:"not null"`
	Role         enums.UserRole `gorm:"type:varchar(32);not null;default:customer"`
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (User) TableName() string { return "users" }

// UserDTO is the transport shape without credentials.
type UserDTO struct {
	ID          uuid.UUID      `json:"id"`
	Email       string         `json:"email"`
	Role        enums.UserRole `json:"role"`
	LastLoginAt *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

func FromModel(u *User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		Role:        u.Role,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}
