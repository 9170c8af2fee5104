package users

import (
	"time"

	"github.com/angelmondragon/foodorder-backend/internal/recordstore"
)

const usersRoot = "users"

// Profile is the record stored at users/{userId}.
type Profile struct {
	Email        string     `json:"email"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	MobileNumber string     `json:"mobile_number"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// ProfilePath is the record store location of a user's profile.
func ProfilePath(userID string) string {
	return recordstore.Join(usersRoot, userID)
}
