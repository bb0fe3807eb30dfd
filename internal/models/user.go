package models

import (
	"time"

	"github.com/gofrs/uuid"
)

type User struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	Name      string    `json:"name" gorm:"not null"`
	Password  string    `json:"-" gorm:"not null"`
	Confirmed bool      `json:"confirmed" gorm:"not null;default:false"`

	// One-time token shared by the account-confirmation and password-reset
	// flows. Cleared on consumption.
	Token          string     `json:"-" gorm:"index"`
	TokenExpiresAt *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserProfile is the projection exposed in team rosters and profile
// responses. Credential fields are never serialized.
type UserProfile struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

func (u *User) Profile() UserProfile {
	return UserProfile{ID: u.ID, Name: u.Name, Email: u.Email}
}
