package models

import (
	"time"

	"github.com/gofrs/uuid"
)

// Token is a persisted refresh-token record. Refresh and logout look tokens
// up by JTI so revocation is effective server-side.
type Token struct {
	ID           uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	UserID       uuid.UUID `json:"user_id" gorm:"type:uuid;index;not null"`
	JTI          uuid.UUID `json:"jti" gorm:"uniqueIndex"`
	RefreshToken string    `json:"refresh_token" gorm:"type:text"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}
