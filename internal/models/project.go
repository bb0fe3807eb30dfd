package models

import (
	"time"

	"github.com/gofrs/uuid"
)

type Project struct {
	ID          uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Name        string    `json:"name" gorm:"not null"`
	Description string    `json:"description"`
	CreatorID   uuid.UUID `json:"creator_id" gorm:"type:uuid;not null"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Role string

const (
	RoleManager      Role = "manager"
	RoleCollaborator Role = "collaborator"
)

// Membership maps a user to their single role within a project. The unique
// index over (project_id, user_id) is what guarantees a user never holds two
// roles in the same project, including under concurrent mutation.
type Membership struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ProjectID uuid.UUID `json:"project_id" gorm:"type:uuid;uniqueIndex:idx_project_user;not null"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;uniqueIndex:idx_project_user;not null"`
	Role      Role      `json:"role" gorm:"size:20;not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (Membership) TableName() string { return "memberships" }
