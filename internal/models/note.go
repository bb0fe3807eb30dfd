package models

import (
	"time"

	"github.com/gofrs/uuid"
)

// Note is free-text commentary attached to a task. Only its author may
// delete it.
type Note struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	TaskID    uuid.UUID `json:"task_id" gorm:"type:uuid;index;not null"`
	AuthorID  uuid.UUID `json:"author_id" gorm:"type:uuid;not null"`
	Content   string    `json:"content" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}
