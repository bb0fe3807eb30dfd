package models

import (
	"time"

	"github.com/gofrs/uuid"
)

type TaskStatus string

const (
	StatusPending     TaskStatus = "pending"
	StatusOnHold      TaskStatus = "onHold"
	StatusInProgress  TaskStatus = "inProgress"
	StatusUnderReview TaskStatus = "underReview"
	StatusCompleted   TaskStatus = "completed"
)

// TaskStatuses lists every valid status. The workflow allows any-to-any
// transitions, so validity of a target status is membership in this set.
var TaskStatuses = []TaskStatus{
	StatusPending,
	StatusOnHold,
	StatusInProgress,
	StatusUnderReview,
	StatusCompleted,
}

func (s TaskStatus) Valid() bool {
	for _, v := range TaskStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type Task struct {
	ID          uuid.UUID  `json:"id" gorm:"primaryKey;type:uuid"`
	ProjectID   uuid.UUID  `json:"project_id" gorm:"type:uuid;index;not null"`
	Name        string     `json:"name" gorm:"not null"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status" gorm:"size:20;not null;default:'pending'"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// StatusChange is an append-only history row. One row is written per status
// update, including same-state updates.
type StatusChange struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	TaskID     uuid.UUID  `json:"task_id" gorm:"type:uuid;index;not null"`
	FromStatus TaskStatus `json:"from_status" gorm:"size:20;not null"`
	ToStatus   TaskStatus `json:"to_status" gorm:"size:20;not null"`
	ActorID    uuid.UUID  `json:"actor_id" gorm:"type:uuid;not null"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (StatusChange) TableName() string { return "status_changes" }
