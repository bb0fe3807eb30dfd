package services

import (
	"errors"
	"time"

	"github.com/SebastianInsurriaga/UpTask-Backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// TaskService owns the task workflow. Create/update/delete are manager
// operations; moving a task through the status workflow is open to every
// project member, which is intentionally broader than edit rights.
type TaskService interface {
	CreateTask(db *gorm.DB, project *models.Project, memberships []models.Membership, actorID uuid.UUID, name, description string) (*models.Task, error)
	ListTasks(db *gorm.DB, projectID uuid.UUID) ([]models.Task, error)
	GetTask(db *gorm.DB, projectID, taskID uuid.UUID) (*models.Task, error)
	UpdateTask(db *gorm.DB, memberships []models.Membership, actorID uuid.UUID, task *models.Task, name, description string) error
	UpdateStatus(db *gorm.DB, memberships []models.Membership, actorID uuid.UUID, task *models.Task, newStatus models.TaskStatus) error
	DeleteTask(db *gorm.DB, memberships []models.Membership, actorID uuid.UUID, task *models.Task) error
	GetHistory(db *gorm.DB, taskID uuid.UUID) ([]models.StatusChange, error)
}

type TaskServiceImpl struct {
	authz AuthorizationService
}

func NewTaskService(authz AuthorizationService) *TaskServiceImpl {
	return &TaskServiceImpl{authz: authz}
}

func (s *TaskServiceImpl) CreateTask(db *gorm.DB, project *models.Project, memberships []models.Membership, actorID uuid.UUID, name, description string) (*models.Task, error) {
	if err := s.authz.AuthorizeMutation(memberships, actorID); err != nil {
		return nil, err
	}

	task := models.Task{
		ID:          uuid.Must(uuid.NewV4()),
		ProjectID:   project.ID,
		Name:        name,
		Description: description,
		Status:      models.StatusPending,
	}
	if err := db.Create(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *TaskServiceImpl) ListTasks(db *gorm.DB, projectID uuid.UUID) ([]models.Task, error) {
	tasks := []models.Task{}
	err := db.Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&tasks).Error
	return tasks, err
}

// GetTask resolves a task scoped to its project. Task ids arrive through the
// routing layer independently of project ids, so the project_id predicate is
// mandatory: a task fetched through the wrong project is ErrNotFound, never a
// silent match.
func (s *TaskServiceImpl) GetTask(db *gorm.DB, projectID, taskID uuid.UUID) (*models.Task, error) {
	var task models.Task
	err := db.Where("id = ? AND project_id = ?", taskID, projectID).First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask edits name and description. It never touches status; the status
// workflow is UpdateStatus's job.
func (s *TaskServiceImpl) UpdateTask(db *gorm.DB, memberships []models.Membership, actorID uuid.UUID, task *models.Task, name, description string) error {
	if err := s.authz.AuthorizeMutation(memberships, actorID); err != nil {
		return err
	}

	task.Name = name
	task.Description = description
	task.UpdatedAt = time.Now()
	return db.Save(task).Error
}

// UpdateStatus moves the task to newStatus and appends exactly one history
// row recording the transition and its actor. Any member may call it, and any
// valid status is accepted from any state, including the current one; a
// same-state update is still logged.
func (s *TaskServiceImpl) UpdateStatus(db *gorm.DB, memberships []models.Membership, actorID uuid.UUID, task *models.Task, newStatus models.TaskStatus) error {
	if !s.authz.IsMember(memberships, actorID) {
		return ErrForbidden
	}
	if !newStatus.Valid() {
		return ErrInvalidStatus
	}

	return db.Transaction(func(tx *gorm.DB) error {
		change := models.StatusChange{
			TaskID:     task.ID,
			FromStatus: task.Status,
			ToStatus:   newStatus,
			ActorID:    actorID,
		}
		if err := tx.Create(&change).Error; err != nil {
			return err
		}

		task.Status = newStatus
		task.UpdatedAt = time.Now()
		return tx.Save(task).Error
	})
}

// DeleteTask removes the task together with its notes and status history, in
// one transaction.
func (s *TaskServiceImpl) DeleteTask(db *gorm.DB, memberships []models.Membership, actorID uuid.UUID, task *models.Task) error {
	if err := s.authz.AuthorizeMutation(memberships, actorID); err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", task.ID).Delete(&models.Note{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", task.ID).Delete(&models.StatusChange{}).Error; err != nil {
			return err
		}
		return tx.Delete(task).Error
	})
}

func (s *TaskServiceImpl) GetHistory(db *gorm.DB, taskID uuid.UUID) ([]models.StatusChange, error) {
	history := []models.StatusChange{}
	err := db.Where("task_id = ?", taskID).
		Order("id ASC").
		Find(&history).Error
	return history, err
}
