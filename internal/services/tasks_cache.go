package services

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SebastianInsurriaga/UpTask-Backend/internal/cache"
	"github.com/SebastianInsurriaga/UpTask-Backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// CachedTaskService decorates a TaskService with caching for the read paths.
// Listings dominate board views, so they are cached per project; every
// mutation invalidates the project's entries.
type CachedTaskService struct {
	inner  TaskService
	cache  cache.Cache
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedTaskService(inner TaskService, c cache.Cache, ttl time.Duration, logger *slog.Logger) *CachedTaskService {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &CachedTaskService{inner: inner, cache: c, ttl: ttl, logger: logger}
}

func taskListKey(projectID uuid.UUID) string {
	return fmt.Sprintf("tasks:project:%s:list", projectID)
}

func taskKey(projectID, taskID uuid.UUID) string {
	return fmt.Sprintf("tasks:project:%s:task:%s", projectID, taskID)
}

func (s *CachedTaskService) projectPattern(projectID uuid.UUID) string {
	return fmt.Sprintf("tasks:project:%s:*", projectID)
}

func (s *CachedTaskService) invalidate(projectID uuid.UUID) {
	if err := s.cache.DeletePattern(s.projectPattern(projectID)); err != nil {
		s.logger.Warn("task cache invalidation failed",
			"project_id", projectID, "error", err)
	}
}

func (s *CachedTaskService) CreateTask(db *gorm.DB, project *models.Project, memberships []models.Membership, actorID uuid.UUID, name, description string) (*models.Task, error) {
	task, err := s.inner.CreateTask(db, project, memberships, actorID, name, description)
	if err == nil {
		s.invalidate(project.ID)
	}
	return task, err
}

func (s *CachedTaskService) ListTasks(db *gorm.DB, projectID uuid.UUID) ([]models.Task, error) {
	var cached []models.Task
	err := s.cache.Get(taskListKey(projectID), &cached)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("task list cache read failed", "project_id", projectID, "error", err)
	}

	tasks, err := s.inner.ListTasks(db, projectID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(taskListKey(projectID), tasks, s.ttl); err != nil {
		s.logger.Warn("task list cache write failed", "project_id", projectID, "error", err)
	}
	return tasks, nil
}

func (s *CachedTaskService) GetTask(db *gorm.DB, projectID, taskID uuid.UUID) (*models.Task, error) {
	var cached models.Task
	if err := s.cache.Get(taskKey(projectID, taskID), &cached); err == nil {
		return &cached, nil
	}

	task, err := s.inner.GetTask(db, projectID, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(taskKey(projectID, taskID), task, s.ttl); err != nil {
		s.logger.Warn("task cache write failed", "task_id", taskID, "error", err)
	}
	return task, nil
}

func (s *CachedTaskService) UpdateTask(db *gorm.DB, memberships []models.Membership, actorID uuid.UUID, task *models.Task, name, description string) error {
	err := s.inner.UpdateTask(db, memberships, actorID, task, name, description)
	if err == nil {
		s.invalidate(task.ProjectID)
	}
	return err
}

func (s *CachedTaskService) UpdateStatus(db *gorm.DB, memberships []models.Membership, actorID uuid.UUID, task *models.Task, newStatus models.TaskStatus) error {
	err := s.inner.UpdateStatus(db, memberships, actorID, task, newStatus)
	if err == nil {
		s.invalidate(task.ProjectID)
	}
	return err
}

func (s *CachedTaskService) DeleteTask(db *gorm.DB, memberships []models.Membership, actorID uuid.UUID, task *models.Task) error {
	err := s.inner.DeleteTask(db, memberships, actorID, task)
	if err == nil {
		s.invalidate(task.ProjectID)
	}
	return err
}

// GetHistory is intentionally uncached: history reads are rare and must show
// a just-recorded transition immediately.
func (s *CachedTaskService) GetHistory(db *gorm.DB, taskID uuid.UUID) ([]models.StatusChange, error) {
	return s.inner.GetHistory(db, taskID)
}
