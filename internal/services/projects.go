package services

import (
	"errors"
	"time"

	"github.com/SebastianInsurriaga/UpTask-Backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type ProjectService interface {
	CreateProject(db *gorm.DB, creatorID uuid.UUID, name, description string) (*models.Project, error)
	ListProjects(db *gorm.DB, userID uuid.UUID) ([]models.Project, error)
	GetProject(db *gorm.DB, projectID uuid.UUID) (*models.Project, error)
	UpdateProject(db *gorm.DB, project *models.Project, name, description string) error
	DeleteProject(db *gorm.DB, project *models.Project) error
}

type ProjectServiceImpl struct{}

func NewProjectService() *ProjectServiceImpl {
	return &ProjectServiceImpl{}
}

// CreateProject inserts the project and the creator's manager membership in
// one transaction, so a project is never visible without a manager.
func (s *ProjectServiceImpl) CreateProject(db *gorm.DB, creatorID uuid.UUID, name, description string) (*models.Project, error) {
	project := models.Project{
		ID:          uuid.Must(uuid.NewV4()),
		Name:        name,
		Description: description,
		CreatorID:   creatorID,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}
		membership := models.Membership{
			ProjectID: project.ID,
			UserID:    creatorID,
			Role:      models.RoleManager,
		}
		return tx.Create(&membership).Error
	})
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// ListProjects returns the projects the user belongs to in either role.
func (s *ProjectServiceImpl) ListProjects(db *gorm.DB, userID uuid.UUID) ([]models.Project, error) {
	projects := []models.Project{}
	err := db.
		Joins("JOIN memberships ON memberships.project_id = projects.id").
		Where("memberships.user_id = ?", userID).
		Order("projects.created_at DESC").
		Find(&projects).Error
	return projects, err
}

func (s *ProjectServiceImpl) GetProject(db *gorm.DB, projectID uuid.UUID) (*models.Project, error) {
	var project models.Project
	err := db.Where("id = ?", projectID).First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (s *ProjectServiceImpl) UpdateProject(db *gorm.DB, project *models.Project, name, description string) error {
	project.Name = name
	project.Description = description
	project.UpdatedAt = time.Now()
	return db.Save(project).Error
}

// DeleteProject removes the project and everything under it: notes and status
// history of its tasks, the tasks themselves, and the roster. The cascade runs
// in one transaction, so a failure partway leaves the project intact.
func (s *ProjectServiceImpl) DeleteProject(db *gorm.DB, project *models.Project) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var taskIDs []uuid.UUID
		if err := tx.Model(&models.Task{}).
			Where("project_id = ?", project.ID).
			Pluck("id", &taskIDs).Error; err != nil {
			return err
		}

		if len(taskIDs) > 0 {
			if err := tx.Where("task_id IN ?", taskIDs).Delete(&models.Note{}).Error; err != nil {
				return err
			}
			if err := tx.Where("task_id IN ?", taskIDs).Delete(&models.StatusChange{}).Error; err != nil {
				return err
			}
			if err := tx.Where("project_id = ?", project.ID).Delete(&models.Task{}).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("project_id = ?", project.ID).Delete(&models.Membership{}).Error; err != nil {
			return err
		}
		return tx.Delete(project).Error
	})
}
