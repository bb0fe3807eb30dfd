package services

import (
	"errors"

	"github.com/SebastianInsurriaga/UpTask-Backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type NoteService interface {
	CreateNote(db *gorm.DB, task *models.Task, authorID uuid.UUID, content string) (*models.Note, error)
	ListNotes(db *gorm.DB, taskID uuid.UUID) ([]models.Note, error)
	DeleteNote(db *gorm.DB, task *models.Task, noteID, actorID uuid.UUID) error
}

type NoteServiceImpl struct{}

func NewNoteService() *NoteServiceImpl {
	return &NoteServiceImpl{}
}

func (s *NoteServiceImpl) CreateNote(db *gorm.DB, task *models.Task, authorID uuid.UUID, content string) (*models.Note, error) {
	note := models.Note{
		ID:       uuid.Must(uuid.NewV4()),
		TaskID:   task.ID,
		AuthorID: authorID,
		Content:  content,
	}
	if err := db.Create(&note).Error; err != nil {
		return nil, err
	}
	return &note, nil
}

func (s *NoteServiceImpl) ListNotes(db *gorm.DB, taskID uuid.UUID) ([]models.Note, error) {
	notes := []models.Note{}
	err := db.Where("task_id = ?", taskID).Order("created_at ASC").Find(&notes).Error
	return notes, err
}

// DeleteNote removes a note. Only its author may do so; managers get the same
// ErrForbidden as anyone else.
func (s *NoteServiceImpl) DeleteNote(db *gorm.DB, task *models.Task, noteID, actorID uuid.UUID) error {
	var note models.Note
	err := db.Where("id = ? AND task_id = ?", noteID, task.ID).First(&note).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if note.AuthorID != actorID {
		return ErrForbidden
	}
	return db.Delete(&note).Error
}
