package services

import (
	"errors"
	"strings"

	"github.com/SebastianInsurriaga/UpTask-Backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

type UserService interface {
	GetUser(db *gorm.DB, userID uuid.UUID) (*models.User, error)
	UpdateProfile(db *gorm.DB, user *models.User, name, email string) error
}

type UserServiceImpl struct{}

func NewUserService() *UserServiceImpl {
	return &UserServiceImpl{}
}

func (s *UserServiceImpl) GetUser(db *gorm.DB, userID uuid.UUID) (*models.User, error) {
	var user models.User
	err := db.Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile changes name and email. Moving to an email another account
// holds is ErrEmailTaken; keeping your own is fine.
func (s *UserServiceImpl) UpdateProfile(db *gorm.DB, user *models.User, name, email string) error {
	normalized := strings.TrimSpace(strings.ToLower(email))

	var count int64
	if err := db.Model(&models.User{}).
		Where("LOWER(email) = ? AND id <> ?", normalized, user.ID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrEmailTaken
	}

	user.Name = strings.TrimSpace(name)
	user.Email = normalized
	if err := db.Save(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}
