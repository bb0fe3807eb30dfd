package services

import (
	"github.com/SebastianInsurriaga/UpTask-Backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// AuthorizationService evaluates project access for an authenticated user.
// The predicates are pure: they operate over membership rows already loaded
// for the project and never touch the store themselves.
type AuthorizationService interface {
	IsManager(memberships []models.Membership, userID uuid.UUID) bool
	IsMember(memberships []models.Membership, userID uuid.UUID) bool

	// AuthorizeMutation gates project update/delete, task create/update/delete
	// and roster changes. Fails with ErrForbidden unless the user is a manager.
	AuthorizeMutation(memberships []models.Membership, userID uuid.UUID) error

	// LoadMemberships fetches the roster rows for a project, in one round trip,
	// for the predicates above.
	LoadMemberships(db *gorm.DB, projectID uuid.UUID) ([]models.Membership, error)
}

type AuthorizationServiceImpl struct{}

func NewAuthorizationService() *AuthorizationServiceImpl {
	return &AuthorizationServiceImpl{}
}

func (s *AuthorizationServiceImpl) IsManager(memberships []models.Membership, userID uuid.UUID) bool {
	for _, m := range memberships {
		if m.UserID == userID && m.Role == models.RoleManager {
			return true
		}
	}
	return false
}

func (s *AuthorizationServiceImpl) IsMember(memberships []models.Membership, userID uuid.UUID) bool {
	for _, m := range memberships {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

func (s *AuthorizationServiceImpl) AuthorizeMutation(memberships []models.Membership, userID uuid.UUID) error {
	if !s.IsManager(memberships, userID) {
		return ErrForbidden
	}
	return nil
}

func (s *AuthorizationServiceImpl) LoadMemberships(db *gorm.DB, projectID uuid.UUID) ([]models.Membership, error) {
	var memberships []models.Membership
	if err := db.Where("project_id = ?", projectID).Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}
