package services

import (
	"errors"
	"strings"

	"github.com/SebastianInsurriaga/UpTask-Backend/internal/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// TeamRoster is the projection returned by ListTeam. Lists never contain the
// caller and never expose credential fields.
type TeamRoster struct {
	Managers      []models.UserProfile `json:"managers"`
	Collaborators []models.UserProfile `json:"collaborators"`
}

type MembershipService interface {
	FindCandidate(db *gorm.DB, email string) (*models.User, error)
	FindCandidateByID(db *gorm.DB, userID uuid.UUID) (*models.User, error)
	AddMember(db *gorm.DB, project *models.Project, userID uuid.UUID) error
	RemoveMember(db *gorm.DB, project *models.Project, userID uuid.UUID) error
	ListTeam(db *gorm.DB, project *models.Project, callerID uuid.UUID) (*TeamRoster, error)
}

type MembershipServiceImpl struct{}

func NewMembershipService() *MembershipServiceImpl {
	return &MembershipServiceImpl{}
}

// FindCandidate looks a user up by email, case-insensitively.
func (s *MembershipServiceImpl) FindCandidate(db *gorm.DB, email string) (*models.User, error) {
	var user models.User
	normalized := strings.TrimSpace(strings.ToLower(email))
	err := db.Where("LOWER(email) = ?", normalized).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindCandidateByID resolves a user by id, for the add-member flow where the
// frontend already holds the id from a previous FindCandidate call.
func (s *MembershipServiceImpl) FindCandidateByID(db *gorm.DB, userID uuid.UUID) (*models.User, error) {
	var user models.User
	err := db.Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// AddMember appends the user to the project team as a collaborator. The user
// must not already hold any role on the project, manager included. Because a
// single memberships row represents either role, the (project_id, user_id)
// unique index makes the check-then-insert safe under concurrent calls: the
// loser of a race surfaces as ErrAlreadyMember instead of a duplicate row.
func (s *MembershipServiceImpl) AddMember(db *gorm.DB, project *models.Project, userID uuid.UUID) error {
	var count int64
	if err := db.Model(&models.Membership{}).
		Where("project_id = ? AND user_id = ?", project.ID, userID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrAlreadyMember
	}

	m := models.Membership{
		ProjectID: project.ID,
		UserID:    userID,
		Role:      models.RoleCollaborator,
	}
	if err := db.Create(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyMember
		}
		return err
	}
	return nil
}

// RemoveMember detaches a collaborator from the project. Managers cannot be
// removed through this path; attempting to fails with ErrNotAMember, the same
// answer as for a user with no role at all.
func (s *MembershipServiceImpl) RemoveMember(db *gorm.DB, project *models.Project, userID uuid.UUID) error {
	result := db.Where("project_id = ? AND user_id = ? AND role = ?",
		project.ID, userID, models.RoleCollaborator).
		Delete(&models.Membership{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotAMember
	}
	return nil
}

// ListTeam returns the roster grouped by role, excluding the caller from both
// lists. Callers see only the rest of the team, not themselves.
func (s *MembershipServiceImpl) ListTeam(db *gorm.DB, project *models.Project, callerID uuid.UUID) (*TeamRoster, error) {
	var memberships []models.Membership
	if err := db.Where("project_id = ? AND user_id <> ?", project.ID, callerID).
		Find(&memberships).Error; err != nil {
		return nil, err
	}

	roster := &TeamRoster{
		Managers:      []models.UserProfile{},
		Collaborators: []models.UserProfile{},
	}
	if len(memberships) == 0 {
		return roster, nil
	}

	ids := make([]uuid.UUID, 0, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.UserID)
	}

	var users []models.User
	if err := db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	for _, m := range memberships {
		u, ok := byID[m.UserID]
		if !ok {
			continue
		}
		switch m.Role {
		case models.RoleManager:
			roster.Managers = append(roster.Managers, u.Profile())
		case models.RoleCollaborator:
			roster.Collaborators = append(roster.Collaborators, u.Profile())
		}
	}
	return roster, nil
}
