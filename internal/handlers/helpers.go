package handlers

import (
	"net/http"

	"github.com/SebastianInsurriaga/UpTask-Backend/internal/middleware"
	"github.com/SebastianInsurriaga/UpTask-Backend/internal/models"
	"github.com/SebastianInsurriaga/UpTask-Backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// pathUUID parses a UUID route parameter. A malformed id is a 400 before any
// lookup happens; the response is already written when ok is false.
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.FromString(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

// callerID reads the authenticated user set by the auth middleware.
func callerID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return uuid.Nil, false
	}
	return id, true
}

// projectScope is a project plus its roster, resolved once per request for
// the authorization predicates and passed down explicitly.
type projectScope struct {
	project     *models.Project
	memberships []models.Membership
}

// resolveProject loads the project named in the route and verifies the caller
// belongs to it. Non-members get the same 404 as a missing project, so the
// endpoint leaks nothing about which projects exist.
func resolveProject(c *gin.Context, db *gorm.DB, projectSvc services.ProjectService, authz services.AuthorizationService) (*projectScope, bool) {
	caller, ok := callerID(c)
	if !ok {
		return nil, false
	}
	projectID, ok := pathUUID(c, "projectId")
	if !ok {
		return nil, false
	}

	project, err := projectSvc.GetProject(db, projectID)
	if err != nil {
		respondError(c, err)
		return nil, false
	}

	memberships, err := authz.LoadMemberships(db, project.ID)
	if err != nil {
		respondError(c, err)
		return nil, false
	}

	if !authz.IsMember(memberships, caller) {
		respondError(c, services.ErrNotFound)
		return nil, false
	}

	return &projectScope{project: project, memberships: memberships}, true
}
