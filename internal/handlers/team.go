package handlers

import (
	"net/http"

	"github.com/SebastianInsurriaga/UpTask-Backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// TeamHandler manages the project roster. All roster mutations require the
// manager role; the resolve step already guarantees membership.
type TeamHandler struct {
	db                *gorm.DB
	membershipService services.MembershipService
	projectService    services.ProjectService
	authz             services.AuthorizationService
}

func NewTeamHandler(db *gorm.DB, membershipService services.MembershipService, projectService services.ProjectService, authz services.AuthorizationService) *TeamHandler {
	return &TeamHandler{
		db:                db,
		membershipService: membershipService,
		projectService:    projectService,
		authz:             authz,
	}
}

// FindMember looks up a user by email as a candidate for the team.
// POST /api/v1/projects/:projectId/team/find
func (h *TeamHandler) FindMember(c *gin.Context) {
	scope, ok := resolveProject(c, h.db, h.projectService, h.authz)
	if !ok {
		return
	}
	caller, _ := callerID(c)

	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authz.AuthorizeMutation(scope.memberships, caller); err != nil {
		respondError(c, err)
		return
	}

	user, err := h.membershipService.FindCandidate(h.db, req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user.Profile())
}

// AddMember attaches a user as collaborator. Managers only.
// POST /api/v1/projects/:projectId/team
func (h *TeamHandler) AddMember(c *gin.Context) {
	scope, ok := resolveProject(c, h.db, h.projectService, h.authz)
	if !ok {
		return
	}
	caller, _ := callerID(c)

	var req struct {
		ID string `json:"id" binding:"required,uuid"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authz.AuthorizeMutation(scope.memberships, caller); err != nil {
		respondError(c, err)
		return
	}

	userID, err := uuid.FromString(req.ID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	candidate, err := h.membershipService.FindCandidateByID(h.db, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.membershipService.AddMember(h.db, scope.project, candidate.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "member added to the project"})
}

// RemoveMember detaches a collaborator. Managers cannot be removed this way.
// DELETE /api/v1/projects/:projectId/team/:userId
func (h *TeamHandler) RemoveMember(c *gin.Context) {
	scope, ok := resolveProject(c, h.db, h.projectService, h.authz)
	if !ok {
		return
	}
	caller, _ := callerID(c)
	userID, ok := pathUUID(c, "userId")
	if !ok {
		return
	}

	if err := h.authz.AuthorizeMutation(scope.memberships, caller); err != nil {
		respondError(c, err)
		return
	}

	if err := h.membershipService.RemoveMember(h.db, scope.project, userID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "member removed from the project"})
}

// ListTeam returns the roster grouped by role, excluding the caller.
// GET /api/v1/projects/:projectId/team
func (h *TeamHandler) ListTeam(c *gin.Context) {
	scope, ok := resolveProject(c, h.db, h.projectService, h.authz)
	if !ok {
		return
	}
	caller, _ := callerID(c)

	roster, err := h.membershipService.ListTeam(h.db, scope.project, caller)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, roster)
}
