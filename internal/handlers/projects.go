package handlers

import (
	"net/http"

	"github.com/SebastianInsurriaga/UpTask-Backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ProjectHandler struct {
	db             *gorm.DB
	projectService services.ProjectService
	authz          services.AuthorizationService
}

func NewProjectHandler(db *gorm.DB, projectService services.ProjectService, authz services.AuthorizationService) *ProjectHandler {
	return &ProjectHandler{db: db, projectService: projectService, authz: authz}
}

type projectInput struct {
	Name        string `json:"name" binding:"required,min=1,max=200"`
	Description string `json:"description" binding:"max=2000"`
}

// CreateProject creates a project with the caller as its manager.
// POST /api/v1/projects
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}

	var req projectInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := h.projectService.CreateProject(h.db, caller, req.Name, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

// ListProjects returns every project the caller belongs to, either role.
// GET /api/v1/projects
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}

	projects, err := h.projectService.ListProjects(h.db, caller)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

// GetProject returns one project, visible to members only.
// GET /api/v1/projects/:projectId
func (h *ProjectHandler) GetProject(c *gin.Context) {
	scope, ok := resolveProject(c, h.db, h.projectService, h.authz)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, scope.project)
}

// UpdateProject edits name and description. Managers only.
// PUT /api/v1/projects/:projectId
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	scope, ok := resolveProject(c, h.db, h.projectService, h.authz)
	if !ok {
		return
	}
	caller, _ := callerID(c)

	var req projectInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authz.AuthorizeMutation(scope.memberships, caller); err != nil {
		respondError(c, err)
		return
	}

	if err := h.projectService.UpdateProject(h.db, scope.project, req.Name, req.Description); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, scope.project)
}

// DeleteProject removes the project and everything under it. Managers only.
// DELETE /api/v1/projects/:projectId
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	scope, ok := resolveProject(c, h.db, h.projectService, h.authz)
	if !ok {
		return
	}
	caller, _ := callerID(c)

	if err := h.authz.AuthorizeMutation(scope.memberships, caller); err != nil {
		respondError(c, err)
		return
	}

	if err := h.projectService.DeleteProject(h.db, scope.project); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "project deleted"})
}
