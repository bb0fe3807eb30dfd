package handlers

import (
	"net/http"

	"github.com/SebastianInsurriaga/UpTask-Backend/internal/models"
	"github.com/SebastianInsurriaga/UpTask-Backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type TaskHandler struct {
	db             *gorm.DB
	taskService    services.TaskService
	projectService services.ProjectService
	authz          services.AuthorizationService
}

func NewTaskHandler(db *gorm.DB, taskService services.TaskService, projectService services.ProjectService, authz services.AuthorizationService) *TaskHandler {
	return &TaskHandler{db: db, taskService: taskService, projectService: projectService, authz: authz}
}

type taskInput struct {
	Name        string `json:"name" binding:"required,min=1,max=200"`
	Description string `json:"description" binding:"max=2000"`
}

// resolveTask loads the task named in the route, scoped to the already
// resolved project. A task id belonging to another project is a 404.
func (h *TaskHandler) resolveTask(c *gin.Context, scope *projectScope) (*models.Task, bool) {
	taskID, ok := pathUUID(c, "taskId")
	if !ok {
		return nil, false
	}
	task, err := h.taskService.GetTask(h.db, scope.project.ID, taskID)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return task, true
}

// CreateTask adds a task to the project. Managers only.
// POST /api/v1/projects/:projectId/tasks
func (h *TaskHandler) CreateTask(c *gin.Context) {
	scope, ok := resolveProject(c, h.db, h.projectService, h.authz)
	if !ok {
		return
	}
	caller, _ := callerID(c)

	var req taskInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.taskService.CreateTask(h.db, scope.project, scope.memberships, caller, req.Name, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// ListTasks returns the project's tasks in creation order.
// GET /api/v1/projects/:projectId/tasks
func (h *TaskHandler) ListTasks(c *gin.Context) {
	scope, ok := resolveProject(c, h.db, h.projectService, h.authz)
	if !ok {
		return
	}

	tasks, err := h.taskService.ListTasks(h.db, scope.project.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

// GetTask returns one task with its status history.
// GET /api/v1/projects/:projectId/tasks/:taskId
func (h *TaskHandler) GetTask(c *gin.Context) {
	scope, ok := resolveProject(c, h.db, h.projectService, h.authz)
	if !ok {
		return
	}
	task, ok := h.resolveTask(c, scope)
	if !ok {
		return
	}

	history, err := h.taskService.GetHistory(h.db, task.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"task":    task,
		"history": history,
	})
}

// UpdateTask edits name and description. Managers only; status is untouched.
// PUT /api/v1/projects/:projectId/tasks/:taskId
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	scope, ok := resolveProject(c, h.db, h.projectService, h.authz)
	if !ok {
		return
	}
	task, ok := h.resolveTask(c, scope)
	if !ok {
		return
	}
	caller, _ := callerID(c)

	var req taskInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.taskService.UpdateTask(h.db, scope.memberships, caller, task, req.Name, req.Description); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// UpdateStatus moves the task through the workflow. Any member may do this.
// POST /api/v1/projects/:projectId/tasks/:taskId/status
func (h *TaskHandler) UpdateStatus(c *gin.Context) {
	scope, ok := resolveProject(c, h.db, h.projectService, h.authz)
	if !ok {
		return
	}
	task, ok := h.resolveTask(c, scope)
	if !ok {
		return
	}
	caller, _ := callerID(c)

	var req struct {
		Status models.TaskStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.taskService.UpdateStatus(h.db, scope.memberships, caller, task, req.Status); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// DeleteTask removes the task, its notes and its history. Managers only.
// DELETE /api/v1/projects/:projectId/tasks/:taskId
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	scope, ok := resolveProject(c, h.db, h.projectService, h.authz)
	if !ok {
		return
	}
	task, ok := h.resolveTask(c, scope)
	if !ok {
		return
	}
	caller, _ := callerID(c)

	if err := h.taskService.DeleteTask(h.db, scope.memberships, caller, task); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "task deleted"})
}
