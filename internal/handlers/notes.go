package handlers

import (
	"net/http"

	"github.com/SebastianInsurriaga/UpTask-Backend/internal/models"
	"github.com/SebastianInsurriaga/UpTask-Backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type NoteHandler struct {
	db             *gorm.DB
	noteService    services.NoteService
	taskService    services.TaskService
	projectService services.ProjectService
	authz          services.AuthorizationService
}

func NewNoteHandler(db *gorm.DB, noteService services.NoteService, taskService services.TaskService, projectService services.ProjectService, authz services.AuthorizationService) *NoteHandler {
	return &NoteHandler{
		db:             db,
		noteService:    noteService,
		taskService:    taskService,
		projectService: projectService,
		authz:          authz,
	}
}

func (h *NoteHandler) resolveTask(c *gin.Context) (*projectScope, *models.Task, bool) {
	scope, ok := resolveProject(c, h.db, h.projectService, h.authz)
	if !ok {
		return nil, nil, false
	}
	taskID, ok := pathUUID(c, "taskId")
	if !ok {
		return nil, nil, false
	}
	task, err := h.taskService.GetTask(h.db, scope.project.ID, taskID)
	if err != nil {
		respondError(c, err)
		return nil, nil, false
	}
	return scope, task, true
}

// CreateNote attaches a note to the task. Any project member may comment.
// POST /api/v1/projects/:projectId/tasks/:taskId/notes
func (h *NoteHandler) CreateNote(c *gin.Context) {
	_, task, ok := h.resolveTask(c)
	if !ok {
		return
	}
	caller, _ := callerID(c)

	var req struct {
		Content string `json:"content" binding:"required,min=1,max=5000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	note, err := h.noteService.CreateNote(h.db, task, caller, req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, note)
}

// ListNotes returns the task's notes in creation order.
// GET /api/v1/projects/:projectId/tasks/:taskId/notes
func (h *NoteHandler) ListNotes(c *gin.Context) {
	_, task, ok := h.resolveTask(c)
	if !ok {
		return
	}

	notes, err := h.noteService.ListNotes(h.db, task.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, notes)
}

// DeleteNote removes a note; only its author may do so.
// DELETE /api/v1/projects/:projectId/tasks/:taskId/notes/:noteId
func (h *NoteHandler) DeleteNote(c *gin.Context) {
	_, task, ok := h.resolveTask(c)
	if !ok {
		return
	}
	caller, _ := callerID(c)
	noteID, ok := pathUUID(c, "noteId")
	if !ok {
		return
	}

	if err := h.noteService.DeleteNote(h.db, task, noteID, caller); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "note deleted"})
}
