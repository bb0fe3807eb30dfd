package handlers

import (
	"net/http"

	"github.com/SebastianInsurriaga/UpTask-Backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type UserHandler struct {
	db          *gorm.DB
	userService services.UserService
	authService services.AuthService
}

func NewUserHandler(db *gorm.DB, userService services.UserService, authService services.AuthService) *UserHandler {
	return &UserHandler{db: db, userService: userService, authService: authService}
}

// Profile returns the authenticated user's profile.
// GET /api/v1/auth/user
func (h *UserHandler) Profile(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}

	user, err := h.userService.GetUser(h.db, caller)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user.Profile())
}

// UpdateProfile changes the caller's name and email.
// PUT /api/v1/profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}

	var req struct {
		Name  string `json:"name" binding:"required,min=1,max=100"`
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.GetUser(h.db, caller)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.userService.UpdateProfile(h.db, user, req.Name, req.Email); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user.Profile())
}

// ChangePassword updates the caller's password after verifying the current
// one.
// POST /api/v1/profile/change-password
func (h *UserHandler) ChangePassword(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}

	var req struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		Password        string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.GetUser(h.db, caller)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.authService.ChangePassword(h.db, user, req.CurrentPassword, req.Password); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}
