package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/SebastianInsurriaga/UpTask-Backend/internal/models"
	"github.com/SebastianInsurriaga/UpTask-Backend/internal/notify"
	"github.com/SebastianInsurriaga/UpTask-Backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testUserHeader = "X-Test-User"

// testEnv is a full router over an in-memory database, with the JWT
// middleware swapped for a header-based stand-in so tests can act as any
// user without minting tokens.
type testEnv struct {
	db     *gorm.DB
	router *gin.Engine
	mailer *mailerStub
}

type mailerStub struct {
	mu       sync.Mutex
	messages []notify.Message
}

func (m *mailerStub) Dispatch(msg notify.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

func (m *mailerStub) sent() []notify.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notify.Message(nil), m.messages...)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(testUserHeader)
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		id, err := uuid.FromString(header)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
			return
		}
		c.Set("user_id", id)
		c.Next()
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.Membership{},
		&models.Task{},
		&models.StatusChange{},
		&models.Note{},
		&models.Token{},
	)
	if err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	mailer := &mailerStub{}
	log := testLogger()
	authz := services.NewAuthorizationService()
	projectService := services.NewProjectService()
	taskService := services.NewTaskService(authz)
	authService := services.NewAuthService("test-secret", time.Hour, 24*time.Hour, mailer, log)

	registerHandler := NewRegisterHandler(db, services.NewRegisterService(mailer, log))
	authHandler := NewAuthHandler(db, authService)
	userHandler := NewUserHandler(db, services.NewUserService(), authService)
	projectHandler := NewProjectHandler(db, projectService, authz)
	teamHandler := NewTeamHandler(db, services.NewMembershipService(), projectService, authz)
	taskHandler := NewTaskHandler(db, taskService, projectService, authz)
	noteHandler := NewNoteHandler(db, services.NewNoteService(), taskService, projectService, authz)

	r := gin.New()
	api := r.Group("/api/v1")

	auth := api.Group("/auth")
	auth.POST("/create-account", registerHandler.CreateAccount)
	auth.POST("/confirm-account", registerHandler.ConfirmAccount)
	auth.POST("/request-code", registerHandler.RequestConfirmationCode)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", authHandler.Logout)
	auth.POST("/forgot-password", authHandler.ForgotPassword)
	auth.POST("/validate-token", authHandler.ValidateToken)
	auth.POST("/reset-password/:token", authHandler.ResetPassword)

	protected := api.Group("")
	protected.Use(testAuth())
	protected.GET("/auth/user", userHandler.Profile)
	protected.PUT("/profile", userHandler.UpdateProfile)
	protected.POST("/profile/change-password", userHandler.ChangePassword)

	projects := protected.Group("/projects")
	projects.POST("", projectHandler.CreateProject)
	projects.GET("", projectHandler.ListProjects)
	projects.GET("/:projectId", projectHandler.GetProject)
	projects.PUT("/:projectId", projectHandler.UpdateProject)
	projects.DELETE("/:projectId", projectHandler.DeleteProject)
	projects.POST("/:projectId/team/find", teamHandler.FindMember)
	projects.GET("/:projectId/team", teamHandler.ListTeam)
	projects.POST("/:projectId/team", teamHandler.AddMember)
	projects.DELETE("/:projectId/team/:userId", teamHandler.RemoveMember)
	projects.POST("/:projectId/tasks", taskHandler.CreateTask)
	projects.GET("/:projectId/tasks", taskHandler.ListTasks)
	projects.GET("/:projectId/tasks/:taskId", taskHandler.GetTask)
	projects.PUT("/:projectId/tasks/:taskId", taskHandler.UpdateTask)
	projects.POST("/:projectId/tasks/:taskId/status", taskHandler.UpdateStatus)
	projects.DELETE("/:projectId/tasks/:taskId", taskHandler.DeleteTask)
	projects.POST("/:projectId/tasks/:taskId/notes", noteHandler.CreateNote)
	projects.GET("/:projectId/tasks/:taskId/notes", noteHandler.ListNotes)
	projects.DELETE("/:projectId/tasks/:taskId/notes/:noteId", noteHandler.DeleteNote)

	return &testEnv{db: db, router: r, mailer: mailer}
}

// do performs a request as the given user; a nil user sends no identity.
func (e *testEnv) do(t *testing.T, method, path string, as *models.User, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if as != nil {
		req.Header.Set(testUserHeader, as.ID.String())
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dest); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func (e *testEnv) createUser(t *testing.T, email, password string, confirmed bool) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := models.User{
		ID:        uuid.Must(uuid.NewV4()),
		Email:     email,
		Name:      "Test User",
		Password:  string(hash),
		Confirmed: confirmed,
	}
	if err := e.db.Create(&user).Error; err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return &user
}

func (e *testEnv) createProject(t *testing.T, manager *models.User) *models.Project {
	t.Helper()

	project, err := services.NewProjectService().CreateProject(e.db, manager.ID, "Site relaunch", "")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	return project
}

func (e *testEnv) addCollaborator(t *testing.T, project *models.Project, user *models.User) {
	t.Helper()

	if err := services.NewMembershipService().AddMember(e.db, project, user.ID); err != nil {
		t.Fatalf("add collaborator: %v", err)
	}
}
