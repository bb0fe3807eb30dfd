package services

import (
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/SebastianInsurriaga/UpTask-Backend/internal/models"
	"github.com/SebastianInsurriaga/UpTask-Backend/internal/notify"

	"github.com/gofrs/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()

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
	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mailerStub records dispatched messages instead of sending them.
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

func createUser(t *testing.T, db *gorm.DB, email string, confirmed bool) *models.User {
	t.Helper()

	user := models.User{
		ID:        uuid.Must(uuid.NewV4()),
		Email:     email,
		Name:      "Test User",
		Password:  "$2a$10$invalidhashforseedingonly0000000000000000000000000000",
		Confirmed: confirmed,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return &user
}

func createProjectWithManager(t *testing.T, db *gorm.DB, manager *models.User) *models.Project {
	t.Helper()

	project, err := NewProjectService().CreateProject(db, manager.ID, "API rewrite", "move the legacy API over")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	return project
}

func addCollaborator(t *testing.T, db *gorm.DB, project *models.Project, user *models.User) {
	t.Helper()

	if err := NewMembershipService().AddMember(db, project, user.ID); err != nil {
		t.Fatalf("add collaborator: %v", err)
	}
}

func loadMemberships(t *testing.T, db *gorm.DB, projectID uuid.UUID) []models.Membership {
	t.Helper()

	memberships, err := NewAuthorizationService().LoadMemberships(db, projectID)
	if err != nil {
		t.Fatalf("load memberships: %v", err)
	}
	return memberships
}
