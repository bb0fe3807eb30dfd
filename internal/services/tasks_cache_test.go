package services

import (
	"testing"
	"time"

	"github.com/SebastianInsurriaga/UpTask-Backend/internal/cache"
	"github.com/SebastianInsurriaga/UpTask-Backend/internal/models"
)

func TestCachedTaskService_ListAndInvalidate(t *testing.T) {
	db := testDB(t)
	manager := createUser(t, db, "manager@example.com", true)
	project := createProjectWithManager(t, db, manager)
	memberships := loadMemberships(t, db, project.ID)

	mem := cache.NewMemoryCache()
	defer mem.Close()
	svc := NewCachedTaskService(NewTaskService(NewAuthorizationService()), mem, time.Minute, testLogger())

	task, err := svc.CreateTask(db, project, memberships, manager.ID, "First", "")
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	tasks, err := svc.ListTasks(db, project.ID)
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}

	// Second read is served from the cache: mutate the row behind the
	// service's back and the stale listing comes back unchanged.
	db.Model(&models.Task{}).Where("id = ?", task.ID).Update("name", "changed directly")
	tasks, _ = svc.ListTasks(db, project.ID)
	if tasks[0].Name != "First" {
		t.Errorf("expected cached listing, got %q", tasks[0].Name)
	}

	// A mutation through the service invalidates the project's entries.
	if err := svc.UpdateTask(db, memberships, manager.ID, task, "Renamed", ""); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	tasks, _ = svc.ListTasks(db, project.ID)
	if tasks[0].Name != "Renamed" {
		t.Errorf("expected fresh listing after mutation, got %q", tasks[0].Name)
	}
}

func TestCachedTaskService_StatusUpdateInvalidates(t *testing.T) {
	db := testDB(t)
	manager := createUser(t, db, "manager@example.com", true)
	project := createProjectWithManager(t, db, manager)
	memberships := loadMemberships(t, db, project.ID)

	mem := cache.NewMemoryCache()
	defer mem.Close()
	svc := NewCachedTaskService(NewTaskService(NewAuthorizationService()), mem, time.Minute, testLogger())

	task, _ := svc.CreateTask(db, project, memberships, manager.ID, "T", "")
	if _, err := svc.ListTasks(db, project.ID); err != nil {
		t.Fatalf("warm listing: %v", err)
	}

	if err := svc.UpdateStatus(db, memberships, manager.ID, task, models.StatusCompleted); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	tasks, _ := svc.ListTasks(db, project.ID)
	if tasks[0].Status != models.StatusCompleted {
		t.Errorf("listing must reflect the status change, got %s", tasks[0].Status)
	}
}
