package services

import (
	"errors"
	"testing"

	"github.com/SebastianInsurriaga/UpTask-Backend/internal/models"
)

func TestCreateTask_ManagerOnly(t *testing.T) {
	db := testDB(t)
	manager := createUser(t, db, "manager@example.com", true)
	collab := createUser(t, db, "collab@example.com", true)
	project := createProjectWithManager(t, db, manager)
	addCollaborator(t, db, project, collab)
	memberships := loadMemberships(t, db, project.ID)

	svc := NewTaskService(NewAuthorizationService())

	task, err := svc.CreateTask(db, project, memberships, manager.ID, "Design schema", "tables and indexes")
	if err != nil {
		t.Fatalf("CreateTask as manager: %v", err)
	}
	if task.Status != models.StatusPending {
		t.Errorf("new task must start pending, got %s", task.Status)
	}

	if _, err := svc.CreateTask(db, project, memberships, collab.ID, "Nope", ""); !errors.Is(err, ErrForbidden) {
		t.Errorf("collaborator CreateTask must be ErrForbidden, got %v", err)
	}
}

func TestGetTask_ScopedToProject(t *testing.T) {
	db := testDB(t)
	manager := createUser(t, db, "manager@example.com", true)
	projectA := createProjectWithManager(t, db, manager)
	projectB := createProjectWithManager(t, db, manager)
	membershipsA := loadMemberships(t, db, projectA.ID)

	svc := NewTaskService(NewAuthorizationService())
	task, err := svc.CreateTask(db, projectA, membershipsA, manager.ID, "Task A", "")
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	// The same task id through the wrong project is a 404-class answer.
	if _, err := svc.GetTask(db, projectB.ID, task.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-project lookup must be ErrNotFound, got %v", err)
	}

	got, err := svc.GetTask(db, projectA.ID, task.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.ID != task.ID {
		t.Error("wrong task resolved")
	}
}

func TestUpdateStatus_AnyMemberAndHistoryGrows(t *testing.T) {
	db := testDB(t)
	manager := createUser(t, db, "manager@example.com", true)
	collab := createUser(t, db, "collab@example.com", true)
	project := createProjectWithManager(t, db, manager)
	addCollaborator(t, db, project, collab)
	memberships := loadMemberships(t, db, project.ID)

	svc := NewTaskService(NewAuthorizationService())
	task, err := svc.CreateTask(db, project, memberships, manager.ID, "Build API", "")
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	// A collaborator may move the task even though they cannot edit it.
	if err := svc.UpdateStatus(db, memberships, collab.ID, task, models.StatusInProgress); err != nil {
		t.Fatalf("UpdateStatus as collaborator: %v", err)
	}
	if task.Status != models.StatusInProgress {
		t.Errorf("status not updated, got %s", task.Status)
	}

	if err := svc.UpdateStatus(db, memberships, manager.ID, task, models.StatusCompleted); err != nil {
		t.Fatalf("UpdateStatus as manager: %v", err)
	}

	history, err := svc.GetHistory(db, task.ID)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(history))
	}
	if history[0].FromStatus != models.StatusPending || history[0].ToStatus != models.StatusInProgress {
		t.Errorf("first transition wrong: %+v", history[0])
	}
	if history[0].ActorID != collab.ID {
		t.Errorf("first transition actor wrong: %s", history[0].ActorID)
	}
	if history[1].FromStatus != models.StatusInProgress || history[1].ToStatus != models.StatusCompleted {
		t.Errorf("second transition wrong: %+v", history[1])
	}
}

func TestUpdateStatus_SameStateStillLogged(t *testing.T) {
	db := testDB(t)
	manager := createUser(t, db, "manager@example.com", true)
	project := createProjectWithManager(t, db, manager)
	memberships := loadMemberships(t, db, project.ID)

	svc := NewTaskService(NewAuthorizationService())
	task, _ := svc.CreateTask(db, project, memberships, manager.ID, "Idempotent move", "")

	if err := svc.UpdateStatus(db, memberships, manager.ID, task, models.StatusPending); err != nil {
		t.Fatalf("same-state UpdateStatus: %v", err)
	}

	history, _ := svc.GetHistory(db, task.ID)
	if len(history) != 1 {
		t.Fatalf("same-state transition must be logged, got %d entries", len(history))
	}
	if history[0].FromStatus != models.StatusPending || history[0].ToStatus != models.StatusPending {
		t.Errorf("unexpected transition: %+v", history[0])
	}
}

func TestUpdateStatus_Validation(t *testing.T) {
	db := testDB(t)
	manager := createUser(t, db, "manager@example.com", true)
	outsider := createUser(t, db, "outsider@example.com", true)
	project := createProjectWithManager(t, db, manager)
	memberships := loadMemberships(t, db, project.ID)

	svc := NewTaskService(NewAuthorizationService())
	task, _ := svc.CreateTask(db, project, memberships, manager.ID, "Guarded", "")

	if err := svc.UpdateStatus(db, memberships, outsider.ID, task, models.StatusCompleted); !errors.Is(err, ErrForbidden) {
		t.Errorf("outsider UpdateStatus must be ErrForbidden, got %v", err)
	}
	if err := svc.UpdateStatus(db, memberships, manager.ID, task, models.TaskStatus("archived")); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("unknown status must be ErrInvalidStatus, got %v", err)
	}

	history, _ := svc.GetHistory(db, task.ID)
	if len(history) != 0 {
		t.Errorf("rejected updates must not log history, got %d entries", len(history))
	}
}

func TestUpdateTask_DoesNotTouchStatus(t *testing.T) {
	db := testDB(t)
	manager := createUser(t, db, "manager@example.com", true)
	collab := createUser(t, db, "collab@example.com", true)
	project := createProjectWithManager(t, db, manager)
	addCollaborator(t, db, project, collab)
	memberships := loadMemberships(t, db, project.ID)

	svc := NewTaskService(NewAuthorizationService())
	task, _ := svc.CreateTask(db, project, memberships, manager.ID, "Old name", "old")
	_ = svc.UpdateStatus(db, memberships, manager.ID, task, models.StatusOnHold)

	if err := svc.UpdateTask(db, memberships, collab.ID, task, "x", "y"); !errors.Is(err, ErrForbidden) {
		t.Errorf("collaborator UpdateTask must be ErrForbidden, got %v", err)
	}

	if err := svc.UpdateTask(db, memberships, manager.ID, task, "New name", "new"); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}

	got, _ := svc.GetTask(db, project.ID, task.ID)
	if got.Name != "New name" || got.Description != "new" {
		t.Errorf("edit not applied: %+v", got)
	}
	if got.Status != models.StatusOnHold {
		t.Errorf("UpdateTask must not change status, got %s", got.Status)
	}
}

func TestDeleteTask_CascadesNotesAndHistory(t *testing.T) {
	db := testDB(t)
	manager := createUser(t, db, "manager@example.com", true)
	project := createProjectWithManager(t, db, manager)
	memberships := loadMemberships(t, db, project.ID)

	taskSvc := NewTaskService(NewAuthorizationService())
	noteSvc := NewNoteService()

	task, _ := taskSvc.CreateTask(db, project, memberships, manager.ID, "Doomed", "")
	_ = taskSvc.UpdateStatus(db, memberships, manager.ID, task, models.StatusInProgress)
	if _, err := noteSvc.CreateNote(db, task, manager.ID, "progress looks good"); err != nil {
		t.Fatalf("CreateNote: %v", err)
	}

	if err := taskSvc.DeleteTask(db, memberships, manager.ID, task); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}

	var notes, changes int64
	db.Model(&models.Note{}).Where("task_id = ?", task.ID).Count(&notes)
	db.Model(&models.StatusChange{}).Where("task_id = ?", task.ID).Count(&changes)
	if notes != 0 || changes != 0 {
		t.Errorf("cascade incomplete: %d notes, %d history rows left", notes, changes)
	}
}
