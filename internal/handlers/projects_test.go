package handlers

import (
	"net/http"
	"testing"

	"github.com/SebastianInsurriaga/UpTask-Backend/internal/models"
)

func TestCreateAndListProjects(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice@example.com", "hunter2hunter2", true)

	w := env.do(t, http.MethodPost, "/api/v1/projects", alice, map[string]string{
		"name":        "Site relaunch",
		"description": "new frontend",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var created models.Project
	decodeBody(t, w, &created)
	if created.Name != "Site relaunch" {
		t.Errorf("unexpected project name %q", created.Name)
	}

	w = env.do(t, http.MethodGet, "/api/v1/projects", alice, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var listed []models.Project
	decodeBody(t, w, &listed)
	if len(listed) != 1 || listed[0].ID != created.ID {
		t.Errorf("expected the created project in the listing, got %+v", listed)
	}
}

func TestCreateProject_Validation(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice@example.com", "hunter2hunter2", true)

	w := env.do(t, http.MethodPost, "/api/v1/projects", alice, map[string]string{
		"description": "no name",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing name, got %d", w.Code)
	}
}

func TestProjectVisibility_NonMemberGets404(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice@example.com", "hunter2hunter2", true)
	mallory := env.createUser(t, "mallory@example.com", "hunter2hunter2", true)
	project := env.createProject(t, alice)

	// A non-member gets the same answer as for a project that does not
	// exist, on reads and writes alike.
	w := env.do(t, http.MethodGet, "/api/v1/projects/"+project.ID.String(), mallory, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for non-member read, got %d", w.Code)
	}
	w = env.do(t, http.MethodPut, "/api/v1/projects/"+project.ID.String(), mallory, map[string]string{
		"name": "hijacked",
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for non-member write, got %d", w.Code)
	}
	w = env.do(t, http.MethodGet, "/api/v1/projects/"+project.ID.String(), mallory, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}

	// The member still sees it.
	w = env.do(t, http.MethodGet, "/api/v1/projects/"+project.ID.String(), alice, nil)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 for member, got %d: %s", w.Code, w.Body.String())
	}
}

func TestProjectMutation_CollaboratorGets403(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice@example.com", "hunter2hunter2", true)
	bob := env.createUser(t, "bob@example.com", "hunter2hunter2", true)
	project := env.createProject(t, alice)
	env.addCollaborator(t, project, bob)

	w := env.do(t, http.MethodGet, "/api/v1/projects/"+project.ID.String(), bob, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("collaborator read: expected 200, got %d", w.Code)
	}

	w = env.do(t, http.MethodPut, "/api/v1/projects/"+project.ID.String(), bob, map[string]string{
		"name": "renamed",
	})
	if w.Code != http.StatusForbidden {
		t.Errorf("collaborator update: expected 403, got %d", w.Code)
	}
	w = env.do(t, http.MethodDelete, "/api/v1/projects/"+project.ID.String(), bob, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("collaborator delete: expected 403, got %d", w.Code)
	}
}

func TestProjectRoutes_MalformedID(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice@example.com", "hunter2hunter2", true)

	w := env.do(t, http.MethodGet, "/api/v1/projects/not-a-uuid", alice, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed project id, got %d", w.Code)
	}
}

func TestProjectRoutes_Unauthenticated(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/projects", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without identity, got %d", w.Code)
	}
}

func TestDeleteProject_Manager(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "alice@example.com", "hunter2hunter2", true)
	project := env.createProject(t, alice)

	w := env.do(t, http.MethodDelete, "/api/v1/projects/"+project.ID.String(), alice, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	w = env.do(t, http.MethodGet, "/api/v1/projects/"+project.ID.String(), alice, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", w.Code)
	}
}
