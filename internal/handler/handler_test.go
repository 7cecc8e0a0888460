package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidar/team-tasks/internal/domain"
	"github.com/aidar/team-tasks/internal/middleware"
	"github.com/aidar/team-tasks/internal/repository/memory"
	"github.com/aidar/team-tasks/internal/service"
)

func TestHandleError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		code     domain.ErrorCode
		location string
	}{
		{"validation", domain.NewValidationError("title", "is required"), http.StatusBadRequest, domain.CodeValidation, ""},
		{"username taken", domain.ErrUsernameTaken, http.StatusBadRequest, domain.CodeValidation, ""},
		{"invalid status", domain.ErrInvalidStatus, http.StatusBadRequest, domain.CodeInvalidStatus, ""},
		{"bad credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized, domain.CodeUnauthorized, ""},
		{"not manager", domain.ErrNotManager, http.StatusForbidden, domain.CodeForbidden, ""},
		{"already assigned", domain.ErrTaskAlreadyAssigned, http.StatusForbidden, domain.CodeForbidden, ""},
		{"task not found", domain.ErrTaskNotFound, http.StatusNotFound, domain.CodeNotFound, ""},
		{"team not found", domain.ErrTeamNotFound, http.StatusNotFound, domain.CodeNotFound, ""},
		{"profile incomplete", domain.ErrProfileIncomplete, http.StatusSeeOther, domain.CodeProfileIncomplete, "/setup"},
		{"profile complete", domain.ErrProfileAlreadyComplete, http.StatusSeeOther, domain.CodeProfileComplete, "/"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, domain.CodeInternal, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.location, rec.Header().Get("Location"))

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, string(tt.code), resp.Error.Code)
			if tt.code == domain.CodeInternal {
				assert.NotContains(t, resp.Error.Message, "boom", "internal details must not leak")
			}
		})
	}
}

func TestHandleError_ValidationFields(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleError(rec, httptest.NewRequest(http.MethodPost, "/register", nil), domain.ErrUsernameTaken)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "is already taken", resp.Error.Fields["username"])
}

// taskFixture собирает TaskHandler поверх хранилища в памяти
type taskFixture struct {
	handler  *TaskHandler
	tasks    *service.TaskService
	router   chi.Router
	manager  domain.Actor
	employee domain.Actor
}

func newTaskFixture(t *testing.T) *taskFixture {
	t.Helper()
	ctx := context.Background()

	store := memory.New()
	team, err := store.Teams().Create(ctx, "Development")
	require.NoError(t, err)

	member := func(name string, role domain.Role) domain.Actor {
		u := &domain.User{Username: name, PasswordHash: "x"}
		require.NoError(t, store.Users().Create(ctx, u))
		_, err := store.Profiles().GetOrCreate(ctx, u.ID)
		require.NoError(t, err)
		p, err := store.Profiles().Complete(ctx, u.ID, team.ID, role)
		require.NoError(t, err)
		a, err := p.Actor()
		require.NoError(t, err)
		return a
	}

	tasks := service.NewTaskService(store.Tasks())
	teams := service.NewTeamService(store.Teams(), store.Users(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	h := NewTaskHandler(tasks, teams)

	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/create", h.Create)
	r.Get("/edit/{taskID}", h.EditForm)
	r.Post("/edit/{taskID}", h.Edit)
	r.Post("/delete/{taskID}", h.Delete)
	r.Post("/assign/{taskID}", h.Assign)
	r.Post("/status/{taskID}", h.ChangeStatus)

	return &taskFixture{
		handler:  h,
		tasks:    tasks,
		router:   r,
		manager:  member("mia", domain.RoleManager),
		employee: member("eve", domain.RoleEmployee),
	}
}

func (f *taskFixture) do(actor *domain.Actor, method, path, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if actor != nil {
		req = req.WithContext(middleware.WithActor(req.Context(), *actor))
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestTaskHandler_CreateFormAndJSON(t *testing.T) {
	f := newTaskFixture(t)

	rec := f.do(&f.manager, http.MethodPost, "/create", "application/x-www-form-urlencoded",
		"title=Plan+sprint&description=Q3&due_date=2026-07-01")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created TaskResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Plan sprint", created.Title)
	assert.Equal(t, "2026-07-01", created.DueDate)
	assert.Equal(t, domain.StatusNew, created.Status)
	assert.Nil(t, created.AssignedTo)

	rec = f.do(&f.manager, http.MethodPost, "/create", "application/json", `{"title":"From JSON"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, time.Now().Format(domain.DateLayout), created.DueDate)

	rec = f.do(&f.manager, http.MethodPost, "/create", "application/json", `{"title":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(&f.employee, http.MethodPost, "/create", "application/json", `{"title":"x"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(nil, http.MethodPost, "/create", "application/json", `{"title":"x"}`)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/setup", rec.Header().Get("Location"))
}

func TestTaskHandler_Lifecycle(t *testing.T) {
	f := newTaskFixture(t)

	task, err := f.tasks.Create(context.Background(), f.manager, service.TaskInput{Title: "Ship", DueDate: "2026-05-01"})
	require.NoError(t, err)
	path := func(action string) string { return "/" + action + "/" + itoa(task.ID) }

	rec := f.do(&f.manager, http.MethodGet, path("edit"), "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(&f.manager, http.MethodPost, path("edit"), "application/json", `{"title":"Ship it","description":"now"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"due_date":"2026-05-01"`)

	rec = f.do(&f.employee, http.MethodPost, path("status"), "application/json", `{"status":"completed"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code, "only the assignee may change status")

	rec = f.do(&f.employee, http.MethodPost, path("assign"), "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"in_progress"`)

	rec = f.do(&f.manager, http.MethodGet, path("edit"), "", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = f.do(&f.manager, http.MethodPost, path("delete"), "", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(&f.employee, http.MethodPost, path("status"), "application/x-www-form-urlencoded", "status=bogus")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), string(domain.CodeInvalidStatus))
	// Не исполнитель получает 403 даже с некорректным статусом
	rec = f.do(&f.manager, http.MethodPost, path("status"), "application/x-www-form-urlencoded", "status=bogus")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(&f.employee, http.MethodPost, path("status"), "application/x-www-form-urlencoded", "status=completed")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"completed"`)

	rec = f.do(&f.manager, http.MethodPost, "/assign/999999", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = f.do(&f.manager, http.MethodPost, "/assign/abc", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTaskHandler_List(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()

	a, err := f.tasks.Create(ctx, f.manager, service.TaskInput{Title: "A", DueDate: "2026-02-01"})
	require.NoError(t, err)
	_, err = f.tasks.Create(ctx, f.manager, service.TaskInput{Title: "B", DueDate: "2026-01-01"})
	require.NoError(t, err)
	_, err = f.tasks.Assign(ctx, f.employee, a.ID)
	require.NoError(t, err)

	rec := f.do(&f.employee, http.MethodGet, "/?worker="+itoa(f.employee.UserID), "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp TaskListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Tasks, 1)
	assert.Equal(t, "A", resp.Tasks[0].Title)
	assert.True(t, resp.IsEmployee)
	assert.False(t, resp.IsManager)
	assert.Len(t, resp.Members, 2)
	assert.Equal(t, "Development", resp.Team.Name)

	rec = f.do(&f.manager, http.MethodGet, "/", "", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Tasks, 2)
	assert.Equal(t, "B", resp.Tasks[0].Title, "ordered by due date")

	rec = f.do(&f.manager, http.MethodGet, "/?status=unknown", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = f.do(&f.manager, http.MethodGet, "/?worker=nobody", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
