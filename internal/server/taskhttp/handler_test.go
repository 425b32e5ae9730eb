package taskhttp_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"task_service/internal/domain"
	"task_service/internal/lifecycle"
	"task_service/internal/repository"
	"task_service/internal/server/taskhttp"
	"task_service/internal/service"
)

type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) CreateTask(ctx context.Context, input *service.CreateTaskInput) (*domain.Task, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *MockTaskService) GetTask(ctx context.Context, id int64) (*domain.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *MockTaskService) Transition(ctx context.Context, taskID, requestedBy int64, target domain.TaskStatus) (*domain.Task, error) {
	args := m.Called(ctx, taskID, requestedBy, target)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *MockTaskService) ListTasks(ctx context.Context, filter domain.TaskFilter) ([]*domain.Task, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*domain.Task), args.Error(1)
}

func (m *MockTaskService) GrantAdmin(ctx context.Context, requestedBy, userID, workspaceID int64) error {
	args := m.Called(ctx, requestedBy, userID, workspaceID)
	return args.Error(0)
}

func (m *MockTaskService) GrantInstructor(ctx context.Context, requestedBy, userID, workspaceID int64, targetIDs []int64) error {
	args := m.Called(ctx, requestedBy, userID, workspaceID, targetIDs)
	return args.Error(0)
}

func (m *MockTaskService) RevokeInstructor(ctx context.Context, requestedBy, userID, workspaceID int64) error {
	args := m.Called(ctx, requestedBy, userID, workspaceID)
	return args.Error(0)
}

func newRouter(svc service.TaskServiceInterface) chi.Router {
	r := chi.NewRouter()
	taskhttp.NewTaskHandler(svc).RegisterRoutes(r, taskhttp.NewAuthMiddleware())
	return r
}

func sampleTask() *domain.Task {
	now := time.Date(2025, 7, 16, 10, 0, 0, 0, time.UTC)
	return &domain.Task{
		ID:           42,
		WorkspaceID:  10,
		InstructorID: 100,
		AssigneeID:   200,
		Title:        "weekly report",
		DueAt:        now.Add(48 * time.Hour),
		Status:       domain.TaskStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestCreateTaskHandler(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		svc := new(MockTaskService)
		svc.On("CreateTask", mock.Anything, mock.MatchedBy(func(in *service.CreateTaskInput) bool {
			return in.InstructorID == 100 && in.AssigneeID == 200 && in.DeadlinePhrase == "tomorrow 18:00"
		})).Return(sampleTask(), nil)

		body, _ := json.Marshal(map[string]interface{}{
			"workspace_id": 10,
			"assignee_id":  200,
			"title":        "weekly report",
			"deadline":     "tomorrow 18:00",
		})
		req := httptest.NewRequest(http.MethodPost, "/tasks", bytes.NewReader(body))
		req.Header.Set("X-User-Id", "100")
		rec := httptest.NewRecorder()

		newRouter(svc).ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.EqualValues(t, 42, resp["id"])
		assert.Equal(t, "PENDING", resp["status"])
	})

	t.Run("missing auth header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/tasks", bytes.NewReader([]byte("{}")))
		rec := httptest.NewRecorder()

		newRouter(new(MockTaskService)).ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("duplicate maps to conflict", func(t *testing.T) {
		svc := new(MockTaskService)
		svc.On("CreateTask", mock.Anything, mock.Anything).Return(nil, lifecycle.ErrDuplicateTask)

		req := httptest.NewRequest(http.MethodPost, "/tasks", bytes.NewReader([]byte(`{"workspace_id":10,"assignee_id":200,"title":"x","deadline":"tomorrow"}`)))
		req.Header.Set("X-User-Id", "100")
		rec := httptest.NewRecorder()

		newRouter(svc).ServeHTTP(rec, req)

		require.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestTransitionHandler(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		task := sampleTask()
		task.Status = domain.TaskStatusAccepted

		svc := new(MockTaskService)
		svc.On("Transition", mock.Anything, int64(42), int64(200), domain.TaskStatusAccepted).
			Return(task, nil)

		req := httptest.NewRequest(http.MethodPatch, "/tasks/42/status", bytes.NewReader([]byte(`{"status":"ACCEPTED"}`)))
		req.Header.Set("X-User-Id", "200")
		rec := httptest.NewRecorder()

		newRouter(svc).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("forbidden", func(t *testing.T) {
		svc := new(MockTaskService)
		svc.On("Transition", mock.Anything, int64(42), int64(100), domain.TaskStatusAccepted).
			Return(nil, lifecycle.ErrForbidden)

		req := httptest.NewRequest(http.MethodPatch, "/tasks/42/status", bytes.NewReader([]byte(`{"status":"ACCEPTED"}`)))
		req.Header.Set("X-User-Id", "100")
		rec := httptest.NewRecorder()

		newRouter(svc).ServeHTTP(rec, req)

		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unknown status", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPatch, "/tasks/42/status", bytes.NewReader([]byte(`{"status":"DONE"}`)))
		req.Header.Set("X-User-Id", "200")
		rec := httptest.NewRecorder()

		newRouter(new(MockTaskService)).ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("not found", func(t *testing.T) {
		svc := new(MockTaskService)
		svc.On("Transition", mock.Anything, int64(42), int64(200), domain.TaskStatusAccepted).
			Return(nil, repository.ErrNotFound)

		req := httptest.NewRequest(http.MethodPatch, "/tasks/42/status", bytes.NewReader([]byte(`{"status":"ACCEPTED"}`)))
		req.Header.Set("X-User-Id", "200")
		rec := httptest.NewRecorder()

		newRouter(svc).ServeHTTP(rec, req)

		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestListTasksHandler(t *testing.T) {
	t.Run("filters parsed", func(t *testing.T) {
		svc := new(MockTaskService)
		svc.On("ListTasks", mock.Anything, domain.TaskFilter{
			WorkspaceID: 10,
			AssigneeID:  200,
			Statuses:    []domain.TaskStatus{domain.TaskStatusPending, domain.TaskStatusAccepted},
		}).Return([]*domain.Task{sampleTask()}, nil)

		req := httptest.NewRequest(http.MethodGet,
			"/tasks?workspace_id=10&assignee_id=200&status_filter=PENDING&status_filter=ACCEPTED", nil)
		req.Header.Set("X-User-Id", "200")
		rec := httptest.NewRecorder()

		newRouter(svc).ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		svc.AssertExpectations(t)
	})

	t.Run("workspace id required", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
		req.Header.Set("X-User-Id", "200")
		rec := httptest.NewRecorder()

		newRouter(new(MockTaskService)).ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRoleHandlers(t *testing.T) {
	t.Run("grant admin", func(t *testing.T) {
		svc := new(MockTaskService)
		svc.On("GrantAdmin", mock.Anything, int64(100), int64(300), int64(10)).Return(nil)

		req := httptest.NewRequest(http.MethodPost, "/workspaces/10/admins", bytes.NewReader([]byte(`{"user_id":300}`)))
		req.Header.Set("X-User-Id", "100")
		rec := httptest.NewRecorder()

		newRouter(svc).ServeHTTP(rec, req)

		require.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("grant instructor denied", func(t *testing.T) {
		svc := new(MockTaskService)
		svc.On("GrantInstructor", mock.Anything, int64(200), int64(300), int64(10), []int64{400}).
			Return(service.ErrPermissionDenied)

		req := httptest.NewRequest(http.MethodPost, "/workspaces/10/instructors",
			bytes.NewReader([]byte(`{"user_id":300,"target_ids":[400]}`)))
		req.Header.Set("X-User-Id", "200")
		rec := httptest.NewRecorder()

		newRouter(svc).ServeHTTP(rec, req)

		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("revoke instructor", func(t *testing.T) {
		svc := new(MockTaskService)
		svc.On("RevokeInstructor", mock.Anything, int64(100), int64(300), int64(10)).Return(nil)

		req := httptest.NewRequest(http.MethodDelete, "/workspaces/10/instructors/300", nil)
		req.Header.Set("X-User-Id", "100")
		rec := httptest.NewRecorder()

		newRouter(svc).ServeHTTP(rec, req)

		require.Equal(t, http.StatusNoContent, rec.Code)
	})
}
