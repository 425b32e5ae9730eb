package taskhttp

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"task_service/internal/deadline"
	"task_service/internal/domain"
	"task_service/internal/lifecycle"
	"task_service/internal/repository"
	"task_service/internal/service"
	"task_service/pkg/ctxdata"
)

type TaskHandler struct {
	svc service.TaskServiceInterface
}

func NewTaskHandler(svc service.TaskServiceInterface) *TaskHandler {
	return &TaskHandler{svc: svc}
}

func (h *TaskHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.With(authMiddleware).Group(func(r chi.Router) {
		r.Post("/tasks", h.CreateTask)
		r.Get("/tasks", h.ListTasks)
		r.Get("/tasks/{id}", h.GetTask)
		r.Patch("/tasks/{id}/status", h.TransitionTask)

		r.Post("/workspaces/{workspace_id}/admins", h.GrantAdmin)
		r.Post("/workspaces/{workspace_id}/instructors", h.GrantInstructor)
		r.Delete("/workspaces/{workspace_id}/instructors/{user_id}", h.RevokeInstructor)
	})
}

func mapErr(err error) int {
	switch {
	case errors.Is(err, deadline.ErrUnrecognized),
		errors.Is(err, deadline.ErrInvalidTime),
		errors.Is(err, lifecycle.ErrPastDeadline),
		errors.Is(err, lifecycle.ErrEmptyTitle),
		errors.Is(err, lifecycle.ErrTitleTooLong):
		return http.StatusBadRequest
	case errors.Is(err, lifecycle.ErrForbidden),
		errors.Is(err, service.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, lifecycle.ErrDuplicateTask),
		errors.Is(err, lifecycle.ErrInvalidTransition),
		errors.Is(err, repository.ErrStatusConflict),
		errors.Is(err, service.ErrOperationInFlight):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

type createTaskRequest struct {
	WorkspaceID     int64  `json:"workspace_id"`
	AssigneeID      int64  `json:"assignee_id"`
	Title           string `json:"title"`
	Deadline        string `json:"deadline"`
	OriginChannelID int64  `json:"origin_channel_id"`
	OriginMessageID int64  `json:"origin_message_id"`
}

type taskResponse struct {
	ID           int64     `json:"id"`
	WorkspaceID  int64     `json:"workspace_id"`
	InstructorID int64     `json:"instructor_id"`
	AssigneeID   int64     `json:"assignee_id"`
	Title        string    `json:"title"`
	DueAt        time.Time `json:"due_at"`
	Status       string    `json:"status"`
	ReminderSent bool      `json:"reminder_sent"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toTaskResponse(t *domain.Task) taskResponse {
	return taskResponse{
		ID:           t.ID,
		WorkspaceID:  t.WorkspaceID,
		InstructorID: t.InstructorID,
		AssigneeID:   t.AssigneeID,
		Title:        t.Title,
		DueAt:        t.DueAt,
		Status:       string(t.Status),
		ReminderSent: t.ReminderSent,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := ctxdata.GetUserID(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}

	task, err := h.svc.CreateTask(r.Context(), &service.CreateTaskInput{
		WorkspaceID:    req.WorkspaceID,
		InstructorID:   userID,
		AssigneeID:     req.AssigneeID,
		Title:          req.Title,
		DeadlinePhrase: req.Deadline,
		Origin: domain.MessageRef{
			ChannelID: req.OriginChannelID,
			MessageID: req.OriginMessageID,
		},
	})
	if err != nil {
		writeErrorJSON(w, mapErr(err), err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, toTaskResponse(task))
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid task id")
		return
	}

	task, err := h.svc.GetTask(r.Context(), id)
	if err != nil {
		writeErrorJSON(w, mapErr(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toTaskResponse(task))
}

type transitionRequest struct {
	Status string `json:"status"`
}

func (h *TaskHandler) TransitionTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := ctxdata.GetUserID(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	id, err := parseIDParam(r, "id")
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid task id")
		return
	}

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}

	target := domain.ToTaskStatus(req.Status)
	if !target.IsValid() {
		writeErrorJSON(w, http.StatusBadRequest, "unknown status")
		return
	}

	task, err := h.svc.Transition(r.Context(), id, userID, target)
	if err != nil {
		writeErrorJSON(w, mapErr(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toTaskResponse(task))
}

func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	workspaceID, err := strconv.ParseInt(q.Get("workspace_id"), 10, 64)
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "workspace_id is required")
		return
	}

	filter := domain.TaskFilter{WorkspaceID: workspaceID}

	if v := q.Get("assignee_id"); v != "" {
		assigneeID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeErrorJSON(w, http.StatusBadRequest, "invalid assignee_id")
			return
		}
		filter.AssigneeID = assigneeID
	}

	for _, s := range q["status_filter"] {
		status := domain.ToTaskStatus(s)
		if status.IsValid() {
			filter.Statuses = append(filter.Statuses, status)
		}
	}

	tasks, err := h.svc.ListTasks(r.Context(), filter)
	if err != nil {
		writeErrorJSON(w, mapErr(err), err.Error())
		return
	}

	resp := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		resp = append(resp, toTaskResponse(t))
	}
	writeJSON(w, http.StatusOK, resp)
}

type grantAdminRequest struct {
	UserID int64 `json:"user_id"`
}

func (h *TaskHandler) GrantAdmin(w http.ResponseWriter, r *http.Request) {
	userID, ok := ctxdata.GetUserID(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	workspaceID, err := parseIDParam(r, "workspace_id")
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid workspace id")
		return
	}

	var req grantAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.svc.GrantAdmin(r.Context(), userID, req.UserID, workspaceID); err != nil {
		writeErrorJSON(w, mapErr(err), err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type grantInstructorRequest struct {
	UserID    int64   `json:"user_id"`
	TargetIDs []int64 `json:"target_ids"`
}

func (h *TaskHandler) GrantInstructor(w http.ResponseWriter, r *http.Request) {
	userID, ok := ctxdata.GetUserID(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	workspaceID, err := parseIDParam(r, "workspace_id")
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid workspace id")
		return
	}

	var req grantInstructorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.svc.GrantInstructor(r.Context(), userID, req.UserID, workspaceID, req.TargetIDs); err != nil {
		writeErrorJSON(w, mapErr(err), err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) RevokeInstructor(w http.ResponseWriter, r *http.Request) {
	userID, ok := ctxdata.GetUserID(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	workspaceID, err := parseIDParam(r, "workspace_id")
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid workspace id")
		return
	}

	targetUserID, err := parseIDParam(r, "user_id")
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.svc.RevokeInstructor(r.Context(), userID, targetUserID, workspaceID); err != nil {
		writeErrorJSON(w, mapErr(err), err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseIDParam(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorJSON(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
