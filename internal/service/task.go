package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"task_service/internal/deadline"
	"task_service/internal/domain"
	"task_service/internal/lifecycle"
	"task_service/internal/repository"
	"task_service/pkg/logger"
)

type TaskServiceInterface interface {
	CreateTask(ctx context.Context, input *CreateTaskInput) (*domain.Task, error)
	GetTask(ctx context.Context, id int64) (*domain.Task, error)
	Transition(ctx context.Context, taskID, requestedBy int64, target domain.TaskStatus) (*domain.Task, error)
	ListTasks(ctx context.Context, filter domain.TaskFilter) ([]*domain.Task, error)
	GrantAdmin(ctx context.Context, requestedBy, userID, workspaceID int64) error
	GrantInstructor(ctx context.Context, requestedBy, userID, workspaceID int64, targetIDs []int64) error
	RevokeInstructor(ctx context.Context, requestedBy, userID, workspaceID int64) error
}

type CreateTaskInput struct {
	WorkspaceID    int64
	InstructorID   int64
	AssigneeID     int64
	Title          string
	DeadlinePhrase string
	Origin         domain.MessageRef
}

type TaskService struct {
	taskRepo repository.TaskRepositoryInterface
	roleRepo repository.RoleRepositoryInterface
	sink     DeliverySink
	guard    IdempotencyGuard
	clock    domain.Clock
	log      *logger.Logger
}

func NewTaskService(
	taskRepo repository.TaskRepositoryInterface,
	roleRepo repository.RoleRepositoryInterface,
	sink DeliverySink,
	guard IdempotencyGuard,
	clock domain.Clock,
	log *logger.Logger,
) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		roleRepo: roleRepo,
		sink:     sink,
		guard:    guard,
		clock:    clock,
		log:      log,
	}
}

// CreateTask resolves the deadline phrase, validates creation rules and
// persists a Pending task. The assignee gets a best-effort NewTask
// notification; its failure never fails the creation.
func (s *TaskService) CreateTask(ctx context.Context, input *CreateTaskInput) (*domain.Task, error) {
	key := fmt.Sprintf("create:%d:%d:%d:%s",
		input.WorkspaceID, input.InstructorID, input.AssigneeID, input.Title)
	ok, err := s.guard.Acquire(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrOperationInFlight
	}
	defer s.guard.Release(ctx, key)

	allowed, err := s.roleRepo.CanInstruct(ctx, input.InstructorID, input.AssigneeID, input.WorkspaceID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrPermissionDenied
	}

	now := s.clock.Now()
	dueAt, err := deadline.Resolve(input.DeadlinePhrase, now)
	if err != nil {
		return nil, err
	}

	task := &domain.Task{
		WorkspaceID:  input.WorkspaceID,
		InstructorID: input.InstructorID,
		AssigneeID:   input.AssigneeID,
		Title:        input.Title,
		DueAt:        dueAt,
		Status:       domain.TaskStatusPending,
		Origin:       input.Origin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	hasDuplicate, err := s.taskRepo.FindActiveDuplicate(ctx, input.WorkspaceID, input.AssigneeID, input.Title)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.ValidateNew(task, now, hasDuplicate); err != nil {
		return nil, err
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, err
	}

	s.dispatch(ctx, domain.Notification{
		RecipientID: task.AssigneeID,
		TaskID:      task.ID,
		Kind:        domain.NotificationNewTask,
	})

	return task, nil
}

func (s *TaskService) GetTask(ctx context.Context, id int64) (*domain.Task, error) {
	return s.taskRepo.GetByID(ctx, id)
}

// Transition moves a task through the lifecycle on behalf of its
// assignee. The status write is a compare-and-swap keyed by the status
// the engine validated against, so a concurrent writer surfaces as
// repository.ErrStatusConflict instead of a lost update.
func (s *TaskService) Transition(ctx context.Context, taskID, requestedBy int64, target domain.TaskStatus) (*domain.Task, error) {
	key := fmt.Sprintf("transition:%d:%d", requestedBy, taskID)
	ok, err := s.guard.Acquire(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrOperationInFlight
	}
	defer s.guard.Release(ctx, key)

	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	previous := task.Status
	effect, err := lifecycle.Transition(task, requestedBy, target, s.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := s.taskRepo.UpdateStatus(ctx, task.ID, previous, task.Status, task.UpdatedAt); err != nil {
		return nil, err
	}

	if effect.Notification != nil {
		s.dispatch(ctx, *effect.Notification)
	}

	return task, nil
}

func (s *TaskService) ListTasks(ctx context.Context, filter domain.TaskFilter) ([]*domain.Task, error) {
	return s.taskRepo.ListByFilter(ctx, filter)
}

// GrantAdmin requires an existing admin, except for the very first
// grant in a workspace.
func (s *TaskService) GrantAdmin(ctx context.Context, requestedBy, userID, workspaceID int64) error {
	hasAdmin, err := s.roleRepo.HasAdmin(ctx, workspaceID)
	if err != nil {
		return err
	}
	if hasAdmin {
		isAdmin, err := s.roleRepo.IsAdmin(ctx, requestedBy, workspaceID)
		if err != nil {
			return err
		}
		if !isAdmin {
			return ErrPermissionDenied
		}
	}
	return s.roleRepo.GrantAdmin(ctx, userID, workspaceID)
}

func (s *TaskService) GrantInstructor(ctx context.Context, requestedBy, userID, workspaceID int64, targetIDs []int64) error {
	if err := s.requireAdmin(ctx, requestedBy, workspaceID); err != nil {
		return err
	}
	return s.roleRepo.GrantInstructor(ctx, userID, workspaceID, targetIDs)
}

func (s *TaskService) RevokeInstructor(ctx context.Context, requestedBy, userID, workspaceID int64) error {
	if err := s.requireAdmin(ctx, requestedBy, workspaceID); err != nil {
		return err
	}
	return s.roleRepo.RevokeInstructor(ctx, userID, workspaceID)
}

func (s *TaskService) requireAdmin(ctx context.Context, userID, workspaceID int64) error {
	isAdmin, err := s.roleRepo.IsAdmin(ctx, userID, workspaceID)
	if err != nil {
		return err
	}
	if !isAdmin {
		return ErrPermissionDenied
	}
	return nil
}

func (s *TaskService) dispatch(ctx context.Context, n domain.Notification) {
	if err := s.sink.Notify(ctx, n); err != nil {
		s.log.Error("failed to dispatch notification",
			zap.Int64("task_id", n.TaskID),
			zap.Int64("recipient_id", n.RecipientID),
			zap.String("kind", string(n.Kind)),
			zap.Error(err),
		)
	}
}
