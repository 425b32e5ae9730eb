// Package lifecycle holds the task state machine. It is pure: callers
// persist the mutated task and dispatch the returned effect themselves.
package lifecycle

import (
	"errors"
	"time"

	"task_service/internal/domain"
)

var (
	ErrForbidden         = errors.New("only the assignee may transition a task")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrDuplicateTask     = errors.New("duplicate active task")
	ErrPastDeadline      = errors.New("deadline is in the past")
	ErrTitleTooLong      = errors.New("title exceeds maximum length")
	ErrEmptyTitle        = errors.New("title must not be empty")
)

// transitions lists every allowed (from, to) pair. Declined and
// Abandoned are terminal.
var transitions = map[domain.TaskStatus][]domain.TaskStatus{
	domain.TaskStatusPending:   {domain.TaskStatusAccepted, domain.TaskStatusDeclined},
	domain.TaskStatusAccepted:  {domain.TaskStatusCompleted, domain.TaskStatusAbandoned},
	domain.TaskStatusCompleted: {domain.TaskStatusAccepted},
}

// Effect describes the notification a successful transition owes the
// instructor. The undo from Completed back to Accepted produces none.
type Effect struct {
	Notification *domain.Notification
}

// CanTransition reports whether from → to is a legal move.
func CanTransition(from, to domain.TaskStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition applies target to the task on behalf of requestedBy,
// refreshing UpdatedAt from now. The task is mutated in place only on
// success.
func Transition(task *domain.Task, requestedBy int64, target domain.TaskStatus, now time.Time) (*Effect, error) {
	if requestedBy != task.AssigneeID {
		return nil, ErrForbidden
	}
	if !CanTransition(task.Status, target) {
		return nil, ErrInvalidTransition
	}

	undo := task.Status == domain.TaskStatusCompleted && target == domain.TaskStatusAccepted

	task.Status = target
	task.UpdatedAt = now

	effect := &Effect{}
	if !undo {
		effect.Notification = &domain.Notification{
			RecipientID: task.InstructorID,
			TaskID:      task.ID,
			Kind:        domain.NotificationStatusChanged,
		}
	}
	return effect, nil
}

// ValidateNew checks creation-time rules that are not transitions: the
// title bounds, the strictly-future deadline and the duplicate guard.
// hasActiveDuplicate reflects whether a task with the same assignee,
// title and workspace is still in a non-terminal status.
func ValidateNew(task *domain.Task, now time.Time, hasActiveDuplicate bool) error {
	if task.Title == "" {
		return ErrEmptyTitle
	}
	if len([]rune(task.Title)) > domain.MaxTitleLength {
		return ErrTitleTooLong
	}
	if !task.DueAt.After(now) {
		return ErrPastDeadline
	}
	if hasActiveDuplicate {
		return ErrDuplicateTask
	}
	return nil
}
