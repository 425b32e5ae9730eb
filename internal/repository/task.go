package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"task_service/internal/domain"
)

const taskColumns = `id, workspace_id, instructor_id, assignee_id, title, due_at,
status, reminder_sent, origin_channel_id, origin_message_id, created_at, updated_at`

type TaskRepository struct {
	db *sql.DB
}

type TaskRepositoryInterface interface {
	Create(ctx context.Context, task *domain.Task) error
	GetByID(ctx context.Context, id int64) (*domain.Task, error)
	FindDueForReminder(ctx context.Context, from, to time.Time) ([]*domain.Task, error)
	FindActiveDuplicate(ctx context.Context, workspaceID, assigneeID int64, title string) (bool, error)
	UpdateStatus(ctx context.Context, id int64, from, to domain.TaskStatus, updatedAt time.Time) error
	MarkReminderSent(ctx context.Context, id int64) error
	ListByFilter(ctx context.Context, filter domain.TaskFilter) ([]*domain.Task, error)
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) error {
	query := `
		INSERT INTO tasks
			(workspace_id, instructor_id, assignee_id, title, due_at, status,
			 reminder_sent, origin_channel_id, origin_message_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		task.WorkspaceID,
		task.InstructorID,
		task.AssigneeID,
		task.Title,
		task.DueAt,
		task.Status,
		task.ReminderSent,
		task.Origin.ChannelID,
		task.Origin.MessageID,
		task.CreatedAt,
		task.UpdatedAt,
	).Scan(&task.ID)

	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	task, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// FindDueForReminder selects accepted, not-yet-reminded tasks whose
// deadline falls within (from, to]. A task due exactly at from is
// overdue, not upcoming, and is excluded.
func (r *TaskRepository) FindDueForReminder(ctx context.Context, from, to time.Time) ([]*domain.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE status = $1
		  AND reminder_sent = FALSE
		  AND due_at > $2
		  AND due_at <= $3
		ORDER BY due_at
	`

	rows, err := r.db.QueryContext(ctx, query, domain.TaskStatusAccepted, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query due tasks: %w", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

// FindActiveDuplicate reports whether a task with the same assignee and
// title is still open in the workspace. Completed counts as closed even
// though it can be undone, so finished work may be assigned again.
func (r *TaskRepository) FindActiveDuplicate(ctx context.Context, workspaceID, assigneeID int64, title string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM tasks
			WHERE workspace_id = $1 AND assignee_id = $2 AND title = $3
			  AND status NOT IN ($4, $5, $6)
		)
	`

	var exists bool
	err := r.db.QueryRowContext(ctx, query,
		workspaceID, assigneeID, title,
		domain.TaskStatusCompleted, domain.TaskStatusDeclined, domain.TaskStatusAbandoned,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check duplicate: %w", err)
	}
	return exists, nil
}

// UpdateStatus swaps the status only if the stored value still equals
// from, so a transition racing the reminder scan or another transition
// fails instead of silently overwriting.
func (r *TaskRepository) UpdateStatus(ctx context.Context, id int64, from, to domain.TaskStatus, updatedAt time.Time) error {
	query := `UPDATE tasks SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`

	result, err := r.db.ExecContext(ctx, query, to, updatedAt, id, from)
	if err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrStatusConflict
	}
	return nil
}

// MarkReminderSent latches the flag by task id. Re-latching an already
// sent (or deleted) task is a no-op, which keeps the scan idempotent.
func (r *TaskRepository) MarkReminderSent(ctx context.Context, id int64) error {
	query := `UPDATE tasks SET reminder_sent = TRUE WHERE id = $1 AND reminder_sent = FALSE`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to mark reminder sent: %w", err)
	}
	return nil
}

func (r *TaskRepository) ListByFilter(ctx context.Context, filter domain.TaskFilter) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE workspace_id = $1`
	args := []interface{}{filter.WorkspaceID}
	argsCount := 2

	if filter.AssigneeID != 0 {
		query += fmt.Sprintf(" AND assignee_id = $%d", argsCount)
		args = append(args, filter.AssigneeID)
		argsCount++
	}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i := range filter.Statuses {
			placeholders[i] = fmt.Sprintf("$%d", argsCount)
			args = append(args, filter.Statuses[i])
			argsCount++
		}
		query += fmt.Sprintf(" AND status IN (%s)", strings.Join(placeholders, ", "))
	}

	query += " ORDER BY due_at"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var t domain.Task
	var status string
	err := row.Scan(
		&t.ID,
		&t.WorkspaceID,
		&t.InstructorID,
		&t.AssigneeID,
		&t.Title,
		&t.DueAt,
		&status,
		&t.ReminderSent,
		&t.Origin.ChannelID,
		&t.Origin.MessageID,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Status = domain.ToTaskStatus(status)
	return &t, nil
}

func collectTasks(rows *sql.Rows) ([]*domain.Task, error) {
	var tasks []*domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return tasks, nil
}
