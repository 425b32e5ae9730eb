package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// RoleRepository stores who may assign tasks to whom inside a workspace.
// Admins may assign to anyone; instructors only to their granted targets.
type RoleRepository struct {
	db *sql.DB
}

type RoleRepositoryInterface interface {
	IsAdmin(ctx context.Context, userID, workspaceID int64) (bool, error)
	HasAdmin(ctx context.Context, workspaceID int64) (bool, error)
	IsInstructor(ctx context.Context, userID, workspaceID int64) (bool, error)
	CanInstruct(ctx context.Context, instructorID, targetID, workspaceID int64) (bool, error)
	GrantAdmin(ctx context.Context, userID, workspaceID int64) error
	GrantInstructor(ctx context.Context, userID, workspaceID int64, targetIDs []int64) error
	RevokeInstructor(ctx context.Context, userID, workspaceID int64) error
}

func NewRoleRepository(db *sql.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) IsAdmin(ctx context.Context, userID, workspaceID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM admins WHERE user_id = $1 AND workspace_id = $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID, workspaceID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check admin: %w", err)
	}
	return exists, nil
}

// HasAdmin reports whether any admin exists in the workspace at all;
// the first admin grant is allowed without one.
func (r *RoleRepository) HasAdmin(ctx context.Context, workspaceID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM admins WHERE workspace_id = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, workspaceID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check workspace admins: %w", err)
	}
	return exists, nil
}

func (r *RoleRepository) IsInstructor(ctx context.Context, userID, workspaceID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM instructors WHERE user_id = $1 AND workspace_id = $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID, workspaceID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check instructor: %w", err)
	}
	return exists, nil
}

// CanInstruct allows admins unconditionally, instructors only for
// their granted targets. Self-assignment is always allowed.
func (r *RoleRepository) CanInstruct(ctx context.Context, instructorID, targetID, workspaceID int64) (bool, error) {
	if instructorID == targetID {
		return true, nil
	}

	isAdmin, err := r.IsAdmin(ctx, instructorID, workspaceID)
	if err != nil {
		return false, err
	}
	if isAdmin {
		return true, nil
	}

	query := `
		SELECT EXISTS (
			SELECT 1 FROM instructor_targets
			WHERE instructor_id = $1 AND target_id = $2 AND workspace_id = $3
		)
	`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, instructorID, targetID, workspaceID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check instructor target: %w", err)
	}
	return exists, nil
}

func (r *RoleRepository) GrantAdmin(ctx context.Context, userID, workspaceID int64) error {
	query := `INSERT INTO admins (user_id, workspace_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, userID, workspaceID); err != nil {
		return fmt.Errorf("failed to grant admin: %w", err)
	}
	return nil
}

func (r *RoleRepository) GrantInstructor(ctx context.Context, userID, workspaceID int64, targetIDs []int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO instructors (user_id, workspace_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, workspaceID,
	); err != nil {
		return fmt.Errorf("failed to grant instructor: %w", err)
	}

	for _, targetID := range targetIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO instructor_targets (instructor_id, target_id, workspace_id)
			 VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
			userID, targetID, workspaceID,
		); err != nil {
			return fmt.Errorf("failed to grant instructor target: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func (r *RoleRepository) RevokeInstructor(ctx context.Context, userID, workspaceID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM instructor_targets WHERE instructor_id = $1 AND workspace_id = $2`,
		userID, workspaceID,
	); err != nil {
		return fmt.Errorf("failed to revoke instructor targets: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM instructors WHERE user_id = $1 AND workspace_id = $2`,
		userID, workspaceID,
	); err != nil {
		return fmt.Errorf("failed to revoke instructor: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}
