package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hrygo/taskpilot/store"
)

func (d *DB) CreateTask(ctx context.Context, create *store.Task) (*store.Task, error) {
	fields := []string{"id", "user_id", "title", "description", "completed", "priority", "created_ts", "updated_ts"}
	placeholders := []string{"?", "?", "?", "?", "?", "?", "?", "?"}
	args := []any{create.ID.String(), create.UserID, create.Title, create.Description, create.Completed, create.Priority, create.CreatedTs, create.UpdatedTs}

	stmt := `INSERT INTO task (` + strings.Join(fields, ", ") + `)
		VALUES (` + strings.Join(placeholders, ", ") + `)`
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return create, nil
}

func (d *DB) ListTasks(ctx context.Context, find *store.FindTask) ([]*store.Task, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, find.ID.String())
	}
	if find.UserID != nil {
		where, args = append(where, "user_id = ?"), append(args, *find.UserID)
	}
	if find.Completed != nil {
		where, args = append(where, "completed = ?"), append(args, *find.Completed)
	}
	if find.Priority != nil {
		where, args = append(where, "priority = ?"), append(args, *find.Priority)
	}

	query := `
		SELECT id, user_id, title, description, completed, priority, created_ts, updated_ts
		FROM task
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts ASC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Task, 0)
	for rows.Next() {
		task := &store.Task{}
		var id string
		var description sql.NullString
		if err := rows.Scan(&id, &task.UserID, &task.Title, &description, &task.Completed, &task.Priority, &task.CreatedTs, &task.UpdatedTs); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		if err := task.ID.UnmarshalText([]byte(id)); err != nil {
			return nil, fmt.Errorf("failed to parse task id: %w", err)
		}
		if description.Valid {
			task.Description = &description.String
		}
		list = append(list, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}

	return list, nil
}

func (d *DB) UpdateTask(ctx context.Context, update *store.UpdateTask) (*store.Task, error) {
	set, args := []string{}, []any{}

	if update.Title != nil {
		set, args = append(set, "title = ?"), append(args, *update.Title)
	}
	if update.Description != nil {
		set, args = append(set, "description = ?"), append(args, *update.Description)
	}
	if update.Completed != nil {
		set, args = append(set, "completed = ?"), append(args, *update.Completed)
	}
	if update.Priority != nil {
		set, args = append(set, "priority = ?"), append(args, *update.Priority)
	}
	if update.UpdatedTs != nil {
		set, args = append(set, "updated_ts = ?"), append(args, *update.UpdatedTs)
	}

	if len(set) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}

	args = append(args, update.ID.String())
	stmt := `UPDATE task SET ` + strings.Join(set, ", ") + ` WHERE id = ?
		RETURNING id, user_id, title, description, completed, priority, created_ts, updated_ts`
	result := &store.Task{}
	var id string
	var description sql.NullString
	err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&id, &result.UserID, &result.Title, &description, &result.Completed, &result.Priority, &result.CreatedTs, &result.UpdatedTs,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	if err := result.ID.UnmarshalText([]byte(id)); err != nil {
		return nil, fmt.Errorf("failed to parse task id: %w", err)
	}
	if description.Valid {
		result.Description = &description.String
	}

	return result, nil
}

func (d *DB) DeleteTask(ctx context.Context, delete *store.DeleteTask) error {
	result, err := d.db.ExecContext(ctx, `DELETE FROM task WHERE id = ?`, delete.ID.String())
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("task not found")
	}

	return nil
}
