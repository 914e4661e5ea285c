package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/omnizone/hostd/internal/model"
)

// priorityRank orders priority levels highest-first within a claim
// query: urgent, high, normal, low.
const priorityRank = `
	CASE priority
		WHEN 'urgent' THEN 0
		WHEN 'high' THEN 1
		WHEN 'normal' THEN 2
		WHEN 'low' THEN 3
		ELSE 4
	END
`

// CreateTask inserts a new pending task and returns its assigned id.
func (s *Store) CreateTask(t model.Task) (int64, error) {
	res, err := s.DB.Exec(`
		INSERT INTO tasks (zone_name, operation, priority, status, created_by, metadata_json, created_at)
		VALUES (?, ?, ?, 'pending', ?, ?, ?)
	`, t.ZoneName, t.Operation, t.Priority, t.CreatedBy, t.MetadataJSON, t.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert task: %w", err)
	}
	return res.LastInsertId()
}

// ClaimNextTask selects the highest-priority, oldest pending task
// whose zone (if any) has no other task currently running, marks it
// running, and returns it. Returns nil, nil if nothing is claimable —
// matching §4.6's "no two tasks for the same zone run concurrently."
func (s *Store) ClaimNextTask(now time.Time) (*model.Task, error) {
	tx, err := s.DB.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	row := tx.QueryRow(`
		SELECT id, zone_name, operation, priority, status, created_by, metadata_json, created_at
		FROM tasks
		WHERE status = 'pending'
		AND (
			zone_name = '' OR zone_name NOT IN (
				SELECT zone_name FROM tasks WHERE status = 'running' AND zone_name != ''
			)
		)
		ORDER BY ` + priorityRank + `, created_at ASC
		LIMIT 1
	`)

	var t model.Task
	err = row.Scan(&t.ID, &t.ZoneName, &t.Operation, &t.Priority, &t.Status,
		&t.CreatedBy, &t.MetadataJSON, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select claimable task: %w", err)
	}

	if _, err := tx.Exec(`UPDATE tasks SET status = 'running', started_at = ? WHERE id = ?`, now, t.ID); err != nil {
		return nil, fmt.Errorf("mark task %d running: %w", t.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	t.Status = "running"
	t.StartedAt = &now
	return &t, nil
}

// UpdateTaskStatus records the terminal outcome of a task (completed,
// failed, or cancelled), along with its result or error text.
func (s *Store) UpdateTaskStatus(id int64, status, result, errText string, completedAt time.Time) error {
	_, err := s.DB.Exec(`
		UPDATE tasks SET status = ?, result = ?, error = ?, completed_at = ? WHERE id = ?
	`, status, result, errText, completedAt, id)
	if err != nil {
		return fmt.Errorf("update task %d status: %w", id, err)
	}
	return nil
}

// CancelStaleTasks marks every pending or running task as cancelled —
// called once at startup, since a restarted process cannot know
// whether an in-flight task's underlying system command completed.
func (s *Store) CancelStaleTasks(now time.Time) (int64, error) {
	res, err := s.DB.Exec(`
		UPDATE tasks SET status = 'cancelled', error = 'cancelled on restart', completed_at = ?
		WHERE status IN ('pending', 'running')
	`, now)
	if err != nil {
		return 0, fmt.Errorf("cancel stale tasks: %w", err)
	}
	return res.RowsAffected()
}

// TaskFilter narrows ListTasks by zone and/or status; empty fields
// are not applied.
type TaskFilter struct {
	ZoneName string
	Status   string
	Limit    int
}

// ListTasks returns tasks matching filter, most recently created
// first.
func (s *Store) ListTasks(f TaskFilter) ([]model.Task, error) {
	query := `
		SELECT id, zone_name, operation, priority, status, created_by, metadata_json,
			result, error, created_at, started_at, completed_at
		FROM tasks WHERE 1=1
	`
	var args []any
	if f.ZoneName != "" {
		query += ` AND zone_name = ?`
		args = append(args, f.ZoneName)
	}
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, f.Status)
	}
	query += ` ORDER BY created_at DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := s.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Task
	for rows.Next() {
		var t model.Task
		var started, completed sql.NullTime
		if err := rows.Scan(&t.ID, &t.ZoneName, &t.Operation, &t.Priority, &t.Status,
			&t.CreatedBy, &t.MetadataJSON, &t.Result, &t.Error, &t.CreatedAt,
			&started, &completed); err != nil {
			return nil, err
		}
		t.StartedAt = nullTimeToPtr(started)
		t.CompletedAt = nullTimeToPtr(completed)
		out = append(out, t)
	}
	return out, rows.Err()
}

// DeleteCompletedTasksOlderThan removes terminal tasks (completed,
// failed, cancelled) past the retention cutoff — invoked by the
// cleanup scheduler.
func (s *Store) DeleteCompletedTasksOlderThan(cutoff time.Time) (int64, error) {
	res, err := s.DB.Exec(`
		DELETE FROM tasks
		WHERE status IN ('completed', 'failed', 'cancelled') AND completed_at < ?
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old tasks: %w", err)
	}
	return res.RowsAffected()
}
