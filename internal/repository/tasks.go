package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/landmark/pkg/types"
)

const taskColumns = `t.id AS id, t.feature_id AS feature_id, t.title AS title,
       t.description AS description, t.status AS status, t.priority AS priority,
       t.due_date AS due_date, t.tags AS tags, t.created_at AS created_at,
       t.updated_at AS updated_at, t.completed_at AS completed_at`

// taskOrder ranks active work first, then planned, done and abandoned;
// within a status higher priority comes first and unprioritised tasks last.
const taskOrder = `ORDER BY
    CASE t.status
        WHEN 'active' THEN 1
        WHEN 'planned' THEN 2
        WHEN 'done' THEN 3
        WHEN 'abandoned' THEN 4
    END,
    t.priority DESC NULLS LAST,
    t.created_at DESC`

// TasksTable reads and writes tasks.
type TasksTable struct {
	*env
}

// GetByFeatureID returns a feature's tasks in work order.
func (t *TasksTable) GetByFeatureID(ctx context.Context, featureID string) ([]types.Task, error) {
	return t.Filter(ctx, types.TaskFilter{FeatureID: featureID})
}

// GetAll returns every task in work order.
func (t *TasksTable) GetAll(ctx context.Context) ([]types.Task, error) {
	return t.Filter(ctx, types.TaskFilter{})
}

// GetByStatus returns tasks in one status by priority, then newest first.
func (t *TasksTable) GetByStatus(ctx context.Context, status types.TaskStatus) ([]types.Task, error) {
	return t.query(ctx, "SELECT "+taskColumns+` FROM tasks t WHERE t.status = ?
ORDER BY t.priority DESC NULLS LAST, t.created_at DESC`, string(status))
}

// Overdue returns open tasks whose due date has passed, earliest first.
func (t *TasksTable) Overdue(ctx context.Context) ([]types.Task, error) {
	return t.query(ctx, "SELECT "+taskColumns+` FROM tasks t
WHERE t.due_date < date('now') AND t.status NOT IN ('done', 'abandoned')
ORDER BY t.due_date ASC`)
}

// Filter returns the tasks matching every set field of f in work order.
// Tags match when any of them is present.
func (t *TasksTable) Filter(ctx context.Context, f types.TaskFilter) ([]types.Task, error) {
	query := "SELECT " + taskColumns + " FROM tasks t"
	var conds []string
	var args []any

	if f.GeometryType != "" {
		query += " JOIN features f ON t.feature_id = f.id"
		conds = append(conds, "f.geometry_type = ?")
		args = append(args, string(f.GeometryType))
	}
	if len(f.Statuses) > 0 {
		conds = append(conds, "t.status IN ("+placeholders(len(f.Statuses))+")")
		for _, s := range f.Statuses {
			args = append(args, string(s))
		}
	}
	if f.FeatureID != "" {
		conds = append(conds, "t.feature_id = ?")
		args = append(args, f.FeatureID)
	}
	if len(f.Tags) > 0 {
		tagConds := make([]string, len(f.Tags))
		for i, tag := range f.Tags {
			tagConds[i] = "t.tags LIKE ?"
			args = append(args, tagPattern(tag))
		}
		conds = append(conds, "("+strings.Join(tagConds, " OR ")+")")
	}
	if f.HasDueDate != nil {
		if *f.HasDueDate {
			conds = append(conds, "t.due_date IS NOT NULL")
		} else {
			conds = append(conds, "t.due_date IS NULL")
		}
	}
	if f.Overdue {
		conds = append(conds, "t.due_date < date('now') AND t.status NOT IN ('done', 'abandoned')")
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	return t.query(ctx, query+" "+taskOrder, args...)
}

// GetByID returns the task or a NotFoundError.
func (t *TasksTable) GetByID(ctx context.Context, id string) (*types.Task, error) {
	row, err := t.db.Get(ctx, "SELECT "+taskColumns+" FROM tasks t WHERE t.id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("getting task %s: %w", id, err)
	}
	if row == nil {
		return nil, types.NotFound("task", id)
	}
	return hydrateTask(row)
}

func (t *TasksTable) query(ctx context.Context, query string, args ...any) ([]types.Task, error) {
	rows, err := t.db.All(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	out := make([]types.Task, 0, len(rows))
	for _, row := range rows {
		task, err := hydrateTask(row)
		if err != nil {
			return nil, err
		}
		out = append(out, *task)
	}
	return out, nil
}

// Create validates and inserts a task. The status defaults to planned.
func (t *TasksTable) Create(ctx context.Context, in types.CreateTaskInput) (*types.Task, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	status := in.Status
	if status == "" {
		status = types.TaskPlanned
	}
	tags, err := encodeTags(in.Tags)
	if err != nil {
		return nil, err
	}
	var completedAt any
	now := t.stamp()
	if status == types.TaskDone {
		completedAt = now
	}

	id := t.newID()
	err = t.db.Run(ctx, `INSERT INTO tasks (
    id, feature_id, title, description, status,
    priority, due_date, tags, created_at, updated_at, completed_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, in.FeatureID, in.Title, arg(in.Description), string(status),
		arg(in.Priority), timeArg(in.DueDate), tags, now, now, completedAt)
	if err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}
	return t.GetByID(ctx, id)
}

// Update applies a partial update. completed_at is stamped when the status
// moves into done and is otherwise left as stored.
func (t *TasksTable) Update(ctx context.Context, id string, in types.UpdateTaskInput) (*types.Task, error) {
	existing, err := t.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	tags, err := optEncode(in.Tags, in.Tags != nil)
	if err != nil {
		return nil, err
	}
	now := t.stamp()
	var completedAt any
	if in.Status != nil && *in.Status == types.TaskDone && existing.Status != types.TaskDone {
		completedAt = now
	}

	err = t.db.Run(ctx, `UPDATE tasks SET
    title = COALESCE(?, title),
    description = COALESCE(?, description),
    status = COALESCE(?, status),
    priority = COALESCE(?, priority),
    due_date = COALESCE(?, due_date),
    tags = COALESCE(?, tags),
    updated_at = ?,
    completed_at = COALESCE(?, completed_at)
WHERE id = ?`,
		arg(in.Title), arg(in.Description), arg(in.Status), arg(in.Priority),
		timeArg(in.DueDate), tags, now, completedAt, id)
	if err != nil {
		return nil, fmt.Errorf("updating task %s: %w", id, err)
	}
	return t.GetByID(ctx, id)
}

// Delete removes a task.
func (t *TasksTable) Delete(ctx context.Context, id string) error {
	if _, err := t.GetByID(ctx, id); err != nil {
		return err
	}
	if err := t.db.Run(ctx, "DELETE FROM tasks WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting task %s: %w", id, err)
	}
	return nil
}

// Count returns the number of tasks, optionally narrowed by feature and
// status.
func (t *TasksTable) Count(ctx context.Context, featureID string, status types.TaskStatus) (int, error) {
	query := "SELECT COUNT(*) AS count FROM tasks"
	var conds []string
	var args []any
	if featureID != "" {
		conds = append(conds, "feature_id = ?")
		args = append(args, featureID)
	}
	if status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(status))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	row, err := t.db.Get(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("counting tasks: %w", err)
	}
	return count(row), nil
}

func hydrateTask(r types.Row) (*types.Task, error) {
	task := &types.Task{
		ID:          str(r, "id"),
		FeatureID:   str(r, "feature_id"),
		Title:       str(r, "title"),
		Description: optStr(r, "description"),
		Status:      types.TaskStatus(str(r, "status")),
		Priority:    optInt(r, "priority"),
	}
	var err error
	if task.DueDate, err = optTimestamp(r, "due_date"); err != nil {
		return nil, err
	}
	if task.Tags, err = decodeTags(r, "tags"); err != nil {
		return nil, err
	}
	if task.CreatedAt, err = timestamp(r, "created_at"); err != nil {
		return nil, err
	}
	if task.UpdatedAt, err = timestamp(r, "updated_at"); err != nil {
		return nil, err
	}
	if task.CompletedAt, err = optTimestamp(r, "completed_at"); err != nil {
		return nil, err
	}
	return task, nil
}
