package sqlxrepos

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/alloyapp/alloy/core/task"
)

const taskColumns = "id, user_id, subject_id, description, status, priority, due_date, start_time, end_time, created_at, updated_at"

type taskRow struct {
	ID          string      `db:"id"`
	UserID      string      `db:"user_id"`
	SubjectID   null.String `db:"subject_id"`
	Description string      `db:"description"`
	Status      string      `db:"status"`
	Priority    string      `db:"priority"`
	DueDate     null.Time   `db:"due_date"`
	StartTime   null.Time   `db:"start_time"`
	EndTime     null.Time   `db:"end_time"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
}

func utcNullTime(t null.Time) null.Time {
	if t.Valid {
		t.Time = t.Time.UTC()
	}
	return t
}

func (r taskRow) unboil() task.Task {
	t := task.Task(r)
	t.DueDate = utcNullTime(t.DueDate)
	t.StartTime = utcNullTime(t.StartTime)
	t.EndTime = utcNullTime(t.EndTime)
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return t
}

type taskRepository struct {
	db *sqlx.DB
}

var _ task.Repository = (*taskRepository)(nil)

func NewTaskRepository(db *sqlx.DB) task.Repository {
	return &taskRepository{db: db}
}

func (repo *taskRepository) CreateTask(ctx context.Context, t task.Task) (task.Task, error) {
	t.ID = newID()
	q := "INSERT INTO tasks (" + taskColumns + ") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)"
	_, err := repo.db.ExecContext(ctx, q,
		t.ID, t.UserID, t.SubjectID, t.Description, t.Status, t.Priority, t.DueDate, t.StartTime, t.EndTime,
		t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return task.Task{}, errors.Wrap(err, "inserting task")
	}
	return t, nil
}

func (repo *taskRepository) QueryTasks(ctx context.Context, filter task.Filter) ([]task.Task, error) {
	conds := []string{"user_id = $1"}
	args := []interface{}{filter.UserID}
	addCond := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, strings.Replace(cond, "?", "$"+strconv.Itoa(len(args)), 1))
	}
	if filter.Status != "" {
		addCond("status = ?", filter.Status)
	}
	if filter.DueFrom.Valid {
		addCond("due_date >= ?", filter.DueFrom.Time)
	}
	if filter.DueUntil.Valid {
		addCond("due_date < ?", filter.DueUntil.Time)
	}

	q := "SELECT " + taskColumns + " FROM tasks WHERE " + strings.Join(conds, " AND ") + " ORDER BY created_at, id"
	var rows []taskRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting tasks")
	}
	tasks := make([]task.Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, r.unboil())
	}
	return tasks, nil
}

func (repo *taskRepository) GetTask(ctx context.Context, userID, id string) (task.Task, error) {
	if !validID(id) {
		return task.Task{}, task.ErrNotFound
	}
	var r taskRow
	q := "SELECT " + taskColumns + " FROM tasks WHERE id = $1 AND user_id = $2"
	if err := repo.db.GetContext(ctx, &r, q, id, userID); err != nil {
		return task.Task{}, errors.Wrap(trapNoRowsErr(err, task.ErrNotFound), "getting task")
	}
	return r.unboil(), nil
}

func (repo *taskRepository) UpdateTask(ctx context.Context, t task.Task) (task.Task, error) {
	if !validID(t.ID) {
		return task.Task{}, task.ErrNotFound
	}
	q := `UPDATE tasks SET subject_id = $3, description = $4, status = $5, priority = $6, due_date = $7,
		start_time = $8, end_time = $9, updated_at = $10 WHERE id = $1 AND user_id = $2`
	res, err := repo.db.ExecContext(ctx, q,
		t.ID, t.UserID, t.SubjectID, t.Description, t.Status, t.Priority, t.DueDate, t.StartTime, t.EndTime, t.UpdatedAt,
	)
	if err != nil {
		return task.Task{}, errors.Wrap(err, "updating task")
	}
	if err = checkAffected(res, task.ErrNotFound); err != nil {
		return task.Task{}, err
	}
	return t, nil
}

func (repo *taskRepository) DeleteTask(ctx context.Context, userID, id string) error {
	if !validID(id) {
		return task.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return errors.Wrap(err, "deleting task")
	}
	return checkAffected(res, task.ErrNotFound)
}
