package inmemdb

import (
	"context"

	"github.com/alloyapp/alloy/core/task"
)

type taskRepository struct {
	db *DB
}

var _ task.Repository = (*taskRepository)(nil)

func NewTaskRepository(db *DB) task.Repository {
	return &taskRepository{db: db}
}

func (repo *taskRepository) CreateTask(_ context.Context, t task.Task) (task.Task, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	t.ID = newID()
	repo.db.tasks.insert(t.ID, t)
	return t, nil
}

func (repo *taskRepository) QueryTasks(_ context.Context, filter task.Filter) ([]task.Task, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	return repo.db.tasks.filter(func(t task.Task) bool {
		if t.UserID != filter.UserID {
			return false
		}
		if filter.Status != "" && t.Status != filter.Status {
			return false
		}
		if filter.DueFrom.Valid && (!t.DueDate.Valid || t.DueDate.Time.Before(filter.DueFrom.Time)) {
			return false
		}
		if filter.DueUntil.Valid && (!t.DueDate.Valid || !t.DueDate.Time.Before(filter.DueUntil.Time)) {
			return false
		}
		return true
	}), nil
}

func (repo *taskRepository) GetTask(_ context.Context, userID, id string) (task.Task, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if t, ok := repo.db.tasks.get(id); ok && t.UserID == userID {
		return t, nil
	}
	return task.Task{}, task.ErrNotFound
}

func (repo *taskRepository) UpdateTask(_ context.Context, t task.Task) (task.Task, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if orig, ok := repo.db.tasks.get(t.ID); !ok || orig.UserID != t.UserID {
		return task.Task{}, task.ErrNotFound
	}
	repo.db.tasks.update(t.ID, t)
	return t, nil
}

func (repo *taskRepository) DeleteTask(_ context.Context, userID, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if t, ok := repo.db.tasks.get(id); !ok || t.UserID != userID {
		return task.ErrNotFound
	}
	repo.db.tasks.deleteWhere(func(t task.Task) bool { return t.ID == id })
	return nil
}
