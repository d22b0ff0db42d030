package inmemdb

import (
	"context"

	"github.com/alloyapp/alloy/core/timetable"
)

type timetableRepository struct {
	db *DB
}

var _ timetable.Repository = (*timetableRepository)(nil)

func NewTimetableRepository(db *DB) timetable.Repository {
	return &timetableRepository{db: db}
}

// withSubjectName expects the caller to hold the lock.
func (repo *timetableRepository) withSubjectName(e timetable.Entry) timetable.Entry {
	if sub, ok := repo.db.subjects.get(e.SubjectID); ok {
		e.SubjectName = sub.Name
	}
	return e
}

func (repo *timetableRepository) CreateEntry(_ context.Context, e timetable.Entry) (timetable.Entry, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	e.ID = newID()
	e.SubjectName = ""
	repo.db.timetable.insert(e.ID, e)
	return repo.withSubjectName(e), nil
}

func (repo *timetableRepository) QueryEntries(_ context.Context, userID string) ([]timetable.Entry, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	entries := repo.db.timetable.filter(func(e timetable.Entry) bool { return e.UserID == userID })
	for i := range entries {
		entries[i] = repo.withSubjectName(entries[i])
	}
	return entries, nil
}

func (repo *timetableRepository) GetEntry(_ context.Context, userID, id string) (timetable.Entry, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if e, ok := repo.db.timetable.get(id); ok && e.UserID == userID {
		return repo.withSubjectName(e), nil
	}
	return timetable.Entry{}, timetable.ErrNotFound
}

func (repo *timetableRepository) UpdateEntry(_ context.Context, e timetable.Entry) (timetable.Entry, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if orig, ok := repo.db.timetable.get(e.ID); !ok || orig.UserID != e.UserID {
		return timetable.Entry{}, timetable.ErrNotFound
	}
	e.SubjectName = ""
	repo.db.timetable.update(e.ID, e)
	return repo.withSubjectName(e), nil
}

func (repo *timetableRepository) DeleteEntry(_ context.Context, userID, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if e, ok := repo.db.timetable.get(id); !ok || e.UserID != userID {
		return timetable.ErrNotFound
	}
	repo.db.timetable.deleteWhere(func(e timetable.Entry) bool { return e.ID == id })
	return nil
}
