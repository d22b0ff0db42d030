package inmemdb

import (
	"context"

	"github.com/alloyapp/alloy/core/attendance"
	"github.com/alloyapp/alloy/core/document"
	"github.com/alloyapp/alloy/core/note"
	"github.com/alloyapp/alloy/core/subject"
	"github.com/alloyapp/alloy/core/task"
	"github.com/alloyapp/alloy/core/timetable"
)

type subjectRepository struct {
	db *DB
}

var _ subject.Repository = (*subjectRepository)(nil)

func NewSubjectRepository(db *DB) subject.Repository {
	return &subjectRepository{db: db}
}

func (repo *subjectRepository) CreateSubject(_ context.Context, sub subject.Subject) (subject.Subject, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	sub.ID = newID()
	repo.db.subjects.insert(sub.ID, sub)
	return sub, nil
}

func (repo *subjectRepository) QuerySubjects(_ context.Context, userID string) ([]subject.Subject, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.db.subjects.filter(func(s subject.Subject) bool { return s.UserID == userID }), nil
}

func (repo *subjectRepository) GetSubject(_ context.Context, userID, id string) (subject.Subject, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if sub, ok := repo.db.subjects.get(id); ok && sub.UserID == userID {
		return sub, nil
	}
	return subject.Subject{}, subject.ErrNotFound
}

func (repo *subjectRepository) UpdateSubject(_ context.Context, sub subject.Subject) (subject.Subject, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if orig, ok := repo.db.subjects.get(sub.ID); !ok || orig.UserID != sub.UserID {
		return subject.Subject{}, subject.ErrNotFound
	}
	repo.db.subjects.update(sub.ID, sub)
	return sub, nil
}

func (repo *subjectRepository) DeleteSubject(_ context.Context, userID, id string) ([]string, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if sub, ok := repo.db.subjects.get(id); !ok || sub.UserID != userID {
		return nil, subject.ErrNotFound
	}

	repo.db.timetable.deleteWhere(func(e timetable.Entry) bool { return e.SubjectID == id })
	repo.db.notes.deleteWhere(func(n note.Note) bool { return n.SubjectID == id })
	repo.db.attendance.deleteWhere(func(r attendance.Record) bool { return r.SubjectID == id })
	docs := repo.db.documents.deleteWhere(func(d document.Document) bool { return d.SubjectID == id })
	repo.db.tasks.deleteWhere(func(t task.Task) bool { return t.SubjectID.Valid && t.SubjectID.String == id })
	repo.db.subjects.deleteWhere(func(s subject.Subject) bool { return s.ID == id })

	return documentPaths(docs), nil
}
