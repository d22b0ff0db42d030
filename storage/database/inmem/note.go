package inmemdb

import (
	"context"
	"sort"

	"github.com/alloyapp/alloy/core/note"
)

type noteRepository struct {
	db *DB
}

var _ note.Repository = (*noteRepository)(nil)

func NewNoteRepository(db *DB) note.Repository {
	return &noteRepository{db: db}
}

func (repo *noteRepository) CreateNote(_ context.Context, n note.Note) (note.Note, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	n.ID = newID()
	repo.db.notes.insert(n.ID, n)
	return n, nil
}

func (repo *noteRepository) QueryNotes(_ context.Context, userID, subjectID string) ([]note.Note, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	notes := reverse(repo.db.notes.filter(func(n note.Note) bool { return n.UserID == userID && n.SubjectID == subjectID }))
	sort.SliceStable(notes, func(i, j int) bool { return notes[i].UpdatedAt.After(notes[j].UpdatedAt) })
	return notes, nil
}

func (repo *noteRepository) GetNote(_ context.Context, userID, id string) (note.Note, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if n, ok := repo.db.notes.get(id); ok && n.UserID == userID {
		return n, nil
	}
	return note.Note{}, note.ErrNotFound
}

func (repo *noteRepository) UpdateNote(_ context.Context, n note.Note) (note.Note, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if orig, ok := repo.db.notes.get(n.ID); !ok || orig.UserID != n.UserID {
		return note.Note{}, note.ErrNotFound
	}
	repo.db.notes.update(n.ID, n)
	return n, nil
}

func (repo *noteRepository) DeleteNote(_ context.Context, userID, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if n, ok := repo.db.notes.get(id); !ok || n.UserID != userID {
		return note.ErrNotFound
	}
	repo.db.notes.deleteWhere(func(n note.Note) bool { return n.ID == id })
	return nil
}
