package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/alloyapp/alloy/core/note"
)

const noteColumns = "id, user_id, subject_id, title, content, created_at, updated_at"

type noteRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	SubjectID string    `db:"subject_id"`
	Title     string    `db:"title"`
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r noteRow) unboil() note.Note {
	n := note.Note(r)
	n.CreatedAt = n.CreatedAt.UTC()
	n.UpdatedAt = n.UpdatedAt.UTC()
	return n
}

type noteRepository struct {
	db *sqlx.DB
}

var _ note.Repository = (*noteRepository)(nil)

func NewNoteRepository(db *sqlx.DB) note.Repository {
	return &noteRepository{db: db}
}

func (repo *noteRepository) CreateNote(ctx context.Context, n note.Note) (note.Note, error) {
	n.ID = newID()
	q := "INSERT INTO notes (" + noteColumns + ") VALUES ($1, $2, $3, $4, $5, $6, $7)"
	if _, err := repo.db.ExecContext(ctx, q, n.ID, n.UserID, n.SubjectID, n.Title, n.Content, n.CreatedAt, n.UpdatedAt); err != nil {
		return note.Note{}, errors.Wrap(err, "inserting note")
	}
	return n, nil
}

func (repo *noteRepository) QueryNotes(ctx context.Context, userID, subjectID string) ([]note.Note, error) {
	if !validID(subjectID) {
		return []note.Note{}, nil
	}
	var rows []noteRow
	q := "SELECT " + noteColumns + " FROM notes WHERE user_id = $1 AND subject_id = $2 ORDER BY updated_at DESC, id"
	if err := repo.db.SelectContext(ctx, &rows, q, userID, subjectID); err != nil {
		return nil, errors.Wrap(err, "selecting notes")
	}
	notes := make([]note.Note, 0, len(rows))
	for _, r := range rows {
		notes = append(notes, r.unboil())
	}
	return notes, nil
}

func (repo *noteRepository) GetNote(ctx context.Context, userID, id string) (note.Note, error) {
	if !validID(id) {
		return note.Note{}, note.ErrNotFound
	}
	var r noteRow
	q := "SELECT " + noteColumns + " FROM notes WHERE id = $1 AND user_id = $2"
	if err := repo.db.GetContext(ctx, &r, q, id, userID); err != nil {
		return note.Note{}, errors.Wrap(trapNoRowsErr(err, note.ErrNotFound), "getting note")
	}
	return r.unboil(), nil
}

func (repo *noteRepository) UpdateNote(ctx context.Context, n note.Note) (note.Note, error) {
	if !validID(n.ID) {
		return note.Note{}, note.ErrNotFound
	}
	q := "UPDATE notes SET title = $3, content = $4, updated_at = $5 WHERE id = $1 AND user_id = $2"
	res, err := repo.db.ExecContext(ctx, q, n.ID, n.UserID, n.Title, n.Content, n.UpdatedAt)
	if err != nil {
		return note.Note{}, errors.Wrap(err, "updating note")
	}
	if err = checkAffected(res, note.ErrNotFound); err != nil {
		return note.Note{}, err
	}
	return n, nil
}

func (repo *noteRepository) DeleteNote(ctx context.Context, userID, id string) error {
	if !validID(id) {
		return note.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, "DELETE FROM notes WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return errors.Wrap(err, "deleting note")
	}
	return checkAffected(res, note.ErrNotFound)
}
