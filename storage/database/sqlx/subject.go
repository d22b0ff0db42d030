package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/alloyapp/alloy/core/subject"
	"github.com/alloyapp/alloy/storage/database"
)

const subjectColumns = "id, user_id, name, required_percentage, created_at, updated_at"

// subjectSweep deletes every row referencing a subject.
var subjectSweep = []string{
	"DELETE FROM timetable_entries WHERE subject_id = $1",
	"DELETE FROM notes WHERE subject_id = $1",
	"DELETE FROM attendance_records WHERE subject_id = $1",
	"DELETE FROM documents WHERE subject_id = $1",
	"DELETE FROM tasks WHERE subject_id = $1",
}

type subjectRow struct {
	ID                 string    `db:"id"`
	UserID             string    `db:"user_id"`
	Name               string    `db:"name"`
	RequiredPercentage float64   `db:"required_percentage"`
	CreatedAt          time.Time `db:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"`
}

func (r subjectRow) unboil() subject.Subject {
	sub := subject.Subject(r)
	sub.CreatedAt = sub.CreatedAt.UTC()
	sub.UpdatedAt = sub.UpdatedAt.UTC()
	return sub
}

type subjectRepository struct {
	db *sqlx.DB
}

var _ subject.Repository = (*subjectRepository)(nil)

func NewSubjectRepository(db *sqlx.DB) subject.Repository {
	return &subjectRepository{db: db}
}

func (repo *subjectRepository) CreateSubject(ctx context.Context, sub subject.Subject) (subject.Subject, error) {
	sub.ID = newID()
	q := "INSERT INTO subjects (" + subjectColumns + ") VALUES ($1, $2, $3, $4, $5, $6)"
	if _, err := repo.db.ExecContext(ctx, q, sub.ID, sub.UserID, sub.Name, sub.RequiredPercentage, sub.CreatedAt, sub.UpdatedAt); err != nil {
		return subject.Subject{}, errors.Wrap(err, "inserting subject")
	}
	return sub, nil
}

func (repo *subjectRepository) QuerySubjects(ctx context.Context, userID string) ([]subject.Subject, error) {
	var rows []subjectRow
	q := "SELECT " + subjectColumns + " FROM subjects WHERE user_id = $1 ORDER BY created_at, id"
	if err := repo.db.SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, errors.Wrap(err, "selecting subjects")
	}
	subjects := make([]subject.Subject, 0, len(rows))
	for _, r := range rows {
		subjects = append(subjects, r.unboil())
	}
	return subjects, nil
}

func (repo *subjectRepository) GetSubject(ctx context.Context, userID, id string) (subject.Subject, error) {
	if !validID(id) {
		return subject.Subject{}, subject.ErrNotFound
	}
	var r subjectRow
	q := "SELECT " + subjectColumns + " FROM subjects WHERE id = $1 AND user_id = $2"
	if err := repo.db.GetContext(ctx, &r, q, id, userID); err != nil {
		return subject.Subject{}, errors.Wrap(trapNoRowsErr(err, subject.ErrNotFound), "getting subject")
	}
	return r.unboil(), nil
}

func (repo *subjectRepository) UpdateSubject(ctx context.Context, sub subject.Subject) (subject.Subject, error) {
	if !validID(sub.ID) {
		return subject.Subject{}, subject.ErrNotFound
	}
	q := "UPDATE subjects SET name = $3, required_percentage = $4, updated_at = $5 WHERE id = $1 AND user_id = $2"
	res, err := repo.db.ExecContext(ctx, q, sub.ID, sub.UserID, sub.Name, sub.RequiredPercentage, sub.UpdatedAt)
	if err != nil {
		return subject.Subject{}, errors.Wrap(err, "updating subject")
	}
	if err = checkAffected(res, subject.ErrNotFound); err != nil {
		return subject.Subject{}, err
	}
	return sub, nil
}

func (repo *subjectRepository) DeleteSubject(ctx context.Context, userID, id string) ([]string, error) {
	if !validID(id) {
		return nil, subject.ErrNotFound
	}
	var paths []string
	err := database.WithTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		var found string
		q := "SELECT id FROM subjects WHERE id = $1 AND user_id = $2 FOR UPDATE"
		if err := tx.GetContext(ctx, &found, q, id, userID); err != nil {
			return errors.Wrap(trapNoRowsErr(err, subject.ErrNotFound), "locking subject")
		}
		if err := tx.SelectContext(ctx, &paths, "SELECT file_path FROM documents WHERE subject_id = $1", id); err != nil {
			return errors.Wrap(err, "listing document files")
		}
		for _, q := range subjectSweep {
			if _, err := tx.ExecContext(ctx, q, id); err != nil {
				return errors.Wrapf(err, "sweeping subject data (%s)", q)
			}
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM subjects WHERE id = $1", id); err != nil {
			return errors.Wrap(err, "deleting subject")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}
