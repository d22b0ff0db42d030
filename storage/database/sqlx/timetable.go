package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/alloyapp/alloy/core/timetable"
)

const timetableSelect = `SELECT t.id, t.user_id, t.subject_id, s.name AS subject_name, t.day_of_week, t.start_time,
	t.end_time, t.professor, t.location, t.created_at, t.updated_at
	FROM timetable_entries t JOIN subjects s ON s.id = t.subject_id`

type timetableRow struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	SubjectID   string    `db:"subject_id"`
	SubjectName string    `db:"subject_name"`
	DayOfWeek   string    `db:"day_of_week"`
	StartTime   string    `db:"start_time"`
	EndTime     string    `db:"end_time"`
	Professor   string    `db:"professor"`
	Location    string    `db:"location"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r timetableRow) unboil() timetable.Entry {
	e := timetable.Entry(r)
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	return e
}

type timetableRepository struct {
	db *sqlx.DB
}

var _ timetable.Repository = (*timetableRepository)(nil)

func NewTimetableRepository(db *sqlx.DB) timetable.Repository {
	return &timetableRepository{db: db}
}

func (repo *timetableRepository) CreateEntry(ctx context.Context, e timetable.Entry) (timetable.Entry, error) {
	e.ID = newID()
	q := `INSERT INTO timetable_entries (id, user_id, subject_id, day_of_week, start_time, end_time, professor,
		location, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := repo.db.ExecContext(ctx, q,
		e.ID, e.UserID, e.SubjectID, e.DayOfWeek, e.StartTime, e.EndTime, e.Professor, e.Location, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return timetable.Entry{}, errors.Wrap(err, "inserting timetable entry")
	}
	return e, nil
}

func (repo *timetableRepository) QueryEntries(ctx context.Context, userID string) ([]timetable.Entry, error) {
	var rows []timetableRow
	if err := repo.db.SelectContext(ctx, &rows, timetableSelect+" WHERE t.user_id = $1 ORDER BY t.created_at, t.id", userID); err != nil {
		return nil, errors.Wrap(err, "selecting timetable entries")
	}
	entries := make([]timetable.Entry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, r.unboil())
	}
	return entries, nil
}

func (repo *timetableRepository) GetEntry(ctx context.Context, userID, id string) (timetable.Entry, error) {
	if !validID(id) {
		return timetable.Entry{}, timetable.ErrNotFound
	}
	var r timetableRow
	if err := repo.db.GetContext(ctx, &r, timetableSelect+" WHERE t.id = $1 AND t.user_id = $2", id, userID); err != nil {
		return timetable.Entry{}, errors.Wrap(trapNoRowsErr(err, timetable.ErrNotFound), "getting timetable entry")
	}
	return r.unboil(), nil
}

func (repo *timetableRepository) UpdateEntry(ctx context.Context, e timetable.Entry) (timetable.Entry, error) {
	if !validID(e.ID) {
		return timetable.Entry{}, timetable.ErrNotFound
	}
	q := `UPDATE timetable_entries SET subject_id = $3, day_of_week = $4, start_time = $5, end_time = $6,
		professor = $7, location = $8, updated_at = $9 WHERE id = $1 AND user_id = $2`
	res, err := repo.db.ExecContext(ctx, q,
		e.ID, e.UserID, e.SubjectID, e.DayOfWeek, e.StartTime, e.EndTime, e.Professor, e.Location, e.UpdatedAt,
	)
	if err != nil {
		return timetable.Entry{}, errors.Wrap(err, "updating timetable entry")
	}
	if err = checkAffected(res, timetable.ErrNotFound); err != nil {
		return timetable.Entry{}, err
	}
	return e, nil
}

func (repo *timetableRepository) DeleteEntry(ctx context.Context, userID, id string) error {
	if !validID(id) {
		return timetable.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, "DELETE FROM timetable_entries WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return errors.Wrap(err, "deleting timetable entry")
	}
	return checkAffected(res, timetable.ErrNotFound)
}
