package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/alloyapp/alloy/core/attendance"
)

const attendanceColumns = "id, user_id, subject_id, date, status, created_at, updated_at"

type attendanceRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	SubjectID string    `db:"subject_id"`
	Date      time.Time `db:"date"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r attendanceRow) unboil() attendance.Record {
	rec := attendance.Record(r)
	y, m, d := rec.Date.Date()
	rec.Date = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	return rec
}

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *sqlx.DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) UpsertRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	q := `INSERT INTO attendance_records (` + attendanceColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT ON CONSTRAINT attendance_records_user_subject_date_key
		DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at
		RETURNING ` + attendanceColumns
	var r attendanceRow
	err := repo.db.GetContext(ctx, &r, q,
		newID(), rec.UserID, rec.SubjectID, rec.Date.Format("2006-01-02"), rec.Status, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return attendance.Record{}, errors.Wrap(err, "upserting attendance record")
	}
	return r.unboil(), nil
}

func (repo *attendanceRepository) QueryRecords(ctx context.Context, filter attendance.Filter) ([]attendance.Record, error) {
	q := "SELECT " + attendanceColumns + " FROM attendance_records WHERE user_id = $1"
	args := []interface{}{filter.UserID}
	if filter.SubjectID != "" {
		if !validID(filter.SubjectID) {
			return []attendance.Record{}, nil
		}
		q += " AND subject_id = $2"
		args = append(args, filter.SubjectID)
	}
	q += " ORDER BY date, created_at"

	var rows []attendanceRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting attendance records")
	}
	records := make([]attendance.Record, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.unboil())
	}
	return records, nil
}

func (repo *attendanceRepository) CountRecords(ctx context.Context, userID, subjectID string) (int, int, error) {
	if !validID(subjectID) {
		return 0, 0, nil
	}
	var counts struct {
		Total    int `db:"total"`
		Attended int `db:"attended"`
	}
	q := `SELECT COUNT(*) AS total, COUNT(*) FILTER (WHERE status = $3) AS attended
		FROM attendance_records WHERE user_id = $1 AND subject_id = $2`
	if err := repo.db.GetContext(ctx, &counts, q, userID, subjectID, attendance.StatusAttended); err != nil {
		return 0, 0, errors.Wrap(err, "counting attendance records")
	}
	return counts.Total, counts.Attended, nil
}
