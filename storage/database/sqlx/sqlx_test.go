package sqlxrepos

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/alloyapp/alloy/core/attendance"
	"github.com/alloyapp/alloy/core/subject"
	"github.com/alloyapp/alloy/core/task"
	"github.com/alloyapp/alloy/core/user"
)

const (
	testUserID    = "0b0c6a52-5d87-4b6e-9c9e-2d7a1f0a0001"
	testSubjectID = "0b0c6a52-5d87-4b6e-9c9e-2d7a1f0a0002"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func exact(q string) string { return "^" + regexp.QuoteMeta(q) + "$" }

func TestSubjectRepository_DeleteSubject(t *testing.T) {
	ctx := context.Background()
	lockQ := exact("SELECT id FROM subjects WHERE id = $1 AND user_id = $2 FOR UPDATE")
	pathsQ := exact("SELECT file_path FROM documents WHERE subject_id = $1")
	deleteQ := exact("DELETE FROM subjects WHERE id = $1")

	t.Run("cascades in one transaction", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(lockQ).WithArgs(testSubjectID, testUserID).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(testSubjectID))
		mock.ExpectQuery(pathsQ).WithArgs(testSubjectID).
			WillReturnRows(sqlmock.NewRows([]string{"file_path"}).AddRow("uploads/a.pdf").AddRow("uploads/b.png"))
		for _, q := range subjectSweep {
			mock.ExpectExec(exact(q)).WithArgs(testSubjectID).WillReturnResult(sqlmock.NewResult(0, 2))
		}
		mock.ExpectExec(deleteQ).WithArgs(testSubjectID).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		paths, err := NewSubjectRepository(db).DeleteSubject(ctx, testUserID, testSubjectID)
		require.NoError(t, err)
		assert.Equal(t, []string{"uploads/a.pdf", "uploads/b.png"}, paths)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failed sweep keeps the subject", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(lockQ).WithArgs(testSubjectID, testUserID).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(testSubjectID))
		mock.ExpectQuery(pathsQ).WithArgs(testSubjectID).
			WillReturnRows(sqlmock.NewRows([]string{"file_path"}))
		mock.ExpectExec(exact(subjectSweep[0])).WithArgs(testSubjectID).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(exact(subjectSweep[1])).WithArgs(testSubjectID).WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		paths, err := NewSubjectRepository(db).DeleteSubject(ctx, testUserID, testSubjectID)
		assert.Error(t, err)
		assert.Nil(t, paths)
		// no DELETE FROM subjects was issued and the transaction was rolled back
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not owned", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(lockQ).WithArgs(testSubjectID, testUserID).WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		_, err := NewSubjectRepository(db).DeleteSubject(ctx, testUserID, testSubjectID)
		assert.Equal(t, subject.ErrNotFound, errors.Cause(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("malformed id", func(t *testing.T) {
		db, mock := newMock(t)
		_, err := NewSubjectRepository(db).DeleteSubject(ctx, testUserID, "nope")
		assert.Equal(t, subject.ErrNotFound, errors.Cause(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_DeleteUser(t *testing.T) {
	ctx := context.Background()
	lockQ := exact("SELECT id FROM users WHERE id = $1 FOR UPDATE")
	pathsQ := exact("SELECT file_path FROM documents WHERE user_id = $1")

	t.Run("sweeps every table", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(lockQ).WithArgs(testUserID).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(testUserID))
		mock.ExpectQuery(pathsQ).WithArgs(testUserID).WillReturnRows(sqlmock.NewRows([]string{"file_path"}).AddRow("uploads/c.txt"))
		for _, q := range userSweep {
			mock.ExpectExec(exact(q)).WithArgs(testUserID).WillReturnResult(sqlmock.NewResult(0, 1))
		}
		mock.ExpectExec(exact("DELETE FROM users WHERE id = $1")).WithArgs(testUserID).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		paths, err := NewUserRepository(db).DeleteUser(ctx, testUserID)
		require.NoError(t, err)
		assert.Equal(t, []string{"uploads/c.txt"}, paths)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback on failure", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(lockQ).WithArgs(testUserID).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(testUserID))
		mock.ExpectQuery(pathsQ).WithArgs(testUserID).WillReturnRows(sqlmock.NewRows([]string{"file_path"}))
		mock.ExpectExec(exact(userSweep[0])).WithArgs(testUserID).WillReturnError(errors.New("deadlock detected"))
		mock.ExpectRollback()

		_, err := NewUserRepository(db).DeleteUser(ctx, testUserID)
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_CreateUserConflict(t *testing.T) {
	tests := []struct {
		name       string
		constraint string
		wantErr    error
	}{
		{name: "email", constraint: emailConstraint, wantErr: user.ErrEmailExists},
		{name: "username", constraint: usernameConstraint, wantErr: user.ErrUsernameExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMock(t)
			mock.ExpectExec("INSERT INTO users").
				WillReturnError(&pq.Error{Code: uniqueViolationCode, Constraint: tt.constraint})

			now := time.Now().UTC()
			_, err := NewUserRepository(db).CreateUser(context.Background(), user.User{
				Username: "jane", Email: "jane@test.test", PasswordHash: []byte("x"), CreatedAt: now, UpdatedAt: now,
			})
			assert.Equal(t, tt.wantErr, errors.Cause(err))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_GetUserNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("SELECT .+ FROM users WHERE email = \\$1 LIMIT 1").
		WithArgs("ghost@test.test").
		WillReturnError(sql.ErrNoRows)

	_, err := NewUserRepository(db).GetUser(context.Background(), user.GetFilter{Email: "Ghost@Test.test"})
	assert.Equal(t, user.ErrNotFound, errors.Cause(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepository_CountRecords(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) AS total, COUNT\\(\\*\\) FILTER \\(WHERE status = \\$3\\) AS attended").
		WithArgs(testUserID, testSubjectID, attendance.StatusAttended).
		WillReturnRows(sqlmock.NewRows([]string{"total", "attended"}).AddRow(4, 3))

	total, attended, err := NewAttendanceRepository(db).CountRecords(context.Background(), testUserID, testSubjectID)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Equal(t, 3, attended)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepository_UpsertRecord(t *testing.T) {
	db, mock := newMock(t)
	now := time.Date(2021, 3, 2, 15, 4, 5, 0, time.UTC)
	day := time.Date(2021, 3, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO attendance_records .+ ON CONFLICT ON CONSTRAINT attendance_records_user_subject_date_key").
		WithArgs(sqlmock.AnyArg(), testUserID, testSubjectID, "2021-03-02", attendance.StatusMissed, now, now).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "subject_id", "date", "status", "created_at", "updated_at"}).
			AddRow("rec-1", testUserID, testSubjectID, day, attendance.StatusMissed, now, now))

	rec, err := NewAttendanceRepository(db).UpsertRecord(context.Background(), attendance.Record{
		UserID: testUserID, SubjectID: testSubjectID, Date: day, Status: attendance.StatusMissed, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	assert.Equal(t, "rec-1", rec.ID)
	assert.Equal(t, day, rec.Date)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_QueryTasks(t *testing.T) {
	db, mock := newMock(t)
	day := time.Date(2021, 3, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(exact("SELECT "+taskColumns+" FROM tasks WHERE user_id = $1 AND status = $2 AND due_date >= $3 AND due_date < $4 ORDER BY created_at, id")).
		WithArgs(testUserID, task.StatusDone, day, day.AddDate(0, 0, 1)).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "subject_id", "description", "status", "priority", "due_date", "start_time", "end_time",
			"created_at", "updated_at",
		}).AddRow("t1", testUserID, nil, "read", task.StatusDone, task.PriorityLow, day.Add(3*time.Hour), nil, nil, day, day))

	tasks, err := NewTaskRepository(db).QueryTasks(context.Background(), task.Filter{
		UserID:   testUserID,
		Status:   task.StatusDone,
		DueFrom:  null.TimeFrom(day),
		DueUntil: null.TimeFrom(day.AddDate(0, 0, 1)),
	})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.False(t, tasks[0].SubjectID.Valid)
	assert.Equal(t, day.Add(3*time.Hour), tasks[0].DueDate.Time)
	assert.NoError(t, mock.ExpectationsWereMet())
}
