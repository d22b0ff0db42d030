package inmemdb

import (
	"context"
	"sort"

	"github.com/alloyapp/alloy/core/attendance"
)

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) UpsertRecord(_ context.Context, rec attendance.Record) (attendance.Record, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	existing := repo.db.attendance.filter(func(r attendance.Record) bool {
		return r.UserID == rec.UserID && r.SubjectID == rec.SubjectID && r.Date.Equal(rec.Date)
	})
	if len(existing) > 0 {
		orig := existing[0]
		orig.Status = rec.Status
		orig.UpdatedAt = rec.UpdatedAt
		repo.db.attendance.update(orig.ID, orig)
		return orig, nil
	}

	rec.ID = newID()
	repo.db.attendance.insert(rec.ID, rec)
	return rec, nil
}

func (repo *attendanceRepository) QueryRecords(_ context.Context, filter attendance.Filter) ([]attendance.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	records := repo.db.attendance.filter(func(r attendance.Record) bool {
		return r.UserID == filter.UserID && (filter.SubjectID == "" || r.SubjectID == filter.SubjectID)
	})
	sort.SliceStable(records, func(i, j int) bool { return records[i].Date.Before(records[j].Date) })
	return records, nil
}

func (repo *attendanceRepository) CountRecords(_ context.Context, userID, subjectID string) (int, int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var total, attended int
	for _, r := range repo.db.attendance.filter(func(r attendance.Record) bool {
		return r.UserID == userID && r.SubjectID == subjectID
	}) {
		total++
		if r.Status == attendance.StatusAttended {
			attended++
		}
	}
	return total, attended, nil
}
