package attendance

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/alloyapp/alloy/core"
	"github.com/alloyapp/alloy/core/subject"
)

var NowFunc = time.Now // mockable

type (
	Repository interface {
		// UpsertRecord inserts the Record, or updates the status of the one sharing its user, subject and date.
		UpsertRecord(ctx context.Context, rec Record) (Record, error)
		// QueryRecords lists matching records by date, oldest first.
		QueryRecords(ctx context.Context, filter Filter) ([]Record, error)
		CountRecords(ctx context.Context, userID, subjectID string) (total int, attended int, err error)
	}

	Service struct {
		repo     Repository
		subjects subject.Finder
	}
)

func NewService(repo Repository, subjects subject.Finder) *Service {
	return &Service{repo: repo, subjects: subjects}
}

// Mark creates or overwrites the caller's record for the subject on the given date.
func (svc *Service) Mark(ctx context.Context, userID string, m Mark) (Record, error) {
	if _, err := subject.CheckOwned(ctx, svc.subjects, userID, m.SubjectID); err != nil {
		return Record{}, err
	}

	date := m.date
	if date.IsZero() {
		date = core.StartOfDay(NowFunc())
	}
	now := NowFunc().UTC()
	rec := Record{
		UserID:    userID,
		SubjectID: m.SubjectID,
		Date:      date,
		Status:    m.Status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.UpsertRecord(ctx, rec)
}

func (svc *Service) List(ctx context.Context, userID string) ([]Record, error) {
	return svc.repo.QueryRecords(ctx, Filter{UserID: userID})
}

func (svc *Service) ListBySubject(ctx context.Context, userID, subjectID string) ([]Record, error) {
	return svc.repo.QueryRecords(ctx, Filter{UserID: userID, SubjectID: subjectID})
}

func (svc *Service) Stats(ctx context.Context, userID, subjectID string) (Stats, error) {
	total, attended, err := svc.repo.CountRecords(ctx, userID, subjectID)
	if err != nil {
		return Stats{}, errors.Wrap(err, "counting attendance records")
	}
	return computeStats(total, attended), nil
}

// computeStats rounds the attendance percentage to 2 decimals; no classes means 0%.
func computeStats(total, attended int) Stats {
	stats := Stats{TotalClasses: total, AttendedClasses: attended}
	if total > 0 {
		p := float64(attended) / float64(total) * 100
		stats.Percentage = math.Round(p*100) / 100
	}
	return stats
}
