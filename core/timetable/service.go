package timetable

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/alloyapp/alloy/core"
	"github.com/alloyapp/alloy/core/subject"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound     = core.NewNotFoundError("timetable entry")
	errInvalidTimes = errors.New("endTime must be after startTime")
)

type (
	Repository interface {
		CreateEntry(ctx context.Context, e Entry) (Entry, error)
		// QueryEntries lists the user's entries in creation order, with their subject names.
		QueryEntries(ctx context.Context, userID string) ([]Entry, error)
		GetEntry(ctx context.Context, userID, id string) (Entry, error)
		UpdateEntry(ctx context.Context, e Entry) (Entry, error)
		DeleteEntry(ctx context.Context, userID, id string) error
	}

	Service struct {
		repo     Repository
		subjects subject.Finder
	}
)

func NewService(repo Repository, subjects subject.Finder) *Service {
	return &Service{repo: repo, subjects: subjects}
}

func (svc *Service) Create(ctx context.Context, userID string, ne NewEntry) (Entry, error) {
	sub, err := subject.CheckOwned(ctx, svc.subjects, userID, ne.SubjectID)
	if err != nil {
		return Entry{}, err
	}

	now := NowFunc().UTC()
	e := Entry{
		UserID:      userID,
		SubjectID:   sub.ID,
		SubjectName: sub.Name,
		DayOfWeek:   ne.DayOfWeek,
		StartTime:   ne.StartTime,
		EndTime:     ne.EndTime,
		Professor:   ne.Professor,
		Location:    ne.Location,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err = e.checkTimes(); err != nil {
		return Entry{}, err
	}
	return svc.repo.CreateEntry(ctx, e)
}

func (svc *Service) List(ctx context.Context, userID string) ([]Entry, error) {
	return svc.repo.QueryEntries(ctx, userID)
}

func (svc *Service) Get(ctx context.Context, userID, id string) (Entry, error) {
	return svc.repo.GetEntry(ctx, userID, id)
}

func (svc *Service) Update(ctx context.Context, e Entry, ue UpdateEntry) (Entry, error) {
	ue.apply(&e)
	if ue.SubjectID != nil {
		sub, err := subject.CheckOwned(ctx, svc.subjects, e.UserID, e.SubjectID)
		if err != nil {
			return Entry{}, err
		}
		e.SubjectName = sub.Name
	}
	if err := e.checkTimes(); err != nil {
		return Entry{}, err
	}
	e.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpdateEntry(ctx, e)
}

func (svc *Service) Delete(ctx context.Context, userID, id string) error {
	return svc.repo.DeleteEntry(ctx, userID, id)
}
