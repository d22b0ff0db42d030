package subject

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/alloyapp/alloy/core"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound = core.NewNotFoundError("subject")
)

type (
	Repository interface {
		CreateSubject(ctx context.Context, sub Subject) (Subject, error)
		QuerySubjects(ctx context.Context, userID string) ([]Subject, error)
		GetSubject(ctx context.Context, userID, id string) (Subject, error)
		UpdateSubject(ctx context.Context, sub Subject) (Subject, error)
		// DeleteSubject removes the Subject with its timetable entries, notes, attendance records,
		// documents and tasks in a single transaction, and returns the paths of the deleted documents.
		DeleteSubject(ctx context.Context, userID, id string) ([]string, error)
	}

	// Finder resolves a Subject owned by a user.
	Finder interface {
		GetSubject(ctx context.Context, userID, id string) (Subject, error)
	}

	FileRemover interface {
		Remove(path string) error
	}

	Service struct {
		repo   Repository
		files  FileRemover
		logger core.Logger
	}
)

func NewService(repo Repository, files FileRemover, logger core.Logger) *Service {
	return &Service{repo: repo, files: files, logger: logger}
}

// CheckOwned returns the caller's Subject, or a validation error on `subjectId` when they have none with that id.
func CheckOwned(ctx context.Context, finder Finder, userID, subjectID string) (Subject, error) {
	sub, err := finder.GetSubject(ctx, userID, subjectID)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Subject{}, core.NewValidationError(err, core.FieldError{Field: "subjectId", Error: "subject not found"})
		}
		return Subject{}, errors.Wrap(err, "finding subject")
	}
	return sub, nil
}

func (svc *Service) Create(ctx context.Context, userID string, ns NewSubject) (Subject, error) {
	now := NowFunc().UTC()
	sub := Subject{
		UserID:             userID,
		Name:               ns.Name,
		RequiredPercentage: DefaultRequiredPercentage,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if ns.RequiredPercentage != nil {
		sub.RequiredPercentage = *ns.RequiredPercentage
	}
	return svc.repo.CreateSubject(ctx, sub)
}

func (svc *Service) List(ctx context.Context, userID string) ([]Subject, error) {
	return svc.repo.QuerySubjects(ctx, userID)
}

func (svc *Service) Get(ctx context.Context, userID, id string) (Subject, error) {
	return svc.repo.GetSubject(ctx, userID, id)
}

func (svc *Service) Update(ctx context.Context, sub Subject, us UpdateSubject) (Subject, error) {
	us.apply(&sub)
	sub.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpdateSubject(ctx, sub)
}

// Delete removes the Subject and everything referencing it, then the files of its documents.
func (svc *Service) Delete(ctx context.Context, userID, id string) error {
	paths, err := svc.repo.DeleteSubject(ctx, userID, id)
	if err != nil {
		return err
	}
	for _, path := range paths {
		if err := svc.files.Remove(path); err != nil {
			svc.logger.Error(fmt.Sprintf("removing document file %q: %v", path, err), err)
		}
	}
	return nil
}
