package note

import (
	"context"
	"time"

	"github.com/alloyapp/alloy/core"
	"github.com/alloyapp/alloy/core/subject"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound = core.NewNotFoundError("note")
)

type (
	Repository interface {
		CreateNote(ctx context.Context, n Note) (Note, error)
		// QueryNotes lists the user's notes on a subject, most recently updated first.
		QueryNotes(ctx context.Context, userID, subjectID string) ([]Note, error)
		GetNote(ctx context.Context, userID, id string) (Note, error)
		UpdateNote(ctx context.Context, n Note) (Note, error)
		DeleteNote(ctx context.Context, userID, id string) error
	}

	Service struct {
		repo     Repository
		subjects subject.Finder
	}
)

func NewService(repo Repository, subjects subject.Finder) *Service {
	return &Service{repo: repo, subjects: subjects}
}

func (svc *Service) Create(ctx context.Context, userID string, nn NewNote) (Note, error) {
	if _, err := subject.CheckOwned(ctx, svc.subjects, userID, nn.SubjectID); err != nil {
		return Note{}, err
	}

	now := NowFunc().UTC()
	n := Note{
		UserID:    userID,
		SubjectID: nn.SubjectID,
		Title:     nn.Title,
		Content:   nn.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateNote(ctx, n)
}

func (svc *Service) ListBySubject(ctx context.Context, userID, subjectID string) ([]Note, error) {
	return svc.repo.QueryNotes(ctx, userID, subjectID)
}

func (svc *Service) Get(ctx context.Context, userID, id string) (Note, error) {
	return svc.repo.GetNote(ctx, userID, id)
}

func (svc *Service) Update(ctx context.Context, n Note, un UpdateNote) (Note, error) {
	if un.Title != nil {
		n.Title = *un.Title
	}
	if un.Content != nil {
		n.Content = *un.Content
	}
	n.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpdateNote(ctx, n)
}

func (svc *Service) Delete(ctx context.Context, userID, id string) error {
	return svc.repo.DeleteNote(ctx, userID, id)
}
