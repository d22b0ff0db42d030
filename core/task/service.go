package task

import (
	"context"
	"sort"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/alloyapp/alloy/core"
	"github.com/alloyapp/alloy/core/subject"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound = core.NewNotFoundError("task")
)

type (
	Repository interface {
		CreateTask(ctx context.Context, t Task) (Task, error)
		// QueryTasks lists matching tasks oldest first.
		QueryTasks(ctx context.Context, filter Filter) ([]Task, error)
		GetTask(ctx context.Context, userID, id string) (Task, error)
		UpdateTask(ctx context.Context, t Task) (Task, error)
		DeleteTask(ctx context.Context, userID, id string) error
	}

	Service struct {
		repo     Repository
		subjects subject.Finder
	}
)

func NewService(repo Repository, subjects subject.Finder) *Service {
	return &Service{repo: repo, subjects: subjects}
}

func (svc *Service) Create(ctx context.Context, userID string, nt NewTask) (Task, error) {
	now := NowFunc().UTC()
	t := Task{
		UserID:      userID,
		Description: nt.Description,
		Status:      nt.Status,
		Priority:    nt.Priority,
		DueDate:     nt.DueDate.Time,
		StartTime:   nt.StartTime.Time,
		EndTime:     nt.EndTime.Time,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if t.Status == "" {
		t.Status = StatusToDo
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if nt.SubjectID != "" {
		if _, err := subject.CheckOwned(ctx, svc.subjects, userID, nt.SubjectID); err != nil {
			return Task{}, err
		}
		t.SubjectID = null.StringFrom(nt.SubjectID)
	}
	return svc.repo.CreateTask(ctx, t)
}

// List returns the caller's tasks filtered and sorted according to q.
func (svc *Service) List(ctx context.Context, userID string, q Query) ([]Task, error) {
	filter, err := q.filter(userID)
	if err != nil {
		return nil, err
	}
	tasks, err := svc.repo.QueryTasks(ctx, filter)
	if err != nil {
		return nil, err
	}
	sortTasks(tasks, q.SortBy)
	return tasks, nil
}

func (svc *Service) Get(ctx context.Context, userID, id string) (Task, error) {
	return svc.repo.GetTask(ctx, userID, id)
}

func (svc *Service) Update(ctx context.Context, t Task, ut UpdateTask) (Task, error) {
	if ut.SubjectID != nil && *ut.SubjectID != "" {
		if _, err := subject.CheckOwned(ctx, svc.subjects, t.UserID, *ut.SubjectID); err != nil {
			return Task{}, err
		}
	}
	ut.apply(&t)
	t.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpdateTask(ctx, t)
}

func (svc *Service) Delete(ctx context.Context, userID, id string) error {
	return svc.repo.DeleteTask(ctx, userID, id)
}

// priorityRank orders High before Medium before Low; unknown priorities come last.
func priorityRank(p string) int {
	switch p {
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

// sortTasks sorts tasks given oldest first, in place. Ties keep creation order.
//  - dueDate: soonest first, tasks without a due date last
//  - priority: High, Medium, Low, then anything else
//  - default: newest first
func sortTasks(tasks []Task, sortBy string) {
	switch sortBy {
	case SortByDueDate:
		sort.SliceStable(tasks, func(i, j int) bool {
			di, dj := tasks[i].DueDate, tasks[j].DueDate
			if !di.Valid || !dj.Valid {
				return di.Valid && !dj.Valid
			}
			return di.Time.Before(dj.Time)
		})
	case SortByPriority:
		sort.SliceStable(tasks, func(i, j int) bool {
			return priorityRank(tasks[i].Priority) < priorityRank(tasks[j].Priority)
		})
	default:
		for i, j := 0, len(tasks)-1; i < j; i, j = i+1, j-1 {
			tasks[i], tasks[j] = tasks[j], tasks[i]
		}
	}
}
