package task

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/alloyapp/alloy/core"
)

const (
	StatusToDo       = "To Do"
	StatusInProgress = "In Progress"
	StatusDone       = "Done"
	StatusMissed     = "Missed"
	statusAll        = "All"

	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"

	SortByDueDate  = "dueDate"
	SortByPriority = "priority"
)

type Task struct {
	ID          string      `json:"id"`
	UserID      string      `json:"userId"`
	SubjectID   null.String `json:"subjectId"`
	Description string      `json:"description"`
	Status      string      `json:"status"`
	Priority    string      `json:"priority"`
	DueDate     null.Time   `json:"dueDate"`
	StartTime   null.Time   `json:"startTime"`
	EndTime     null.Time   `json:"endTime"`
	CreatedAt   time.Time   `json:"createdAt"` // UTC
	UpdatedAt   time.Time   `json:"updatedAt"` // UTC
}

type NewTask struct {
	Description string        `json:"description" validate:"required"`
	Status      string        `json:"status" validate:"omitempty,oneof='To Do' 'In Progress' Done Missed"`
	Priority    string        `json:"priority" validate:"omitempty,oneof=High Medium Low"`
	DueDate     core.NullTime `json:"dueDate"`
	StartTime   core.NullTime `json:"startTime"`
	EndTime     core.NullTime `json:"endTime"`
	SubjectID   string        `json:"subjectId"`
}

func (nt *NewTask) Validate(validate *validator.Validate) error {
	nt.Description = core.CleanString(nt.Description)
	nt.SubjectID = core.CleanString(nt.SubjectID)
	return validate.Struct(nt)
}

// UpdateTask holds the fields to change; nil fields are left untouched.
// An empty date string or subjectId clears the field.
type UpdateTask struct {
	Description *string        `json:"description" validate:"omitempty,min=1"`
	Status      *string        `json:"status" validate:"omitempty,oneof='To Do' 'In Progress' Done Missed"`
	Priority    *string        `json:"priority" validate:"omitempty,oneof=High Medium Low"`
	DueDate     *core.NullTime `json:"dueDate"`
	StartTime   *core.NullTime `json:"startTime"`
	EndTime     *core.NullTime `json:"endTime"`
	SubjectID   *string        `json:"subjectId"`
}

func (ut *UpdateTask) Validate(validate *validator.Validate) error {
	if ut.Description != nil {
		desc := core.CleanString(*ut.Description)
		ut.Description = &desc
	}
	if ut.SubjectID != nil {
		subID := core.CleanString(*ut.SubjectID)
		ut.SubjectID = &subID
	}
	return validate.Struct(ut)
}

func (ut UpdateTask) apply(t *Task) {
	if ut.Description != nil {
		t.Description = *ut.Description
	}
	if ut.Status != nil {
		t.Status = *ut.Status
	}
	if ut.Priority != nil {
		t.Priority = *ut.Priority
	}
	if ut.DueDate != nil {
		t.DueDate = ut.DueDate.Time
	}
	if ut.StartTime != nil {
		t.StartTime = ut.StartTime.Time
	}
	if ut.EndTime != nil {
		t.EndTime = ut.EndTime.Time
	}
	if ut.SubjectID != nil {
		t.SubjectID = null.NewString(*ut.SubjectID, *ut.SubjectID != "")
	}
}

// Query are the listing parameters, as sent in the query string.
type Query struct {
	Status  string `query:"status"`
	DueDate string `query:"dueDate"`
	SortBy  string `query:"sortBy"`
}

// Filter narrows a task listing down. Zero fields do not filter.
type Filter struct {
	UserID   string
	Status   string
	DueFrom  null.Time // inclusive
	DueUntil null.Time // exclusive
}

func (q Query) filter(userID string) (Filter, error) {
	f := Filter{UserID: userID}
	if status := core.CleanString(q.Status); status != statusAll {
		f.Status = status
	}
	if due := core.CleanString(q.DueDate); due != "" {
		day, err := time.Parse(core.DateLayout, due)
		if err != nil {
			return Filter{}, core.NewValidationError(err, core.FieldError{Field: "dueDate", Error: "dueDate must be a date in the YYYY-MM-DD format"})
		}
		f.DueFrom = null.TimeFrom(day)
		f.DueUntil = null.TimeFrom(day.AddDate(0, 0, 1))
	}
	return f, nil
}
