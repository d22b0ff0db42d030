package timetable

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/alloyapp/alloy/core"
)

type Entry struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	SubjectID   string    `json:"subjectId"`
	SubjectName string    `json:"subjectName"`
	DayOfWeek   string    `json:"dayOfWeek"`
	StartTime   string    `json:"startTime"` // HH:MM
	EndTime     string    `json:"endTime"`   // HH:MM
	Professor   string    `json:"professor"`
	Location    string    `json:"location"`
	CreatedAt   time.Time `json:"createdAt"` // UTC
	UpdatedAt   time.Time `json:"updatedAt"` // UTC
}

// checkTimes reports an entry that does not end after it starts.
// "HH:MM" strings sort chronologically.
func (e Entry) checkTimes() error {
	if e.EndTime <= e.StartTime {
		return core.NewValidationError(errInvalidTimes, core.FieldError{Field: "endTime", Error: "endTime must be after startTime"})
	}
	return nil
}

type NewEntry struct {
	SubjectID string `json:"subjectId" validate:"required"`
	DayOfWeek string `json:"dayOfWeek" validate:"required,weekday"`
	StartTime string `json:"startTime" validate:"required,hhmm"`
	EndTime   string `json:"endTime" validate:"required,hhmm"`
	Professor string `json:"professor" validate:"max=200"`
	Location  string `json:"location" validate:"max=200"`
}

func (ne *NewEntry) Validate(validate *validator.Validate) error {
	ne.SubjectID = core.CleanString(ne.SubjectID)
	ne.StartTime = core.CleanString(ne.StartTime)
	ne.EndTime = core.CleanString(ne.EndTime)
	ne.Professor = core.CleanString(ne.Professor)
	ne.Location = core.CleanString(ne.Location)
	return validate.Struct(ne)
}

// UpdateEntry holds the fields to change; nil fields are left untouched.
type UpdateEntry struct {
	SubjectID *string `json:"subjectId" validate:"omitempty,min=1"`
	DayOfWeek *string `json:"dayOfWeek" validate:"omitempty,weekday"`
	StartTime *string `json:"startTime" validate:"omitempty,hhmm"`
	EndTime   *string `json:"endTime" validate:"omitempty,hhmm"`
	Professor *string `json:"professor" validate:"omitempty,max=200"`
	Location  *string `json:"location" validate:"omitempty,max=200"`
}

func (ue *UpdateEntry) Validate(validate *validator.Validate) error {
	for _, fld := range []*string{ue.SubjectID, ue.StartTime, ue.EndTime, ue.Professor, ue.Location} {
		if fld != nil {
			*fld = core.CleanString(*fld)
		}
	}
	return validate.Struct(ue)
}

func (ue UpdateEntry) apply(e *Entry) {
	if ue.SubjectID != nil {
		e.SubjectID = *ue.SubjectID
	}
	if ue.DayOfWeek != nil {
		e.DayOfWeek = *ue.DayOfWeek
	}
	if ue.StartTime != nil {
		e.StartTime = *ue.StartTime
	}
	if ue.EndTime != nil {
		e.EndTime = *ue.EndTime
	}
	if ue.Professor != nil {
		e.Professor = *ue.Professor
	}
	if ue.Location != nil {
		e.Location = *ue.Location
	}
}
