package attendance

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/alloyapp/alloy/core"
)

const (
	StatusAttended = "attended"
	StatusMissed   = "missed"
)

type Record struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	SubjectID string    `json:"subjectId"`
	Date      time.Time `json:"date"` // midnight UTC
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"` // UTC
	UpdatedAt time.Time `json:"updatedAt"` // UTC
}

// Mark records the caller's presence at one class. An empty Date means today.
type Mark struct {
	SubjectID string `json:"subjectId" validate:"required"`
	Date      string `json:"date"`
	Status    string `json:"status" validate:"required,oneof=attended missed"`

	date time.Time
}

func (m *Mark) Validate(validate *validator.Validate) error {
	m.SubjectID = core.CleanString(m.SubjectID)
	m.Status = core.CleanString(m.Status, true /* lower */)
	if err := validate.Struct(m); err != nil {
		return err
	}

	m.Date = core.CleanString(m.Date)
	if m.Date == "" {
		m.date = core.StartOfDay(NowFunc())
		return nil
	}
	d, err := core.ParseTime(m.Date)
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "date", Error: err.Error()})
	}
	m.date = core.StartOfDay(d)
	return nil
}

type Stats struct {
	Percentage      float64 `json:"percentage"`
	TotalClasses    int     `json:"totalClasses"`
	AttendedClasses int     `json:"attendedClasses"`
}

// Filter narrows a record listing. SubjectID is optional.
type Filter struct {
	UserID    string
	SubjectID string
}
