package note

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/alloyapp/alloy/core"
)

type Note struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	SubjectID string    `json:"subjectId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"` // formatted text, stored as is
	CreatedAt time.Time `json:"createdAt"` // UTC
	UpdatedAt time.Time `json:"updatedAt"` // UTC
}

type NewNote struct {
	SubjectID string `json:"subjectId" validate:"required"`
	Title     string `json:"title" validate:"required,max=300"`
	Content   string `json:"content" validate:"required"`
}

func (nn *NewNote) Validate(validate *validator.Validate) error {
	nn.SubjectID = core.CleanString(nn.SubjectID)
	nn.Title = core.CleanString(nn.Title)
	return validate.Struct(nn)
}

type UpdateNote struct {
	Title   *string `json:"title" validate:"omitempty,min=1,max=300"`
	Content *string `json:"content" validate:"omitempty,min=1"`
}

func (un *UpdateNote) Validate(validate *validator.Validate) error {
	if un.Title != nil {
		title := core.CleanString(*un.Title)
		un.Title = &title
	}
	return validate.Struct(un)
}
