package subject

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/alloyapp/alloy/core"
)

const DefaultRequiredPercentage = 75.0

type Subject struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"userId"`
	Name               string    `json:"name"`
	RequiredPercentage float64   `json:"requiredPercentage"`
	CreatedAt          time.Time `json:"createdAt"` // UTC
	UpdatedAt          time.Time `json:"updatedAt"` // UTC
}

type NewSubject struct {
	Name               string   `json:"name" validate:"required,max=200"`
	RequiredPercentage *float64 `json:"requiredPercentage" validate:"omitempty,min=0,max=100"`
}

func (ns *NewSubject) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	return validate.Struct(ns)
}

// UpdateSubject holds the fields to change; nil fields are left untouched.
type UpdateSubject struct {
	Name               *string  `json:"name" validate:"omitempty,min=1,max=200"`
	RequiredPercentage *float64 `json:"requiredPercentage" validate:"omitempty,min=0,max=100"`
}

func (us *UpdateSubject) Validate(validate *validator.Validate) error {
	if us.Name != nil {
		name := core.CleanString(*us.Name)
		us.Name = &name
	}
	return validate.Struct(us)
}

func (us UpdateSubject) apply(sub *Subject) {
	if us.Name != nil {
		sub.Name = *us.Name
	}
	if us.RequiredPercentage != nil {
		sub.RequiredPercentage = *us.RequiredPercentage
	}
}
