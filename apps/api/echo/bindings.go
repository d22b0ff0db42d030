package echoapi

import (
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// validatable is implemented by every request payload.
type validatable interface {
	Validate(validate *validator.Validate) error
}

// bindAndValidate binds the request into data, then cleans and validates it.
func bindAndValidate(ctx echo.Context, validate *validator.Validate, data validatable, name string) error {
	if err := ctx.Bind(data); err != nil {
		return errors.Wrap(err, "binding to "+name)
	}
	return data.Validate(validate)
}

type (
	messageResponse struct {
		Message string `json:"message"`
	}

	tokenResponse struct {
		AuthToken string `json:"authToken"`
	}

	registerResponse struct {
		Message string `json:"message"`
		UserID  string `json:"userId"`
	}
)
