package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/alloyapp/alloy/core/subject"
)

type subjectApi struct {
	svc      *subject.Service
	validate *validator.Validate
}

func registerSubjectAPI(g *echo.Group, authed echo.MiddlewareFunc, api *subjectApi) {
	sg := g.Group("/subjects", authed)
	sg.POST("", api.create)
	sg.GET("", api.query)

	// detail endpoints
	dg := sg.Group("/:id", ownedObject(api.svc.Get))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
}

func (api *subjectApi) create(ctx echo.Context) error {
	caller, err := getCaller(ctx)
	if err != nil {
		return err
	}
	var data subject.NewSubject
	if err = bindAndValidate(ctx, api.validate, &data, "NewSubject"); err != nil {
		return err
	}

	sub, err := api.svc.Create(ctx.Request().Context(), caller.UserID, data)
	if err != nil {
		return errors.Wrap(err, "creating subject")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *subjectApi) query(ctx echo.Context) error {
	caller, err := getCaller(ctx)
	if err != nil {
		return err
	}
	subjects, err := api.svc.List(ctx.Request().Context(), caller.UserID)
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	if subjects == nil {
		subjects = []subject.Subject{}
	}
	return ctx.JSON(http.StatusOK, subjects)
}

func (api *subjectApi) retrieve(ctx echo.Context) error {
	sub, err := contextObject[subject.Subject](ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *subjectApi) update(ctx echo.Context) error {
	sub, err := contextObject[subject.Subject](ctx)
	if err != nil {
		return err
	}
	var data subject.UpdateSubject
	if err = bindAndValidate(ctx, api.validate, &data, "UpdateSubject"); err != nil {
		return err
	}

	sub, err = api.svc.Update(ctx.Request().Context(), sub, data)
	if err != nil {
		return errors.Wrap(err, "updating subject")
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *subjectApi) destroy(ctx echo.Context) error {
	sub, err := contextObject[subject.Subject](ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), sub.UserID, sub.ID); err != nil {
		return errors.Wrap(err, "deleting subject")
	}
	return ctx.JSON(http.StatusOK, messageResponse{Message: "Subject and all related data deleted successfully."})
}
