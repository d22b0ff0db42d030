package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/alloyapp/alloy/core/note"
)

type noteApi struct {
	svc      *note.Service
	validate *validator.Validate
}

func registerNoteAPI(g *echo.Group, authed echo.MiddlewareFunc, api *noteApi) {
	ng := g.Group("/notes", authed)
	ng.POST("", api.create)
	ng.GET("/subject/:subjectId", api.queryBySubject)

	dg := ng.Group("/:id", ownedObject(api.svc.Get))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
}

func (api *noteApi) create(ctx echo.Context) error {
	caller, err := getCaller(ctx)
	if err != nil {
		return err
	}
	var data note.NewNote
	if err = bindAndValidate(ctx, api.validate, &data, "NewNote"); err != nil {
		return err
	}

	n, err := api.svc.Create(ctx.Request().Context(), caller.UserID, data)
	if err != nil {
		return errors.Wrap(err, "creating note")
	}
	return ctx.JSON(http.StatusCreated, n)
}

func (api *noteApi) queryBySubject(ctx echo.Context) error {
	caller, err := getCaller(ctx)
	if err != nil {
		return err
	}
	notes, err := api.svc.ListBySubject(ctx.Request().Context(), caller.UserID, ctx.Param("subjectId"))
	if err != nil {
		return errors.Wrap(err, "querying notes")
	}
	if notes == nil {
		notes = []note.Note{}
	}
	return ctx.JSON(http.StatusOK, notes)
}

func (api *noteApi) retrieve(ctx echo.Context) error {
	n, err := contextObject[note.Note](ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, n)
}

func (api *noteApi) update(ctx echo.Context) error {
	n, err := contextObject[note.Note](ctx)
	if err != nil {
		return err
	}
	var data note.UpdateNote
	if err = bindAndValidate(ctx, api.validate, &data, "UpdateNote"); err != nil {
		return err
	}

	n, err = api.svc.Update(ctx.Request().Context(), n, data)
	if err != nil {
		return errors.Wrap(err, "updating note")
	}
	return ctx.JSON(http.StatusOK, n)
}

func (api *noteApi) destroy(ctx echo.Context) error {
	n, err := contextObject[note.Note](ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), n.UserID, n.ID); err != nil {
		return errors.Wrap(err, "deleting note")
	}
	return ctx.JSON(http.StatusOK, messageResponse{Message: "Note deleted successfully."})
}
