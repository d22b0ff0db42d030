package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/alloyapp/alloy/core/timetable"
)

type timetableApi struct {
	svc      *timetable.Service
	validate *validator.Validate
}

func registerTimetableAPI(g *echo.Group, authed echo.MiddlewareFunc, api *timetableApi) {
	tg := g.Group("/timetable", authed)
	tg.POST("", api.create)
	tg.GET("", api.query)

	dg := tg.Group("/:id", ownedObject(api.svc.Get))
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
}

func (api *timetableApi) create(ctx echo.Context) error {
	caller, err := getCaller(ctx)
	if err != nil {
		return err
	}
	var data timetable.NewEntry
	if err = bindAndValidate(ctx, api.validate, &data, "NewEntry"); err != nil {
		return err
	}

	entry, err := api.svc.Create(ctx.Request().Context(), caller.UserID, data)
	if err != nil {
		return errors.Wrap(err, "creating timetable entry")
	}
	return ctx.JSON(http.StatusCreated, entry)
}

func (api *timetableApi) query(ctx echo.Context) error {
	caller, err := getCaller(ctx)
	if err != nil {
		return err
	}
	entries, err := api.svc.List(ctx.Request().Context(), caller.UserID)
	if err != nil {
		return errors.Wrap(err, "querying timetable entries")
	}
	if entries == nil {
		entries = []timetable.Entry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *timetableApi) update(ctx echo.Context) error {
	entry, err := contextObject[timetable.Entry](ctx)
	if err != nil {
		return err
	}
	var data timetable.UpdateEntry
	if err = bindAndValidate(ctx, api.validate, &data, "UpdateEntry"); err != nil {
		return err
	}

	entry, err = api.svc.Update(ctx.Request().Context(), entry, data)
	if err != nil {
		return errors.Wrap(err, "updating timetable entry")
	}
	return ctx.JSON(http.StatusOK, entry)
}

func (api *timetableApi) destroy(ctx echo.Context) error {
	entry, err := contextObject[timetable.Entry](ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), entry.UserID, entry.ID); err != nil {
		return errors.Wrap(err, "deleting timetable entry")
	}
	return ctx.JSON(http.StatusOK, messageResponse{Message: "Timetable entry deleted successfully."})
}
