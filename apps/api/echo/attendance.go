package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/alloyapp/alloy/core/attendance"
)

type attendanceApi struct {
	svc      *attendance.Service
	validate *validator.Validate
}

func registerAttendanceAPI(g *echo.Group, authed echo.MiddlewareFunc, api *attendanceApi) {
	ag := g.Group("/attendance", authed)
	ag.POST("", api.mark)
	ag.GET("", api.query)
	ag.GET("/stats/:subjectId", api.stats)
	ag.GET("/:subjectId", api.queryBySubject)
}

// mark creates the record of the day, or overwrites its status.
func (api *attendanceApi) mark(ctx echo.Context) error {
	caller, err := getCaller(ctx)
	if err != nil {
		return err
	}
	var data attendance.Mark
	if err = bindAndValidate(ctx, api.validate, &data, "Mark"); err != nil {
		return err
	}

	rec, err := api.svc.Mark(ctx.Request().Context(), caller.UserID, data)
	if err != nil {
		return errors.Wrap(err, "marking attendance")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *attendanceApi) query(ctx echo.Context) error {
	caller, err := getCaller(ctx)
	if err != nil {
		return err
	}
	records, err := api.svc.List(ctx.Request().Context(), caller.UserID)
	if err != nil {
		return errors.Wrap(err, "querying attendance records")
	}
	return ctx.JSON(http.StatusOK, nonNilRecords(records))
}

func (api *attendanceApi) queryBySubject(ctx echo.Context) error {
	caller, err := getCaller(ctx)
	if err != nil {
		return err
	}
	records, err := api.svc.ListBySubject(ctx.Request().Context(), caller.UserID, ctx.Param("subjectId"))
	if err != nil {
		return errors.Wrap(err, "querying attendance records by subject")
	}
	return ctx.JSON(http.StatusOK, nonNilRecords(records))
}

func (api *attendanceApi) stats(ctx echo.Context) error {
	caller, err := getCaller(ctx)
	if err != nil {
		return err
	}
	stats, err := api.svc.Stats(ctx.Request().Context(), caller.UserID, ctx.Param("subjectId"))
	if err != nil {
		return errors.Wrap(err, "computing attendance stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

func nonNilRecords(records []attendance.Record) []attendance.Record {
	if records == nil {
		return []attendance.Record{}
	}
	return records
}
