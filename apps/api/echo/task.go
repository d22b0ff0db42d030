package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/alloyapp/alloy/core/task"
)

type taskApi struct {
	svc      *task.Service
	validate *validator.Validate
}

func registerTaskAPI(g *echo.Group, authed echo.MiddlewareFunc, api *taskApi) {
	tg := g.Group("/tasks", authed)
	tg.POST("", api.create)
	tg.GET("", api.query)

	dg := tg.Group("/:id", ownedObject(api.svc.Get))
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
}

func (api *taskApi) create(ctx echo.Context) error {
	caller, err := getCaller(ctx)
	if err != nil {
		return err
	}
	var data task.NewTask
	if err = bindAndValidate(ctx, api.validate, &data, "NewTask"); err != nil {
		return err
	}

	t, err := api.svc.Create(ctx.Request().Context(), caller.UserID, data)
	if err != nil {
		return errors.Wrap(err, "creating task")
	}
	return ctx.JSON(http.StatusCreated, t)
}

// query supports ?status=<status|All>&dueDate=YYYY-MM-DD&sortBy=<dueDate|priority>
func (api *taskApi) query(ctx echo.Context) error {
	caller, err := getCaller(ctx)
	if err != nil {
		return err
	}
	var q task.Query
	if err = ctx.Bind(&q); err != nil {
		return errors.Wrap(err, "binding to task.Query")
	}

	tasks, err := api.svc.List(ctx.Request().Context(), caller.UserID, q)
	if err != nil {
		return errors.Wrap(err, "querying tasks")
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	return ctx.JSON(http.StatusOK, tasks)
}

func (api *taskApi) update(ctx echo.Context) error {
	t, err := contextObject[task.Task](ctx)
	if err != nil {
		return err
	}
	var data task.UpdateTask
	if err = bindAndValidate(ctx, api.validate, &data, "UpdateTask"); err != nil {
		return err
	}

	t, err = api.svc.Update(ctx.Request().Context(), t, data)
	if err != nil {
		return errors.Wrap(err, "updating task")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *taskApi) destroy(ctx echo.Context) error {
	t, err := contextObject[task.Task](ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), t.UserID, t.ID); err != nil {
		return errors.Wrap(err, "deleting task")
	}
	return ctx.JSON(http.StatusOK, messageResponse{Message: "Task deleted successfully."})
}
