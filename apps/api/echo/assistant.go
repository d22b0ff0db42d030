package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/alloyapp/alloy/core/assistant"
)

type assistantApi struct {
	svc      *assistant.Service
	validate *validator.Validate
}

func registerAssistantAPI(g *echo.Group, authed echo.MiddlewareFunc, api *assistantApi) {
	ag := g.Group("/ai", authed)
	ag.POST("/chat", api.chat)
	ag.GET("/conversations", api.query)

	dg := ag.Group("/conversations/:id", ownedObject(api.svc.Get))
	dg.GET("", api.retrieve)
	dg.DELETE("", api.destroy)
}

func (api *assistantApi) chat(ctx echo.Context) error {
	caller, err := getCaller(ctx)
	if err != nil {
		return err
	}
	var data assistant.Message
	if err = bindAndValidate(ctx, api.validate, &data, "Message"); err != nil {
		return err
	}

	reply, err := api.svc.SendMessage(ctx.Request().Context(), caller.UserID, data)
	if err != nil {
		return errors.Wrap(err, "sending message")
	}
	return ctx.JSON(http.StatusOK, reply)
}

func (api *assistantApi) query(ctx echo.Context) error {
	caller, err := getCaller(ctx)
	if err != nil {
		return err
	}
	convs, err := api.svc.List(ctx.Request().Context(), caller.UserID)
	if err != nil {
		return errors.Wrap(err, "querying conversations")
	}
	if convs == nil {
		convs = []assistant.Summary{}
	}
	return ctx.JSON(http.StatusOK, convs)
}

func (api *assistantApi) retrieve(ctx echo.Context) error {
	conv, err := contextObject[assistant.Conversation](ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, conv)
}

func (api *assistantApi) destroy(ctx echo.Context) error {
	conv, err := contextObject[assistant.Conversation](ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), conv.UserID, conv.ID); err != nil {
		return errors.Wrap(err, "deleting conversation")
	}
	return ctx.JSON(http.StatusOK, messageResponse{Message: "Conversation deleted."})
}
