package echoapi

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/alloyapp/alloy/core"
	"github.com/alloyapp/alloy/core/user"
)

type userApi struct {
	svc      *user.Service
	auth     *authenticator
	validate *validator.Validate
	logger   core.Logger
}

func registerUserAPI(g *echo.Group, authed echo.MiddlewareFunc, api *userApi) {
	ug := g.Group("/auth")

	// un-authed endpoints
	// TODO: rate limit `/login` & `/forgot-password`
	ug.POST("/register", api.register)
	ug.POST("/login", api.login)
	ug.POST("/forgot-password", api.forgotPassword)
	ug.POST("/reset-password", api.resetPassword)

	// authed endpoints
	ug.GET("/me", api.me, authed)
	ug.PUT("/update", api.update, authed)
	ug.PUT("/change-password", api.changePassword, authed)
	ug.DELETE("/delete", api.destroy, authed)
	ug.POST("/token-refresh", api.refreshToken, authed)
}

// Handlers

func (api *userApi) register(ctx echo.Context) error {
	var data user.NewUser
	if err := bindAndValidate(ctx, api.validate, &data, "NewUser"); err != nil {
		return err
	}

	usr, err := api.svc.Register(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering user")
	}
	return ctx.JSON(http.StatusCreated, registerResponse{Message: "User registered successfully.", UserID: usr.ID})
}

func (api *userApi) login(ctx echo.Context) error {
	var data user.Credentials
	if err := bindAndValidate(ctx, api.validate, &data, "Credentials"); err != nil {
		return err
	}

	usr, err := api.svc.Authenticate(ctx.Request().Context(), data)
	if err != nil {
		if errors.Cause(err) == user.ErrInvalidCredentials {
			return errInvalidCredentials
		}
		return errors.Wrap(err, "authenticating")
	}
	token, err := api.auth.token(usr)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, tokenResponse{AuthToken: token})
}

func (api *userApi) forgotPassword(ctx echo.Context) error {
	var data user.ForgotPassword
	if err := bindAndValidate(ctx, api.validate, &data, "ForgotPassword"); err != nil {
		return err
	}

	// do not reveal whether the account exists
	if err := api.svc.RequestPasswordReset(ctx.Request().Context(), data.Email); !(err == nil || errors.Cause(err) == user.ErrNotFound) {
		api.logger.Error(fmt.Sprintf("requesting password reset: %v", err), errors.Wrap(err, "requesting password reset"))
	}
	return ctx.JSON(http.StatusOK, messageResponse{Message: "If that email exists, a reset link has been sent."})
}

func (api *userApi) resetPassword(ctx echo.Context) error {
	var data user.ResetPassword
	if err := bindAndValidate(ctx, api.validate, &data, "ResetPassword"); err != nil {
		return err
	}

	if err := api.svc.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, messageResponse{Message: "Password has been reset successfully."})
}

func (api *userApi) me(ctx echo.Context) error {
	caller, err := getCaller(ctx)
	if err != nil {
		return err
	}
	usr, err := api.svc.GetByID(ctx.Request().Context(), caller.UserID)
	if err != nil {
		return errors.Wrap(err, "finding user by ID")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) update(ctx echo.Context) error {
	caller, err := getCaller(ctx)
	if err != nil {
		return err
	}
	var data user.UpdateProfile
	if err = bindAndValidate(ctx, api.validate, &data, "UpdateProfile"); err != nil {
		return err
	}

	usr, err := api.svc.UpdateProfile(ctx.Request().Context(), caller.UserID, data)
	if err != nil {
		return errors.Wrap(err, "updating profile")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) changePassword(ctx echo.Context) error {
	caller, err := getCaller(ctx)
	if err != nil {
		return err
	}
	var data user.ChangePassword
	if err = bindAndValidate(ctx, api.validate, &data, "ChangePassword"); err != nil {
		return err
	}

	if err = api.svc.ChangePassword(ctx.Request().Context(), caller.UserID, data); err != nil {
		return errors.Wrap(err, "changing password")
	}
	return ctx.JSON(http.StatusOK, messageResponse{Message: "Password updated successfully."})
}

func (api *userApi) destroy(ctx echo.Context) error {
	caller, err := getCaller(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), caller.UserID); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return ctx.JSON(http.StatusOK, messageResponse{Message: "Account and all data deleted successfully."})
}

func (api *userApi) refreshToken(ctx echo.Context) error {
	token, err := api.auth.refresh(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, tokenResponse{AuthToken: token})
}
