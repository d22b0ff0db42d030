package echoapi

import (
	"fmt"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/alloyapp/alloy/core"
	"github.com/alloyapp/alloy/core/assistant"
	"github.com/alloyapp/alloy/core/user"
)

var (
	errUnauthorized          = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errInvalidCredentials    = echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials.")
	errRefreshExpired        = echo.NewHTTPError(http.StatusUnauthorized, "refresh has expired")
	errObjectNotFoundInCtx   = errors.New("object not found in echo.Context")
	validationFailedMessage  = "Please check the provided fields."
	internalServerErrMessage = http.StatusText(http.StatusInternalServerError)
)

type errorResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var resp errorResponse

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				resp.Message = fmt.Sprint(origErr.Message)
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			resp.Message = fmt.Sprint(origErr.Message)
		case validator.ValidationErrors:
			resp.Errors = make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				resp.Errors[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			resp.Message = validationFailedMessage
		case *core.ValidationError:
			if len(origErr.Fields) > 0 {
				resp.Errors = make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					resp.Errors[fErr.Field] = fErr.Error
				}
			}
			code = http.StatusBadRequest
			resp.Message = origErr.Error()
			if resp.Message == "" {
				resp.Message = validationFailedMessage
			}
		case *core.NotFoundError:
			code = http.StatusNotFound
			resp.Message = origErr.Error()
		case *core.ConflictError:
			code = http.StatusConflict
			resp.Message = origErr.Message
			resp.Errors = map[string]string{origErr.Field: origErr.Message}
		default:
			code = http.StatusInternalServerError
			resp.Message = internalServerErrMessage

			// already logged by the assistant
			if origErr == assistant.ErrAIService {
				resp.Message = assistant.ErrAIService.Error()
				break
			}

			var usr user.User
			if caller, cErr := getCaller(ctx); cErr == nil {
				usr.ID = caller.UserID
				usr.Email = caller.Email
			}
			logger.Error(internalServerErrMessage, errors.Wrap(err, internalServerErrMessage), usr)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug {
			resp.Message = err.Error()
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, resp)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
