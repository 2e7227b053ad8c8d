package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/vishvavidya/traininghub/core"
	"github.com/vishvavidya/traininghub/core/student"
)

var (
	errUnauthorized   = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errRefreshExpired = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpForbidden  = echo.NewHTTPError(http.StatusForbidden, "permission denied")
)

// statusOf returns the HTTP status of the core error taxonomy.
func statusOf(err error) (int, bool) {
	switch errors.Cause(err).(type) {
	case *core.ValidationError, *core.NoOpError:
		return http.StatusBadRequest, true
	case *core.NotFoundError:
		return http.StatusNotFound, true
	case *core.DuplicateError, *core.ConflictError:
		return http.StatusConflict, true
	case *core.ForbiddenError:
		return http.StatusForbidden, true
	}
	return 0, false
}

// asMessage answers core errors with a `{"message": ...}` body instead of the default `{"error": ...}`.
func asMessage(err error) error {
	code, ok := statusOf(err)
	if !ok {
		return err
	}
	if vErr, isV := errors.Cause(err).(*core.ValidationError); isV && len(vErr.Messages) > 0 {
		return err
	}
	return echo.NewHTTPError(code, MessageResponse{Message: errors.Cause(err).Error()})
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case *core.ValidationError:
			code = http.StatusBadRequest
			switch {
			case len(origErr.Messages) > 0:
				message = ErrorsResponse{Message: origErr.Error(), Errors: origErr.Messages}
			case origErr.Fields != nil:
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			default:
				message = origErr.Error()
			}
		case *student.IntakeError:
			code = http.StatusBadRequest
			message = IntakeErrorResponse{
				Message: origErr.Error(),
				Errors:  origErr.Summary.Errors,
				Ignored: origErr.Summary.Ignored,
			}
		default:
			if c, ok := statusOf(origErr); ok {
				code = c
				message = origErr.Error()
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg
			if ctx.Echo().Debug {
				message = err.Error()
			}
			logger.Error(msg, errors.Wrap(err, msg), contextActor(ctx))

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
