package echoapi

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	gqlerrors "github.com/graph-gophers/graphql-go/errors"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/empoderar/core"
	"github.com/trezcool/empoderar/core/user"
)

var errTooManyRequests = echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")

const invalidInputMsg = "invalid input"

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			usr, _ := user.FromContext(ctx.Request().Context())
			logger.Error(msg, errors.Wrap(err, msg), usr)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
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

// errorPresenter turns the errors returned by resolvers into client-facing GraphQL errors:
// a stable `extensions.code`, translated field errors, and no internal details outside debug mode.
type errorPresenter struct {
	debug          bool
	logger         core.Logger
	locales        *core.Locales
	signalShutdown func()
}

func (p errorPresenter) present(ctx context.Context, errs []*gqlerrors.QueryError) {
	for _, qErr := range errs {
		if qErr.ResolverError == nil {
			continue // syntax and validation errors of the query itself
		}
		code, msg, fields := p.describe(ctx, qErr.ResolverError)
		ext := map[string]interface{}{"code": code}
		if len(fields) > 0 {
			ext["fields"] = fields
		}
		qErr.Message = msg
		qErr.Extensions = ext
	}
}

func (p errorPresenter) describe(ctx context.Context, err error) (code, msg string, fields map[string]string) {
	switch origErr := errors.Cause(err).(type) {
	case *core.AppError:
		return origErr.Code, origErr.Message, nil
	case validator.ValidationErrors:
		trans := p.locales.Translator(core.LanguageFromContext(ctx))
		return core.CodeBadUserInput, invalidInputMsg, core.TranslateValidationErrors(origErr, trans)
	case *core.ValidationError:
		fields = make(map[string]string, len(origErr.Fields))
		for _, fErr := range origErr.Fields {
			fields[fErr.Field] = fErr.Error
		}
		return core.CodeBadUserInput, origErr.Error(), fields
	}

	msg = http.StatusText(http.StatusInternalServerError)
	usr, _ := user.FromContext(ctx)
	p.logger.Error(msg, errors.Wrap(err, msg), usr)
	if core.IsShutdown(err) {
		p.signalShutdown()
	}
	if p.debug {
		msg = err.Error()
	}
	return core.CodeInternal, msg, nil
}
