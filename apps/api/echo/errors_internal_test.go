package echoapi

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	gqlerrors "github.com/graph-gophers/graphql-go/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"

	"github.com/trezcool/empoderar/core"
)

type logEntry struct {
	level, msg string
}

type recordingLogger struct {
	entries []logEntry
}

func (l *recordingLogger) log(level, msg string) { l.entries = append(l.entries, logEntry{level, msg}) }

func (l *recordingLogger) Debug(msg string, _ ...interface{}) { l.log("debug", msg) }
func (l *recordingLogger) Info(msg string, _ ...interface{})  { l.log("info", msg) }
func (l *recordingLogger) Warn(msg string, _ ...interface{})  { l.log("warn", msg) }
func (l *recordingLogger) Error(msg string, _ ...interface{}) { l.log("error", msg) }
func (l *recordingLogger) Fatal(msg string, _ ...interface{}) { l.log("fatal", msg) }

type signupInput struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"required"`
}

func newTestPresenter(debug bool) (errorPresenter, *recordingLogger, *int) {
	var shutdowns int
	logger := new(recordingLogger)
	locales := core.NewLocales()
	return errorPresenter{
		debug:          debug,
		logger:         logger,
		locales:        locales,
		signalShutdown: func() { shutdowns++ },
	}, logger, &shutdowns
}

func TestErrorPresenter_Describe(t *testing.T) {
	presenter, logger, shutdowns := newTestPresenter(false)

	validate := validator.New()
	core.InitValidators(validate, presenter.locales)
	vErr := validate.Struct(signupInput{Email: "nope"})

	tests := []struct {
		name       string
		lang       string
		err        error
		wantCode   string
		wantMsg    string
		wantFields map[string]string
	}{
		{
			name:     "app error",
			err:      errors.Wrap(core.NewNotFoundError("course not found"), "getting course"),
			wantCode: core.CodeNotFound,
			wantMsg:  "course not found",
		},
		{
			name:     "validation errors in spanish",
			lang:     core.LangES,
			err:      vErr,
			wantCode: core.CodeBadUserInput,
			wantMsg:  invalidInputMsg,
			wantFields: map[string]string{
				"email": "email debe ser una dirección de correo electrónico válida",
				"name":  "este campo es obligatorio",
			},
		},
		{
			name:     "validation errors in english",
			lang:     core.LangEN,
			err:      vErr,
			wantCode: core.CodeBadUserInput,
			wantMsg:  invalidInputMsg,
			wantFields: map[string]string{
				"email": "email must be a valid email address",
				"name":  "this field is required",
			},
		},
		{
			name:       "field errors",
			err:        core.NewValidationError(nil, core.FieldError{Field: "password", Error: "too short"}),
			wantCode:   core.CodeBadUserInput,
			wantMsg:    "password: too short",
			wantFields: map[string]string{"password": "too short"},
		},
		{
			name:     "unexpected error",
			err:      errors.New("connection refused"),
			wantCode: core.CodeInternal,
			wantMsg:  "Internal Server Error",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			ctx := core.WithLanguage(context.Background(), tt.lang)
			code, msg, fields := presenter.describe(ctx, tt.err)
			if code != tt.wantCode {
				t.Errorf("describe() code = %q; want %q", code, tt.wantCode)
			}
			if msg != tt.wantMsg {
				t.Errorf("describe() msg = %q; want %q", msg, tt.wantMsg)
			}
			if diff := cmp.Diff(tt.wantFields, fields); diff != "" {
				t.Errorf("describe() fields mismatch (-want +got):\n%s", diff)
			}
		})
	}

	if len(logger.entries) != 1 || logger.entries[0].level != "error" {
		t.Errorf("describe() logged %v; want a single error", logger.entries)
	}
	if *shutdowns != 0 {
		t.Errorf("describe() signalled %d shutdowns; want 0", *shutdowns)
	}
}

func TestErrorPresenter_Debug(t *testing.T) {
	presenter, _, shutdowns := newTestPresenter(true)

	code, msg, _ := presenter.describe(context.Background(), errors.Wrap(core.NewShutdownError("db is gone"), "querying users"))
	if code != core.CodeInternal {
		t.Errorf("describe() code = %q; want %q", code, core.CodeInternal)
	}
	if want := "querying users: db is gone"; msg != want {
		t.Errorf("describe() msg = %q; want %q", msg, want)
	}
	if *shutdowns != 1 {
		t.Errorf("describe() signalled %d shutdowns; want 1", *shutdowns)
	}
}

func TestErrorPresenter_Present(t *testing.T) {
	presenter, _, _ := newTestPresenter(false)

	queryErr := &gqlerrors.QueryError{Message: "Cannot query field \"foo\" on type \"Query\"."}
	resolverErr := &gqlerrors.QueryError{Message: "permission denied", ResolverError: core.ErrForbidden}
	presenter.present(context.Background(), []*gqlerrors.QueryError{queryErr, resolverErr})

	if queryErr.Extensions != nil {
		t.Errorf("present() extensions = %v; want none for query errors", queryErr.Extensions)
	}
	want := map[string]interface{}{"code": core.CodeForbidden}
	if diff := cmp.Diff(want, resolverErr.Extensions); diff != "" {
		t.Errorf("present() extensions mismatch (-want +got):\n%s", diff)
	}
}
