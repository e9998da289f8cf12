package gqlapi

import (
	"context"
	"time"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/trezcool/empoderar/core"
	"github.com/trezcool/empoderar/core/course"
	"github.com/trezcool/empoderar/core/loan"
	"github.com/trezcool/empoderar/core/notification"
	"github.com/trezcool/empoderar/core/stats"
	"github.com/trezcool/empoderar/core/user"
)

// TokenIssuer signs the tokens handed out by the auth mutations.
type TokenIssuer interface {
	IssueToken(usr user.User) (string, error)
	// RefreshToken re-issues the token the current request was authenticated with.
	RefreshToken(ctx context.Context, usr user.User) (string, error)
}

// Resolver is the root resolver of both the Query and the Mutation types.
type Resolver struct {
	users         *user.Service
	courses       *course.Service
	loans         *loan.Service
	notifications *notification.Service
	stats         *stats.Service
	tokens        TokenIssuer
}

type Deps struct {
	Users         *user.Service
	Courses       *course.Service
	Loans         *loan.Service
	Notifications *notification.Service
	Stats         *stats.Service
	Tokens        TokenIssuer
}

func NewResolver(deps Deps) *Resolver {
	return &Resolver{
		users:         deps.Users,
		courses:       deps.Courses,
		loans:         deps.Loans,
		notifications: deps.Notifications,
		stats:         deps.Stats,
		tokens:        deps.Tokens,
	}
}

// viewer returns the user the request is made by; anonymous requests get a zero User.
func viewer(ctx context.Context) user.User {
	usr, _ := user.FromContext(ctx)
	return usr
}

func requireUser(ctx context.Context) (user.User, error) {
	usr, ok := user.FromContext(ctx)
	if !ok || usr.ID == "" {
		return user.User{}, core.ErrUnauthenticated
	}
	return usr, nil
}

func requireAdmin(ctx context.Context) (user.User, error) {
	usr, err := requireUser(ctx)
	if err != nil {
		return user.User{}, err
	}
	if !usr.IsAdmin() {
		return user.User{}, core.ErrForbidden
	}
	return usr, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// optTime renders t, or null when it is unset.
func optTime(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := formatTime(t)
	return &s
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optID(id string) *graphql.ID {
	if id == "" {
		return nil
	}
	gid := graphql.ID(id)
	return &gid
}

type panicLogger struct {
	logger core.Logger
}

func (l panicLogger) LogPanic(_ context.Context, value interface{}) {
	l.logger.Error("graphql: panic occurred:", value)
}
