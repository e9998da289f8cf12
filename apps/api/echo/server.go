package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"

	"github.com/trezcool/empoderar/core"
	"github.com/trezcool/empoderar/core/user"
)

type (
	ServerDeps struct {
		Conf    *core.Config
		Logger  core.Logger
		Locales *core.Locales
		Schema  *graphql.Schema
		Tokens  *TokenIssuer
		UserSvc *user.Service
		// HealthCheck reports whether the storage is reachable; optional.
		HealthCheck func(ctx context.Context) error
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Debug = conf.Debug
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.signalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: conf.Server.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			headerAcceptLanguage,
		},
	}))
	s.app.Use(middleware.BodyLimit(conf.Server.BodyLimit))

	s.app.GET("/", s.home)
	s.app.GET("/health", s.health)

	api := &graphqlAPI{
		schema: s.deps.Schema,
		presenter: errorPresenter{
			debug:          conf.Debug,
			logger:         s.deps.Logger,
			locales:        s.deps.Locales,
			signalShutdown: s.signalShutdown,
		},
	}
	limiter := newIPRateLimiter(conf.Server.RateLimit, conf.Server.RateBurst)
	s.app.POST("/graphql", api.serve, limiter.middleware, authMiddleware(s.deps.Tokens, s.deps.UserSvc))
}

// Start listens on the configured address; failures are reported on Errors.
func (s *Server) Start() {
	s.deps.Logger.Info("API listening on " + s.deps.Conf.Server.Host)
	if err := s.app.Start(s.deps.Conf.Server.Host); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API! Send your GraphQL queries to POST /graphql")
}

func (s *Server) health(ctx echo.Context) error {
	status := echo.Map{"status": "ok", "build": s.deps.Conf.Build}
	if s.deps.HealthCheck != nil {
		if err := s.deps.HealthCheck(ctx.Request().Context()); err != nil {
			s.deps.Logger.Warn("health check failed", errors.Wrap(err, "health check"))
			status["status"] = "unavailable"
			return ctx.JSON(http.StatusServiceUnavailable, status)
		}
	}
	return ctx.JSON(http.StatusOK, status)
}
