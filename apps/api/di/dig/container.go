package dig_container

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	graphql "github.com/graph-gophers/graphql-go"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/empoderar/apps/api/echo"
	gqlapi "github.com/trezcool/empoderar/apps/api/graphql"
	"github.com/trezcool/empoderar/core"
	"github.com/trezcool/empoderar/core/course"
	"github.com/trezcool/empoderar/core/loan"
	"github.com/trezcool/empoderar/core/notification"
	"github.com/trezcool/empoderar/core/stats"
	"github.com/trezcool/empoderar/core/user"
	emailsvc "github.com/trezcool/empoderar/services/email"
	logsvc "github.com/trezcool/empoderar/services/logger"
	"github.com/trezcool/empoderar/services/scheduler"
	"github.com/trezcool/empoderar/storage/database"
	inmemdb "github.com/trezcool/empoderar/storage/database/inmem"
	"github.com/trezcool/empoderar/storage/database/sqlxrepos"
)

// jobTimeout bounds a single run of a scheduled job.
const jobTimeout = 5 * time.Minute

type (
	DBLoggerParam struct {
		dig.In
		Logger core.Logger `name:"dbLogger"`
	}

	JobsLoggerParam struct {
		dig.In
		Logger core.Logger `name:"jobsLogger"`
	}

	// HealthCheck reports whether the storage is reachable.
	HealthCheck func(ctx context.Context) error

	resolverParams struct {
		dig.In
		Users         *user.Service
		Courses       *course.Service
		Loans         *loan.Service
		Notifications *notification.Service
		Stats         *stats.Service
		Tokens        *echoapi.TokenIssuer
	}
)

func newStdLogger(conf *core.Config, prefix string, flags int) *log.Logger {
	var out io.Writer = os.Stdout
	if conf.TestMode {
		out = io.Discard
	}
	return log.New(out, prefix, flags)
}

func newLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(newStdLogger(conf, "API : ", log.LstdFlags), conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(newStdLogger(conf, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
}

func newJobsLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(newStdLogger(conf, "JOBS : ", log.LstdFlags), conf)
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) *sqlx.DB {
	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db.DB); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	switch {
	case conf.TestMode:
		return emailsvc.NewConsoleServiceMock(conf, logger)
	case conf.Debug || conf.SendgridApiKey == "":
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newValidator(locales *core.Locales) (*validator.Validate, error) {
	validate := validator.New()
	core.InitValidators(validate, locales)
	user.InitValidators(validate, locales)
	course.InitValidators(validate, locales)
	loan.InitValidators(validate, locales)
	if err := notification.RegisterTranslations(locales); err != nil {
		return nil, errors.Wrap(err, "registering notification texts")
	}
	return validate, nil
}

func newNotificationService(
	repo notification.Repository,
	users *user.Service,
	locales *core.Locales,
	mailSvc core.EmailService,
	logger core.Logger,
) *notification.Service {
	return notification.NewService(repo, users, locales, mailSvc, logger)
}

func newCourseService(repo course.Repository, notifier *notification.Service, validate *validator.Validate) *course.Service {
	return course.NewService(repo, notifier, validate)
}

func newLoanService(repo loan.Repository, notifier *notification.Service, validate *validator.Validate) *loan.Service {
	return loan.NewService(repo, notifier, validate)
}

func newStatsService(users *user.Service, courses *course.Service, loans *loan.Service) *stats.Service {
	return stats.NewService(users, courses, loans)
}

func newSchema(conf *core.Config, logger core.Logger, p resolverParams) (*graphql.Schema, error) {
	r := gqlapi.NewResolver(gqlapi.Deps{
		Users:         p.Users,
		Courses:       p.Courses,
		Loans:         p.Loans,
		Notifications: p.Notifications,
		Stats:         p.Stats,
		Tokens:        p.Tokens,
	})
	return gqlapi.NewSchema(r, conf.Debug, logger)
}

func newServer(
	conf *core.Config,
	logger core.Logger,
	locales *core.Locales,
	schema *graphql.Schema,
	tokens *echoapi.TokenIssuer,
	users *user.Service,
	healthCheck HealthCheck,
) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:        conf,
		Logger:      logger,
		Locales:     locales,
		Schema:      schema,
		Tokens:      tokens,
		UserSvc:     users,
		HealthCheck: healthCheck,
	})
}

func newScheduler(loggerParam JobsLoggerParam) *scheduler.Scheduler {
	return scheduler.New(loggerParam.Logger, jobTimeout)
}

// provideStorage registers the repositories of the configured storage driver.
func provideStorage(c *dig.Container, conf *core.Config) {
	if conf.Storage == core.StorageMemory {
		must(c.Provide(inmemdb.Open))
		must(c.Provide(inmemdb.NewUserRepository))
		must(c.Provide(inmemdb.NewCourseRepository))
		must(c.Provide(inmemdb.NewLoanRepository))
		must(c.Provide(inmemdb.NewNotificationRepository))
		must(c.Provide(func() HealthCheck { return nil }))
		return
	}

	must(c.Provide(newDB))
	must(c.Provide(func(db *sqlx.DB) core.DB { return db }))
	must(c.Provide(sqlxrepos.NewUserRepository))
	must(c.Provide(sqlxrepos.NewCourseRepository))
	must(c.Provide(sqlxrepos.NewLoanRepository))
	must(c.Provide(sqlxrepos.NewNotificationRepository))
	must(c.Provide(func(db *sqlx.DB) HealthCheck { return db.PingContext }))
}

// New returns a new dependency injection dig.Container wired for `conf`.
func New(conf *core.Config) *dig.Container {
	c := dig.New()

	must(c.Provide(func() *core.Config { return conf }))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newJobsLogger, dig.Name("jobsLogger")))
	provideStorage(c, conf)
	must(c.Provide(newEmailService))
	must(c.Provide(core.NewLocales))
	must(c.Provide(newValidator))
	must(c.Provide(user.NewService))
	must(c.Provide(newNotificationService))
	must(c.Provide(newCourseService))
	must(c.Provide(newLoanService))
	must(c.Provide(newStatsService))
	must(c.Provide(echoapi.NewTokenIssuer))
	must(c.Provide(newSchema))
	must(c.Provide(newServer))
	must(c.Provide(newScheduler))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
