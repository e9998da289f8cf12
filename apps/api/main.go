package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"

	"github.com/jmoiron/sqlx"
	"go.uber.org/dig"

	dig_container "github.com/trezcool/empoderar/apps/api/di/dig"
	echoapi "github.com/trezcool/empoderar/apps/api/echo"
	"github.com/trezcool/empoderar/core"
	"github.com/trezcool/empoderar/core/loan"
	"github.com/trezcool/empoderar/services/scheduler"
)

type appParams struct {
	dig.In

	Conf       *core.Config
	Logger     core.Logger
	DBLogger   core.Logger `name:"dbLogger"`
	JobsLogger core.Logger `name:"jobsLogger"`
	DB         *sqlx.DB    `optional:"true"` // nil with in-memory storage
	Server     *echoapi.Server
	Scheduler  *scheduler.Scheduler
	Loans      *loan.Service
}

func main() {
	conf := core.NewConfig()
	c := dig_container.New(conf)

	must(c.Invoke(func(p appParams) {
		apiLogger := p.Logger

		// =========================================================================
		// Initialize App

		apiLogger.Info(fmt.Sprintf("Application initializing : version %q (storage: %s)", conf.Build, conf.Storage))

		core.ParseEmailTemplates(apiLogger)

		if closer, ok := apiLogger.(interface{ Close() }); ok {
			defer closer.Close() // flush error reports
		}
		if p.DB != nil {
			defer func() {
				if err := p.DB.Close(); err != nil {
					p.DBLogger.Fatal("Failed to close", err)
				}
			}()
		}
		defer apiLogger.Info("Application stopped")

		// =========================================================================
		// Start Debug Service
		//
		// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
		// /debug/vars - Added to the default mux by importing the expvar package.

		// Expose important info under /debug/vars.
		expvar.NewString("build").Set(conf.Build)
		expvar.NewString("env").Set(conf.Env)
		expvar.NewString("storage").Set(conf.Storage)

		go func() {
			if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
				apiLogger.Error(fmt.Sprintf("debug server closed: %v", err), err)
			}
		}()

		// =========================================================================
		// Start Jobs

		if !conf.Jobs.Disabled {
			if err := registerJobs(p.Scheduler, conf, p.Loans, p.JobsLogger); err != nil {
				apiLogger.Fatal(fmt.Sprintf("scheduling jobs: %v", err), err)
			}
			p.Scheduler.Start()
			defer p.Scheduler.Stop()
		}

		// =========================================================================
		// Start API Service

		go func() {
			p.Server.Start()
		}()

		// =========================================================================
		// Shutdown

		select {
		case err := <-p.Server.Errors():
			apiLogger.Fatal(fmt.Sprintf("server error: %v", err), err)

		case sig := <-p.Server.ShutdownSignal():
			apiLogger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

			// give outstanding requests a deadline for completion
			ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
			defer cancel()

			// asking listener to shut down and shed load
			if err := p.Server.Shutdown(ctx); err != nil {
				apiLogger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

				if err = p.Server.Close(); err != nil {
					apiLogger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
				}
			}
		}
	}))
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
