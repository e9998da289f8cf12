// Package scheduler runs named periodic jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/trezcool/empoderar/core"
)

// Handler is the body of a job. It gets a context cancelled on Stop.
type Handler func(ctx context.Context) error

type Scheduler struct {
	cron    *cron.Cron
	logger  core.Logger
	timeout time.Duration

	mu       sync.Mutex
	handlers map[string]Handler
	ctx      context.Context
	cancel   context.CancelFunc
}

func New(logger core.Logger, timeout time.Duration) *Scheduler {
	cl := cronLogger{logger: logger}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger:   logger,
		timeout:  timeout,
		handlers: make(map[string]Handler),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Register schedules `h` under `name` with the cron `spec` (e.g. "@hourly", "0 8 * * *").
func (s *Scheduler) Register(name, spec string, h Handler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.handlers[name]; dup {
		return fmt.Errorf("job %q already registered", name)
	}
	if _, err := s.cron.AddFunc(spec, func() { _ = s.run(name, h) }); err != nil {
		return errors.Wrapf(err, "scheduling job %q", name)
	}
	s.handlers[name] = h
	return nil
}

// RunNow runs the job `name` synchronously, outside of its schedule.
func (s *Scheduler) RunNow(name string) error {
	s.mu.Lock()
	h, ok := s.handlers[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("job %q not registered", name)
	}
	return s.run(name, h)
}

func (s *Scheduler) run(name string, h Handler) error {
	ctx := s.ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	if err := h(ctx); err != nil {
		s.logger.Error(fmt.Sprintf("job %s: %v", name, err), err)
		return err
	}
	s.logger.Info(fmt.Sprintf("job %s: done in %s", name, time.Since(start)))
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling jobs, cancels the running ones and waits for them to return.
func (s *Scheduler) Stop() {
	done := s.cron.Stop()
	s.cancel()
	<-done.Done()
}

// cronLogger adapts core.Logger to cron.Logger.
type cronLogger struct {
	logger core.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	// cron logs every tick at Info level
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(fmt.Sprintf("cron: %s: %v", msg, err), append([]interface{}{err}, keysAndValues...)...)
}
