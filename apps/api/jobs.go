package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/empoderar/core"
	"github.com/trezcool/empoderar/core/loan"
	"github.com/trezcool/empoderar/services/scheduler"
)

const (
	jobMarkOverdueLoans  = "markOverdueLoans"
	jobRemindPaymentsDue = "remindPaymentsDue"
	day                  = 24 * time.Hour
)

// registerJobs schedules the periodic loan bookkeeping.
func registerJobs(s *scheduler.Scheduler, conf *core.Config, loans *loan.Service, logger core.Logger) error {
	window := time.Duration(conf.Jobs.PaymentReminderDays) * day

	err := s.Register(jobMarkOverdueLoans, conf.Jobs.OverdueSchedule, func(ctx context.Context) error {
		n, err := loans.MarkOverdue(ctx, time.Now())
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Info(fmt.Sprintf("%d loan(s) marked overdue", n))
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "registering "+jobMarkOverdueLoans)
	}

	err = s.Register(jobRemindPaymentsDue, conf.Jobs.RemindersSchedule, func(ctx context.Context) error {
		n, err := loans.RemindDue(ctx, time.Now(), window)
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Info(fmt.Sprintf("%d payment reminder(s) sent", n))
		}
		return nil
	})
	return errors.Wrap(err, "registering "+jobRemindPaymentsDue)
}
