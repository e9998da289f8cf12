// Package stats computes the platform-wide figures shown on the admin dashboard.
package stats

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/empoderar/core/course"
	"github.com/trezcool/empoderar/core/loan"
)

type Stats struct {
	TotalUsers        int     `json:"totalUsers"`
	TotalCourses      int     `json:"totalCourses"`
	TotalLoans        int     `json:"totalLoans"`
	ActiveEnrollments int     `json:"activeEnrollments"`
	CompletedCourses  int     `json:"completedCourses"`
	ApprovedLoans     int     `json:"approvedLoans"`
	TotalLoanAmount   float64 `json:"totalLoanAmount"`
}

type (
	UserCounter interface {
		CountActive(ctx context.Context) (int, error)
	}

	CourseCounter interface {
		CountActive(ctx context.Context) (int, error)
		CountEnrollments(ctx context.Context, filter course.EnrollmentFilter) (int, error)
	}

	LoanCounter interface {
		Count(ctx context.Context, filter loan.QueryFilter) (int, error)
		SumAmounts(ctx context.Context, statuses ...string) (float64, error)
	}

	Service struct {
		users   UserCounter
		courses CourseCounter
		loans   LoanCounter
	}
)

func NewService(users UserCounter, courses CourseCounter, loans LoanCounter) *Service {
	return &Service{users: users, courses: courses, loans: loans}
}

// Compute gathers every figure concurrently; the first failure cancels the others.
func (svc *Service) Compute(ctx context.Context) (Stats, error) {
	var (
		st                  Stats
		completed, inFlight = true, false
	)
	g, ctx := errgroup.WithContext(ctx)

	count := func(dst *int, name string, fn func(context.Context) (int, error)) {
		g.Go(func() error {
			n, err := fn(ctx)
			if err != nil {
				return errors.Wrap(err, "counting "+name)
			}
			*dst = n
			return nil
		})
	}

	count(&st.TotalUsers, "users", svc.users.CountActive)
	count(&st.TotalCourses, "courses", svc.courses.CountActive)
	count(&st.TotalLoans, "loans", func(ctx context.Context) (int, error) {
		return svc.loans.Count(ctx, loan.QueryFilter{})
	})
	count(&st.ActiveEnrollments, "active enrollments", func(ctx context.Context) (int, error) {
		return svc.courses.CountEnrollments(ctx, course.EnrollmentFilter{Completed: &inFlight})
	})
	count(&st.CompletedCourses, "completed enrollments", func(ctx context.Context) (int, error) {
		return svc.courses.CountEnrollments(ctx, course.EnrollmentFilter{Completed: &completed})
	})
	count(&st.ApprovedLoans, "approved loans", func(ctx context.Context) (int, error) {
		return svc.loans.Count(ctx, loan.QueryFilter{Statuses: []string{loan.StatusApproved}})
	})
	g.Go(func() error {
		sum, err := svc.loans.SumAmounts(ctx, loan.StatusApproved)
		if err != nil {
			return errors.Wrap(err, "summing approved loans")
		}
		st.TotalLoanAmount = sum
		return nil
	})

	if err := g.Wait(); err != nil {
		return Stats{}, err
	}
	return st, nil
}
