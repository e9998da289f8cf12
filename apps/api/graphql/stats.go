package gqlapi

import (
	"context"

	"github.com/trezcool/empoderar/core/stats"
)

type statsResolver struct {
	st stats.Stats
}

func (s *statsResolver) TotalUsers() int32        { return int32(s.st.TotalUsers) }
func (s *statsResolver) TotalCourses() int32      { return int32(s.st.TotalCourses) }
func (s *statsResolver) TotalLoans() int32        { return int32(s.st.TotalLoans) }
func (s *statsResolver) ActiveEnrollments() int32 { return int32(s.st.ActiveEnrollments) }
func (s *statsResolver) CompletedCourses() int32  { return int32(s.st.CompletedCourses) }
func (s *statsResolver) ApprovedLoans() int32     { return int32(s.st.ApprovedLoans) }
func (s *statsResolver) TotalLoanAmount() float64 { return s.st.TotalLoanAmount }

func (r *Resolver) Stats(ctx context.Context) (*statsResolver, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	st, err := r.stats.Compute(ctx)
	if err != nil {
		return nil, err
	}
	return &statsResolver{st}, nil
}
