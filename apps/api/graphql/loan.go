package gqlapi

import (
	"context"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/trezcool/empoderar/core/loan"
)

type loanResolver struct {
	root *Resolver
	l    loan.Loan
}

func (r *Resolver) newLoan(l loan.Loan) *loanResolver {
	return &loanResolver{root: r, l: l}
}

func (r *Resolver) newLoans(loans []loan.Loan) *[]*loanResolver {
	list := make([]*loanResolver, 0, len(loans))
	for _, l := range loans {
		list = append(list, r.newLoan(l))
	}
	return &list
}

func (l *loanResolver) ID() graphql.ID            { return graphql.ID(l.l.ID) }
func (l *loanResolver) Amount() float64           { return l.l.Amount }
func (l *loanResolver) Purpose() string           { return l.l.Purpose }
func (l *loanResolver) Status() string            { return l.l.Status }
func (l *loanResolver) InterestRate() float64     { return l.l.InterestRate }
func (l *loanResolver) TermMonths() int32         { return int32(l.l.TermMonths) }
func (l *loanResolver) RequestedAt() string       { return formatTime(l.l.RequestedAt) }
func (l *loanResolver) ApprovedAt() *string       { return optTime(l.l.ApprovedAt) }
func (l *loanResolver) DueDate() *string          { return optTime(l.l.DueDate) }
func (l *loanResolver) RejectionReason() *string  { return optString(l.l.RejectionReason) }
func (l *loanResolver) Notes() *string            { return optString(l.l.Notes) }
func (l *loanResolver) MonthlyPayment() *float64  { return &l.l.MonthlyPayment }
func (l *loanResolver) TotalAmount() *float64     { return &l.l.TotalAmount }
func (l *loanResolver) RemainingAmount() *float64 { return &l.l.RemainingAmount }
func (l *loanResolver) CreatedAt() string         { return formatTime(l.l.CreatedAt) }
func (l *loanResolver) UpdatedAt() string         { return formatTime(l.l.UpdatedAt) }

func (l *loanResolver) User(ctx context.Context) (*userResolver, error) {
	return l.root.userByID(ctx, l.l.UserID)
}

func (l *loanResolver) ApprovedBy(ctx context.Context) (*userResolver, error) {
	return l.root.userByID(ctx, l.l.ApprovedByID)
}

// Repayments lists the repayments of the loan, most recently paid first.
func (l *loanResolver) Repayments(ctx context.Context) (*[]*repaymentResolver, error) {
	repayments, err := l.root.loans.RepaymentsOf(ctx, l.l.ID)
	if err != nil {
		return nil, err
	}
	return l.root.newRepayments(repayments), nil
}

type repaymentResolver struct {
	root *Resolver
	rp   loan.Repayment
}

func (r *Resolver) newRepayment(rp loan.Repayment) *repaymentResolver {
	return &repaymentResolver{root: r, rp: rp}
}

func (r *Resolver) newRepayments(repayments []loan.Repayment) *[]*repaymentResolver {
	list := make([]*repaymentResolver, 0, len(repayments))
	for _, rp := range repayments {
		list = append(list, r.newRepayment(rp))
	}
	return &list
}

func (rp *repaymentResolver) ID() graphql.ID        { return graphql.ID(rp.rp.ID) }
func (rp *repaymentResolver) Amount() float64       { return rp.rp.Amount }
func (rp *repaymentResolver) PaymentMethod() string { return rp.rp.PaymentMethod }
func (rp *repaymentResolver) Reference() *string    { return optString(rp.rp.Reference) }
func (rp *repaymentResolver) PaidAt() string        { return formatTime(rp.rp.PaidAt) }
func (rp *repaymentResolver) Notes() *string        { return optString(rp.rp.Notes) }
func (rp *repaymentResolver) IsLate() bool          { return rp.rp.IsLate }
func (rp *repaymentResolver) LateFee() float64      { return rp.rp.LateFee }

func (rp *repaymentResolver) Loan(ctx context.Context) (*loanResolver, error) {
	l, err := rp.root.loans.GetByID(ctx, rp.rp.LoanID)
	if err != nil {
		return nil, err
	}
	return rp.root.newLoan(l), nil
}

func (rp *repaymentResolver) RecordedBy(ctx context.Context) (*userResolver, error) {
	return rp.root.userByID(ctx, rp.rp.RecordedByID)
}

// queries

func (r *Resolver) MyLoans(ctx context.Context) (*[]*loanResolver, error) {
	usr, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	loans, err := r.loans.Query(ctx, loan.QueryFilter{UserID: usr.ID})
	if err != nil {
		return nil, err
	}
	return r.newLoans(loans), nil
}

func (r *Resolver) GetLoan(ctx context.Context, args struct{ ID graphql.ID }) (*loanResolver, error) {
	usr, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	l, err := r.loans.Get(ctx, usr, string(args.ID))
	if err != nil {
		return nil, err
	}
	return r.newLoan(l), nil
}

func (r *Resolver) AllLoans(ctx context.Context) (*[]*loanResolver, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	loans, err := r.loans.Query(ctx, loan.QueryFilter{})
	if err != nil {
		return nil, err
	}
	return r.newLoans(loans), nil
}

func (r *Resolver) LoansByStatus(ctx context.Context, args struct{ Status string }) (*[]*loanResolver, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	loans, err := r.loans.Query(ctx, loan.QueryFilter{Statuses: []string{args.Status}})
	if err != nil {
		return nil, err
	}
	return r.newLoans(loans), nil
}

func (r *Resolver) LoanRepayments(ctx context.Context, args struct{ LoanID graphql.ID }) (*[]*repaymentResolver, error) {
	usr, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	repayments, err := r.loans.Repayments(ctx, usr, string(args.LoanID))
	if err != nil {
		return nil, err
	}
	return r.newRepayments(repayments), nil
}

// mutations

type requestLoanArgs struct {
	Amount     float64
	Purpose    string
	TermMonths *int32
}

func (r *Resolver) RequestLoan(ctx context.Context, args requestLoanArgs) (*loanResolver, error) {
	usr, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	nl := loan.NewLoan{Amount: args.Amount, Purpose: args.Purpose, TermMonths: loan.DefaultTermMonths}
	if args.TermMonths != nil {
		nl.TermMonths = int(*args.TermMonths)
	}
	l, err := r.loans.Request(ctx, usr, nl)
	if err != nil {
		return nil, err
	}
	return r.newLoan(l), nil
}

type updateLoanStatusArgs struct {
	LoanID          graphql.ID
	Status          string
	RejectionReason *string
	Notes           *string
}

func (r *Resolver) UpdateLoanStatus(ctx context.Context, args updateLoanStatusArgs) (*loanResolver, error) {
	admin, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	l, err := r.loans.UpdateStatus(ctx, admin, string(args.LoanID), loan.UpdateStatus{
		Status:          args.Status,
		RejectionReason: args.RejectionReason,
		Notes:           args.Notes,
	})
	if err != nil {
		return nil, err
	}
	return r.newLoan(l), nil
}

func (r *Resolver) DeleteLoan(ctx context.Context, args struct{ LoanID graphql.ID }) (*loanResolver, error) {
	usr, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	l, err := r.loans.Delete(ctx, usr, string(args.LoanID))
	if err != nil {
		return nil, err
	}
	return r.newLoan(l), nil
}

type registerRepaymentArgs struct {
	LoanID        graphql.ID
	Amount        float64
	PaymentMethod string
	Reference     *string
	Notes         *string
}

func (r *Resolver) RegisterRepayment(ctx context.Context, args registerRepaymentArgs) (*repaymentResolver, error) {
	usr, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	nr := loan.NewRepayment{Amount: args.Amount, PaymentMethod: args.PaymentMethod}
	if args.Reference != nil {
		nr.Reference = *args.Reference
	}
	if args.Notes != nil {
		nr.Notes = *args.Notes
	}
	rp, err := r.loans.RegisterRepayment(ctx, usr, string(args.LoanID), nr)
	if err != nil {
		return nil, err
	}
	return r.newRepayment(rp), nil
}
