package loan

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/empoderar/core"
	"github.com/trezcool/empoderar/core/notification"
	"github.com/trezcool/empoderar/core/user"
)

var (
	// errors
	ErrNotFound          = core.NewNotFoundError("loan not found")
	ErrOpenLoanExists    = core.NewConflictError("you already have a loan in progress")
	ErrInvalidTransition = core.NewInputError("invalid loan status transition")
	ErrNotDeletable      = core.NewInputError("only rejected loans can be deleted")
	ErrNotRepayable      = core.NewInputError("repayments can only be registered on approved or overdue loans")
)

type (
	Repository interface {
		CreateLoan(ctx context.Context, l Loan) (Loan, error)
		GetLoan(ctx context.Context, id string) (Loan, error)
		// QueryLoans returns the loans matching filter, most recently requested first.
		QueryLoans(ctx context.Context, filter QueryFilter) ([]Loan, error)
		UpdateLoan(ctx context.Context, l Loan) (Loan, error)
		// DeleteLoan removes the loan and its repayments.
		DeleteLoan(ctx context.Context, id string) error
		CountLoans(ctx context.Context, filter QueryFilter) (int, error)
		SumLoanAmounts(ctx context.Context, filter SumFilter) (float64, error)

		CreateRepayment(ctx context.Context, r Repayment) (Repayment, error)
		// QueryRepayments returns the repayments of a loan, most recently paid first.
		QueryRepayments(ctx context.Context, loanID string) ([]Repayment, error)
		SumRepayments(ctx context.Context, loanID string) (float64, error)
	}

	Notifier interface {
		NotifyUsers(ctx context.Context, ids []string, ev notification.Event)
		NotifyRole(ctx context.Context, role string, ev notification.Event)
	}

	Service struct {
		repo     Repository
		notifier Notifier
		validate *validator.Validate
	}
)

func NewService(repo Repository, notifier Notifier, validate *validator.Validate) *Service {
	return &Service{repo: repo, notifier: notifier, validate: validate}
}

// Request files a loan request for `usr` and tells the admins about it.
func (svc *Service) Request(ctx context.Context, usr user.User, nl NewLoan) (Loan, error) {
	if err := nl.Validate(svc.validate); err != nil {
		return Loan{}, err
	}

	open, err := svc.repo.CountLoans(ctx, QueryFilter{UserID: usr.ID, Statuses: OpenStatuses})
	if err != nil {
		return Loan{}, errors.Wrap(err, "counting open loans")
	}
	if open > 0 {
		return Loan{}, ErrOpenLoanExists
	}

	now := time.Now().UTC()
	plan := Amortize(nl.Amount, DefaultInterestRate, nl.TermMonths)
	l, err := svc.repo.CreateLoan(ctx, Loan{
		UserID:          usr.ID,
		Amount:          nl.Amount,
		Purpose:         nl.Purpose,
		Status:          StatusPending,
		InterestRate:    DefaultInterestRate,
		TermMonths:      nl.TermMonths,
		RequestedAt:     now,
		MonthlyPayment:  plan.Monthly,
		TotalAmount:     plan.Total,
		RemainingAmount: plan.Total,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		return Loan{}, errors.Wrap(err, "creating loan")
	}

	svc.notifier.NotifyRole(ctx, user.RoleAdmin, notification.Event{
		Type:         notification.TypeLoanRequested,
		Params:       []interface{}{usr.Name, notification.Money(l.Amount)},
		RelatedID:    l.ID,
		RelatedModel: notification.ModelLoan,
	})
	return l, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Loan, error) {
	return svc.repo.GetLoan(ctx, id)
}

// Get returns the Loan `id` if `by` owns it or is an admin.
func (svc *Service) Get(ctx context.Context, by user.User, id string) (Loan, error) {
	l, err := svc.repo.GetLoan(ctx, id)
	if err != nil {
		return Loan{}, err
	}
	if l.UserID != by.ID && !by.IsAdmin() {
		return Loan{}, core.ErrForbidden
	}
	return l, nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Loan, error) {
	return svc.repo.QueryLoans(ctx, filter)
}

func (svc *Service) Count(ctx context.Context, filter QueryFilter) (int, error) {
	return svc.repo.CountLoans(ctx, filter)
}

func (svc *Service) SumAmounts(ctx context.Context, statuses ...string) (float64, error) {
	return svc.repo.SumLoanAmounts(ctx, SumFilter{Statuses: statuses})
}

// UpdateStatus moves the Loan `id` along its lifecycle on behalf of the admin `by`.
// The borrower is notified when the loan enters the approved or rejected status.
func (svc *Service) UpdateStatus(ctx context.Context, by user.User, id string, us UpdateStatus) (Loan, error) {
	if err := us.Validate(svc.validate); err != nil {
		return Loan{}, err
	}
	l, err := svc.repo.GetLoan(ctx, id)
	if err != nil {
		return Loan{}, err
	}
	if !CanTransition(l.Status, us.Status) {
		return Loan{}, ErrInvalidTransition
	}

	now := time.Now().UTC()
	prevStatus := l.Status
	l.Status = us.Status
	if us.Notes != nil {
		l.Notes = *us.Notes
	}

	switch {
	case us.Status == StatusApproved && prevStatus == StatusPending:
		l.ApprovedAt = now
		l.ApprovedByID = by.ID
		l.DueDate = DueDate(now, l.TermMonths)
	case us.Status == StatusApproved && prevStatus == StatusOverdue:
		// one month of grace from the re-approval
		l.ApprovedAt = now
		l.ApprovedByID = by.ID
		l.DueDate = DueDate(now, 1)
	case us.Status == StatusRejected && us.RejectionReason != nil:
		l.RejectionReason = *us.RejectionReason
	}
	l.UpdatedAt = now

	if l, err = svc.repo.UpdateLoan(ctx, l); err != nil {
		return Loan{}, errors.Wrap(err, "updating loan")
	}

	if prevStatus != l.Status {
		switch l.Status {
		case StatusApproved:
			svc.notifier.NotifyUsers(ctx, []string{l.UserID}, notification.Event{
				Type:         notification.TypeLoanApproved,
				Params:       []interface{}{notification.Money(l.Amount)},
				RelatedID:    l.ID,
				RelatedModel: notification.ModelLoan,
			})
		case StatusRejected:
			svc.notifier.NotifyUsers(ctx, []string{l.UserID}, notification.Event{
				Type:         notification.TypeLoanRejected,
				Params:       []interface{}{l.RejectionReason},
				RelatedID:    l.ID,
				RelatedModel: notification.ModelLoan,
			})
		}
	}
	return l, nil
}

// Delete removes a rejected Loan owned by `by`.
func (svc *Service) Delete(ctx context.Context, by user.User, id string) (Loan, error) {
	l, err := svc.repo.GetLoan(ctx, id)
	if err != nil {
		return Loan{}, err
	}
	if l.UserID != by.ID {
		return Loan{}, core.ErrForbidden
	}
	if l.Status != StatusRejected {
		return Loan{}, ErrNotDeletable
	}
	if err := svc.repo.DeleteLoan(ctx, id); err != nil {
		return Loan{}, errors.Wrap(err, "deleting loan")
	}
	return l, nil
}

// RegisterRepayment records a payment against the Loan `loanID` and updates its balance.
// A loan whose balance reaches zero is paid.
func (svc *Service) RegisterRepayment(ctx context.Context, by user.User, loanID string, nr NewRepayment) (Repayment, error) {
	if err := nr.Validate(svc.validate); err != nil {
		return Repayment{}, err
	}
	l, err := svc.Get(ctx, by, loanID)
	if err != nil {
		return Repayment{}, err
	}
	if !l.AcceptsRepayments() {
		return Repayment{}, ErrNotRepayable
	}

	now := time.Now().UTC()
	r := Repayment{
		LoanID:        l.ID,
		Amount:        nr.Amount,
		PaymentMethod: nr.PaymentMethod,
		Reference:     nr.Reference,
		PaidAt:        now,
		RecordedByID:  by.ID,
		Notes:         nr.Notes,
	}
	if !l.DueDate.IsZero() && now.After(l.DueDate) {
		r.IsLate = true
		r.LateFee = LateFee(r.Amount)
	}
	if r, err = svc.repo.CreateRepayment(ctx, r); err != nil {
		return Repayment{}, errors.Wrap(err, "creating repayment")
	}

	paid, err := svc.repo.SumRepayments(ctx, l.ID)
	if err != nil {
		return Repayment{}, errors.Wrap(err, "summing repayments")
	}
	l.RemainingAmount = l.TotalAmount - paid
	if l.RemainingAmount <= 0 {
		l.RemainingAmount = 0
		l.Status = StatusPaid
	}
	l.UpdatedAt = now
	if _, err = svc.repo.UpdateLoan(ctx, l); err != nil {
		return Repayment{}, errors.Wrap(err, "updating loan balance")
	}
	return r, nil
}

// Repayments returns the repayments of the Loan `loanID` if `by` owns it or is an admin.
func (svc *Service) Repayments(ctx context.Context, by user.User, loanID string) ([]Repayment, error) {
	if _, err := svc.Get(ctx, by, loanID); err != nil {
		return nil, err
	}
	return svc.repo.QueryRepayments(ctx, loanID)
}

// RepaymentsOf returns the repayments of a loan the caller already has access to.
func (svc *Service) RepaymentsOf(ctx context.Context, loanID string) ([]Repayment, error) {
	return svc.repo.QueryRepayments(ctx, loanID)
}

// MarkOverdue moves the approved loans whose due date has passed to overdue.
func (svc *Service) MarkOverdue(ctx context.Context, now time.Time) (int, error) {
	loans, err := svc.repo.QueryLoans(ctx, QueryFilter{Statuses: []string{StatusApproved}, DueBefore: now})
	if err != nil {
		return 0, errors.Wrap(err, "querying due loans")
	}
	for _, l := range loans {
		l.Status = StatusOverdue
		l.UpdatedAt = now.UTC()
		if _, err := svc.repo.UpdateLoan(ctx, l); err != nil {
			return 0, errors.Wrapf(err, "marking loan %s overdue", l.ID)
		}
	}
	return len(loans), nil
}

// RemindDue notifies the borrowers whose approved loans fall due within `window`.
// A borrower gets at most one reminder per loan and day.
func (svc *Service) RemindDue(ctx context.Context, now time.Time, window time.Duration) (int, error) {
	now = now.UTC()
	loans, err := svc.repo.QueryLoans(ctx, QueryFilter{Statuses: []string{StatusApproved}, DueBefore: now.Add(window)})
	if err != nil {
		return 0, errors.Wrap(err, "querying due loans")
	}

	var reminded int
	for _, l := range loans {
		if l.DueDate.Before(now) || sameDay(l.LastReminderAt, now) {
			continue
		}
		svc.notifier.NotifyUsers(ctx, []string{l.UserID}, notification.Event{
			Type:         notification.TypePaymentDue,
			Params:       []interface{}{notification.Date(l.DueDate), notification.Money(l.RemainingAmount)},
			RelatedID:    l.ID,
			RelatedModel: notification.ModelLoan,
		})
		l.LastReminderAt = now
		if _, err := svc.repo.UpdateLoan(ctx, l); err != nil {
			return reminded, errors.Wrapf(err, "updating loan %s", l.ID)
		}
		reminded++
	}
	return reminded, nil
}

func sameDay(a, b time.Time) bool {
	if a.IsZero() {
		return false
	}
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
