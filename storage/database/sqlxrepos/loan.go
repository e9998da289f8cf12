package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/empoderar/core"
	"github.com/trezcool/empoderar/core/loan"
)

const (
	loanColumns = `id, user_id, amount, purpose, status, interest_rate, term_months, requested_at,
	approved_at, due_date, approved_by_id, rejection_reason, notes, monthly_payment, total_amount,
	remaining_amount, last_reminder_at, created_at, updated_at`
	repaymentColumns = `id, loan_id, amount, payment_method, reference, paid_at, recorded_by_id,
	notes, is_late, late_fee`
)

type dbLoan struct {
	ID              string      `db:"id"`
	UserID          string      `db:"user_id"`
	Amount          float64     `db:"amount"`
	Purpose         string      `db:"purpose"`
	Status          string      `db:"status"`
	InterestRate    float64     `db:"interest_rate"`
	TermMonths      int         `db:"term_months"`
	RequestedAt     time.Time   `db:"requested_at"`
	ApprovedAt      null.Time   `db:"approved_at"`
	DueDate         null.Time   `db:"due_date"`
	ApprovedByID    null.String `db:"approved_by_id"`
	RejectionReason null.String `db:"rejection_reason"`
	Notes           null.String `db:"notes"`
	MonthlyPayment  float64     `db:"monthly_payment"`
	TotalAmount     float64     `db:"total_amount"`
	RemainingAmount float64     `db:"remaining_amount"`
	LastReminderAt  null.Time   `db:"last_reminder_at"`
	CreatedAt       time.Time   `db:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at"`
}

func nullTime(t time.Time) null.Time {
	return null.NewTime(t, !t.IsZero())
}

func fromNullTime(t null.Time) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time.UTC()
}

func toDBLoan(l loan.Loan) dbLoan {
	return dbLoan{
		ID:              l.ID,
		UserID:          l.UserID,
		Amount:          l.Amount,
		Purpose:         l.Purpose,
		Status:          l.Status,
		InterestRate:    l.InterestRate,
		TermMonths:      l.TermMonths,
		RequestedAt:     l.RequestedAt,
		ApprovedAt:      nullTime(l.ApprovedAt),
		DueDate:         nullTime(l.DueDate),
		ApprovedByID:    nullString(l.ApprovedByID),
		RejectionReason: nullString(l.RejectionReason),
		Notes:           nullString(l.Notes),
		MonthlyPayment:  l.MonthlyPayment,
		TotalAmount:     l.TotalAmount,
		RemainingAmount: l.RemainingAmount,
		LastReminderAt:  nullTime(l.LastReminderAt),
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}
}

func (l dbLoan) toLoan() loan.Loan {
	return loan.Loan{
		ID:              l.ID,
		UserID:          l.UserID,
		Amount:          l.Amount,
		Purpose:         l.Purpose,
		Status:          l.Status,
		InterestRate:    l.InterestRate,
		TermMonths:      l.TermMonths,
		RequestedAt:     l.RequestedAt.UTC(),
		ApprovedAt:      fromNullTime(l.ApprovedAt),
		DueDate:         fromNullTime(l.DueDate),
		ApprovedByID:    l.ApprovedByID.String,
		RejectionReason: l.RejectionReason.String,
		Notes:           l.Notes.String,
		MonthlyPayment:  l.MonthlyPayment,
		TotalAmount:     l.TotalAmount,
		RemainingAmount: l.RemainingAmount,
		LastReminderAt:  fromNullTime(l.LastReminderAt),
		CreatedAt:       l.CreatedAt.UTC(),
		UpdatedAt:       l.UpdatedAt.UTC(),
	}
}

type dbRepayment struct {
	ID            string      `db:"id"`
	LoanID        string      `db:"loan_id"`
	Amount        float64     `db:"amount"`
	PaymentMethod string      `db:"payment_method"`
	Reference     null.String `db:"reference"`
	PaidAt        time.Time   `db:"paid_at"`
	RecordedByID  null.String `db:"recorded_by_id"`
	Notes         null.String `db:"notes"`
	IsLate        bool        `db:"is_late"`
	LateFee       float64     `db:"late_fee"`
}

func toDBRepayment(r loan.Repayment) dbRepayment {
	return dbRepayment{
		ID:            r.ID,
		LoanID:        r.LoanID,
		Amount:        r.Amount,
		PaymentMethod: r.PaymentMethod,
		Reference:     nullString(r.Reference),
		PaidAt:        r.PaidAt,
		RecordedByID:  nullString(r.RecordedByID),
		Notes:         nullString(r.Notes),
		IsLate:        r.IsLate,
		LateFee:       r.LateFee,
	}
}

func (r dbRepayment) toRepayment() loan.Repayment {
	return loan.Repayment{
		ID:            r.ID,
		LoanID:        r.LoanID,
		Amount:        r.Amount,
		PaymentMethod: r.PaymentMethod,
		Reference:     r.Reference.String,
		PaidAt:        r.PaidAt.UTC(),
		RecordedByID:  r.RecordedByID.String,
		Notes:         r.Notes.String,
		IsLate:        r.IsLate,
		LateFee:       r.LateFee,
	}
}

type loanRepository struct {
	db core.DB
}

var _ loan.Repository = (*loanRepository)(nil)

func NewLoanRepository(db core.DB) loan.Repository {
	return &loanRepository{db: db}
}

func (repo *loanRepository) CreateLoan(ctx context.Context, l loan.Loan) (loan.Loan, error) {
	l.ID = newID()
	q := `INSERT INTO loan (` + loanColumns + `) VALUES (
		:id, :user_id, :amount, :purpose, :status, :interest_rate, :term_months, :requested_at,
		:approved_at, :due_date, :approved_by_id, :rejection_reason, :notes, :monthly_payment, :total_amount,
		:remaining_amount, :last_reminder_at, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, toDBLoan(l)); err != nil {
		return loan.Loan{}, errors.Wrap(err, "inserting loan")
	}
	return l, nil
}

func (repo *loanRepository) GetLoan(ctx context.Context, id string) (loan.Loan, error) {
	var l dbLoan
	if err := repo.db.GetContext(ctx, &l, `SELECT `+loanColumns+` FROM loan WHERE id = $1`, id); err != nil {
		return loan.Loan{}, notFound(err, loan.ErrNotFound)
	}
	return l.toLoan(), nil
}

func loanWhere(filter loan.QueryFilter) (*where, error) {
	w := new(where)
	if filter.UserID != "" {
		w.add("user_id = ?", filter.UserID)
	}
	if err := w.in("status", filter.Statuses); err != nil {
		return nil, err
	}
	if !filter.DueBefore.IsZero() {
		w.add("due_date IS NOT NULL AND due_date < ?", filter.DueBefore)
	}
	return w, nil
}

func (repo *loanRepository) QueryLoans(ctx context.Context, filter loan.QueryFilter) ([]loan.Loan, error) {
	w, err := loanWhere(filter)
	if err != nil {
		return nil, errors.Wrap(err, "building loan filter")
	}
	q := repo.db.Rebind(`SELECT ` + loanColumns + ` FROM loan` + w.String() + ` ORDER BY requested_at DESC`)

	var rows []dbLoan
	if err := repo.db.SelectContext(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "selecting loans")
	}
	loans := make([]loan.Loan, 0, len(rows))
	for _, l := range rows {
		loans = append(loans, l.toLoan())
	}
	return loans, nil
}

func (repo *loanRepository) CountLoans(ctx context.Context, filter loan.QueryFilter) (int, error) {
	w, err := loanWhere(filter)
	if err != nil {
		return 0, errors.Wrap(err, "building loan filter")
	}
	var n int
	if err := repo.db.GetContext(ctx, &n, repo.db.Rebind(`SELECT COUNT(*) FROM loan`+w.String()), w.args...); err != nil {
		return 0, errors.Wrap(err, "counting loans")
	}
	return n, nil
}

func (repo *loanRepository) SumLoanAmounts(ctx context.Context, filter loan.SumFilter) (float64, error) {
	w, err := loanWhere(loan.QueryFilter{Statuses: filter.Statuses})
	if err != nil {
		return 0, errors.Wrap(err, "building loan filter")
	}
	var sum float64
	q := repo.db.Rebind(`SELECT COALESCE(SUM(amount), 0) FROM loan` + w.String())
	if err := repo.db.GetContext(ctx, &sum, q, w.args...); err != nil {
		return 0, errors.Wrap(err, "summing loans")
	}
	return sum, nil
}

func (repo *loanRepository) UpdateLoan(ctx context.Context, l loan.Loan) (loan.Loan, error) {
	q := `UPDATE loan SET
		amount = :amount, purpose = :purpose, status = :status, interest_rate = :interest_rate,
		term_months = :term_months, approved_at = :approved_at, due_date = :due_date,
		approved_by_id = :approved_by_id, rejection_reason = :rejection_reason, notes = :notes,
		monthly_payment = :monthly_payment, total_amount = :total_amount,
		remaining_amount = :remaining_amount, last_reminder_at = :last_reminder_at, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, toDBLoan(l))
	if err != nil {
		return loan.Loan{}, errors.Wrap(err, "updating loan")
	}
	if err := checkAffected(res, loan.ErrNotFound); err != nil {
		return loan.Loan{}, err
	}
	return l, nil
}

func (repo *loanRepository) DeleteLoan(ctx context.Context, id string) error {
	// repayments go with ON DELETE CASCADE
	res, err := repo.db.ExecContext(ctx, `DELETE FROM loan WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting loan")
	}
	return checkAffected(res, loan.ErrNotFound)
}

func (repo *loanRepository) CreateRepayment(ctx context.Context, r loan.Repayment) (loan.Repayment, error) {
	r.ID = newID()
	q := `INSERT INTO repayment (` + repaymentColumns + `) VALUES (
		:id, :loan_id, :amount, :payment_method, :reference, :paid_at, :recorded_by_id,
		:notes, :is_late, :late_fee)`
	if _, err := repo.db.NamedExecContext(ctx, q, toDBRepayment(r)); err != nil {
		return loan.Repayment{}, errors.Wrap(err, "inserting repayment")
	}
	return r, nil
}

func (repo *loanRepository) QueryRepayments(ctx context.Context, loanID string) ([]loan.Repayment, error) {
	var rows []dbRepayment
	q := `SELECT ` + repaymentColumns + ` FROM repayment WHERE loan_id = $1 ORDER BY paid_at DESC`
	if err := repo.db.SelectContext(ctx, &rows, q, loanID); err != nil {
		return nil, errors.Wrap(err, "selecting repayments")
	}
	repayments := make([]loan.Repayment, 0, len(rows))
	for _, r := range rows {
		repayments = append(repayments, r.toRepayment())
	}
	return repayments, nil
}

func (repo *loanRepository) SumRepayments(ctx context.Context, loanID string) (float64, error) {
	var sum float64
	q := `SELECT COALESCE(SUM(amount), 0) FROM repayment WHERE loan_id = $1`
	if err := repo.db.GetContext(ctx, &sum, q, loanID); err != nil {
		return 0, errors.Wrap(err, "summing repayments")
	}
	return sum, nil
}
