package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/empoderar/core"
	"github.com/trezcool/empoderar/core/loan"
)

type loanRepository struct {
	db *DB
}

var _ loan.Repository = (*loanRepository)(nil)

func NewLoanRepository(db *DB) loan.Repository {
	return &loanRepository{db: db}
}

func (repo *loanRepository) CreateLoan(_ context.Context, l loan.Loan) (loan.Loan, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	l.ID = repo.db.newID()
	repo.db.loans[l.ID] = &l
	return l, nil
}

func (repo *loanRepository) GetLoan(_ context.Context, id string) (loan.Loan, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if l, ok := repo.db.loans[id]; ok {
		return *l, nil
	}
	return loan.Loan{}, loan.ErrNotFound
}

func (repo *loanRepository) query(filter loan.QueryFilter) []loan.Loan {
	loans := make([]loan.Loan, 0)
	for _, l := range repo.db.loans {
		if filter.UserID != "" && l.UserID != filter.UserID {
			continue
		}
		if len(filter.Statuses) > 0 && !core.StringInSlice(l.Status, filter.Statuses) {
			continue
		}
		if !filter.DueBefore.IsZero() && (l.DueDate.IsZero() || !l.DueDate.Before(filter.DueBefore)) {
			continue
		}
		loans = append(loans, *l)
	}
	return loans
}

func (repo *loanRepository) QueryLoans(_ context.Context, filter loan.QueryFilter) ([]loan.Loan, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	loans := repo.query(filter)
	sort.Slice(loans, func(i, j int) bool {
		return repo.db.newer(loans[i].RequestedAt, loans[i].ID, loans[j].RequestedAt, loans[j].ID)
	})
	return loans, nil
}

func (repo *loanRepository) CountLoans(_ context.Context, filter loan.QueryFilter) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return len(repo.query(filter)), nil
}

func (repo *loanRepository) SumLoanAmounts(_ context.Context, filter loan.SumFilter) (float64, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var sum float64
	for _, l := range repo.query(loan.QueryFilter{Statuses: filter.Statuses}) {
		sum += l.Amount
	}
	return sum, nil
}

func (repo *loanRepository) UpdateLoan(_ context.Context, l loan.Loan) (loan.Loan, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.loans[l.ID]; !ok {
		return loan.Loan{}, loan.ErrNotFound
	}
	repo.db.loans[l.ID] = &l
	return l, nil
}

func (repo *loanRepository) DeleteLoan(_ context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.loans[id]; !ok {
		return loan.ErrNotFound
	}
	for rid, r := range repo.db.repayments {
		if r.LoanID == id {
			delete(repo.db.repayments, rid)
		}
	}
	delete(repo.db.loans, id)
	return nil
}

func (repo *loanRepository) CreateRepayment(_ context.Context, r loan.Repayment) (loan.Repayment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.loans[r.LoanID]; !ok {
		return loan.Repayment{}, loan.ErrNotFound
	}
	r.ID = repo.db.newID()
	repo.db.repayments[r.ID] = &r
	return r, nil
}

func (repo *loanRepository) QueryRepayments(_ context.Context, loanID string) ([]loan.Repayment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	repayments := make([]loan.Repayment, 0)
	for _, r := range repo.db.repayments {
		if r.LoanID == loanID {
			repayments = append(repayments, *r)
		}
	}
	sort.Slice(repayments, func(i, j int) bool {
		ri, rj := repayments[i], repayments[j]
		return repo.db.newer(ri.PaidAt, ri.ID, rj.PaidAt, rj.ID)
	})
	return repayments, nil
}

func (repo *loanRepository) SumRepayments(_ context.Context, loanID string) (float64, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var sum float64
	for _, r := range repo.db.repayments {
		if r.LoanID == loanID {
			sum += r.Amount
		}
	}
	return sum, nil
}
