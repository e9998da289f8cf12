package loan

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/empoderar/core"
)

// Statuses
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
	StatusPaid     = "paid"
	StatusOverdue  = "overdue"
)

// Payment methods
const (
	MethodCash     = "efectivo"
	MethodTransfer = "transferencia"
	MethodCard     = "tarjeta"
	MethodOther    = "otro"
)

const (
	MinAmount           = 100000
	MaxAmount           = 5000000
	MinTermMonths       = 1
	MaxTermMonths       = 36
	DefaultTermMonths   = 12
	DefaultInterestRate = 2.5 // monthly, percent
	LateFeeRate         = 0.05
)

var (
	AllStatuses = []string{StatusPending, StatusApproved, StatusRejected, StatusPaid, StatusOverdue}
	AllMethods  = []string{MethodCash, MethodTransfer, MethodCard, MethodOther}

	// OpenStatuses are the statuses of a loan that still blocks a new request.
	OpenStatuses = []string{StatusPending, StatusApproved, StatusOverdue}

	// transitions lists the statuses a loan may move to from each status.
	transitions = map[string][]string{
		StatusPending:  {StatusApproved, StatusRejected},
		StatusApproved: {StatusPaid, StatusOverdue},
		StatusOverdue:  {StatusPaid, StatusApproved},
	}
)

// CanTransition reports whether a loan may move from `from` to `to`.
// Staying in the same status is always allowed.
func CanTransition(from, to string) bool {
	return from == to || core.StringInSlice(to, transitions[from])
}

type Loan struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	Amount          float64   `json:"amount"`
	Purpose         string    `json:"purpose"`
	Status          string    `json:"status"`
	InterestRate    float64   `json:"interestRate"`
	TermMonths      int       `json:"termMonths"`
	RequestedAt     time.Time `json:"requestedAt"`
	ApprovedAt      time.Time `json:"approvedAt"`
	DueDate         time.Time `json:"dueDate"`
	ApprovedByID    string    `json:"approvedById"`
	RejectionReason string    `json:"rejectionReason"`
	Notes           string    `json:"notes"`
	MonthlyPayment  float64   `json:"monthlyPayment"`
	TotalAmount     float64   `json:"totalAmount"`
	RemainingAmount float64   `json:"remainingAmount"`
	LastReminderAt  time.Time `json:"-"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// IsOpen reports whether the loan still has to be decided on or repaid.
func (l Loan) IsOpen() bool {
	return core.StringInSlice(l.Status, OpenStatuses)
}

// AcceptsRepayments reports whether repayments may be registered against the loan.
func (l Loan) AcceptsRepayments() bool {
	return l.Status == StatusApproved || l.Status == StatusOverdue
}

type Repayment struct {
	ID            string    `json:"id"`
	LoanID        string    `json:"loanId"`
	Amount        float64   `json:"amount"`
	PaymentMethod string    `json:"paymentMethod"`
	Reference     string    `json:"reference"`
	PaidAt        time.Time `json:"paidAt"`
	RecordedByID  string    `json:"recordedById"`
	Notes         string    `json:"notes"`
	IsLate        bool      `json:"isLate"`
	LateFee       float64   `json:"lateFee"`
}

type NewLoan struct {
	Amount     float64 `json:"amount" validate:"loanamount"`
	Purpose    string  `json:"purpose" validate:"required,notblank"`
	TermMonths int     `json:"termMonths" validate:"loanterm"`
}

func (nl *NewLoan) Validate(validate *validator.Validate) error {
	nl.Purpose = core.CleanString(nl.Purpose)
	return validate.Struct(nl)
}

type UpdateStatus struct {
	Status          string  `json:"status" validate:"loanstatus"`
	RejectionReason *string `json:"rejectionReason"`
	Notes           *string `json:"notes"`
}

func (us *UpdateStatus) Validate(validate *validator.Validate) error {
	us.Status = core.CleanString(us.Status, true /* lower */)
	us.RejectionReason = core.CleanStringPtr(us.RejectionReason)
	us.Notes = core.CleanStringPtr(us.Notes)
	return validate.Struct(us)
}

type NewRepayment struct {
	Amount        float64 `json:"amount" validate:"gt=0"`
	PaymentMethod string  `json:"paymentMethod" validate:"paymethod"`
	Reference     string  `json:"reference"`
	Notes         string  `json:"notes"`
}

func (nr *NewRepayment) Validate(validate *validator.Validate) error {
	nr.PaymentMethod = core.CleanString(nr.PaymentMethod, true /* lower */)
	nr.Reference = core.CleanString(nr.Reference)
	nr.Notes = core.CleanString(nr.Notes)
	if nr.PaymentMethod == "" {
		nr.PaymentMethod = MethodCash
	}
	return validate.Struct(nr)
}

type QueryFilter struct {
	UserID   string
	Statuses []string
	// DueBefore keeps loans whose due date is set and strictly before it.
	DueBefore time.Time
}

// SumFilter selects the loans whose amounts are summed.
type SumFilter struct {
	Statuses []string
}
