package notification

import (
	"time"
)

// Types
const (
	TypeCourseEnrollment = "course_enrollment"
	TypeCourseCompleted  = "course_completed"
	TypeCourseCreated    = "course_created"
	TypeCourseUpdated    = "course_updated"
	TypeLoanRequested    = "loan_requested"
	TypeLoanApproved     = "loan_approved"
	TypeLoanRejected     = "loan_rejected"
	TypePaymentDue       = "payment_due"
)

// Related models
const (
	ModelCourse     = "Course"
	ModelLoan       = "Loan"
	ModelEnrollment = "CourseEnrollment"
)

// ListLimit is the maximum number of notifications returned by List.
const ListLimit = 50

var AllTypes = []string{
	TypeCourseEnrollment,
	TypeCourseCompleted,
	TypeCourseCreated,
	TypeCourseUpdated,
	TypeLoanRequested,
	TypeLoanApproved,
	TypeLoanRejected,
	TypePaymentDue,
}

type Notification struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Type         string    `json:"type"`
	Title        string    `json:"title"`
	Message      string    `json:"message"`
	RelatedID    string    `json:"relatedId"`
	RelatedModel string    `json:"relatedModel"`
	Read         bool      `json:"read"`
	CreatedAt    time.Time `json:"createdAt"` // UTC
}

// Event describes something users should be told about.
// Params fill the placeholders of the type's message, in the recipient's language.
type Event struct {
	Type         string
	Params       []interface{}
	RelatedID    string
	RelatedModel string
}

// Money is a message param rendered with thousands separators.
type Money float64

// Date is a message param rendered as a calendar date.
type Date time.Time

type QueryFilter struct {
	UserID string
	Read   *bool
	Limit  int
}
