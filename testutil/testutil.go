// Package testutil creates the fixtures shared by the tests of several packages.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/empoderar/core/course"
	"github.com/trezcool/empoderar/core/loan"
	"github.com/trezcool/empoderar/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd, role string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	if role == "" {
		role = user.RoleBeneficiary
	}
	usr := user.User{
		Name:        name,
		Email:       email,
		Role:        role,
		IsActive:    isActive,
		Preferences: user.DefaultPreferences(),
		Privacy:     user.DefaultPrivacy(),
		CreatedAt:   tstamp,
		UpdatedAt:   tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// CreateCourse creates an active free course.
func CreateCourse(
	t *testing.T,
	repo course.Repository,
	title, category, level, instructorID string,
	certification bool,
	createdAt ...time.Time,
) course.Course {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	c, err := repo.CreateCourse(context.Background(), course.Course{
		Title:         title,
		Category:      category,
		Duration:      10,
		IsFree:        true,
		Certification: certification,
		Level:         level,
		InstructorID:  instructorID,
		IsActive:      true,
		CreatedAt:     tstamp,
		UpdatedAt:     tstamp,
	})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return c
}

func Enroll(t *testing.T, repo course.Repository, userID, courseID string, enrolledAt ...time.Time) course.Enrollment {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(enrolledAt) > 0 {
		tstamp = enrolledAt[0].UTC()
	}
	e, err := repo.CreateEnrollment(context.Background(), course.Enrollment{
		UserID:         userID,
		CourseID:       courseID,
		EnrolledAt:     tstamp,
		LastAccessedAt: tstamp,
	})
	if err != nil {
		t.Fatalf("Enroll() failed: %v", err)
	}
	return e
}

// CreateLoan creates a loan with the default rate and `status`.
// Approved and overdue loans get approval stamps and a due date `termMonths` after `requestedAt`.
func CreateLoan(
	t *testing.T,
	repo loan.Repository,
	userID string,
	amount float64,
	termMonths int,
	status string,
	requestedAt ...time.Time,
) loan.Loan {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(requestedAt) > 0 {
		tstamp = requestedAt[0].UTC()
	}
	plan := loan.Amortize(amount, loan.DefaultInterestRate, termMonths)
	l := loan.Loan{
		UserID:          userID,
		Amount:          amount,
		Purpose:         "Capital de trabajo",
		Status:          status,
		InterestRate:    loan.DefaultInterestRate,
		TermMonths:      termMonths,
		RequestedAt:     tstamp,
		MonthlyPayment:  plan.Monthly,
		TotalAmount:     plan.Total,
		RemainingAmount: plan.Total,
		CreatedAt:       tstamp,
		UpdatedAt:       tstamp,
	}
	if status == loan.StatusApproved || status == loan.StatusOverdue || status == loan.StatusPaid {
		l.ApprovedAt = tstamp
		l.DueDate = loan.DueDate(tstamp, termMonths)
	}
	l, err := repo.CreateLoan(context.Background(), l)
	if err != nil {
		t.Fatalf("CreateLoan() failed: %v", err)
	}
	return l
}
