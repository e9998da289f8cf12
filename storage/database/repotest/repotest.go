// Package repotest checks that a set of repositories honours the contracts of the core packages.
// Every storage backend runs the same suite.
package repotest

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/empoderar/core/course"
	"github.com/trezcool/empoderar/core/loan"
	"github.com/trezcool/empoderar/core/notification"
	"github.com/trezcool/empoderar/core/user"
	"github.com/trezcool/empoderar/testutil"
)

type Repos struct {
	Users         user.Repository
	Courses       course.Repository
	Loans         loan.Repository
	Notifications notification.Repository
}

// Run runs the suite; `newRepos` must return repositories over an empty store.
func Run(t *testing.T, newRepos func(t *testing.T) Repos) {
	tests := []struct {
		name string
		fn   func(t *testing.T, r Repos)
	}{
		{name: "users", fn: testUsers},
		{name: "courses", fn: testCourses},
		{name: "enrollments", fn: testEnrollments},
		{name: "loans", fn: testLoans},
		{name: "notifications", fn: testNotifications},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newRepos(t))
		})
	}
}

// ts returns a second-precision UTC time, `ago` in the past.
func ts(ago time.Duration) time.Time {
	return time.Now().UTC().Add(-ago).Truncate(time.Second)
}

var timeEq = cmp.Options{cmpopts.EquateApproxTime(time.Millisecond), cmpopts.EquateEmpty()}

func testUsers(t *testing.T, r Repos) {
	ctx := context.Background()

	old := testutil.CreateUser(t, r.Users, "María", "maria@test.co", "Kx9#qWz!", "", true, ts(2*time.Hour))
	mentor := testutil.CreateUser(t, r.Users, "Carlos", "carlos@test.co", "Kx9#qWz!", user.RoleMentor, true, ts(time.Hour))
	inactive := testutil.CreateUser(t, r.Users, "Ana", "ana@test.co", "Kx9#qWz!", "", false, ts(0))

	_, err := r.Users.CreateUser(ctx, user.User{Name: "Dup", Email: "maria@test.co", CreatedAt: ts(0), UpdatedAt: ts(0)})
	assert.Equal(t, user.ErrEmailExists, err)

	got, err := r.Users.GetUser(ctx, user.GetFilter{Email: "maria@test.co"})
	require.NoError(t, err)
	if diff := cmp.Diff(old, got, timeEq); diff != "" {
		t.Errorf("GetUser() mismatch (-want +got):\n%s", diff)
	}
	assert.NoError(t, got.CheckPassword("Kx9#qWz!"))

	_, err = r.Users.GetUser(ctx, user.GetFilter{ID: "7d3c4b0e-5a8f-4d5e-9b1e-1f2a3b4c5d6e"})
	assert.Equal(t, user.ErrNotFound, err)
	_, err = r.Users.GetUser(ctx, user.GetFilter{})
	assert.Equal(t, user.ErrNotFound, err)

	all, err := r.Users.QueryUsers(ctx, user.QueryFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{inactive.ID, mentor.ID, old.ID}, userIDs(all))

	active := true
	mentors, err := r.Users.QueryUsers(ctx, user.QueryFilter{Role: user.RoleMentor, IsActive: &active})
	require.NoError(t, err)
	assert.Equal(t, []string{mentor.ID}, userIDs(mentors))

	n, err := r.Users.CountUsers(ctx, user.QueryFilter{IsActive: &active})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	old.Phone = "3001234567"
	old.Privacy.ProfileVisibility = user.VisibilityPrivate
	old.Preferences.Language = "en"
	old.LastLogin = ts(0)
	_, err = r.Users.UpdateUser(ctx, old)
	require.NoError(t, err)
	got, err = r.Users.GetUser(ctx, user.GetFilter{ID: old.ID})
	require.NoError(t, err)
	if diff := cmp.Diff(old, got, timeEq); diff != "" {
		t.Errorf("UpdateUser() mismatch (-want +got):\n%s", diff)
	}

	old.Email = mentor.Email
	_, err = r.Users.UpdateUser(ctx, old)
	assert.Equal(t, user.ErrEmailExists, err)
}

func userIDs(users []user.User) []string {
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}

func testCourses(t *testing.T, r Repos) {
	ctx := context.Background()
	mentor := testutil.CreateUser(t, r.Users, "Carlos", "carlos@test.co", "", user.RoleMentor, true)

	sewing := testutil.CreateCourse(t, r.Courses, "Costura", course.CategorySewing, course.LevelBasic, mentor.ID, true, ts(time.Hour))
	finance := testutil.CreateCourse(t, r.Courses, "Finanzas", course.CategoryFinance, course.LevelIntermediate, mentor.ID, false, ts(0))

	got, err := r.Courses.GetCourse(ctx, sewing.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(sewing, got, timeEq); diff != "" {
		t.Errorf("GetCourse() mismatch (-want +got):\n%s", diff)
	}

	all, err := r.Courses.QueryCourses(ctx, course.QueryFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, finance.ID, all[0].ID)

	byCat, err := r.Courses.QueryCourses(ctx, course.QueryFilter{Category: course.CategorySewing})
	require.NoError(t, err)
	require.Len(t, byCat, 1)
	assert.Equal(t, sewing.ID, byCat[0].ID)

	finance.IsActive = false
	finance.ContentURL = "https://ejemplo.com/finanzas.pdf"
	_, err = r.Courses.UpdateCourse(ctx, finance)
	require.NoError(t, err)

	active := true
	n, err := r.Courses.CountCourses(ctx, course.QueryFilter{IsActive: &active})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err = r.Courses.GetCourse(ctx, finance.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://ejemplo.com/finanzas.pdf", got.ContentURL)

	require.NoError(t, r.Courses.DeleteCourse(ctx, finance.ID))
	_, err = r.Courses.GetCourse(ctx, finance.ID)
	assert.Equal(t, course.ErrNotFound, err)
	assert.Equal(t, course.ErrNotFound, r.Courses.DeleteCourse(ctx, finance.ID))
}

func testEnrollments(t *testing.T, r Repos) {
	ctx := context.Background()
	mentor := testutil.CreateUser(t, r.Users, "Carlos", "carlos@test.co", "", user.RoleMentor, true)
	maria := testutil.CreateUser(t, r.Users, "María", "maria@test.co", "", "", true)
	ana := testutil.CreateUser(t, r.Users, "Ana", "ana@test.co", "", "", true)
	sewing := testutil.CreateCourse(t, r.Courses, "Costura", course.CategorySewing, course.LevelBasic, mentor.ID, true)
	finance := testutil.CreateCourse(t, r.Courses, "Finanzas", course.CategoryFinance, course.LevelBasic, mentor.ID, true)

	e1 := testutil.Enroll(t, r.Courses, maria.ID, sewing.ID, ts(2*time.Hour))
	e2 := testutil.Enroll(t, r.Courses, ana.ID, sewing.ID, ts(time.Hour))
	e3 := testutil.Enroll(t, r.Courses, maria.ID, finance.ID, ts(0))

	_, err := r.Courses.CreateEnrollment(ctx, course.Enrollment{UserID: maria.ID, CourseID: sewing.ID, EnrolledAt: ts(0), LastAccessedAt: ts(0)})
	assert.Equal(t, course.ErrAlreadyEnrolled, err)

	mine, err := r.Courses.QueryEnrollments(ctx, course.EnrollmentFilter{UserID: maria.ID})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, e3.ID, mine[0].ID)
	assert.Equal(t, e1.ID, mine[1].ID)

	e2.Progress = 100
	e2.Completed = true
	e2.CompletedAt = ts(0)
	e2.CertifiedAt = ts(0)
	_, err = r.Courses.UpdateEnrollment(ctx, e2)
	require.NoError(t, err)
	got, err := r.Courses.GetEnrollment(ctx, e2.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(e2, got, timeEq); diff != "" {
		t.Errorf("UpdateEnrollment() mismatch (-want +got):\n%s", diff)
	}

	completed := true
	n, err := r.Courses.CountEnrollments(ctx, course.EnrollmentFilter{Completed: &completed})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// enrollments go with their course
	require.NoError(t, r.Courses.DeleteCourse(ctx, sewing.ID))
	_, err = r.Courses.GetEnrollment(ctx, e1.ID)
	assert.Equal(t, course.ErrEnrollmentNotFound, err)
	n, err = r.Courses.CountEnrollments(ctx, course.EnrollmentFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func testLoans(t *testing.T, r Repos) {
	ctx := context.Background()
	admin := testutil.CreateUser(t, r.Users, "Admin", "admin@test.co", "", user.RoleAdmin, true)
	maria := testutil.CreateUser(t, r.Users, "María", "maria@test.co", "", "", true)
	ana := testutil.CreateUser(t, r.Users, "Ana", "ana@test.co", "", "", true)

	now := ts(0)
	overdue := testutil.CreateLoan(t, r.Loans, maria.ID, 500000, 1, loan.StatusApproved, now.AddDate(0, -2, 0))
	current := testutil.CreateLoan(t, r.Loans, ana.ID, 1000000, 12, loan.StatusApproved, now.Add(-time.Hour))
	pending := testutil.CreateLoan(t, r.Loans, ana.ID, 250000, 6, loan.StatusPending, now)

	got, err := r.Loans.GetLoan(ctx, current.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(current, got, timeEq); diff != "" {
		t.Errorf("GetLoan() mismatch (-want +got):\n%s", diff)
	}

	anas, err := r.Loans.QueryLoans(ctx, loan.QueryFilter{UserID: ana.ID})
	require.NoError(t, err)
	require.Len(t, anas, 2)
	assert.Equal(t, pending.ID, anas[0].ID)

	due, err := r.Loans.QueryLoans(ctx, loan.QueryFilter{Statuses: []string{loan.StatusApproved}, DueBefore: now})
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, overdue.ID, due[0].ID)

	n, err := r.Loans.CountLoans(ctx, loan.QueryFilter{UserID: ana.ID, Statuses: loan.OpenStatuses})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	sum, err := r.Loans.SumLoanAmounts(ctx, loan.SumFilter{Statuses: []string{loan.StatusApproved}})
	require.NoError(t, err)
	assert.Equal(t, 1500000.0, sum)
	sum, err = r.Loans.SumLoanAmounts(ctx, loan.SumFilter{Statuses: []string{loan.StatusPaid}})
	require.NoError(t, err)
	assert.Zero(t, sum)

	current.ApprovedByID = admin.ID
	current.Notes = "aprobado en comité"
	current.LastReminderAt = now
	_, err = r.Loans.UpdateLoan(ctx, current)
	require.NoError(t, err)
	got, err = r.Loans.GetLoan(ctx, current.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(current, got, timeEq); diff != "" {
		t.Errorf("UpdateLoan() mismatch (-want +got):\n%s", diff)
	}

	first, err := r.Loans.CreateRepayment(ctx, loan.Repayment{
		LoanID: current.ID, Amount: 100000, PaymentMethod: loan.MethodCash, PaidAt: now.Add(-time.Minute), RecordedByID: ana.ID,
	})
	require.NoError(t, err)
	second, err := r.Loans.CreateRepayment(ctx, loan.Repayment{
		LoanID: current.ID, Amount: 50000, PaymentMethod: loan.MethodTransfer, Reference: "TX-1", PaidAt: now,
		RecordedByID: admin.ID, IsLate: true, LateFee: 2500,
	})
	require.NoError(t, err)

	reps, err := r.Loans.QueryRepayments(ctx, current.ID)
	require.NoError(t, err)
	if diff := cmp.Diff([]loan.Repayment{second, first}, reps, timeEq); diff != "" {
		t.Errorf("QueryRepayments() mismatch (-want +got):\n%s", diff)
	}
	paid, err := r.Loans.SumRepayments(ctx, current.ID)
	require.NoError(t, err)
	assert.Equal(t, 150000.0, paid)

	// repayments go with their loan
	require.NoError(t, r.Loans.DeleteLoan(ctx, current.ID))
	_, err = r.Loans.GetLoan(ctx, current.ID)
	assert.Equal(t, loan.ErrNotFound, err)
	reps, err = r.Loans.QueryRepayments(ctx, current.ID)
	require.NoError(t, err)
	assert.Empty(t, reps)
	assert.Equal(t, loan.ErrNotFound, r.Loans.DeleteLoan(ctx, current.ID))
}

func testNotifications(t *testing.T, r Repos) {
	ctx := context.Background()
	maria := testutil.CreateUser(t, r.Users, "María", "maria@test.co", "", "", true)
	ana := testutil.CreateUser(t, r.Users, "Ana", "ana@test.co", "", "", true)

	mk := func(userID, title string, at time.Time) notification.Notification {
		return notification.Notification{
			UserID:    userID,
			Type:      notification.TypeCourseCreated,
			Title:     title,
			Message:   title,
			CreatedAt: at,
		}
	}
	created, err := r.Notifications.CreateNotifications(ctx, []notification.Notification{
		mk(maria.ID, "uno", ts(3*time.Minute)),
		mk(maria.ID, "dos", ts(2*time.Minute)),
		mk(maria.ID, "tres", ts(time.Minute)),
		mk(ana.ID, "cuatro", ts(0)),
	})
	require.NoError(t, err)
	require.Len(t, created, 4)
	for _, n := range created {
		assert.NotEmpty(t, n.ID)
	}

	list, err := r.Notifications.QueryNotifications(ctx, notification.QueryFilter{UserID: maria.ID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "tres", list[0].Title)
	assert.Equal(t, "dos", list[1].Title)

	first := created[0]
	first.Read = true
	_, err = r.Notifications.UpdateNotification(ctx, first)
	require.NoError(t, err)

	unread := false
	n, err := r.Notifications.CountNotifications(ctx, notification.QueryFilter{UserID: maria.ID, Read: &unread})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, r.Notifications.MarkAllRead(ctx, maria.ID))
	n, err = r.Notifications.CountNotifications(ctx, notification.QueryFilter{UserID: maria.ID, Read: &unread})
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = r.Notifications.CountNotifications(ctx, notification.QueryFilter{UserID: ana.ID, Read: &unread})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, r.Notifications.DeleteNotification(ctx, first.ID))
	_, err = r.Notifications.GetNotification(ctx, first.ID)
	assert.Equal(t, notification.ErrNotFound, err)
	assert.Equal(t, notification.ErrNotFound, r.Notifications.DeleteNotification(ctx, first.ID))
}
