package loan_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/empoderar/core"
	"github.com/trezcool/empoderar/core/loan"
	"github.com/trezcool/empoderar/core/notification"
	"github.com/trezcool/empoderar/core/user"
	inmemdb "github.com/trezcool/empoderar/storage/database/inmem"
	"github.com/trezcool/empoderar/testutil"
)

type sentEvent struct {
	to string // user id or role
	ev notification.Event
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []sentEvent
}

func (n *recordingNotifier) NotifyUsers(_ context.Context, ids []string, ev notification.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, id := range ids {
		n.events = append(n.events, sentEvent{to: id, ev: ev})
	}
}

func (n *recordingNotifier) NotifyRole(_ context.Context, role string, ev notification.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, sentEvent{to: role, ev: ev})
}

func setup(t *testing.T) (*loan.Service, loan.Repository, user.Repository, *recordingNotifier) {
	t.Helper()

	db := inmemdb.Open()
	validate := validator.New()
	locales := core.NewLocales()
	core.InitValidators(validate, locales)
	loan.InitValidators(validate, locales)

	repo := inmemdb.NewLoanRepository(db)
	notifier := new(recordingNotifier)
	return loan.NewService(repo, notifier, validate), repo, inmemdb.NewUserRepository(db), notifier
}

func TestService_Request(t *testing.T) {
	svc, _, usrRepo, notifier := setup(t)
	ctx := context.Background()
	maria := testutil.CreateUser(t, usrRepo, "María", "maria@test.co", "", "", true)

	l, err := svc.Request(ctx, maria, loan.NewLoan{Amount: 1000000, Purpose: "  Máquina de coser ", TermMonths: 12})
	require.NoError(t, err)
	assert.Equal(t, loan.StatusPending, l.Status)
	assert.Equal(t, loan.DefaultTermMonths, l.TermMonths)
	assert.Equal(t, "Máquina de coser", l.Purpose)
	assert.Equal(t, l.TotalAmount, l.RemainingAmount)
	assert.True(t, l.ApprovedAt.IsZero())

	require.Len(t, notifier.events, 1)
	assert.Equal(t, user.RoleAdmin, notifier.events[0].to)
	assert.Equal(t, notification.TypeLoanRequested, notifier.events[0].ev.Type)
	assert.Equal(t, []interface{}{"María", notification.Money(1000000)}, notifier.events[0].ev.Params)

	_, err = svc.Request(ctx, maria, loan.NewLoan{Amount: 200000, Purpose: "Otro", TermMonths: 6})
	assert.Equal(t, loan.ErrOpenLoanExists, err)

	_, err = svc.Request(ctx, maria, loan.NewLoan{Amount: 50000, Purpose: "Poco", TermMonths: 40})
	_, ok := err.(validator.ValidationErrors)
	assert.True(t, ok, "want validation errors, got %v", err)
}

func TestService_Request_termRange(t *testing.T) {
	svc, _, usrRepo, _ := setup(t)
	ctx := context.Background()
	maria := testutil.CreateUser(t, usrRepo, "María", "maria@test.co", "", "", true)

	for _, term := range []int{0, -1, 37} {
		_, err := svc.Request(ctx, maria, loan.NewLoan{Amount: 1000000, Purpose: "Horno", TermMonths: term})
		verrs, ok := err.(validator.ValidationErrors)
		if assert.True(t, ok, "term %d: want validation errors, got %v", term, err) {
			assert.Equal(t, "termMonths", verrs[0].Field())
		}
	}
}

func TestService_UpdateStatus_overdueGrace(t *testing.T) {
	svc, repo, usrRepo, notifier := setup(t)
	ctx := context.Background()
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@test.co", "", user.RoleAdmin, true)
	maria := testutil.CreateUser(t, usrRepo, "María", "maria@test.co", "", "", true)

	l := testutil.CreateLoan(t, repo, maria.ID, 500000, 3, loan.StatusOverdue, time.Now().AddDate(0, -4, 0))

	before := time.Now().UTC()
	got, err := svc.UpdateStatus(ctx, admin, l.ID, loan.UpdateStatus{Status: loan.StatusApproved})
	require.NoError(t, err)
	assert.Equal(t, loan.StatusApproved, got.Status)
	assert.Equal(t, admin.ID, got.ApprovedByID)
	assert.False(t, got.DueDate.Before(loan.DueDate(before, 1)))
	assert.True(t, got.DueDate.Before(loan.DueDate(before, 1).Add(time.Minute)))

	require.Len(t, notifier.events, 1)
	assert.Equal(t, maria.ID, notifier.events[0].to)
	assert.Equal(t, notification.TypeLoanApproved, notifier.events[0].ev.Type)

	// staying in the same status notifies nobody
	_, err = svc.UpdateStatus(ctx, admin, l.ID, loan.UpdateStatus{Status: loan.StatusApproved})
	require.NoError(t, err)
	assert.Len(t, notifier.events, 1)
}

func TestService_MarkOverdue(t *testing.T) {
	svc, repo, usrRepo, _ := setup(t)
	ctx := context.Background()
	maria := testutil.CreateUser(t, usrRepo, "María", "maria@test.co", "", "", true)
	ana := testutil.CreateUser(t, usrRepo, "Ana", "ana@test.co", "", "", true)
	carla := testutil.CreateUser(t, usrRepo, "Carla", "carla@test.co", "", "", true)

	now := time.Now().UTC()
	late := testutil.CreateLoan(t, repo, maria.ID, 300000, 1, loan.StatusApproved, now.AddDate(0, -2, 0))
	current := testutil.CreateLoan(t, repo, ana.ID, 300000, 6, loan.StatusApproved, now)
	pending := testutil.CreateLoan(t, repo, carla.ID, 300000, 1, loan.StatusPending, now.AddDate(0, -2, 0))

	n, err := svc.MarkOverdue(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	for id, want := range map[string]string{
		late.ID:    loan.StatusOverdue,
		current.ID: loan.StatusApproved,
		pending.ID: loan.StatusPending,
	} {
		l, err := repo.GetLoan(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, l.Status)
	}

	// nothing left to mark
	n, err = svc.MarkOverdue(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestService_RemindDue(t *testing.T) {
	svc, repo, usrRepo, notifier := setup(t)
	ctx := context.Background()
	maria := testutil.CreateUser(t, usrRepo, "María", "maria@test.co", "", "", true)
	ana := testutil.CreateUser(t, usrRepo, "Ana", "ana@test.co", "", "", true)

	now := time.Now().UTC()
	soon := testutil.CreateLoan(t, repo, maria.ID, 300000, 1, loan.StatusApproved, now.AddDate(0, -1, 3))
	testutil.CreateLoan(t, repo, ana.ID, 300000, 6, loan.StatusApproved, now)

	window := 7 * 24 * time.Hour
	n, err := svc.RemindDue(ctx, now, window)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, notifier.events, 1)
	assert.Equal(t, maria.ID, notifier.events[0].to)
	assert.Equal(t, notification.TypePaymentDue, notifier.events[0].ev.Type)
	assert.Equal(t, soon.ID, notifier.events[0].ev.RelatedID)

	// once a day
	n, err = svc.RemindDue(ctx, now.Add(time.Minute), window)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = svc.RemindDue(ctx, now.Add(24*time.Hour), window)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestService_RegisterRepayment(t *testing.T) {
	svc, repo, usrRepo, _ := setup(t)
	ctx := context.Background()
	maria := testutil.CreateUser(t, usrRepo, "María", "maria@test.co", "", "", true)
	ana := testutil.CreateUser(t, usrRepo, "Ana", "ana@test.co", "", "", true)

	l := testutil.CreateLoan(t, repo, maria.ID, 100000, 1, loan.StatusApproved)

	_, err := svc.RegisterRepayment(ctx, ana, l.ID, loan.NewRepayment{Amount: 1000})
	assert.Equal(t, core.ErrForbidden, err)

	r, err := svc.RegisterRepayment(ctx, maria, l.ID, loan.NewRepayment{Amount: 2500, PaymentMethod: " Transferencia "})
	require.NoError(t, err)
	assert.Equal(t, loan.MethodTransfer, r.PaymentMethod)
	assert.False(t, r.IsLate)
	assert.Zero(t, r.LateFee)

	got, err := repo.GetLoan(ctx, l.ID)
	require.NoError(t, err)
	assert.InDelta(t, 100000, got.RemainingAmount, 0.001)
	assert.Equal(t, loan.StatusApproved, got.Status)

	// overpaying settles the loan
	r, err = svc.RegisterRepayment(ctx, maria, l.ID, loan.NewRepayment{Amount: 200000})
	require.NoError(t, err)
	assert.Equal(t, loan.MethodCash, r.PaymentMethod)

	got, err = repo.GetLoan(ctx, l.ID)
	require.NoError(t, err)
	assert.Zero(t, got.RemainingAmount)
	assert.Equal(t, loan.StatusPaid, got.Status)

	_, err = svc.RegisterRepayment(ctx, maria, l.ID, loan.NewRepayment{Amount: 1})
	assert.Equal(t, loan.ErrNotRepayable, err)
}
