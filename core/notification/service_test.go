package notification_test

import (
	"context"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/empoderar/core"
	"github.com/trezcool/empoderar/core/notification"
	"github.com/trezcool/empoderar/core/user"
	inmemdb "github.com/trezcool/empoderar/storage/database/inmem"
	"github.com/trezcool/empoderar/testutil"
)

type outbox struct {
	mu   sync.Mutex
	msgs []*core.EmailMessage
}

func (o *outbox) SendMessages(messages ...*core.EmailMessage) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.msgs = append(o.msgs, messages...)
}

type errLogger struct {
	errors []string
}

func (l *errLogger) Debug(string, ...interface{}) {}
func (l *errLogger) Info(string, ...interface{})  {}
func (l *errLogger) Warn(string, ...interface{})  {}
func (l *errLogger) Fatal(string, ...interface{}) {}
func (l *errLogger) Error(msg string, _ ...interface{}) {
	l.errors = append(l.errors, msg)
}

type fixture struct {
	svc     *notification.Service
	repo    notification.Repository
	usrRepo user.Repository
	outbox  *outbox
	logger  *errLogger
}

func setup(t *testing.T) fixture {
	t.Helper()

	db := inmemdb.Open()
	locales := core.NewLocales()
	require.NoError(t, notification.RegisterTranslations(locales))

	usrRepo := inmemdb.NewUserRepository(db)
	f := fixture{
		repo:    inmemdb.NewNotificationRepository(db),
		usrRepo: usrRepo,
		outbox:  new(outbox),
		logger:  new(errLogger),
	}
	f.svc = notification.NewService(f.repo, user.NewService(usrRepo, validator.New()), locales, f.outbox, f.logger)
	return f
}

func TestService_Notify(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	maria := testutil.CreateUser(t, f.usrRepo, "María", "maria@test.co", "", "", true)
	ana := testutil.CreateUser(t, f.usrRepo, "Ana", "ana@test.co", "", "", true)
	ana.Preferences.Language = core.LangEN
	ana.Preferences.EmailNotifications = false
	ana, err := f.usrRepo.UpdateUser(ctx, ana)
	require.NoError(t, err)
	quiet := testutil.CreateUser(t, f.usrRepo, "Quiet", "quiet@test.co", "", "", true)
	quiet.Preferences.CourseReminders = false
	quiet, err = f.usrRepo.UpdateUser(ctx, quiet)
	require.NoError(t, err)
	gone := testutil.CreateUser(t, f.usrRepo, "Gone", "gone@test.co", "", "", false)

	ev := notification.Event{
		Type:         notification.TypeCourseCreated,
		Params:       []interface{}{"Costura"},
		RelatedID:    "c1",
		RelatedModel: notification.ModelCourse,
	}
	notifs, err := f.svc.Notify(ctx, []user.User{maria, ana, quiet, gone}, ev)
	require.NoError(t, err)
	require.Len(t, notifs, 2)

	assert.Equal(t, maria.ID, notifs[0].UserID)
	assert.Equal(t, "Nuevo curso disponible", notifs[0].Title)
	assert.Equal(t, "Ya puedes inscribirte en el curso \"Costura\"", notifs[0].Message)
	assert.Equal(t, "c1", notifs[0].RelatedID)
	assert.False(t, notifs[0].Read)
	assert.NotEmpty(t, notifs[0].ID)

	assert.Equal(t, ana.ID, notifs[1].UserID)
	assert.Equal(t, "You can now enroll in the course \"Costura\"", notifs[1].Message)

	// only María wants emails
	require.Len(t, f.outbox.msgs, 1)
	msg := f.outbox.msgs[0]
	assert.Equal(t, "maria@test.co", msg.To[0].Address)
	assert.Equal(t, "Nuevo curso disponible", msg.Subject)

	// nobody left to notify
	notifs, err = f.svc.Notify(ctx, []user.User{gone}, ev)
	require.NoError(t, err)
	assert.Empty(t, notifs)
}

func TestService_NotifyUsers(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	maria := testutil.CreateUser(t, f.usrRepo, "María", "maria@test.co", "", "", true)

	f.svc.NotifyUsers(ctx, []string{maria.ID, maria.ID, "", "unknown"}, notification.Event{
		Type:   notification.TypeCourseCompleted,
		Params: []interface{}{"Costura"},
	})

	n, err := f.svc.CountUnread(ctx, maria.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, f.logger.errors, 1, "the unknown user is logged")
}

func TestService_NotifyRole(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	admin := testutil.CreateUser(t, f.usrRepo, "Admin", "admin@test.co", "", user.RoleAdmin, true)
	maria := testutil.CreateUser(t, f.usrRepo, "María", "maria@test.co", "", "", true)

	f.svc.NotifyAdmins(ctx, notification.Event{
		Type:   notification.TypeLoanRequested,
		Params: []interface{}{"María", notification.Money(250000)},
	})

	list, err := f.svc.List(ctx, admin.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "María ha solicitado un préstamo de $250.000", list[0].Message)

	list, err = f.svc.List(ctx, maria.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Empty(t, f.logger.errors)
}

func TestService_MarkRead_Delete(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	maria := testutil.CreateUser(t, f.usrRepo, "María", "maria@test.co", "", "", true)
	ana := testutil.CreateUser(t, f.usrRepo, "Ana", "ana@test.co", "", "", true)

	notifs, err := f.svc.Notify(ctx, []user.User{maria}, notification.Event{Type: notification.TypeCourseCompleted, Params: []interface{}{"Costura"}})
	require.NoError(t, err)
	id := notifs[0].ID

	_, err = f.svc.MarkRead(ctx, ana.ID, id)
	assert.Equal(t, notification.ErrNotFound, err)

	got, err := f.svc.MarkRead(ctx, maria.ID, id)
	require.NoError(t, err)
	assert.True(t, got.Read)

	_, err = f.svc.Delete(ctx, ana.ID, id)
	assert.Equal(t, notification.ErrNotFound, err)

	_, err = f.svc.Delete(ctx, maria.ID, id)
	require.NoError(t, err)
	_, err = f.svc.Delete(ctx, maria.ID, id)
	assert.Equal(t, notification.ErrNotFound, err)
}
