package echoapi_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/empoderar/core/course"
	"github.com/trezcool/empoderar/core/notification"
	"github.com/trezcool/empoderar/core/user"
	"github.com/trezcool/empoderar/testutil"
)

func createNotifications(t *testing.T, userID string, n int) []notification.Notification {
	t.Helper()

	now := time.Now().UTC()
	notifs := make([]notification.Notification, 0, n)
	for i := 0; i < n; i++ {
		notifs = append(notifs, notification.Notification{
			UserID:    userID,
			Type:      notification.TypeCourseCreated,
			Title:     "Nuevo curso disponible",
			Message:   "Ya puedes inscribirte",
			CreatedAt: now.Add(time.Duration(i) * time.Minute),
		})
	}
	notifs, err := notifRepo.CreateNotifications(context.Background(), notifs)
	require.NoError(t, err)
	return notifs
}

func TestNotification_ReadAndDelete(t *testing.T) {
	db.Reset()
	ana := testutil.CreateUser(t, usrRepo, "Ana", "ana@empoderar.co", "pwd-ana-123", "", true)
	rosa := testutil.CreateUser(t, usrRepo, "Rosa", "rosa@empoderar.co", "pwd-rosa-123", "", true)
	notifs := createNotifications(t, ana.ID, 3)
	rosaNotif := createNotifications(t, rosa.ID, 1)[0]
	token := getToken(t, ana)

	markRead := `mutation($id: ID!) { markNotificationAsRead(notificationId: $id) { read } }`
	del := `mutation($id: ID!) { deleteNotification(notificationId: $id) { title } }`

	runGQLTests(t, []gqlTest{
		{name: "anonymous", query: `{ myNotifications { id } }`, wantCode: "UNAUTHENTICATED"},
		{name: "anonymous count", query: `{ unreadNotificationsCount }`, wantCode: "UNAUTHENTICATED"},
		{name: "unread count", token: token, query: `{ unreadNotificationsCount }`, wantData: `{"unreadNotificationsCount":3}`},
		{name: "mark read", token: token, query: markRead, vars: map[string]interface{}{"id": notifs[0].ID}, wantData: `{"markNotificationAsRead":{"read":true}}`},
		{name: "mark read twice", token: token, query: markRead, vars: map[string]interface{}{"id": notifs[0].ID}, wantData: `{"markNotificationAsRead":{"read":true}}`},
		{name: "unread count after read", token: token, query: `{ unreadNotificationsCount }`, wantData: `{"unreadNotificationsCount":2}`},
		{name: "mark read of another user", token: token, query: markRead, vars: map[string]interface{}{"id": rosaNotif.ID}, wantCode: "NOT_FOUND"},
		{name: "delete of another user", token: token, query: del, vars: map[string]interface{}{"id": rosaNotif.ID}, wantCode: "NOT_FOUND"},
		{name: "delete", token: token, query: del, vars: map[string]interface{}{"id": notifs[1].ID}, wantData: `{"deleteNotification":{"title":"Nuevo curso disponible"}}`},
		{name: "delete twice", token: token, query: del, vars: map[string]interface{}{"id": notifs[1].ID}, wantCode: "NOT_FOUND"},
		{name: "mark all read", token: token, query: `mutation { markAllNotificationsAsRead }`, wantData: `{"markAllNotificationsAsRead":true}`},
		{name: "unread count after all read", token: token, query: `{ unreadNotificationsCount }`, wantData: `{"unreadNotificationsCount":0}`},
		{
			name:     "myNotifications newest first",
			token:    token,
			query:    `{ myNotifications { id read user { email } } }`,
			wantData: `{"myNotifications":[{"id":"` + notifs[2].ID + `","read":true,"user":{"email":"ana@empoderar.co"}},{"id":"` + notifs[0].ID + `","read":true,"user":{"email":"ana@empoderar.co"}}]}`,
		},
	})

	// other users' notifications are untouched
	got, err := notifRepo.GetNotification(context.Background(), rosaNotif.ID)
	require.NoError(t, err)
	assert.False(t, got.Read)
}

func TestNotification_ListIsCapped(t *testing.T) {
	db.Reset()
	ana := testutil.CreateUser(t, usrRepo, "Ana", "ana@empoderar.co", "pwd-ana-123", "", true)
	createNotifications(t, ana.ID, notification.ListLimit+5)

	var data struct{ MyNotifications []struct{ ID string } }
	decodeData(t, getToken(t, ana), `{ myNotifications { id } }`, nil, &data)
	assert.Len(t, data.MyNotifications, notification.ListLimit)

	resp := execGQL(t, getToken(t, ana), `{ unreadNotificationsCount }`, nil)
	require.Empty(t, resp.Errors)
	assert.JSONEq(t, `{"unreadNotificationsCount":55}`, string(resp.Data))
}

func TestNotification_LanguageAndEmail(t *testing.T) {
	db.Reset()
	mentor := testutil.CreateUser(t, usrRepo, "Marta", "marta@empoderar.co", "pwd-marta-123", user.RoleMentor, true)
	ana := testutil.CreateUser(t, usrRepo, "Ana", "ana@empoderar.co", "pwd-ana-123", "", true)
	c := testutil.CreateCourse(t, courseRepo, "Tecnología", course.CategoryTechnology, course.LevelBasic, mentor.ID, false)
	anaToken := getToken(t, ana)

	resp := execGQL(t, anaToken, `mutation { updatePreferences(language: en) { id } }`, nil)
	require.Empty(t, resp.Errors)
	resp = execGQL(t, getToken(t, mentor), `mutation { updatePreferences(emailNotifications: false) { id } }`, nil)
	require.Empty(t, resp.Errors)

	sent := len(mailSvc.SentMessages())
	resp = execGQL(t, anaToken, `mutation($id: ID!) { enrollInCourse(courseId: $id) { id } }`, map[string]interface{}{"id": c.ID})
	require.Empty(t, resp.Errors)

	var data struct {
		MyNotifications []struct {
			Type, Title, Message, RelatedModel string
			Read                               bool
		}
	}
	decodeData(t, anaToken, `{ myNotifications { type title message relatedModel read } }`, nil, &data)
	require.Len(t, data.MyNotifications, 1)
	got := data.MyNotifications[0]
	assert.Equal(t, notification.TypeCourseEnrollment, got.Type)
	assert.Equal(t, "Enrollment confirmed", got.Title)
	assert.Equal(t, `Ana enrolled in the course "Tecnología"`, got.Message)
	assert.Equal(t, notification.ModelEnrollment, got.RelatedModel)
	assert.False(t, got.Read)

	// the instructor is notified in the default language
	mentorNotifs, err := notifRepo.QueryNotifications(context.Background(), notification.QueryFilter{UserID: mentor.ID})
	require.NoError(t, err)
	require.Len(t, mentorNotifs, 1)
	assert.Equal(t, "Inscripción confirmada", mentorNotifs[0].Title)

	// only ana wants emails
	msgs := mailSvc.SentMessages()[sent:]
	require.Len(t, msgs, 1)
	assert.Equal(t, "ana@empoderar.co", msgs[0].To[0].Address)
	assert.Equal(t, "Enrollment confirmed", msgs[0].Subject)
}
