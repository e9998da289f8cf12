package echoapi_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/empoderar/core/course"
	"github.com/trezcool/empoderar/core/loan"
	"github.com/trezcool/empoderar/core/user"
	"github.com/trezcool/empoderar/testutil"
)

func TestUser_Queries(t *testing.T) {
	db.Reset()
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@empoderar.co", "pwd-admin-123", user.RoleAdmin, true)
	mentor := testutil.CreateUser(t, usrRepo, "Marta", "marta@empoderar.co", "pwd-marta-123", user.RoleMentor, true)
	ana := testutil.CreateUser(t, usrRepo, "Ana", "ana@empoderar.co", "pwd-ana-123", "", true)
	testutil.CreateUser(t, usrRepo, "Inés", "ines@empoderar.co", "pwd-ines-123", "", false)

	adminToken := getToken(t, admin)
	anaToken := getToken(t, ana)

	tests := []gqlTest{
		{name: "allUsers anonymous", query: `{ allUsers { email } }`, wantCode: "UNAUTHENTICATED"},
		{name: "allUsers non-admin", token: anaToken, query: `{ allUsers { email } }`, wantCode: "FORBIDDEN"},
		{
			name:     "allUsers skips inactive users",
			token:    adminToken,
			query:    `{ allUsers { email } }`,
			wantData: `{"allUsers":[{"email":"ana@empoderar.co"},{"email":"marta@empoderar.co"},{"email":"admin@empoderar.co"}]}`,
		},
		{
			name:     "usersByRole",
			token:    adminToken,
			query:    `{ usersByRole(role: mentor) { name role } }`,
			wantData: `{"usersByRole":[{"name":"Marta","role":"mentor"}]}`,
		},
		{name: "usersByRole non-admin", token: anaToken, query: `{ usersByRole(role: mentor) { name } }`, wantCode: "FORBIDDEN"},
		{
			name:     "getUser public profile",
			query:    `query($id: ID!) { getUser(id: $id) { name email } }`,
			vars:     map[string]interface{}{"id": mentor.ID},
			wantData: `{"getUser":{"name":"Marta","email":"marta@empoderar.co"}}`,
		},
		{
			name:     "getUser unknown",
			query:    `query($id: ID!) { getUser(id: $id) { name } }`,
			vars:     map[string]interface{}{"id": "00000000-0000-0000-0000-000000000000"},
			wantCode: "NOT_FOUND",
		},
		{
			name:     "me preferences and privacy",
			token:    anaToken,
			query:    `{ me { preferences { theme language emailNotifications courseReminders loanUpdates } privacy { profileVisibility shareProgress allowAnalytics } } }`,
			wantData: `{"me":{"preferences":{"theme":"light","language":"es","emailNotifications":true,"courseReminders":true,"loanUpdates":true},"privacy":{"profileVisibility":"public","shareProgress":true,"allowAnalytics":true}}}`,
		},
	}
	runGQLTests(t, tests)
}

func TestUser_ProfileVisibility(t *testing.T) {
	db.Reset()
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@empoderar.co", "pwd-admin-123", user.RoleAdmin, true)
	ana := testutil.CreateUser(t, usrRepo, "Ana", "ana@empoderar.co", "pwd-ana-123", "", true)
	rosa := testutil.CreateUser(t, usrRepo, "Rosa", "rosa@empoderar.co", "pwd-rosa-123", "", true)
	anaToken := getToken(t, ana)

	setVisibility := func(visibility string) {
		t.Helper()
		resp := execGQL(t, anaToken, `mutation($v: ProfileVisibility) { updatePrivacy(profileVisibility: $v) { id } }`,
			map[string]interface{}{"v": visibility})
		require.Empty(t, resp.Errors)
	}
	getAna := `query($id: ID!) { getUser(id: $id) { name } }`
	vars := map[string]interface{}{"id": ana.ID}
	anaData := `{"getUser":{"name":"Ana"}}`

	setVisibility(user.VisibilityPrivate)
	runGQLTests(t, []gqlTest{
		{name: "private: anonymous", query: getAna, vars: vars, wantCode: "FORBIDDEN"},
		{name: "private: other user", token: getToken(t, rosa), query: getAna, vars: vars, wantCode: "FORBIDDEN"},
		{name: "private: self", token: anaToken, query: getAna, vars: vars, wantData: anaData},
		{name: "private: admin", token: getToken(t, admin), query: getAna, vars: vars, wantData: anaData},
	})

	setVisibility(user.VisibilityFriends)
	runGQLTests(t, []gqlTest{
		{name: "friends: anonymous", query: getAna, vars: vars, wantCode: "FORBIDDEN"},
		{name: "friends: other user", token: getToken(t, rosa), query: getAna, vars: vars, wantData: anaData},
	})
}

func TestUser_CoursesAndLoansVisibility(t *testing.T) {
	db.Reset()
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@empoderar.co", "pwd-admin-123", user.RoleAdmin, true)
	ana := testutil.CreateUser(t, usrRepo, "Ana", "ana@empoderar.co", "pwd-ana-123", "", true)
	rosa := testutil.CreateUser(t, usrRepo, "Rosa", "rosa@empoderar.co", "pwd-rosa-123", "", true)
	c := testutil.CreateCourse(t, courseRepo, "Finanzas básicas", course.CategoryFinance, course.LevelBasic, admin.ID, false)
	testutil.Enroll(t, courseRepo, ana.ID, c.ID)
	testutil.CreateLoan(t, loanRepo, ana.ID, 500000, 6, loan.StatusPending)

	query := `query($id: ID!) { getUser(id: $id) { courses { course { title } } loans { amount } } }`
	vars := map[string]interface{}{"id": ana.ID}
	full := `{"getUser":{"courses":[{"course":{"title":"Finanzas básicas"}}],"loans":[{"amount":500000}]}}`

	runGQLTests(t, []gqlTest{
		{name: "self", token: getToken(t, ana), query: query, vars: vars, wantData: full},
		{name: "admin", token: getToken(t, admin), query: query, vars: vars, wantData: full},
		{
			name:     "other user sees shared progress only",
			token:    getToken(t, rosa),
			query:    query,
			vars:     vars,
			wantData: `{"getUser":{"courses":[{"course":{"title":"Finanzas básicas"}}],"loans":null}}`,
		},
	})

	resp := execGQL(t, getToken(t, ana), `mutation { updatePrivacy(shareProgress: false) { id } }`, nil)
	require.Empty(t, resp.Errors)

	runGQLTests(t, []gqlTest{
		{
			name:     "other user without shared progress",
			token:    getToken(t, rosa),
			query:    query,
			vars:     vars,
			wantData: `{"getUser":{"courses":null,"loans":null}}`,
		},
	})
}

func TestUser_UpdateProfile(t *testing.T) {
	db.Reset()
	ana := testutil.CreateUser(t, usrRepo, "Ana", "ana@empoderar.co", "pwd-ana-123", "", true)
	token := getToken(t, ana)

	runGQLTests(t, []gqlTest{
		{name: "anonymous", query: `mutation { updateProfile(name: "X") { name } }`, wantCode: "UNAUTHENTICATED"},
		{
			name:       "blank name",
			token:      token,
			query:      `mutation { updateProfile(name: "   ") { name } }`,
			wantCode:   "BAD_USER_INPUT",
			wantFields: []string{"name"},
		},
		{
			name:     "valid",
			token:    token,
			query:    `mutation { updateProfile(name: " Ana María ", phone: "3001234567") { name phone address } }`,
			wantData: `{"updateProfile":{"name":"Ana María","phone":"3001234567","address":null}}`,
		},
	})

	usr, err := usrRepo.GetUser(context.Background(), user.GetFilter{ID: ana.ID})
	require.NoError(t, err)
	assert.Equal(t, "Ana María", usr.Name)
	assert.True(t, usr.UpdatedAt.After(ana.UpdatedAt))
}

func TestUser_UpdatePreferences(t *testing.T) {
	db.Reset()
	ana := testutil.CreateUser(t, usrRepo, "Ana", "ana@empoderar.co", "pwd-ana-123", "", true)

	var data struct {
		UpdatePreferences struct {
			Preferences user.Preferences
		}
	}
	decodeData(t, getToken(t, ana), `mutation {
		updatePreferences(theme: dark, language: en, loanUpdates: false) {
			preferences { theme language emailNotifications courseReminders loanUpdates }
		}
	}`, nil, &data)

	want := user.Preferences{
		Theme:              user.ThemeDark,
		Language:           "en",
		EmailNotifications: true,
		CourseReminders:    true,
		LoanUpdates:        false,
	}
	assert.Equal(t, want, data.UpdatePreferences.Preferences)
}

func TestUser_SetUserActive(t *testing.T) {
	db.Reset()
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@empoderar.co", "pwd-admin-123", user.RoleAdmin, true)
	ana := testutil.CreateUser(t, usrRepo, "Ana", "ana@empoderar.co", "pwd-ana-123", "", true)
	adminToken := getToken(t, admin)
	anaToken := getToken(t, ana)

	mutation := `mutation($id: ID!, $active: Boolean!) { setUserActive(id: $id, isActive: $active) { email isActive } }`
	vars := func(id string, active bool) map[string]interface{} {
		return map[string]interface{}{"id": id, "active": active}
	}

	runGQLTests(t, []gqlTest{
		{name: "non-admin", token: anaToken, query: mutation, vars: vars(ana.ID, false), wantCode: "FORBIDDEN"},
		{name: "self deactivation", token: adminToken, query: mutation, vars: vars(admin.ID, false), wantCode: "BAD_USER_INPUT"},
		{
			name:     "unknown user",
			token:    adminToken,
			query:    mutation,
			vars:     vars("00000000-0000-0000-0000-000000000000", false),
			wantCode: "NOT_FOUND",
		},
		{
			name:     "deactivate",
			token:    adminToken,
			query:    mutation,
			vars:     vars(ana.ID, false),
			wantData: `{"setUserActive":{"email":"ana@empoderar.co","isActive":false}}`,
		},
		// the token of a deactivated user no longer authenticates
		{name: "deactivated token", token: anaToken, query: meQuery, wantCode: "UNAUTHENTICATED"},
		{
			name:     "reactivate",
			token:    adminToken,
			query:    mutation,
			vars:     vars(ana.ID, true),
			wantData: `{"setUserActive":{"email":"ana@empoderar.co","isActive":true}}`,
		},
	})
}
