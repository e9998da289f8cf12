package echoapi_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/empoderar/core/user"
	"github.com/trezcool/empoderar/testutil"
)

const (
	registerMutation = `mutation Register($name: String!, $email: String!, $password: String!, $role: Role) {
		registerUser(name: $name, email: $email, password: $password, role: $role) {
			token
			user { name email role isActive }
		}
	}`
	loginMutation = `mutation Login($email: String!, $password: String!) {
		loginUser(email: $email, password: $password) {
			token
			user { email lastLogin }
		}
	}`
	refreshMutation = `mutation { refreshToken { token user { email } } }`
	meQuery         = `{ me { email role } }`
)

func TestAuth_RegisterUser(t *testing.T) {
	db.Reset()
	testutil.CreateUser(t, usrRepo, "Ana", "ana@empoderar.co", "pwd-ana-123", "", true)

	vars := func(name, email, pwd string) map[string]interface{} {
		return map[string]interface{}{"name": name, "email": email, "password": pwd}
	}
	tests := []gqlTest{
		{
			name:     "valid",
			query:    registerMutation,
			vars:     vars("María López", " Maria@Empoderar.co ", "tejidos-2021"),
			wantCode: "",
		},
		{
			name:     "duplicate email",
			query:    registerMutation,
			vars:     vars("Ana Bis", "ANA@empoderar.co", "tejidos-2021"),
			wantCode: "CONFLICT",
		},
		{
			name:       "short password",
			query:      registerMutation,
			vars:       vars("Lucía", "lucia@empoderar.co", "abc"),
			wantCode:   "BAD_USER_INPUT",
			wantFields: []string{"password"},
		},
		{
			name:       "invalid email",
			query:      registerMutation,
			vars:       vars("Lucía", "lucia@", "tejidos-2021"),
			wantCode:   "BAD_USER_INPUT",
			wantFields: []string{"email"},
		},
	}
	runGQLTests(t, tests)

	usr, err := usrRepo.GetUser(context.Background(), user.GetFilter{Email: "maria@empoderar.co"})
	require.NoError(t, err)
	assert.Equal(t, "María López", usr.Name)
	assert.Equal(t, user.RoleBeneficiary, usr.Role)
	assert.True(t, usr.IsActive)
	assert.False(t, usr.LastLogin.IsZero())
}

func TestAuth_RegisterUser_RoleDefault(t *testing.T) {
	db.Reset()

	register := `mutation($name: String!, $email: String!, $password: String!, $role: Role) {
		registerUser(name: $name, email: $email, password: $password, role: $role) { user { email role } }
	}`
	vars := func(email string, role ...interface{}) map[string]interface{} {
		v := map[string]interface{}{"name": "Rosa", "email": email, "password": "costura-2021"}
		if len(role) > 0 {
			v["role"] = role[0]
		}
		return v
	}

	runGQLTests(t, []gqlTest{
		{
			name:     "role omitted",
			query:    register,
			vars:     vars("rosa@empoderar.co"),
			wantData: `{"registerUser":{"user":{"email":"rosa@empoderar.co","role":"beneficiary"}}}`,
		},
		{
			name:     "role null",
			query:    register,
			vars:     vars("rosa2@empoderar.co", nil),
			wantData: `{"registerUser":{"user":{"email":"rosa2@empoderar.co","role":"beneficiary"}}}`,
		},
		{
			name:     "role given",
			query:    register,
			vars:     vars("rosa3@empoderar.co", "mentor"),
			wantData: `{"registerUser":{"user":{"email":"rosa3@empoderar.co","role":"mentor"}}}`,
		},
		{
			name:     "role argument left out",
			query:    `mutation { registerUser(name: "Rosa", email: "rosa4@empoderar.co", password: "costura-2021") { user { role } } }`,
			wantData: `{"registerUser":{"user":{"role":"beneficiary"}}}`,
		},
	})
}

func TestAuth_RegisterUser_ReturnsUsableToken(t *testing.T) {
	db.Reset()

	var data struct {
		RegisterUser struct {
			Token string
			User  struct{ Name, Email, Role string }
		}
	}
	decodeData(t, "", registerMutation, map[string]interface{}{
		"name":     "Rosa",
		"email":    "rosa@empoderar.co",
		"password": "costura-2021",
		"role":     "mentor",
	}, &data)
	require.NotEmpty(t, data.RegisterUser.Token)
	assert.Equal(t, "mentor", data.RegisterUser.User.Role)

	resp := execGQL(t, data.RegisterUser.Token, meQuery, nil)
	require.Empty(t, resp.Errors)
	assert.JSONEq(t, `{"me":{"email":"rosa@empoderar.co","role":"mentor"}}`, string(resp.Data))
}

func TestAuth_PasswordErrorsAreTranslated(t *testing.T) {
	db.Reset()
	vars := map[string]interface{}{"name": "Lucía", "email": "lucia@empoderar.co", "password": "abc"}

	tests := []struct {
		lang string
		want string
	}{
		{"", "la contraseña debe tener al menos 6 caracteres"},
		{"es-CO", "la contraseña debe tener al menos 6 caracteres"},
		{"en-US,en;q=0.9", "password must contain at least 6 characters"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.lang, func(t *testing.T) {
			var headers []string
			if tt.lang != "" {
				headers = []string{"Accept-Language", tt.lang}
			}
			resp := execGQL(t, "", registerMutation, vars, headers...)
			require.NotEmpty(t, resp.Errors)
			assert.Equal(t, "invalid input", resp.Errors[0].Message)
			assert.Equal(t, tt.want, resp.Errors[0].Extensions.Fields["password"])
		})
	}
}

func TestAuth_LoginUser(t *testing.T) {
	db.Reset()
	testutil.CreateUser(t, usrRepo, "Ana", "ana@empoderar.co", "pwd-ana-123", "", true)
	testutil.CreateUser(t, usrRepo, "Inés", "ines@empoderar.co", "pwd-ines-123", "", false)

	vars := func(email, pwd string) map[string]interface{} {
		return map[string]interface{}{"email": email, "password": pwd}
	}
	tests := []gqlTest{
		{name: "unknown email", query: loginMutation, vars: vars("nadie@empoderar.co", "pwd-ana-123"), wantCode: "UNAUTHENTICATED"},
		{name: "wrong password", query: loginMutation, vars: vars("ana@empoderar.co", "pwd-ana-124"), wantCode: "UNAUTHENTICATED"},
		{name: "deactivated", query: loginMutation, vars: vars("ines@empoderar.co", "pwd-ines-123"), wantCode: "FORBIDDEN"},
	}
	runGQLTests(t, tests)

	var data struct {
		LoginUser struct {
			Token string
			User  struct {
				Email     string
				LastLogin *string
			}
		}
	}
	decodeData(t, "", loginMutation, vars(" ANA@empoderar.co", "pwd-ana-123"), &data)
	require.NotEmpty(t, data.LoginUser.Token)
	assert.Equal(t, "ana@empoderar.co", data.LoginUser.User.Email)
	require.NotNil(t, data.LoginUser.User.LastLogin)
	lastLogin, err := time.Parse(time.RFC3339, *data.LoginUser.User.LastLogin)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), lastLogin, time.Minute)
}

func TestAuth_Tokens(t *testing.T) {
	db.Reset()
	ana := testutil.CreateUser(t, usrRepo, "Ana", "ana@empoderar.co", "pwd-ana-123", "", true)
	ines := testutil.CreateUser(t, usrRepo, "Inés", "ines@empoderar.co", "pwd-ines-123", "", false)
	ghost := user.User{ID: "00000000-0000-0000-0000-000000000000", Email: "ghost@empoderar.co"}

	claims := tokens.GetUserClaims(ana)
	claims.ExpiresAt = time.Now().Add(-time.Minute).Unix()
	expired, err := tokens.GenerateToken(claims)
	require.NoError(t, err)

	tests := []gqlTest{
		{name: "anonymous", query: meQuery, wantCode: "UNAUTHENTICATED"},
		{name: "garbage token", token: "not-a-jwt", query: meQuery, wantCode: "UNAUTHENTICATED"},
		{name: "expired token", token: expired, query: meQuery, wantCode: "UNAUTHENTICATED"},
		{name: "deleted user", token: getToken(t, ghost), query: meQuery, wantCode: "UNAUTHENTICATED"},
		{name: "deactivated user", token: getToken(t, ines), query: meQuery, wantCode: "UNAUTHENTICATED"},
		{
			name:     "valid token",
			token:    getToken(t, ana),
			query:    meQuery,
			wantData: `{"me":{"email":"ana@empoderar.co","role":"beneficiary"}}`,
		},
		{name: "anonymous public query", query: `{ allCourses { id } }`, wantData: `{"allCourses":[]}`},
	}
	runGQLTests(t, tests)
}

func TestAuth_RefreshToken(t *testing.T) {
	db.Reset()
	ana := testutil.CreateUser(t, usrRepo, "Ana", "ana@empoderar.co", "pwd-ana-123", "", true)

	stale, err := tokens.GenerateToken(tokens.GetUserClaims(ana, time.Now().Add(-5*time.Hour).Unix()))
	require.NoError(t, err)

	tests := []gqlTest{
		{name: "anonymous", query: refreshMutation, wantCode: "UNAUTHENTICATED"},
		{name: "refresh expired", token: stale, query: refreshMutation, wantCode: "FORBIDDEN"},
	}
	runGQLTests(t, tests)

	resp := execGQL(t, stale, refreshMutation, nil)
	require.NotEmpty(t, resp.Errors)
	assert.Equal(t, "refresh has expired", resp.Errors[0].Message)

	// a refreshed token keeps the original issue time
	oriat := time.Now().Add(-time.Hour).Unix()
	fresh, err := tokens.GenerateToken(tokens.GetUserClaims(ana, oriat))
	require.NoError(t, err)

	var data struct {
		RefreshToken struct {
			Token string
			User  struct{ Email string }
		}
	}
	decodeData(t, fresh, refreshMutation, nil, &data)
	assert.Equal(t, "ana@empoderar.co", data.RefreshToken.User.Email)

	claims, err := tokens.ParseToken(data.RefreshToken.Token)
	require.NoError(t, err)
	assert.Equal(t, oriat, claims.OrigIssuedAt)
	assert.Equal(t, ana.ID, claims.Subject)
}

func TestAuth_ErrorShape(t *testing.T) {
	db.Reset()

	req, rec := newRequest(http.MethodPost, "/graphql", marchallObj(t, map[string]string{"query": meQuery}))
	app.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"errors": [{"message": "not authenticated", "path": ["me"], "extensions": {"code": "UNAUTHENTICATED"}}],
		"data": {"me": null}
	}`, rec.Body.String())
}
