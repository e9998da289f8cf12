package gqlapi

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/empoderar/core/user"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

const introspectionQuery = `{ __schema { queryType { name } } }`

func TestNewSchema(t *testing.T) {
	// every field of the schema must have a matching resolver
	schema, err := NewSchema(NewResolver(Deps{}), false, nopLogger{})
	require.NoError(t, err)

	resp := schema.Exec(context.Background(), introspectionQuery, "", nil)
	require.Empty(t, resp.Errors)
	assert.JSONEq(t, `{}`, string(resp.Data), "introspection is disabled")

	debugSchema := MustNewSchema(NewResolver(Deps{}), true, nopLogger{})
	resp = debugSchema.Exec(context.Background(), introspectionQuery, "", nil)
	require.Empty(t, resp.Errors)
	assert.JSONEq(t, `{"__schema":{"queryType":{"name":"Query"}}}`, string(resp.Data))
}

func TestSchema_maxDepth(t *testing.T) {
	schema := MustNewSchema(NewResolver(Deps{}), false, nopLogger{})

	q := `{ me { courses { course { instructor { courses { course { instructor { courses { course { instructor { courses { course { instructor { id } } } } } } } } } } } } } }`
	resp := schema.Exec(context.Background(), q, "", nil)
	require.NotEmpty(t, resp.Errors)
	assert.Contains(t, resp.Errors[0].Message, "exceeds max depth")
}

func Test_requireAdmin(t *testing.T) {
	ctx := context.Background()
	_, err := requireAdmin(ctx)
	assert.Error(t, err)

	_, err = requireAdmin(user.NewContext(ctx, user.User{ID: "1", Role: user.RoleMentor}))
	assert.Error(t, err)

	usr, err := requireAdmin(user.NewContext(ctx, user.User{ID: "2", Role: user.RoleAdmin}))
	assert.NoError(t, err)
	assert.Equal(t, "2", usr.ID)
}

func Test_optionalValues(t *testing.T) {
	assert.Nil(t, optTime(time.Time{}))
	assert.Nil(t, optString(""))
	assert.Nil(t, optID(""))

	bogota := time.FixedZone("COT", -5*3600)
	got := optTime(time.Date(2026, 3, 1, 7, 30, 0, 0, bogota))
	if assert.NotNil(t, got) {
		assert.Equal(t, "2026-03-01T12:30:00Z", *got)
	}
}
