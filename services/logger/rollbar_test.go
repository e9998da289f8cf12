package logsvc

import (
	"bytes"
	"context"
	"errors"
	"log"
	"testing"

	"github.com/rollbar/rollbar-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/empoderar/core"
	"github.com/trezcool/empoderar/core/user"
)

func Test_newEntry(t *testing.T) {
	errBoom := errors.New("boom")
	extras := map[string]interface{}{"loan": "123"}
	ana := user.User{ID: "u1", Name: "Ana", Email: "ana@empoderar.co"}

	e := newEntry("failed", []interface{}{errBoom, 42, ana, extras, user.User{ID: "u2"}})

	require.NotNil(t, e.person)
	assert.Equal(t, rollbar.Person{Id: "u1", Username: "Ana", Email: "ana@empoderar.co"}, *e.person)
	require.Len(t, e.items, 4)
	assert.Equal(t, "failed", e.items[0])
	assert.Equal(t, errBoom, e.items[1])
	assert.Equal(t, extras, e.items[2])

	ctx, ok := e.items[3].(context.Context)
	require.True(t, ok, "the person travels in a context")
	p, ok := rollbar.PersonFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "u1", p.Id)

	e = newEntry("anonymous", nil)
	assert.Nil(t, e.person)
	assert.Equal(t, []interface{}{"anonymous"}, e.items)
}

func TestRollbarLogger_print(t *testing.T) {
	conf := core.NewTestConfig()

	var buf bytes.Buffer
	logger := NewRollbarLogger(log.New(&buf, "API : ", 0), conf)
	logger.Debug("hidden")
	logger.Error("saving loan", errors.New("db down"), user.User{ID: "u1", Name: "Ana"})

	assert.Equal(t, "API : ERROR: saving loan\nAPI : db down\n", buf.String())

	buf.Reset()
	conf.Debug = true
	logger = NewRollbarLogger(log.New(&buf, "", 0), conf)
	logger.Debug("shown")
	assert.Equal(t, "DEBUG: shown\n", buf.String())
}
