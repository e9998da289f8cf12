package sqlxrepos

import (
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/empoderar/core/loan"
)

func Test_where(t *testing.T) {
	w := new(where)
	assert.Equal(t, "", w.String())

	// an empty IN list is skipped
	assert.NoError(t, w.in("status", nil))
	assert.Equal(t, "", w.String())

	w.add("user_id = ?", "u1")
	assert.NoError(t, w.in("status", []string{"pending", "approved"}))
	assert.Equal(t, " WHERE user_id = ? AND status IN (?, ?)", w.String())
	assert.Equal(t, []interface{}{"u1", "pending", "approved"}, w.args)

	q := sqlx.Rebind(sqlx.DOLLAR, "SELECT 1 FROM loan"+w.String())
	assert.Equal(t, "SELECT 1 FROM loan WHERE user_id = $1 AND status IN ($2, $3)", q)
}

func Test_loanWhere(t *testing.T) {
	due := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	w, err := loanWhere(loan.QueryFilter{Statuses: []string{loan.StatusApproved}, DueBefore: due})
	if err != nil {
		t.Fatalf("loanWhere() failed: %v", err)
	}
	assert.Equal(t, " WHERE status IN (?) AND due_date IS NOT NULL AND due_date < ?", w.String())
	assert.Equal(t, []interface{}{loan.StatusApproved, due}, w.args)
}

func Test_nullString(t *testing.T) {
	assert.False(t, nullString("").Valid)
	assert.Equal(t, "x", nullString("x").String)
}
