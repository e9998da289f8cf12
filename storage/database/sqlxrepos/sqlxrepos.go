// Package sqlxrepos implements the repositories on PostgreSQL.
package sqlxrepos

import (
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
)

const uniqueViolation = "23505"

func newID() string {
	return uuid.New().String()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// notFound maps sql.ErrNoRows to `nf`.
func notFound(err error, nf error) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return nf
	}
	return err
}

// checkAffected returns `nf` when `res` affected no row.
func checkAffected(res sql.Result, nf error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return nf
	}
	return nil
}

func nullString(s string) null.String {
	return null.NewString(s, s != "")
}

// where accumulates AND-ed conditions written with `?` placeholders.
type where struct {
	conds []string
	args  []interface{}
}

func (w *where) add(cond string, args ...interface{}) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

// in adds `col IN (...)`; an empty list adds nothing.
func (w *where) in(col string, values []string) error {
	if len(values) == 0 {
		return nil
	}
	cond, args, err := sqlx.In(col+" IN (?)", values)
	if err != nil {
		return err
	}
	w.add(cond, args...)
	return nil
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}
