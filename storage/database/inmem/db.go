// Package inmemdb implements the repositories on maps, for tests and demos.
package inmemdb

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/empoderar/core/course"
	"github.com/trezcool/empoderar/core/loan"
	"github.com/trezcool/empoderar/core/notification"
	"github.com/trezcool/empoderar/core/user"
)

// DB holds every table behind one lock so that cascades stay consistent.
type DB struct {
	mu            sync.RWMutex
	seq           int64
	order         map[string]int64 // {id: insertion rank}
	users         map[string]*user.User
	courses       map[string]*course.Course
	enrollments   map[string]*course.Enrollment
	loans         map[string]*loan.Loan
	repayments    map[string]*loan.Repayment
	notifications map[string]*notification.Notification
}

func Open() *DB {
	db := new(DB)
	db.reset()
	return db
}

// Reset empties every table.
func (db *DB) Reset() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.reset()
}

func (db *DB) reset() {
	db.seq = 0
	db.order = make(map[string]int64)
	db.users = make(map[string]*user.User)
	db.courses = make(map[string]*course.Course)
	db.enrollments = make(map[string]*course.Enrollment)
	db.loans = make(map[string]*loan.Loan)
	db.repayments = make(map[string]*loan.Repayment)
	db.notifications = make(map[string]*notification.Notification)
}

// newID must be called with the write lock held.
func (db *DB) newID() string {
	id := uuid.New().String()
	db.seq++
	db.order[id] = db.seq
	return id
}

// newer reports whether the record (ti, idi) sorts before (tj, idj) in a newest-first listing.
func (db *DB) newer(ti time.Time, idi string, tj time.Time, idj string) bool {
	if !ti.Equal(tj) {
		return ti.After(tj)
	}
	return db.order[idi] > db.order[idj]
}
