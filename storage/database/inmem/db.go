// Package inmemdb is an in-memory implementation of every store, used by tests & local runs.
// Atomic clones the tables under the write lock and swaps the clone in only when fn succeeds,
// so transactions are serialised and rolled back like on a real database.
package inmemdb

import (
	"sync"

	"github.com/vishvavidya/traininghub/core/accesscard"
	"github.com/vishvavidya/traininghub/core/attendance"
	"github.com/vishvavidya/traininghub/core/catalog"
	"github.com/vishvavidya/traininghub/core/evaluation"
	"github.com/vishvavidya/traininghub/core/ledger"
	"github.com/vishvavidya/traininghub/core/student"
	"github.com/vishvavidya/traininghub/core/user"
)

type tables struct {
	pkCount int64

	students      map[string]student.Student
	aptitudes     map[string]student.Aptitude
	logins        map[string]student.LoginCredential
	batchMoves    []ledger.BatchMoveRecord
	statusChanges []ledger.StatusChangeRecord
	notifications []ledger.Notification

	evaluations []evaluation.Evaluation
	tracks      []catalog.Track
	batches     []catalog.Batch
	attendance  []attendance.Record
	absentees   []attendance.Absentee
	users       map[string]user.User
	accessCards []accesscard.Card
}

func newTables() *tables {
	return &tables{
		students:  make(map[string]student.Student),
		aptitudes: make(map[string]student.Aptitude),
		logins:    make(map[string]student.LoginCredential),
		users:     make(map[string]user.User),
	}
}

func (t *tables) nextPK() int64 {
	t.pkCount++
	return t.pkCount
}

func (t *tables) clone() *tables {
	c := &tables{
		pkCount:       t.pkCount,
		students:      make(map[string]student.Student, len(t.students)),
		aptitudes:     make(map[string]student.Aptitude, len(t.aptitudes)),
		logins:        make(map[string]student.LoginCredential, len(t.logins)),
		batchMoves:    append([]ledger.BatchMoveRecord(nil), t.batchMoves...),
		statusChanges: append([]ledger.StatusChangeRecord(nil), t.statusChanges...),
		notifications: append([]ledger.Notification(nil), t.notifications...),
		evaluations:   append([]evaluation.Evaluation(nil), t.evaluations...),
		tracks:        append([]catalog.Track(nil), t.tracks...),
		batches:       append([]catalog.Batch(nil), t.batches...),
		attendance:    append([]attendance.Record(nil), t.attendance...),
		absentees:     append([]attendance.Absentee(nil), t.absentees...),
		users:         make(map[string]user.User, len(t.users)),
		accessCards:   append([]accesscard.Card(nil), t.accessCards...),
	}
	for k, v := range t.students {
		c.students[k] = v
	}
	for k, v := range t.aptitudes {
		c.aptitudes[k] = v
	}
	for k, v := range t.logins {
		c.logins[k] = v
	}
	for k, v := range t.users {
		c.users[k] = v
	}
	return c
}

// DB holds the tables shared by every store created from it.
type DB struct {
	mutex sync.RWMutex
	t     *tables
}

func NewDB() *DB {
	return &DB{t: newTables()}
}

// session is a view on DB, bound to a transaction when tx is set.
type session struct {
	db *DB
	tx *tables
}

// view runs a read-only fn.
func (s session) view(fn func(t *tables) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	s.db.mutex.RLock()
	defer s.db.mutex.RUnlock()
	return fn(s.db.t)
}

// update runs a single-statement write.
func (s session) update(fn func(t *tables) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	s.db.mutex.Lock()
	defer s.db.mutex.Unlock()
	return fn(s.db.t)
}

// atomic runs fn in the current transaction, or in a new one holding the write lock until it ends.
// Stores must not be used outside of tx while fn runs.
func (s session) atomic(fn func(tx session) error) error {
	if s.tx != nil {
		return fn(s)
	}
	s.db.mutex.Lock()
	defer s.db.mutex.Unlock()

	tx := s.db.t.clone()
	if err := fn(session{db: s.db, tx: tx}); err != nil {
		return err
	}
	s.db.t = tx
	return nil
}
