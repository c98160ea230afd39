// Package inmemdb provides in-memory repository implementations
// for tests and local tinkering.
package inmemdb

import (
	"sync"

	"github.com/tmwangi/darasa/core/lesson"
	"github.com/tmwangi/darasa/core/user"
)

// progress mirrors the per-user progress tables. Slices keep insertion
// order deterministic.
type progress struct {
	completed []string
	mistakes  []user.MistakeRecord
}

// DB is a process-local store shared by the user and lesson repositories.
type DB struct {
	mut       sync.RWMutex
	users     map[string]user.User     // keyed by ID
	lessons   map[string]lesson.Lesson // keyed by ID
	lessonIDs []string                 // insertion order
	progress  map[string]*progress     // keyed by user ID
}

func NewDB() *DB {
	return &DB{
		users:    make(map[string]user.User),
		lessons:  make(map[string]lesson.Lesson),
		progress: make(map[string]*progress),
	}
}

func (db *DB) progressFor(userID string) *progress {
	prog, ok := db.progress[userID]
	if !ok {
		prog = &progress{}
		db.progress[userID] = prog
	}
	return prog
}
