// Package inmemdb implements the domain repositories in memory, for tests and database-less development.
package inmemdb

import (
	"sync"

	"github.com/google/uuid"

	"github.com/alloyapp/alloy/core/assistant"
	"github.com/alloyapp/alloy/core/attendance"
	"github.com/alloyapp/alloy/core/document"
	"github.com/alloyapp/alloy/core/note"
	"github.com/alloyapp/alloy/core/subject"
	"github.com/alloyapp/alloy/core/task"
	"github.com/alloyapp/alloy/core/timetable"
	"github.com/alloyapp/alloy/core/user"
)

type (
	// DB holds every table behind one lock, so cascades are atomic.
	DB struct {
		mutex sync.RWMutex

		users         *table[user.User]
		subjects      *table[subject.Subject]
		timetable     *table[timetable.Entry]
		attendance    *table[attendance.Record]
		tasks         *table[task.Task]
		notes         *table[note.Note]
		documents     *table[document.Document]
		conversations *table[assistant.Conversation]
	}

	// table keeps rows by id and remembers insertion order.
	table[T any] struct {
		rows  map[string]T
		order []string
	}
)

func Open() (*DB, error) {
	db := &DB{
		users:         newTable[user.User](),
		subjects:      newTable[subject.Subject](),
		timetable:     newTable[timetable.Entry](),
		attendance:    newTable[attendance.Record](),
		tasks:         newTable[task.Task](),
		notes:         newTable[note.Note](),
		documents:     newTable[document.Document](),
		conversations: newTable[assistant.Conversation](),
	}
	return db, nil
}

func newID() string {
	return uuid.New().String()
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[string]T)}
}

func (t *table[T]) get(id string) (T, bool) {
	row, ok := t.rows[id]
	return row, ok
}

func (t *table[T]) insert(id string, row T) {
	if _, ok := t.rows[id]; !ok {
		t.order = append(t.order, id)
	}
	t.rows[id] = row
}

// update replaces an existing row; it reports false when there is none.
func (t *table[T]) update(id string, row T) bool {
	if _, ok := t.rows[id]; !ok {
		return false
	}
	t.rows[id] = row
	return true
}

// filter returns the rows matching keep, in insertion order.
func (t *table[T]) filter(keep func(T) bool) []T {
	rows := make([]T, 0)
	for _, id := range t.order {
		if row := t.rows[id]; keep(row) {
			rows = append(rows, row)
		}
	}
	return rows
}

// deleteWhere removes the rows matching del and returns them.
func (t *table[T]) deleteWhere(del func(T) bool) []T {
	deleted := make([]T, 0)
	kept := t.order[:0]
	for _, id := range t.order {
		row := t.rows[id]
		if del(row) {
			deleted = append(deleted, row)
			delete(t.rows, id)
		} else {
			kept = append(kept, id)
		}
	}
	t.order = kept
	return deleted
}

func reverse[T any](rows []T) []T {
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows
}
