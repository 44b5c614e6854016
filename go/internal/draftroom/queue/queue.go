// Package queue implements a participant's ordered list of preferred items.
// The queue is autopick input only; it never writes draft state. Entries
// pointing at already-drafted items are stale: consumers skip them in place
// rather than deleting them.
package queue

import (
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrFull is returned when an enqueue would exceed the queue's cap.
	ErrFull = errors.New("queue is full")
	// ErrIndexOutOfRange is returned by Reorder for invalid positions.
	ErrIndexOutOfRange = errors.New("queue index out of range")
)

// Queue is a single participant's preference list. It is not safe for
// concurrent use; the owning room serializes access.
type Queue struct {
	items []uuid.UUID
	cap   int
}

// New returns an empty queue bounded to cap entries.
func New(cap int) *Queue {
	return &Queue{cap: cap}
}

// Enqueue appends itemID if not already present. Re-adding an existing
// entry is a no-op.
func (q *Queue) Enqueue(itemID uuid.UUID) error {
	if q.indexOf(itemID) >= 0 {
		return nil
	}
	if len(q.items) >= q.cap {
		return ErrFull
	}
	q.items = append(q.items, itemID)
	return nil
}

// Remove deletes itemID if present; absent entries are a no-op.
func (q *Queue) Remove(itemID uuid.UUID) {
	i := q.indexOf(itemID)
	if i < 0 {
		return
	}
	q.items = append(q.items[:i], q.items[i+1:]...)
}

// MoveToFront promotes an existing entry to priority 0; no-op if absent.
func (q *Queue) MoveToFront(itemID uuid.UUID) {
	i := q.indexOf(itemID)
	if i <= 0 {
		return
	}
	item := q.items[i]
	copy(q.items[1:i+1], q.items[:i])
	q.items[0] = item
}

// Reorder moves the entry at from to position to, renumbering priorities
// contiguously.
func (q *Queue) Reorder(from, to int) error {
	if from < 0 || from >= len(q.items) || to < 0 || to >= len(q.items) {
		return ErrIndexOutOfRange
	}
	if from == to {
		return nil
	}
	item := q.items[from]
	if from < to {
		copy(q.items[from:to], q.items[from+1:to+1])
	} else {
		copy(q.items[to+1:from+1], q.items[to:from])
	}
	q.items[to] = item
	return nil
}

// FirstUndrafted scans in priority order and returns the first entry for
// which isDrafted reports false. Stale entries are skipped, not removed, so
// repeated evaluation is safe to retry. The second return is false when the
// queue is empty or fully stale.
func (q *Queue) FirstUndrafted(isDrafted func(uuid.UUID) bool) (uuid.UUID, bool) {
	for _, id := range q.items {
		if !isDrafted(id) {
			return id, true
		}
	}
	return uuid.Nil, false
}

// Items returns a copy of the queue in priority order.
func (q *Queue) Items() []uuid.UUID {
	out := make([]uuid.UUID, len(q.items))
	copy(out, q.items)
	return out
}

// Len reports the number of entries, stale ones included.
func (q *Queue) Len() int {
	return len(q.items)
}

func (q *Queue) indexOf(itemID uuid.UUID) int {
	for i, id := range q.items {
		if id == itemID {
			return i
		}
	}
	return -1
}
