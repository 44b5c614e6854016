package queue

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func ids(n int) []uuid.UUID {
	out := make([]uuid.UUID, n)
	for i := range out {
		out[i] = uuid.New()
	}
	return out
}

func assertOrder(t *testing.T, q *Queue, want []uuid.UUID) {
	t.Helper()
	got := q.Items()
	if len(got) != len(want) {
		t.Fatalf("queue has %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("entry %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestEnqueueIsIdempotent(t *testing.T) {
	q := New(10)
	a, b := uuid.New(), uuid.New()

	if err := q.Enqueue(a); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := q.Enqueue(b); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := q.Enqueue(a); err != nil {
		t.Fatalf("duplicate Enqueue should be a no-op, got %v", err)
	}
	assertOrder(t, q, []uuid.UUID{a, b})
}

func TestEnqueueRespectsCap(t *testing.T) {
	q := New(2)
	entries := ids(3)
	if err := q.Enqueue(entries[0]); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := q.Enqueue(entries[1]); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := q.Enqueue(entries[2]); !errors.Is(err, ErrFull) {
		t.Fatalf("Enqueue over cap = %v, want ErrFull", err)
	}
	// Re-adding an existing entry never trips the cap.
	if err := q.Enqueue(entries[0]); err != nil {
		t.Fatalf("idempotent Enqueue at cap = %v, want nil", err)
	}
}

func TestRemoveAndMoveToFrontAreNoOpsWhenAbsent(t *testing.T) {
	q := New(10)
	entries := ids(3)
	for _, id := range entries {
		if err := q.Enqueue(id); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	q.Remove(uuid.New())
	q.MoveToFront(uuid.New())
	assertOrder(t, q, entries)

	q.Remove(entries[1])
	assertOrder(t, q, []uuid.UUID{entries[0], entries[2]})

	q.MoveToFront(entries[2])
	assertOrder(t, q, []uuid.UUID{entries[2], entries[0]})
}

func TestReorder(t *testing.T) {
	entries := ids(4)

	tests := []struct {
		name      string
		from, to  int
		want      []int // permutation of original indices
		wantError error
	}{
		{name: "forward", from: 0, to: 2, want: []int{1, 2, 0, 3}},
		{name: "backward", from: 3, to: 1, want: []int{0, 3, 1, 2}},
		{name: "same position", from: 2, to: 2, want: []int{0, 1, 2, 3}},
		{name: "from out of range", from: 4, to: 0, wantError: ErrIndexOutOfRange},
		{name: "to out of range", from: 0, to: -1, wantError: ErrIndexOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := New(10)
			for _, id := range entries {
				if err := q.Enqueue(id); err != nil {
					t.Fatalf("Enqueue: %v", err)
				}
			}

			err := q.Reorder(tt.from, tt.to)
			if tt.wantError != nil {
				if !errors.Is(err, tt.wantError) {
					t.Fatalf("Reorder(%d, %d) = %v, want %v", tt.from, tt.to, err, tt.wantError)
				}
				assertOrder(t, q, entries)
				return
			}
			if err != nil {
				t.Fatalf("Reorder(%d, %d): %v", tt.from, tt.to, err)
			}
			want := make([]uuid.UUID, len(tt.want))
			for i, idx := range tt.want {
				want[i] = entries[idx]
			}
			assertOrder(t, q, want)
		})
	}
}

func TestFirstUndraftedSkipsStaleWithoutRemoving(t *testing.T) {
	q := New(10)
	entries := ids(3)
	for _, id := range entries {
		if err := q.Enqueue(id); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	drafted := map[uuid.UUID]bool{entries[0]: true}
	isDrafted := func(id uuid.UUID) bool { return drafted[id] }

	got, ok := q.FirstUndrafted(isDrafted)
	if !ok || got != entries[1] {
		t.Fatalf("FirstUndrafted = %s ok=%t, want %s", got, ok, entries[1])
	}
	// Stale entries stay put.
	assertOrder(t, q, entries)

	// Scanning again after more items are drafted keeps working.
	drafted[entries[1]] = true
	got, ok = q.FirstUndrafted(isDrafted)
	if !ok || got != entries[2] {
		t.Fatalf("FirstUndrafted = %s ok=%t, want %s", got, ok, entries[2])
	}

	drafted[entries[2]] = true
	if _, ok := q.FirstUndrafted(isDrafted); ok {
		t.Fatal("FirstUndrafted on a fully stale queue should report none")
	}
}

func TestFirstUndraftedEmptyQueue(t *testing.T) {
	q := New(10)
	if _, ok := q.FirstUndrafted(func(uuid.UUID) bool { return false }); ok {
		t.Fatal("FirstUndrafted on an empty queue should report none")
	}
}
