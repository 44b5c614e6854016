package engine

import (
	"github.com/mcdev12/draftroom/go/internal/draftroom/events"
)

// Subscription is one observer's registration on a room's event stream.
// The snapshot is taken at registration time; every event published after
// it arrives on Events, in order, buffered up to the engine's configured
// subscriber buffer. When the buffer overflows the engine drops the
// subscription and closes the channel; a closed channel means the observer
// must resubscribe for a fresh snapshot.
type Subscription struct {
	Snapshot RoomSnapshot

	id     uint64
	events chan events.Envelope
	room   *room
}

// Events returns the ordered event stream for this subscription.
func (s *Subscription) Events() <-chan events.Envelope {
	return s.events
}

// Cancel deregisters the subscription and closes its channel. Safe to call
// after the engine already dropped the subscriber.
func (s *Subscription) Cancel() {
	s.room.unsubscribe(s.id)
}

func (r *room) subscribe() *Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextSubID++
	sub := &Subscription{
		Snapshot: r.buildSnapshotLocked(),
		id:       r.nextSubID,
		events:   make(chan events.Envelope, r.subBuffer),
		room:     r,
	}
	r.subs[sub.id] = sub
	return sub
}

func (r *room) unsubscribe(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeSubLocked(id)
}

func (r *room) removeSubLocked(id uint64) {
	sub, ok := r.subs[id]
	if !ok {
		return
	}
	delete(r.subs, id)
	close(sub.events)
}

// publishLocked fans envelopes out to the sink and every subscriber.
// Sends never block: a subscriber whose buffer is full is dropped so a slow
// reader cannot stall the room's write path.
func (r *room) publishLocked(envs ...events.Envelope) {
	for _, env := range envs {
		if r.sink != nil {
			r.sink.Enqueue(env)
		}

		var dropped []uint64
		for id, sub := range r.subs {
			select {
			case sub.events <- env:
			default:
				dropped = append(dropped, id)
			}
		}
		for _, id := range dropped {
			r.logger.Warn().
				Uint64("subscriber_id", id).
				Str("event_type", string(env.Type)).
				Msg("dropping slow subscriber")
			r.removeSubLocked(id)
		}
	}
}
