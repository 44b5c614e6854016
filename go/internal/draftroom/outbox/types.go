// Package outbox relays durably staged room events to the JetStream event
// stream. The persist recorder writes rows in the same transaction as the
// projection; the worker here drains them, so an event that reached
// Postgres always reaches the stream at least once.
package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// OutboxEvent is one staged event. Payload holds the complete versioned
// envelope exactly as the engine published it.
type OutboxEvent struct {
	ID        uuid.UUID
	RoomID    uuid.UUID
	EventType string
	Seq       uint64
	Payload   json.RawMessage
	CreatedAt time.Time
	SentAt    *time.Time
}
