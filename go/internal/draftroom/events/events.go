// Package events defines the typed room events the engine publishes and the
// versioned envelope they cross process boundaries in. Payloads are decoded
// and version-checked at the transport edge; nothing dynamically typed enters
// the engine.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SchemaVersion is the wire schema carried by every envelope. Consumers
// reject envelopes with a version they do not understand.
const SchemaVersion = 1

// Type identifies a room event.
type Type string

const (
	TypeRoomCreated      Type = "RoomCreated"
	TypeCountdownStarted Type = "CountdownStarted"
	TypeDraftStarted     Type = "DraftStarted"
	TypePickStarted      Type = "PickStarted"
	TypeTimerWarning     Type = "TimerWarning"
	TypeTimerCritical    Type = "TimerCritical"
	TypeGraceStarted     Type = "GraceStarted"
	TypeAutopickStarted  Type = "AutopickStarted"
	TypePickMade         Type = "PickMade"
	TypeDraftPaused      Type = "DraftPaused"
	TypeDraftResumed     Type = "DraftResumed"
	TypeDraftCompleted   Type = "DraftCompleted"
	TypeRoomError        Type = "RoomError"
)

// Envelope wraps every event crossing the engine boundary. Seq is the
// room-scoped publish sequence; subscribers use it to detect gaps after a
// reconnect.
type Envelope struct {
	SchemaVersion int             `json:"schema_version"`
	EventID       uuid.UUID       `json:"event_id"`
	RoomID        uuid.UUID       `json:"room_id"`
	Seq           uint64          `json:"seq"`
	Type          Type            `json:"type"`
	Timestamp     time.Time       `json:"timestamp"`
	Payload       json.RawMessage `json:"payload"`
}

// New builds an envelope around a marshaled payload.
func New(eventID, roomID uuid.UUID, seq uint64, typ Type, ts time.Time, payload interface{}) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to marshal %s payload: %w", typ, err)
	}
	return Envelope{
		SchemaVersion: SchemaVersion,
		EventID:       eventID,
		RoomID:        roomID,
		Seq:           seq,
		Type:          typ,
		Timestamp:     ts,
		Payload:       data,
	}, nil
}

// Decode parses an envelope from wire bytes and rejects unknown schema
// versions before the payload is touched.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("failed to decode event envelope: %w", err)
	}
	if env.SchemaVersion != SchemaVersion {
		return Envelope{}, fmt.Errorf("unsupported event schema version %d", env.SchemaVersion)
	}
	return env, nil
}

// DecodePayload unmarshals the envelope's payload into its typed struct.
func (e *Envelope) DecodePayload() (interface{}, error) {
	switch e.Type {
	case TypeRoomCreated:
		return decodeAs[RoomCreatedPayload](e)
	case TypeCountdownStarted:
		return decodeAs[CountdownStartedPayload](e)
	case TypeDraftStarted:
		return decodeAs[DraftStartedPayload](e)
	case TypePickStarted:
		return decodeAs[PickStartedPayload](e)
	case TypeTimerWarning, TypeTimerCritical:
		return decodeAs[TimerPhasePayload](e)
	case TypeGraceStarted:
		return decodeAs[GraceStartedPayload](e)
	case TypeAutopickStarted:
		return decodeAs[AutopickStartedPayload](e)
	case TypePickMade:
		return decodeAs[PickMadePayload](e)
	case TypeDraftPaused:
		return decodeAs[DraftPausedPayload](e)
	case TypeDraftResumed:
		return decodeAs[DraftResumedPayload](e)
	case TypeDraftCompleted:
		return decodeAs[DraftCompletedPayload](e)
	case TypeRoomError:
		return decodeAs[RoomErrorPayload](e)
	default:
		return nil, fmt.Errorf("unknown event type: %s", e.Type)
	}
}

func decodeAs[T any](e *Envelope) (T, error) {
	var payload T
	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		return payload, fmt.Errorf("failed to decode %s payload: %w", e.Type, err)
	}
	return payload, nil
}
