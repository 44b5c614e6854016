package models

import (
	"time"

	"github.com/google/uuid"
)

// Pick represents a single committed selection in a draft room.
type Pick struct {
	ID            uuid.UUID `json:"id"`
	RoomID        uuid.UUID `json:"room_id"`
	PickNumber    int       `json:"pick_number"` // pick number overall, 1-based
	Round         int       `json:"round"`
	PickInRound   int       `json:"pick_in_round"`
	SeatIndex     int       `json:"seat_index"`
	ParticipantID uuid.UUID `json:"participant_id"`
	ItemID        uuid.UUID `json:"item_id"`
	WasAuto       bool      `json:"was_auto"`
	CommittedAt   time.Time `json:"committed_at"`
}
