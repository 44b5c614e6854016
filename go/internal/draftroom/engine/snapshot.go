package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/draftroom/go/internal/draftroom/events"
	"github.com/mcdev12/draftroom/go/internal/draftroom/order"
	"github.com/mcdev12/draftroom/go/internal/models"
)

// TimerSnapshot is the observer view of the turn timer. Deadline and
// AutopickAt are the server-owned timestamps all clients derive remaining
// time from; RemainingMS is populated only while the room is paused.
type TimerSnapshot struct {
	Phase       models.TimerPhase `json:"phase"`
	PickNumber  int               `json:"pick_number,omitempty"`
	Deadline    *time.Time        `json:"deadline,omitempty"`
	AutopickAt  *time.Time        `json:"autopick_at,omitempty"`
	RemainingMS *int64            `json:"remaining_ms,omitempty"`
}

// OnClock identifies the participant whose turn it is.
type OnClock struct {
	PickNumber    int       `json:"pick_number"`
	Round         int       `json:"round"`
	PickInRound   int       `json:"pick_in_round"`
	SeatIndex     int       `json:"seat_index"`
	ParticipantID uuid.UUID `json:"participant_id"`
}

// RoomSnapshot is a point-in-time read of a room. Seq is the last event
// sequence folded into the snapshot; a subscriber's stream continues from
// Seq+1 with no gap.
type RoomSnapshot struct {
	SchemaVersion  int           `json:"schema_version"`
	Seq            uint64        `json:"seq"`
	Room           models.Room   `json:"room"`
	Picks          []models.Pick `json:"picks"`
	Timer          TimerSnapshot `json:"timer"`
	OnClock        *OnClock      `json:"on_clock,omitempty"`
	AvailableCount int           `json:"available_count"`
}

// GetRoomState returns a consistent snapshot without blocking writers
// beyond the read lock.
func (r *room) GetRoomState() RoomSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.buildSnapshotLocked()
}

func (r *room) buildSnapshotLocked() RoomSnapshot {
	participants := make([]models.Participant, len(r.participants))
	copy(participants, r.participants)
	picks := make([]models.Pick, len(r.picks))
	copy(picks, r.picks)

	snap := RoomSnapshot{
		SchemaVersion: events.SchemaVersion,
		Seq:           r.seq,
		Room: models.Room{
			ID:                r.id,
			TournamentID:      r.tournamentID,
			Status:            r.status,
			Settings:          r.settings,
			Participants:      participants,
			CurrentPickNumber: r.currentPickNumber,
			TotalPicks:        r.totalPicks,
			CreatedAt:         r.createdAt,
			StartedAt:         r.startedAt,
			CompletedAt:       r.completedAt,
		},
		Picks:          picks,
		Timer:          TimerSnapshot{Phase: r.timer.phase},
		AvailableCount: len(r.pool) - len(r.picks),
	}

	drafting := r.status == models.RoomStatusActive || r.status == models.RoomStatusPaused
	if drafting && r.currentPickNumber <= r.totalPicks {
		slot, err := order.Resolve(r.currentPickNumber, len(r.participants))
		if err == nil {
			snap.OnClock = &OnClock{
				PickNumber:    r.currentPickNumber,
				Round:         slot.Round,
				PickInRound:   slot.PickInRound,
				SeatIndex:     slot.SeatIndex,
				ParticipantID: r.participants[slot.SeatIndex].ID,
			}
		}
		snap.Timer.PickNumber = r.timer.pickNumber

		if r.status == models.RoomStatusPaused {
			remaining := r.timer.remainingToDeadline.Milliseconds()
			snap.Timer.RemainingMS = &remaining
		} else {
			deadline := r.timer.deadline
			autopickAt := r.timer.autopickAt
			snap.Timer.Deadline = &deadline
			snap.Timer.AutopickAt = &autopickAt
		}
	}
	return snap
}
