package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/draftroom/go/internal/models"
)

// RoomCreatedPayload is the payload for a RoomCreated event. It carries the
// full room definition so the durability pipeline can materialize the room
// without a second lookup.
type RoomCreatedPayload struct {
	TournamentID uuid.UUID            `json:"tournament_id"`
	Settings     models.RoomSettings  `json:"settings"`
	Participants []models.Participant `json:"participants"`
	TotalPicks   int                  `json:"total_picks"`
	CreatedAt    time.Time            `json:"created_at"`
}

// CountdownStartedPayload is the payload for a CountdownStarted event.
// StartsAt is the server-owned moment the draft goes active.
type CountdownStartedPayload struct {
	CountdownSec int       `json:"countdown_sec"`
	StartsAt     time.Time `json:"starts_at"`
	StartedAt    time.Time `json:"started_at"`
}

// DraftStartedPayload is the payload for a DraftStarted event.
type DraftStartedPayload struct {
	StartedAt   time.Time `json:"started_at"`
	TotalRounds int       `json:"total_rounds"`
	TotalPicks  int       `json:"total_picks"`
}

// PickStartedPayload is the payload for a PickStarted event. Deadline is
// the authoritative timestamp all observers derive remaining time from.
type PickStartedPayload struct {
	PickNumber    int       `json:"pick_number"`
	Round         int       `json:"round"`
	PickInRound   int       `json:"pick_in_round"`
	SeatIndex     int       `json:"seat_index"`
	ParticipantID uuid.UUID `json:"participant_id"`
	StartedAt     time.Time `json:"started_at"`
	Deadline      time.Time `json:"deadline"`
	PickTimeSec   int       `json:"pick_time_sec"`
}

// TimerPhasePayload is the payload for TimerWarning and TimerCritical
// events.
type TimerPhasePayload struct {
	PickNumber int       `json:"pick_number"`
	SeatIndex  int       `json:"seat_index"`
	Deadline   time.Time `json:"deadline"`
}

// GraceStartedPayload is the payload for a GraceStarted event. AutopickAt
// is when the engine takes over if no pick lands.
type GraceStartedPayload struct {
	PickNumber int       `json:"pick_number"`
	SeatIndex  int       `json:"seat_index"`
	AutopickAt time.Time `json:"autopick_at"`
}

// AutopickStartedPayload is the payload for an AutopickStarted event.
type AutopickStartedPayload struct {
	PickNumber    int       `json:"pick_number"`
	SeatIndex     int       `json:"seat_index"`
	ParticipantID uuid.UUID `json:"participant_id"`
	StartedAt     time.Time `json:"started_at"`
}

// PickMadePayload is the payload for a PickMade event.
type PickMadePayload struct {
	PickID        uuid.UUID `json:"pick_id"`
	PickNumber    int       `json:"pick_number"`
	Round         int       `json:"round"`
	PickInRound   int       `json:"pick_in_round"`
	SeatIndex     int       `json:"seat_index"`
	ParticipantID uuid.UUID `json:"participant_id"`
	ItemID        uuid.UUID `json:"item_id"`
	ItemName      string    `json:"item_name"`
	WasAuto       bool      `json:"was_auto"`
	MadeAt        time.Time `json:"made_at"`
}

// DraftPausedPayload is the payload for a DraftPaused event. RemainingMS
// preserves the suspended timer with millisecond precision.
type DraftPausedPayload struct {
	PickNumber  int       `json:"pick_number"`
	PausedAt    time.Time `json:"paused_at"`
	RemainingMS int64     `json:"remaining_ms"`
}

// DraftResumedPayload is the payload for a DraftResumed event.
type DraftResumedPayload struct {
	PickNumber int       `json:"pick_number"`
	ResumedAt  time.Time `json:"resumed_at"`
	Deadline   time.Time `json:"deadline"`
}

// DraftCompletedPayload is the payload for a DraftCompleted event.
type DraftCompletedPayload struct {
	CompletedAt time.Time `json:"completed_at"`
	Duration    string    `json:"duration"`
	TotalPicks  int       `json:"total_picks"`
}

// RoomErrorPayload is the payload for a RoomError event. These escalate to
// an operator; the engine never skips a pick number to work around one.
type RoomErrorPayload struct {
	PickNumber int       `json:"pick_number"`
	Code       string    `json:"code"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
}
