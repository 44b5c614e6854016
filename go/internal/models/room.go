package models

import (
	"time"

	"github.com/google/uuid"
)

// RoomStatus defines the lifecycle state of a draft room.
type RoomStatus string

const (
	RoomStatusWaiting   RoomStatus = "WAITING"
	RoomStatusCountdown RoomStatus = "COUNTDOWN"
	RoomStatusActive    RoomStatus = "ACTIVE"
	RoomStatusPaused    RoomStatus = "PAUSED"
	RoomStatusComplete  RoomStatus = "COMPLETE"
)

// TimerPhase defines the urgency stage of the turn timer.
type TimerPhase string

const (
	TimerPhaseIdle        TimerPhase = "IDLE"
	TimerPhaseActive      TimerPhase = "ACTIVE"
	TimerPhaseWarning     TimerPhase = "WARNING"
	TimerPhaseCritical    TimerPhase = "CRITICAL"
	TimerPhaseGrace       TimerPhase = "GRACE"
	TimerPhaseAutopicking TimerPhase = "AUTOPICKING"
)

// RoomSettings holds per-room draft configuration.
type RoomSettings struct {
	Rounds       int `json:"rounds"`
	PickTimeSec  int `json:"pick_time_sec"`
	GraceSec     int `json:"grace_sec"`
	CountdownSec int `json:"countdown_sec"`
	QueueCap     int `json:"queue_cap"`
}

// Participant is a seated drafter. SeatIndex is 0-based, unique and
// contiguous within a room, and never changes once the room is created.
type Participant struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	SeatIndex   int       `json:"seat_index"`
}

// Room represents a draft room. Participants are ordered by seat.
type Room struct {
	ID                uuid.UUID     `json:"id"`
	TournamentID      uuid.UUID     `json:"tournament_id"`
	Status            RoomStatus    `json:"status"`
	Settings          RoomSettings  `json:"settings"`
	Participants      []Participant `json:"participants"`
	CurrentPickNumber int           `json:"current_pick_number"`
	TotalPicks        int           `json:"total_picks"`
	CreatedAt         time.Time     `json:"created_at"`
	StartedAt         *time.Time    `json:"started_at,omitempty"`
	CompletedAt       *time.Time    `json:"completed_at,omitempty"`
}

// TeamCount returns the number of seats in the room.
func (r *Room) TeamCount() int {
	return len(r.Participants)
}
