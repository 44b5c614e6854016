// Package roomv1 is the v1 wire schema for the draft room RPC API. Requests
// and responses marshal as plain JSON; the schema version rides on every
// snapshot and event envelope, and breaking changes get a new package
// version rather than mutating these types.
package roomv1

import (
	"github.com/google/uuid"

	"github.com/mcdev12/draftroom/go/internal/draftroom/engine"
	"github.com/mcdev12/draftroom/go/internal/draftroom/events"
	"github.com/mcdev12/draftroom/go/internal/models"
)

type CreateRoomRequest struct {
	// RoomID is optional; the engine generates one when zero.
	RoomID       uuid.UUID            `json:"room_id,omitempty"`
	TournamentID uuid.UUID            `json:"tournament_id"`
	Settings     models.RoomSettings  `json:"settings"`
	Participants []models.Participant `json:"participants"`
	Items        []models.Item        `json:"items"`
}

type CreateRoomResponse struct {
	State engine.RoomSnapshot `json:"state"`
}

type GetRoomStateRequest struct {
	RoomID uuid.UUID `json:"room_id"`
}

type GetRoomStateResponse struct {
	State engine.RoomSnapshot `json:"state"`
}

type StartCountdownRequest struct {
	RoomID uuid.UUID `json:"room_id"`
}

type StartCountdownResponse struct {
	State engine.RoomSnapshot `json:"state"`
}

type SubmitPickRequest struct {
	RoomID        uuid.UUID `json:"room_id"`
	ParticipantID uuid.UUID `json:"participant_id"`
	PickNumber    int       `json:"pick_number"`
	ItemID        uuid.UUID `json:"item_id"`
}

type SubmitPickResponse struct {
	Pick models.Pick `json:"pick"`
}

type PauseRoomRequest struct {
	RoomID uuid.UUID `json:"room_id"`
}

type PauseRoomResponse struct {
	State engine.RoomSnapshot `json:"state"`
}

type ResumeRoomRequest struct {
	RoomID uuid.UUID `json:"room_id"`
}

type ResumeRoomResponse struct {
	State engine.RoomSnapshot `json:"state"`
}

type EnqueueQueueItemRequest struct {
	RoomID        uuid.UUID `json:"room_id"`
	ParticipantID uuid.UUID `json:"participant_id"`
	ItemID        uuid.UUID `json:"item_id"`
}

type RemoveQueueItemRequest struct {
	RoomID        uuid.UUID `json:"room_id"`
	ParticipantID uuid.UUID `json:"participant_id"`
	ItemID        uuid.UUID `json:"item_id"`
}

type MoveQueueItemToFrontRequest struct {
	RoomID        uuid.UUID `json:"room_id"`
	ParticipantID uuid.UUID `json:"participant_id"`
	ItemID        uuid.UUID `json:"item_id"`
}

type ReorderQueueRequest struct {
	RoomID        uuid.UUID `json:"room_id"`
	ParticipantID uuid.UUID `json:"participant_id"`
	FromIndex     int       `json:"from_index"`
	ToIndex       int       `json:"to_index"`
}

type GetQueueRequest struct {
	RoomID        uuid.UUID `json:"room_id"`
	ParticipantID uuid.UUID `json:"participant_id"`
}

// QueueResponse is shared by all queue mutations: each returns the queue's
// post-operation priority order.
type QueueResponse struct {
	Queue []uuid.UUID `json:"queue"`
}

type WatchRoomRequest struct {
	RoomID uuid.UUID `json:"room_id"`
}

// WatchRoomResponse is one message on the watch stream. The first message
// carries the registration snapshot, every later one a single event; exactly
// one of the two fields is set.
type WatchRoomResponse struct {
	Snapshot *engine.RoomSnapshot `json:"snapshot,omitempty"`
	Event    *events.Envelope     `json:"event,omitempty"`
}
