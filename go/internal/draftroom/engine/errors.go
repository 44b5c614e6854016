package engine

import "errors"

// Validation and conflict errors returned by the room write path. Callers
// branch with errors.Is; the RPC layer maps them to transport codes.
var (
	// ErrInvalidRoomConfig rejects a room definition that cannot produce a
	// valid draft (bad seats, short pool, nonsensical settings).
	ErrInvalidRoomConfig = errors.New("invalid room configuration")
	// ErrRoomExists rejects a caller-supplied room ID already in use.
	ErrRoomExists = errors.New("room already exists")
	// ErrSeatOrderInvalid rejects participant seats that are not unique and
	// contiguous from zero. CreateRoom wraps it in ErrInvalidRoomConfig.
	ErrSeatOrderInvalid = errors.New("invalid seat order")
	// ErrRoomNotFound means the room ID is unknown to this engine.
	ErrRoomNotFound = errors.New("room not found")
	// ErrParticipantNotFound means the participant is not seated in the room.
	ErrParticipantNotFound = errors.New("participant not found in room")
	// ErrRoomNotActive rejects mutations while the room is not drafting.
	ErrRoomNotActive = errors.New("room is not active")
	// ErrStalePick marks a submission for an already-committed pick number.
	// It is benign: the caller lost a race or retried and should re-fetch
	// state rather than treat this as a failure.
	ErrStalePick = errors.New("pick number already committed")
	// ErrInvalidPickNumber rejects pick numbers in the future or outside
	// the draft entirely.
	ErrInvalidPickNumber = errors.New("invalid pick number")
	// ErrNotYourTurn rejects a pick from a participant who is not on the
	// clock.
	ErrNotYourTurn = errors.New("not your turn")
	// ErrItemNotFound means the item is not in the room's pool.
	ErrItemNotFound = errors.New("item not found in pool")
	// ErrItemAlreadyDrafted means another pick already claimed the item.
	ErrItemAlreadyDrafted = errors.New("item already drafted")
	// ErrInvalidTransition rejects a room lifecycle change not permitted
	// from the current status.
	ErrInvalidTransition = errors.New("invalid room status transition")
	// ErrPoolExhausted means autopick found no undrafted item; the turn is
	// unresolvable without operator intervention.
	ErrPoolExhausted = errors.New("no undrafted items remain")
)
