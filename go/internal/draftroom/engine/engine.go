// Package engine coordinates live snake draft rooms: turn order, the
// per-turn timer with staged urgency and grace, atomic pick commitment,
// preference queues, and autopick fallback. Rooms are independent units of
// concurrency; each serializes its own mutations and publishes typed,
// versioned events to bounded subscriber streams and an async durability
// sink.
package engine

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/mcdev12/draftroom/go/internal/draftroom/events"
	"github.com/mcdev12/draftroom/go/internal/draftroom/order"
	"github.com/mcdev12/draftroom/go/internal/draftroom/queue"
	"github.com/mcdev12/draftroom/go/internal/models"
)

// EventSink receives every published event for durable persistence and
// downstream fan-out. Implementations must not block: the engine calls
// Enqueue inside a room's critical section, so side effects have to be
// buffered and applied asynchronously.
type EventSink interface {
	Enqueue(env events.Envelope)
}

// Config tunes engine-wide behavior.
type Config struct {
	// SubscriberBuffer is the per-subscriber event buffer; a subscriber
	// that falls this far behind is dropped.
	SubscriberBuffer int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{SubscriberBuffer: 64}
}

const (
	defaultGraceSec     = 3
	defaultCountdownSec = 10
	defaultQueueCap     = 200
)

// Engine owns all draft rooms in this process.
type Engine struct {
	mu    sync.RWMutex
	rooms map[uuid.UUID]*room

	clock    clockwork.Clock
	strategy AutopickStrategy
	sink     EventSink
	logger   zerolog.Logger
	cfg      Config
	newID    func() uuid.UUID
}

// NewEngine wires an engine from its dependencies. sink may be nil when no
// durability pipeline is attached (tests, dry runs).
func NewEngine(clock clockwork.Clock, strategy AutopickStrategy, sink EventSink, logger zerolog.Logger, cfg Config) *Engine {
	if cfg.SubscriberBuffer <= 0 {
		cfg.SubscriberBuffer = DefaultConfig().SubscriberBuffer
	}
	return &Engine{
		rooms:    make(map[uuid.UUID]*room),
		clock:    clock,
		strategy: strategy,
		sink:     sink,
		logger:   logger,
		cfg:      cfg,
		newID:    uuid.New,
	}
}

// CreateRoomRequest carries everything the provisioning service supplies
// when a contest fills: the seated participants and the item pool snapshot.
type CreateRoomRequest struct {
	RoomID       uuid.UUID // generated when zero
	TournamentID uuid.UUID
	Settings     models.RoomSettings
	Participants []models.Participant
	Items        []models.Item
}

func (req *CreateRoomRequest) validate() error {
	if len(req.Participants) < 2 {
		return fmt.Errorf("room requires at least 2 participants, got %d", len(req.Participants))
	}
	if req.Settings.Rounds < 1 {
		return fmt.Errorf("rounds must be >= 1, got %d", req.Settings.Rounds)
	}
	if req.Settings.PickTimeSec < 1 {
		return fmt.Errorf("pick time must be >= 1s, got %d", req.Settings.PickTimeSec)
	}

	seats := make(map[int]bool, len(req.Participants))
	ids := make(map[uuid.UUID]bool, len(req.Participants))
	for _, p := range req.Participants {
		if p.SeatIndex < 0 || p.SeatIndex >= len(req.Participants) {
			return fmt.Errorf("%w: seat index %d out of range for %d participants", ErrSeatOrderInvalid, p.SeatIndex, len(req.Participants))
		}
		if seats[p.SeatIndex] {
			return fmt.Errorf("%w: duplicate seat index %d", ErrSeatOrderInvalid, p.SeatIndex)
		}
		if ids[p.ID] {
			return fmt.Errorf("duplicate participant %s", p.ID)
		}
		seats[p.SeatIndex] = true
		ids[p.ID] = true
	}

	totalPicks := order.TotalPicks(len(req.Participants), req.Settings.Rounds)
	if len(req.Items) < totalPicks {
		return fmt.Errorf("item pool of %d cannot cover %d picks", len(req.Items), totalPicks)
	}

	itemIDs := make(map[uuid.UUID]bool, len(req.Items))
	for _, item := range req.Items {
		if itemIDs[item.ID] {
			return fmt.Errorf("duplicate item %s in pool", item.ID)
		}
		itemIDs[item.ID] = true
	}
	return nil
}

// CreateRoom registers a new room in Waiting status and returns its initial
// snapshot. The pool guarantee (at least totalPicks undrafted items) is
// enforced here so autopick can never exhaust it mid-draft.
func (e *Engine) CreateRoom(req CreateRoomRequest) (RoomSnapshot, error) {
	if err := req.validate(); err != nil {
		return RoomSnapshot{}, fmt.Errorf("%w: %w", ErrInvalidRoomConfig, err)
	}

	settings := req.Settings
	if settings.GraceSec <= 0 {
		settings.GraceSec = defaultGraceSec
	}
	if settings.CountdownSec <= 0 {
		settings.CountdownSec = defaultCountdownSec
	}
	if settings.QueueCap <= 0 {
		settings.QueueCap = defaultQueueCap
	}

	roomID := req.RoomID
	if roomID == uuid.Nil {
		roomID = e.newID()
	}

	participants := make([]models.Participant, len(req.Participants))
	seatByID := make(map[uuid.UUID]int, len(req.Participants))
	queues := make(map[uuid.UUID]*queue.Queue, len(req.Participants))
	for _, p := range req.Participants {
		participants[p.SeatIndex] = p
		seatByID[p.ID] = p.SeatIndex
		queues[p.ID] = queue.New(settings.QueueCap)
	}

	pool := make(map[uuid.UUID]*poolItem, len(req.Items))
	for _, item := range req.Items {
		pool[item.ID] = &poolItem{item: item}
	}

	now := e.clock.Now()
	r := &room{
		id:                roomID,
		tournamentID:      req.TournamentID,
		status:            models.RoomStatusWaiting,
		settings:          settings,
		participants:      participants,
		seatByID:          seatByID,
		pool:              pool,
		currentPickNumber: 1,
		totalPicks:        order.TotalPicks(len(participants), settings.Rounds),
		queues:            queues,
		timer:             turnTimer{phase: models.TimerPhaseIdle},
		subs:              make(map[uint64]*Subscription),
		createdAt:         now,
		done:              make(chan struct{}),
		clock:             e.clock,
		logger:            e.logger.With().Str("room_id", roomID.String()).Logger(),
		strategy:          e.strategy,
		sink:              e.sink,
		newID:             e.newID,
		subBuffer:         e.cfg.SubscriberBuffer,
	}

	e.mu.Lock()
	if _, exists := e.rooms[roomID]; exists {
		e.mu.Unlock()
		return RoomSnapshot{}, fmt.Errorf("%w: %s", ErrRoomExists, roomID)
	}
	e.rooms[roomID] = r
	e.mu.Unlock()

	r.mu.Lock()
	r.publishLocked(r.newEventLocked(events.TypeRoomCreated, events.RoomCreatedPayload{
		TournamentID: req.TournamentID,
		Settings:     settings,
		Participants: participants,
		TotalPicks:   r.totalPicks,
		CreatedAt:    now,
	}))
	snap := r.buildSnapshotLocked()
	r.mu.Unlock()

	e.logger.Info().
		Str("room_id", roomID.String()).
		Int("team_count", len(participants)).
		Int("total_picks", snap.Room.TotalPicks).
		Msg("room created")
	return snap, nil
}

func (e *Engine) room(roomID uuid.UUID) (*room, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	r, ok := e.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

// StartCountdown is the external room-filled trigger (Waiting → Countdown).
func (e *Engine) StartCountdown(roomID uuid.UUID) error {
	r, err := e.room(roomID)
	if err != nil {
		return err
	}
	return r.StartCountdown()
}

// SubmitPick validates and commits a pick for the participant.
func (e *Engine) SubmitPick(roomID, participantID uuid.UUID, pickNumber int, itemID uuid.UUID) (models.Pick, error) {
	r, err := e.room(roomID)
	if err != nil {
		return models.Pick{}, err
	}
	return r.SubmitPick(participantID, pickNumber, itemID)
}

// Pause suspends the room's turn timer (administrative).
func (e *Engine) Pause(roomID uuid.UUID) error {
	r, err := e.room(roomID)
	if err != nil {
		return err
	}
	return r.Pause()
}

// Resume restarts a paused room from the preserved remaining time.
func (e *Engine) Resume(roomID uuid.UUID) error {
	r, err := e.room(roomID)
	if err != nil {
		return err
	}
	return r.Resume()
}

// EnqueueQueueItem appends an item to the participant's preference queue.
func (e *Engine) EnqueueQueueItem(roomID, participantID, itemID uuid.UUID) error {
	r, err := e.room(roomID)
	if err != nil {
		return err
	}
	return r.EnqueueQueueItem(participantID, itemID)
}

// RemoveQueueItem removes an item from the participant's queue.
func (e *Engine) RemoveQueueItem(roomID, participantID, itemID uuid.UUID) error {
	r, err := e.room(roomID)
	if err != nil {
		return err
	}
	return r.RemoveQueueItem(participantID, itemID)
}

// MoveQueueItemToFront promotes a queue entry to priority 0.
func (e *Engine) MoveQueueItemToFront(roomID, participantID, itemID uuid.UUID) error {
	r, err := e.room(roomID)
	if err != nil {
		return err
	}
	return r.MoveQueueItemToFront(participantID, itemID)
}

// ReorderQueue moves a queue entry between positions.
func (e *Engine) ReorderQueue(roomID, participantID uuid.UUID, fromIndex, toIndex int) error {
	r, err := e.room(roomID)
	if err != nil {
		return err
	}
	return r.ReorderQueue(participantID, fromIndex, toIndex)
}

// GetQueue returns the participant's queue in priority order.
func (e *Engine) GetQueue(roomID, participantID uuid.UUID) ([]uuid.UUID, error) {
	r, err := e.room(roomID)
	if err != nil {
		return nil, err
	}
	return r.GetQueue(participantID)
}

// GetRoomState returns a point-in-time snapshot of the room.
func (e *Engine) GetRoomState(roomID uuid.UUID) (RoomSnapshot, error) {
	r, err := e.room(roomID)
	if err != nil {
		return RoomSnapshot{}, err
	}
	return r.GetRoomState(), nil
}

// Subscribe registers an observer on the room's event stream. The returned
// subscription carries a snapshot consistent with the stream position.
func (e *Engine) Subscribe(roomID uuid.UUID) (*Subscription, error) {
	r, err := e.room(roomID)
	if err != nil {
		return nil, err
	}
	return r.subscribe(), nil
}

// Close stops every room's timers and closes all subscriber streams.
func (e *Engine) Close() {
	e.mu.Lock()
	rooms := make([]*room, 0, len(e.rooms))
	for _, r := range e.rooms {
		rooms = append(rooms, r)
	}
	e.mu.Unlock()

	for _, r := range rooms {
		r.close()
	}
}
