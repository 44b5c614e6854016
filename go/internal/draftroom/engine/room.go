package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/mcdev12/draftroom/go/internal/draftroom/events"
	"github.com/mcdev12/draftroom/go/internal/draftroom/order"
	"github.com/mcdev12/draftroom/go/internal/draftroom/queue"
	"github.com/mcdev12/draftroom/go/internal/models"
)

// allowedTransitions defines the valid room lifecycle changes.
var allowedTransitions = map[models.RoomStatus][]models.RoomStatus{
	models.RoomStatusWaiting:   {models.RoomStatusCountdown},
	models.RoomStatusCountdown: {models.RoomStatusActive},
	models.RoomStatusActive:    {models.RoomStatusPaused, models.RoomStatusComplete},
	models.RoomStatusPaused:    {models.RoomStatusActive},
	models.RoomStatusComplete:  {},
}

type poolItem struct {
	item    models.Item
	drafted bool
}

// room holds all mutable state for one draft room. Every mutation runs
// under mu, including timer fires re-entering through handleBoundary, so
// pick commitment and timer cancellation are one serialized sequence.
// Reads (snapshots) take the read lock against last-committed state.
type room struct {
	mu sync.RWMutex

	id           uuid.UUID
	tournamentID uuid.UUID
	status       models.RoomStatus
	settings     models.RoomSettings
	participants []models.Participant // seat-ordered
	seatByID     map[uuid.UUID]int

	pool  map[uuid.UUID]*poolItem
	picks []models.Pick

	currentPickNumber int
	totalPicks        int

	queues map[uuid.UUID]*queue.Queue

	timer turnTimer

	seq       uint64
	subs      map[uint64]*Subscription
	nextSubID uint64

	createdAt   time.Time
	startedAt   *time.Time
	completedAt *time.Time

	done chan struct{}

	clock     clockwork.Clock
	logger    zerolog.Logger
	strategy  AutopickStrategy
	sink      EventSink
	newID     func() uuid.UUID
	subBuffer int
}

func (r *room) validateTransitionLocked(to models.RoomStatus) error {
	for _, allowed := range allowedTransitions[r.status] {
		if allowed == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.status, to)
}

// newEventLocked stamps the next room sequence number onto an envelope.
func (r *room) newEventLocked(typ events.Type, payload interface{}) events.Envelope {
	r.seq++
	env, err := events.New(r.newID(), r.id, r.seq, typ, r.clock.Now(), payload)
	if err != nil {
		r.logger.Error().Err(err).Str("event_type", string(typ)).Msg("failed to encode event payload")
	}
	return env
}

// StartCountdown moves a filled room from Waiting into Countdown and arms
// the activation timer. The draft goes Active when the countdown deadline
// elapses.
func (r *room) StartCountdown() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.validateTransitionLocked(models.RoomStatusCountdown); err != nil {
		return err
	}

	now := r.clock.Now()
	countdown := time.Duration(r.settings.CountdownSec) * time.Second
	r.status = models.RoomStatusCountdown
	r.scheduleCountdownLocked(countdown)

	r.publishLocked(r.newEventLocked(events.TypeCountdownStarted, events.CountdownStartedPayload{
		CountdownSec: r.settings.CountdownSec,
		StartsAt:     now.Add(countdown),
		StartedAt:    now,
	}))
	r.logger.Info().
		Str("room_id", r.id.String()).
		Int("countdown_sec", r.settings.CountdownSec).
		Msg("countdown started")
	return nil
}

// activateLocked flips the room to Active and starts the pick-1 turn.
func (r *room) activateLocked() []events.Envelope {
	now := r.clock.Now()
	r.status = models.RoomStatusActive
	r.startedAt = &now

	envs := []events.Envelope{r.newEventLocked(events.TypeDraftStarted, events.DraftStartedPayload{
		StartedAt:   now,
		TotalRounds: r.settings.Rounds,
		TotalPicks:  r.totalPicks,
	})}
	return append(envs, r.startTurnLocked()...)
}

// SubmitPick is the single write path for human picks.
func (r *room) SubmitPick(participantID uuid.UUID, pickNumber int, itemID uuid.UUID) (models.Pick, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.submitPickLocked(participantID, pickNumber, itemID, false)
}

// submitPickLocked validates and commits a pick as one indivisible step:
// append the pick, mark the item drafted, advance the counter, cancel the
// timer, and start the next turn (or complete the draft). Autopick calls
// this same path with wasAuto set; there is no privileged bypass.
func (r *room) submitPickLocked(participantID uuid.UUID, pickNumber int, itemID uuid.UUID, wasAuto bool) (models.Pick, error) {
	if r.status != models.RoomStatusActive {
		return models.Pick{}, ErrRoomNotActive
	}
	if pickNumber < 1 || pickNumber > r.totalPicks {
		return models.Pick{}, fmt.Errorf("%w: %d is outside 1..%d", ErrInvalidPickNumber, pickNumber, r.totalPicks)
	}
	if pickNumber < r.currentPickNumber {
		return models.Pick{}, ErrStalePick
	}
	if pickNumber > r.currentPickNumber {
		return models.Pick{}, fmt.Errorf("%w: %d is a future pick, current is %d", ErrInvalidPickNumber, pickNumber, r.currentPickNumber)
	}

	seat, ok := r.seatByID[participantID]
	if !ok {
		return models.Pick{}, ErrParticipantNotFound
	}
	slot, err := order.Resolve(pickNumber, len(r.participants))
	if err != nil {
		return models.Pick{}, fmt.Errorf("failed to resolve pick slot: %w", err)
	}
	if slot.SeatIndex != seat {
		return models.Pick{}, ErrNotYourTurn
	}

	entry, ok := r.pool[itemID]
	if !ok {
		return models.Pick{}, ErrItemNotFound
	}
	if entry.drafted {
		return models.Pick{}, ErrItemAlreadyDrafted
	}

	now := r.clock.Now()
	pick := models.Pick{
		ID:            r.newID(),
		RoomID:        r.id,
		PickNumber:    pickNumber,
		Round:         slot.Round,
		PickInRound:   slot.PickInRound,
		SeatIndex:     seat,
		ParticipantID: participantID,
		ItemID:        itemID,
		WasAuto:       wasAuto,
		CommittedAt:   now,
	}

	r.picks = append(r.picks, pick)
	entry.drafted = true
	r.currentPickNumber++
	r.cancelTimerLocked()

	envs := []events.Envelope{r.newEventLocked(events.TypePickMade, events.PickMadePayload{
		PickID:        pick.ID,
		PickNumber:    pick.PickNumber,
		Round:         pick.Round,
		PickInRound:   pick.PickInRound,
		SeatIndex:     pick.SeatIndex,
		ParticipantID: pick.ParticipantID,
		ItemID:        pick.ItemID,
		ItemName:      entry.item.FullName,
		WasAuto:       wasAuto,
		MadeAt:        now,
	})}

	if r.currentPickNumber > r.totalPicks {
		r.status = models.RoomStatusComplete
		completedAt := now
		r.completedAt = &completedAt
		r.timer.phase = models.TimerPhaseIdle

		duration := ""
		if r.startedAt != nil {
			duration = completedAt.Sub(*r.startedAt).String()
		}
		envs = append(envs, r.newEventLocked(events.TypeDraftCompleted, events.DraftCompletedPayload{
			CompletedAt: completedAt,
			Duration:    duration,
			TotalPicks:  r.totalPicks,
		}))
	} else {
		envs = append(envs, r.startTurnLocked()...)
	}

	r.publishLocked(envs...)
	r.logger.Info().
		Str("room_id", r.id.String()).
		Int("pick_number", pick.PickNumber).
		Str("participant_id", participantID.String()).
		Str("item_id", itemID.String()).
		Bool("was_auto", wasAuto).
		Msg("pick committed")
	return pick, nil
}

// Pause suspends the turn timer, preserving its exact remaining duration.
func (r *room) Pause() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.validateTransitionLocked(models.RoomStatusPaused); err != nil {
		return err
	}

	now := r.clock.Now()
	r.timer.gen++
	r.stopPendingLocked()
	r.timer.remainingToDeadline = r.timer.deadline.Sub(now)
	r.timer.remainingToAutopick = r.timer.autopickAt.Sub(now)
	r.status = models.RoomStatusPaused

	r.publishLocked(r.newEventLocked(events.TypeDraftPaused, events.DraftPausedPayload{
		PickNumber:  r.timer.pickNumber,
		PausedAt:    now,
		RemainingMS: r.timer.remainingToDeadline.Milliseconds(),
	}))
	r.logger.Info().
		Str("room_id", r.id.String()).
		Int("pick_number", r.timer.pickNumber).
		Dur("remaining", r.timer.remainingToDeadline).
		Msg("draft paused")
	return nil
}

// Resume restarts the suspended timer from its preserved remaining
// duration, not from the full pick time.
func (r *room) Resume() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != models.RoomStatusPaused {
		return r.validateTransitionLocked(models.RoomStatusActive)
	}

	now := r.clock.Now()
	r.status = models.RoomStatusActive
	r.timer.deadline = now.Add(r.timer.remainingToDeadline)
	r.timer.autopickAt = now.Add(r.timer.remainingToAutopick)
	r.timer.gen++
	r.scheduleBoundaryLocked()

	r.publishLocked(r.newEventLocked(events.TypeDraftResumed, events.DraftResumedPayload{
		PickNumber: r.timer.pickNumber,
		ResumedAt:  now,
		Deadline:   r.timer.deadline,
	}))
	r.logger.Info().
		Str("room_id", r.id.String()).
		Int("pick_number", r.timer.pickNumber).
		Time("deadline", r.timer.deadline).
		Msg("draft resumed")
	return nil
}

// EnqueueQueueItem appends an undrafted item to a participant's queue.
func (r *room) EnqueueQueueItem(participantID, itemID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	q, err := r.queueForWriteLocked(participantID)
	if err != nil {
		return err
	}
	entry, ok := r.pool[itemID]
	if !ok {
		return ErrItemNotFound
	}
	if entry.drafted {
		return ErrItemAlreadyDrafted
	}
	return q.Enqueue(itemID)
}

// RemoveQueueItem drops an item from a participant's queue; absent entries
// are a no-op.
func (r *room) RemoveQueueItem(participantID, itemID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	q, err := r.queueForWriteLocked(participantID)
	if err != nil {
		return err
	}
	q.Remove(itemID)
	return nil
}

// MoveQueueItemToFront promotes an existing queue entry to priority 0.
func (r *room) MoveQueueItemToFront(participantID, itemID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	q, err := r.queueForWriteLocked(participantID)
	if err != nil {
		return err
	}
	q.MoveToFront(itemID)
	return nil
}

// ReorderQueue moves the entry at fromIndex to toIndex.
func (r *room) ReorderQueue(participantID uuid.UUID, fromIndex, toIndex int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	q, err := r.queueForWriteLocked(participantID)
	if err != nil {
		return err
	}
	return q.Reorder(fromIndex, toIndex)
}

// GetQueue returns a participant's queue in priority order, stale entries
// included.
func (r *room) GetQueue(participantID uuid.UUID) ([]uuid.UUID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q, ok := r.queues[participantID]
	if !ok {
		return nil, ErrParticipantNotFound
	}
	return q.Items(), nil
}

// queueForWriteLocked guards queue mutations: completed rooms are immutable
// historical records.
func (r *room) queueForWriteLocked(participantID uuid.UUID) (*queue.Queue, error) {
	if r.status == models.RoomStatusComplete {
		return nil, ErrRoomNotActive
	}
	q, ok := r.queues[participantID]
	if !ok {
		return nil, ErrParticipantNotFound
	}
	return q, nil
}

// undraftedLocked snapshots the currently available pool.
func (r *room) undraftedLocked() []models.Item {
	out := make([]models.Item, 0, len(r.pool)-len(r.picks))
	for _, entry := range r.pool {
		if !entry.drafted {
			out = append(out, entry.item)
		}
	}
	return out
}

func (r *room) close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	select {
	case <-r.done:
	default:
		close(r.done)
	}
	r.stopPendingLocked()
	for id := range r.subs {
		r.removeSubLocked(id)
	}
}
