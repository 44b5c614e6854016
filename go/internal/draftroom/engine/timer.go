package engine

import (
	"errors"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/draftroom/go/internal/draftroom/events"
	"github.com/mcdev12/draftroom/go/internal/draftroom/order"
	"github.com/mcdev12/draftroom/go/internal/models"
)

const (
	warningThreshold  = 10 * time.Second
	criticalThreshold = 5 * time.Second
)

// turnTimer tracks the current turn's deadline and urgency phase. The
// engine schedules a single timer to the next phase boundary instead of
// ticking; observers derive remaining time from the broadcast deadline.
// gen invalidates in-flight fires: any mutation that supersedes the
// schedule bumps it, and a fire that arrives with a stale gen is a no-op.
type turnTimer struct {
	phase      models.TimerPhase
	pickNumber int
	gen        uint64
	deadline   time.Time
	autopickAt time.Time

	// preserved while the room is paused
	remainingToDeadline time.Duration
	remainingToAutopick time.Duration

	pending *pendingTimer
}

type pendingTimer struct {
	timer  clockwork.Timer
	cancel chan struct{}
}

func phaseForRemaining(remaining time.Duration) models.TimerPhase {
	switch {
	case remaining > warningThreshold:
		return models.TimerPhaseActive
	case remaining > criticalThreshold:
		return models.TimerPhaseWarning
	case remaining > 0:
		return models.TimerPhaseCritical
	default:
		return models.TimerPhaseGrace
	}
}

// stopAndDrainTimer stops a timer and drains its channel if it already
// fired, so a replaced timer can never deliver a stale signal.
func stopAndDrainTimer(t clockwork.Timer) {
	if !t.Stop() {
		select {
		case <-t.Chan():
		default:
		}
	}
}

// startTurnLocked arms the timer for the current pick and returns the
// PickStarted event. The schedule is registered before the event is
// published so observers can act on the event without racing the timer.
func (r *room) startTurnLocked() []events.Envelope {
	slot, err := order.Resolve(r.currentPickNumber, len(r.participants))
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to resolve turn slot")
		return nil
	}

	now := r.clock.Now()
	pickTime := time.Duration(r.settings.PickTimeSec) * time.Second
	grace := time.Duration(r.settings.GraceSec) * time.Second

	r.timer.pickNumber = r.currentPickNumber
	r.timer.deadline = now.Add(pickTime)
	r.timer.autopickAt = r.timer.deadline.Add(grace)
	r.timer.phase = phaseForRemaining(pickTime)
	r.timer.gen++
	r.scheduleBoundaryLocked()

	return []events.Envelope{r.newEventLocked(events.TypePickStarted, events.PickStartedPayload{
		PickNumber:    r.currentPickNumber,
		Round:         slot.Round,
		PickInRound:   slot.PickInRound,
		SeatIndex:     slot.SeatIndex,
		ParticipantID: r.participants[slot.SeatIndex].ID,
		StartedAt:     now,
		Deadline:      r.timer.deadline,
		PickTimeSec:   r.settings.PickTimeSec,
	})}
}

// cancelTimerLocked invalidates the active schedule the instant a pick
// commits. It runs inside the same critical section as the commit, so a
// cancelled timer's autopick can never fire afterward.
func (r *room) cancelTimerLocked() {
	r.timer.gen++
	r.stopPendingLocked()
	r.timer.phase = models.TimerPhaseIdle
}

// nextBoundaryLocked returns the next phase boundary ahead of the current
// phase, or false when no further boundary exists.
func (r *room) nextBoundaryLocked() (time.Time, bool) {
	switch r.timer.phase {
	case models.TimerPhaseActive:
		return r.timer.deadline.Add(-warningThreshold), true
	case models.TimerPhaseWarning:
		return r.timer.deadline.Add(-criticalThreshold), true
	case models.TimerPhaseCritical:
		return r.timer.deadline, true
	case models.TimerPhaseGrace:
		return r.timer.autopickAt, true
	default:
		return time.Time{}, false
	}
}

func (r *room) scheduleBoundaryLocked() {
	r.stopPendingLocked()
	boundary, ok := r.nextBoundaryLocked()
	if !ok {
		return
	}

	d := boundary.Sub(r.clock.Now())
	if d < 0 {
		d = 0
	}
	gen := r.timer.gen
	p := &pendingTimer{
		timer:  r.clock.NewTimer(d),
		cancel: make(chan struct{}),
	}
	r.timer.pending = p

	go func() {
		select {
		case <-p.timer.Chan():
			r.handleBoundary(gen)
		case <-p.cancel:
		case <-r.done:
		}
	}()
}

func (r *room) scheduleCountdownLocked(d time.Duration) {
	r.stopPendingLocked()
	r.timer.gen++
	gen := r.timer.gen
	p := &pendingTimer{
		timer:  r.clock.NewTimer(d),
		cancel: make(chan struct{}),
	}
	r.timer.pending = p

	go func() {
		select {
		case <-p.timer.Chan():
			r.handleCountdownElapsed(gen)
		case <-p.cancel:
		case <-r.done:
		}
	}()
}

func (r *room) stopPendingLocked() {
	if r.timer.pending == nil {
		return
	}
	stopAndDrainTimer(r.timer.pending.timer)
	close(r.timer.pending.cancel)
	r.timer.pending = nil
}

func (r *room) handleCountdownElapsed(gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if gen != r.timer.gen || r.status != models.RoomStatusCountdown {
		return
	}
	r.publishLocked(r.activateLocked()...)
	r.logger.Info().Str("room_id", r.id.String()).Msg("draft started")
}

func (r *room) handleBoundary(gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if gen != r.timer.gen || r.status != models.RoomStatusActive {
		return
	}
	r.advanceTimerLocked()
}

// advanceTimerLocked walks the timer through every boundary the clock has
// passed, emitting one event per phase crossing. A single fire can cross
// several boundaries at once if the process stalled. Reaching the end of
// grace hands the turn to autopick within this same critical section.
func (r *room) advanceTimerLocked() {
	now := r.clock.Now()
	var envs []events.Envelope

	for {
		boundary, ok := r.nextBoundaryLocked()
		if !ok || boundary.After(now) {
			break
		}

		switch r.timer.phase {
		case models.TimerPhaseActive:
			r.timer.phase = models.TimerPhaseWarning
			envs = append(envs, r.newEventLocked(events.TypeTimerWarning, events.TimerPhasePayload{
				PickNumber: r.timer.pickNumber,
				SeatIndex:  r.onClockSeatLocked(),
				Deadline:   r.timer.deadline,
			}))
		case models.TimerPhaseWarning:
			r.timer.phase = models.TimerPhaseCritical
			envs = append(envs, r.newEventLocked(events.TypeTimerCritical, events.TimerPhasePayload{
				PickNumber: r.timer.pickNumber,
				SeatIndex:  r.onClockSeatLocked(),
				Deadline:   r.timer.deadline,
			}))
		case models.TimerPhaseCritical:
			r.timer.phase = models.TimerPhaseGrace
			envs = append(envs, r.newEventLocked(events.TypeGraceStarted, events.GraceStartedPayload{
				PickNumber: r.timer.pickNumber,
				SeatIndex:  r.onClockSeatLocked(),
				AutopickAt: r.timer.autopickAt,
			}))
		case models.TimerPhaseGrace:
			seat := r.onClockSeatLocked()
			r.timer.phase = models.TimerPhaseAutopicking
			envs = append(envs, r.newEventLocked(events.TypeAutopickStarted, events.AutopickStartedPayload{
				PickNumber:    r.timer.pickNumber,
				SeatIndex:     seat,
				ParticipantID: r.participants[seat].ID,
				StartedAt:     now,
			}))
			r.publishLocked(envs...)
			r.runAutopickLocked()
			return
		}
	}

	r.scheduleBoundaryLocked()
	r.publishLocked(envs...)
}

func (r *room) onClockSeatLocked() int {
	slot, err := order.Resolve(r.currentPickNumber, len(r.participants))
	if err != nil {
		return 0
	}
	return slot.SeatIndex
}

// runAutopickLocked selects and commits an item through the normal pick
// path. If the chosen item was drafted in a race, selection re-runs once
// against the updated drafted set. An unresolvable turn pauses the room for
// an operator; a pick number is never skipped.
func (r *room) runAutopickLocked() {
	pickNumber := r.currentPickNumber
	seat := r.onClockSeatLocked()
	participant := r.participants[seat]

	for attempt := 0; attempt < 2; attempt++ {
		itemID, ok := r.strategy.SelectItem(r.queues[participant.ID], r.undraftedLocked())
		if !ok {
			break
		}
		_, err := r.submitPickLocked(participant.ID, pickNumber, itemID, true)
		if err == nil {
			return
		}
		if !errors.Is(err, ErrItemAlreadyDrafted) && !errors.Is(err, ErrItemNotFound) {
			r.logger.Error().Err(err).
				Str("room_id", r.id.String()).
				Int("pick_number", pickNumber).
				Msg("autopick commit rejected")
			break
		}
	}
	r.failTurnLocked(pickNumber)
}

// failTurnLocked escalates an unresolvable turn: the room pauses with the
// grace window exhausted, so an operator's resume drops straight back into
// autopick.
func (r *room) failTurnLocked(pickNumber int) {
	now := r.clock.Now()
	r.timer.gen++
	r.stopPendingLocked()
	r.status = models.RoomStatusPaused
	r.timer.phase = models.TimerPhaseGrace
	r.timer.remainingToDeadline = 0
	r.timer.remainingToAutopick = 0

	r.publishLocked(
		r.newEventLocked(events.TypeRoomError, events.RoomErrorPayload{
			PickNumber: pickNumber,
			Code:       "AUTOPICK_UNRESOLVABLE",
			Message:    ErrPoolExhausted.Error(),
			OccurredAt: now,
		}),
		r.newEventLocked(events.TypeDraftPaused, events.DraftPausedPayload{
			PickNumber:  pickNumber,
			PausedAt:    now,
			RemainingMS: 0,
		}),
	)
	r.logger.Error().
		Str("room_id", r.id.String()).
		Int("pick_number", pickNumber).
		Msg("autopick unresolvable, room paused for operator")
}
