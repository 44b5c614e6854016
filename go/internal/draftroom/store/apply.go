package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mcdev12/draftroom/go/internal/draftroom/events"
	"github.com/mcdev12/draftroom/go/internal/models"
)

// ApplyEnvelope folds one published event into the room projection and
// stages the envelope on the outbox, atomically. The outbox row is keyed by
// event ID, so replaying an envelope that already landed rolls the whole
// transaction back with ErrDuplicate and the projection is untouched.
func (s *Store) ApplyEnvelope(ctx context.Context, env events.Envelope) error {
	return s.RunTx(ctx, func(q *Queries) error {
		if err := applyProjection(ctx, q, env); err != nil {
			return err
		}
		if err := q.InsertOutboxEvent(ctx, env); err != nil {
			return err
		}
		return q.BumpRoomSeq(ctx, env.RoomID, env.Seq)
	})
}

func applyProjection(ctx context.Context, q *Queries, env events.Envelope) error {
	switch env.Type {
	case events.TypeRoomCreated:
		p, err := decodePayload[events.RoomCreatedPayload](env)
		if err != nil {
			return err
		}
		return q.InsertRoom(ctx, models.Room{
			ID:                env.RoomID,
			TournamentID:      p.TournamentID,
			Status:            models.RoomStatusWaiting,
			Settings:          p.Settings,
			Participants:      p.Participants,
			CurrentPickNumber: 1,
			TotalPicks:        p.TotalPicks,
			CreatedAt:         p.CreatedAt,
		})

	case events.TypeCountdownStarted:
		return q.UpdateRoomStatus(ctx, env.RoomID, models.RoomStatusCountdown)

	case events.TypeDraftStarted:
		p, err := decodePayload[events.DraftStartedPayload](env)
		if err != nil {
			return err
		}
		return q.MarkRoomStarted(ctx, env.RoomID, p.StartedAt)

	case events.TypePickStarted:
		p, err := decodePayload[events.PickStartedPayload](env)
		if err != nil {
			return err
		}
		return q.SetRoomCurrentPick(ctx, env.RoomID, p.PickNumber)

	case events.TypePickMade:
		p, err := decodePayload[events.PickMadePayload](env)
		if err != nil {
			return err
		}
		return q.InsertPick(ctx, models.Pick{
			ID:            p.PickID,
			RoomID:        env.RoomID,
			PickNumber:    p.PickNumber,
			Round:         p.Round,
			PickInRound:   p.PickInRound,
			SeatIndex:     p.SeatIndex,
			ParticipantID: p.ParticipantID,
			ItemID:        p.ItemID,
			WasAuto:       p.WasAuto,
			CommittedAt:   p.MadeAt,
		})

	case events.TypeDraftPaused:
		return q.UpdateRoomStatus(ctx, env.RoomID, models.RoomStatusPaused)

	case events.TypeDraftResumed:
		if err := q.UpdateRoomStatus(ctx, env.RoomID, models.RoomStatusActive); err != nil {
			return err
		}
		return q.SetRoomLastError(ctx, env.RoomID, nil)

	case events.TypeDraftCompleted:
		p, err := decodePayload[events.DraftCompletedPayload](env)
		if err != nil {
			return err
		}
		return q.MarkRoomCompleted(ctx, env.RoomID, p.CompletedAt)

	case events.TypeRoomError:
		return q.SetRoomLastError(ctx, env.RoomID, env.Payload)

	default:
		// Timer phase events carry no projection change; they still reach
		// the outbox so stream consumers see them.
		return nil
	}
}

func decodePayload[T any](env events.Envelope) (T, error) {
	var p T
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return p, fmt.Errorf("failed to decode %s payload: %w", env.Type, err)
	}
	return p, nil
}
