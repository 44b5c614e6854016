package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sqlc-dev/pqtype"

	"github.com/mcdev12/draftroom/go/internal/draftroom/events"
	"github.com/mcdev12/draftroom/go/internal/models"
	"github.com/mcdev12/draftroom/go/internal/sqlutil"
)

// Queries is the transaction-bound query set. Obtain one through
// Store.RunTx; every method runs on that transaction.
type Queries struct {
	tx *sql.Tx
}

func newQueries(tx *sql.Tx) *Queries {
	return &Queries{tx: tx}
}

// InsertRoom writes the initial room projection. A replayed RoomCreated
// event surfaces as ErrDuplicate.
func (q *Queries) InsertRoom(ctx context.Context, room models.Room) error {
	settings, err := json.Marshal(room.Settings)
	if err != nil {
		return fmt.Errorf("failed to marshal room settings: %w", err)
	}
	participants, err := json.Marshal(room.Participants)
	if err != nil {
		return fmt.Errorf("failed to marshal participants: %w", err)
	}

	_, err = q.tx.ExecContext(ctx,
		`INSERT INTO rooms (id, tournament_id, status, settings, participants,
			current_pick_number, total_picks, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		room.ID, room.TournamentID, string(room.Status), settings, participants,
		room.CurrentPickNumber, room.TotalPicks, room.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("room %s: %w", room.ID, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to insert room: %w", err)
	}
	return nil
}

// UpdateRoomStatus moves the projection to a new lifecycle status.
func (q *Queries) UpdateRoomStatus(ctx context.Context, roomID uuid.UUID, status models.RoomStatus) error {
	_, err := q.tx.ExecContext(ctx,
		`UPDATE rooms SET status = $2, updated_at = now() WHERE id = $1`,
		roomID, string(status))
	if err != nil {
		return fmt.Errorf("failed to update room status: %w", err)
	}
	return nil
}

// MarkRoomStarted records the transition into the active draft.
func (q *Queries) MarkRoomStarted(ctx context.Context, roomID uuid.UUID, startedAt time.Time) error {
	_, err := q.tx.ExecContext(ctx,
		`UPDATE rooms SET status = $2, started_at = $3, updated_at = now()
		WHERE id = $1`,
		roomID, string(models.RoomStatusActive), startedAt)
	if err != nil {
		return fmt.Errorf("failed to mark room started: %w", err)
	}
	return nil
}

// MarkRoomCompleted finalizes the projection.
func (q *Queries) MarkRoomCompleted(ctx context.Context, roomID uuid.UUID, completedAt time.Time) error {
	_, err := q.tx.ExecContext(ctx,
		`UPDATE rooms SET status = $2, completed_at = $3, updated_at = now()
		WHERE id = $1`,
		roomID, string(models.RoomStatusComplete), completedAt)
	if err != nil {
		return fmt.Errorf("failed to mark room completed: %w", err)
	}
	return nil
}

// SetRoomCurrentPick advances the projection's pick cursor.
func (q *Queries) SetRoomCurrentPick(ctx context.Context, roomID uuid.UUID, pickNumber int) error {
	_, err := q.tx.ExecContext(ctx,
		`UPDATE rooms SET current_pick_number = $2, updated_at = now()
		WHERE id = $1`,
		roomID, pickNumber)
	if err != nil {
		return fmt.Errorf("failed to set current pick: %w", err)
	}
	return nil
}

// SetRoomLastError stores the most recent room error payload. A nil payload
// clears it.
func (q *Queries) SetRoomLastError(ctx context.Context, roomID uuid.UUID, payload json.RawMessage) error {
	lastError := pqtype.NullRawMessage{RawMessage: payload, Valid: payload != nil}
	_, err := q.tx.ExecContext(ctx,
		`UPDATE rooms SET last_error = $2, updated_at = now() WHERE id = $1`,
		roomID, lastError)
	if err != nil {
		return fmt.Errorf("failed to set room last error: %w", err)
	}
	return nil
}

// BumpRoomSeq records how far the event stream has been folded into the
// projection. GREATEST keeps replays from moving the cursor backwards.
func (q *Queries) BumpRoomSeq(ctx context.Context, roomID uuid.UUID, seq uint64) error {
	_, err := q.tx.ExecContext(ctx,
		`UPDATE rooms SET last_seq = GREATEST(last_seq, $2), updated_at = now()
		WHERE id = $1`,
		roomID, int64(seq))
	if err != nil {
		return fmt.Errorf("failed to bump room seq: %w", err)
	}
	return nil
}

// InsertPick appends one committed pick. Unique keys on (room_id,
// pick_number) and (room_id, item_id) make replays surface as ErrDuplicate.
func (q *Queries) InsertPick(ctx context.Context, pick models.Pick) error {
	_, err := q.tx.ExecContext(ctx,
		`INSERT INTO picks (id, room_id, pick_number, round, pick_in_round,
			seat_index, participant_id, item_id, was_auto, committed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		pick.ID, pick.RoomID, pick.PickNumber, pick.Round, pick.PickInRound,
		pick.SeatIndex, pick.ParticipantID, pick.ItemID, pick.WasAuto,
		pick.CommittedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("pick %d in room %s: %w", pick.PickNumber, pick.RoomID, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to insert pick: %w", err)
	}
	return nil
}

// OutboxEvent is one durable event row awaiting publication.
type OutboxEvent struct {
	ID        uuid.UUID
	RoomID    uuid.UUID
	EventType string
	Seq       uint64
	Payload   json.RawMessage
	CreatedAt time.Time
	SentAt    *time.Time
}

// InsertOutboxEvent stores the full envelope for the relay worker. The
// envelope's event ID is the row key, so the same envelope never lands
// twice.
func (q *Queries) InsertOutboxEvent(ctx context.Context, env events.Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	_, err = q.tx.ExecContext(ctx,
		`INSERT INTO room_events_outbox (id, room_id, event_type, seq, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		env.EventID, env.RoomID, string(env.Type), int64(env.Seq), payload,
		env.Timestamp)
	if isUniqueViolation(err) {
		return fmt.Errorf("event %s: %w", env.EventID, ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}
	return nil
}

// FetchUnsentOutbox locks and returns the oldest unpublished events.
func (q *Queries) FetchUnsentOutbox(ctx context.Context, limit int32) ([]OutboxEvent, error) {
	rows, err := q.tx.QueryContext(ctx,
		`SELECT id, room_id, event_type, seq, payload, created_at, sent_at
		FROM room_events_outbox
		WHERE sent_at IS NULL
		ORDER BY created_at, seq
		LIMIT $1
		FOR UPDATE`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unsent outbox: %w", err)
	}
	defer rows.Close()

	var out []OutboxEvent
	for rows.Next() {
		var ev OutboxEvent
		var seq int64
		var sentAt sql.NullTime
		if err := rows.Scan(&ev.ID, &ev.RoomID, &ev.EventType, &seq,
			&ev.Payload, &ev.CreatedAt, &sentAt); err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		ev.Seq = uint64(seq)
		ev.SentAt = sqlutil.FromSqlTime(sentAt)
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to fetch unsent outbox: %w", err)
	}
	return out, nil
}

// MarkOutboxSent stamps the given events as published.
func (q *Queries) MarkOutboxSent(ctx context.Context, ids []uuid.UUID) error {
	_, err := q.tx.ExecContext(ctx,
		`UPDATE room_events_outbox SET sent_at = now() WHERE id = ANY($1)`,
		pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to mark outbox sent: %w", err)
	}
	return nil
}

// UpsertItem writes one catalog row keyed by external ID.
func (q *Queries) UpsertItem(ctx context.Context, item models.Item) error {
	team := sql.NullString{String: item.TeamAbbr, Valid: item.TeamAbbr != ""}
	_, err := q.tx.ExecContext(ctx,
		`INSERT INTO items (id, external_id, full_name, position, team_abbr,
			adp, overall_rank, projected_points)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (external_id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			position = EXCLUDED.position,
			team_abbr = EXCLUDED.team_abbr,
			adp = EXCLUDED.adp,
			overall_rank = EXCLUDED.overall_rank,
			projected_points = EXCLUDED.projected_points,
			updated_at = now()`,
		item.ID, item.ExternalID, item.FullName, item.Position, team,
		item.ADP, item.OverallRank, item.ProjectedPoints)
	if err != nil {
		return fmt.Errorf("failed to upsert item %s: %w", item.ExternalID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row rowScanner) (RoomRecord, error) {
	var rec RoomRecord
	var status string
	var settings, participants []byte
	var lastSeq int64
	var lastError pqtype.NullRawMessage
	var startedAt, completedAt sql.NullTime

	if err := row.Scan(&rec.Room.ID, &rec.Room.TournamentID, &status,
		&settings, &participants, &rec.Room.CurrentPickNumber,
		&rec.Room.TotalPicks, &lastSeq, &lastError, &rec.Room.CreatedAt,
		&startedAt, &completedAt); err != nil {
		return RoomRecord{}, err
	}

	rec.Room.Status = models.RoomStatus(status)
	if err := json.Unmarshal(settings, &rec.Room.Settings); err != nil {
		return RoomRecord{}, fmt.Errorf("failed to unmarshal room settings: %w", err)
	}
	if err := json.Unmarshal(participants, &rec.Room.Participants); err != nil {
		return RoomRecord{}, fmt.Errorf("failed to unmarshal participants: %w", err)
	}
	rec.LastSeq = uint64(lastSeq)
	if lastError.Valid {
		rec.LastError = lastError.RawMessage
	}
	rec.Room.StartedAt = sqlutil.FromSqlTime(startedAt)
	rec.Room.CompletedAt = sqlutil.FromSqlTime(completedAt)
	return rec, nil
}
