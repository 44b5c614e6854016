// Package store persists draft rooms to Postgres. Live rooms are owned by
// the in-memory engine; these tables are the durable projection other
// services read, the committed pick log, and the transactional outbox the
// relay worker drains into the event stream.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mcdev12/draftroom/go/internal/dbconfig"
	"github.com/mcdev12/draftroom/go/internal/models"
	"github.com/mcdev12/draftroom/go/internal/sqlutil"
)

var (
	// ErrNotFound means the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate means an insert hit a unique constraint. Callers that
	// replay events treat it as "already applied".
	ErrDuplicate = errors.New("duplicate row")
)

// Store wraps the Postgres handle for the draft room schema.
type Store struct {
	db *sql.DB
}

// New wraps an existing database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects to Postgres with cfg and verifies the connection.
func Open(ctx context.Context, cfg dbconfig.Config) (*Store, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// RunTx executes fn inside a transaction-bound query set. fn returning an
// error rolls the transaction back.
func (s *Store) RunTx(ctx context.Context, fn func(q *Queries) error) error {
	return sqlutil.Run(ctx, s.db, newQueries, fn)
}

// RoomRecord is the persisted projection of one room.
type RoomRecord struct {
	Room      models.Room
	LastSeq   uint64
	LastError []byte
}

const roomColumns = `id, tournament_id, status, settings, participants,
	current_pick_number, total_picks, last_seq, last_error,
	created_at, started_at, completed_at`

// GetRoom loads one room projection.
func (s *Store) GetRoom(ctx context.Context, roomID uuid.UUID) (RoomRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+roomColumns+` FROM rooms WHERE id = $1`, roomID)
	rec, err := scanRoom(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RoomRecord{}, fmt.Errorf("room %s: %w", roomID, ErrNotFound)
	}
	if err != nil {
		return RoomRecord{}, fmt.Errorf("failed to get room: %w", err)
	}
	return rec, nil
}

// ListPicks returns a room's committed picks in pick order.
func (s *Store) ListPicks(ctx context.Context, roomID uuid.UUID) ([]models.Pick, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, room_id, pick_number, round, pick_in_round, seat_index,
			participant_id, item_id, was_auto, committed_at
		FROM picks WHERE room_id = $1 ORDER BY pick_number`, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list picks: %w", err)
	}
	defer rows.Close()

	var picks []models.Pick
	for rows.Next() {
		var p models.Pick
		if err := rows.Scan(&p.ID, &p.RoomID, &p.PickNumber, &p.Round,
			&p.PickInRound, &p.SeatIndex, &p.ParticipantID, &p.ItemID,
			&p.WasAuto, &p.CommittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pick: %w", err)
		}
		picks = append(picks, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list picks: %w", err)
	}
	return picks, nil
}

// ListItems returns the full item catalog ordered by overall rank.
func (s *Store) ListItems(ctx context.Context) ([]models.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, external_id, full_name, position, team_abbr, adp,
			overall_rank, projected_points
		FROM items ORDER BY overall_rank`)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		var it models.Item
		var team sql.NullString
		if err := rows.Scan(&it.ID, &it.ExternalID, &it.FullName, &it.Position,
			&team, &it.ADP, &it.OverallRank, &it.ProjectedPoints); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		it.TeamAbbr = sqlutil.FromSqlString(team, "")
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

// UpsertItems writes the item catalog in one transaction, keyed by
// external ID so reseeding is idempotent.
func (s *Store) UpsertItems(ctx context.Context, items []models.Item) error {
	return s.RunTx(ctx, func(q *Queries) error {
		for _, it := range items {
			if err := q.UpsertItem(ctx, it); err != nil {
				return err
			}
		}
		return nil
	})
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
