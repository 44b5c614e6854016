// Package draftroom exposes the draft room engine over connect RPC. The
// service layer is a thin translation: engine sentinel errors become
// transport codes here and nowhere else.
package draftroom

import (
	"context"
	"errors"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	roomv1 "github.com/mcdev12/draftroom/go/internal/api/room/v1"
	"github.com/mcdev12/draftroom/go/internal/draftroom/engine"
	"github.com/mcdev12/draftroom/go/internal/draftroom/events"
	"github.com/mcdev12/draftroom/go/internal/draftroom/queue"
	"github.com/mcdev12/draftroom/go/internal/draftroom/store"
	"github.com/mcdev12/draftroom/go/internal/models"
)

// Archive serves rooms that have left the engine, typically after a process
// restart. The live engine always wins; the archive is read-only history.
type Archive interface {
	GetRoom(ctx context.Context, roomID uuid.UUID) (store.RoomRecord, error)
	ListPicks(ctx context.Context, roomID uuid.UUID) ([]models.Pick, error)
}

// ItemSource supplies the item catalog for rooms created without an
// explicit pool.
type ItemSource interface {
	ListItems(ctx context.Context) ([]models.Item, error)
}

// Service implements roomv1.RoomServiceHandler on top of the engine.
// archive and items are optional; a nil archive disables historical reads
// and a nil item source requires every CreateRoom to carry its pool.
type Service struct {
	engine  *engine.Engine
	archive Archive
	items   ItemSource
	logger  zerolog.Logger
}

// NewService creates the RPC service for an engine.
func NewService(eng *engine.Engine, archive Archive, items ItemSource, logger zerolog.Logger) *Service {
	return &Service{
		engine:  eng,
		archive: archive,
		items:   items,
		logger:  logger,
	}
}

// Verify that Service implements the RoomServiceHandler interface
var _ roomv1.RoomServiceHandler = (*Service)(nil)

// rpcCode maps engine sentinels onto connect codes. Anything unmapped is an
// internal fault.
func rpcCode(err error) connect.Code {
	switch {
	case errors.Is(err, engine.ErrRoomNotFound),
		errors.Is(err, engine.ErrParticipantNotFound),
		errors.Is(err, engine.ErrItemNotFound):
		return connect.CodeNotFound
	case errors.Is(err, engine.ErrStalePick),
		errors.Is(err, engine.ErrRoomExists):
		return connect.CodeAlreadyExists
	case errors.Is(err, engine.ErrInvalidRoomConfig),
		errors.Is(err, engine.ErrSeatOrderInvalid),
		errors.Is(err, engine.ErrInvalidPickNumber),
		errors.Is(err, queue.ErrFull),
		errors.Is(err, queue.ErrIndexOutOfRange):
		return connect.CodeInvalidArgument
	case errors.Is(err, engine.ErrRoomNotActive),
		errors.Is(err, engine.ErrNotYourTurn),
		errors.Is(err, engine.ErrItemAlreadyDrafted),
		errors.Is(err, engine.ErrInvalidTransition):
		return connect.CodeFailedPrecondition
	default:
		return connect.CodeInternal
	}
}

func rpcError(err error) *connect.Error {
	return connect.NewError(rpcCode(err), err)
}

// CreateRoom registers a filled contest as a draft room in Waiting status.
// A request without items draws the pool from the item catalog.
func (s *Service) CreateRoom(ctx context.Context, req *connect.Request[roomv1.CreateRoomRequest]) (*connect.Response[roomv1.CreateRoomResponse], error) {
	items := req.Msg.Items
	if len(items) == 0 && s.items != nil {
		catalog, err := s.items.ListItems(ctx)
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to load item catalog")
			return nil, connect.NewError(connect.CodeInternal, err)
		}
		items = catalog
	}

	snap, err := s.engine.CreateRoom(engine.CreateRoomRequest{
		RoomID:       req.Msg.RoomID,
		TournamentID: req.Msg.TournamentID,
		Settings:     req.Msg.Settings,
		Participants: req.Msg.Participants,
		Items:        items,
	})
	if err != nil {
		return nil, rpcError(err)
	}
	return connect.NewResponse(&roomv1.CreateRoomResponse{State: snap}), nil
}

// GetRoomState returns the room's current snapshot. Rooms the engine no
// longer holds are served from the archive when one is configured.
func (s *Service) GetRoomState(ctx context.Context, req *connect.Request[roomv1.GetRoomStateRequest]) (*connect.Response[roomv1.GetRoomStateResponse], error) {
	snap, err := s.engine.GetRoomState(req.Msg.RoomID)
	if err != nil {
		if errors.Is(err, engine.ErrRoomNotFound) && s.archive != nil {
			archived, archiveErr := s.archivedSnapshot(ctx, req.Msg.RoomID)
			if archiveErr == nil {
				return connect.NewResponse(&roomv1.GetRoomStateResponse{State: archived}), nil
			}
			if !errors.Is(archiveErr, store.ErrNotFound) {
				s.logger.Error().Err(archiveErr).
					Str("room_id", req.Msg.RoomID.String()).
					Msg("archive lookup failed")
			}
		}
		return nil, rpcError(err)
	}
	return connect.NewResponse(&roomv1.GetRoomStateResponse{State: snap}), nil
}

// archivedSnapshot rebuilds a read-only snapshot from the persisted
// projection. The timer is idle and the pool is not reconstructed; only the
// room record and its pick log survive the engine.
func (s *Service) archivedSnapshot(ctx context.Context, roomID uuid.UUID) (engine.RoomSnapshot, error) {
	rec, err := s.archive.GetRoom(ctx, roomID)
	if err != nil {
		return engine.RoomSnapshot{}, err
	}
	picks, err := s.archive.ListPicks(ctx, roomID)
	if err != nil {
		return engine.RoomSnapshot{}, err
	}
	return engine.RoomSnapshot{
		SchemaVersion: events.SchemaVersion,
		Seq:           rec.LastSeq,
		Room:          rec.Room,
		Picks:         picks,
		Timer:         engine.TimerSnapshot{Phase: models.TimerPhaseIdle},
	}, nil
}

// StartCountdown begins the pre-draft countdown.
func (s *Service) StartCountdown(ctx context.Context, req *connect.Request[roomv1.StartCountdownRequest]) (*connect.Response[roomv1.StartCountdownResponse], error) {
	if err := s.engine.StartCountdown(req.Msg.RoomID); err != nil {
		return nil, rpcError(err)
	}
	snap, err := s.engine.GetRoomState(req.Msg.RoomID)
	if err != nil {
		return nil, rpcError(err)
	}
	return connect.NewResponse(&roomv1.StartCountdownResponse{State: snap}), nil
}

// SubmitPick commits a pick for the participant on the clock.
func (s *Service) SubmitPick(ctx context.Context, req *connect.Request[roomv1.SubmitPickRequest]) (*connect.Response[roomv1.SubmitPickResponse], error) {
	pick, err := s.engine.SubmitPick(req.Msg.RoomID, req.Msg.ParticipantID, req.Msg.PickNumber, req.Msg.ItemID)
	if err != nil {
		return nil, rpcError(err)
	}
	return connect.NewResponse(&roomv1.SubmitPickResponse{Pick: pick}), nil
}

// PauseRoom suspends an active draft.
func (s *Service) PauseRoom(ctx context.Context, req *connect.Request[roomv1.PauseRoomRequest]) (*connect.Response[roomv1.PauseRoomResponse], error) {
	if err := s.engine.Pause(req.Msg.RoomID); err != nil {
		return nil, rpcError(err)
	}
	snap, err := s.engine.GetRoomState(req.Msg.RoomID)
	if err != nil {
		return nil, rpcError(err)
	}
	return connect.NewResponse(&roomv1.PauseRoomResponse{State: snap}), nil
}

// ResumeRoom restarts a paused draft from its preserved timer.
func (s *Service) ResumeRoom(ctx context.Context, req *connect.Request[roomv1.ResumeRoomRequest]) (*connect.Response[roomv1.ResumeRoomResponse], error) {
	if err := s.engine.Resume(req.Msg.RoomID); err != nil {
		return nil, rpcError(err)
	}
	snap, err := s.engine.GetRoomState(req.Msg.RoomID)
	if err != nil {
		return nil, rpcError(err)
	}
	return connect.NewResponse(&roomv1.ResumeRoomResponse{State: snap}), nil
}

// EnqueueQueueItem appends an item to the participant's queue.
func (s *Service) EnqueueQueueItem(ctx context.Context, req *connect.Request[roomv1.EnqueueQueueItemRequest]) (*connect.Response[roomv1.QueueResponse], error) {
	if err := s.engine.EnqueueQueueItem(req.Msg.RoomID, req.Msg.ParticipantID, req.Msg.ItemID); err != nil {
		return nil, rpcError(err)
	}
	return s.queueResponse(req.Msg.RoomID, req.Msg.ParticipantID)
}

// RemoveQueueItem drops an item from the participant's queue.
func (s *Service) RemoveQueueItem(ctx context.Context, req *connect.Request[roomv1.RemoveQueueItemRequest]) (*connect.Response[roomv1.QueueResponse], error) {
	if err := s.engine.RemoveQueueItem(req.Msg.RoomID, req.Msg.ParticipantID, req.Msg.ItemID); err != nil {
		return nil, rpcError(err)
	}
	return s.queueResponse(req.Msg.RoomID, req.Msg.ParticipantID)
}

// MoveQueueItemToFront promotes a queue entry to the top priority.
func (s *Service) MoveQueueItemToFront(ctx context.Context, req *connect.Request[roomv1.MoveQueueItemToFrontRequest]) (*connect.Response[roomv1.QueueResponse], error) {
	if err := s.engine.MoveQueueItemToFront(req.Msg.RoomID, req.Msg.ParticipantID, req.Msg.ItemID); err != nil {
		return nil, rpcError(err)
	}
	return s.queueResponse(req.Msg.RoomID, req.Msg.ParticipantID)
}

// ReorderQueue moves a queue entry between positions.
func (s *Service) ReorderQueue(ctx context.Context, req *connect.Request[roomv1.ReorderQueueRequest]) (*connect.Response[roomv1.QueueResponse], error) {
	if err := s.engine.ReorderQueue(req.Msg.RoomID, req.Msg.ParticipantID, req.Msg.FromIndex, req.Msg.ToIndex); err != nil {
		return nil, rpcError(err)
	}
	return s.queueResponse(req.Msg.RoomID, req.Msg.ParticipantID)
}

// GetQueue returns the participant's queue in priority order.
func (s *Service) GetQueue(ctx context.Context, req *connect.Request[roomv1.GetQueueRequest]) (*connect.Response[roomv1.QueueResponse], error) {
	return s.queueResponse(req.Msg.RoomID, req.Msg.ParticipantID)
}

func (s *Service) queueResponse(roomID, participantID uuid.UUID) (*connect.Response[roomv1.QueueResponse], error) {
	items, err := s.engine.GetQueue(roomID, participantID)
	if err != nil {
		return nil, rpcError(err)
	}
	return connect.NewResponse(&roomv1.QueueResponse{Queue: items}), nil
}

// WatchRoom streams the registration snapshot followed by every room event.
// The stream ends cleanly when the engine drops a slow consumer; clients
// re-watch to recover with a fresh snapshot.
func (s *Service) WatchRoom(ctx context.Context, req *connect.Request[roomv1.WatchRoomRequest], stream *connect.ServerStream[roomv1.WatchRoomResponse]) error {
	sub, err := s.engine.Subscribe(req.Msg.RoomID)
	if err != nil {
		return rpcError(err)
	}
	defer sub.Cancel()

	snapshot := sub.Snapshot
	if err := stream.Send(&roomv1.WatchRoomResponse{Snapshot: &snapshot}); err != nil {
		return err
	}

	s.logger.Debug().
		Str("room_id", req.Msg.RoomID.String()).
		Uint64("seq", snapshot.Seq).
		Msg("watch stream opened")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env, ok := <-sub.Events():
			if !ok {
				s.logger.Debug().
					Str("room_id", req.Msg.RoomID.String()).
					Msg("watch stream dropped by engine")
				return nil
			}
			if err := stream.Send(&roomv1.WatchRoomResponse{Event: &env}); err != nil {
				return err
			}
		}
	}
}
