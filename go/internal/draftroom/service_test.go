package draftroom

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	roomv1 "github.com/mcdev12/draftroom/go/internal/api/room/v1"
	"github.com/mcdev12/draftroom/go/internal/draftroom/engine"
	"github.com/mcdev12/draftroom/go/internal/draftroom/events"
	"github.com/mcdev12/draftroom/go/internal/draftroom/queue"
	"github.com/mcdev12/draftroom/go/internal/draftroom/store"
	"github.com/mcdev12/draftroom/go/internal/models"
)

const streamTimeout = 5 * time.Second

func TestRPCCodeMapping(t *testing.T) {
	tests := []struct {
		err  error
		want connect.Code
	}{
		{engine.ErrRoomNotFound, connect.CodeNotFound},
		{engine.ErrParticipantNotFound, connect.CodeNotFound},
		{engine.ErrItemNotFound, connect.CodeNotFound},
		{engine.ErrStalePick, connect.CodeAlreadyExists},
		{engine.ErrRoomExists, connect.CodeAlreadyExists},
		{engine.ErrInvalidRoomConfig, connect.CodeInvalidArgument},
		{engine.ErrInvalidPickNumber, connect.CodeInvalidArgument},
		{queue.ErrFull, connect.CodeInvalidArgument},
		{queue.ErrIndexOutOfRange, connect.CodeInvalidArgument},
		{engine.ErrRoomNotActive, connect.CodeFailedPrecondition},
		{engine.ErrNotYourTurn, connect.CodeFailedPrecondition},
		{engine.ErrItemAlreadyDrafted, connect.CodeFailedPrecondition},
		{engine.ErrInvalidTransition, connect.CodeFailedPrecondition},
		{errors.New("disk on fire"), connect.CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, rpcCode(tt.err))
			// Wrapped errors map the same way.
			assert.Equal(t, tt.want, rpcCode(fmt.Errorf("wrapped: %w", tt.err)))
		})
	}
}

type serviceFixture struct {
	engine *engine.Engine
	clock  *clockwork.FakeClock
	server *httptest.Server
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	clock := clockwork.NewFakeClock()
	eng := engine.NewEngine(clock, engine.QueuePreferredStrategy{}, nil, zerolog.Nop(), engine.DefaultConfig())
	t.Cleanup(eng.Close)

	mux := http.NewServeMux()
	path, handler := roomv1.NewRoomServiceHandler(NewService(eng, nil, nil, zerolog.Nop()))
	mux.Handle(path, handler)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &serviceFixture{engine: eng, clock: clock, server: server}
}

// call POSTs a unary request and decodes the response into out when the
// status is 200, or returns the connect error code from the body otherwise.
func (f *serviceFixture) call(t *testing.T, procedure string, in, out any) (int, string) {
	t.Helper()

	body, err := json.Marshal(in)
	require.NoError(t, err)

	resp, err := f.server.Client().Post(f.server.URL+procedure, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	if resp.StatusCode == http.StatusOK {
		if out != nil {
			require.NoError(t, json.Unmarshal(data, out))
		}
		return resp.StatusCode, ""
	}

	var connectErr struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(data, &connectErr), "error body: %s", data)
	return resp.StatusCode, connectErr.Code
}

func newRoomRequest(teams, rounds, poolSize int) roomv1.CreateRoomRequest {
	participants := make([]models.Participant, teams)
	for i := range participants {
		participants[i] = models.Participant{
			ID:          uuid.New(),
			DisplayName: fmt.Sprintf("Team %d", i),
			SeatIndex:   i,
		}
	}
	items := make([]models.Item, poolSize)
	for i := range items {
		items[i] = models.Item{
			ID:          uuid.New(),
			FullName:    fmt.Sprintf("Item %d", i),
			ADP:         float64(i + 1),
			OverallRank: i + 1,
		}
	}
	return roomv1.CreateRoomRequest{
		TournamentID: uuid.New(),
		Settings:     models.RoomSettings{Rounds: rounds, PickTimeSec: 30, CountdownSec: 1},
		Participants: participants,
		Items:        items,
	}
}

func TestRoomServiceUnaryFlow(t *testing.T) {
	f := newServiceFixture(t)
	req := newRoomRequest(2, 1, 4)

	var created roomv1.CreateRoomResponse
	status, _ := f.call(t, roomv1.RoomServiceCreateRoomProcedure, req, &created)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, models.RoomStatusWaiting, created.State.Room.Status)
	roomID := created.State.Room.ID

	// Bad configuration is an invalid argument at the edge.
	bad := newRoomRequest(2, 1, 4)
	bad.Participants = bad.Participants[:1]
	status, code := f.call(t, roomv1.RoomServiceCreateRoomProcedure, bad, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_argument", code)

	// Unknown room is not found.
	status, code = f.call(t, roomv1.RoomServiceGetRoomStateProcedure,
		roomv1.GetRoomStateRequest{RoomID: uuid.New()}, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", code)

	// Submitting before the draft starts trips a precondition.
	status, code = f.call(t, roomv1.RoomServiceSubmitPickProcedure, roomv1.SubmitPickRequest{
		RoomID:        roomID,
		ParticipantID: req.Participants[0].ID,
		PickNumber:    1,
		ItemID:        req.Items[0].ID,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "failed_precondition", code)

	// Queue mutations work in Waiting.
	var queued roomv1.QueueResponse
	status, _ = f.call(t, roomv1.RoomServiceEnqueueQueueItemProcedure, roomv1.EnqueueQueueItemRequest{
		RoomID:        roomID,
		ParticipantID: req.Participants[1].ID,
		ItemID:        req.Items[2].ID,
	}, &queued)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []uuid.UUID{req.Items[2].ID}, queued.Queue)

	var countdown roomv1.StartCountdownResponse
	status, _ = f.call(t, roomv1.RoomServiceStartCountdownProcedure,
		roomv1.StartCountdownRequest{RoomID: roomID}, &countdown)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.RoomStatusCountdown, countdown.State.Room.Status)

	// Activation happens on the engine clock.
	f.clock.Advance(time.Second)
	waitUntil := time.Now().Add(streamTimeout)
	var state roomv1.GetRoomStateResponse
	for {
		status, _ = f.call(t, roomv1.RoomServiceGetRoomStateProcedure,
			roomv1.GetRoomStateRequest{RoomID: roomID}, &state)
		require.Equal(t, http.StatusOK, status)
		if state.State.Room.Status == models.RoomStatusActive {
			break
		}
		require.False(t, time.Now().After(waitUntil), "room never went active")
		time.Sleep(time.Millisecond)
	}
	require.NotNil(t, state.State.OnClock)
	require.NotNil(t, state.State.Timer.Deadline)

	// Wrong seat is rejected, right seat commits.
	onClock := req.Participants[state.State.OnClock.SeatIndex]
	offClock := req.Participants[(state.State.OnClock.SeatIndex+1)%2]

	status, code = f.call(t, roomv1.RoomServiceSubmitPickProcedure, roomv1.SubmitPickRequest{
		RoomID:        roomID,
		ParticipantID: offClock.ID,
		PickNumber:    1,
		ItemID:        req.Items[0].ID,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "failed_precondition", code)

	var made roomv1.SubmitPickResponse
	status, _ = f.call(t, roomv1.RoomServiceSubmitPickProcedure, roomv1.SubmitPickRequest{
		RoomID:        roomID,
		ParticipantID: onClock.ID,
		PickNumber:    1,
		ItemID:        req.Items[0].ID,
	}, &made)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, made.Pick.PickNumber)
	assert.Equal(t, req.Items[0].ID, made.Pick.ItemID)

	// A retry of the same pick is reported as already existing.
	status, code = f.call(t, roomv1.RoomServiceSubmitPickProcedure, roomv1.SubmitPickRequest{
		RoomID:        roomID,
		ParticipantID: onClock.ID,
		PickNumber:    1,
		ItemID:        req.Items[0].ID,
	}, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "already_exists", code)
}

// writeStreamFrame writes one connect streaming envelope.
func writeStreamFrame(buf *bytes.Buffer, flags byte, payload []byte) {
	buf.WriteByte(flags)
	var size [4]byte
	binary.BigEndian.PutUint32(size[:], uint32(len(payload)))
	buf.Write(size[:])
	buf.Write(payload)
}

// readStreamFrame reads one connect streaming envelope.
func readStreamFrame(r io.Reader) (byte, []byte, error) {
	var head [5]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return 0, nil, err
	}
	payload := make([]byte, binary.BigEndian.Uint32(head[1:]))
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, err
	}
	return head[0], payload, nil
}

func TestWatchRoomStreamsSnapshotThenEvents(t *testing.T) {
	f := newServiceFixture(t)

	snap, err := f.engine.CreateRoom(engine.CreateRoomRequest{
		TournamentID: uuid.New(),
		Settings:     models.RoomSettings{Rounds: 1, PickTimeSec: 30},
		Participants: []models.Participant{
			{ID: uuid.New(), DisplayName: "Team 0", SeatIndex: 0},
			{ID: uuid.New(), DisplayName: "Team 1", SeatIndex: 1},
		},
		Items: []models.Item{
			{ID: uuid.New(), FullName: "A", ADP: 1, OverallRank: 1},
			{ID: uuid.New(), FullName: "B", ADP: 2, OverallRank: 2},
		},
	})
	require.NoError(t, err)

	reqBody, err := json.Marshal(roomv1.WatchRoomRequest{RoomID: snap.Room.ID})
	require.NoError(t, err)
	var framed bytes.Buffer
	writeStreamFrame(&framed, 0, reqBody)

	httpReq, err := http.NewRequest(http.MethodPost,
		f.server.URL+roomv1.RoomServiceWatchRoomProcedure, &framed)
	require.NoError(t, err)
	httpReq.Header.Set("Content-Type", "application/connect+json")

	resp, err := f.server.Client().Do(httpReq)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Guard against a stalled stream: kill the connection if reads hang.
	watchdog := time.AfterFunc(streamTimeout, func() { resp.Body.Close() })
	defer watchdog.Stop()

	// First message is the registration snapshot.
	flags, payload, err := readStreamFrame(resp.Body)
	require.NoError(t, err)
	require.Zero(t, flags&0x02, "first frame must not be the end frame")

	var first roomv1.WatchRoomResponse
	require.NoError(t, json.Unmarshal(payload, &first))
	require.NotNil(t, first.Snapshot)
	assert.Nil(t, first.Event)
	assert.Equal(t, snap.Room.ID, first.Snapshot.Room.ID)
	assert.Equal(t, events.SchemaVersion, first.Snapshot.SchemaVersion)

	// State changes arrive as event messages.
	require.NoError(t, f.engine.StartCountdown(snap.Room.ID))

	_, payload, err = readStreamFrame(resp.Body)
	require.NoError(t, err)
	var second roomv1.WatchRoomResponse
	require.NoError(t, json.Unmarshal(payload, &second))
	require.NotNil(t, second.Event)
	assert.Nil(t, second.Snapshot)
	assert.Equal(t, events.TypeCountdownStarted, second.Event.Type)
	assert.Equal(t, first.Snapshot.Seq+1, second.Event.Seq)
}

// fakeArchive serves one archived room record.
type fakeArchive struct {
	rec   store.RoomRecord
	picks []models.Pick
	err   error
}

func (f *fakeArchive) GetRoom(_ context.Context, roomID uuid.UUID) (store.RoomRecord, error) {
	if f.err != nil {
		return store.RoomRecord{}, f.err
	}
	if roomID != f.rec.Room.ID {
		return store.RoomRecord{}, fmt.Errorf("room %s: %w", roomID, store.ErrNotFound)
	}
	return f.rec, nil
}

func (f *fakeArchive) ListPicks(_ context.Context, roomID uuid.UUID) ([]models.Pick, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.picks, nil
}

type fakeCatalog struct {
	items []models.Item
	err   error
}

func (f *fakeCatalog) ListItems(context.Context) ([]models.Item, error) {
	return f.items, f.err
}

func TestGetRoomStateFallsBackToArchive(t *testing.T) {
	eng := engine.NewEngine(clockwork.NewFakeClock(), engine.QueuePreferredStrategy{},
		nil, zerolog.Nop(), engine.DefaultConfig())
	t.Cleanup(eng.Close)

	roomID := uuid.New()
	completedAt := time.Now().UTC().Truncate(time.Second)
	arch := &fakeArchive{
		rec: store.RoomRecord{
			Room: models.Room{
				ID:          roomID,
				Status:      models.RoomStatusComplete,
				TotalPicks:  2,
				CompletedAt: &completedAt,
			},
			LastSeq: 9,
		},
		picks: []models.Pick{
			{RoomID: roomID, PickNumber: 1},
			{RoomID: roomID, PickNumber: 2},
		},
	}
	svc := NewService(eng, arch, nil, zerolog.Nop())

	resp, err := svc.GetRoomState(context.Background(),
		connect.NewRequest(&roomv1.GetRoomStateRequest{RoomID: roomID}))
	require.NoError(t, err)
	assert.Equal(t, models.RoomStatusComplete, resp.Msg.State.Room.Status)
	assert.Equal(t, uint64(9), resp.Msg.State.Seq)
	assert.Len(t, resp.Msg.State.Picks, 2)
	assert.Equal(t, models.TimerPhaseIdle, resp.Msg.State.Timer.Phase)

	// Rooms in neither the engine nor the archive stay not found.
	_, err = svc.GetRoomState(context.Background(),
		connect.NewRequest(&roomv1.GetRoomStateRequest{RoomID: uuid.New()}))
	require.Error(t, err)
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))
}

func TestGetRoomStatePrefersLiveRoom(t *testing.T) {
	eng := engine.NewEngine(clockwork.NewFakeClock(), engine.QueuePreferredStrategy{},
		nil, zerolog.Nop(), engine.DefaultConfig())
	t.Cleanup(eng.Close)

	roomID := uuid.New()
	snap, err := eng.CreateRoom(engine.CreateRoomRequest{
		RoomID:       roomID,
		TournamentID: uuid.New(),
		Settings:     models.RoomSettings{Rounds: 1, PickTimeSec: 30},
		Participants: []models.Participant{
			{ID: uuid.New(), DisplayName: "Team 0", SeatIndex: 0},
			{ID: uuid.New(), DisplayName: "Team 1", SeatIndex: 1},
		},
		Items: []models.Item{
			{ID: uuid.New(), FullName: "A", ADP: 1, OverallRank: 1},
			{ID: uuid.New(), FullName: "B", ADP: 2, OverallRank: 2},
		},
	})
	require.NoError(t, err)
	require.Equal(t, models.RoomStatusWaiting, snap.Room.Status)

	// The archive claims the same room already completed; the engine wins.
	arch := &fakeArchive{rec: store.RoomRecord{
		Room: models.Room{ID: roomID, Status: models.RoomStatusComplete},
	}}
	svc := NewService(eng, arch, nil, zerolog.Nop())

	resp, err := svc.GetRoomState(context.Background(),
		connect.NewRequest(&roomv1.GetRoomStateRequest{RoomID: roomID}))
	require.NoError(t, err)
	assert.Equal(t, models.RoomStatusWaiting, resp.Msg.State.Room.Status)
}

func TestCreateRoomDrawsPoolFromCatalog(t *testing.T) {
	eng := engine.NewEngine(clockwork.NewFakeClock(), engine.QueuePreferredStrategy{},
		nil, zerolog.Nop(), engine.DefaultConfig())
	t.Cleanup(eng.Close)

	catalog := &fakeCatalog{items: []models.Item{
		{ID: uuid.New(), FullName: "A", ADP: 1, OverallRank: 1},
		{ID: uuid.New(), FullName: "B", ADP: 2, OverallRank: 2},
		{ID: uuid.New(), FullName: "C", ADP: 3, OverallRank: 3},
		{ID: uuid.New(), FullName: "D", ADP: 4, OverallRank: 4},
	}}
	svc := NewService(eng, nil, catalog, zerolog.Nop())

	req := newRoomRequest(2, 1, 0)
	req.Items = nil
	resp, err := svc.CreateRoom(context.Background(), connect.NewRequest(&req))
	require.NoError(t, err)
	assert.Equal(t, 4, resp.Msg.State.AvailableCount)

	// Explicit pools bypass the catalog.
	withPool := newRoomRequest(2, 1, 2)
	resp, err = svc.CreateRoom(context.Background(), connect.NewRequest(&withPool))
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Msg.State.AvailableCount)

	// A failing catalog is an internal fault, not an invalid request.
	svc = NewService(eng, nil, &fakeCatalog{err: errors.New("catalog down")}, zerolog.Nop())
	req = newRoomRequest(2, 1, 0)
	req.Items = nil
	_, err = svc.CreateRoom(context.Background(), connect.NewRequest(&req))
	require.Error(t, err)
	assert.Equal(t, connect.CodeInternal, connect.CodeOf(err))

	// Without a catalog the pool must come with the request.
	svc = NewService(eng, nil, nil, zerolog.Nop())
	req = newRoomRequest(2, 1, 0)
	req.Items = nil
	_, err = svc.CreateRoom(context.Background(), connect.NewRequest(&req))
	require.Error(t, err)
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}
