package roomv1

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
)

// RoomServiceName is the fully-qualified name the service is exposed under.
const RoomServiceName = "draftroom.v1.RoomService"

// Procedure paths for each RoomService method. Connect derives these from
// the service name; clients POST JSON to them directly.
const (
	RoomServiceCreateRoomProcedure           = "/draftroom.v1.RoomService/CreateRoom"
	RoomServiceGetRoomStateProcedure         = "/draftroom.v1.RoomService/GetRoomState"
	RoomServiceStartCountdownProcedure       = "/draftroom.v1.RoomService/StartCountdown"
	RoomServiceSubmitPickProcedure           = "/draftroom.v1.RoomService/SubmitPick"
	RoomServicePauseRoomProcedure            = "/draftroom.v1.RoomService/PauseRoom"
	RoomServiceResumeRoomProcedure           = "/draftroom.v1.RoomService/ResumeRoom"
	RoomServiceEnqueueQueueItemProcedure     = "/draftroom.v1.RoomService/EnqueueQueueItem"
	RoomServiceRemoveQueueItemProcedure      = "/draftroom.v1.RoomService/RemoveQueueItem"
	RoomServiceMoveQueueItemToFrontProcedure = "/draftroom.v1.RoomService/MoveQueueItemToFront"
	RoomServiceReorderQueueProcedure         = "/draftroom.v1.RoomService/ReorderQueue"
	RoomServiceGetQueueProcedure             = "/draftroom.v1.RoomService/GetQueue"
	RoomServiceWatchRoomProcedure            = "/draftroom.v1.RoomService/WatchRoom"
)

// RoomServiceHandler is the server contract for the draft room API.
type RoomServiceHandler interface {
	CreateRoom(context.Context, *connect.Request[CreateRoomRequest]) (*connect.Response[CreateRoomResponse], error)
	GetRoomState(context.Context, *connect.Request[GetRoomStateRequest]) (*connect.Response[GetRoomStateResponse], error)
	StartCountdown(context.Context, *connect.Request[StartCountdownRequest]) (*connect.Response[StartCountdownResponse], error)
	SubmitPick(context.Context, *connect.Request[SubmitPickRequest]) (*connect.Response[SubmitPickResponse], error)
	PauseRoom(context.Context, *connect.Request[PauseRoomRequest]) (*connect.Response[PauseRoomResponse], error)
	ResumeRoom(context.Context, *connect.Request[ResumeRoomRequest]) (*connect.Response[ResumeRoomResponse], error)
	EnqueueQueueItem(context.Context, *connect.Request[EnqueueQueueItemRequest]) (*connect.Response[QueueResponse], error)
	RemoveQueueItem(context.Context, *connect.Request[RemoveQueueItemRequest]) (*connect.Response[QueueResponse], error)
	MoveQueueItemToFront(context.Context, *connect.Request[MoveQueueItemToFrontRequest]) (*connect.Response[QueueResponse], error)
	ReorderQueue(context.Context, *connect.Request[ReorderQueueRequest]) (*connect.Response[QueueResponse], error)
	GetQueue(context.Context, *connect.Request[GetQueueRequest]) (*connect.Response[QueueResponse], error)
	WatchRoom(context.Context, *connect.Request[WatchRoomRequest], *connect.ServerStream[WatchRoomResponse]) error
}

// NewRoomServiceHandler builds an http.Handler for a RoomServiceHandler and
// returns the path to mount it on. The JSON codec is installed ahead of any
// caller options so the wire format is fixed regardless of extra options.
func NewRoomServiceHandler(svc RoomServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	createRoomHandler := connect.NewUnaryHandler(RoomServiceCreateRoomProcedure, svc.CreateRoom, opts...)
	getRoomStateHandler := connect.NewUnaryHandler(RoomServiceGetRoomStateProcedure, svc.GetRoomState, opts...)
	startCountdownHandler := connect.NewUnaryHandler(RoomServiceStartCountdownProcedure, svc.StartCountdown, opts...)
	submitPickHandler := connect.NewUnaryHandler(RoomServiceSubmitPickProcedure, svc.SubmitPick, opts...)
	pauseRoomHandler := connect.NewUnaryHandler(RoomServicePauseRoomProcedure, svc.PauseRoom, opts...)
	resumeRoomHandler := connect.NewUnaryHandler(RoomServiceResumeRoomProcedure, svc.ResumeRoom, opts...)
	enqueueQueueItemHandler := connect.NewUnaryHandler(RoomServiceEnqueueQueueItemProcedure, svc.EnqueueQueueItem, opts...)
	removeQueueItemHandler := connect.NewUnaryHandler(RoomServiceRemoveQueueItemProcedure, svc.RemoveQueueItem, opts...)
	moveQueueItemToFrontHandler := connect.NewUnaryHandler(RoomServiceMoveQueueItemToFrontProcedure, svc.MoveQueueItemToFront, opts...)
	reorderQueueHandler := connect.NewUnaryHandler(RoomServiceReorderQueueProcedure, svc.ReorderQueue, opts...)
	getQueueHandler := connect.NewUnaryHandler(RoomServiceGetQueueProcedure, svc.GetQueue, opts...)
	watchRoomHandler := connect.NewServerStreamHandler(RoomServiceWatchRoomProcedure, svc.WatchRoom, opts...)

	return "/draftroom.v1.RoomService/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case RoomServiceCreateRoomProcedure:
			createRoomHandler.ServeHTTP(w, r)
		case RoomServiceGetRoomStateProcedure:
			getRoomStateHandler.ServeHTTP(w, r)
		case RoomServiceStartCountdownProcedure:
			startCountdownHandler.ServeHTTP(w, r)
		case RoomServiceSubmitPickProcedure:
			submitPickHandler.ServeHTTP(w, r)
		case RoomServicePauseRoomProcedure:
			pauseRoomHandler.ServeHTTP(w, r)
		case RoomServiceResumeRoomProcedure:
			resumeRoomHandler.ServeHTTP(w, r)
		case RoomServiceEnqueueQueueItemProcedure:
			enqueueQueueItemHandler.ServeHTTP(w, r)
		case RoomServiceRemoveQueueItemProcedure:
			removeQueueItemHandler.ServeHTTP(w, r)
		case RoomServiceMoveQueueItemToFrontProcedure:
			moveQueueItemToFrontHandler.ServeHTTP(w, r)
		case RoomServiceReorderQueueProcedure:
			reorderQueueHandler.ServeHTTP(w, r)
		case RoomServiceGetQueueProcedure:
			getQueueHandler.ServeHTTP(w, r)
		case RoomServiceWatchRoomProcedure:
			watchRoomHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}
