// Package gateway serves draft room state over WebSocket. Each connection
// holds its own engine subscription: the registration snapshot goes out
// first, then every room event in order. The socket is read-mostly; picks
// and queue changes go through the RPC API.
package gateway

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/mcdev12/draftroom/go/internal/draftroom/engine"
)

// Config holds WebSocket connection tuning.
type Config struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBufferSize  int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConfig returns the production connection tuning.
func DefaultConfig() Config {
	return Config{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBufferSize:  256,
		CheckOrigin: func(r *http.Request) bool {
			// Allow all origins in development - restrict in production
			return true
		},
	}
}

// Gateway upgrades HTTP requests to room event streams.
type Gateway struct {
	engine   *engine.Engine
	upgrader websocket.Upgrader
	config   Config
	logger   zerolog.Logger
}

// New creates a WebSocket gateway over an engine.
func New(eng *engine.Engine, config Config, logger zerolog.Logger) *Gateway {
	return &Gateway{
		engine: eng,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config: config,
		logger: logger,
	}
}

// HandleRoomConnection upgrades the request and streams the room identified
// by the room_id query parameter.
func (g *Gateway) HandleRoomConnection(w http.ResponseWriter, r *http.Request) {
	roomIDStr := r.URL.Query().Get("room_id")
	if roomIDStr == "" {
		http.Error(w, "room_id is required", http.StatusBadRequest)
		return
	}
	roomID, err := uuid.Parse(roomIDStr)
	if err != nil {
		http.Error(w, "invalid room_id format", http.StatusBadRequest)
		return
	}

	// Subscribe before upgrading so an unknown room is a plain HTTP error.
	sub, err := g.engine.Subscribe(roomID)
	if err != nil {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	ws, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		sub.Cancel()
		g.logger.Error().Err(err).
			Str("room_id", roomID.String()).
			Msg("failed to upgrade WebSocket connection")
		return
	}

	conn := &connection{
		id:      uuid.New().String(),
		roomID:  roomID,
		ws:      ws,
		send:    make(chan []byte, g.config.SendBufferSize),
		done:    make(chan struct{}),
		gateway: g,
	}

	go conn.writePump()
	go conn.readPump()
	go conn.forward(sub)

	g.logger.Info().
		Str("connection_id", conn.id).
		Str("room_id", roomID.String()).
		Msg("WebSocket connection established")
}

// RegisterRoutes mounts the gateway endpoints on a mux.
func (g *Gateway) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/room", g.HandleRoomConnection)
}
