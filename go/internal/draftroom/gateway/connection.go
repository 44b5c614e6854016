package gateway

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	roomv1 "github.com/mcdev12/draftroom/go/internal/api/room/v1"
	"github.com/mcdev12/draftroom/go/internal/draftroom/engine"
	"github.com/mcdev12/draftroom/go/internal/draftroom/events"
)

// connection is one client's WebSocket session. The forward goroutine is the
// only writer to send; writePump is the only writer to the socket.
type connection struct {
	id     string
	roomID uuid.UUID
	ws     *websocket.Conn
	send   chan []byte

	done      chan struct{}
	closeOnce sync.Once

	gateway *Gateway
}

// close tears the session down exactly once, whichever pump fails first.
func (c *connection) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.ws.Close()
	})
}

// enqueue marshals a message onto the send buffer. A full buffer means the
// client cannot keep up; the session ends rather than stall the stream.
func (c *connection) enqueue(msg roomv1.WatchRoomResponse) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		c.gateway.logger.Error().Err(err).
			Str("connection_id", c.id).
			Msg("failed to marshal stream message")
		return false
	}
	select {
	case c.send <- data:
		return true
	case <-c.done:
		return false
	default:
		c.gateway.logger.Warn().
			Str("connection_id", c.id).
			Str("room_id", c.roomID.String()).
			Msg("send buffer full, closing connection")
		return false
	}
}

// forward streams the subscription to the client: snapshot first, then every
// event. A closed event channel means the engine dropped this subscriber and
// the client must reconnect for a fresh snapshot.
func (c *connection) forward(sub *engine.Subscription) {
	defer c.close()
	defer sub.Cancel()

	snapshot := sub.Snapshot
	if !c.enqueue(roomv1.WatchRoomResponse{Snapshot: &snapshot}) {
		return
	}

	for {
		select {
		case <-c.done:
			return
		case env, ok := <-sub.Events():
			if !ok {
				c.gateway.logger.Warn().
					Str("connection_id", c.id).
					Str("room_id", c.roomID.String()).
					Msg("subscription dropped by engine")
				return
			}
			if !c.enqueue(roomv1.WatchRoomResponse{Event: &env}) {
				return
			}
		}
	}
}

// writePump drains the send buffer onto the socket and keeps the connection
// alive with pings.
func (c *connection) writePump() {
	ticker := time.NewTicker(c.gateway.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			c.ws.SetWriteDeadline(time.Now().Add(c.gateway.config.WriteTimeout))
			c.ws.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case data := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(c.gateway.config.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				c.gateway.logger.Error().Err(err).
					Str("connection_id", c.id).
					Msg("failed to write message to WebSocket")
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(c.gateway.config.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump consumes client frames. The stream is read-only for clients;
// frames are version-checked and logged, writes happen through the RPC API.
func (c *connection) readPump() {
	defer c.close()

	c.ws.SetReadLimit(c.gateway.config.MaxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(c.gateway.config.ReadTimeout))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(c.gateway.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.gateway.logger.Error().Err(err).
					Str("connection_id", c.id).
					Msg("unexpected WebSocket close error")
			}
			return
		}
		c.handleClientMessage(message)
		c.ws.SetReadDeadline(time.Now().Add(c.gateway.config.ReadTimeout))
	}
}

func (c *connection) handleClientMessage(message []byte) {
	var frame struct {
		SchemaVersion int `json:"schema_version"`
	}
	if err := json.Unmarshal(message, &frame); err == nil && frame.SchemaVersion != 0 && frame.SchemaVersion != events.SchemaVersion {
		c.gateway.logger.Warn().
			Str("connection_id", c.id).
			Int("schema_version", frame.SchemaVersion).
			Msg("client frame with unknown schema version ignored")
		return
	}
	c.gateway.logger.Debug().
		Str("connection_id", c.id).
		Str("room_id", c.roomID.String()).
		Msg("received client message")
}
