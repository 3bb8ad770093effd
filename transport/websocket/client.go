package websocket

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 1024
)

// Client is a single WebSocket connection attached either to a room or
// to the matchmaking queue.
type Client struct {
	logger *slog.Logger
	conn   *websocket.Conn
	send   chan []byte

	playerID string
	roomCode string
}

func newClient(logger *slog.Logger, conn *websocket.Conn, playerID, roomCode string) *Client {
	conn.SetReadLimit(maxMessageSize)

	return &Client{
		logger:   logger,
		conn:     conn,
		send:     make(chan []byte, 32),
		playerID: playerID,
		roomCode: roomCode,
	}
}

// enqueue hands a frame to the write pump without blocking the caller.
// A client that cannot keep up loses frames and recovers via resync.
func (that *Client) enqueue(payload []byte) {
	select {
	case that.send <- payload:
	default:
		that.logger.Warn("send buffer full, dropping frame", "playerID", that.playerID)
	}
}

// writePump serializes all writes to the connection and keeps it alive
// with periodic pings.
func (that *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		that.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-that.send:
			if err := that.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}

			if !ok {
				_ = that.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := that.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			if err := that.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}

			if err := that.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
