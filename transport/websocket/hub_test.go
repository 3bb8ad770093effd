package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rock-Lex/tictactoe-backend/internal/entity"
)

func testHub() *Hub {
	return NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func attachedClient(hub *Hub, playerID, roomCode string) *Client {
	client := &Client{
		logger:   hub.logger,
		send:     make(chan []byte, 8),
		playerID: playerID,
		roomCode: roomCode,
	}
	hub.Attach(client)

	return client
}

func receiveFrame(t *testing.T, client *Client) map[string]any {
	t.Helper()

	select {
	case payload := <-client.send:
		var frame map[string]any
		require.NoError(t, json.Unmarshal(payload, &frame))
		return frame
	case <-time.After(time.Second):
		t.Fatal("no frame received")
		return nil
	}
}

func TestHub_RoomSnapshot(t *testing.T) {
	// Given: two connections in one room and one in another
	hub := testHub()
	first := attachedClient(hub, "p1", "AAAAAA")
	second := attachedClient(hub, "p2", "AAAAAA")
	other := attachedClient(hub, "p3", "BBBBBB")

	// When: a snapshot goes out for the first room
	room := entity.NewRoom("AAAAAA", entity.OptionHostIsX)
	hub.RoomSnapshot(room.Clone())

	// Then: both room members receive it, the outsider does not
	for _, client := range []*Client{first, second} {
		frame := receiveFrame(t, client)
		assert.Equal(t, eventSnapshot, frame["type"])
	}
	assert.Empty(t, other.send)
}

func TestHub_GameFinished(t *testing.T) {
	// Given: a connection in a room
	hub := testHub()
	client := attachedClient(hub, "p1", "AAAAAA")

	// When: the game finishes
	room := entity.NewRoom("AAAAAA", entity.OptionHostIsX)
	room.Status = entity.StatusFinished
	room.Winner = entity.PlayerX
	hub.GameFinished(room.Clone())

	// Then: the final snapshot precedes the verdict frame
	snapshot := receiveFrame(t, client)
	assert.Equal(t, eventSnapshot, snapshot["type"])

	verdict := receiveFrame(t, client)
	assert.Equal(t, eventFinished, verdict["type"])
	assert.Equal(t, entity.PlayerX, verdict["winner"])
}

func TestHub_MatchFound(t *testing.T) {
	// Given: a queued connection
	hub := testHub()
	client := &Client{
		logger:   hub.logger,
		send:     make(chan []byte, 8),
		playerID: "p1",
	}
	hub.AttachQueue(client)

	// When: a match is announced
	hub.MatchFound("p1", "AAAAAA")

	// Then: only the queued player gets the room code
	frame := receiveFrame(t, client)
	assert.Equal(t, eventMatchFound, frame["type"])
	assert.Equal(t, "AAAAAA", frame["code"])
}

func TestHub_Detach(t *testing.T) {
	// Given: an attached connection
	hub := testHub()
	client := attachedClient(hub, "p1", "AAAAAA")

	// When: it detaches
	hub.Detach(client)

	// Then: broadcasts no longer reach it
	hub.RoomSnapshot(entity.NewRoom("AAAAAA", entity.OptionHostIsX).Clone())
	assert.Empty(t, client.send)
}
