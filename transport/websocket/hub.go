package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/Rock-Lex/tictactoe-backend/internal/entity"
)

// Hub tracks which connections watch which room and which ones sit in
// the matchmaking queue. It is the delivery side of game notifications.
type Hub struct {
	logger *slog.Logger

	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
	queue map[string]*Client
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger,
		rooms:  make(map[string]map[*Client]struct{}),
		queue:  make(map[string]*Client),
	}
}

func (that *Hub) Attach(client *Client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	clients, ok := that.rooms[client.roomCode]
	if !ok {
		clients = make(map[*Client]struct{})
		that.rooms[client.roomCode] = clients
	}

	clients[client] = struct{}{}
}

func (that *Hub) Detach(client *Client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	clients, ok := that.rooms[client.roomCode]
	if !ok {
		return
	}

	delete(clients, client)

	if len(clients) == 0 {
		delete(that.rooms, client.roomCode)
	}
}

func (that *Hub) AttachQueue(client *Client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.queue[client.playerID] = client
}

func (that *Hub) DetachQueue(client *Client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.queue[client.playerID] == client {
		delete(that.queue, client.playerID)
	}
}

// RoomSnapshot sends the full room state to everyone watching the room.
func (that *Hub) RoomSnapshot(room entity.Room) {
	that.broadcast(room.Code, newSnapshotEvent(room))
}

// ReadyAck announces one player's readiness toggle.
func (that *Hub) ReadyAck(roomCode, role string, value bool) {
	that.broadcast(roomCode, readyAckEvent{Type: eventReadyAck, Role: role, Value: value})
}

// GameFinished sends the terminal board followed by the verdict.
func (that *Hub) GameFinished(room entity.Room) {
	that.broadcast(room.Code, newSnapshotEvent(room))
	that.broadcast(room.Code, finishedEvent{Type: eventFinished, Winner: room.Winner})
}

// ChatMessage relays a chat message to the room.
func (that *Hub) ChatMessage(roomCode string, message entity.ChatMessage) {
	that.broadcast(roomCode, chatEvent{
		Type:      eventChat,
		Sender:    message.Sender,
		Text:      message.Text,
		Timestamp: message.Timestamp,
	})
}

// MatchFound tells a queued player which room to join.
func (that *Hub) MatchFound(playerID, roomCode string) {
	payload, err := json.Marshal(matchFoundEvent{Type: eventMatchFound, Code: roomCode})
	if err != nil {
		that.logger.Error("failed to marshal match found event", "error", err)
		return
	}

	// the send stays under the lock so a concurrent detach cannot close
	// the channel in between
	that.mu.RLock()
	defer that.mu.RUnlock()

	client, ok := that.queue[playerID]
	if !ok {
		that.logger.Warn("queued player has no connection", "playerID", playerID)
		return
	}

	client.enqueue(payload)
}

func (that *Hub) broadcast(roomCode string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		that.logger.Error("failed to marshal event", "roomCode", roomCode, "error", err)
		return
	}

	that.mu.RLock()
	defer that.mu.RUnlock()

	for client := range that.rooms[roomCode] {
		client.enqueue(payload)
	}
}
