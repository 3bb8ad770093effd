package websocket

import (
	"time"

	"github.com/Rock-Lex/tictactoe-backend/internal/entity"
)

const (
	messageReady   = "ready"
	messageMove    = "move"
	messageChat    = "chat"
	messageResync  = "resync_request"
	messageEnqueue = "enqueue"

	eventSnapshot   = "snapshot"
	eventReadyAck   = "ready_ack"
	eventFinished   = "finished"
	eventChat       = "chat"
	eventError      = "error"
	eventMatchFound = "match_found"
)

// Message is a single client frame. Fields beyond Type are set
// depending on the message type. Role is client-declared and never
// trusted; the server resolves the role from the session identity.
type Message struct {
	Type      string `json:"type"`
	Role      string `json:"role,omitempty"`
	CellIndex *int   `json:"cellIndex,omitempty"`
	Text      string `json:"text,omitempty"`
}

type readyState struct {
	X bool `json:"x"`
	O bool `json:"o"`
}

type roomPlayers struct {
	X *entity.Player `json:"x"`
	O *entity.Player `json:"o"`
}

// snapshotEvent is the full authoritative room state, sent on attach,
// on resync and after every accepted transition.
type snapshotEvent struct {
	Type         string      `json:"type"`
	Code         string      `json:"code"`
	Board        [9]string   `json:"board"`
	Turn         string      `json:"turn"`
	Status       string      `json:"status"`
	Ready        readyState  `json:"ready"`
	Players      roomPlayers `json:"players"`
	TurnDeadline *time.Time  `json:"turnDeadline"`
	Winner       string      `json:"winner,omitempty"`
}

func newSnapshotEvent(room entity.Room) snapshotEvent {
	return snapshotEvent{
		Type:         eventSnapshot,
		Code:         room.Code,
		Board:        room.Board,
		Turn:         room.Turn,
		Status:       room.Status,
		Ready:        readyState{X: room.ReadyX, O: room.ReadyO},
		Players:      roomPlayers{X: room.PlayerX, O: room.PlayerO},
		TurnDeadline: room.TurnDeadline,
		Winner:       room.Winner,
	}
}

type readyAckEvent struct {
	Type  string `json:"type"`
	Role  string `json:"role"`
	Value bool   `json:"value"`
}

type finishedEvent struct {
	Type   string `json:"type"`
	Winner string `json:"winner"`
}

type chatEvent struct {
	Type      string    `json:"type"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

type matchFoundEvent struct {
	Type string `json:"type"`
	Code string `json:"code"`
}

type errorEvent struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}
