package service

import "github.com/Rock-Lex/tictactoe-backend/internal/entity"

// Notifier is how the state machine pushes events out to attached
// channels. The connection layer implements it; services never hold
// connection handles themselves.
type Notifier interface {
	RoomSnapshot(room entity.Room)
	ReadyAck(roomCode, role string, value bool)
	GameFinished(room entity.Room)
	ChatMessage(roomCode string, message entity.ChatMessage)
	MatchFound(playerID, roomCode string)
}

// NopNotifier is used in tests and before the transport is wired.
type NopNotifier struct{}

func (NopNotifier) RoomSnapshot(_ entity.Room)                       {}
func (NopNotifier) ReadyAck(_, _ string, _ bool)                     {}
func (NopNotifier) GameFinished(_ entity.Room)                       {}
func (NopNotifier) ChatMessage(_ string, _ entity.ChatMessage)       {}
func (NopNotifier) MatchFound(_, _ string)                           {}
