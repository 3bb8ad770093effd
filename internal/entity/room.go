package entity

import (
	"math/rand"
	"time"
)

const (
	StatusAwaitingGuest = "awaiting_guest"
	StatusAwaitingReady = "awaiting_ready"
	StatusInProgress    = "in_progress"
	StatusFinished      = "finished"

	PlayerX   = "X"
	PlayerO   = "O"
	PlayerTie = "-"

	EmptyCell = ""
)

const (
	OptionRandom  = "random"
	OptionHostIsX = "host_is_x"
	OptionHostIsO = "host_is_o"
)

var WinCombos = [][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Room is one game session. It never holds connection handles; the
// connection layer only knows the room by its code.
type Room struct {
	Code       string    `json:"code"`
	GameOption string    `json:"gameOption"`
	Board      [9]string `json:"board"`
	Turn       string    `json:"turn"`
	Status     string    `json:"status"`
	Winner     string    `json:"winner,omitempty"`

	PlayerX *Player `json:"playerX,omitempty"`
	PlayerO *Player `json:"playerO,omitempty"`

	ReadyX bool `json:"readyX"`
	ReadyO bool `json:"readyO"`

	TurnDeadline *time.Time `json:"turnDeadline,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	FinishedAt   time.Time  `json:"-"`
}

func NewRoom(code, gameOption string) *Room {
	return &Room{
		Code:       code,
		GameOption: gameOption,
		Board:      [9]string{},
		Turn:       PlayerX,
		Status:     StatusAwaitingGuest,
		CreatedAt:  time.Now(),
	}
}

// DetermineGameResult - returns the winning mark, PlayerTie on a full
// board without a winner, or "" while the game is still open. It is a
// pure function of the board; no client-supplied outcome is consulted.
func (that *Room) DetermineGameResult() string {
	for _, combo := range WinCombos {
		a, b, c := that.Board[combo[0]], that.Board[combo[1]], that.Board[combo[2]]
		if a != EmptyCell && a == b && b == c {
			return a
		}
	}

	// the game will continue until all the squares are full
	for _, cell := range that.Board {
		if cell == EmptyCell {
			return ""
		}
	}

	return PlayerTie
}

func (that *Room) IsAwaitingGuest() bool {
	return that.Status == StatusAwaitingGuest
}

func (that *Room) IsAwaitingReady() bool {
	return that.Status == StatusAwaitingReady
}

func (that *Room) IsInProgress() bool {
	return that.Status == StatusInProgress
}

func (that *Room) IsFinished() bool {
	return that.Status == StatusFinished
}

// PlayerByMark - returns the occupant of a role, or nil.
func (that *Room) PlayerByMark(mark string) *Player {
	switch mark {
	case PlayerX:
		return that.PlayerX
	case PlayerO:
		return that.PlayerO
	}
	return nil
}

// MarkOf - returns the role held by a player in this room, or "".
func (that *Room) MarkOf(playerID string) string {
	if that.PlayerX != nil && that.PlayerX.ID == playerID {
		return PlayerX
	}
	if that.PlayerO != nil && that.PlayerO.ID == playerID {
		return PlayerO
	}
	return ""
}

// SoleOccupant - returns the only occupant of the room, or nil if the
// room is empty or has both roles filled.
func (that *Room) SoleOccupant() *Player {
	if that.PlayerX != nil && that.PlayerO == nil {
		return that.PlayerX
	}
	if that.PlayerO != nil && that.PlayerX == nil {
		return that.PlayerO
	}
	return nil
}

func (that *Room) IsFull() bool {
	return that.PlayerX != nil && that.PlayerO != nil
}

func (that *Room) IsReady(mark string) bool {
	switch mark {
	case PlayerX:
		return that.ReadyX
	case PlayerO:
		return that.ReadyO
	}
	return false
}

func (that *Room) SetReady(mark string) {
	switch mark {
	case PlayerX:
		that.ReadyX = true
	case PlayerO:
		that.ReadyO = true
	}
}

func (that *Room) BothReady() bool {
	return that.ReadyX && that.ReadyO
}

func ToggleMark(mark string) string {
	if mark == PlayerX {
		return PlayerO
	}
	return PlayerX
}

// RandomMarks - resolves a deferred random assignment, uniformly.
func RandomMarks() (string, string) {
	if rand.Intn(2) == 0 { //nolint: gosec // it's ok
		return PlayerX, PlayerO
	}
	return PlayerO, PlayerX
}

// Clone - returns a detached copy safe to hand outside the room lock.
func (that *Room) Clone() Room {
	clone := *that

	if that.PlayerX != nil {
		playerX := *that.PlayerX
		clone.PlayerX = &playerX
	}
	if that.PlayerO != nil {
		playerO := *that.PlayerO
		clone.PlayerO = &playerO
	}
	if that.TurnDeadline != nil {
		deadline := *that.TurnDeadline
		clone.TurnDeadline = &deadline
	}

	return clone
}

// CheckInvariants - verifies the structural invariants of the room. A
// violation means the room must be terminated.
func (that *Room) CheckInvariants() bool {
	for _, cell := range that.Board {
		if cell != EmptyCell && cell != PlayerX && cell != PlayerO {
			return false
		}
	}

	if that.IsInProgress() && that.Turn != PlayerX && that.Turn != PlayerO {
		return false
	}

	if that.PlayerX != nil && that.PlayerO != nil && that.PlayerX.ID == that.PlayerO.ID {
		return false
	}

	return true
}
