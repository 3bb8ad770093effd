package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRoom(t *testing.T) {
	// Given: a new room
	room := NewRoom("ABC123", OptionHostIsX)

	// Then: the room state should correspond to the expected initial state
	assert.Equal(t, "ABC123", room.Code)
	assert.Equal(t, [9]string{}, room.Board)
	assert.Equal(t, PlayerX, room.Turn)
	assert.Equal(t, StatusAwaitingGuest, room.Status)
	assert.Empty(t, room.Winner)
	assert.False(t, room.CreatedAt.IsZero())
}

func TestRoom_DetermineGameResult(t *testing.T) {
	t.Run("Row win", func(t *testing.T) {
		room := NewRoom("ABC123", OptionHostIsX)
		room.Board = [9]string{PlayerX, PlayerX, PlayerX, PlayerO, PlayerO, "", "", "", ""}

		assert.Equal(t, PlayerX, room.DetermineGameResult())
	})

	t.Run("Column win", func(t *testing.T) {
		room := NewRoom("ABC123", OptionHostIsX)
		room.Board = [9]string{PlayerO, PlayerX, "", PlayerO, PlayerX, "", PlayerO, "", ""}

		assert.Equal(t, PlayerO, room.DetermineGameResult())
	})

	t.Run("Diagonal win", func(t *testing.T) {
		room := NewRoom("ABC123", OptionHostIsX)
		room.Board = [9]string{PlayerX, PlayerO, "", PlayerO, PlayerX, "", "", "", PlayerX}

		assert.Equal(t, PlayerX, room.DetermineGameResult())
	})

	t.Run("Tie on a full board", func(t *testing.T) {
		room := NewRoom("ABC123", OptionHostIsX)
		room.Board = [9]string{
			PlayerX, PlayerX, PlayerO,
			PlayerO, PlayerO, PlayerX,
			PlayerX, PlayerO, PlayerX,
		}

		assert.Equal(t, PlayerTie, room.DetermineGameResult())
	})

	t.Run("Open game has no result", func(t *testing.T) {
		room := NewRoom("ABC123", OptionHostIsX)
		room.Board = [9]string{PlayerX, "", "", "", PlayerO, "", "", "", ""}

		assert.Empty(t, room.DetermineGameResult())
	})
}

func TestRoom_MarkOf(t *testing.T) {
	room := NewRoom("ABC123", OptionHostIsX)
	room.PlayerX = &Player{ID: "alice", Mark: PlayerX}
	room.PlayerO = &Player{ID: "bob", Mark: PlayerO}

	assert.Equal(t, PlayerX, room.MarkOf("alice"))
	assert.Equal(t, PlayerO, room.MarkOf("bob"))
	assert.Empty(t, room.MarkOf("mallory"))
}

func TestRoom_SoleOccupant(t *testing.T) {
	t.Run("Host alone on X", func(t *testing.T) {
		room := NewRoom("ABC123", OptionHostIsX)
		room.PlayerX = &Player{ID: "alice"}

		occupant := room.SoleOccupant()
		require.NotNil(t, occupant)
		assert.Equal(t, "alice", occupant.ID)
	})

	t.Run("Host alone on O", func(t *testing.T) {
		room := NewRoom("ABC123", OptionHostIsO)
		room.PlayerO = &Player{ID: "alice"}

		occupant := room.SoleOccupant()
		require.NotNil(t, occupant)
		assert.Equal(t, "alice", occupant.ID)
	})

	t.Run("Nobody when full", func(t *testing.T) {
		room := NewRoom("ABC123", OptionHostIsX)
		room.PlayerX = &Player{ID: "alice"}
		room.PlayerO = &Player{ID: "bob"}

		assert.Nil(t, room.SoleOccupant())
	})
}

func TestRoom_ReadyHandshake(t *testing.T) {
	room := NewRoom("ABC123", OptionHostIsX)

	assert.False(t, room.BothReady())

	room.SetReady(PlayerX)
	assert.True(t, room.IsReady(PlayerX))
	assert.False(t, room.BothReady())

	room.SetReady(PlayerO)
	assert.True(t, room.BothReady())
}

func TestRandomMarks(t *testing.T) {
	// the two marks must always be complementary
	for i := 0; i < 50; i++ {
		host, guest := RandomMarks()
		assert.NotEqual(t, host, guest)
		assert.Contains(t, []string{PlayerX, PlayerO}, host)
	}
}

func TestRoom_Clone(t *testing.T) {
	// Given: a room with both players seated
	room := NewRoom("ABC123", OptionHostIsX)
	room.PlayerX = &Player{ID: "alice", Mark: PlayerX}
	room.PlayerO = &Player{ID: "bob", Mark: PlayerO}

	// When: cloning and mutating the original
	clone := room.Clone()
	room.Board[0] = PlayerX
	room.PlayerX.ID = "changed"

	// Then: the clone stays detached
	assert.Equal(t, EmptyCell, clone.Board[0])
	assert.Equal(t, "alice", clone.PlayerX.ID)
}

func TestRoom_CheckInvariants(t *testing.T) {
	t.Run("Fresh room is consistent", func(t *testing.T) {
		room := NewRoom("ABC123", OptionHostIsX)
		assert.True(t, room.CheckInvariants())
	})

	t.Run("Garbage cell value", func(t *testing.T) {
		room := NewRoom("ABC123", OptionHostIsX)
		room.Board[3] = "Z"

		assert.False(t, room.CheckInvariants())
	})

	t.Run("Running game without a turn holder", func(t *testing.T) {
		room := NewRoom("ABC123", OptionHostIsX)
		room.Status = StatusInProgress
		room.Turn = ""

		assert.False(t, room.CheckInvariants())
	})

	t.Run("Same identity on both roles", func(t *testing.T) {
		room := NewRoom("ABC123", OptionHostIsX)
		room.PlayerX = &Player{ID: "alice"}
		room.PlayerO = &Player{ID: "alice"}

		assert.False(t, room.CheckInvariants())
	})
}
