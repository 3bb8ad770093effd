package apperror

import "errors"

var (
	// ErrRoomNotFound - the room code does not resolve to a live room.
	ErrRoomNotFound = errors.New("room not found")

	ErrRoomFull         = errors.New("room is already full")
	ErrNotYourTurn      = errors.New("it's not your turn")
	ErrWrongRole        = errors.New("player does not hold a role in this room")
	ErrCancelForbidden  = errors.New("only an unfilled room can be cancelled by its sole occupant")
	ErrGameIsNotStarted = errors.New("game is not started")
	ErrGameFinished     = errors.New("game is already finished")

	ErrCellOccupied  = errors.New("cell is already occupied")
	ErrInvalidCell   = errors.New("invalid cell index")
	ErrAlreadyInRoom = errors.New("player already occupies a role in this room")

	// ErrInvalidState - the room state no longer satisfies its own
	// invariants. The room is terminated, never the server.
	ErrInvalidState = errors.New("room state is inconsistent")
)
