package tictactoe

import (
	"fmt"

	"github.com/Rock-Lex/tictactoe-backend/internal/apperror"
	"github.com/Rock-Lex/tictactoe-backend/internal/entity"
)

// MakeTurn - applies one validated move to the room board. It owns move
// validation and win/draw detection only; the turn deadline is managed
// by the caller holding the room lock.
func MakeTurn(room *entity.Room, player string, cell int) error {
	if room.IsFinished() {
		return apperror.ErrGameFinished
	}

	if !room.IsInProgress() {
		return apperror.ErrGameIsNotStarted
	}

	if err := validateMove(room, player, cell); err != nil {
		return fmt.Errorf("invalid turn: %w", err)
	}

	room.Board[cell] = player
	updateGameStatus(room, player)

	return nil
}

// validateMove - checks if the move is valid.
func validateMove(room *entity.Room, playerTurn string, cell int) error {
	if cell < 0 || cell >= len(room.Board) {
		return apperror.ErrInvalidCell
	}

	if room.Turn != playerTurn {
		return apperror.ErrNotYourTurn
	}

	if room.Board[cell] != entity.EmptyCell {
		return apperror.ErrCellOccupied
	}

	return nil
}

// updateGameStatus - checks the game status after a move.
func updateGameStatus(room *entity.Room, player string) {
	switch winner := room.DetermineGameResult(); winner {
	case entity.PlayerX, entity.PlayerO:
		room.Winner = winner
		room.Status = entity.StatusFinished
		room.Turn = ""
	case entity.PlayerTie:
		room.Winner = entity.PlayerTie
		room.Status = entity.StatusFinished
		room.Turn = ""
	default:
		room.Turn = entity.ToggleMark(player)
	}
}
