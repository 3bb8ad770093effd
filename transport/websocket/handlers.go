package websocket

import (
	"context"
	"errors"
	"fmt"

	"github.com/Rock-Lex/tictactoe-backend/internal/apperror"
	"github.com/Rock-Lex/tictactoe-backend/internal/service"
)

func (that *Server) handleReady(ctx context.Context, client *Client, _ *Message) error {
	log := that.logger.With("method", "handleReady", "roomCode", client.roomCode, "playerID", client.playerID)

	if _, err := that.gameUC.MarkReady(ctx, client.roomCode, client.playerID); err != nil {
		if errors.Is(err, apperror.ErrRoomNotFound) {
			that.sendError(client, "room not found")
			return nil
		}

		if errors.Is(err, apperror.ErrWrongRole) {
			that.sendError(client, "you are not a player in this room")
			return nil
		}

		log.Error("failed to mark ready", "error", err)
		that.sendError(client, "failed to mark ready")

		return fmt.Errorf("failed to mark ready: %w", err)
	}

	log.Info("player marked ready")

	return nil
}

func (that *Server) handleMove(ctx context.Context, client *Client, msg *Message) error {
	log := that.logger.With("method", "handleMove", "roomCode", client.roomCode, "playerID", client.playerID)

	if msg.CellIndex == nil {
		that.sendError(client, "cellIndex is required")
		return nil
	}

	_, err := that.gameUC.MakeTurn(ctx, client.roomCode, client.playerID, *msg.CellIndex)
	if err == nil {
		log.Info("player made a turn", "cell", *msg.CellIndex)
		return nil
	}

	switch {
	case errors.Is(err, apperror.ErrRoomNotFound):
		that.sendError(client, "room not found")
	case errors.Is(err, apperror.ErrWrongRole):
		that.sendError(client, "you are not a player in this room")
	case errors.Is(err, apperror.ErrGameIsNotStarted):
		that.sendError(client, "game is not started yet")
	case errors.Is(err, apperror.ErrGameFinished):
		that.sendError(client, "game is already finished")
	case errors.Is(err, apperror.ErrNotYourTurn):
		that.sendError(client, "not your turn")
	case errors.Is(err, apperror.ErrInvalidCell):
		that.sendError(client, "cell index out of range")
	case errors.Is(err, apperror.ErrCellOccupied):
		that.sendError(client, "cell is already occupied")
	default:
		log.Error("failed to make turn", "error", err)
		that.sendError(client, "failed to make turn")

		return fmt.Errorf("failed to make turn: %w", err)
	}

	return nil
}

func (that *Server) handleChat(ctx context.Context, client *Client, msg *Message) error {
	log := that.logger.With("method", "handleChat", "roomCode", client.roomCode, "playerID", client.playerID)

	if _, err := that.gameUC.PostChat(ctx, client.roomCode, client.playerID, msg.Text); err != nil {
		if errors.Is(err, apperror.ErrRoomNotFound) {
			that.sendError(client, "room not found")
			return nil
		}

		if errors.Is(err, service.ErrEmptyMessage) {
			that.sendError(client, "message is empty")
			return nil
		}

		log.Error("failed to post chat message", "error", err)
		that.sendError(client, "failed to post chat message")

		return fmt.Errorf("failed to post chat message: %w", err)
	}

	return nil
}

// handleResync replays the current state and chat history to the
// requesting connection only.
func (that *Server) handleResync(ctx context.Context, client *Client, _ *Message) error {
	that.sendSnapshot(ctx, client)
	that.sendChatHistory(ctx, client)

	return nil
}
