package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Rock-Lex/tictactoe-backend/internal/apperror"
	"github.com/Rock-Lex/tictactoe-backend/internal/config"
	"github.com/Rock-Lex/tictactoe-backend/internal/entity"
	"github.com/Rock-Lex/tictactoe-backend/internal/pkg"
	"github.com/Rock-Lex/tictactoe-backend/internal/tictactoe"
)

type GamePlayService interface {
	MarkReady(ctx context.Context, code, playerID string) (entity.Room, error)
	MakeTurn(ctx context.Context, code, playerID string, cell int) (entity.Room, error)
	Snapshot(ctx context.Context, code string) (entity.Room, error)
}

type gamePlayService struct {
	logger   *slog.Logger
	registry *Registry

	playerRepo playerRepo
	conf       *config.Game
	notifier   Notifier
}

func NewGamePlayService(logger *slog.Logger, registry *Registry, playerRepo playerRepo, conf *config.Game, notifier Notifier) GamePlayService {
	return &gamePlayService{
		logger:     logger,
		registry:   registry,
		playerRepo: playerRepo,
		conf:       conf,
		notifier:   notifier,
	}
}

// MarkReady - records a role's ready signal. A signal from an
// unoccupied role, an already-ready role, or outside the handshake
// phase is absorbed as a no-op. When both roles are ready the game
// starts: X to move, deadline armed.
func (that *gamePlayService) MarkReady(ctx context.Context, code, playerID string) (entity.Room, error) {
	session, ok := that.registry.get(pkg.NormalizeRoomCode(code))
	if !ok {
		return entity.Room{}, apperror.ErrRoomNotFound
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	room := session.room

	mark := room.MarkOf(playerID)
	if mark == "" || !room.IsAwaitingReady() || room.IsReady(mark) {
		return room.Clone(), nil
	}

	room.SetReady(mark)
	that.notifier.ReadyAck(room.Code, mark, true)

	if room.BothReady() {
		room.Status = entity.StatusInProgress
		room.Turn = entity.PlayerX
		deadline := time.Now().Add(that.conf.TurnTimeout())
		room.TurnDeadline = &deadline

		that.armTurnClock(session, room.Code)
		that.notifier.RoomSnapshot(room.Clone())

		that.logger.Info("game started", "roomCode", room.Code)
	}

	return room.Clone(), nil
}

// MakeTurn - applies a move for the identified player and settles the
// clock: cancelled on a terminal move, rearmed otherwise.
func (that *gamePlayService) MakeTurn(ctx context.Context, code, playerID string, cell int) (entity.Room, error) {
	session, ok := that.registry.get(pkg.NormalizeRoomCode(code))
	if !ok {
		return entity.Room{}, apperror.ErrRoomNotFound
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	room := session.room

	if !room.CheckInvariants() {
		that.terminateLocked(ctx, session)
		return room.Clone(), apperror.ErrInvalidState
	}

	mark := room.MarkOf(playerID)
	if mark == "" {
		return room.Clone(), apperror.ErrWrongRole
	}

	if err := tictactoe.MakeTurn(room, mark, cell); err != nil {
		return room.Clone(), fmt.Errorf("failed to make turn: %w", err)
	}

	if room.IsFinished() {
		that.finishLocked(ctx, session)
		that.logger.Info("game finished", "roomCode", room.Code, "winner", room.Winner)
		return room.Clone(), nil
	}

	deadline := time.Now().Add(that.conf.TurnTimeout())
	room.TurnDeadline = &deadline
	that.armTurnClock(session, room.Code)

	that.notifier.RoomSnapshot(room.Clone())

	return room.Clone(), nil
}

// Snapshot - full authoritative room state, used for attach and resync.
func (that *gamePlayService) Snapshot(_ context.Context, code string) (entity.Room, error) {
	session, ok := that.registry.get(pkg.NormalizeRoomCode(code))
	if !ok {
		return entity.Room{}, apperror.ErrRoomNotFound
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	return session.room.Clone(), nil
}

// armTurnClock - (re)arms the countdown for the room while the session
// lock is held. Any previously scheduled expiry is invalidated by the
// generation bump.
func (that *gamePlayService) armTurnClock(session *roomSession, code string) {
	session.stopClockLocked()

	generation := session.clockGen
	session.clock = time.AfterFunc(that.conf.TurnTimeout(), func() {
		that.onTurnExpiry(code, generation)
	})
}

// onTurnExpiry - forfeits the role that held the turn at expiry. The
// generation check under the room lock makes the race against a
// concurrently accepted move a strict either/or: a stale expiry is a
// no-op.
func (that *gamePlayService) onTurnExpiry(code string, generation uint64) {
	session, ok := that.registry.get(code)
	if !ok {
		return
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	room := session.room
	if generation != session.clockGen || !room.IsInProgress() {
		return
	}

	loser := room.Turn
	room.Winner = entity.ToggleMark(loser)
	room.Status = entity.StatusFinished
	room.Turn = ""

	that.finishLocked(context.Background(), session)

	that.logger.Info("turn expired, game forfeited",
		"roomCode", room.Code, "loser", loser, "winner", room.Winner)
}

// finishLocked - common terminal bookkeeping: clock off, deadline
// cleared, occupants released, channels notified.
func (that *gamePlayService) finishLocked(ctx context.Context, session *roomSession) {
	room := session.room

	session.stopClockLocked()
	room.TurnDeadline = nil
	room.FinishedAt = time.Now()

	for _, player := range []*entity.Player{room.PlayerX, room.PlayerO} {
		if player == nil {
			continue
		}

		player.RoomCode = ""
		if err := that.playerRepo.CreateOrUpdate(ctx, player); err != nil {
			that.logger.Error("failed to update player", "playerID", player.ID, "error", err)
		}
		player.RoomCode = room.Code
	}

	that.notifier.GameFinished(room.Clone())
}

// terminateLocked - invariant-violation fallback: the single room is
// terminated without a winner, never the whole server.
func (that *gamePlayService) terminateLocked(ctx context.Context, session *roomSession) {
	room := session.room

	that.logger.Error("room state inconsistent, terminating room",
		"roomCode", room.Code, "status", room.Status, "turn", room.Turn)

	room.Status = entity.StatusFinished
	room.Winner = ""
	room.Turn = ""

	that.finishLocked(ctx, session)
}
