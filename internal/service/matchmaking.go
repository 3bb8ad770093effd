package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Rock-Lex/tictactoe-backend/internal/entity"
)

type MatchmakingService interface {
	Enqueue(ctx context.Context, playerID string) error
	Leave(ctx context.Context, playerID string)
	QueueLen() int
}

type queueEntry struct {
	playerID   string
	enqueuedAt time.Time
}

type roomCreator interface {
	CreateMatch(ctx context.Context, firstID, secondID string) (entity.Room, error)
}

type matchmakingService struct {
	logger   *slog.Logger
	rooms    roomCreator
	notifier Notifier

	mu      sync.Mutex
	queue   []queueEntry
	members map[string]struct{}
}

func NewMatchmakingService(logger *slog.Logger, rooms roomCreator, notifier Notifier) MatchmakingService {
	return &matchmakingService{
		logger:   logger,
		rooms:    rooms,
		notifier: notifier,
		members:  make(map[string]struct{}),
	}
}

// Enqueue - adds a waiting identity and pairs the two longest-waiting
// ones as soon as the queue holds at least two. A repeated enqueue for
// an identity already waiting is absorbed, not an error.
func (that *matchmakingService) Enqueue(ctx context.Context, playerID string) error {
	that.mu.Lock()

	if _, waiting := that.members[playerID]; waiting {
		that.mu.Unlock()
		return nil
	}

	that.members[playerID] = struct{}{}
	that.queue = append(that.queue, queueEntry{playerID: playerID, enqueuedAt: time.Now()})

	first, second, paired := that.dequeuePairLocked()
	that.mu.Unlock()

	if !paired {
		return nil
	}

	if err := that.createMatch(ctx, first, second); err != nil {
		return fmt.Errorf("failed to create match: %w", err)
	}

	return nil
}

// Leave - removes a waiting identity, e.g. on channel disconnect. A
// no-op for identities that are not waiting (already paired or never
// enqueued).
func (that *matchmakingService) Leave(_ context.Context, playerID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, waiting := that.members[playerID]; !waiting {
		return
	}

	delete(that.members, playerID)
	for i, entry := range that.queue {
		if entry.playerID == playerID {
			that.queue = append(that.queue[:i], that.queue[i+1:]...)
			break
		}
	}
}

func (that *matchmakingService) QueueLen() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.queue)
}

// dequeuePairLocked - atomically claims the two longest-waiting
// distinct identities. Distinctness holds because the member set
// admits each identity once.
func (that *matchmakingService) dequeuePairLocked() (string, string, bool) {
	if len(that.queue) < 2 {
		return "", "", false
	}

	first, second := that.queue[0], that.queue[1]
	that.queue = that.queue[2:]
	delete(that.members, first.playerID)
	delete(that.members, second.playerID)

	return first.playerID, second.playerID, true
}

// createMatch - opens a pre-seated room for the pair and notifies
// both. Roles resolve uniformly at random.
func (that *matchmakingService) createMatch(ctx context.Context, first, second string) error {
	log := that.logger.With("method", "createMatch")

	room, err := that.rooms.CreateMatch(ctx, first, second)
	if err != nil {
		that.requeue(first, second)
		return fmt.Errorf("failed to create room: %w", err)
	}

	that.notifier.MatchFound(first, room.Code)
	that.notifier.MatchFound(second, room.Code)

	log.Info("match created", "roomCode", room.Code, "players", []string{first, second})

	return nil
}

// requeue - puts identities back at the queue head after a failed
// pairing so they keep their waiting seniority.
func (that *matchmakingService) requeue(playerIDs ...string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	for i := len(playerIDs) - 1; i >= 0; i-- {
		playerID := playerIDs[i]
		if _, waiting := that.members[playerID]; waiting {
			continue
		}
		that.members[playerID] = struct{}{}
		that.queue = append([]queueEntry{{playerID: playerID, enqueuedAt: time.Now()}}, that.queue...)
	}
}
