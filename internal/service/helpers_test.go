package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Rock-Lex/tictactoe-backend/internal/config"
	"github.com/Rock-Lex/tictactoe-backend/internal/entity"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testGameConfig() *config.Game {
	return &config.Game{
		TurnTimeoutSeconds:    30,
		FinishedGraceSeconds:  60,
		UnstartedRoomTTLHours: 12,
		JanitorIntervalSecs:   60,
		ChatHistorySize:       50,
		RoomPageSize:          10,
	}
}

type fakePlayerRepo struct {
	mu         sync.Mutex
	players    map[string]entity.Player
	updateErrs map[string]error
}

func newFakePlayerRepo() *fakePlayerRepo {
	return &fakePlayerRepo{
		players:    make(map[string]entity.Player),
		updateErrs: make(map[string]error),
	}
}

// failUpdates makes CreateOrUpdate fail for one identity; a nil err
// clears the injection.
func (that *fakePlayerRepo) failUpdates(id string, err error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err == nil {
		delete(that.updateErrs, id)
		return
	}
	that.updateErrs[id] = err
}

func (that *fakePlayerRepo) CreateOrUpdate(_ context.Context, player *entity.Player) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err, ok := that.updateErrs[player.ID]; ok {
		return err
	}

	that.players[player.ID] = *player

	return nil
}

func (that *fakePlayerRepo) GetByID(_ context.Context, id string) (*entity.Player, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	player, ok := that.players[id]
	if !ok {
		return &entity.Player{}, errors.New("player not found")
	}

	return &player, nil
}

type fakeChatRepo struct {
	mu       sync.Mutex
	messages map[string][]entity.ChatMessage
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{messages: make(map[string][]entity.ChatMessage)}
}

func (that *fakeChatRepo) Append(_ context.Context, roomCode string, message *entity.ChatMessage, capacity int) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	history := append(that.messages[roomCode], *message)
	if len(history) > capacity {
		history = history[len(history)-capacity:]
	}
	that.messages[roomCode] = history

	return nil
}

func (that *fakeChatRepo) History(_ context.Context, roomCode string) ([]entity.ChatMessage, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	return append([]entity.ChatMessage(nil), that.messages[roomCode]...), nil
}

func (that *fakeChatRepo) DeleteByRoom(_ context.Context, roomCode string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.messages, roomCode)

	return nil
}

type readyAckRecord struct {
	roomCode string
	role     string
	value    bool
}

type matchRecord struct {
	playerID string
	roomCode string
}

// recordingNotifier captures every notification for assertions.
type recordingNotifier struct {
	mu sync.Mutex

	snapshots []entity.Room
	readyAcks []readyAckRecord
	finished  []entity.Room
	chats     []entity.ChatMessage
	matches   []matchRecord
}

func (that *recordingNotifier) RoomSnapshot(room entity.Room) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.snapshots = append(that.snapshots, room)
}

func (that *recordingNotifier) ReadyAck(roomCode, role string, value bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.readyAcks = append(that.readyAcks, readyAckRecord{roomCode: roomCode, role: role, value: value})
}

func (that *recordingNotifier) GameFinished(room entity.Room) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.finished = append(that.finished, room)
}

func (that *recordingNotifier) ChatMessage(_ string, message entity.ChatMessage) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.chats = append(that.chats, message)
}

func (that *recordingNotifier) MatchFound(playerID, roomCode string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.matches = append(that.matches, matchRecord{playerID: playerID, roomCode: roomCode})
}

func (that *recordingNotifier) finishedRooms() []entity.Room {
	that.mu.Lock()
	defer that.mu.Unlock()

	return append([]entity.Room(nil), that.finished...)
}

func (that *recordingNotifier) matchRecords() []matchRecord {
	that.mu.Lock()
	defer that.mu.Unlock()

	return append([]matchRecord(nil), that.matches...)
}

type fixture struct {
	registry *Registry
	players  *fakePlayerRepo
	chats    *fakeChatRepo
	notifier *recordingNotifier

	rooms    RoomService
	gamePlay GamePlayService
	chat     ChatService
}

func newFixture(conf *config.Game) *fixture {
	registry := NewRegistry()
	players := newFakePlayerRepo()
	chats := newFakeChatRepo()
	notifier := &recordingNotifier{}
	logger := testLogger()

	return &fixture{
		registry: registry,
		players:  players,
		chats:    chats,
		notifier: notifier,
		rooms:    NewRoomService(logger, registry, players, chats, conf, notifier),
		gamePlay: NewGamePlayService(logger, registry, players, conf, notifier),
		chat:     NewChatService(logger, registry, chats, conf, notifier),
	}
}

func (that *fixture) addPlayer(t *testing.T, id string) {
	t.Helper()

	err := that.players.CreateOrUpdate(context.Background(), &entity.Player{ID: id})
	require.NoError(t, err)
}

// startGame drives a two-player room to in_progress and returns it.
func (that *fixture) startGame(t *testing.T, hostID, guestID, gameOption string) entity.Room {
	t.Helper()

	ctx := context.Background()

	that.addPlayer(t, hostID)
	that.addPlayer(t, guestID)

	room, err := that.rooms.Create(ctx, hostID, gameOption)
	require.NoError(t, err)

	_, err = that.rooms.Join(ctx, room.Code, guestID)
	require.NoError(t, err)

	_, err = that.gamePlay.MarkReady(ctx, room.Code, hostID)
	require.NoError(t, err)

	started, err := that.gamePlay.MarkReady(ctx, room.Code, guestID)
	require.NoError(t, err)
	require.Equal(t, entity.StatusInProgress, started.Status)

	return started
}
