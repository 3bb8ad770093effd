package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/Rock-Lex/tictactoe-backend/internal/entity"
	"github.com/Rock-Lex/tictactoe-backend/internal/pkg"
	"github.com/Rock-Lex/tictactoe-backend/internal/repository"
	"github.com/Rock-Lex/tictactoe-backend/internal/service"
)

// GameUseCase is the facade both transports consume.
type GameUseCase interface {
	GetOrCreatePlayer(ctx context.Context, playerID string) (*entity.Player, error)

	CreateRoom(ctx context.Context, playerID, gameOption string) (entity.Room, error)
	JoinRoom(ctx context.Context, code, playerID string) (entity.Room, error)
	GetRoom(ctx context.Context, code string) (entity.Room, error)
	ListRooms(ctx context.Context, filter string, page int) (*service.RoomPage, error)
	CancelRoom(ctx context.Context, code, playerID string) error

	MarkReady(ctx context.Context, code, playerID string) (entity.Room, error)
	MakeTurn(ctx context.Context, code, playerID string, cell int) (entity.Room, error)
	Snapshot(ctx context.Context, code string) (entity.Room, error)

	PostChat(ctx context.Context, code, senderID, text string) (entity.ChatMessage, error)
	ChatHistory(ctx context.Context, code string) ([]entity.ChatMessage, error)

	EnqueueForMatch(ctx context.Context, playerID string) error
	LeaveMatchmaking(ctx context.Context, playerID string)
}

type playerRepo interface {
	CreateOrUpdate(ctx context.Context, player *entity.Player) error
	GetByID(ctx context.Context, id string) (*entity.Player, error)
}

type gameUseCase struct {
	playerRepo playerRepo

	roomService        service.RoomService
	gamePlayService    service.GamePlayService
	chatService        service.ChatService
	matchmakingService service.MatchmakingService
}

func NewGameUseCase(
	playerRepo playerRepo,
	roomService service.RoomService,
	gamePlayService service.GamePlayService,
	chatService service.ChatService,
	matchmakingService service.MatchmakingService,
) GameUseCase {
	return &gameUseCase{
		playerRepo:         playerRepo,
		roomService:        roomService,
		gamePlayService:    gamePlayService,
		chatService:        chatService,
		matchmakingService: matchmakingService,
	}
}

// GetOrCreatePlayer - resolves the session identity to a player record,
// minting one for a blank or unknown session.
func (that *gameUseCase) GetOrCreatePlayer(ctx context.Context, playerID string) (*entity.Player, error) {
	if playerID == "" {
		playerID = pkg.GenerateNewSessionID()
	}

	player, err := that.playerRepo.GetByID(ctx, playerID)
	if errors.Is(err, repository.ErrPlayerNotFound) {
		player = &entity.Player{ID: playerID}
		if err = that.playerRepo.CreateOrUpdate(ctx, player); err != nil {
			return nil, fmt.Errorf("failed to create player: %w", err)
		}

		return player, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get player by id: %w", err)
	}

	return player, nil
}

func (that *gameUseCase) CreateRoom(ctx context.Context, playerID, gameOption string) (entity.Room, error) {
	room, err := that.roomService.Create(ctx, playerID, gameOption)
	if err != nil {
		return entity.Room{}, fmt.Errorf("failed to create room: %w", err)
	}

	return room, nil
}

func (that *gameUseCase) JoinRoom(ctx context.Context, code, playerID string) (entity.Room, error) {
	room, err := that.roomService.Join(ctx, code, playerID)
	if err != nil {
		return entity.Room{}, fmt.Errorf("failed to join room: %w", err)
	}

	return room, nil
}

func (that *gameUseCase) GetRoom(ctx context.Context, code string) (entity.Room, error) {
	room, err := that.roomService.Get(ctx, code)
	if err != nil {
		return entity.Room{}, fmt.Errorf("failed to get room: %w", err)
	}

	return room, nil
}

func (that *gameUseCase) ListRooms(ctx context.Context, filter string, page int) (*service.RoomPage, error) {
	roomPage, err := that.roomService.List(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}

	return roomPage, nil
}

func (that *gameUseCase) CancelRoom(ctx context.Context, code, playerID string) error {
	if err := that.roomService.Cancel(ctx, code, playerID); err != nil {
		return fmt.Errorf("failed to cancel room: %w", err)
	}

	return nil
}

func (that *gameUseCase) MarkReady(ctx context.Context, code, playerID string) (entity.Room, error) {
	room, err := that.gamePlayService.MarkReady(ctx, code, playerID)
	if err != nil {
		return room, fmt.Errorf("failed to mark ready: %w", err)
	}

	return room, nil
}

func (that *gameUseCase) MakeTurn(ctx context.Context, code, playerID string, cell int) (entity.Room, error) {
	room, err := that.gamePlayService.MakeTurn(ctx, code, playerID, cell)
	if err != nil {
		return room, fmt.Errorf("failed to make turn: %w", err)
	}

	return room, nil
}

func (that *gameUseCase) Snapshot(ctx context.Context, code string) (entity.Room, error) {
	room, err := that.gamePlayService.Snapshot(ctx, code)
	if err != nil {
		return entity.Room{}, fmt.Errorf("failed to get snapshot: %w", err)
	}

	return room, nil
}

func (that *gameUseCase) PostChat(ctx context.Context, code, senderID, text string) (entity.ChatMessage, error) {
	message, err := that.chatService.Post(ctx, code, senderID, text)
	if err != nil {
		return entity.ChatMessage{}, fmt.Errorf("failed to post chat message: %w", err)
	}

	return message, nil
}

func (that *gameUseCase) ChatHistory(ctx context.Context, code string) ([]entity.ChatMessage, error) {
	messages, err := that.chatService.History(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get chat history: %w", err)
	}

	return messages, nil
}

func (that *gameUseCase) EnqueueForMatch(ctx context.Context, playerID string) error {
	if err := that.matchmakingService.Enqueue(ctx, playerID); err != nil {
		return fmt.Errorf("failed to enqueue player: %w", err)
	}

	return nil
}

func (that *gameUseCase) LeaveMatchmaking(ctx context.Context, playerID string) {
	that.matchmakingService.Leave(ctx, playerID)
}
