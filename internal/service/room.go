package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/Rock-Lex/tictactoe-backend/internal/apperror"
	"github.com/Rock-Lex/tictactoe-backend/internal/config"
	"github.com/Rock-Lex/tictactoe-backend/internal/entity"
	"github.com/Rock-Lex/tictactoe-backend/internal/pkg"
)

const (
	FilterAll  = "all"
	FilterOpen = "open"
)

var ErrUnknownGameOption = errors.New("unknown game option")

// RoomPage is one page of room summaries.
type RoomPage struct {
	Items       []entity.Room `json:"items"`
	CurrentPage int           `json:"page"`
	TotalPages  int           `json:"totalPages"`
	HasNext     bool          `json:"hasNext"`
	HasPrevious bool          `json:"hasPrevious"`
}

type RoomService interface {
	Create(ctx context.Context, playerID, gameOption string) (entity.Room, error)
	CreateMatch(ctx context.Context, firstID, secondID string) (entity.Room, error)
	Join(ctx context.Context, code, playerID string) (entity.Room, error)
	Get(ctx context.Context, code string) (entity.Room, error)
	List(ctx context.Context, filter string, page int) (*RoomPage, error)
	Cancel(ctx context.Context, code, playerID string) error

	RunJanitor(ctx context.Context)
}

type playerRepo interface {
	CreateOrUpdate(ctx context.Context, player *entity.Player) error
	GetByID(ctx context.Context, id string) (*entity.Player, error)
}

type chatRepo interface {
	Append(ctx context.Context, roomCode string, message *entity.ChatMessage, capacity int) error
	History(ctx context.Context, roomCode string) ([]entity.ChatMessage, error)
	DeleteByRoom(ctx context.Context, roomCode string) error
}

type roomService struct {
	logger   *slog.Logger
	registry *Registry

	playerRepo playerRepo
	chatRepo   chatRepo
	conf       *config.Game
	notifier   Notifier
}

func NewRoomService(logger *slog.Logger, registry *Registry, playerRepo playerRepo, chatRepo chatRepo, conf *config.Game, notifier Notifier) RoomService {
	return &roomService{
		logger:     logger,
		registry:   registry,
		playerRepo: playerRepo,
		chatRepo:   chatRepo,
		conf:       conf,
		notifier:   notifier,
	}
}

// Create - generates a collision-free code and opens a room with the
// creator as sole occupant. A random game option stays unresolved until
// the guest joins, so neither client learns its role early.
func (that *roomService) Create(ctx context.Context, playerID, gameOption string) (entity.Room, error) {
	player, err := that.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		return entity.Room{}, fmt.Errorf("failed to get player by id: %w", err)
	}

	// A creator with a stale unfilled room abandons it before
	// opening a new one.
	if player.RoomCode != "" {
		that.abandonUnfilledRoom(ctx, player)
	}

	var mark string
	switch gameOption {
	case entity.OptionHostIsX:
		mark = entity.PlayerX
	case entity.OptionHostIsO:
		mark = entity.PlayerO
	case entity.OptionRandom:
		mark = ""
	default:
		return entity.Room{}, fmt.Errorf("%w: %q", ErrUnknownGameOption, gameOption)
	}

	player.Mark = mark

	// The host is seated before the session is published, so a reader
	// never observes a room without its creator.
	var room *entity.Room
	for {
		code := pkg.GenerateRoomCode()
		room = entity.NewRoom(code, gameOption)

		player.RoomCode = code
		if mark == entity.PlayerO {
			room.PlayerO = player
		} else {
			// deferred random assignment parks the host on X's slot
			// until join resolves the roles
			room.PlayerX = player
		}

		if that.registry.putIfAbsent(code, &roomSession{room: room}) {
			break
		}
	}

	if err = that.playerRepo.CreateOrUpdate(ctx, player); err != nil {
		that.registry.delete(room.Code)
		return entity.Room{}, fmt.Errorf("failed to update player: %w", err)
	}

	that.logger.Info("room created", "roomCode", room.Code, "gameOption", gameOption)

	return room.Clone(), nil
}

// CreateMatch - opens a room for a matched pair with both seats taken
// and roles resolved before the session is published, so the room is
// never observable in an open state.
func (that *roomService) CreateMatch(ctx context.Context, firstID, secondID string) (entity.Room, error) {
	first, err := that.playerRepo.GetByID(ctx, firstID)
	if err != nil {
		return entity.Room{}, fmt.Errorf("failed to get player by id: %w", err)
	}

	second, err := that.playerRepo.GetByID(ctx, secondID)
	if err != nil {
		return entity.Room{}, fmt.Errorf("failed to get player by id: %w", err)
	}

	for _, player := range []*entity.Player{first, second} {
		if player.RoomCode != "" {
			that.abandonUnfilledRoom(ctx, player)
		}
	}

	firstMark, secondMark := entity.RandomMarks()
	first.Mark, second.Mark = firstMark, secondMark

	var room *entity.Room
	for {
		code := pkg.GenerateRoomCode()
		room = entity.NewRoom(code, entity.OptionRandom)
		room.Status = entity.StatusAwaitingReady

		first.RoomCode, second.RoomCode = code, code
		if firstMark == entity.PlayerX {
			room.PlayerX, room.PlayerO = first, second
		} else {
			room.PlayerX, room.PlayerO = second, first
		}

		if that.registry.putIfAbsent(code, &roomSession{room: room}) {
			break
		}
	}

	if err = that.playerRepo.CreateOrUpdate(ctx, first); err != nil {
		that.registry.delete(room.Code)
		return entity.Room{}, fmt.Errorf("failed to update player: %w", err)
	}
	if err = that.playerRepo.CreateOrUpdate(ctx, second); err != nil {
		that.registry.delete(room.Code)
		return entity.Room{}, fmt.Errorf("failed to update player: %w", err)
	}

	that.logger.Info("match room created", "roomCode", room.Code, "players", []string{firstID, secondID})

	return room.Clone(), nil
}

// Join - fills the remaining role and advances the room to the ready
// handshake. A deferred random option is resolved here, exactly once.
func (that *roomService) Join(ctx context.Context, code, playerID string) (entity.Room, error) {
	session, ok := that.registry.get(pkg.NormalizeRoomCode(code))
	if !ok {
		return entity.Room{}, apperror.ErrRoomNotFound
	}

	player, err := that.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		return entity.Room{}, fmt.Errorf("failed to get player by id: %w", err)
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	room := session.room

	if room.MarkOf(playerID) != "" {
		return entity.Room{}, apperror.ErrAlreadyInRoom
	}

	if room.IsFull() || !room.IsAwaitingGuest() {
		return entity.Room{}, apperror.ErrRoomFull
	}

	host := room.SoleOccupant()

	hostMark := host.Mark
	if room.GameOption == entity.OptionRandom {
		hostMark, player.Mark = entity.RandomMarks()
	} else if room.PlayerX == nil {
		player.Mark = entity.PlayerX
	} else {
		player.Mark = entity.PlayerO
	}
	player.RoomCode = room.Code

	// Both identities are persisted before the room advances; a failed
	// write must leave the room open and joinable.
	persistedHost := *host
	persistedHost.Mark = hostMark
	if err = that.playerRepo.CreateOrUpdate(ctx, &persistedHost); err != nil {
		return entity.Room{}, fmt.Errorf("failed to update host: %w", err)
	}
	if err = that.playerRepo.CreateOrUpdate(ctx, player); err != nil {
		return entity.Room{}, fmt.Errorf("failed to update player: %w", err)
	}

	host.Mark = hostMark
	if hostMark == entity.PlayerX {
		room.PlayerX, room.PlayerO = host, player
	} else {
		room.PlayerX, room.PlayerO = player, host
	}

	room.Status = entity.StatusAwaitingReady

	clone := room.Clone()
	that.notifier.RoomSnapshot(clone)

	that.logger.Info("player joined room", "roomCode", room.Code, "playerID", playerID, "mark", player.Mark)

	return clone, nil
}

func (that *roomService) Get(_ context.Context, code string) (entity.Room, error) {
	session, ok := that.registry.get(pkg.NormalizeRoomCode(code))
	if !ok {
		return entity.Room{}, apperror.ErrRoomNotFound
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	return session.room.Clone(), nil
}

// List - read-only page over the live rooms, newest first.
func (that *roomService) List(_ context.Context, filter string, page int) (*RoomPage, error) {
	if page < 1 {
		page = 1
	}

	rooms := make([]entity.Room, 0)
	for _, session := range that.registry.all() {
		session.mu.Lock()
		clone := session.room.Clone()
		session.mu.Unlock()

		if filter == FilterOpen && clone.Status != entity.StatusAwaitingGuest {
			continue
		}
		rooms = append(rooms, clone)
	}

	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].CreatedAt.After(rooms[j].CreatedAt)
	})

	pageSize := that.conf.RoomPageSize
	totalPages := (len(rooms) + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if end > len(rooms) {
		end = len(rooms)
	}

	return &RoomPage{
		Items:       rooms[start:end],
		CurrentPage: page,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}, nil
}

// Cancel - removes the room. Allowed only while the room is still
// awaiting a guest and the requester is its sole occupant.
func (that *roomService) Cancel(ctx context.Context, code, playerID string) error {
	normalized := pkg.NormalizeRoomCode(code)

	session, ok := that.registry.get(normalized)
	if !ok {
		return apperror.ErrRoomNotFound
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	room := session.room

	occupant := room.SoleOccupant()
	if !room.IsAwaitingGuest() || occupant == nil || occupant.ID != playerID {
		return apperror.ErrCancelForbidden
	}

	that.registry.delete(normalized)
	that.releasePlayers(ctx, room)

	if err := that.chatRepo.DeleteByRoom(ctx, normalized); err != nil {
		that.logger.Error("failed to delete chat history", "roomCode", normalized, "error", err)
	}

	that.logger.Info("room cancelled", "roomCode", normalized)

	return nil
}

// RunJanitor - periodically evicts finished rooms past their grace
// period and unstarted rooms past their TTL. Blocks until ctx is done.
func (that *roomService) RunJanitor(ctx context.Context) {
	log := that.logger.With("component", "janitor")

	ticker := time.NewTicker(that.conf.JanitorInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("janitor stopped")
			return
		case <-ticker.C:
			that.sweep(ctx, log)
		}
	}
}

func (that *roomService) sweep(ctx context.Context, log *slog.Logger) {
	now := time.Now()

	for _, session := range that.registry.all() {
		session.mu.Lock()
		room := session.room

		evict := false
		switch {
		case room.IsFinished():
			evict = now.Sub(room.FinishedAt) > that.conf.FinishedGrace()
		case !room.IsInProgress():
			evict = now.Sub(room.CreatedAt) > that.conf.UnstartedRoomTTL()
		}

		if evict {
			session.stopClockLocked()
			that.registry.delete(room.Code)
			that.releasePlayers(ctx, room)

			if err := that.chatRepo.DeleteByRoom(ctx, room.Code); err != nil {
				log.Error("failed to delete chat history", "roomCode", room.Code, "error", err)
			}

			log.Info("room evicted", "roomCode", room.Code, "status", room.Status)
		}

		session.mu.Unlock()
	}
}

// releasePlayers - detaches the occupants' identities from the room so
// they can create or join another one.
func (that *roomService) releasePlayers(ctx context.Context, room *entity.Room) {
	for _, player := range []*entity.Player{room.PlayerX, room.PlayerO} {
		if player == nil || player.RoomCode != room.Code {
			continue
		}

		player.RoomCode = ""
		player.Mark = ""
		if err := that.playerRepo.CreateOrUpdate(ctx, player); err != nil {
			that.logger.Error("failed to update player", "playerID", player.ID, "error", err)
		}
	}
}

// abandonUnfilledRoom - cancels the creator's previous room if it never
// got a guest; a full or running room is left alone.
func (that *roomService) abandonUnfilledRoom(ctx context.Context, player *entity.Player) {
	session, ok := that.registry.get(player.RoomCode)
	if !ok {
		player.RoomCode = ""
		player.Mark = ""
		return
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	room := session.room
	occupant := room.SoleOccupant()
	if !room.IsAwaitingGuest() || occupant == nil || occupant.ID != player.ID {
		return
	}

	that.registry.delete(room.Code)
	player.RoomCode = ""
	player.Mark = ""

	if err := that.chatRepo.DeleteByRoom(ctx, room.Code); err != nil {
		that.logger.Error("failed to delete chat history", "roomCode", room.Code, "error", err)
	}

	that.logger.Info("abandoned unfilled room", "roomCode", room.Code, "playerID", player.ID)
}
