package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Rock-Lex/tictactoe-backend/internal/apperror"
	"github.com/Rock-Lex/tictactoe-backend/internal/entity"
	"github.com/Rock-Lex/tictactoe-backend/internal/pkg"
	"github.com/Rock-Lex/tictactoe-backend/internal/service"
)

const sessionCookieName = "user_session"

type gameUseCase interface {
	GetOrCreatePlayer(ctx context.Context, playerID string) (*entity.Player, error)

	CreateRoom(ctx context.Context, playerID, gameOption string) (entity.Room, error)
	JoinRoom(ctx context.Context, code, playerID string) (entity.Room, error)
	GetRoom(ctx context.Context, code string) (entity.Room, error)
	ListRooms(ctx context.Context, filter string, page int) (*service.RoomPage, error)
	CancelRoom(ctx context.Context, code, playerID string) error
}

type Handlers interface {
	PingHandler(w http.ResponseWriter, r *http.Request)

	CreateRoomHandler(w http.ResponseWriter, r *http.Request)
	JoinRoomHandler(w http.ResponseWriter, r *http.Request)
	GetRoomHandler(w http.ResponseWriter, r *http.Request)
	ListRoomsHandler(w http.ResponseWriter, r *http.Request)
	CancelRoomHandler(w http.ResponseWriter, r *http.Request)
}

type handlers struct {
	logger *slog.Logger
	gameUC gameUseCase
}

func NewHandlers(logger *slog.Logger, gameUC gameUseCase) Handlers {
	return &handlers{
		logger: logger,
		gameUC: gameUC,
	}
}

func (that *handlers) PingHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}

type createRoomRequest struct {
	GameOption string `json:"gameOption"`
}

func (that *handlers) CreateRoomHandler(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "CreateRoomHandler")

	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	player, err := that.resolvePlayer(w, r)
	if err != nil {
		log.Error("failed to resolve player", "error", err)
		http.Error(w, "failed to resolve player", http.StatusInternalServerError)

		return
	}

	room, err := that.gameUC.CreateRoom(r.Context(), player.ID, req.GameOption)
	if err != nil {
		if errors.Is(err, service.ErrUnknownGameOption) {
			http.Error(w, "unknown game option", http.StatusBadRequest)
			return
		}

		log.Error("failed to create room", "error", err)
		http.Error(w, "failed to create room", http.StatusInternalServerError)

		return
	}

	log.Info("room created", "roomCode", room.Code, "playerID", player.ID)

	writeJSON(w, http.StatusCreated, room)
}

func (that *handlers) JoinRoomHandler(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "JoinRoomHandler")

	code := pkg.NormalizeRoomCode(r.PathValue("code"))

	player, err := that.resolvePlayer(w, r)
	if err != nil {
		log.Error("failed to resolve player", "error", err)
		http.Error(w, "failed to resolve player", http.StatusInternalServerError)

		return
	}

	room, err := that.gameUC.JoinRoom(r.Context(), code, player.ID)

	switch {
	case err == nil:
		log.Info("player joined room", "roomCode", code, "playerID", player.ID)
		writeJSON(w, http.StatusOK, room)
	case errors.Is(err, apperror.ErrRoomNotFound):
		http.Error(w, "room not found", http.StatusNotFound)
	case errors.Is(err, apperror.ErrRoomFull):
		http.Error(w, "room is already full", http.StatusForbidden)
	case errors.Is(err, apperror.ErrAlreadyInRoom):
		http.Error(w, "already in this room", http.StatusConflict)
	default:
		log.Error("failed to join room", "roomCode", code, "error", err)
		http.Error(w, "failed to join room", http.StatusInternalServerError)
	}
}

func (that *handlers) GetRoomHandler(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "GetRoomHandler")

	code := pkg.NormalizeRoomCode(r.PathValue("code"))

	room, err := that.gameUC.GetRoom(r.Context(), code)
	if err != nil {
		if errors.Is(err, apperror.ErrRoomNotFound) {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		log.Error("failed to get room", "roomCode", code, "error", err)
		http.Error(w, "failed to get room", http.StatusInternalServerError)

		return
	}

	writeJSON(w, http.StatusOK, room)
}

func (that *handlers) ListRoomsHandler(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "ListRoomsHandler")

	filter := r.URL.Query().Get("filter")
	if filter == "" {
		filter = service.FilterAll
	}

	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			http.Error(w, "invalid page number", http.StatusBadRequest)
			return
		}

		page = parsed
	}

	roomPage, err := that.gameUC.ListRooms(r.Context(), filter, page)
	if err != nil {
		log.Error("failed to list rooms", "error", err)
		http.Error(w, "failed to list rooms", http.StatusInternalServerError)

		return
	}

	writeJSON(w, http.StatusOK, roomPage)
}

func (that *handlers) CancelRoomHandler(w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "CancelRoomHandler")

	code := pkg.NormalizeRoomCode(r.PathValue("code"))

	player, err := that.resolvePlayer(w, r)
	if err != nil {
		log.Error("failed to resolve player", "error", err)
		http.Error(w, "failed to resolve player", http.StatusInternalServerError)

		return
	}

	err = that.gameUC.CancelRoom(r.Context(), code, player.ID)

	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, apperror.ErrRoomNotFound):
		http.Error(w, "room not found", http.StatusNotFound)
	case errors.Is(err, apperror.ErrCancelForbidden):
		http.Error(w, "room cannot be cancelled", http.StatusForbidden)
	default:
		log.Error("failed to cancel room", "roomCode", code, "error", err)
		http.Error(w, "failed to cancel room", http.StatusInternalServerError)
	}
}

// resolvePlayer reads the session cookie, minting a fresh one when absent.
func (that *handlers) resolvePlayer(w http.ResponseWriter, r *http.Request) (*entity.Player, error) {
	playerID := ""

	cookie, err := r.Cookie(sessionCookieName)
	if err == nil {
		playerID = cookie.Value
	}

	player, err := that.gameUC.GetOrCreatePlayer(r.Context(), playerID)
	if err != nil {
		return nil, err
	}

	if playerID == "" {
		http.SetCookie(w, &http.Cookie{
			Name:    sessionCookieName,
			Value:   player.ID,
			Expires: time.Now().Add(24 * time.Hour),
			Path:    "/",
		})
	}

	return player, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(payload)
}
