package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Rock-Lex/tictactoe-backend/internal/config"
	"github.com/Rock-Lex/tictactoe-backend/internal/repository"
	"github.com/Rock-Lex/tictactoe-backend/internal/repository/storage"
	"github.com/Rock-Lex/tictactoe-backend/internal/service"
	"github.com/Rock-Lex/tictactoe-backend/internal/usecase"
	"github.com/Rock-Lex/tictactoe-backend/transport/rest"
	"github.com/Rock-Lex/tictactoe-backend/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	redisAddrString := conf.Redis.GetRedisAddr()
	if redisAddrString == "" {
		return ErrAddrNotFound
	}

	redisStorage, err := storage.New(ctx, redisAddrString)
	if err != nil {
		return fmt.Errorf("could not connect to redis storage: %w", err)
	}

	defer func() {
		if err = redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}()

	playerRepo := repository.NewPlayerRepository(redisStorage.Connection)
	chatRepo := repository.NewChatRepository(redisStorage.Connection)

	hub := websocket.NewHub(logger)
	registry := service.NewRegistry()

	roomService := service.NewRoomService(logger, registry, playerRepo, chatRepo, &conf.Game, hub)
	gamePlayService := service.NewGamePlayService(logger, registry, playerRepo, &conf.Game, hub)
	chatService := service.NewChatService(logger, registry, chatRepo, &conf.Game, hub)
	matchmakingService := service.NewMatchmakingService(logger, roomService, hub)

	gameUseCase := usecase.NewGameUseCase(playerRepo, roomService, gamePlayService, chatService, matchmakingService)

	go roomService.RunJanitor(ctx)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		restHandlers := rest.NewHandlers(logger, gameUseCase)
		if httpErr := rest.Start(ctx, conf.HTTPPort, restHandlers); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		wsServer := websocket.New(logger, gameUseCase, hub)
		if wsErr := wsServer.Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}
