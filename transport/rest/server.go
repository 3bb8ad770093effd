package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

func Start(ctx context.Context, port string, h Handlers) error {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", h.PingHandler)

	mux.HandleFunc("POST /rooms", h.CreateRoomHandler)
	mux.HandleFunc("POST /rooms/{code}/join", h.JoinRoomHandler)
	mux.HandleFunc("GET /rooms", h.ListRoomsHandler)
	mux.HandleFunc("GET /rooms/{code}", h.GetRoomHandler)
	mux.HandleFunc("DELETE /rooms/{code}", h.CancelRoomHandler)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
