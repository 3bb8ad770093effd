package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Rock-Lex/tictactoe-backend/internal/apperror"
	"github.com/Rock-Lex/tictactoe-backend/internal/entity"
	"github.com/Rock-Lex/tictactoe-backend/internal/pkg"
	"github.com/Rock-Lex/tictactoe-backend/internal/service"
)

const sessionCookieName = "user_session"

type gameUseCase interface {
	GetOrCreatePlayer(ctx context.Context, playerID string) (*entity.Player, error)

	MarkReady(ctx context.Context, code, playerID string) (entity.Room, error)
	MakeTurn(ctx context.Context, code, playerID string, cell int) (entity.Room, error)
	Snapshot(ctx context.Context, code string) (entity.Room, error)

	PostChat(ctx context.Context, code, senderID, text string) (entity.ChatMessage, error)
	ChatHistory(ctx context.Context, code string) ([]entity.ChatMessage, error)

	EnqueueForMatch(ctx context.Context, playerID string) error
	LeaveMatchmaking(ctx context.Context, playerID string)
}

type Server struct {
	logger   *slog.Logger
	gameUC   gameUseCase
	hub      *Hub
	upgrader websocket.Upgrader

	handlers map[string]func(ctx context.Context, client *Client, msg *Message) error
}

func New(logger *slog.Logger, gameUC gameUseCase, hub *Hub) *Server {
	server := &Server{
		logger: logger,
		gameUC: gameUC,
		hub:    hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},

		handlers: make(map[string]func(context.Context, *Client, *Message) error),
	}

	server.handlers[messageReady] = server.handleReady
	server.handlers[messageMove] = server.handleMove
	server.handlers[messageChat] = server.handleChat
	server.handlers[messageResync] = server.handleResync

	return server
}

// Start - starts WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/room/{code}", func(w http.ResponseWriter, r *http.Request) {
		that.serveRoom(ctx, w, r)
	})
	mux.HandleFunc("GET /ws/matchmaking", func(w http.ResponseWriter, r *http.Request) {
		that.serveMatchmaking(ctx, w, r)
	})

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

// serveRoom upgrades the connection and binds it to a room channel.
func (that *Server) serveRoom(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "serveRoom")

	code := pkg.NormalizeRoomCode(req.PathValue("code"))

	if _, err := that.gameUC.Snapshot(ctx, code); err != nil {
		http.Error(writer, "room not found", http.StatusNotFound)
		return
	}

	playerID, header := that.resolveSession(req)

	player, err := that.gameUC.GetOrCreatePlayer(ctx, playerID)
	if err != nil {
		log.Error("failed to resolve player", "error", err)
		http.Error(writer, "failed to resolve player", http.StatusInternalServerError)

		return
	}

	conn, err := that.upgrader.Upgrade(writer, req, header)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	client := newClient(that.logger, conn, player.ID, code)

	that.hub.Attach(client)
	go client.writePump()

	log.Info("room connection established", "roomCode", code, "playerID", player.ID)

	// late joiners and reconnects start from the current state
	that.sendSnapshot(ctx, client)
	that.sendChatHistory(ctx, client)

	that.readLoop(ctx, client)

	that.hub.Detach(client)
	close(client.send)
}

// serveMatchmaking upgrades the connection and binds it to the queue.
func (that *Server) serveMatchmaking(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "serveMatchmaking")

	playerID, header := that.resolveSession(req)

	player, err := that.gameUC.GetOrCreatePlayer(ctx, playerID)
	if err != nil {
		log.Error("failed to resolve player", "error", err)
		http.Error(writer, "failed to resolve player", http.StatusInternalServerError)

		return
	}

	conn, err := that.upgrader.Upgrade(writer, req, header)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	client := newClient(that.logger, conn, player.ID, "")

	that.hub.AttachQueue(client)
	go client.writePump()

	log.Info("matchmaking connection established", "playerID", player.ID)

	that.readQueueLoop(ctx, client)

	that.gameUC.LeaveMatchmaking(ctx, client.playerID)
	that.hub.DetachQueue(client)
	close(client.send)
}

// readLoop processes frames from a room connection until it closes.
func (that *Server) readLoop(ctx context.Context, client *Client) {
	log := that.logger.With("method", "readLoop", "roomCode", client.roomCode, "playerID", client.playerID)

	that.setupRead(client)

	for {
		_, raw, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Error("connection closed unexpectedly", "error", err)
			}

			return
		}

		var msg Message
		if err = json.Unmarshal(raw, &msg); err != nil {
			that.sendError(client, "malformed message")
			continue
		}

		handler, ok := that.handlers[msg.Type]
		if !ok {
			that.sendError(client, fmt.Sprintf("unknown message type %q", msg.Type))
			continue
		}

		if err = handler(ctx, client, &msg); err != nil {
			log.Error("failed to process message", "type", msg.Type, "error", err)
		}
	}
}

// readQueueLoop processes frames from a matchmaking connection.
func (that *Server) readQueueLoop(ctx context.Context, client *Client) {
	log := that.logger.With("method", "readQueueLoop", "playerID", client.playerID)

	that.setupRead(client)

	for {
		_, raw, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Error("connection closed unexpectedly", "error", err)
			}

			return
		}

		var msg Message
		if err = json.Unmarshal(raw, &msg); err != nil {
			that.sendError(client, "malformed message")
			continue
		}

		if msg.Type != messageEnqueue {
			that.sendError(client, fmt.Sprintf("unknown message type %q", msg.Type))
			continue
		}

		if err = that.gameUC.EnqueueForMatch(ctx, client.playerID); err != nil {
			log.Error("failed to enqueue player", "error", err)
			that.sendError(client, "failed to join matchmaking")
		}
	}
}

func (that *Server) setupRead(client *Client) {
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
}

// resolveSession reads the session cookie, minting one when absent. The
// returned header carries the Set-Cookie for the upgrade response.
func (that *Server) resolveSession(req *http.Request) (string, http.Header) {
	cookie, err := req.Cookie(sessionCookieName)
	if err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	fresh := &http.Cookie{
		Name:    sessionCookieName,
		Value:   pkg.GenerateNewSessionID(),
		Expires: time.Now().Add(24 * time.Hour),
		Path:    "/",
	}

	header := http.Header{}
	header.Add("Set-Cookie", fresh.String())

	that.logger.Info("session cookie not found, new one created", "cookie", fresh.Value)

	return fresh.Value, header
}

func (that *Server) sendSnapshot(ctx context.Context, client *Client) {
	room, err := that.gameUC.Snapshot(ctx, client.roomCode)
	if err != nil {
		if !errors.Is(err, apperror.ErrRoomNotFound) {
			that.logger.Error("failed to get snapshot", "roomCode", client.roomCode, "error", err)
		}

		that.sendError(client, "room not found")

		return
	}

	that.sendEvent(client, newSnapshotEvent(room))
}

func (that *Server) sendChatHistory(ctx context.Context, client *Client) {
	messages, err := that.gameUC.ChatHistory(ctx, client.roomCode)
	if err != nil {
		that.logger.Error("failed to get chat history", "roomCode", client.roomCode, "error", err)
		return
	}

	for _, message := range messages {
		that.sendEvent(client, chatEvent{
			Type:      eventChat,
			Sender:    message.Sender,
			Text:      message.Text,
			Timestamp: message.Timestamp,
		})
	}
}

func (that *Server) sendEvent(client *Client, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		that.logger.Error("failed to marshal event", "error", err)
		return
	}

	client.enqueue(payload)
}

// sendError delivers an error frame to the offending connection only.
func (that *Server) sendError(client *Client, text string) {
	that.sendEvent(client, errorEvent{Type: eventError, Error: text})
}

var _ service.Notifier = (*Hub)(nil)
