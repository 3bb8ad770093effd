package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Rock-Lex/tictactoe-backend/internal/apperror"
	"github.com/Rock-Lex/tictactoe-backend/internal/config"
	"github.com/Rock-Lex/tictactoe-backend/internal/entity"
	"github.com/Rock-Lex/tictactoe-backend/internal/pkg"
)

var ErrEmptyMessage = errors.New("message text is empty")

type ChatService interface {
	Post(ctx context.Context, code, senderID, text string) (entity.ChatMessage, error)
	History(ctx context.Context, code string) ([]entity.ChatMessage, error)
}

type chatService struct {
	logger   *slog.Logger
	registry *Registry

	chatRepo chatRepo
	conf     *config.Game
	notifier Notifier
}

func NewChatService(logger *slog.Logger, registry *Registry, chatRepo chatRepo, conf *config.Game, notifier Notifier) ChatService {
	return &chatService{
		logger:   logger,
		registry: registry,
		chatRepo: chatRepo,
		conf:     conf,
		notifier: notifier,
	}
}

// Post - appends to the room's bounded history and fans the message out
// to every attached channel, game and observer alike.
func (that *chatService) Post(ctx context.Context, code, senderID, text string) (entity.ChatMessage, error) {
	normalized := pkg.NormalizeRoomCode(code)

	if _, ok := that.registry.get(normalized); !ok {
		return entity.ChatMessage{}, apperror.ErrRoomNotFound
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return entity.ChatMessage{}, ErrEmptyMessage
	}

	message := entity.ChatMessage{
		Sender:    senderID,
		Text:      text,
		Timestamp: time.Now(),
	}

	if err := that.chatRepo.Append(ctx, normalized, &message, that.conf.ChatHistorySize); err != nil {
		return entity.ChatMessage{}, fmt.Errorf("failed to store chat message: %w", err)
	}

	that.notifier.ChatMessage(normalized, message)

	return message, nil
}

func (that *chatService) History(ctx context.Context, code string) ([]entity.ChatMessage, error) {
	normalized := pkg.NormalizeRoomCode(code)

	if _, ok := that.registry.get(normalized); !ok {
		return nil, apperror.ErrRoomNotFound
	}

	messages, err := that.chatRepo.History(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}

	return messages, nil
}
