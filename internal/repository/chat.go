package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Rock-Lex/tictactoe-backend/internal/entity"
	"github.com/redis/go-redis/v9"
)

// chatHistoryTTL keeps abandoned room histories from living forever;
// an active room refreshes the TTL on every append.
const chatHistoryTTL = time.Hour

type ChatRepository interface {
	Append(ctx context.Context, roomCode string, message *entity.ChatMessage, capacity int) error
	History(ctx context.Context, roomCode string) ([]entity.ChatMessage, error)
	DeleteByRoom(ctx context.Context, roomCode string) error
}

type dbChat struct {
	client *redis.Client
}

func NewChatRepository(client *redis.Client) ChatRepository {
	return &dbChat{
		client: client,
	}
}

// Append - pushes a message onto the room's history list and trims the
// list to the last `capacity` entries, so the history behaves as a
// bounded ring with the oldest message evicted on overflow.
func (that *dbChat) Append(ctx context.Context, roomCode string, message *entity.ChatMessage, capacity int) error {
	messageJSON, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal chat message: %w", err)
	}

	chatKey := "chat:" + roomCode

	pipe := that.client.TxPipeline()
	pipe.RPush(ctx, chatKey, messageJSON)
	pipe.LTrim(ctx, chatKey, int64(-capacity), -1)
	pipe.Expire(ctx, chatKey, chatHistoryTTL)

	if _, err = pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append chat message: %w", err)
	}

	return nil
}

func (that *dbChat) History(ctx context.Context, roomCode string) ([]entity.ChatMessage, error) {
	chatKey := "chat:" + roomCode

	entries, err := that.client.LRange(ctx, chatKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read chat history: %w", err)
	}

	messages := make([]entity.ChatMessage, 0, len(entries))
	for _, entry := range entries {
		var message entity.ChatMessage
		if err = json.Unmarshal([]byte(entry), &message); err != nil {
			return nil, fmt.Errorf("failed to unmarshal chat message: %w", err)
		}
		messages = append(messages, message)
	}

	return messages, nil
}

func (that *dbChat) DeleteByRoom(ctx context.Context, roomCode string) error {
	chatKey := "chat:" + roomCode

	if err := that.client.Del(ctx, chatKey).Err(); err != nil {
		return fmt.Errorf("failed to delete chat history: %w", err)
	}

	return nil
}
