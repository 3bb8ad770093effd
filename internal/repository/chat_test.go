package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rock-Lex/tictactoe-backend/internal/entity"
	"github.com/Rock-Lex/tictactoe-backend/testing/suite"
)

func TestChatRepository_Append(t *testing.T) {
	t.Run("Append and read back", func(t *testing.T) {
		ctx, st := suite.New(t)

		chatRepo := NewChatRepository(st.Storage)

		// Given: a message posted into a room
		message := &entity.ChatMessage{
			Sender:    "player-1",
			Text:      "good luck",
			Timestamp: time.Now().UTC().Truncate(time.Millisecond),
		}

		// When: Append is called
		err := chatRepo.Append(ctx, "ABC123", message, 50)
		require.NoError(t, err)

		// Then: the history holds the message
		history, err := chatRepo.History(ctx, "ABC123")
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, message.Sender, history[0].Sender)
		assert.Equal(t, message.Text, history[0].Text)
		assert.True(t, message.Timestamp.Equal(history[0].Timestamp))
	})

	t.Run("Capacity evicts the oldest messages", func(t *testing.T) {
		ctx, st := suite.New(t)

		chatRepo := NewChatRepository(st.Storage)

		// Given: more messages than the capacity
		for i := 1; i <= 5; i++ {
			message := &entity.ChatMessage{
				Sender:    "player-1",
				Text:      fmt.Sprintf("message %d", i),
				Timestamp: time.Now(),
			}
			require.NoError(t, chatRepo.Append(ctx, "ABC123", message, 3))
		}

		// When: the history is read back
		history, err := chatRepo.History(ctx, "ABC123")
		require.NoError(t, err)

		// Then: only the newest three remain, oldest first
		require.Len(t, history, 3)
		assert.Equal(t, "message 3", history[0].Text)
		assert.Equal(t, "message 5", history[2].Text)
	})
}

func TestChatRepository_History(t *testing.T) {
	t.Run("Empty history for an unknown room", func(t *testing.T) {
		ctx, st := suite.New(t)

		chatRepo := NewChatRepository(st.Storage)

		// When: reading a room nobody wrote into
		history, err := chatRepo.History(ctx, "NOPE42")

		// Then: no error, no messages
		require.NoError(t, err)
		assert.Empty(t, history)
	})
}

func TestChatRepository_DeleteByRoom(t *testing.T) {
	ctx, st := suite.New(t)

	chatRepo := NewChatRepository(st.Storage)

	// Given: a room with history
	message := &entity.ChatMessage{Sender: "player-1", Text: "bye", Timestamp: time.Now()}
	require.NoError(t, chatRepo.Append(ctx, "ABC123", message, 50))

	// When: the room history is deleted
	require.NoError(t, chatRepo.DeleteByRoom(ctx, "ABC123"))

	// Then: nothing remains
	history, err := chatRepo.History(ctx, "ABC123")
	require.NoError(t, err)
	assert.Empty(t, history)
}
