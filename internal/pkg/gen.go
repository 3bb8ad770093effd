package pkg

import (
	"math/rand"
	"strings"

	"github.com/google/uuid"
)

// Room codes are short, human-shareable and case-insensitive. The
// charset intentionally carries both letters and digits.
const (
	roomCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	RoomCodeLength  = 6
)

// GenerateRoomCode - returns a fixed-length uppercase alphanumeric
// code. Uniqueness is the registry's concern, not this function's.
func GenerateRoomCode() string {
	code := make([]byte, RoomCodeLength)
	for i := range code {
		code[i] = roomCodeCharset[rand.Intn(len(roomCodeCharset))] //nolint: gosec // it's ok
	}
	return string(code)
}

// NormalizeRoomCode - room codes compare case-insensitively.
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// GenerateNewSessionID - session identity for the user_session cookie.
func GenerateNewSessionID() string {
	return uuid.NewString()
}
