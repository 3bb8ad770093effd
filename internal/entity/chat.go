package entity

import "time"

// ChatMessage is scoped to one room; only a bounded history is kept.
type ChatMessage struct {
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}
