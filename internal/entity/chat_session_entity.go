package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChatSession struct {
	Id           uuid.UUID
	UserId       uuid.UUID
	Title        string
	Preview      string
	Language     string
	Mode         string
	MessageCount int
	IsHidden     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Populated only when messages were explicitly requested.
	Messages []*ChatMessage
}
