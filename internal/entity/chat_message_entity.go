package entity

import (
	"time"

	"github.com/google/uuid"
)

// MessageMetadata is the loosely-typed metadata bag attached to a message.
// Recognized keys are validated field by field; anything else passes through
// untouched in Extra.
type MessageMetadata struct {
	AudioUrl  string                 `json:"audioUrl,omitempty"`
	ImageUrl  string                 `json:"imageUrl,omitempty"`
	Language  string                 `json:"language,omitempty"`
	Timestamp string                 `json:"timestamp,omitempty"`
	Extra     map[string]interface{} `json:"-"`
}

func (m *MessageMetadata) IsEmpty() bool {
	return m == nil ||
		(m.AudioUrl == "" && m.ImageUrl == "" && m.Language == "" && m.Timestamp == "" && len(m.Extra) == 0)
}

type ChatMessage struct {
	Id            uuid.UUID
	ChatSessionId uuid.UUID
	Type          string
	Content       string
	Metadata      *MessageMetadata
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
