package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ChatMessage struct {
	Id            uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ChatSessionId uuid.UUID      `gorm:"type:uuid;not null;index:idx_session_created"`
	Type          string         `gorm:"type:varchar(20);not null"` // user | assistant
	Content       string         `gorm:"type:text;not null"`
	Metadata      datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt     time.Time      `gorm:"autoCreateTime;index:idx_session_created"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
