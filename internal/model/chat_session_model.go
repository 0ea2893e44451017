package model

import (
	"time"

	"github.com/google/uuid"
)

type ChatSession struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId       uuid.UUID `gorm:"type:uuid;not null;index"` // User ownership for data isolation
	Title        string    `gorm:"type:varchar(500);not null"`
	Preview      string    `gorm:"type:varchar(150);not null;default:''"`
	Language     string    `gorm:"type:varchar(10);not null;default:'en'"`
	Mode         string    `gorm:"type:varchar(20);not null;default:'fun'"`
	MessageCount int       `gorm:"not null;default:0"` // Denormalized; kept in sync transactionally
	IsHidden     bool      `gorm:"not null;default:false;index"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`

	Messages []ChatMessage `gorm:"foreignKey:ChatSessionId;constraint:OnDelete:CASCADE"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}
