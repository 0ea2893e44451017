package specification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByUserID struct {
	UserID uuid.UUID
}

func (s ByUserID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}

type ByChatSessionID struct {
	ChatSessionID uuid.UUID
}

func (s ByChatSessionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chat_session_id = ?", s.ChatSessionID)
}

type ByChatSessionIDs struct {
	ChatSessionIDs []uuid.UUID
}

func (s ByChatSessionIDs) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("chat_session_id IN ?", s.ChatSessionIDs)
}

type ByMessageType struct {
	Type string
}

func (s ByMessageType) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("type = ?", s.Type)
}

// NotHidden excludes soft-deleted (hidden) sessions from listing and search.
type NotHidden struct{}

func (s NotHidden) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_hidden = ?", false)
}

// UpdatedSince keeps sessions touched at or after the cutoff.
type UpdatedSince struct {
	Cutoff time.Time
}

func (s UpdatedSince) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("updated_at >= ?", s.Cutoff)
}

// SessionTextSearch matches a session when the query occurs case-insensitively
// in its title, its preview, or the content of any of its messages.
type SessionTextSearch struct {
	Query string
}

func (s SessionTextSearch) Apply(db *gorm.DB) *gorm.DB {
	pattern := "%" + escapeLike(s.Query) + "%"
	return db.Where(
		"title ILIKE ? OR preview ILIKE ? OR EXISTS (SELECT 1 FROM chat_messages m WHERE m.chat_session_id = chat_sessions.id AND m.content ILIKE ?)",
		pattern, pattern, pattern,
	)
}

// MessageContentSearch matches messages whose content contains the query,
// case-insensitive.
type MessageContentSearch struct {
	Query string
}

func (s MessageContentSearch) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("content ILIKE ?", "%"+escapeLike(s.Query)+"%")
}

// MessageOwnedByUser restricts messages to sessions owned by the user.
type MessageOwnedByUser struct {
	UserID uuid.UUID
}

func (s MessageOwnedByUser) Apply(db *gorm.DB) *gorm.DB {
	return db.Where(
		"chat_session_id IN (SELECT id FROM chat_sessions WHERE user_id = ?)",
		s.UserID,
	)
}

// HasCommandVariant keeps sessions having at least one user message containing
// any of the given localized command keywords.
type HasCommandVariant struct {
	Variants []string
}

func (s HasCommandVariant) Apply(db *gorm.DB) *gorm.DB {
	if len(s.Variants) == 0 {
		return db
	}
	sub := "SELECT 1 FROM chat_messages m WHERE m.chat_session_id = chat_sessions.id AND m.type = 'user' AND ("
	args := make([]interface{}, 0, len(s.Variants))
	for i, v := range s.Variants {
		if i > 0 {
			sub += " OR "
		}
		sub += "m.content ILIKE ?"
		args = append(args, "%"+escapeLike(v)+"%")
	}
	sub += ")"
	return db.Where("EXISTS ("+sub+")", args...)
}
