// Package memory provides map-backed implementations of the repository
// contracts. They interpret the same specifications the GORM repositories
// apply, support transactional rollback via snapshots, and can inject
// failures per operation, which makes the service layer's atomicity and
// retry behavior testable without postgres.
package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"ai-tutoring-be/internal/constant"
	"ai-tutoring-be/internal/entity"
	"ai-tutoring-be/internal/repository/specification"

	"github.com/google/uuid"
)

type Store struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*entity.ChatSession
	messages map[uuid.UUID]*entity.ChatMessage

	failures map[string][]error // op -> queued errors, consumed FIFO
}

func NewStore() *Store {
	return &Store{
		sessions: map[uuid.UUID]*entity.ChatSession{},
		messages: map[uuid.UUID]*entity.ChatMessage{},
		failures: map[string][]error{},
	}
}

// FailOnce queues err to be returned by the next call of the named operation.
// Queue multiple times to fail several consecutive attempts.
func (s *Store) FailOnce(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = append(s.failures[op], err)
}

func (s *Store) takeFailure(op string) error {
	queue := s.failures[op]
	if len(queue) == 0 {
		return nil
	}
	err := queue[0]
	s.failures[op] = queue[1:]
	return err
}

func (s *Store) snapshot() (map[uuid.UUID]*entity.ChatSession, map[uuid.UUID]*entity.ChatMessage) {
	sessions := make(map[uuid.UUID]*entity.ChatSession, len(s.sessions))
	for k, v := range s.sessions {
		c := *v
		sessions[k] = &c
	}
	messages := make(map[uuid.UUID]*entity.ChatMessage, len(s.messages))
	for k, v := range s.messages {
		c := *v
		messages[k] = &c
	}
	return sessions, messages
}

func (s *Store) restore(sessions map[uuid.UUID]*entity.ChatSession, messages map[uuid.UUID]*entity.ChatMessage) {
	s.sessions = sessions
	s.messages = messages
}

func copySession(e *entity.ChatSession) *entity.ChatSession {
	c := *e
	c.Messages = nil
	return &c
}

func copyMessage(e *entity.ChatMessage) *entity.ChatMessage {
	c := *e
	return &c
}

// sessionMatches interprets the specifications the SQL layer would apply.
func (s *Store) sessionMatches(e *entity.ChatSession, spec specification.Specification) bool {
	switch sp := spec.(type) {
	case specification.ByID:
		return e.Id == sp.ID
	case specification.ByIDs:
		for _, id := range sp.IDs {
			if e.Id == id {
				return true
			}
		}
		return false
	case specification.ByUserID:
		return e.UserId == sp.UserID
	case specification.NotHidden:
		return !e.IsHidden
	case specification.UpdatedSince:
		return !e.UpdatedAt.Before(sp.Cutoff)
	case specification.FilterBy:
		return s.sessionField(e, sp.Field) == sp.Value
	case specification.SessionTextSearch:
		q := strings.ToLower(sp.Query)
		if strings.Contains(strings.ToLower(e.Title), q) ||
			strings.Contains(strings.ToLower(e.Preview), q) {
			return true
		}
		for _, m := range s.messages {
			if m.ChatSessionId == e.Id && strings.Contains(strings.ToLower(m.Content), q) {
				return true
			}
		}
		return false
	case specification.HasCommandVariant:
		for _, m := range s.messages {
			if m.ChatSessionId != e.Id || m.Type != constant.ChatMessageTypeUser {
				continue
			}
			content := strings.ToLower(m.Content)
			for _, v := range sp.Variants {
				if strings.Contains(content, strings.ToLower(v)) {
					return true
				}
			}
		}
		return false
	case specification.OrderBy, specification.Pagination:
		return true
	default:
		return true
	}
}

func (s *Store) sessionField(e *entity.ChatSession, field string) interface{} {
	switch field {
	case "mode":
		return e.Mode
	case "language":
		return e.Language
	case "is_hidden":
		return e.IsHidden
	default:
		return nil
	}
}

func (s *Store) messageMatches(e *entity.ChatMessage, spec specification.Specification) bool {
	switch sp := spec.(type) {
	case specification.ByID:
		return e.Id == sp.ID
	case specification.ByIDs:
		for _, id := range sp.IDs {
			if e.Id == id {
				return true
			}
		}
		return false
	case specification.ByChatSessionID:
		return e.ChatSessionId == sp.ChatSessionID
	case specification.ByChatSessionIDs:
		for _, id := range sp.ChatSessionIDs {
			if e.ChatSessionId == id {
				return true
			}
		}
		return false
	case specification.ByMessageType:
		return e.Type == sp.Type
	case specification.MessageContentSearch:
		return strings.Contains(strings.ToLower(e.Content), strings.ToLower(sp.Query))
	case specification.MessageOwnedByUser:
		owner, ok := s.sessions[e.ChatSessionId]
		return ok && owner.UserId == sp.UserID
	case specification.OrderBy, specification.Pagination:
		return true
	default:
		return true
	}
}

func splitSpecs(specs []specification.Specification) (filters []specification.Specification, order *specification.OrderBy, page *specification.Pagination) {
	for _, spec := range specs {
		switch sp := spec.(type) {
		case specification.OrderBy:
			o := sp
			order = &o
		case specification.Pagination:
			p := sp
			page = &p
		default:
			filters = append(filters, spec)
		}
	}
	return
}

func sortSessions(items []*entity.ChatSession, order *specification.OrderBy) {
	if order == nil {
		return
	}
	less := func(a, b *entity.ChatSession) bool {
		switch order.Field {
		case "created_at":
			return a.CreatedAt.Before(b.CreatedAt)
		case "message_count":
			return a.MessageCount < b.MessageCount
		default: // updated_at
			return a.UpdatedAt.Before(b.UpdatedAt)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if order.Desc {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}

func sortMessages(items []*entity.ChatMessage, order *specification.OrderBy) {
	if order == nil {
		return
	}
	sort.SliceStable(items, func(i, j int) bool {
		if order.Desc {
			return items[j].CreatedAt.Before(items[i].CreatedAt)
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
}

func paginateSessions(items []*entity.ChatSession, page *specification.Pagination) []*entity.ChatSession {
	if page == nil {
		return items
	}
	if page.Offset >= len(items) {
		return nil
	}
	end := page.Offset + page.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[page.Offset:end]
}

func paginateMessages(items []*entity.ChatMessage, page *specification.Pagination) []*entity.ChatMessage {
	if page == nil {
		return items
	}
	if page.Offset >= len(items) {
		return nil
	}
	end := page.Offset + page.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[page.Offset:end]
}

// touchSession bumps updated_at, mirroring gorm's autoUpdateTime.
func touchSession(e *entity.ChatSession, at time.Time) {
	e.UpdatedAt = at
}
