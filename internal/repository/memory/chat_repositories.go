package memory

import (
	"context"
	"time"

	"ai-tutoring-be/internal/entity"
	"ai-tutoring-be/internal/repository/contract"
	"ai-tutoring-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type chatSessionRepository struct {
	store *Store
}

func NewChatSessionRepository(store *Store) contract.ChatSessionRepository {
	return &chatSessionRepository{store: store}
}

func (r *chatSessionRepository) Create(ctx context.Context, session *entity.ChatSession) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.takeFailure("session.create"); err != nil {
		return err
	}
	if session.Id == uuid.Nil {
		session.Id = uuid.New()
	}
	now := time.Now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	if session.UpdatedAt.IsZero() {
		session.UpdatedAt = session.CreatedAt
	}
	r.store.sessions[session.Id] = copySession(session)
	return nil
}

func (r *chatSessionRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.takeFailure("session.updateFields"); err != nil {
		return err
	}
	e, ok := r.store.sessions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for field, value := range fields {
		switch field {
		case "title":
			e.Title, _ = value.(string)
		case "preview":
			e.Preview, _ = value.(string)
		case "language":
			e.Language, _ = value.(string)
		case "mode":
			e.Mode, _ = value.(string)
		case "is_hidden":
			e.IsHidden, _ = value.(bool)
		}
	}
	touchSession(e, time.Now())
	return nil
}

func (r *chatSessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.takeFailure("session.delete"); err != nil {
		return err
	}
	delete(r.store.sessions, id)
	// FK cascade
	for mid, m := range r.store.messages {
		if m.ChatSessionId == id {
			delete(r.store.messages, mid)
		}
	}
	return nil
}

func (r *chatSessionRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.takeFailure("session.findOne"); err != nil {
		return nil, err
	}
	for _, e := range r.store.sessions {
		if r.matchesAll(e, specs) {
			return copySession(e), nil
		}
	}
	return nil, nil
}

func (r *chatSessionRepository) FindOneWithMessages(ctx context.Context, id uuid.UUID) (*entity.ChatSession, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.takeFailure("session.findOne"); err != nil {
		return nil, err
	}
	e, ok := r.store.sessions[id]
	if !ok {
		return nil, nil
	}
	out := copySession(e)
	var msgs []*entity.ChatMessage
	for _, m := range r.store.messages {
		if m.ChatSessionId == id {
			msgs = append(msgs, copyMessage(m))
		}
	}
	sortMessages(msgs, &specification.OrderBy{Field: "created_at"})
	out.Messages = msgs
	return out, nil
}

func (r *chatSessionRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.takeFailure("session.findAll"); err != nil {
		return nil, err
	}
	filters, order, page := splitSpecs(specs)
	var out []*entity.ChatSession
	for _, e := range r.store.sessions {
		if r.matchesFilters(e, filters) {
			out = append(out, copySession(e))
		}
	}
	sortSessions(out, order)
	return paginateSessions(out, page), nil
}

func (r *chatSessionRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.takeFailure("session.count"); err != nil {
		return 0, err
	}
	filters, _, _ := splitSpecs(specs)
	var count int64
	for _, e := range r.store.sessions {
		if r.matchesFilters(e, filters) {
			count++
		}
	}
	return count, nil
}

func (r *chatSessionRepository) IncrementMessageCount(ctx context.Context, id uuid.UUID, delta int, at time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.takeFailure("session.incrementMessageCount"); err != nil {
		return err
	}
	e, ok := r.store.sessions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	e.MessageCount += delta
	if e.MessageCount < 0 {
		e.MessageCount = 0
	}
	touchSession(e, at)
	return nil
}

func (r *chatSessionRepository) matchesAll(e *entity.ChatSession, specs []specification.Specification) bool {
	filters, _, _ := splitSpecs(specs)
	return r.matchesFilters(e, filters)
}

func (r *chatSessionRepository) matchesFilters(e *entity.ChatSession, filters []specification.Specification) bool {
	for _, spec := range filters {
		if !r.store.sessionMatches(e, spec) {
			return false
		}
	}
	return true
}

type chatMessageRepository struct {
	store *Store
}

func NewChatMessageRepository(store *Store) contract.ChatMessageRepository {
	return &chatMessageRepository{store: store}
}

func (r *chatMessageRepository) Create(ctx context.Context, message *entity.ChatMessage) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.takeFailure("message.create"); err != nil {
		return err
	}
	if message.Id == uuid.Nil {
		message.Id = uuid.New()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	if message.UpdatedAt.IsZero() {
		message.UpdatedAt = message.CreatedAt
	}
	r.store.messages[message.Id] = copyMessage(message)
	return nil
}

func (r *chatMessageRepository) Update(ctx context.Context, id uuid.UUID, patch *entity.MessagePatch) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.takeFailure("message.update"); err != nil {
		return err
	}
	e, ok := r.store.messages[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if patch.Content != nil {
		e.Content = *patch.Content
	}
	if patch.Metadata != nil {
		e.Metadata = patch.Metadata
	}
	e.UpdatedAt = time.Now()
	return nil
}

func (r *chatMessageRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.takeFailure("message.delete"); err != nil {
		return false, err
	}
	if _, ok := r.store.messages[id]; !ok {
		return false, nil
	}
	delete(r.store.messages, id)
	return true, nil
}

func (r *chatMessageRepository) DeleteByIDs(ctx context.Context, sessionId uuid.UUID, ids []uuid.UUID) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.takeFailure("message.deleteByIDs"); err != nil {
		return 0, err
	}
	var deleted int64
	for _, id := range ids {
		m, ok := r.store.messages[id]
		if !ok || m.ChatSessionId != sessionId {
			continue
		}
		delete(r.store.messages, id)
		deleted++
	}
	return deleted, nil
}

func (r *chatMessageRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatMessage, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.takeFailure("message.findOne"); err != nil {
		return nil, err
	}
	filters, order, _ := splitSpecs(specs)
	var candidates []*entity.ChatMessage
	for _, e := range r.store.messages {
		if r.matchesFilters(e, filters) {
			candidates = append(candidates, copyMessage(e))
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sortMessages(candidates, order)
	return candidates[0], nil
}

func (r *chatMessageRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.takeFailure("message.findAll"); err != nil {
		return nil, err
	}
	filters, order, page := splitSpecs(specs)
	var out []*entity.ChatMessage
	for _, e := range r.store.messages {
		if r.matchesFilters(e, filters) {
			out = append(out, copyMessage(e))
		}
	}
	sortMessages(out, order)
	return paginateMessages(out, page), nil
}

func (r *chatMessageRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := r.store.takeFailure("message.count"); err != nil {
		return 0, err
	}
	filters, _, _ := splitSpecs(specs)
	var count int64
	for _, e := range r.store.messages {
		if r.matchesFilters(e, filters) {
			count++
		}
	}
	return count, nil
}

func (r *chatMessageRepository) matchesFilters(e *entity.ChatMessage, filters []specification.Specification) bool {
	for _, spec := range filters {
		if !r.store.messageMatches(e, spec) {
			return false
		}
	}
	return true
}
