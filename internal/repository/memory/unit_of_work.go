package memory

import (
	"context"
	"fmt"

	"ai-tutoring-be/internal/entity"
	"ai-tutoring-be/internal/repository/contract"
	"ai-tutoring-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// UnitOfWork implements transactional semantics over the in-memory store by
// snapshotting on Begin and restoring on Rollback.
type UnitOfWork struct {
	store *Store

	inTx        bool
	bakSessions map[uuid.UUID]*entity.ChatSession
	bakMessages map[uuid.UUID]*entity.ChatMessage
}

func NewUnitOfWork(store *Store) unitofwork.UnitOfWork {
	return &UnitOfWork{store: store}
}

func (u *UnitOfWork) Begin(ctx context.Context) error {
	if u.inTx {
		return fmt.Errorf("transaction already started")
	}
	u.store.mu.Lock()
	u.bakSessions, u.bakMessages = u.store.snapshot()
	u.store.mu.Unlock()
	u.inTx = true
	return nil
}

func (u *UnitOfWork) Commit() error {
	if !u.inTx {
		return fmt.Errorf("no transaction to commit")
	}
	u.inTx = false
	u.bakSessions, u.bakMessages = nil, nil
	return nil
}

func (u *UnitOfWork) Rollback() error {
	if !u.inTx {
		return fmt.Errorf("no transaction to rollback")
	}
	u.store.mu.Lock()
	u.store.restore(u.bakSessions, u.bakMessages)
	u.store.mu.Unlock()
	u.inTx = false
	u.bakSessions, u.bakMessages = nil, nil
	return nil
}

func (u *UnitOfWork) ChatSessionRepository() contract.ChatSessionRepository {
	return NewChatSessionRepository(u.store)
}

func (u *UnitOfWork) ChatMessageRepository() contract.ChatMessageRepository {
	return NewChatMessageRepository(u.store)
}

type RepositoryFactory struct {
	store *Store
}

func NewRepositoryFactory(store *Store) unitofwork.RepositoryFactory {
	return &RepositoryFactory{store: store}
}

func (f *RepositoryFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return NewUnitOfWork(f.store)
}
