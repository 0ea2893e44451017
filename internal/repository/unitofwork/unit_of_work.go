package unitofwork

import (
	"context"

	"ai-tutoring-be/internal/repository/contract"
)

// UnitOfWork scopes repository access to a single transaction. Counter-affecting
// message mutations must Begin/Commit so the message row and the session's
// denormalized count change atomically.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ChatSessionRepository() contract.ChatSessionRepository
	ChatMessageRepository() contract.ChatMessageRepository
}

type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
}
