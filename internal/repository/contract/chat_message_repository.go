package contract

import (
	"context"

	"ai-tutoring-be/internal/entity"
	"ai-tutoring-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ChatMessageRepository interface {
	Create(ctx context.Context, message *entity.ChatMessage) error
	// Update applies a validated partial update (content / metadata only).
	Update(ctx context.Context, id uuid.UUID, patch *entity.MessagePatch) error
	// Delete reports whether a row was actually removed.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	// DeleteByIDs removes the matched subset of ids within one session and
	// returns the number of rows actually deleted.
	DeleteByIDs(ctx context.Context, sessionId uuid.UUID, ids []uuid.UUID) (int64, error)
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatMessage, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
