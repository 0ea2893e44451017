package contract

import (
	"context"
	"time"

	"ai-tutoring-be/internal/entity"
	"ai-tutoring-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ChatSessionRepository interface {
	Create(ctx context.Context, session *entity.ChatSession) error
	// UpdateFields applies a partial column update and bumps updated_at.
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	// Delete hard-deletes the session; messages cascade via the FK.
	Delete(ctx context.Context, id uuid.UUID) error
	// FindOne returns nil, nil when no row matches.
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error)
	// FindOneWithMessages preloads the session's messages ordered by creation time.
	FindOneWithMessages(ctx context.Context, id uuid.UUID) (*entity.ChatSession, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// IncrementMessageCount adjusts the denormalized counter by delta and bumps
	// updated_at. Must run inside the same transaction as the message mutation.
	IncrementMessageCount(ctx context.Context, id uuid.UUID, delta int, at time.Time) error
}
