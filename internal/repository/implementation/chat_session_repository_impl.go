package implementation

import (
	"context"
	"errors"
	"time"

	"ai-tutoring-be/internal/entity"
	"ai-tutoring-be/internal/mapper"
	"ai-tutoring-be/internal/model"
	"ai-tutoring-be/internal/repository/contract"
	"ai-tutoring-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChatSessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewChatSessionRepository(db *gorm.DB) contract.ChatSessionRepository {
	return &ChatSessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *ChatSessionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ChatSessionRepositoryImpl) Create(ctx context.Context, session *entity.ChatSession) error {
	m := r.mapper.SessionToModel(session)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.SessionToEntity(m)
	return nil
}

func (r *ChatSessionRepositoryImpl) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&model.ChatSession{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *ChatSessionRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.ChatSession{}, "id = ?", id).Error
}

func (r *ChatSessionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	var m model.ChatSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.SessionToEntity(&m), nil
}

func (r *ChatSessionRepositoryImpl) FindOneWithMessages(ctx context.Context, id uuid.UUID) (*entity.ChatSession, error) {
	var m model.ChatSession
	err := r.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&m, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.SessionToEntity(&m), nil
}

func (r *ChatSessionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error) {
	var models []*model.ChatSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.ChatSession, len(models))
	for i, m := range models {
		entities[i] = r.mapper.SessionToEntity(m)
	}
	return entities, nil
}

func (r *ChatSessionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.ChatSession{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ChatSessionRepositoryImpl) IncrementMessageCount(ctx context.Context, id uuid.UUID, delta int, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.ChatSession{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"message_count": gorm.Expr("GREATEST(message_count + ?, 0)", delta),
			"updated_at":    at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
