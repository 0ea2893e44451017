package implementation

import (
	"context"
	"errors"

	"ai-tutoring-be/internal/entity"
	"ai-tutoring-be/internal/mapper"
	"ai-tutoring-be/internal/model"
	"ai-tutoring-be/internal/repository/contract"
	"ai-tutoring-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChatMessageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewChatMessageRepository(db *gorm.DB) contract.ChatMessageRepository {
	return &ChatMessageRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *ChatMessageRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ChatMessageRepositoryImpl) Create(ctx context.Context, message *entity.ChatMessage) error {
	m := r.mapper.MessageToModel(message)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*message = *r.mapper.MessageToEntity(m)
	return nil
}

func (r *ChatMessageRepositoryImpl) Update(ctx context.Context, id uuid.UUID, patch *entity.MessagePatch) error {
	fields := map[string]interface{}{}
	if patch.Content != nil {
		fields["content"] = *patch.Content
	}
	if patch.Metadata != nil {
		fields["metadata"] = mapper.MetadataToJSON(patch.Metadata)
	}
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&model.ChatMessage{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *ChatMessageRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&model.ChatMessage{}, "id = ?", id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *ChatMessageRepositoryImpl) DeleteByIDs(ctx context.Context, sessionId uuid.UUID, ids []uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("chat_session_id = ? AND id IN ?", sessionId, ids).
		Delete(&model.ChatMessage{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *ChatMessageRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatMessage, error) {
	var m model.ChatMessage
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.MessageToEntity(&m), nil
}

func (r *ChatMessageRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	var models []*model.ChatMessage
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.MessagesToEntities(models), nil
}

func (r *ChatMessageRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.ChatMessage{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
