package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"ai-tutoring-be/internal/constant"
	"ai-tutoring-be/internal/dto"
	"ai-tutoring-be/internal/entity"
	"ai-tutoring-be/internal/pkg/apperror"
	"ai-tutoring-be/internal/pkg/logger"
	"ai-tutoring-be/internal/pkg/retry"
	"ai-tutoring-be/internal/repository/specification"
	"ai-tutoring-be/internal/repository/unitofwork"
	"ai-tutoring-be/internal/validation"
	"ai-tutoring-be/pkg/events"

	"github.com/google/uuid"
)

type IMessageService interface {
	// Add inserts the message and adjusts the session counter atomically.
	Add(ctx context.Context, sessionId, userId uuid.UUID, req *dto.AddMessageRequest) (*dto.MessageResponse, error)
	ListBySession(ctx context.Context, sessionId, userId uuid.UUID, req *dto.ListMessagesRequest) (*dto.SessionMessagesResponse, error)
	Update(ctx context.Context, id, userId uuid.UUID, req *dto.UpdateMessageRequest) (*dto.MessageResponse, error)
	Delete(ctx context.Context, id, userId uuid.UUID) (bool, error)
	BulkDelete(ctx context.Context, sessionId, userId uuid.UUID, req *dto.BulkDeleteMessagesRequest) (*dto.BulkDeleteMessagesResponse, error)
	Recent(ctx context.Context, userId uuid.UUID, limit int) ([]*dto.MessageResponse, error)
	Search(ctx context.Context, userId uuid.UUID, req *dto.SearchMessagesRequest) (*dto.SessionMessagesResponse, error)
	Stats(ctx context.Context, userId uuid.UUID) (*dto.MessageStatsResponse, error)
}

type messageService struct {
	uowFactory unitofwork.RepositoryFactory
	retryExec  *retry.Executor
	statsCache StatsCache
	publisher  *events.Publisher
	log        logger.ILogger
}

func NewMessageService(
	uowFactory unitofwork.RepositoryFactory,
	retryExec *retry.Executor,
	statsCache StatsCache,
	publisher *events.Publisher,
	log logger.ILogger,
) IMessageService {
	return &messageService{
		uowFactory: uowFactory,
		retryExec:  retryExec,
		statsCache: statsCache,
		publisher:  publisher,
		log:        log,
	}
}

func (s *messageService) Add(ctx context.Context, sessionId, userId uuid.UUID, req *dto.AddMessageRequest) (*dto.MessageResponse, error) {
	meta, ok := dto.MetadataFromMap(req.Metadata)
	if !ok {
		return nil, apperror.Validation("metadata", "metadata fields must have the expected types")
	}
	in, err := validation.NewMessage(req.Type, req.Content, meta)
	if err != nil {
		return nil, err
	}

	var (
		message *entity.ChatMessage
		ownerId uuid.UUID
	)
	err = s.retryExec.Do(ctx, "MESSAGE_CREATE", func(ctx context.Context) error {
		uow := s.uowFactory.NewUnitOfWork(ctx)

		session, err := resolveOwnedSession(ctx, uow.ChatSessionRepository(), sessionId, userId)
		if err != nil {
			return err
		}
		ownerId = session.UserId

		if err := uow.Begin(ctx); err != nil {
			return apperror.Operation("MESSAGE_CREATE_FAILED", "failed to start transaction", err)
		}
		defer uow.Rollback()

		now := time.Now()
		message = &entity.ChatMessage{
			Id:            uuid.New(),
			ChatSessionId: sessionId,
			Type:          in.Type,
			Content:       in.Content,
			Metadata:      in.Metadata,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := uow.ChatMessageRepository().Create(ctx, message); err != nil {
			return apperror.Operation("MESSAGE_CREATE_FAILED", "failed to insert message", err).
				WithDetail("sessionId", sessionId.String()).
				WithDetail("content", truncateForLog(in.Content))
		}
		if err := uow.ChatSessionRepository().IncrementMessageCount(ctx, sessionId, 1, now); err != nil {
			return apperror.Operation("MESSAGE_CREATE_FAILED", "failed to update session counter", err).
				WithDetail("sessionId", sessionId.String())
		}
		if err := uow.Commit(); err != nil {
			return apperror.Operation("MESSAGE_CREATE_FAILED", "failed to commit transaction", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.statsCache.Delete(ctx, messageStatsKey(ownerId), sessionStatsKey(ownerId))
	s.publish(ctx, events.TypeMessageAdded, map[string]interface{}{
		"session_id": sessionId,
		"message_id": message.Id,
		"user_id":    ownerId,
		"type":       message.Type,
	})
	return messageToResponse(message), nil
}

func (s *messageService) ListBySession(ctx context.Context, sessionId, userId uuid.UUID, req *dto.ListMessagesRequest) (*dto.SessionMessagesResponse, error) {
	if req.Type != "" && !constant.IsValidMessageType(req.Type) {
		return nil, apperror.Validation("type", "type must be one of: user, assistant")
	}
	// Out-of-range paging is clamped rather than rejected on this path.
	page := specification.PageRequest{
		Page:      req.Page,
		Limit:     req.Limit,
		SortOrder: req.SortOrder,
	}.Sanitize(constant.MaxMessagePageLimit, 50)

	var (
		messages   []*entity.ChatMessage
		totalCount int64
	)
	err := s.retryExec.Do(ctx, "MESSAGE_LIST", func(ctx context.Context) error {
		uow := s.uowFactory.NewUnitOfWork(ctx)

		if _, err := resolveOwnedSession(ctx, uow.ChatSessionRepository(), sessionId, userId); err != nil {
			return err
		}

		specs := []specification.Specification{
			specification.ByChatSessionID{ChatSessionID: sessionId},
		}
		if req.Type != "" {
			specs = append(specs, specification.ByMessageType{Type: req.Type})
		}

		repo := uow.ChatMessageRepository()
		count, err := repo.Count(ctx, specs...)
		if err != nil {
			return apperror.Operation("MESSAGE_LIST_FAILED", "failed to count messages", err).
				WithDetail("sessionId", sessionId.String())
		}

		listSpecs := append(specs,
			specification.BuildOrder(page, "created_at", false),
			specification.BuildPagination(page),
		)
		found, err := repo.FindAll(ctx, listSpecs...)
		if err != nil {
			return apperror.Operation("MESSAGE_LIST_FAILED", "failed to list messages", err).
				WithDetail("sessionId", sessionId.String())
		}

		messages = found
		totalCount = count
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]*dto.MessageResponse, len(messages))
	for i, m := range messages {
		out[i] = messageToResponse(m)
	}
	return &dto.SessionMessagesResponse{
		Messages:   out,
		Pagination: dto.NewPagination(page.Page, page.Limit, totalCount),
	}, nil
}

func (s *messageService) Update(ctx context.Context, id, userId uuid.UUID, req *dto.UpdateMessageRequest) (*dto.MessageResponse, error) {
	var meta *entity.MessageMetadata
	if req.Metadata != nil {
		m, ok := dto.MetadataFromMap(req.Metadata)
		if !ok {
			return nil, apperror.Validation("metadata", "metadata fields must have the expected types")
		}
		meta = m
	}
	patch := &entity.MessagePatch{Content: req.Content, Metadata: meta}
	if err := validation.MessagePatch(patch); err != nil {
		return nil, err
	}

	var message *entity.ChatMessage
	err := s.retryExec.Do(ctx, "MESSAGE_UPDATE", func(ctx context.Context) error {
		uow := s.uowFactory.NewUnitOfWork(ctx)
		repo := uow.ChatMessageRepository()

		found, err := repo.FindOne(ctx, specification.ByID{ID: id})
		if err != nil {
			return apperror.Operation("MESSAGE_UPDATE_FAILED", "failed to load message", err).
				WithDetail("messageId", id.String())
		}
		if found == nil {
			return apperror.NotFound("message")
		}
		// Ownership is checked through the parent session, never the message row.
		if _, err := resolveOwnedSession(ctx, uow.ChatSessionRepository(), found.ChatSessionId, userId); err != nil {
			return err
		}

		if err := repo.Update(ctx, id, patch); err != nil {
			return apperror.Operation("MESSAGE_UPDATE_FAILED", "failed to update message", err).
				WithDetail("messageId", id.String())
		}
		updated, err := repo.FindOne(ctx, specification.ByID{ID: id})
		if err != nil {
			return apperror.Operation("MESSAGE_UPDATE_FAILED", "failed to reload message", err).
				WithDetail("messageId", id.String())
		}
		if updated == nil {
			return apperror.NotFound("message")
		}
		message = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return messageToResponse(message), nil
}

func (s *messageService) Delete(ctx context.Context, id, userId uuid.UUID) (bool, error) {
	var (
		deleted bool
		ownerId uuid.UUID
		session uuid.UUID
	)
	err := s.retryExec.Do(ctx, "MESSAGE_DELETE", func(ctx context.Context) error {
		uow := s.uowFactory.NewUnitOfWork(ctx)

		found, err := uow.ChatMessageRepository().FindOne(ctx, specification.ByID{ID: id})
		if err != nil {
			return apperror.Operation("MESSAGE_DELETE_FAILED", "failed to load message", err).
				WithDetail("messageId", id.String())
		}
		if found == nil {
			return apperror.NotFound("message")
		}
		owner, err := resolveOwnedSession(ctx, uow.ChatSessionRepository(), found.ChatSessionId, userId)
		if err != nil {
			return err
		}
		ownerId = owner.UserId
		session = found.ChatSessionId

		if err := uow.Begin(ctx); err != nil {
			return apperror.Operation("MESSAGE_DELETE_FAILED", "failed to start transaction", err)
		}
		defer uow.Rollback()

		removed, err := uow.ChatMessageRepository().Delete(ctx, id)
		if err != nil {
			return apperror.Operation("MESSAGE_DELETE_FAILED", "failed to delete message", err).
				WithDetail("messageId", id.String())
		}
		if removed {
			if err := uow.ChatSessionRepository().IncrementMessageCount(ctx, found.ChatSessionId, -1, time.Now()); err != nil {
				return apperror.Operation("MESSAGE_DELETE_FAILED", "failed to update session counter", err).
					WithDetail("sessionId", found.ChatSessionId.String())
			}
		}
		if err := uow.Commit(); err != nil {
			return apperror.Operation("MESSAGE_DELETE_FAILED", "failed to commit transaction", err)
		}
		deleted = removed
		return nil
	})
	if err != nil {
		return false, err
	}

	if deleted {
		s.statsCache.Delete(ctx, messageStatsKey(ownerId), sessionStatsKey(ownerId))
		s.publish(ctx, events.TypeMessageDeleted, map[string]interface{}{
			"session_id": session,
			"message_id": id,
			"user_id":    ownerId,
		})
	}
	return deleted, nil
}

func (s *messageService) BulkDelete(ctx context.Context, sessionId, userId uuid.UUID, req *dto.BulkDeleteMessagesRequest) (*dto.BulkDeleteMessagesResponse, error) {
	if len(req.Ids) == 0 {
		return nil, apperror.Validation("ids", "ids must not be empty")
	}
	if len(req.Ids) > constant.MaxBulkDeleteIDs {
		return nil, apperror.Validation("ids", "too many ids in one bulk delete")
	}

	var (
		deleted int64
		ownerId uuid.UUID
	)
	err := s.retryExec.Do(ctx, "MESSAGE_BULK_DELETE", func(ctx context.Context) error {
		uow := s.uowFactory.NewUnitOfWork(ctx)

		session, err := resolveOwnedSession(ctx, uow.ChatSessionRepository(), sessionId, userId)
		if err != nil {
			return err
		}
		ownerId = session.UserId

		if err := uow.Begin(ctx); err != nil {
			return apperror.Operation("MESSAGE_BULK_DELETE_FAILED", "failed to start transaction", err)
		}
		defer uow.Rollback()

		// The counter moves by the number of rows actually deleted, which may
		// be less than the number of ids requested.
		count, err := uow.ChatMessageRepository().DeleteByIDs(ctx, sessionId, req.Ids)
		if err != nil {
			return apperror.Operation("MESSAGE_BULK_DELETE_FAILED", "failed to delete messages", err).
				WithDetail("sessionId", sessionId.String())
		}
		if count > 0 {
			if err := uow.ChatSessionRepository().IncrementMessageCount(ctx, sessionId, -int(count), time.Now()); err != nil {
				return apperror.Operation("MESSAGE_BULK_DELETE_FAILED", "failed to update session counter", err).
					WithDetail("sessionId", sessionId.String())
			}
		}
		if err := uow.Commit(); err != nil {
			return apperror.Operation("MESSAGE_BULK_DELETE_FAILED", "failed to commit transaction", err)
		}
		deleted = count
		return nil
	})
	if err != nil {
		return nil, err
	}

	if deleted > 0 {
		s.statsCache.Delete(ctx, messageStatsKey(ownerId), sessionStatsKey(ownerId))
		s.publish(ctx, events.TypeMessageDeleted, map[string]interface{}{
			"session_id":    sessionId,
			"user_id":       ownerId,
			"deleted_count": deleted,
		})
	}
	return &dto.BulkDeleteMessagesResponse{DeletedCount: deleted}, nil
}

func (s *messageService) Recent(ctx context.Context, userId uuid.UUID, limit int) ([]*dto.MessageResponse, error) {
	if limit < 1 {
		limit = 20
	}
	if limit > constant.MaxRecentMessages {
		limit = constant.MaxRecentMessages
	}

	var messages []*entity.ChatMessage
	err := s.retryExec.Do(ctx, "MESSAGE_RECENT", func(ctx context.Context) error {
		uow := s.uowFactory.NewUnitOfWork(ctx)
		found, err := uow.ChatMessageRepository().FindAll(ctx,
			specification.MessageOwnedByUser{UserID: userId},
			specification.OrderBy{Field: "created_at", Desc: true},
			specification.Pagination{Limit: limit},
		)
		if err != nil {
			return apperror.Operation("MESSAGE_RECENT_FAILED", "failed to load recent messages", err).
				WithDetail("userId", userId.String())
		}
		messages = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]*dto.MessageResponse, len(messages))
	for i, m := range messages {
		out[i] = messageToResponse(m)
	}
	return out, nil
}

func (s *messageService) Search(ctx context.Context, userId uuid.UUID, req *dto.SearchMessagesRequest) (*dto.SessionMessagesResponse, error) {
	search := strings.TrimSpace(req.Search)
	if utf8.RuneCountInString(search) > constant.MaxSearchQueryLength {
		return nil, apperror.Validation("search", "search text exceeds maximum length")
	}
	page := specification.PageRequest{
		Page:      req.Page,
		Limit:     req.Limit,
		SortOrder: req.SortOrder,
	}
	if err := page.Validate(constant.MaxSearchPageLimit); err != nil {
		return nil, err
	}

	var (
		messages   []*entity.ChatMessage
		totalCount int64
	)
	err := s.retryExec.Do(ctx, "MESSAGE_SEARCH", func(ctx context.Context) error {
		uow := s.uowFactory.NewUnitOfWork(ctx)
		repo := uow.ChatMessageRepository()

		specs := []specification.Specification{
			specification.MessageOwnedByUser{UserID: userId},
		}
		if search != "" {
			specs = append(specs, specification.MessageContentSearch{Query: search})
		}

		count, err := repo.Count(ctx, specs...)
		if err != nil {
			return apperror.Operation("MESSAGE_SEARCH_FAILED", "failed to count messages", err)
		}
		listSpecs := append(specs,
			specification.BuildOrder(page, "created_at", true),
			specification.BuildPagination(page),
		)
		found, err := repo.FindAll(ctx, listSpecs...)
		if err != nil {
			return apperror.Operation("MESSAGE_SEARCH_FAILED", "failed to search messages", err)
		}

		messages = found
		totalCount = count
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]*dto.MessageResponse, len(messages))
	for i, m := range messages {
		out[i] = messageToResponse(m)
	}
	return &dto.SessionMessagesResponse{
		Messages:   out,
		Pagination: dto.NewPagination(page.Page, page.Limit, totalCount),
	}, nil
}

func (s *messageService) Stats(ctx context.Context, userId uuid.UUID) (*dto.MessageStatsResponse, error) {
	key := messageStatsKey(userId)
	if cached, ok := s.statsCache.Get(ctx, key); ok {
		var out dto.MessageStatsResponse
		if json.Unmarshal(cached, &out) == nil {
			return &out, nil
		}
	}

	var out dto.MessageStatsResponse
	err := s.retryExec.Do(ctx, "MESSAGE_STATS", func(ctx context.Context) error {
		uow := s.uowFactory.NewUnitOfWork(ctx)
		repo := uow.ChatMessageRepository()

		owned := specification.MessageOwnedByUser{UserID: userId}

		total, err := repo.Count(ctx, owned)
		if err != nil {
			return apperror.Operation("MESSAGE_STATS_FAILED", "failed to compute message stats", err)
		}
		userCount, err := repo.Count(ctx, owned,
			specification.ByMessageType{Type: constant.ChatMessageTypeUser})
		if err != nil {
			return apperror.Operation("MESSAGE_STATS_FAILED", "failed to compute message stats", err)
		}
		assistantCount, err := repo.Count(ctx, owned,
			specification.ByMessageType{Type: constant.ChatMessageTypeAssistant})
		if err != nil {
			return apperror.Operation("MESSAGE_STATS_FAILED", "failed to compute message stats", err)
		}
		last, err := repo.FindOne(ctx, owned,
			specification.OrderBy{Field: "created_at", Desc: true})
		if err != nil {
			return apperror.Operation("MESSAGE_STATS_FAILED", "failed to compute message stats", err)
		}

		out = dto.MessageStatsResponse{
			TotalMessages:     total,
			UserMessages:      userCount,
			AssistantMessages: assistantCount,
		}
		if last != nil {
			out.LastMessage = messageToResponse(last)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(out); err == nil {
		s.statsCache.Set(ctx, key, raw)
	}
	return &out, nil
}

func (s *messageService) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	evt := events.BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}
	if err := s.publisher.Publish(ctx, evt); err != nil && s.log != nil {
		s.log.Warn("MessageService", "failed to publish event", map[string]interface{}{
			"event": eventType,
			"error": err.Error(),
		})
	}
}
