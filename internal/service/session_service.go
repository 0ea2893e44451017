package service

import (
	"context"
	"encoding/json"
	"time"

	"ai-tutoring-be/internal/constant"
	"ai-tutoring-be/internal/dto"
	"ai-tutoring-be/internal/entity"
	"ai-tutoring-be/internal/pkg/apperror"
	"ai-tutoring-be/internal/pkg/logger"
	"ai-tutoring-be/internal/pkg/retry"
	"ai-tutoring-be/internal/repository/specification"
	"ai-tutoring-be/internal/repository/unitofwork"
	"ai-tutoring-be/internal/validation"
	"ai-tutoring-be/pkg/enhance"
	"ai-tutoring-be/pkg/events"

	"github.com/google/uuid"
)

type ISessionService interface {
	Create(ctx context.Context, userId uuid.UUID, req *dto.CreateSessionRequest) (*dto.SessionResponse, error)
	// Get enforces ownership when userId is non-nil; uuid.Nil marks a trusted
	// service-to-service call.
	Get(ctx context.Context, id, userId uuid.UUID, includeMessages bool) (*dto.SessionResponse, error)
	Update(ctx context.Context, id, userId uuid.UUID, req *dto.UpdateSessionRequest) (*dto.SessionResponse, error)
	Delete(ctx context.Context, id, userId uuid.UUID) error
	Search(ctx context.Context, userId uuid.UUID, req *dto.SearchSessionsRequest) (*dto.SearchSessionsResponse, error)
	Stats(ctx context.Context, userId uuid.UUID) (*dto.SessionStatsResponse, error)
}

type sessionService struct {
	uowFactory unitofwork.RepositoryFactory
	retryExec  *retry.Executor
	enhancer   *enhance.Enhancer
	statsCache StatsCache
	publisher  *events.Publisher
	log        logger.ILogger
}

func NewSessionService(
	uowFactory unitofwork.RepositoryFactory,
	retryExec *retry.Executor,
	statsCache StatsCache,
	publisher *events.Publisher,
	log logger.ILogger,
) ISessionService {
	return &sessionService{
		uowFactory: uowFactory,
		retryExec:  retryExec,
		enhancer:   enhance.NewEnhancer(),
		statsCache: statsCache,
		publisher:  publisher,
		log:        log,
	}
}

func (s *sessionService) Create(ctx context.Context, userId uuid.UUID, req *dto.CreateSessionRequest) (*dto.SessionResponse, error) {
	in, err := validation.NewSession(req.Title, req.Mode, req.Language, req.Preview)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &entity.ChatSession{
		Id:           uuid.New(),
		UserId:       userId,
		Title:        in.Title,
		Preview:      in.Preview,
		Language:     in.Language,
		Mode:         in.Mode,
		MessageCount: 0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.retryExec.Do(ctx, "SESSION_CREATE", func(ctx context.Context) error {
		uow := s.uowFactory.NewUnitOfWork(ctx)
		if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
			return apperror.Operation("SESSION_CREATE_FAILED", "failed to create session", err).
				WithDetail("userId", userId.String())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.statsCache.Delete(ctx, sessionStatsKey(userId))
	s.publish(ctx, events.TypeSessionCreated, map[string]interface{}{
		"session_id": session.Id,
		"user_id":    userId,
		"title":      session.Title,
	})
	return sessionToResponse(session), nil
}

func (s *sessionService) Get(ctx context.Context, id, userId uuid.UUID, includeMessages bool) (*dto.SessionResponse, error) {
	var session *entity.ChatSession
	err := s.retryExec.Do(ctx, "SESSION_GET", func(ctx context.Context) error {
		uow := s.uowFactory.NewUnitOfWork(ctx)
		repo := uow.ChatSessionRepository()

		found, err := resolveOwnedSession(ctx, repo, id, userId)
		if err != nil {
			return err
		}
		if includeMessages {
			found, err = repo.FindOneWithMessages(ctx, id)
			if err != nil {
				return apperror.Operation("SESSION_GET_FAILED", "failed to load session messages", err).
					WithDetail("sessionId", id.String())
			}
			if found == nil {
				return apperror.NotFound("session")
			}
		}
		session = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sessionToResponse(session), nil
}

func (s *sessionService) Update(ctx context.Context, id, userId uuid.UUID, req *dto.UpdateSessionRequest) (*dto.SessionResponse, error) {
	patch := req.ToPatch()
	if err := validation.SessionPatch(patch); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if patch.Title != nil {
		fields["title"] = *patch.Title
	}
	if patch.Preview != nil {
		fields["preview"] = *patch.Preview
	}
	if patch.Language != nil {
		fields["language"] = *patch.Language
	}
	if patch.Mode != nil {
		fields["mode"] = *patch.Mode
	}
	if patch.IsHidden != nil {
		fields["is_hidden"] = *patch.IsHidden
	}

	var session *entity.ChatSession
	err := s.retryExec.Do(ctx, "SESSION_UPDATE", func(ctx context.Context) error {
		uow := s.uowFactory.NewUnitOfWork(ctx)
		repo := uow.ChatSessionRepository()

		if _, err := resolveOwnedSession(ctx, repo, id, userId); err != nil {
			return err
		}
		if err := repo.UpdateFields(ctx, id, fields); err != nil {
			return apperror.Operation("SESSION_UPDATE_FAILED", "failed to update session", err).
				WithDetail("sessionId", id.String())
		}
		updated, err := repo.FindOne(ctx, specification.ByID{ID: id})
		if err != nil {
			return apperror.Operation("SESSION_UPDATE_FAILED", "failed to reload session", err).
				WithDetail("sessionId", id.String())
		}
		if updated == nil {
			return apperror.NotFound("session")
		}
		session = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.statsCache.Delete(ctx, sessionStatsKey(userId))
	s.publish(ctx, events.TypeSessionUpdated, map[string]interface{}{
		"session_id": id,
		"user_id":    session.UserId,
	})
	return sessionToResponse(session), nil
}

func (s *sessionService) Delete(ctx context.Context, id, userId uuid.UUID) error {
	var ownerId uuid.UUID
	err := s.retryExec.Do(ctx, "SESSION_DELETE", func(ctx context.Context) error {
		uow := s.uowFactory.NewUnitOfWork(ctx)
		repo := uow.ChatSessionRepository()

		session, err := resolveOwnedSession(ctx, repo, id, userId)
		if err != nil {
			return err
		}
		ownerId = session.UserId
		// Messages cascade at the storage level.
		if err := repo.Delete(ctx, id); err != nil {
			return apperror.Operation("SESSION_DELETE_FAILED", "failed to delete session", err).
				WithDetail("sessionId", id.String())
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.statsCache.Delete(ctx, sessionStatsKey(ownerId), messageStatsKey(ownerId))
	s.publish(ctx, events.TypeSessionDeleted, map[string]interface{}{
		"session_id": id,
		"user_id":    ownerId,
	})
	return nil
}

func (s *sessionService) Search(ctx context.Context, userId uuid.UUID, req *dto.SearchSessionsRequest) (*dto.SearchSessionsResponse, error) {
	filter := specification.SessionFilter{
		Search:       req.Search,
		DateRange:    req.DateRange,
		CommandTypes: req.CommandTypes,
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	page := specification.PageRequest{
		Page:      req.Page,
		Limit:     req.Limit,
		SortOrder: req.SortOrder,
	}
	if err := page.Validate(constant.MaxSessionPageLimit); err != nil {
		return nil, err
	}

	var (
		sessions   []*entity.ChatSession
		bySession  map[uuid.UUID][]*entity.ChatMessage
		totalCount int64
	)
	err := s.retryExec.Do(ctx, "SESSION_SEARCH", func(ctx context.Context) error {
		uow := s.uowFactory.NewUnitOfWork(ctx)
		sessionRepo := uow.ChatSessionRepository()
		messageRepo := uow.ChatMessageRepository()

		specs := specification.BuildSessionSpecs(userId, filter, time.Now())

		count, err := sessionRepo.Count(ctx, specs...)
		if err != nil {
			return apperror.Operation("SESSION_SEARCH_FAILED", "failed to count sessions", err)
		}

		listSpecs := append(append([]specification.Specification{}, specs...),
			specification.BuildOrder(page, "updated_at", true),
			specification.BuildPagination(page),
		)
		found, err := sessionRepo.FindAll(ctx, listSpecs...)
		if err != nil {
			return apperror.Operation("SESSION_SEARCH_FAILED", "failed to list sessions", err)
		}

		grouped := map[uuid.UUID][]*entity.ChatMessage{}
		if len(found) > 0 {
			ids := make([]uuid.UUID, len(found))
			for i, sess := range found {
				ids[i] = sess.Id
			}
			messages, err := messageRepo.FindAll(ctx,
				specification.ByChatSessionIDs{ChatSessionIDs: ids},
				specification.OrderBy{Field: "created_at"},
			)
			if err != nil {
				return apperror.Operation("SESSION_SEARCH_FAILED", "failed to load session messages", err)
			}
			for _, m := range messages {
				grouped[m.ChatSessionId] = append(grouped[m.ChatSessionId], m)
			}
		}

		sessions = found
		bySession = grouped
		totalCount = count
		return nil
	})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	enhanced := make([]*dto.EnhancedSessionResponse, len(sessions))
	for i, sess := range sessions {
		msgs := bySession[sess.Id]
		if sess.Preview == "" {
			sess.Preview = s.enhancer.Preview(msgs)
		}
		cmds := s.enhancer.Commands(msgs)
		enhanced[i] = &dto.EnhancedSessionResponse{
			SessionResponse: *sessionToResponse(sess),
			CommandTypes:    cmds.CommandTypes,
			PrimaryCommand:  cmds.PrimaryCommand,
			CommandCount:    cmds.CommandCount,
			DisplayPriority: s.enhancer.DisplayPriority(sess, cmds, now),
		}
	}

	return &dto.SearchSessionsResponse{
		Sessions:   enhanced,
		Pagination: dto.NewPagination(page.Page, page.Limit, totalCount),
	}, nil
}

func (s *sessionService) Stats(ctx context.Context, userId uuid.UUID) (*dto.SessionStatsResponse, error) {
	key := sessionStatsKey(userId)
	if cached, ok := s.statsCache.Get(ctx, key); ok {
		var out dto.SessionStatsResponse
		if json.Unmarshal(cached, &out) == nil {
			return &out, nil
		}
	}

	var out dto.SessionStatsResponse
	err := s.retryExec.Do(ctx, "SESSION_STATS", func(ctx context.Context) error {
		uow := s.uowFactory.NewUnitOfWork(ctx)
		sessionRepo := uow.ChatSessionRepository()
		messageRepo := uow.ChatMessageRepository()

		owned := specification.ByUserID{UserID: userId}

		total, err := sessionRepo.Count(ctx, owned, specification.NotHidden{})
		if err != nil {
			return apperror.Operation("SESSION_STATS_FAILED", "failed to compute session stats", err)
		}
		fun, err := sessionRepo.Count(ctx, owned, specification.NotHidden{},
			specification.Filter("mode", constant.SessionModeFun))
		if err != nil {
			return apperror.Operation("SESSION_STATS_FAILED", "failed to compute session stats", err)
		}
		learn, err := sessionRepo.Count(ctx, owned, specification.NotHidden{},
			specification.Filter("mode", constant.SessionModeLearn))
		if err != nil {
			return apperror.Operation("SESSION_STATS_FAILED", "failed to compute session stats", err)
		}
		hidden, err := sessionRepo.Count(ctx, owned, specification.Filter("is_hidden", true))
		if err != nil {
			return apperror.Operation("SESSION_STATS_FAILED", "failed to compute session stats", err)
		}
		messages, err := messageRepo.Count(ctx, specification.MessageOwnedByUser{UserID: userId})
		if err != nil {
			return apperror.Operation("SESSION_STATS_FAILED", "failed to compute session stats", err)
		}

		out = dto.SessionStatsResponse{
			TotalSessions:  total,
			FunSessions:    fun,
			LearnSessions:  learn,
			HiddenSessions: hidden,
			TotalMessages:  messages,
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

func (s *sessionService) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	evt := events.BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}
	if err := s.publisher.Publish(ctx, evt); err != nil && s.log != nil {
		s.log.Warn("SessionService", "failed to publish event", map[string]interface{}{
			"event": eventType,
			"error": err.Error(),
		})
	}
}
