package service

import (
	"context"

	"ai-tutoring-be/internal/dto"
	"ai-tutoring-be/internal/entity"
	"ai-tutoring-be/internal/pkg/apperror"
	"ai-tutoring-be/internal/repository/contract"
	"ai-tutoring-be/internal/repository/specification"

	"github.com/google/uuid"
)

// resolveOwnedSession loads the governing session and enforces ownership
// before any mutation. A nil userId (uuid.Nil) marks a trusted
// service-to-service call and skips the check. Policy: foreign-owned rows are
// AccessDenied, absent rows are NotFound, uniformly.
func resolveOwnedSession(ctx context.Context, repo contract.ChatSessionRepository, id, userId uuid.UUID) (*entity.ChatSession, error) {
	session, err := repo.FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperror.NotFound("session")
	}
	if userId != uuid.Nil && session.UserId != userId {
		return nil, apperror.AccessDenied("session")
	}
	return session, nil
}

// truncateForLog keeps message bodies out of error details.
func truncateForLog(s string) string {
	const max = 50
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func sessionToResponse(e *entity.ChatSession) *dto.SessionResponse {
	resp := &dto.SessionResponse{
		Id:           e.Id,
		UserId:       e.UserId,
		Title:        e.Title,
		Preview:      e.Preview,
		Language:     e.Language,
		Mode:         e.Mode,
		MessageCount: e.MessageCount,
		IsHidden:     e.IsHidden,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
	if e.Messages != nil {
		resp.Messages = make([]*dto.MessageResponse, len(e.Messages))
		for i, m := range e.Messages {
			resp.Messages[i] = messageToResponse(m)
		}
	}
	return resp
}

func messageToResponse(e *entity.ChatMessage) *dto.MessageResponse {
	return &dto.MessageResponse{
		Id:        e.Id,
		SessionId: e.ChatSessionId,
		Type:      e.Type,
		Content:   e.Content,
		Metadata:  dto.MetadataToMap(e.Metadata),
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func sessionStatsKey(userId uuid.UUID) string {
	return "chat:stats:sessions:" + userId.String()
}

func messageStatsKey(userId uuid.UUID) string {
	return "chat:stats:messages:" + userId.String()
}
