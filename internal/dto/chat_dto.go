package dto

import (
	"time"

	"ai-tutoring-be/internal/entity"

	"github.com/google/uuid"
)

// Pagination is attached to every list result.
type Pagination struct {
	CurrentPage     int   `json:"currentPage"`
	TotalPages      int   `json:"totalPages"`
	TotalCount      int64 `json:"totalCount"`
	Limit           int   `json:"limit"`
	HasNextPage     bool  `json:"hasNextPage"`
	HasPreviousPage bool  `json:"hasPreviousPage"`
}

func NewPagination(page, limit int, totalCount int64) Pagination {
	totalPages := int((totalCount + int64(limit) - 1) / int64(limit))
	return Pagination{
		CurrentPage:     page,
		TotalPages:      totalPages,
		TotalCount:      totalCount,
		Limit:           limit,
		HasNextPage:     page < totalPages,
		HasPreviousPage: page > 1,
	}
}

type CreateSessionRequest struct {
	Title    string `json:"title" validate:"required"`
	Mode     string `json:"mode"`
	Language string `json:"language"`
	Preview  string `json:"preview"`
}

type UpdateSessionRequest struct {
	Title    *string `json:"title"`
	Preview  *string `json:"preview"`
	Language *string `json:"language"`
	Mode     *string `json:"mode"`
	IsHidden *bool   `json:"isHidden"`
}

func (r *UpdateSessionRequest) ToPatch() *entity.SessionPatch {
	return &entity.SessionPatch{
		Title:    r.Title,
		Preview:  r.Preview,
		Language: r.Language,
		Mode:     r.Mode,
		IsHidden: r.IsHidden,
	}
}

type SessionResponse struct {
	Id           uuid.UUID          `json:"id"`
	UserId       uuid.UUID          `json:"userId"`
	Title        string             `json:"title"`
	Preview      string             `json:"preview"`
	Language     string             `json:"language"`
	Mode         string             `json:"mode"`
	MessageCount int                `json:"messageCount"`
	IsHidden     bool               `json:"isHidden"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
	Messages     []*MessageResponse `json:"messages,omitempty"`
}

// EnhancedSessionResponse adds the derived display fields used by session lists.
type EnhancedSessionResponse struct {
	SessionResponse
	CommandTypes    []string `json:"commandTypes"`
	PrimaryCommand  string   `json:"primaryCommand,omitempty"`
	CommandCount    int      `json:"commandCount"`
	DisplayPriority int      `json:"displayPriority"`
}

type SearchSessionsRequest struct {
	Search       string   `json:"search"`
	DateRange    string   `json:"dateRange"`
	CommandTypes []string `json:"commandTypes"`
	Page         int      `json:"page"`
	Limit        int      `json:"limit"`
	SortOrder    string   `json:"sortOrder"`
}

type SearchSessionsResponse struct {
	Sessions   []*EnhancedSessionResponse `json:"sessions"`
	Pagination Pagination                 `json:"pagination"`
}

type SessionStatsResponse struct {
	TotalSessions  int64 `json:"totalSessions"`
	FunSessions    int64 `json:"funSessions"`
	LearnSessions  int64 `json:"learnSessions"`
	HiddenSessions int64 `json:"hiddenSessions"`
	TotalMessages  int64 `json:"totalMessages"`
}

type AddMessageRequest struct {
	Type     string                 `json:"type" validate:"required,oneof=user assistant"`
	Content  string                 `json:"content" validate:"required"`
	Metadata map[string]interface{} `json:"metadata"`
}

type UpdateMessageRequest struct {
	Content  *string                `json:"content"`
	Metadata map[string]interface{} `json:"metadata"`
}

type ListMessagesRequest struct {
	Page      int    `json:"page"`
	Limit     int    `json:"limit"`
	SortOrder string `json:"sortOrder"`
	Type      string `json:"type"`
}

type BulkDeleteMessagesRequest struct {
	Ids []uuid.UUID `json:"ids" validate:"required,min=1"`
}

type BulkDeleteMessagesResponse struct {
	DeletedCount int64 `json:"deletedCount"`
}

type MessageResponse struct {
	Id        uuid.UUID              `json:"id"`
	SessionId uuid.UUID              `json:"sessionId"`
	Type      string                 `json:"type"`
	Content   string                 `json:"content"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

type SessionMessagesResponse struct {
	Messages   []*MessageResponse `json:"messages"`
	Pagination Pagination         `json:"pagination"`
}

type SearchMessagesRequest struct {
	Search    string `json:"search"`
	Page      int    `json:"page"`
	Limit     int    `json:"limit"`
	SortOrder string `json:"sortOrder"`
}

type MessageStatsResponse struct {
	TotalMessages     int64            `json:"totalMessages"`
	UserMessages      int64            `json:"userMessages"`
	AssistantMessages int64            `json:"assistantMessages"`
	LastMessage       *MessageResponse `json:"lastMessage,omitempty"`
}

// MetadataFromMap lifts a raw JSON metadata object into the typed bag.
// Recognized keys must have the right primitive type; everything else passes
// through in Extra.
func MetadataFromMap(raw map[string]interface{}) (*entity.MessageMetadata, bool) {
	if raw == nil {
		return nil, true
	}
	meta := &entity.MessageMetadata{}
	for k, v := range raw {
		switch k {
		case "audioUrl":
			s, ok := v.(string)
			if !ok {
				return nil, false
			}
			meta.AudioUrl = s
		case "imageUrl":
			s, ok := v.(string)
			if !ok {
				return nil, false
			}
			meta.ImageUrl = s
		case "language":
			s, ok := v.(string)
			if !ok {
				return nil, false
			}
			meta.Language = s
		case "timestamp":
			s, ok := v.(string)
			if !ok {
				return nil, false
			}
			meta.Timestamp = s
		default:
			if meta.Extra == nil {
				meta.Extra = map[string]interface{}{}
			}
			meta.Extra[k] = v
		}
	}
	return meta, true
}

// MetadataToMap renders the typed bag back into a flat JSON object.
func MetadataToMap(meta *entity.MessageMetadata) map[string]interface{} {
	if meta.IsEmpty() {
		return nil
	}
	out := map[string]interface{}{}
	for k, v := range meta.Extra {
		out[k] = v
	}
	if meta.AudioUrl != "" {
		out["audioUrl"] = meta.AudioUrl
	}
	if meta.ImageUrl != "" {
		out["imageUrl"] = meta.ImageUrl
	}
	if meta.Language != "" {
		out["language"] = meta.Language
	}
	if meta.Timestamp != "" {
		out["timestamp"] = meta.Timestamp
	}
	return out
}
