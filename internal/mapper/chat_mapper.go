package mapper

import (
	"encoding/json"

	"ai-tutoring-be/internal/entity"
	"ai-tutoring-be/internal/model"

	"gorm.io/datatypes"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

func (m *ChatMapper) SessionToModel(e *entity.ChatSession) *model.ChatSession {
	return &model.ChatSession{
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
}

func (m *ChatMapper) SessionToEntity(mo *model.ChatSession) *entity.ChatSession {
	e := &entity.ChatSession{
		Id:           mo.Id,
		UserId:       mo.UserId,
		Title:        mo.Title,
		Preview:      mo.Preview,
		Language:     mo.Language,
		Mode:         mo.Mode,
		MessageCount: mo.MessageCount,
		IsHidden:     mo.IsHidden,
		CreatedAt:    mo.CreatedAt,
		UpdatedAt:    mo.UpdatedAt,
	}
	if len(mo.Messages) > 0 {
		e.Messages = make([]*entity.ChatMessage, len(mo.Messages))
		for i := range mo.Messages {
			e.Messages[i] = m.MessageToEntity(&mo.Messages[i])
		}
	}
	return e
}

func (m *ChatMapper) MessageToModel(e *entity.ChatMessage) *model.ChatMessage {
	return &model.ChatMessage{
		Id:            e.Id,
		ChatSessionId: e.ChatSessionId,
		Type:          e.Type,
		Content:       e.Content,
		Metadata:      MetadataToJSON(e.Metadata),
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

func (m *ChatMapper) MessageToEntity(mo *model.ChatMessage) *entity.ChatMessage {
	return &entity.ChatMessage{
		Id:            mo.Id,
		ChatSessionId: mo.ChatSessionId,
		Type:          mo.Type,
		Content:       mo.Content,
		Metadata:      MetadataFromJSON(mo.Metadata),
		CreatedAt:     mo.CreatedAt,
		UpdatedAt:     mo.UpdatedAt,
	}
}

func (m *ChatMapper) MessagesToEntities(models []*model.ChatMessage) []*entity.ChatMessage {
	entities := make([]*entity.ChatMessage, len(models))
	for i, mo := range models {
		entities[i] = m.MessageToEntity(mo)
	}
	return entities
}

// MetadataToJSON flattens the typed fields and the Extra map into one JSONB
// document. Recognized keys win over Extra on collision.
func MetadataToJSON(meta *entity.MessageMetadata) datatypes.JSON {
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
	raw, err := json.Marshal(out)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}

func MetadataFromJSON(raw datatypes.JSON) *entity.MessageMetadata {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	meta := &entity.MessageMetadata{}
	for k, v := range m {
		switch k {
		case "audioUrl":
			meta.AudioUrl, _ = v.(string)
		case "imageUrl":
			meta.ImageUrl, _ = v.(string)
		case "language":
			meta.Language, _ = v.(string)
		case "timestamp":
			meta.Timestamp, _ = v.(string)
		default:
			if meta.Extra == nil {
				meta.Extra = map[string]interface{}{}
			}
			meta.Extra[k] = v
		}
	}
	return meta
}
