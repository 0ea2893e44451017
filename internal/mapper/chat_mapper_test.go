package mapper

import (
	"testing"
	"time"

	"ai-tutoring-be/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataJSONRoundTrip(t *testing.T) {
	meta := &entity.MessageMetadata{
		ImageUrl:  "https://cdn.example.com/task.png",
		Language:  "ru",
		Timestamp: "2026-02-01T10:00:00Z",
		Extra:     map[string]interface{}{"tags": []interface{}{"algebra"}},
	}

	raw := MetadataToJSON(meta)
	require.NotNil(t, raw)

	back := MetadataFromJSON(raw)
	require.NotNil(t, back)
	assert.Equal(t, meta.ImageUrl, back.ImageUrl)
	assert.Equal(t, meta.Language, back.Language)
	assert.Equal(t, meta.Timestamp, back.Timestamp)
	assert.Equal(t, []interface{}{"algebra"}, back.Extra["tags"])
}

func TestMetadataToJSONEmpty(t *testing.T) {
	assert.Nil(t, MetadataToJSON(nil))
	assert.Nil(t, MetadataToJSON(&entity.MessageMetadata{}))
}

func TestMetadataToJSONTypedFieldsWinOverExtra(t *testing.T) {
	meta := &entity.MessageMetadata{
		Language: "en",
		Extra:    map[string]interface{}{"language": "fr"},
	}

	back := MetadataFromJSON(MetadataToJSON(meta))
	require.NotNil(t, back)
	assert.Equal(t, "en", back.Language)
	assert.NotContains(t, back.Extra, "language")
}

func TestMetadataFromJSONInvalid(t *testing.T) {
	assert.Nil(t, MetadataFromJSON(nil))
	assert.Nil(t, MetadataFromJSON([]byte("not json")))
}

func TestSessionToEntityCarriesMessages(t *testing.T) {
	m := NewChatMapper()
	now := time.Now()
	sessionId := uuid.New()

	sess := m.SessionToModel(&entity.ChatSession{
		Id:        sessionId,
		UserId:    uuid.New(),
		Title:     "Quadratic equations",
		Mode:      "tutor",
		Language:  "en",
		CreatedAt: now,
		UpdatedAt: now,
	})
	msg := m.MessageToModel(&entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: sessionId,
		Type:          "user",
		Content:       "/solve x^2=4",
		CreatedAt:     now,
	})
	sess.Messages = append(sess.Messages, *msg)
	sess.MessageCount = 1

	e := m.SessionToEntity(sess)
	assert.Equal(t, "Quadratic equations", e.Title)
	assert.Equal(t, 1, e.MessageCount)
	require.Len(t, e.Messages, 1)
	assert.Equal(t, "/solve x^2=4", e.Messages[0].Content)
	assert.Equal(t, sessionId, e.Messages[0].ChatSessionId)
}
