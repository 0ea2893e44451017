package validation

import (
	"strings"
	"testing"

	"ai-tutoring-be/internal/entity"
	"ai-tutoring-be/internal/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSession(t *testing.T) {
	tests := []struct {
		name      string
		title     string
		mode      string
		language  string
		preview   string
		wantErr   bool
		wantField string
	}{
		{
			name:     "defaults applied",
			title:    "Algebra homework",
			wantErr:  false,
			mode:     "",
			language: "",
		},
		{
			name:      "empty title",
			title:     "   ",
			wantErr:   true,
			wantField: "title",
		},
		{
			name:      "title too long",
			title:     strings.Repeat("a", 501),
			wantErr:   true,
			wantField: "title",
		},
		{
			name:    "multibyte title within limit",
			title:   strings.Repeat("я", 500),
			wantErr: false,
		},
		{
			name:      "multibyte title over limit",
			title:     strings.Repeat("я", 501),
			wantErr:   true,
			wantField: "title",
		},
		{
			name:      "unknown mode",
			title:     "T",
			mode:      "serious",
			wantErr:   true,
			wantField: "mode",
		},
		{
			name:      "language too long",
			title:     "T",
			language:  "en-US-x-lvariant-long",
			wantErr:   true,
			wantField: "language",
		},
		{
			name:      "preview too long",
			title:     "T",
			preview:   strings.Repeat("p", 151),
			wantErr:   true,
			wantField: "preview",
		},
		{
			name:    "learn mode accepted",
			title:   "T",
			mode:    "learn",
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := NewSession(tt.title, tt.mode, tt.language, tt.preview)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperror.IsValidation(err))
				var serr *apperror.StorageError
				require.ErrorAs(t, err, &serr)
				assert.Equal(t, tt.wantField, serr.Details["field"])
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, in.Mode)
			assert.NotEmpty(t, in.Language)
		})
	}
}

func TestNewSessionDefaults(t *testing.T) {
	in, err := NewSession("  spaced title  ", "", "", "")
	require.NoError(t, err)
	assert.Equal(t, "spaced title", in.Title)
	assert.Equal(t, "fun", in.Mode)
	assert.Equal(t, "en", in.Language)
}

func TestSessionPatch(t *testing.T) {
	strPtr := func(s string) *string { return &s }
	boolPtr := func(b bool) *bool { return &b }

	t.Run("empty patch rejected", func(t *testing.T) {
		err := SessionPatch(&entity.SessionPatch{})
		require.Error(t, err)
		assert.True(t, apperror.IsValidation(err))
	})

	t.Run("hide only is valid", func(t *testing.T) {
		err := SessionPatch(&entity.SessionPatch{IsHidden: boolPtr(true)})
		assert.NoError(t, err)
	})

	t.Run("title trimmed in place", func(t *testing.T) {
		p := &entity.SessionPatch{Title: strPtr("  new title  ")}
		require.NoError(t, SessionPatch(p))
		assert.Equal(t, "new title", *p.Title)
	})

	t.Run("blank title rejected", func(t *testing.T) {
		err := SessionPatch(&entity.SessionPatch{Title: strPtr("   ")})
		assert.Error(t, err)
	})

	t.Run("bad mode rejected", func(t *testing.T) {
		err := SessionPatch(&entity.SessionPatch{Mode: strPtr("party")})
		assert.Error(t, err)
	})
}

func TestNewMessage(t *testing.T) {
	t.Run("valid user message", func(t *testing.T) {
		in, err := NewMessage("user", "  hello  ", nil)
		require.NoError(t, err)
		assert.Equal(t, "hello", in.Content)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := NewMessage("system", "hello", nil)
		require.Error(t, err)
		assert.True(t, apperror.IsValidation(err))
	})

	t.Run("empty content", func(t *testing.T) {
		_, err := NewMessage("assistant", "   ", nil)
		assert.Error(t, err)
	})

	t.Run("content too long", func(t *testing.T) {
		_, err := NewMessage("user", strings.Repeat("x", 50001), nil)
		assert.Error(t, err)
	})

	t.Run("multibyte content measured in characters", func(t *testing.T) {
		in, err := NewMessage("user", strings.Repeat("я", 30000), nil)
		require.NoError(t, err)
		assert.Equal(t, strings.Repeat("я", 30000), in.Content)

		_, err = NewMessage("user", strings.Repeat("я", 50001), nil)
		assert.Error(t, err)
	})

	t.Run("metadata validated", func(t *testing.T) {
		_, err := NewMessage("user", "hi", &entity.MessageMetadata{Timestamp: "not-a-date"})
		assert.Error(t, err)
	})
}

func TestMetadata(t *testing.T) {
	tests := []struct {
		name    string
		meta    *entity.MessageMetadata
		wantErr bool
	}{
		{"nil metadata", nil, false},
		{"empty metadata", &entity.MessageMetadata{}, false},
		{"rfc3339 timestamp", &entity.MessageMetadata{Timestamp: "2026-08-29T10:00:00Z"}, false},
		{"date only timestamp", &entity.MessageMetadata{Timestamp: "2026-08-29"}, false},
		{"garbage timestamp", &entity.MessageMetadata{Timestamp: "yesterday"}, true},
		{"language too long", &entity.MessageMetadata{Language: "abcdefghijk"}, true},
		{"multibyte language within limit", &entity.MessageMetadata{Language: "українська"}, false},
		{"extra keys pass through", &entity.MessageMetadata{Extra: map[string]interface{}{"difficulty": 3}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Metadata(tt.meta)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMessagePatch(t *testing.T) {
	strPtr := func(s string) *string { return &s }

	err := MessagePatch(&entity.MessagePatch{})
	require.Error(t, err)

	p := &entity.MessagePatch{Content: strPtr("  fixed  ")}
	require.NoError(t, MessagePatch(p))
	assert.Equal(t, "fixed", *p.Content)
}
