package enhance

import (
	"strings"
	"testing"
	"time"

	"ai-tutoring-be/internal/entity"

	"github.com/stretchr/testify/assert"
)

func userMsg(content string) *entity.ChatMessage {
	return &entity.ChatMessage{Type: "user", Content: content}
}

func assistantMsg(content string) *entity.ChatMessage {
	return &entity.ChatMessage{Type: "assistant", Content: content}
}

func TestPreview(t *testing.T) {
	e := NewEnhancer()

	t.Run("first user message wins", func(t *testing.T) {
		msgs := []*entity.ChatMessage{
			assistantMsg("How can I help?"),
			userMsg("Solve this equation"),
			userMsg("Another question"),
		}
		assert.Equal(t, "Solve this equation", e.Preview(msgs))
	})

	t.Run("no user messages", func(t *testing.T) {
		msgs := []*entity.ChatMessage{assistantMsg("Hello")}
		assert.Equal(t, "", e.Preview(msgs))
	})

	t.Run("short content untouched", func(t *testing.T) {
		assert.Equal(t, "short", e.Preview([]*entity.ChatMessage{userMsg("  short  ")}))
	})
}

func TestTruncatePreview(t *testing.T) {
	t.Run("150 chars exactly keeps ellipsis off", func(t *testing.T) {
		s := strings.Repeat("a", 150)
		assert.Equal(t, s, truncatePreview(s))
	})

	t.Run("breaks on last space after position 100", func(t *testing.T) {
		// Words of 10 chars; a space sits at index 142.
		word := strings.Repeat("a", 10)
		parts := make([]string, 20)
		for i := range parts {
			parts[i] = word
		}
		s := strings.Join(parts, " ")
		got := truncatePreview(s)
		assert.True(t, strings.HasSuffix(got, "…"))
		trimmed := strings.TrimSuffix(got, "…")
		assert.LessOrEqual(t, len([]rune(trimmed)), 150)
		assert.False(t, strings.HasSuffix(trimmed, " "))
		// The cut lands on a word boundary, not mid-word.
		assert.True(t, strings.HasSuffix(trimmed, word))
	})

	t.Run("hard cut when no space after position 100", func(t *testing.T) {
		s := strings.Repeat("x", 200)
		got := truncatePreview(s)
		assert.Equal(t, strings.Repeat("x", 150)+"…", got)
	})

	t.Run("multibyte content counts runes", func(t *testing.T) {
		s := strings.Repeat("я", 200)
		got := truncatePreview(s)
		assert.Equal(t, 151, len([]rune(got)))
	})
}

func TestCommands(t *testing.T) {
	e := NewEnhancer()

	t.Run("no commands", func(t *testing.T) {
		info := e.Commands([]*entity.ChatMessage{userMsg("plain question")})
		assert.False(t, info.HasCommands())
		assert.Empty(t, info.PrimaryCommand)
		assert.Zero(t, info.CommandCount)
	})

	t.Run("primary is first chronologically", func(t *testing.T) {
		info := e.Commands([]*entity.ChatMessage{
			userMsg("/explain how integrals work"),
			userMsg("/solve x^2=4"),
		})
		assert.Equal(t, "explain", info.PrimaryCommand)
		assert.ElementsMatch(t, []string{"explain", "solve"}, info.CommandTypes)
		assert.Equal(t, 2, info.CommandCount)
	})

	t.Run("localized variants recognized", func(t *testing.T) {
		info := e.Commands([]*entity.ChatMessage{userMsg("/реши уравнение")})
		assert.Equal(t, "solve", info.PrimaryCommand)
	})

	t.Run("assistant messages ignored", func(t *testing.T) {
		info := e.Commands([]*entity.ChatMessage{assistantMsg("/solve it like this")})
		assert.False(t, info.HasCommands())
	})

	t.Run("case insensitive", func(t *testing.T) {
		info := e.Commands([]*entity.ChatMessage{userMsg("/SOLVE this")})
		assert.Equal(t, "solve", info.PrimaryCommand)
	})
}

func TestDisplayPriority(t *testing.T) {
	e := NewEnhancer()
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	session := func(daysOld, msgCount int) *entity.ChatSession {
		return &entity.ChatSession{
			UpdatedAt:    now.AddDate(0, 0, -daysOld),
			MessageCount: msgCount,
		}
	}

	t.Run("fresh empty session", func(t *testing.T) {
		assert.Equal(t, 100, e.DisplayPriority(session(0, 0), CommandInfo{}, now))
	})

	t.Run("recency decays to zero floor", func(t *testing.T) {
		assert.Equal(t, 0, e.DisplayPriority(session(365, 0), CommandInfo{}, now))
	})

	t.Run("message count capped at 50", func(t *testing.T) {
		assert.Equal(t, 150, e.DisplayPriority(session(0, 500), CommandInfo{}, now))
	})

	t.Run("command boosts", func(t *testing.T) {
		one := CommandInfo{CommandTypes: []string{"solve"}, PrimaryCommand: "solve", CommandCount: 1}
		two := CommandInfo{CommandTypes: []string{"solve", "explain"}, PrimaryCommand: "solve", CommandCount: 2}
		base := e.DisplayPriority(session(10, 5), CommandInfo{}, now)
		assert.Equal(t, base+20, e.DisplayPriority(session(10, 5), one, now))
		assert.Equal(t, base+30, e.DisplayPriority(session(10, 5), two, now))
	})
}
