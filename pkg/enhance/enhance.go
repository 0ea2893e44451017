// Package enhance derives UI-facing display fields from a session's messages:
// preview text, command-type classification and a sort priority. Everything
// here is pure; no storage access.
package enhance

import (
	"strings"
	"time"

	"ai-tutoring-be/internal/constant"
	"ai-tutoring-be/internal/entity"
)

const (
	previewMaxLen   = 150
	previewBreakPos = 100
)

type CommandInfo struct {
	CommandTypes   []string `json:"commandTypes"`
	PrimaryCommand string   `json:"primaryCommand"`
	CommandCount   int      `json:"commandCount"`
}

func (c CommandInfo) HasCommands() bool {
	return len(c.CommandTypes) > 0
}

type Enhancer struct{}

func NewEnhancer() *Enhancer {
	return &Enhancer{}
}

// Preview builds the session preview from the first user message: trimmed and
// truncated to 150 chars, breaking on the last space after position 100 when
// one exists, with a trailing ellipsis.
func (e *Enhancer) Preview(messages []*entity.ChatMessage) string {
	for _, m := range messages {
		if m.Type != constant.ChatMessageTypeUser {
			continue
		}
		return truncatePreview(strings.TrimSpace(m.Content))
	}
	return ""
}

func truncatePreview(s string) string {
	runes := []rune(s)
	if len(runes) <= previewMaxLen {
		return s
	}
	cut := runes[:previewMaxLen]
	breakAt := previewMaxLen
	for i := len(cut) - 1; i > previewBreakPos; i-- {
		if cut[i] == ' ' {
			breakAt = i
			break
		}
	}
	return strings.TrimSpace(string(cut[:breakAt])) + "…"
}

// Commands scans user messages in chronological order for known command
// keywords. PrimaryCommand is the first command type encountered.
func (e *Enhancer) Commands(messages []*entity.ChatMessage) CommandInfo {
	info := CommandInfo{}
	seen := map[string]bool{}
	for _, m := range messages {
		if m.Type != constant.ChatMessageTypeUser {
			continue
		}
		content := strings.ToLower(m.Content)
		for _, tag := range constant.CommandTypes {
			if !containsVariant(content, constant.CommandVariants[tag]) {
				continue
			}
			info.CommandCount++
			if !seen[tag] {
				seen[tag] = true
				info.CommandTypes = append(info.CommandTypes, tag)
				if info.PrimaryCommand == "" {
					info.PrimaryCommand = tag
				}
			}
		}
	}
	return info
}

func containsVariant(content string, variants []string) bool {
	for _, v := range variants {
		if strings.Contains(content, strings.ToLower(v)) {
			return true
		}
	}
	return false
}

// DisplayPriority scores a session for list ordering; higher sorts first.
// Recency dominates, message volume and command usage add fixed boosts.
func (e *Enhancer) DisplayPriority(session *entity.ChatSession, cmds CommandInfo, now time.Time) int {
	daysSinceUpdate := int(now.Sub(session.UpdatedAt).Hours() / 24)
	score := 100 - daysSinceUpdate
	if score < 0 {
		score = 0
	}
	messages := session.MessageCount
	if messages > 50 {
		messages = 50
	}
	score += messages
	if cmds.HasCommands() {
		score += 20
	}
	if len(cmds.CommandTypes) > 1 {
		score += 10
	}
	return score
}
