// Package validation holds the pure input checks run before any storage I/O.
// Every function either returns normalized values or a field-tagged
// ValidationError; none of them touch the database.
package validation

import (
	"strings"
	"time"
	"unicode/utf8"

	"ai-tutoring-be/internal/constant"
	"ai-tutoring-be/internal/entity"
	"ai-tutoring-be/internal/pkg/apperror"
)

type NewSessionInput struct {
	Title    string
	Mode     string
	Language string
	Preview  string
}

// NewSession normalizes and validates createSession input. Empty mode and
// language fall back to their defaults.
func NewSession(title, mode, language, preview string) (NewSessionInput, error) {
	out := NewSessionInput{}

	title = strings.TrimSpace(title)
	if title == "" {
		return out, apperror.Validation("title", "title must not be empty")
	}
	if utf8.RuneCountInString(title) > constant.MaxTitleLength {
		return out, apperror.Validation("title", "title exceeds maximum length")
	}
	out.Title = title

	if mode == "" {
		mode = constant.SessionModeFun
	}
	if !constant.IsValidSessionMode(mode) {
		return out, apperror.Validation("mode", "mode must be one of: fun, learn")
	}
	out.Mode = mode

	if language == "" {
		language = constant.DefaultSessionLanguage
	}
	if utf8.RuneCountInString(language) > constant.MaxMetaLanguageLen {
		return out, apperror.Validation("language", "language code exceeds maximum length")
	}
	out.Language = language

	preview = strings.TrimSpace(preview)
	if utf8.RuneCountInString(preview) > constant.MaxPreviewLength {
		return out, apperror.Validation("preview", "preview exceeds maximum length")
	}
	out.Preview = preview

	return out, nil
}

// SessionPatch validates an update in place. A patch with no recognized
// fields is an error, never a silent no-op.
func SessionPatch(p *entity.SessionPatch) error {
	if p.IsEmpty() {
		return apperror.Validation("patch", "no valid fields to update")
	}
	if p.Title != nil {
		t := strings.TrimSpace(*p.Title)
		if t == "" {
			return apperror.Validation("title", "title must not be empty")
		}
		if utf8.RuneCountInString(t) > constant.MaxTitleLength {
			return apperror.Validation("title", "title exceeds maximum length")
		}
		*p.Title = t
	}
	if p.Preview != nil {
		pr := strings.TrimSpace(*p.Preview)
		if utf8.RuneCountInString(pr) > constant.MaxPreviewLength {
			return apperror.Validation("preview", "preview exceeds maximum length")
		}
		*p.Preview = pr
	}
	if p.Language != nil {
		if *p.Language == "" || utf8.RuneCountInString(*p.Language) > constant.MaxMetaLanguageLen {
			return apperror.Validation("language", "invalid language code")
		}
	}
	if p.Mode != nil && !constant.IsValidSessionMode(*p.Mode) {
		return apperror.Validation("mode", "mode must be one of: fun, learn")
	}
	return nil
}

type NewMessageInput struct {
	Type     string
	Content  string
	Metadata *entity.MessageMetadata
}

func NewMessage(msgType, content string, meta *entity.MessageMetadata) (NewMessageInput, error) {
	out := NewMessageInput{}

	if !constant.IsValidMessageType(msgType) {
		return out, apperror.Validation("type", "type must be one of: user, assistant")
	}
	out.Type = msgType

	content = strings.TrimSpace(content)
	if content == "" {
		return out, apperror.Validation("content", "content must not be empty")
	}
	if utf8.RuneCountInString(content) > constant.MaxContentLength {
		return out, apperror.Validation("content", "content exceeds maximum length")
	}
	out.Content = content

	if err := Metadata(meta); err != nil {
		return out, err
	}
	out.Metadata = meta

	return out, nil
}

func MessagePatch(p *entity.MessagePatch) error {
	if p.IsEmpty() {
		return apperror.Validation("patch", "no valid fields to update")
	}
	if p.Content != nil {
		c := strings.TrimSpace(*p.Content)
		if c == "" {
			return apperror.Validation("content", "content must not be empty")
		}
		if utf8.RuneCountInString(c) > constant.MaxContentLength {
			return apperror.Validation("content", "content exceeds maximum length")
		}
		*p.Content = c
	}
	if p.Metadata != nil {
		if err := Metadata(p.Metadata); err != nil {
			return err
		}
	}
	return nil
}

// Metadata checks the recognized keys of the metadata bag. Unrecognized keys
// in Extra pass through unvalidated.
func Metadata(meta *entity.MessageMetadata) error {
	if meta == nil {
		return nil
	}
	if utf8.RuneCountInString(meta.Language) > constant.MaxMetaLanguageLen {
		return apperror.Validation("metadata.language", "language code exceeds maximum length")
	}
	if meta.Timestamp != "" && !parsableTimestamp(meta.Timestamp) {
		return apperror.Validation("metadata.timestamp", "timestamp must be a date or ISO-8601 string")
	}
	return nil
}

func parsableTimestamp(s string) bool {
	for _, layout := range []string{time.RFC3339, time.RFC3339Nano, "2006-01-02"} {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}
