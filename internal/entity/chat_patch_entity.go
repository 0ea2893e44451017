package entity

// SessionPatch carries the whitelisted updatable session fields. Nil means
// "leave unchanged"; unknown JSON keys never reach this struct.
type SessionPatch struct {
	Title    *string
	Preview  *string
	Language *string
	Mode     *string
	IsHidden *bool
}

func (p *SessionPatch) IsEmpty() bool {
	return p == nil ||
		(p.Title == nil && p.Preview == nil && p.Language == nil && p.Mode == nil && p.IsHidden == nil)
}

// MessagePatch: only content and metadata are mutable after creation.
type MessagePatch struct {
	Content  *string
	Metadata *MessageMetadata
}

func (p *MessagePatch) IsEmpty() bool {
	return p == nil || (p.Content == nil && p.Metadata == nil)
}
