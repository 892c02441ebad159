package content

import "time"

// Type is the kind of generated asset.
type Type string

const (
	TypeImage Type = "IMAGE"
	TypeVideo Type = "VIDEO"
)

// ParseType validates a raw content type.
func ParseType(raw string) (Type, bool) {
	switch Type(raw) {
	case TypeImage, TypeVideo:
		return Type(raw), true
	default:
		return "", false
	}
}

// HistoryPageSize caps how many records a history listing returns.
const HistoryPageSize = 20

// GeneratedContent is one successful generation. Records are immutable.
type GeneratedContent struct {
	ID          string    `json:"id"`
	UserID      string    `json:"-"`
	ContentType Type      `json:"type"`
	Prompt      string    `json:"prompt"`
	Result      string    `json:"result"`
	StorageKey  string    `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
}
