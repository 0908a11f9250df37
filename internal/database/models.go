package database

import "time"

// Delivery statuses.
const (
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// Delivery modes. ModeText is used for the trailing text part of a reply.
const (
	ModePath = "path"
	ModeURL  = "url"
	ModeText = "text"
)

// Delivery is one outbound send attempt made on behalf of the emoticon plugin.
type Delivery struct {
	ID             int64     `db:"id"`
	Platform       string    `db:"platform"`
	ConversationID string    `db:"conversation_id"`
	Emoticon       *string   `db:"emoticon"` // nil for text parts
	Mode           string    `db:"mode"`
	Target         string    `db:"target"` // file path, URL, or the text itself
	Status         string    `db:"status"`
	Error          *string   `db:"error"`
	CreatedAt      time.Time `db:"created_at"`
}

// EmoticonCount is an aggregate row of sent images per emoticon.
type EmoticonCount struct {
	Emoticon string
	Count    int64
}
