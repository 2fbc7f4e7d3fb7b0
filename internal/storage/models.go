package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Message is one chat message as ingested from the platform connector.
// Timestamp is the sole ordering key; it is normalized to UTC on write so
// the stored RFC 3339 text sorts chronologically.
type Message struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
	ChannelID  string    `json:"channel_id"`
	ThreadID   string    `json:"thread_id,omitempty"` // empty means channel-scoped
	GuildID    string    `json:"guild_id,omitempty"`
}

// InThread reports whether the message belongs to a thread scope.
func (m Message) InThread() bool {
	return m.ThreadID != ""
}

// Translation is one recorded pipeline run. MessageID is empty for ad-hoc
// text translations that were never stored as messages.
type Translation struct {
	ID                 string    `json:"id"`
	MessageID          string    `json:"message_id,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	Original           string    `json:"original"`
	Cleaned            string    `json:"cleaned"`
	TargetLang         string    `json:"target_lang,omitempty"`
	Translation        string    `json:"translation"`
	ContextExplanation string    `json:"context_explanation,omitempty"`
	ToneNotes          string    `json:"tone_notes,omitempty"`
	ContextCount       int       `json:"context_count"`
	Error              string    `json:"error,omitempty"`
}
