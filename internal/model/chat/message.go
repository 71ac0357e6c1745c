package chat

import "time"

const (
	SenderUser      = "user"
	SenderCharacter = "character"
)

// Message persists individual turns of a persona chat.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Sender    string    `json:"sender"`
	Content   string    `json:"text"`
	Fallback  bool      `json:"fallback,omitempty"`
	CreatedAt time.Time `json:"timestamp"`
}
