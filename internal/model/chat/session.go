package chat

import (
	"time"

	"github.com/zhouzirui/money-wrapped/backend/internal/model/persona"
)

// Session captures a transient anonymous conversation with one persona.
type Session struct {
	ID          string       `json:"id"`
	PersonaType persona.Type `json:"persona"`
	Character   string       `json:"character"`
	CreatedAt   time.Time    `json:"createdAt"`
}
