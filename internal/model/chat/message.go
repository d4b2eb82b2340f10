package chat

import "time"

// Message sender roles.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Message is one entry in a conversation transcript. Model entries are
// appended to incrementally while a reply streams; user entries are set once
// at creation and never mutated afterwards.
type Message struct {
	ID         string      `json:"id"`
	Role       string      `json:"role"`
	Content    string      `json:"content"`
	Attachment *Attachment `json:"attachment,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
}
