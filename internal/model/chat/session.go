package chat

import "time"

// Session captures a transient anonymous conversation and the persona it is
// currently bound to. Switching personas replaces the backend handle but the
// session identifier stays stable for the client.
type Session struct {
	ID        string    `json:"id"`
	PersonaID string    `json:"personaId"`
	CreatedAt time.Time `json:"createdAt"`
}
