package store

import "github.com/google/uuid"

// Role is the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is immutable once created. Messages are ordered by creation
// time within a conversation; the chat flow only ever appends.
// CreatedTs is in microseconds: the user and assistant messages of one
// turn land within the same second, so second resolution would not keep
// them ordered.
type Message struct {
	ID             uuid.UUID
	UserID         string
	ConversationID uuid.UUID
	Role           Role
	Content        string
	CreatedTs      int64
}

type FindMessage struct {
	ID             *uuid.UUID
	UserID         *string
	ConversationID *uuid.UUID
}
