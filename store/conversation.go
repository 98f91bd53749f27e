package store

import "github.com/google/uuid"

// Conversation is an append-only container for chat messages.
// The owner is immutable once the conversation is created.
type Conversation struct {
	ID        uuid.UUID
	UserID    string
	CreatedTs int64
	UpdatedTs int64
}

type FindConversation struct {
	ID     *uuid.UUID
	UserID *string
}

type DeleteConversation struct {
	ID uuid.UUID
}
