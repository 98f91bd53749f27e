package chat

import (
	"time"

	"github.com/google/uuid"

	"github.com/hrygo/taskpilot/store/cache"
)

// Phase identifies where a conversation sits in the update-task
// clarification flow.
type Phase string

const (
	// PhaseAwaitingTaskSelection waits for the user to name which task
	// to update.
	PhaseAwaitingTaskSelection Phase = "awaiting_task_selection"
	// PhaseAwaitingNewTitle waits for the new title text.
	PhaseAwaitingNewTitle Phase = "awaiting_new_title"
	// PhaseAwaitingNewDescription waits for the new description text or
	// a skip signal.
	PhaseAwaitingNewDescription Phase = "awaiting_new_description"
)

// State is the pending clarification for one conversation. Payload
// fields accumulate as the flow advances: TaskID/TaskTitle are set once
// a task is matched, NewTitle once the replacement title arrives.
type State struct {
	Phase     Phase
	TaskID    uuid.UUID
	TaskTitle string
	NewTitle  string
}

// StateStore holds at most one clarification state per conversation.
// Implementations must be safe for concurrent use.
type StateStore interface {
	Get(conversationID uuid.UUID) (*State, bool)
	Set(conversationID uuid.UUID, state *State)
	Clear(conversationID uuid.UUID)
}

// cacheStateStore keeps clarification state in an in-process TTL cache,
// so abandoned clarifications expire instead of pinning memory. State is
// lost on restart and is not shared across replicas.
type cacheStateStore struct {
	cache *cache.Cache
}

// NewStateStore creates the default in-process state store. A zero ttl
// keeps states until explicitly cleared.
func NewStateStore(ttl time.Duration) StateStore {
	cleanup := ttl / 2
	if cleanup <= 0 {
		cleanup = 5 * time.Minute
	}
	return &cacheStateStore{
		cache: cache.New(cache.Config{
			DefaultTTL:      ttl,
			CleanupInterval: cleanup,
			MaxItems:        10000,
		}),
	}
}

func (s *cacheStateStore) Get(conversationID uuid.UUID) (*State, bool) {
	value, ok := s.cache.Get(conversationID.String())
	if !ok {
		return nil, false
	}
	state, ok := value.(*State)
	return state, ok
}

func (s *cacheStateStore) Set(conversationID uuid.UUID, state *State) {
	s.cache.Set(conversationID.String(), state)
}

func (s *cacheStateStore) Clear(conversationID uuid.UUID) {
	s.cache.Delete(conversationID.String())
}
