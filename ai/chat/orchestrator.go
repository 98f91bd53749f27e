// Package chat implements the conversational turn loop: conversation
// resolution, LLM tool dispatch, and the multi-turn update-task
// clarification flow.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"

	"github.com/hrygo/taskpilot/ai/llm"
	"github.com/hrygo/taskpilot/ai/tools"
	"github.com/hrygo/taskpilot/internal/metrics"
	"github.com/hrygo/taskpilot/store"
)

var (
	// ErrConversationNotFound is returned when a supplied conversation id
	// does not resolve.
	ErrConversationNotFound = errors.New("conversation not found")
	// ErrInvalidConversationID is returned when a supplied conversation id
	// is not a well-formed UUID.
	ErrInvalidConversationID = errors.New("invalid conversation id")
)

// ParseConversationID parses a caller-supplied conversation id, wrapping
// malformed input in ErrInvalidConversationID.
func ParseConversationID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.Wrapf(ErrInvalidConversationID, "%s", raw)
	}
	return id, nil
}

// Replies produced by the clarification flow. Tests pin these verbatim.
const (
	replySelectTask = "Which task would you like to update? Please specify the task name."
	replyNoTasks    = "You don't have any tasks to update. Would you like to add a new task instead?"
	replyFoundTask  = "I found the task '%s'. What would you like the new name to be?"
	replyNoMatch    = "I couldn't find a task matching '%s'. Could you please specify the task name again?"
	replyAskDesc    = "What would you like the new description to be for the task '%s'? (Reply with just the description or 'skip' to keep the current description)"
	replyUpdated    = "Task '%s' has been updated to '%s'."

	// fallbackReply is used when the LLM gateway fails mid-turn. The user
	// message is already persisted by then, so the turn still completes.
	fallbackReply = "I'm sorry, I'm having trouble responding right now. Please try again in a moment."
)

// ToolCallRecord is one tool invocation made during a turn, reported to
// the caller in execution order.
type ToolCallRecord struct {
	Type   string         `json:"type"`
	Params map[string]any `json:"params"`
}

// Turn is the outcome of one chat turn.
type Turn struct {
	ConversationID uuid.UUID        `json:"conversation_id"`
	Response       string           `json:"response"`
	ToolCalls      []ToolCallRecord `json:"tool_calls"`
	Timestamp      time.Time        `json:"timestamp"`
}

// Orchestrator drives chat turns. Turns for the same conversation are
// serialized with a per-conversation lock; concurrent LLM calls across
// all conversations are bounded by a weighted semaphore.
type Orchestrator struct {
	store    *store.Store
	gateway  llm.Service
	registry *tools.Registry
	states   StateStore

	descriptors []llm.ToolDescriptor
	locker      *keyedLocker
	llmSem      *semaphore.Weighted
}

// NewOrchestrator creates an orchestrator. maxConcurrentLLM caps in-flight
// gateway calls; values below 1 are raised to 1.
func NewOrchestrator(st *store.Store, gateway llm.Service, registry *tools.Registry, states StateStore, maxConcurrentLLM int64) (*Orchestrator, error) {
	if st == nil {
		return nil, errors.New("store cannot be nil")
	}
	if gateway == nil {
		return nil, errors.New("llm gateway cannot be nil")
	}
	if registry == nil {
		return nil, errors.New("tool registry cannot be nil")
	}
	if states == nil {
		states = NewStateStore(30 * time.Minute)
	}
	if maxConcurrentLLM < 1 {
		maxConcurrentLLM = 1
	}
	return &Orchestrator{
		store:       st,
		gateway:     gateway,
		registry:    registry,
		states:      states,
		descriptors: registry.Descriptors(),
		locker:      newKeyedLocker(),
		llmSem:      semaphore.NewWeighted(maxConcurrentLLM),
	}, nil
}

// HandleTurn runs one chat turn: resolve or create the conversation,
// persist the user message, then either advance a pending clarification
// or run the tool-dispatch round trip through the LLM gateway. Exactly
// one assistant message is persisted per successful turn.
func (o *Orchestrator) HandleTurn(ctx context.Context, userID string, conversationID *uuid.UUID, message string) (*Turn, error) {
	start := time.Now()
	turn, outcome, err := o.handleTurn(ctx, userID, conversationID, message)
	metrics.ChatTurns.WithLabelValues(outcome).Inc()
	metrics.TurnDuration.Observe(time.Since(start).Seconds())
	return turn, err
}

func (o *Orchestrator) handleTurn(ctx context.Context, userID string, conversationID *uuid.UUID, message string) (*Turn, string, error) {
	conversation, err := o.resolveConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, "error", err
	}

	unlock := o.locker.Lock(conversation.ID.String())
	defer unlock()

	history, err := o.store.ListMessages(ctx, &store.FindMessage{ConversationID: &conversation.ID})
	if err != nil {
		return nil, "error", errors.Wrap(err, "failed to list messages")
	}

	if err := o.persistMessage(ctx, userID, conversation.ID, store.RoleUser, message); err != nil {
		return nil, "error", err
	}

	// A pending clarification takes strict precedence: the gateway is not
	// consulted for this turn.
	if state, ok := o.states.Get(conversation.ID); ok {
		reply, toolCalls, err := o.advanceClarification(ctx, userID, conversation.ID, message, state)
		if err != nil {
			return nil, "error", err
		}
		if err := o.persistMessage(ctx, userID, conversation.ID, store.RoleAssistant, reply); err != nil {
			return nil, "error", err
		}
		return newTurn(conversation.ID, reply, toolCalls), "clarification", nil
	}

	msgs := make([]llm.Message, 0, len(history)+1)
	for _, m := range history {
		msgs = append(msgs, llm.Message{Role: string(m.Role), Content: m.Content})
	}
	msgs = append(msgs, llm.UserMessage(message))

	reply, toolCalls, failed, err := o.dispatch(ctx, userID, msgs)
	if err != nil {
		return nil, "error", err
	}
	if failed {
		if err := o.persistMessage(ctx, userID, conversation.ID, store.RoleAssistant, reply); err != nil {
			return nil, "error", err
		}
		return newTurn(conversation.ID, reply, nil), "llm_error", nil
	}

	outcome := "chat"
	if len(toolCalls) > 0 {
		outcome = "tool_call"
	}

	// The gateway handled an update-intent message only if it emitted an
	// update_task call itself; any other outcome enters the clarification
	// flow instead of trusting the free-text reply.
	if !hasToolCall(toolCalls, "update_task") && WantsTaskUpdate(message) {
		tasks, err := o.store.ListTasks(ctx, &store.FindTask{UserID: &userID})
		if err != nil {
			return nil, "error", errors.Wrap(err, "failed to list tasks")
		}
		toolCalls = nil
		if len(tasks) > 0 {
			o.states.Set(conversation.ID, &State{Phase: PhaseAwaitingTaskSelection})
			reply = replySelectTask
		} else {
			reply = replyNoTasks
		}
		outcome = "clarification"
	}

	if err := o.persistMessage(ctx, userID, conversation.ID, store.RoleAssistant, reply); err != nil {
		return nil, "error", err
	}
	return newTurn(conversation.ID, reply, toolCalls), outcome, nil
}

// dispatch runs the two-phase gateway protocol: elicit with the tool
// catalog, execute each requested tool, then feed the tool result back
// for narration. The last narration wins when multiple tools were
// called. A gateway failure in either phase is reported via failed=true
// with a fallback reply; only an unknown tool name is a hard error.
func (o *Orchestrator) dispatch(ctx context.Context, userID string, msgs []llm.Message) (reply string, toolCalls []ToolCallRecord, failed bool, err error) {
	resp, chatErr := o.chatWithTools(ctx, msgs)
	if chatErr != nil {
		slog.Error("chat: tool elicitation failed", "error", chatErr)
		return fallbackReply, nil, true, nil
	}

	// Validate every requested name before executing any, so an unknown
	// tool aborts the turn with no partial mutation.
	for _, call := range resp.ToolCalls {
		if _, ok := o.registry.Get(call.Function.Name); !ok {
			return "", nil, false, errors.Wrap(tools.ErrUnknownTool, call.Function.Name)
		}
	}

	reply = resp.Content
	for _, call := range resp.ToolCalls {
		args := map[string]any{}
		if jsonErr := json.Unmarshal([]byte(call.Function.Arguments), &args); jsonErr != nil {
			slog.Error("chat: malformed tool arguments", "tool", call.Function.Name, "error", jsonErr)
			return fallbackReply, nil, true, nil
		}
		if _, ok := args["user_id"]; !ok {
			args["user_id"] = userID
		}

		result, execErr := o.registry.Execute(ctx, call.Function.Name, args)
		if execErr != nil {
			return "", nil, false, execErr
		}
		toolCalls = append(toolCalls, ToolCallRecord{Type: call.Function.Name, Params: args})

		msgs = append(msgs, llm.UserMessage(result.String()))
		narration, narrateErr := o.chat(ctx, msgs)
		if narrateErr != nil {
			slog.Error("chat: tool narration failed", "tool", call.Function.Name, "error", narrateErr)
			return fallbackReply, nil, true, nil
		}
		msgs = append(msgs, llm.AssistantMessage(narration))
		reply = narration
	}
	return reply, toolCalls, false, nil
}

// advanceClarification applies exactly one state-machine transition for
// the turn. State is only mutated after the reads it depends on succeed.
func (o *Orchestrator) advanceClarification(ctx context.Context, userID string, conversationID uuid.UUID, message string, state *State) (string, []ToolCallRecord, error) {
	switch state.Phase {
	case PhaseAwaitingTaskSelection:
		tasks, err := o.store.ListTasks(ctx, &store.FindTask{UserID: &userID})
		if err != nil {
			return "", nil, errors.Wrap(err, "failed to list tasks")
		}
		matched := MatchTaskTitle(message, tasks)
		if matched == nil {
			// No transition; the user may retry indefinitely.
			return fmt.Sprintf(replyNoMatch, message), nil, nil
		}
		o.states.Set(conversationID, &State{
			Phase:     PhaseAwaitingNewTitle,
			TaskID:    matched.ID,
			TaskTitle: matched.Title,
		})
		return fmt.Sprintf(replyFoundTask, matched.Title), nil, nil

	case PhaseAwaitingNewTitle:
		// The new title is taken verbatim, no validation.
		o.states.Set(conversationID, &State{
			Phase:     PhaseAwaitingNewDescription,
			TaskID:    state.TaskID,
			TaskTitle: state.TaskTitle,
			NewTitle:  message,
		})
		return fmt.Sprintf(replyAskDesc, state.TaskTitle), nil, nil

	case PhaseAwaitingNewDescription:
		o.states.Clear(conversationID)
		params := map[string]any{
			"user_id": userID,
			"task_id": state.TaskID.String(),
			"title":   state.NewTitle,
		}
		if !IsSkip(message) {
			params["description"] = message
		}
		result, err := o.registry.Execute(ctx, "update_task", params)
		if err != nil {
			return "", nil, err
		}
		if result.IsError() {
			slog.Warn("chat: clarification update failed", "task_id", state.TaskID, "message", result.Message)
		}
		return fmt.Sprintf(replyUpdated, state.TaskTitle, state.NewTitle),
			[]ToolCallRecord{{Type: "update_task", Params: params}}, nil

	default:
		o.states.Clear(conversationID)
		return "", nil, errors.Errorf("unexpected clarification phase: %s", state.Phase)
	}
}

func (o *Orchestrator) resolveConversation(ctx context.Context, userID string, conversationID *uuid.UUID) (*store.Conversation, error) {
	if conversationID == nil {
		now := time.Now().Unix()
		conversation, err := o.store.CreateConversation(ctx, &store.Conversation{
			ID:        uuid.New(),
			UserID:    userID,
			CreatedTs: now,
			UpdatedTs: now,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to create conversation")
		}
		return conversation, nil
	}

	conversation, err := o.store.GetConversation(ctx, *conversationID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get conversation")
	}
	if conversation == nil {
		return nil, errors.Wrapf(ErrConversationNotFound, "%s", conversationID)
	}
	if conversation.UserID != userID {
		// Conversations are not access-controlled; surface cross-user
		// continuation in logs so it can be audited.
		slog.Warn("chat: conversation continued by different user",
			"conversation_id", conversation.ID,
			"owner", conversation.UserID,
			"user_id", userID,
		)
	}
	return conversation, nil
}

func (o *Orchestrator) persistMessage(ctx context.Context, userID string, conversationID uuid.UUID, role store.Role, content string) error {
	_, err := o.store.CreateMessage(ctx, &store.Message{
		ID:             uuid.New(),
		UserID:         userID,
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedTs:      time.Now().UnixMicro(),
	})
	return errors.Wrapf(err, "failed to persist %s message", role)
}

func (o *Orchestrator) chatWithTools(ctx context.Context, msgs []llm.Message) (*llm.ChatResponse, error) {
	if err := o.llmSem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer o.llmSem.Release(1)
	resp, _, err := o.gateway.ChatWithTools(ctx, msgs, o.descriptors)
	return resp, err
}

func (o *Orchestrator) chat(ctx context.Context, msgs []llm.Message) (string, error) {
	if err := o.llmSem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer o.llmSem.Release(1)
	content, _, err := o.gateway.Chat(ctx, msgs)
	return content, err
}

func hasToolCall(calls []ToolCallRecord, name string) bool {
	for _, call := range calls {
		if call.Type == name {
			return true
		}
	}
	return false
}

func newTurn(conversationID uuid.UUID, reply string, toolCalls []ToolCallRecord) *Turn {
	if toolCalls == nil {
		toolCalls = []ToolCallRecord{}
	}
	return &Turn{
		ConversationID: conversationID,
		Response:       reply,
		ToolCalls:      toolCalls,
		Timestamp:      time.Now(),
	}
}
