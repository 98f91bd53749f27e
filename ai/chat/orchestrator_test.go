package chat

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/taskpilot/ai/llm"
	"github.com/hrygo/taskpilot/ai/tools"
	"github.com/hrygo/taskpilot/store"
	"github.com/hrygo/taskpilot/store/teststore"
)

// fakeGateway is a scripted llm.Service.
type fakeGateway struct {
	mu sync.Mutex

	chatWithToolsFn func(msgs []llm.Message) (*llm.ChatResponse, error)
	chatFn          func(msgs []llm.Message) (string, error)

	chatWithToolsCalls int
	chatCalls          int
}

func (f *fakeGateway) Chat(_ context.Context, msgs []llm.Message) (string, *llm.CallStats, error) {
	f.mu.Lock()
	f.chatCalls++
	fn := f.chatFn
	f.mu.Unlock()
	if fn == nil {
		return "ok", &llm.CallStats{}, nil
	}
	content, err := fn(msgs)
	return content, &llm.CallStats{}, err
}

func (f *fakeGateway) ChatWithTools(_ context.Context, msgs []llm.Message, _ []llm.ToolDescriptor) (*llm.ChatResponse, *llm.CallStats, error) {
	f.mu.Lock()
	f.chatWithToolsCalls++
	fn := f.chatWithToolsFn
	f.mu.Unlock()
	if fn == nil {
		return &llm.ChatResponse{Content: "ok"}, &llm.CallStats{}, nil
	}
	resp, err := fn(msgs)
	return resp, &llm.CallStats{}, err
}

func (*fakeGateway) Warmup(context.Context) {}

func newTestOrchestrator(t *testing.T, gateway llm.Service) (*Orchestrator, *store.Store) {
	t.Helper()
	st := teststore.New()
	registry, err := tools.NewTaskRegistry(st)
	require.NoError(t, err)
	orchestrator, err := NewOrchestrator(st, gateway, registry, NewStateStore(time.Minute), 2)
	require.NoError(t, err)
	return orchestrator, st
}

func createTask(t *testing.T, st *store.Store, userID, title string, description *string) *store.Task {
	t.Helper()
	now := time.Now().Unix()
	task, err := st.CreateTask(context.Background(), &store.Task{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       title,
		Description: description,
		Priority:    store.PriorityMedium,
		CreatedTs:   now,
		UpdatedTs:   now,
	})
	require.NoError(t, err)
	return task
}

func TestHandleTurnFreshConversation(t *testing.T) {
	ctx := context.Background()
	orchestrator, _ := newTestOrchestrator(t, &fakeGateway{})

	first, err := orchestrator.HandleTurn(ctx, "u1", nil, "hello")
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, first.ConversationID)
	require.Equal(t, "ok", first.Response)
	require.Empty(t, first.ToolCalls)

	second, err := orchestrator.HandleTurn(ctx, "u1", nil, "hello again")
	require.NoError(t, err)
	require.NotEqual(t, first.ConversationID, second.ConversationID, "each fresh turn mints a new conversation")

	// The minted id resolves on a follow-up turn.
	followUp, err := orchestrator.HandleTurn(ctx, "u1", &first.ConversationID, "continuing")
	require.NoError(t, err)
	require.Equal(t, first.ConversationID, followUp.ConversationID)
}

func TestHandleTurnConversationNotFound(t *testing.T) {
	orchestrator, _ := newTestOrchestrator(t, &fakeGateway{})

	unknown := uuid.New()
	_, err := orchestrator.HandleTurn(context.Background(), "u1", &unknown, "hello")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrConversationNotFound))
}

func TestHandleTurnHistoryOrdering(t *testing.T) {
	ctx := context.Background()
	orchestrator, st := newTestOrchestrator(t, &fakeGateway{})

	turn, err := orchestrator.HandleTurn(ctx, "u1", nil, "m1")
	require.NoError(t, err)
	for _, message := range []string{"m2", "m3"} {
		_, err := orchestrator.HandleTurn(ctx, "u1", &turn.ConversationID, message)
		require.NoError(t, err)
	}

	messages, err := st.ListMessages(ctx, &store.FindMessage{ConversationID: &turn.ConversationID})
	require.NoError(t, err)
	require.Len(t, messages, 6, "three user plus three assistant messages")

	var contents []string
	for _, message := range messages {
		contents = append(contents, message.Content)
	}
	require.Equal(t, []string{"m1", "ok", "m2", "ok", "m3", "ok"}, contents)
	for i, message := range messages {
		if i%2 == 0 {
			require.Equal(t, store.RoleUser, message.Role)
		} else {
			require.Equal(t, store.RoleAssistant, message.Role)
		}
	}
}

func TestHandleTurnClarificationHappyPath(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeGateway{}
	orchestrator, st := newTestOrchestrator(t, gateway)

	description := "2 liters"
	task := createTask(t, st, "u1", "Buy milk", &description)

	turn, err := orchestrator.HandleTurn(ctx, "u1", nil, "I want to update a task")
	require.NoError(t, err)
	require.Equal(t, replySelectTask, turn.Response)
	require.Empty(t, turn.ToolCalls)
	conversationID := turn.ConversationID

	turn, err = orchestrator.HandleTurn(ctx, "u1", &conversationID, "milk")
	require.NoError(t, err)
	require.Equal(t, "I found the task 'Buy milk'. What would you like the new name to be?", turn.Response)

	turn, err = orchestrator.HandleTurn(ctx, "u1", &conversationID, "Buy bread")
	require.NoError(t, err)
	require.Equal(t, "What would you like the new description to be for the task 'Buy milk'? (Reply with just the description or 'skip' to keep the current description)", turn.Response)

	calls := gateway.chatWithToolsCalls
	turn, err = orchestrator.HandleTurn(ctx, "u1", &conversationID, "skip")
	require.NoError(t, err)
	require.Equal(t, "Task 'Buy milk' has been updated to 'Buy bread'.", turn.Response)
	require.Len(t, turn.ToolCalls, 1)
	require.Equal(t, "update_task", turn.ToolCalls[0].Type)
	require.Equal(t, task.ID.String(), turn.ToolCalls[0].Params["task_id"])
	require.NotContains(t, turn.ToolCalls[0].Params, "description", "skip omits description")
	require.Equal(t, calls, gateway.chatWithToolsCalls, "clarification turns never consult the gateway")

	updated, err := st.GetTask(ctx, &store.FindTask{ID: &task.ID})
	require.NoError(t, err)
	require.NotNil(t, updated)
	require.Equal(t, "Buy bread", updated.Title)
	require.NotNil(t, updated.Description)
	require.Equal(t, "2 liters", *updated.Description, "description unchanged on skip")

	// State is back to none: the next turn goes to the gateway again.
	_, err = orchestrator.HandleTurn(ctx, "u1", &conversationID, "thanks")
	require.NoError(t, err)
	require.Equal(t, calls+1, gateway.chatWithToolsCalls)
}

func TestHandleTurnClarificationNoMatchRetry(t *testing.T) {
	ctx := context.Background()
	orchestrator, st := newTestOrchestrator(t, &fakeGateway{})
	createTask(t, st, "u1", "Buy milk", nil)

	turn, err := orchestrator.HandleTurn(ctx, "u1", nil, "I want to update a task")
	require.NoError(t, err)
	conversationID := turn.ConversationID

	turn, err = orchestrator.HandleTurn(ctx, "u1", &conversationID, "xyz")
	require.NoError(t, err)
	require.Equal(t, "I couldn't find a task matching 'xyz'. Could you please specify the task name again?", turn.Response)

	// Retry still works.
	turn, err = orchestrator.HandleTurn(ctx, "u1", &conversationID, "milk")
	require.NoError(t, err)
	require.Equal(t, "I found the task 'Buy milk'. What would you like the new name to be?", turn.Response)
}

func TestHandleTurnUpdateIntentWithoutTasks(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeGateway{}
	orchestrator, _ := newTestOrchestrator(t, gateway)

	turn, err := orchestrator.HandleTurn(ctx, "u1", nil, "I want to update a task")
	require.NoError(t, err)
	require.Equal(t, replyNoTasks, turn.Response)

	// No clarification state was entered: the next turn hits the gateway.
	calls := gateway.chatWithToolsCalls
	_, err = orchestrator.HandleTurn(ctx, "u1", &turn.ConversationID, "hello")
	require.NoError(t, err)
	require.Equal(t, calls+1, gateway.chatWithToolsCalls)
}

func TestHandleTurnUpdateIntentAfterNonUpdateToolCall(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeGateway{
		chatWithToolsFn: func([]llm.Message) (*llm.ChatResponse, error) {
			return &llm.ChatResponse{
				ToolCalls: []llm.ToolCall{{
					Function: llm.FunctionCall{Name: "read_all_tasks", Arguments: `{}`},
				}},
			}, nil
		},
		chatFn: func([]llm.Message) (string, error) {
			return "here are your tasks", nil
		},
	}
	orchestrator, st := newTestOrchestrator(t, gateway)
	createTask(t, st, "u1", "Buy milk", nil)

	// A non-update tool call does not satisfy an update-intent message;
	// the clarification flow still takes over.
	turn, err := orchestrator.HandleTurn(ctx, "u1", nil, "I want to update a task")
	require.NoError(t, err)
	require.Equal(t, replySelectTask, turn.Response)
	require.Empty(t, turn.ToolCalls, "the override clears the reported tool calls")

	calls := gateway.chatWithToolsCalls
	turn, err = orchestrator.HandleTurn(ctx, "u1", &turn.ConversationID, "milk")
	require.NoError(t, err)
	require.Equal(t, "I found the task 'Buy milk'. What would you like the new name to be?", turn.Response)
	require.Equal(t, calls, gateway.chatWithToolsCalls, "the selection turn never consults the gateway")
}

func TestHandleTurnGatewayUpdateToolSkipsClarification(t *testing.T) {
	ctx := context.Background()
	var taskID uuid.UUID
	gateway := &fakeGateway{
		chatWithToolsFn: func([]llm.Message) (*llm.ChatResponse, error) {
			return &llm.ChatResponse{
				ToolCalls: []llm.ToolCall{{
					Function: llm.FunctionCall{
						Name:      "update_task",
						Arguments: `{"task_id": "` + taskID.String() + `", "title": "Buy bread"}`,
					},
				}},
			}, nil
		},
		chatFn: func([]llm.Message) (string, error) {
			return "I renamed it for you.", nil
		},
	}
	orchestrator, st := newTestOrchestrator(t, gateway)
	taskID = createTask(t, st, "u1", "Buy milk", nil).ID

	turn, err := orchestrator.HandleTurn(ctx, "u1", nil, "update my task please")
	require.NoError(t, err)
	require.Equal(t, "I renamed it for you.", turn.Response, "a gateway update_task call suppresses the clarification flow")
	require.Len(t, turn.ToolCalls, 1)
	require.Equal(t, "update_task", turn.ToolCalls[0].Type)

	// No clarification state was entered: the next turn hits the gateway.
	calls := gateway.chatWithToolsCalls
	_, err = orchestrator.HandleTurn(ctx, "u1", &turn.ConversationID, "thanks")
	require.NoError(t, err)
	require.Equal(t, calls+1, gateway.chatWithToolsCalls)
}

func TestHandleTurnToolCall(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeGateway{
		chatWithToolsFn: func([]llm.Message) (*llm.ChatResponse, error) {
			return &llm.ChatResponse{
				ToolCalls: []llm.ToolCall{{
					ID:   "call-1",
					Type: "function",
					Function: llm.FunctionCall{
						Name:      "add_task",
						Arguments: `{"title": "Write report"}`,
					},
				}},
			}, nil
		},
		chatFn: func([]llm.Message) (string, error) {
			return "I added the task for you.", nil
		},
	}
	orchestrator, st := newTestOrchestrator(t, gateway)

	turn, err := orchestrator.HandleTurn(ctx, "u1", nil, "add a task to write the report")
	require.NoError(t, err)
	require.Equal(t, "I added the task for you.", turn.Response)
	require.Len(t, turn.ToolCalls, 1)
	require.Equal(t, "add_task", turn.ToolCalls[0].Type)
	require.Equal(t, "u1", turn.ToolCalls[0].Params["user_id"], "user_id injected into tool arguments")

	userID := "u1"
	tasks, err := st.ListTasks(ctx, &store.FindTask{UserID: &userID})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.Equal(t, "Write report", tasks[0].Title)

	// Exactly one assistant message despite the extra gateway round trip.
	messages, err := st.ListMessages(ctx, &store.FindMessage{ConversationID: &turn.ConversationID})
	require.NoError(t, err)
	assistants := 0
	for _, message := range messages {
		if message.Role == store.RoleAssistant {
			assistants++
		}
	}
	require.Equal(t, 1, assistants)
}

func TestHandleTurnDuplicateAddTask(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeGateway{
		chatWithToolsFn: func([]llm.Message) (*llm.ChatResponse, error) {
			return &llm.ChatResponse{
				ToolCalls: []llm.ToolCall{{
					Function: llm.FunctionCall{Name: "add_task", Arguments: `{"title": "Pay rent"}`},
				}},
			}, nil
		},
	}
	orchestrator, st := newTestOrchestrator(t, gateway)

	for i := 0; i < 2; i++ {
		_, err := orchestrator.HandleTurn(ctx, "u1", nil, "add a task to pay rent")
		require.NoError(t, err)
	}

	userID := "u1"
	tasks, err := st.ListTasks(ctx, &store.FindTask{UserID: &userID})
	require.NoError(t, err)
	require.Len(t, tasks, 2, "no idempotency: identical turns create duplicate tasks")
	require.NotEqual(t, tasks[0].ID, tasks[1].ID)
}

func TestHandleTurnGatewayFailure(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeGateway{
		chatWithToolsFn: func([]llm.Message) (*llm.ChatResponse, error) {
			return nil, errors.New("quota exceeded")
		},
	}
	orchestrator, st := newTestOrchestrator(t, gateway)

	turn, err := orchestrator.HandleTurn(ctx, "u1", nil, "hello")
	require.NoError(t, err, "gateway failure does not fail the turn")
	require.Equal(t, fallbackReply, turn.Response)
	require.Empty(t, turn.ToolCalls)

	// Both the user message and the fallback reply are persisted.
	messages, err := st.ListMessages(ctx, &store.FindMessage{ConversationID: &turn.ConversationID})
	require.NoError(t, err)
	require.Len(t, messages, 2)
	require.Equal(t, store.RoleUser, messages[0].Role)
	require.Equal(t, store.RoleAssistant, messages[1].Role)
	require.Equal(t, fallbackReply, messages[1].Content)
}

func TestHandleTurnUnknownTool(t *testing.T) {
	gateway := &fakeGateway{
		chatWithToolsFn: func([]llm.Message) (*llm.ChatResponse, error) {
			return &llm.ChatResponse{
				ToolCalls: []llm.ToolCall{{
					Function: llm.FunctionCall{Name: "launch_rocket", Arguments: `{}`},
				}},
			}, nil
		},
	}
	orchestrator, _ := newTestOrchestrator(t, gateway)

	_, err := orchestrator.HandleTurn(context.Background(), "u1", nil, "do something")
	require.Error(t, err)
	require.True(t, errors.Is(err, tools.ErrUnknownTool))
}

func TestHandleTurnUnknownToolAbortsBatch(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeGateway{
		chatWithToolsFn: func([]llm.Message) (*llm.ChatResponse, error) {
			return &llm.ChatResponse{
				ToolCalls: []llm.ToolCall{
					{Function: llm.FunctionCall{Name: "add_task", Arguments: `{"title": "Pay rent"}`}},
					{Function: llm.FunctionCall{Name: "launch_rocket", Arguments: `{}`}},
				},
			}, nil
		},
	}
	orchestrator, st := newTestOrchestrator(t, gateway)

	_, err := orchestrator.HandleTurn(ctx, "u1", nil, "do something")
	require.Error(t, err)
	require.True(t, errors.Is(err, tools.ErrUnknownTool))

	// The valid call ahead of the unknown one must not have executed.
	userID := "u1"
	tasks, err := st.ListTasks(ctx, &store.FindTask{UserID: &userID})
	require.NoError(t, err)
	require.Empty(t, tasks, "no tool runs when any requested tool is unknown")
}

func TestParseConversationID(t *testing.T) {
	id := uuid.New()
	parsed, err := ParseConversationID(id.String())
	require.NoError(t, err)
	require.Equal(t, id, parsed)

	_, err = ParseConversationID("not-a-uuid")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInvalidConversationID))
}
