package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/taskpilot/ai/chat"
	"github.com/hrygo/taskpilot/ai/llm"
	"github.com/hrygo/taskpilot/ai/tools"
	"github.com/hrygo/taskpilot/store/teststore"
)

// scriptedGateway answers every elicitation with plain text.
type scriptedGateway struct {
	reply string
}

func (g *scriptedGateway) Chat(context.Context, []llm.Message) (string, *llm.CallStats, error) {
	return g.reply, &llm.CallStats{}, nil
}

func (g *scriptedGateway) ChatWithTools(context.Context, []llm.Message, []llm.ToolDescriptor) (*llm.ChatResponse, *llm.CallStats, error) {
	return &llm.ChatResponse{Content: g.reply}, &llm.CallStats{}, nil
}

func (*scriptedGateway) Warmup(context.Context) {}

func newTestChatService(t *testing.T) *ChatService {
	t.Helper()
	st := teststore.New()
	registry, err := tools.NewTaskRegistry(st)
	require.NoError(t, err)
	orchestrator, err := chat.NewOrchestrator(st, &scriptedGateway{reply: "hi there"}, registry, chat.NewStateStore(time.Minute), 1)
	require.NoError(t, err)
	return &ChatService{Store: st, Orchestrator: orchestrator}
}

func performChat(t *testing.T, service *ChatService, userID, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/"+userID, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/v1/chat/:user_id")
	c.SetParamNames("user_id")
	c.SetParamValues(userID)

	err := service.Chat(c)
	if err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestChatEndpoint(t *testing.T) {
	service := newTestChatService(t)

	rec := performChat(t, service, "u1", `{"message": "hello", "user_id": "u1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var response ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.NotEmpty(t, response.ConversationID)
	require.Equal(t, "hi there", response.Response)
	require.NotNil(t, response.ToolCalls)
	require.Empty(t, response.ToolCalls)

	// The returned conversation id resolves on the next turn.
	rec = performChat(t, service, "u1", `{"message": "again", "conversation_id": "`+response.ConversationID+`", "user_id": "u1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestChatEndpointRejectsMissingMessage(t *testing.T) {
	service := newTestChatService(t)
	rec := performChat(t, service, "u1", `{"user_id": "u1"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatEndpointRejectsMalformedConversationID(t *testing.T) {
	service := newTestChatService(t)
	rec := performChat(t, service, "u1", `{"message": "hello", "conversation_id": "not-a-uuid"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatEndpointUnknownConversation(t *testing.T) {
	service := newTestChatService(t)
	rec := performChat(t, service, "u1", `{"message": "hello", "conversation_id": "df5a7e3b-90cb-4edb-b0d7-6e5a3e6d9e61"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChatEndpointUnavailableWithoutOrchestrator(t *testing.T) {
	service := &ChatService{Store: teststore.New()}
	rec := performChat(t, service, "u1", `{"message": "hello"}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
