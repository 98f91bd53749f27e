package v1

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/hrygo/taskpilot/ai/chat"
	"github.com/hrygo/taskpilot/store"
)

// ChatService handles conversational turns. Orchestrator is nil when AI
// features are disabled; the endpoint then answers 503.
type ChatService struct {
	Store        *store.Store
	Orchestrator *chat.Orchestrator
}

type ChatRequest struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
	UserID         string `json:"user_id"`
}

type ChatResponse struct {
	ConversationID string                `json:"conversation_id"`
	Response       string                `json:"response"`
	ToolCalls      []chat.ToolCallRecord `json:"tool_calls"`
	Timestamp      string                `json:"timestamp"`
}

func (s *ChatService) RegisterRoutes(g *echo.Group) {
	g.POST("/chat/:user_id", s.Chat)
}

// Chat runs one conversational turn for the user in the path.
func (s *ChatService) Chat(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Param("user_id")
	if userID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "User ID is required")
	}

	request := &ChatRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Malformed request body")
	}
	if request.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Message is required")
	}

	if s.Orchestrator == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "AI features are disabled")
	}

	var conversationID *uuid.UUID
	if request.ConversationID != "" {
		id, err := chat.ParseConversationID(request.ConversationID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid conversation ID format")
		}
		conversationID = &id
	}

	turn, err := s.Orchestrator.HandleTurn(ctx, userID, conversationID, request.Message)
	if err != nil {
		if errors.Is(err, chat.ErrConversationNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Conversation not found")
		}
		slog.Error("chat turn failed", "user_id", userID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to handle chat turn")
	}

	return c.JSON(http.StatusOK, &ChatResponse{
		ConversationID: turn.ConversationID.String(),
		Response:       turn.Response,
		ToolCalls:      turn.ToolCalls,
		Timestamp:      turn.Timestamp.Format(time.RFC3339),
	})
}
