package v1

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hrygo/taskpilot/store"
)

// ConversationService exposes read access to conversation history and
// deletion of whole conversations.
type ConversationService struct {
	Store *store.Store
}

type ConversationResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type MessageResponse struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	Role           string `json:"role"`
	Content        string `json:"content"`
	CreatedAt      string `json:"created_at"`
}

func (s *ConversationService) RegisterRoutes(g *echo.Group) {
	g.GET("/conversations/:user_id", s.ListConversations)
	g.GET("/conversations/:user_id/:conversation_id/messages", s.ListMessages)
	g.DELETE("/conversations/:user_id/:conversation_id", s.DeleteConversation)
}

func (s *ConversationService) ListConversations(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Param("user_id")

	conversations, err := s.Store.ListConversations(ctx, &store.FindConversation{UserID: &userID})
	if err != nil {
		slog.Error("failed to list conversations", "user_id", userID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list conversations")
	}

	response := make([]*ConversationResponse, 0, len(conversations))
	for _, conversation := range conversations {
		response = append(response, &ConversationResponse{
			ID:        conversation.ID.String(),
			UserID:    conversation.UserID,
			CreatedAt: time.Unix(conversation.CreatedTs, 0).UTC().Format(time.RFC3339),
			UpdatedAt: time.Unix(conversation.UpdatedTs, 0).UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, response)
}

func (s *ConversationService) ListMessages(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Param("user_id")
	conversationID, err := uuid.Parse(c.Param("conversation_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid conversation ID format")
	}

	conversation, err := s.Store.GetConversation(ctx, conversationID)
	if err != nil {
		slog.Error("failed to get conversation", "conversation_id", conversationID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to get conversation")
	}
	if conversation == nil || conversation.UserID != userID {
		return echo.NewHTTPError(http.StatusNotFound, "Conversation not found")
	}

	messages, err := s.Store.ListMessages(ctx, &store.FindMessage{ConversationID: &conversationID})
	if err != nil {
		slog.Error("failed to list messages", "conversation_id", conversationID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list messages")
	}

	response := make([]*MessageResponse, 0, len(messages))
	for _, message := range messages {
		response = append(response, &MessageResponse{
			ID:             message.ID.String(),
			ConversationID: message.ConversationID.String(),
			Role:           string(message.Role),
			Content:        message.Content,
			CreatedAt:      time.UnixMicro(message.CreatedTs).UTC().Format(time.RFC3339Nano),
		})
	}
	return c.JSON(http.StatusOK, response)
}

func (s *ConversationService) DeleteConversation(c echo.Context) error {
	ctx := c.Request().Context()
	userID := c.Param("user_id")
	conversationID, err := uuid.Parse(c.Param("conversation_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid conversation ID format")
	}

	conversation, err := s.Store.GetConversation(ctx, conversationID)
	if err != nil {
		slog.Error("failed to get conversation", "conversation_id", conversationID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete conversation")
	}
	if conversation == nil || conversation.UserID != userID {
		return echo.NewHTTPError(http.StatusNotFound, "Conversation not found")
	}

	if err := s.Store.DeleteConversation(ctx, &store.DeleteConversation{ID: conversationID}); err != nil {
		slog.Error("failed to delete conversation", "conversation_id", conversationID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete conversation")
	}
	return c.NoContent(http.StatusNoContent)
}
