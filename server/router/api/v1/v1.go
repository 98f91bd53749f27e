// Package v1 holds the REST API surface: the chat turn endpoint, task
// CRUD, and conversation browsing.
package v1

import (
	"context"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/hrygo/taskpilot/ai/chat"
	"github.com/hrygo/taskpilot/ai/llm"
	"github.com/hrygo/taskpilot/ai/tools"
	"github.com/hrygo/taskpilot/internal/profile"
	"github.com/hrygo/taskpilot/store"
)

const (
	// clarificationTTL bounds how long an abandoned update-task flow
	// stays live before its state expires.
	clarificationTTL = 30 * time.Minute

	// maxConcurrentLLMCalls caps in-flight upstream LLM requests across
	// all conversations.
	maxConcurrentLLMCalls = 8
)

type APIV1Service struct {
	// Domain Services
	ChatService         *ChatService
	TaskService         *TaskService
	ConversationService *ConversationService

	// Shared Infra
	Profile *profile.Profile
	Store   *store.Store
}

func NewAPIV1Service(instanceProfile *profile.Profile, st *store.Store) (*APIV1Service, error) {
	service := &APIV1Service{
		Profile: instanceProfile,
		Store:   st,
	}

	var orchestrator *chat.Orchestrator
	if instanceProfile.IsAIEnabled() {
		gateway, err := llm.NewService(&llm.Config{
			Provider: instanceProfile.LLMProvider,
			Model:    instanceProfile.LLMModel,
			APIKey:   instanceProfile.LLMAPIKey,
			BaseURL:  instanceProfile.LLMBaseURL,
			Timeout:  instanceProfile.LLMTimeout,
		})
		if err != nil {
			slog.Warn("failed to initialize LLM service, chat will be unavailable",
				"provider", instanceProfile.LLMProvider,
				"error", err,
			)
		} else {
			// Warmup is best-effort; a failure only means a slower first request.
			go func() {
				warmupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				gateway.Warmup(warmupCtx)
			}()

			registry, err := tools.NewTaskRegistry(st)
			if err != nil {
				return nil, errors.Wrap(err, "failed to build tool registry")
			}
			orchestrator, err = chat.NewOrchestrator(st, gateway, registry, chat.NewStateStore(clarificationTTL), maxConcurrentLLMCalls)
			if err != nil {
				return nil, errors.Wrap(err, "failed to build chat orchestrator")
			}
			slog.Info("chat orchestrator initialized",
				"provider", instanceProfile.LLMProvider,
				"model", instanceProfile.LLMModel,
			)
		}
	} else {
		slog.Info("AI features disabled: no LLM API key configured")
	}

	service.ChatService = &ChatService{Store: st, Orchestrator: orchestrator}
	service.TaskService = &TaskService{Store: st}
	service.ConversationService = &ConversationService{Store: st}

	return service, nil
}

// RegisterRoutes attaches all v1 endpoints under /api/v1.
func (s *APIV1Service) RegisterRoutes(echoServer *echo.Echo) {
	g := echoServer.Group("/api/v1")
	s.ChatService.RegisterRoutes(g)
	s.TaskService.RegisterRoutes(g)
	s.ConversationService.RegisterRoutes(g)
}
