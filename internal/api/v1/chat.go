package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dodopoint/concierge/internal/ai"
	"github.com/dodopoint/concierge/internal/concierge"
	"github.com/dodopoint/concierge/internal/domain"
	"github.com/dodopoint/concierge/internal/server/middleware"
)

type ChatInput struct {
	Body struct {
		Message   string `json:"message" doc:"User message for the concierge"`
		SessionID string `json:"sessionId,omitempty" doc:"Conversation session ID; omit to start a new session"`
	}
}

type ChatOutput struct {
	Body struct {
		Message   string         `json:"message" doc:"Concierge reply"`
		Data      map[string]any `json:"data,omitempty" doc:"Structured result of any action taken"`
		SessionID string         `json:"sessionId" doc:"Session ID to send with the next message"`
		Timestamp int64          `json:"timestamp" doc:"Reply time in epoch milliseconds"`
	}
}

type ClearSessionInput struct {
	SessionID string `path:"sessionId" doc:"Session ID to clear"`
}

type WelcomeOutput struct {
	Body struct {
		Message string `json:"message" doc:"Greeting for a fresh conversation"`
	}
}

func RegisterChatRoutes(api huma.API, svc ChatService) {
	huma.Register(api, huma.Operation{
		OperationID: "chat",
		Method:      http.MethodPost,
		Path:        "/ai/chat",
		Summary:     "Send a message to the concierge",
		Tags:        []string{"AI"},
	}, func(ctx context.Context, input *ChatInput) (*ChatOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing user context")
		}

		result, err := svc.Chat(ctx, userID, input.Body.SessionID, input.Body.Message)
		if err != nil {
			if errors.Is(err, concierge.ErrEmptyMessage) {
				return nil, huma.Error400BadRequest("message is required and must be a non-empty string")
			}
			var genErr *ai.GenerationError
			if errors.As(err, &genErr) {
				return nil, huma.Error502BadGateway("the concierge is temporarily unavailable, please try again")
			}
			if errors.Is(err, domain.ErrConflict) {
				return nil, huma.Error409Conflict("wallet was modified concurrently, please retry")
			}
			return nil, huma.Error500InternalServerError("failed to process message", err)
		}

		out := &ChatOutput{}
		out.Body.Message = result.Message
		out.Body.Data = result.Data
		out.Body.SessionID = result.SessionID
		out.Body.Timestamp = result.Timestamp
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "clear-session",
		Method:      http.MethodDelete,
		Path:        "/ai/chat/sessions/{sessionId}",
		Summary:     "Clear a conversation session",
		Tags:        []string{"AI"},
	}, func(ctx context.Context, input *ClearSessionInput) (*struct{}, error) {
		cleared, err := svc.ClearSession(ctx, input.SessionID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to clear session", err)
		}
		if !cleared {
			return nil, huma.Error404NotFound("session not found")
		}

		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "welcome",
		Method:      http.MethodGet,
		Path:        "/ai/welcome",
		Summary:     "Get the concierge greeting",
		Tags:        []string{"AI"},
	}, func(_ context.Context, _ *struct{}) (*WelcomeOutput, error) {
		out := &WelcomeOutput{}
		out.Body.Message = ai.WelcomeMessage
		return out, nil
	})
}
