package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"

	"github.com/dodopoint/concierge/internal/ai"
	"github.com/dodopoint/concierge/internal/concierge"
	"github.com/dodopoint/concierge/internal/domain"
	"github.com/dodopoint/concierge/internal/server/middleware"
)

type ListAuditInput struct {
	Category string `query:"category" doc:"Filter by audit category"`
	Action   string `query:"action" doc:"Filter by audit action"`
	Limit    int    `query:"limit" minimum:"0" maximum:"100" doc:"Max results; defaults to 20"`
	Offset   int    `query:"offset" minimum:"0" doc:"Results to skip"`
}

type ListAuditOutput struct {
	Body struct {
		Logs  []*domain.AuditEntry `json:"logs"`
		Total int64                `json:"total" doc:"Total matching entries ignoring limit/offset"`
	}
}

type GetAuditInput struct {
	LogID string `path:"logId" doc:"Audit log ID"`
}

type GetAuditOutput struct {
	Body struct {
		Entry    *domain.AuditEntry `json:"entry"`
		Verified bool               `json:"verified" doc:"Whether the entry still matches its integrity checksum"`
	}
}

type AuditStatsOutput struct {
	Body *domain.AuditStats
}

type ExplainInput struct {
	Body struct {
		TransactionID string `json:"transactionId,omitempty" doc:"Transaction to explain"`
		Question      string `json:"question,omitempty" doc:"The user's question; defaults to 'Why was I charged?'"`
	}
}

type ExplainOutput struct {
	Body *concierge.Explanation
}

func RegisterAuditRoutes(api huma.API, store DataStore, svc ChatService) {
	huma.Register(api, huma.Operation{
		OperationID: "list-audit-logs",
		Method:      http.MethodGet,
		Path:        "/audit",
		Summary:     "List the user's audit log",
		Tags:        []string{"Audit"},
	}, func(ctx context.Context, input *ListAuditInput) (*ListAuditOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing user context")
		}

		f := domain.AuditFilter{
			Category: domain.AuditCategory(input.Category),
			Action:   domain.AuditAction(input.Action),
			Limit:    input.Limit,
			Offset:   input.Offset,
		}
		if f.Limit == 0 {
			f.Limit = 20
		}

		logs, err := store.Audit().List(ctx, userID, f)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list audit logs", err)
		}

		total, err := store.Audit().Count(ctx, userID, f)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to count audit logs", err)
		}

		out := &ListAuditOutput{}
		out.Body.Logs = logs
		out.Body.Total = total
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-audit-log",
		Method:      http.MethodGet,
		Path:        "/audit/{logId}",
		Summary:     "Get an audit log entry with integrity verification",
		Tags:        []string{"Audit"},
	}, func(ctx context.Context, input *GetAuditInput) (*GetAuditOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing user context")
		}

		entry, err := store.Audit().GetByID(ctx, userID, input.LogID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("audit log not found")
			}
			return nil, huma.Error500InternalServerError("failed to get audit log", err)
		}

		out := &GetAuditOutput{}
		out.Body.Entry = entry
		out.Body.Verified = entry.Verify()
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "audit-stats",
		Method:      http.MethodGet,
		Path:        "/audit/summary/stats",
		Summary:     "Summarize audit activity by category",
		Tags:        []string{"Audit"},
	}, func(ctx context.Context, _ *struct{}) (*AuditStatsOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing user context")
		}

		stats, err := store.Audit().Stats(ctx, userID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to get audit stats", err)
		}

		return &AuditStatsOutput{Body: stats}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "explain-charge",
		Method:      http.MethodPost,
		Path:        "/audit/explain",
		Summary:     "Ask the concierge to explain a charge",
		Tags:        []string{"Audit"},
	}, func(ctx context.Context, input *ExplainInput) (*ExplainOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing user context")
		}

		explanation, err := svc.ExplainCharge(ctx, userID, input.Body.TransactionID, input.Body.Question)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("transaction not found")
			}
			var genErr *ai.GenerationError
			if errors.As(err, &genErr) {
				return nil, huma.Error502BadGateway("the concierge is temporarily unavailable, please try again")
			}
			return nil, huma.Error500InternalServerError("failed to explain charge", err)
		}

		return &ExplainOutput{Body: explanation}, nil
	})
}

// appendAudit records an entry without failing the request. The primary
// mutation has already been persisted when this runs.
func appendAudit(ctx context.Context, store DataStore, entry *domain.AuditEntry) {
	if err := store.Audit().Append(ctx, entry); err != nil {
		log.Warn().Err(err).
			Str("action", string(entry.Action)).
			Str("user_id", entry.UserID).
			Msg("failed to append audit entry")
	}
}
