package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dodopoint/concierge/internal/domain"
	"github.com/dodopoint/concierge/internal/server/middleware"
)

type ListTransactionsInput struct {
	Type     string `query:"type" doc:"Filter by transaction type"`
	Category string `query:"category" doc:"Filter by category"`
	Limit    int    `query:"limit" minimum:"0" maximum:"100" doc:"Max results; defaults to 20"`
	Offset   int    `query:"offset" minimum:"0" doc:"Results to skip"`
}

type ListTransactionsOutput struct {
	Body struct {
		Transactions []*domain.Transaction `json:"transactions"`
		Total        int64                 `json:"total" doc:"Total matching transactions ignoring limit/offset"`
	}
}

type GetTransactionInput struct {
	ID string `path:"id" doc:"Transaction ID"`
}

type GetTransactionOutput struct {
	Body *domain.Transaction
}

type CreateTransactionInput struct {
	Body struct {
		Amount   float64 `json:"amount" doc:"Transaction amount; stored as an absolute value"`
		Type     string  `json:"type" enum:"credit,debit" doc:"Transaction type"`
		Reason   string  `json:"reason" minLength:"1" maxLength:"500" doc:"Why the transaction happened"`
		Category string  `json:"category,omitempty" doc:"Transaction category; defaults to other"`
	}
}

type CreateTransactionOutput struct {
	Body *domain.Transaction
}

type TransactionSummaryOutput struct {
	Body *domain.TransactionSummary
}

func RegisterTransactionRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "list-transactions",
		Method:      http.MethodGet,
		Path:        "/transactions",
		Summary:     "List the user's transactions",
		Tags:        []string{"Transactions"},
	}, func(ctx context.Context, input *ListTransactionsInput) (*ListTransactionsOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing user context")
		}

		f := domain.TransactionFilter{
			Type:     domain.TransactionType(input.Type),
			Category: domain.TransactionCategory(input.Category),
			Limit:    input.Limit,
			Offset:   input.Offset,
		}
		if f.Limit == 0 {
			f.Limit = 20
		}

		transactions, err := store.Transactions().List(ctx, userID, f)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list transactions", err)
		}

		total, err := store.Transactions().Count(ctx, userID, f)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to count transactions", err)
		}

		out := &ListTransactionsOutput{}
		out.Body.Transactions = transactions
		out.Body.Total = total
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-transaction",
		Method:      http.MethodGet,
		Path:        "/transactions/{id}",
		Summary:     "Get a transaction by ID",
		Tags:        []string{"Transactions"},
	}, func(ctx context.Context, input *GetTransactionInput) (*GetTransactionOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing user context")
		}

		tx, err := store.Transactions().GetByID(ctx, userID, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("transaction not found")
			}
			return nil, huma.Error500InternalServerError("failed to get transaction", err)
		}

		return &GetTransactionOutput{Body: tx}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "create-transaction",
		Method:      http.MethodPost,
		Path:        "/transactions",
		Summary:     "Record a transaction",
		Tags:        []string{"Transactions"},
	}, func(ctx context.Context, input *CreateTransactionInput) (*CreateTransactionOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing user context")
		}

		txType := domain.TransactionType(input.Body.Type)
		if !txType.Valid() {
			return nil, huma.Error400BadRequest("type must be 'credit' or 'debit'")
		}
		if input.Body.Amount == 0 {
			return nil, huma.Error400BadRequest("amount must be non-zero")
		}

		tx := domain.NewTransaction(userID, input.Body.Amount, txType,
			input.Body.Reason, domain.TransactionCategory(input.Body.Category))

		if err := store.Transactions().Create(ctx, tx); err != nil {
			return nil, huma.Error500InternalServerError("failed to create transaction", err)
		}

		appendAudit(ctx, store, domain.NewAuditEntry(userID,
			domain.ActionTransactionCreated, domain.AuditFinancial, tx.Reason))

		return &CreateTransactionOutput{Body: tx}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "transaction-summary",
		Method:      http.MethodGet,
		Path:        "/transactions/stats/summary",
		Summary:     "Summarize credits and debits",
		Tags:        []string{"Transactions"},
	}, func(ctx context.Context, _ *struct{}) (*TransactionSummaryOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing user context")
		}

		summary, err := store.Transactions().Summary(ctx, userID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to summarize transactions", err)
		}

		return &TransactionSummaryOutput{Body: summary}, nil
	})
}
