package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dodopoint/concierge/internal/domain"
	"github.com/dodopoint/concierge/internal/server/middleware"
)

type GetWalletOutput struct {
	Body *domain.Wallet
}

type EarnInput struct {
	Body struct {
		Type        string  `json:"type,omitempty" enum:"points,balance" doc:"What to add; defaults to points"`
		Amount      float64 `json:"amount" doc:"Points to earn or funds to add; must be positive"`
		Description string  `json:"description,omitempty" doc:"Reason shown in wallet history"`
	}
}

type EarnOutput struct {
	Body *domain.Wallet
}

type RedeemInput struct {
	Body struct {
		Points      int    `json:"points" doc:"DoDo points to redeem; must be positive"`
		Description string `json:"description,omitempty" doc:"Reason shown in wallet history"`
	}
}

type RedeemOutput struct {
	Body *domain.Wallet
}

func RegisterWalletRoutes(api huma.API, store DataStore, svc ChatService) {
	huma.Register(api, huma.Operation{
		OperationID: "get-wallet",
		Method:      http.MethodGet,
		Path:        "/wallet",
		Summary:     "Get the user's wallet",
		Tags:        []string{"Wallet"},
	}, func(ctx context.Context, _ *struct{}) (*GetWalletOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing user context")
		}

		w, err := svc.Wallet(ctx, userID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to get wallet", err)
		}

		return &GetWalletOutput{Body: w}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "earn",
		Method:      http.MethodPost,
		Path:        "/wallet/earn",
		Summary:     "Add points or funds to the wallet",
		Tags:        []string{"Wallet"},
	}, func(ctx context.Context, input *EarnInput) (*EarnOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing user context")
		}
		if input.Body.Amount <= 0 {
			return nil, huma.Error400BadRequest("amount must be positive")
		}

		w, err := svc.Wallet(ctx, userID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to get wallet", err)
		}

		action := domain.ActionPointsEarned
		description := input.Body.Description
		switch input.Body.Type {
		case "", "points":
			points := int(input.Body.Amount)
			if description == "" {
				description = fmt.Sprintf("Earned %d DoDo Points", points)
			}
			if err := w.EarnPoints(points, description); err != nil {
				return nil, huma.Error400BadRequest(err.Error())
			}
		case "balance":
			action = domain.ActionFundsAdded
			if description == "" {
				description = fmt.Sprintf("Added $%.2f to wallet", input.Body.Amount)
			}
			if err := w.Deposit(input.Body.Amount, description); err != nil {
				return nil, huma.Error400BadRequest(err.Error())
			}
		default:
			return nil, huma.Error400BadRequest("type must be 'points' or 'balance'")
		}

		if err := store.Wallets().Save(ctx, w); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return nil, huma.Error409Conflict("wallet was modified concurrently, retry")
			}
			return nil, huma.Error500InternalServerError("failed to save wallet", err)
		}

		appendAudit(ctx, store, domain.NewAuditEntry(userID, action, domain.AuditFinancial, description))

		return &EarnOutput{Body: w}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "redeem",
		Method:      http.MethodPost,
		Path:        "/wallet/redeem",
		Summary:     "Redeem DoDo points for wallet balance",
		Tags:        []string{"Wallet"},
	}, func(ctx context.Context, input *RedeemInput) (*RedeemOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing user context")
		}
		if input.Body.Points <= 0 {
			return nil, huma.Error400BadRequest("points must be positive")
		}

		w, err := svc.Wallet(ctx, userID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to get wallet", err)
		}

		description := input.Body.Description
		if description == "" {
			description = fmt.Sprintf("Redeemed %d DoDo Points", input.Body.Points)
		}

		if err := w.Redeem(input.Body.Points, description); err != nil {
			if errors.Is(err, domain.ErrInsufficientPoints) {
				return nil, huma.Error400BadRequest(fmt.Sprintf(
					"insufficient points: have %d, requested %d", w.DodoPoints, input.Body.Points))
			}
			return nil, huma.Error400BadRequest(err.Error())
		}

		if err := store.Wallets().Save(ctx, w); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return nil, huma.Error409Conflict("wallet was modified concurrently, retry")
			}
			return nil, huma.Error500InternalServerError("failed to save wallet", err)
		}

		appendAudit(ctx, store, domain.NewAuditEntry(userID, domain.ActionPointsRedeemed, domain.AuditFinancial, description))

		return &RedeemOutput{Body: w}, nil
	})
}
