package v1_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/dodopoint/concierge/internal/api/v1"
	"github.com/dodopoint/concierge/internal/domain"
)

func walletService(w *domain.Wallet) *mockChatService {
	return &mockChatService{
		walletFunc: func(_ context.Context, _ string) (*domain.Wallet, error) {
			return w, nil
		},
	}
}

// ---------------------------------------------------------------------------
// TestGetWallet
// ---------------------------------------------------------------------------

func TestGetWallet(t *testing.T) {
	t.Parallel()

	_, api := humatest.New(t)
	wallet := domain.NewWallet("demo-user-001", 1000, 50)
	store := &mockDataStore{audit: &mockAuditRepo{}}
	v1.RegisterWalletRoutes(api, store, walletService(wallet))

	resp := api.GetCtx(userCtx("demo-user-001"), "/wallet")

	require.Equal(t, http.StatusOK, resp.Code)

	var body domain.Wallet
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "demo-user-001", body.UserID)
	assert.Equal(t, 1000.0, body.Balance)
	assert.Equal(t, 50, body.DodoPoints)
}

// ---------------------------------------------------------------------------
// TestEarn
// ---------------------------------------------------------------------------

func TestEarn(t *testing.T) {
	t.Parallel()

	t.Run("earn_points", func(t *testing.T) {
		t.Parallel()

		var saved *domain.Wallet
		var audited *domain.AuditEntry
		_, api := humatest.New(t)
		wallet := domain.NewWallet("demo-user-001", 1000, 50)
		store := &mockDataStore{
			wallets: &mockWalletRepo{
				saveFunc: func(_ context.Context, w *domain.Wallet) error {
					saved = w
					return nil
				},
			},
			audit: &mockAuditRepo{
				appendFunc: func(_ context.Context, e *domain.AuditEntry) error {
					audited = e
					return nil
				},
			},
		}
		v1.RegisterWalletRoutes(api, store, walletService(wallet))

		resp := api.PostCtx(userCtx("demo-user-001"), "/wallet/earn", map[string]any{
			"type":   "points",
			"amount": 25,
		})

		require.Equal(t, http.StatusOK, resp.Code)
		require.NotNil(t, saved)
		assert.Equal(t, 75, saved.DodoPoints)
		assert.Equal(t, 1000.0, saved.Balance)

		require.NotNil(t, audited)
		assert.Equal(t, domain.ActionPointsEarned, audited.Action)
		assert.Equal(t, domain.AuditFinancial, audited.Category)
		assert.True(t, audited.Verify())
	})

	t.Run("add_balance", func(t *testing.T) {
		t.Parallel()

		var audited *domain.AuditEntry
		_, api := humatest.New(t)
		wallet := domain.NewWallet("demo-user-001", 1000, 50)
		store := &mockDataStore{
			wallets: &mockWalletRepo{
				saveFunc: func(_ context.Context, _ *domain.Wallet) error { return nil },
			},
			audit: &mockAuditRepo{
				appendFunc: func(_ context.Context, e *domain.AuditEntry) error {
					audited = e
					return nil
				},
			},
		}
		v1.RegisterWalletRoutes(api, store, walletService(wallet))

		resp := api.PostCtx(userCtx("demo-user-001"), "/wallet/earn", map[string]any{
			"type":   "balance",
			"amount": 99.5,
		})

		require.Equal(t, http.StatusOK, resp.Code)

		var body domain.Wallet
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, 1099.5, body.Balance)
		assert.Equal(t, 50, body.DodoPoints)

		require.NotNil(t, audited)
		assert.Equal(t, domain.ActionFundsAdded, audited.Action)
	})

	t.Run("non_positive_amount_rejected", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		store := &mockDataStore{audit: &mockAuditRepo{}}
		v1.RegisterWalletRoutes(api, store, walletService(domain.NewWallet("demo-user-001", 0, 0)))

		resp := api.PostCtx(userCtx("demo-user-001"), "/wallet/earn", map[string]any{
			"type":   "points",
			"amount": 0,
		})

		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})
}

// ---------------------------------------------------------------------------
// TestRedeem
// ---------------------------------------------------------------------------

func TestRedeem(t *testing.T) {
	t.Parallel()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		var saved *domain.Wallet
		var audited *domain.AuditEntry
		_, api := humatest.New(t)
		wallet := domain.NewWallet("demo-user-001", 1000, 500)
		store := &mockDataStore{
			wallets: &mockWalletRepo{
				saveFunc: func(_ context.Context, w *domain.Wallet) error {
					saved = w
					return nil
				},
			},
			audit: &mockAuditRepo{
				appendFunc: func(_ context.Context, e *domain.AuditEntry) error {
					audited = e
					return nil
				},
			},
		}
		v1.RegisterWalletRoutes(api, store, walletService(wallet))

		resp := api.PostCtx(userCtx("demo-user-001"), "/wallet/redeem", map[string]any{
			"points": 100,
		})

		require.Equal(t, http.StatusOK, resp.Code)
		require.NotNil(t, saved)
		assert.Equal(t, 400, saved.DodoPoints)
		assert.Equal(t, 1010.0, saved.Balance)

		require.NotNil(t, audited)
		assert.Equal(t, domain.ActionPointsRedeemed, audited.Action)
	})

	t.Run("insufficient_points_returns_400", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		wallet := domain.NewWallet("demo-user-001", 1000, 30)
		store := &mockDataStore{audit: &mockAuditRepo{}}
		v1.RegisterWalletRoutes(api, store, walletService(wallet))

		resp := api.PostCtx(userCtx("demo-user-001"), "/wallet/redeem", map[string]any{
			"points": 100,
		})

		assert.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Contains(t, resp.Body.String(), "insufficient points")
		// Wallet must be unchanged after the rejection.
		assert.Equal(t, 30, wallet.DodoPoints)
		assert.Equal(t, 1000.0, wallet.Balance)
	})

	t.Run("save_conflict_returns_409", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		wallet := domain.NewWallet("demo-user-001", 1000, 500)
		store := &mockDataStore{
			wallets: &mockWalletRepo{
				saveFunc: func(_ context.Context, _ *domain.Wallet) error {
					return domain.ErrConflict
				},
			},
			audit: &mockAuditRepo{},
		}
		v1.RegisterWalletRoutes(api, store, walletService(wallet))

		resp := api.PostCtx(userCtx("demo-user-001"), "/wallet/redeem", map[string]any{
			"points": 100,
		})

		assert.Equal(t, http.StatusConflict, resp.Code)
	})
}
