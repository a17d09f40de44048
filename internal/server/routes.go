package server

import (
	"github.com/danielgtaylor/huma/v2"

	v1 "github.com/dodopoint/concierge/internal/api/v1"
	"github.com/dodopoint/concierge/internal/concierge"
	"github.com/dodopoint/concierge/internal/store/postgres"
)

func registerAPIRoutes(api huma.API, store *postgres.Store, svc *concierge.Service) {
	v1.RegisterChatRoutes(api, svc)
	v1.RegisterWalletRoutes(api, store, svc)
	v1.RegisterTransactionRoutes(api, store)
	v1.RegisterAuditRoutes(api, store, svc)
}
