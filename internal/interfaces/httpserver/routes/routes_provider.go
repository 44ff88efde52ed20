package routes

import (
	"github.com/google/wire"

	"webhook-bridge/internal/interfaces/httpserver/routes/webhooks"
)

// RoutesProvider provides all route dependencies
var RoutesProvider = wire.NewSet(
	webhooks.NewSchedulingRoute,
	webhooks.NewAgreementRoute,
	webhooks.NewMarketingRoute,
	webhooks.NewContactsRoute,
)
