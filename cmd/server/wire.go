//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"webhook-bridge/internal/domain"
	"webhook-bridge/internal/infrastructure"
	"webhook-bridge/internal/interfaces"
	"webhook-bridge/internal/interfaces/httpserver/routes"
)

func CreateApplication(ctx context.Context) (*Application, error) {
	wire.Build(
		domain.DomainProvider,
		infrastructure.InfrastructureProvider,
		routes.RoutesProvider,
		interfaces.InterfacesProvider,
		wire.Struct(new(Application), "*"),
	)
	return nil, nil
}
