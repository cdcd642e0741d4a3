// Package di provides dependency injection configuration for the reading lists server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/readinglists-server/internal/auth"
	"github.com/listenupapp/readinglists-server/internal/config"
	"github.com/listenupapp/readinglists-server/internal/di/providers"
	"github.com/listenupapp/readinglists-server/internal/logger"
	"github.com/listenupapp/readinglists-server/internal/metrics"
	"github.com/listenupapp/readinglists-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideMetrics)

	// Store
	do.Provide(injector, providers.ProvideStore)

	// Auth layer
	do.Provide(injector, providers.ProvideStateKey)
	do.Provide(injector, providers.ProvideVerifier)
	do.Provide(injector, providers.ProvideLoginFlow)

	// Business services
	do.Provide(injector, providers.ProvideServices)

	// Server
	do.Provide(injector, providers.ProvideRateLimiter)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and starts the HTTP server.
// Configuration errors surface here rather than on the first request.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*metrics.Metrics](injector)

	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*auth.Verifier](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.LoginFlow](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*service.Services](injector)

	_ = do.MustInvoke[*providers.RateLimiterHandle](injector)
	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}

	return nil
}
