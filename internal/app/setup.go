// Package app contains the application setup for the inventory UI.
package app

import (
	"log/slog"
	"net/http"

	"github.com/abgdnv/gocommerce-inventory/internal/config"
	"github.com/abgdnv/gocommerce-inventory/internal/product/client"
	"github.com/abgdnv/gocommerce-inventory/internal/product/form"
	"github.com/abgdnv/gocommerce-inventory/internal/product/store"
	"github.com/abgdnv/gocommerce-inventory/internal/transport/web"
	"github.com/abgdnv/gocommerce-inventory/pkg/client/rest/transport"
	"github.com/abgdnv/gocommerce-inventory/pkg/server"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const metricsNamespace = "inventory"

type Dependencies struct {
	Store    *store.ProductStore
	Form     *form.Form
	Registry *prometheus.Registry
	Logger   *slog.Logger
}

// SetupDependencies builds the products client, the store and the form on top of the backend configuration.
func SetupDependencies(cfg *config.Config, logger *slog.Logger) *Dependencies {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	httpClient := NewBackendHTTPClient(cfg, transport.NewMetrics(metricsNamespace, registry))
	productClient := client.NewHTTPClient(httpClient, cfg.Backend.URL, cfg.Backend.ProductsPath, logger)
	productStore := store.New(productClient, logger)

	return &Dependencies{
		Store:    productStore,
		Form:     form.New(productClient, productStore, logger),
		Registry: registry,
		Logger:   logger,
	}
}

// NewBackendHTTPClient creates the http.Client used to reach the products backend.
// Tracing wraps metrics, which wrap the circuit breaker.
func NewBackendHTTPClient(cfg *config.Config, metrics *transport.Metrics) *http.Client {
	breaker := transport.NewCircuitBreaker("products-backend", cfg.Resilience.CircuitBreaker)
	rt := transport.CircuitBreaker(breaker, http.DefaultTransport)
	rt = metrics.Instrument(rt)
	return &http.Client{
		Timeout:   cfg.Backend.Timeout,
		Transport: otelhttp.NewTransport(rt),
	}
}

// SetupHttpHandler initializes the router with the UI routes, the metrics endpoint and tracing.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies) (http.Handler, error) {
	mux := server.NewChiRouter(deps.Logger)
	if err := wireRoutes(mux, deps); err != nil {
		return nil, err
	}
	return otelhttp.NewHandler(mux, "inventory-ui",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	), nil
}

// wireRoutes sets up the HTTP routes for the inventory UI.
func wireRoutes(mux *chi.Mux, deps *Dependencies) error {
	uiHandler, err := web.NewHandler(deps.Store, deps.Form, deps.Logger)
	if err != nil {
		return err
	}
	uiHandler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	return nil
}

// SetupHttpServer creates and configures the HTTP server for the inventory UI.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) (*http.Server, error) {
	handler, err := SetupHttpHandler(deps)
	if err != nil {
		return nil, err
	}
	return server.NewHTTPServer(cfg.HTTPServer, handler), nil
}
