package main

import (
	"context"
	"errors"
	"maps"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ahrav/go-tender/infrastructure/llm"
	"github.com/ahrav/go-tender/infrastructure/middleware"
	"github.com/ahrav/go-tender/internal/application"
	"github.com/ahrav/go-tender/internal/ports"
)

const shutdownTimeout = 5 * time.Second

// telemetry bundles the observers and metrics wired for one run.
type telemetry struct {
	observer  ports.EvaluationObserver
	collector ports.MetricsCollector
	server    *http.Server
}

// startTelemetry builds the run observer from cfg. Logging is always on;
// Prometheus metrics and OpenTelemetry spans are added when enabled. With a
// metrics listen address the registry is served until shutdown.
func startTelemetry(cfg *application.AppConfig, logger *zap.Logger) (*telemetry, error) {
	t := &telemetry{}
	observers := []ports.EvaluationObserver{middleware.NewZapObserver(logger)}

	if cfg.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		metrics := middleware.NewPrometheusMetrics(registry)
		t.collector = metrics
		observers = append(observers, middleware.NewMetricsObserver(metrics))

		if cfg.Metrics.ListenAddr != "" {
			ln, err := net.Listen("tcp", cfg.Metrics.ListenAddr)
			if err != nil {
				return nil, err
			}
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
			t.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
			go func() {
				if err := t.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("metrics server stopped", zap.Error(err))
				}
			}()
			logger.Info("serving metrics", zap.String("addr", ln.Addr().String()))
		}
	}

	if cfg.Tracing.Enabled {
		observers = append(observers, middleware.NewOTelObserver())
	}

	t.observer = middleware.NewMultiObserver(observers...)
	return t, nil
}

func (t *telemetry) shutdown(logger *zap.Logger) {
	if t.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := t.server.Shutdown(ctx); err != nil {
		logger.Warn("metrics server shutdown failed", zap.Error(err))
	}
}

// newRegistryClient resolves the configured provider and model through an
// llm.Registry. The middleware chain, outermost first, is tracing, metrics,
// rate limiting and the per-request timeout.
func newRegistryClient(cfg *application.AppConfig, collector ports.MetricsCollector) (ports.LLMClient, error) {
	providers := maps.Clone(llm.DefaultProviders)
	if cfg.BaseURL != "" {
		pc := providers[cfg.Provider]
		pc.BaseURL = cfg.BaseURL
		providers[cfg.Provider] = pc
	}

	registry, err := llm.NewRegistry(llm.RegistryConfig{
		Providers:       providers,
		DefaultProvider: cfg.Provider,
		DefaultTimeout:  cfg.RequestTimeout(),
		Middleware: func(provider string) []llm.Middleware {
			var chain []llm.Middleware
			if cfg.Tracing.Enabled {
				chain = append(chain, llm.TracingMiddleware(tracingService(cfg)))
			}
			if collector != nil {
				chain = append(chain, llm.MetricsMiddleware(collector, provider))
			}
			if cfg.Run.RateLimitRPS > 0 {
				chain = append(chain, llm.RateLimitMiddleware(rate.Limit(cfg.Run.RateLimitRPS), max(cfg.Run.RateLimitBurst, 1)))
			}
			return append(chain, llm.TimeoutMiddleware(cfg.RequestTimeout()))
		},
	})
	if err != nil {
		return nil, err
	}

	client, err := registry.GetClient(cfg.ModelSpec())
	if err != nil {
		return nil, err
	}
	return client, nil
}

func tracingService(cfg *application.AppConfig) string {
	if cfg.Tracing.ServiceName != "" {
		return cfg.Tracing.ServiceName
	}
	if cfg.Logging.ServiceName != "" {
		return cfg.Logging.ServiceName
	}
	return "tender-eval"
}
