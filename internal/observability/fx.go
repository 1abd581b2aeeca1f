package observability

import (
	"github.com/devcircularity/commerce-backend/internal/config"
	"github.com/devcircularity/commerce-backend/internal/observability/metrics"
	"github.com/devcircularity/commerce-backend/internal/observability/tracing"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
)

const serviceName = "commerce-backend"

// BuildInfo carries the binary version stamped at build time.
type BuildInfo struct {
	Version string
}

var Module = fx.Module("observability",
	fx.Provide(func(cfg config.Config, build BuildInfo) tracing.Config {
		return tracing.Config{
			Enabled:          cfg.Observability.TracingEnabled,
			ServiceName:      serviceName,
			ServiceVersion:   build.Version,
			Environment:      cfg.Environment,
			ExporterEndpoint: cfg.Observability.ExporterEndpoint,
			ExporterProtocol: cfg.Observability.ExporterProtocol,
			SamplingRatio:    cfg.Observability.SamplingRatio,
		}
	}),
	fx.Provide(tracing.NewProvider),
	fx.Provide(func(cfg config.Config) metrics.Config {
		return metrics.Config{
			ServiceName: serviceName,
			Environment: cfg.Environment,
		}
	}),
	fx.Provide(func(cfg metrics.Config) (*metrics.HTTPMetrics, error) {
		return metrics.NewHTTPMetrics(cfg, otel.GetMeterProvider())
	}),
	fx.Provide(metrics.GatewayWithConfig),
	fx.Invoke(func(*sdktrace.TracerProvider) {}),
)
