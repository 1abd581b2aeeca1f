package pesapal

import (
	"net/http"
	"time"

	"github.com/devcircularity/commerce-backend/internal/clock"
	"github.com/devcircularity/commerce-backend/internal/config"
	"github.com/devcircularity/commerce-backend/internal/observability/metrics"
	"github.com/devcircularity/commerce-backend/internal/observability/tracing"
	"github.com/devcircularity/commerce-backend/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("payment.pesapal",
	fx.Provide(func(cfg config.Config, clk clock.Clock, log *zap.Logger, gm *metrics.GatewayMetrics) *Client {
		httpClient := tracing.WrapHTTPClient(&http.Client{Timeout: 30 * time.Second})
		return NewClient(cfg.Pesapal, httpClient, clk, log, gm)
	}),
	fx.Provide(NewProvider),
	fx.Provide(func(provider *Provider) domain.Provider {
		return provider
	}),
)
