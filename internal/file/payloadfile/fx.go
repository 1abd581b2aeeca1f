package payloadfile

import (
	"net/http"
	"time"

	"github.com/devcircularity/commerce-backend/internal/config"
	"github.com/devcircularity/commerce-backend/internal/file/domain"
	"github.com/devcircularity/commerce-backend/internal/observability/tracing"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("file.payload",
	fx.Provide(func(cfg config.Config, log *zap.Logger) *Service {
		httpClient := tracing.WrapHTTPClient(&http.Client{Timeout: 60 * time.Second})
		return NewService(cfg.Payload, httpClient, log)
	}),
	fx.Provide(func(service *Service) domain.Provider {
		return service
	}),
)
