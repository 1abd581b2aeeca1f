package payment

import (
	"github.com/devcircularity/commerce-backend/internal/payment/adapters"
	"github.com/devcircularity/commerce-backend/internal/payment/domain"
	"github.com/devcircularity/commerce-backend/internal/payment/pesapal"
	"github.com/devcircularity/commerce-backend/internal/payment/webhook"
	"go.uber.org/fx"
)

var Module = fx.Module("payment",
	pesapal.Module,
	webhook.Module,
	fx.Provide(func(provider domain.Provider) *adapters.Registry {
		return adapters.NewRegistry(provider)
	}),
)
