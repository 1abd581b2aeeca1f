package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// GatewayMetrics tracks outbound payment-gateway traffic.
type GatewayMetrics struct {
	gatewayRequests  *prometheus.CounterVec
	gatewayFallbacks *prometheus.CounterVec
}

var (
	gatewayMetricsOnce sync.Once
	gatewayMetrics     *GatewayMetrics
)

// GatewayWithConfig registers the gateway counters once per process and
// returns the shared instance.
func GatewayWithConfig(cfg Config) *GatewayMetrics {
	gatewayMetricsOnce.Do(func() {
		gatewayMetrics = newGatewayMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return gatewayMetrics
}

func newGatewayMetrics(registerer prometheus.Registerer, cfg Config) *GatewayMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "commerce-backend"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}

	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	gatewayRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "commerce_gateway_requests_total",
			Help:        "Outbound payment-gateway requests by endpoint and outcome.",
			ConstLabels: constLabels,
		},
		[]string{"endpoint", "result"}, // success | error
	)

	gatewayFallbacks := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "commerce_gateway_fallbacks_total",
			Help:        "Payment operations that degraded to a synthesized result after a gateway failure.",
			ConstLabels: constLabels,
		},
		[]string{"operation"},
	)

	registerer.MustRegister(
		gatewayRequests,
		gatewayFallbacks,
	)

	return &GatewayMetrics{
		gatewayRequests:  gatewayRequests,
		gatewayFallbacks: gatewayFallbacks,
	}
}

func (m *GatewayMetrics) IncGatewayRequest(endpoint string, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.gatewayRequests.WithLabelValues(endpoint, result).Inc()
}

func (m *GatewayMetrics) IncFallback(operation string) {
	if m == nil {
		return
	}
	m.gatewayFallbacks.WithLabelValues(operation).Inc()
}
