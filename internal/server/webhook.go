package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/devcircularity/commerce-backend/internal/observability/logger"
	"github.com/devcircularity/commerce-backend/internal/payment/pesapal"
	"github.com/devcircularity/commerce-backend/internal/payment/webhook"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PesapalWebhookPost accepts gateway notifications posted as JSON. The
// handler records and acknowledges; it performs no session reconciliation.
func (s *Server) PesapalWebhookPost(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		body = nil
	}

	var payload map[string]any
	_ = json.Unmarshal(body, &payload)
	field := func(key string) string {
		value, _ := payload[key].(string)
		return value
	}

	logger.FromContext(c.Request.Context()).Info("pesapal webhook received",
		zap.Int("body_size", len(body)),
		zap.Any("payload", logger.MaskJSON(payload)),
	)

	s.webhookSvc.Record(c.Request.Context(), pesapal.Identifier, webhook.Notification{
		OrderTrackingID:   field("OrderTrackingId"),
		MerchantReference: field("OrderMerchantReference"),
		NotificationType:  field("OrderNotificationType"),
		Raw:               body,
	})

	c.Status(http.StatusOK)
}

// PesapalWebhookGet is the IPN callback variant the gateway invokes with
// query parameters. It always acknowledges with 200.
func (s *Server) PesapalWebhookGet(c *gin.Context) {
	trackingID := strings.TrimSpace(c.Query("OrderTrackingId"))
	merchantRef := strings.TrimSpace(c.Query("OrderMerchantReference"))
	notificationType := strings.TrimSpace(c.Query("OrderNotificationType"))

	logger.FromContext(c.Request.Context()).Info("pesapal ipn callback received",
		zap.String("order_tracking_id", trackingID),
		zap.String("merchant_reference", merchantRef),
		zap.String("notification_type", notificationType),
	)

	s.webhookSvc.Record(c.Request.Context(), pesapal.Identifier, webhook.Notification{
		OrderTrackingID:   trackingID,
		MerchantReference: merchantRef,
		NotificationType:  notificationType,
	})

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ProviderWebhook is the generic dispatcher: it resolves the provider from
// the path, lets it tag the payload, and acknowledges.
func (s *Server) ProviderWebhook(c *gin.Context) {
	providerID := strings.TrimSpace(c.Param("provider"))
	provider, err := s.registry.Provider(providerID)
	if err != nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	action, err := provider.GetWebhookActionAndData(c.Request.Context(), payload)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	logger.FromContext(c.Request.Context()).Info("provider webhook dispatched",
		zap.String("provider", providerID),
		zap.String("action", action.Action),
	)

	c.JSON(http.StatusOK, gin.H{"success": true, "action": action.Action})
}
