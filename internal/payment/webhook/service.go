package webhook

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type Params struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  Repository `optional:"true"`
}

// Service records received gateway notifications. Recording is best-effort:
// a storage failure is logged and swallowed so the webhook endpoint always
// acknowledges.
type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	repo  Repository
}

func NewService(p Params) *Service {
	return &Service{
		log:   p.Log.Named("payment.webhook"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

// Record appends an IPN event row for the notification.
func (s *Service) Record(ctx context.Context, provider string, n Notification) {
	s.log.Info("gateway notification received",
		zap.String("provider", provider),
		zap.String("order_tracking_id", n.OrderTrackingID),
		zap.String("merchant_reference", n.MerchantReference),
		zap.String("notification_type", n.NotificationType),
	)

	if s.repo == nil {
		return
	}

	payload := n.Raw
	if len(payload) == 0 || !json.Valid(payload) {
		fallback := map[string]string{
			"order_tracking_id":  n.OrderTrackingID,
			"merchant_reference": n.MerchantReference,
			"notification_type":  n.NotificationType,
		}
		payload, _ = json.Marshal(fallback)
	}

	event := &IPNEvent{
		ID:                s.genID.Generate(),
		Provider:          strings.ToLower(strings.TrimSpace(provider)),
		OrderTrackingID:   n.OrderTrackingID,
		MerchantReference: n.MerchantReference,
		NotificationType:  n.NotificationType,
		Payload:           datatypes.JSON(payload),
		ReceivedAt:        time.Now().UTC(),
	}

	if err := s.repo.InsertEvent(ctx, event); err != nil {
		s.log.Warn("failed to record ipn event", zap.Error(err))
	}
}

var Module = fx.Module("payment.webhook",
	fx.Provide(NewRepository),
	fx.Provide(NewService),
)
