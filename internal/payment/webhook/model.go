package webhook

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// IPNEvent is an append-only record of a received gateway notification. The
// webhook handlers remain pure acknowledge-and-log endpoints; this table is
// an audit trail, not a reconciliation mechanism.
type IPNEvent struct {
	ID                snowflake.ID   `gorm:"column:id;primaryKey"`
	Provider          string         `gorm:"column:provider"`
	OrderTrackingID   string         `gorm:"column:order_tracking_id"`
	MerchantReference string         `gorm:"column:merchant_reference"`
	NotificationType  string         `gorm:"column:notification_type"`
	Payload           datatypes.JSON `gorm:"column:payload"`
	ReceivedAt        time.Time      `gorm:"column:received_at"`
}

func (IPNEvent) TableName() string {
	return "ipn_events"
}

// Notification carries the query/body fields of a gateway callback.
type Notification struct {
	OrderTrackingID   string
	MerchantReference string
	NotificationType  string
	Raw               []byte
}
