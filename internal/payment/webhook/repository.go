package webhook

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	InsertEvent(ctx context.Context, event *IPNEvent) error
	ListByTrackingID(ctx context.Context, trackingID string) ([]IPNEvent, error)
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) InsertEvent(ctx context.Context, event *IPNEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *gormRepository) ListByTrackingID(ctx context.Context, trackingID string) ([]IPNEvent, error) {
	var events []IPNEvent
	err := r.db.WithContext(ctx).
		Where("order_tracking_id = ?", trackingID).
		Order("received_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
