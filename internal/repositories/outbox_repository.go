package repositories

import (
	"context"
	"fmt"

	"fundlink/internal/models"

	"gorm.io/gorm"
)

// OutboxRepository manages the reconciliation event outbox consumed by the
// background sender.
type OutboxRepository interface {
	Create(ctx context.Context, event *models.ReconciliationEvent) error
	GetPending(ctx context.Context, limit int) ([]*models.ReconciliationEvent, error)
	MarkSent(ctx context.Context, id uint) error
	IncrementRetry(ctx context.Context, id uint) error
	MarkFailed(ctx context.Context, id uint) error
}

type outboxRepository struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) OutboxRepository {
	return &outboxRepository{db: db}
}

func (r *outboxRepository) Create(ctx context.Context, event *models.ReconciliationEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to create reconciliation event: %w", err)
	}
	return nil
}

func (r *outboxRepository) GetPending(ctx context.Context, limit int) ([]*models.ReconciliationEvent, error) {
	var events []*models.ReconciliationEvent
	err := r.db.WithContext(ctx).
		Where("status = ?", models.ReconciliationEventPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get pending reconciliation events: %w", err)
	}
	return events, nil
}

func (r *outboxRepository) MarkSent(ctx context.Context, id uint) error {
	return r.updateStatus(ctx, id, models.ReconciliationEventSent)
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id uint) error {
	return r.updateStatus(ctx, id, models.ReconciliationEventFailed)
}

func (r *outboxRepository) updateStatus(ctx context.Context, id uint, status string) error {
	err := r.db.WithContext(ctx).Model(&models.ReconciliationEvent{}).
		Where("id = ?", id).
		Update("status", status).Error
	if err != nil {
		return fmt.Errorf("failed to update reconciliation event: %w", err)
	}
	return nil
}

func (r *outboxRepository) IncrementRetry(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Model(&models.ReconciliationEvent{}).
		Where("id = ?", id).
		Update("retry_count", gorm.Expr("retry_count + 1")).Error
	if err != nil {
		return fmt.Errorf("failed to increment retry count: %w", err)
	}
	return nil
}
