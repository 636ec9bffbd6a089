// Package repository stores trades and announces changes to them.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"trading-journal/internal/metrics"
	"trading-journal/internal/models"
	"trading-journal/internal/realtime"
	"trading-journal/internal/tracing"
)

// ErrNotFound is returned when a trade does not exist or belongs to someone else.
var ErrNotFound = errors.New("trade not found")

// Repository is the storage contract the journal depends on. Every call is
// scoped to a single owner; a subsequent ListTrades by the same owner always
// reflects a successful write.
type Repository interface {
	ListTrades(ctx context.Context, ownerID string) ([]models.Trade, error)
	GetTrade(ctx context.Context, ownerID, id string) (*models.Trade, error)
	CreateTrade(ctx context.Context, draft models.TradeDraft) (*models.Trade, error)
	UpdateTrade(ctx context.Context, id string, draft models.TradeDraft) error
	DeleteTrade(ctx context.Context, ownerID, id string) error
	SubscribeToChanges(ownerID string, onChange func()) (unsubscribe func())
}

// GormRepository implements Repository on gorm and publishes a change
// notification after every committed write.
type GormRepository struct {
	db     *gorm.DB
	broker realtime.Broker
	log    *zap.Logger
}

// ensure GormRepository implements the interface
var _ Repository = (*GormRepository)(nil)

// NewGormRepository creates a new GormRepository.
func NewGormRepository(db *gorm.DB, broker realtime.Broker, log *zap.Logger) *GormRepository {
	return &GormRepository{db: db, broker: broker, log: log.Named("repository")}
}

// ListTrades returns the owner's trades, newest date first.
func (r *GormRepository) ListTrades(ctx context.Context, ownerID string) (trades []models.Trade, err error) {
	ctx, span := tracing.StartSpan(ctx, "repository.ListTrades")
	defer func() { tracing.End(span, err) }()

	if err := r.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("date desc").
		Order("created_at desc").
		Find(&trades).Error; err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	span.SetAttributes(attribute.Int("trades", len(trades)))
	return trades, nil
}

// GetTrade returns one of the owner's trades.
func (r *GormRepository) GetTrade(ctx context.Context, ownerID, id string) (_ *models.Trade, err error) {
	ctx, span := tracing.StartSpan(ctx, "repository.GetTrade")
	defer func() { tracing.End(span, err) }()

	var t models.Trade
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, ownerID).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get trade: %w", err)
	}
	return &t, nil
}

// CreateTrade inserts a new trade with a fresh id.
func (r *GormRepository) CreateTrade(ctx context.Context, draft models.TradeDraft) (_ *models.Trade, err error) {
	ctx, span := tracing.StartSpan(ctx, "repository.CreateTrade")
	defer func() {
		metrics.RecordTradeWrite("create", err)
		tracing.End(span, err)
	}()

	if draft.OwnerID == "" {
		return nil, errors.New("failed to create trade: missing owner")
	}

	t := models.Trade{ID: uuid.NewString(), OwnerID: draft.OwnerID}
	draft.ApplyTo(&t)
	if err := r.db.WithContext(ctx).Create(&t).Error; err != nil {
		return nil, fmt.Errorf("failed to create trade: %w", err)
	}

	r.log.Info("Trade created", zap.String("id", t.ID), zap.String("owner_id", t.OwnerID), zap.String("symbol", t.Symbol))
	r.publish(ctx, t.OwnerID)
	return &t, nil
}

// UpdateTrade replaces every editable field of the trade with the draft.
func (r *GormRepository) UpdateTrade(ctx context.Context, id string, draft models.TradeDraft) (err error) {
	ctx, span := tracing.StartSpan(ctx, "repository.UpdateTrade")
	defer func() {
		metrics.RecordTradeWrite("update", err)
		tracing.End(span, err)
	}()

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t models.Trade
		if err := tx.Where("id = ? AND user_id = ?", id, draft.OwnerID).First(&t).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		draft.ApplyTo(&t)
		return tx.Save(&t).Error
	})
	if errors.Is(err, ErrNotFound) {
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to update trade: %w", err)
	}

	r.log.Info("Trade updated", zap.String("id", id), zap.String("owner_id", draft.OwnerID))
	r.publish(ctx, draft.OwnerID)
	return nil
}

// DeleteTrade permanently removes the trade.
func (r *GormRepository) DeleteTrade(ctx context.Context, ownerID, id string) (err error) {
	ctx, span := tracing.StartSpan(ctx, "repository.DeleteTrade")
	defer func() {
		metrics.RecordTradeWrite("delete", err)
		tracing.End(span, err)
	}()

	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, ownerID).Delete(&models.Trade{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete trade: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	r.log.Info("Trade deleted", zap.String("id", id), zap.String("owner_id", ownerID))
	r.publish(ctx, ownerID)
	return nil
}

// SubscribeToChanges calls onChange after every write to the owner's trades.
func (r *GormRepository) SubscribeToChanges(ownerID string, onChange func()) func() {
	return r.broker.Subscribe(ownerID, onChange)
}

// publish never fails the write it follows; a missed notification only
// delays other sessions until their next reload.
func (r *GormRepository) publish(ctx context.Context, ownerID string) {
	if err := r.broker.Publish(ctx, ownerID); err != nil {
		r.log.Warn("Failed to publish trade change", zap.String("owner_id", ownerID), zap.Error(err))
	}
}
