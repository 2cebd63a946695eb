package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/uid0/openmakersuite/internal/model"
)

type UsageLogRepository interface {
	CreateTx(tx *gorm.DB, log *model.UsageLog) error
	ListByItem(ctx context.Context, itemID uuid.UUID, limit int) ([]model.UsageLog, error)
	DB() *gorm.DB
}

type gormUsageLogRepo struct {
	db *gorm.DB
}

func NewUsageLogRepository(db *gorm.DB) UsageLogRepository {
	return &gormUsageLogRepo{db: db}
}

func (r *gormUsageLogRepo) CreateTx(tx *gorm.DB, log *model.UsageLog) error {
	return tx.Create(log).Error
}

func (r *gormUsageLogRepo) ListByItem(ctx context.Context, itemID uuid.UUID, limit int) ([]model.UsageLog, error) {
	q := r.db.WithContext(ctx).Where("item_id = ?", itemID).Order("used_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var logs []model.UsageLog
	if err := q.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *gormUsageLogRepo) DB() *gorm.DB { return r.db }
