package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/uid0/openmakersuite/internal/model"
)

type PriceHistoryRepository interface {
	CreateTx(tx *gorm.DB, entry *model.PriceHistoryEntry) error
	// LatestForLinkTx reads the most recent entry inside tx so percent
	// change is computed against a stable predecessor.
	LatestForLinkTx(tx *gorm.DB, linkID uuid.UUID) (*model.PriceHistoryEntry, error)
	ListForLink(ctx context.Context, linkID uuid.UUID, from, to *time.Time, limit int) ([]model.PriceHistoryEntry, error)
	DB() *gorm.DB
}

type gormPriceHistoryRepo struct {
	db *gorm.DB
}

func NewPriceHistoryRepository(db *gorm.DB) PriceHistoryRepository {
	return &gormPriceHistoryRepo{db: db}
}

func (r *gormPriceHistoryRepo) CreateTx(tx *gorm.DB, entry *model.PriceHistoryEntry) error {
	return tx.Create(entry).Error
}

func (r *gormPriceHistoryRepo) LatestForLinkTx(tx *gorm.DB, linkID uuid.UUID) (*model.PriceHistoryEntry, error) {
	var entry model.PriceHistoryEntry
	err := tx.Where("supplier_link_id = ?", linkID).
		Order("recorded_at DESC").
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *gormPriceHistoryRepo) ListForLink(ctx context.Context, linkID uuid.UUID, from, to *time.Time, limit int) ([]model.PriceHistoryEntry, error) {
	q := r.db.WithContext(ctx).Where("supplier_link_id = ?", linkID)
	if from != nil {
		q = q.Where("recorded_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("recorded_at <= ?", *to)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var entries []model.PriceHistoryEntry
	if err := q.Order("recorded_at DESC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *gormPriceHistoryRepo) DB() *gorm.DB { return r.db }
