package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/uid0/openmakersuite/internal/model"
)

type StockMovementRepository interface {
	CreateTx(tx *gorm.DB, mv *model.StockMovement) error
	ListByItem(ctx context.Context, itemID uuid.UUID, limit int) ([]model.StockMovement, error)
	DB() *gorm.DB
}

type gormStockMovementRepo struct {
	db *gorm.DB
}

func NewStockMovementRepository(db *gorm.DB) StockMovementRepository {
	return &gormStockMovementRepo{db: db}
}

func (r *gormStockMovementRepo) CreateTx(tx *gorm.DB, mv *model.StockMovement) error {
	return tx.Create(mv).Error
}

func (r *gormStockMovementRepo) ListByItem(ctx context.Context, itemID uuid.UUID, limit int) ([]model.StockMovement, error) {
	q := r.db.WithContext(ctx).Where("item_id = ?", itemID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var moves []model.StockMovement
	if err := q.Find(&moves).Error; err != nil {
		return nil, err
	}
	return moves, nil
}

func (r *gormStockMovementRepo) DB() *gorm.DB { return r.db }
