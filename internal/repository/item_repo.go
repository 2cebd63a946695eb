package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/uid0/openmakersuite/internal/model"
)

type ItemRepository interface {
	Create(ctx context.Context, item *model.Item) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Item, error)
	GetByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Item, error)
	List(ctx context.Context, onlyActive bool) ([]model.Item, error)
	ListNeedingOrder(ctx context.Context) ([]model.Item, error)
	Save(ctx context.Context, item *model.Item) error
	AdjustStockTx(tx *gorm.DB, id uuid.UUID, delta int) error
	DB() *gorm.DB
}

type gormItemRepo struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) ItemRepository {
	return &gormItemRepo{db: db}
}

func (r *gormItemRepo) Create(ctx context.Context, item *model.Item) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *gormItemRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	var item model.Item
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Location").
		Preload("SupplierLinks", "active = ?", true).
		Preload("SupplierLinks.Supplier").
		First(&item, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *gormItemRepo) GetByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Item, error) {
	var item model.Item
	if err := tx.Preload("SupplierLinks", "active = ?", true).
		Preload("SupplierLinks.Supplier").
		First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *gormItemRepo) List(ctx context.Context, onlyActive bool) ([]model.Item, error) {
	var items []model.Item
	q := r.db.WithContext(ctx).Preload("Category").Preload("Location").Order("name ASC")
	if onlyActive {
		q = q.Where("active = ?", true)
	}
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *gormItemRepo) ListNeedingOrder(ctx context.Context) ([]model.Item, error) {
	var items []model.Item
	err := r.db.WithContext(ctx).
		Preload("SupplierLinks", "active = ?", true).
		Preload("SupplierLinks.Supplier").
		Where("active = ? AND current_stock < minimum_stock", true).
		Order("name ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *gormItemRepo) Save(ctx context.Context, item *model.Item) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// AdjustStockTx applies a signed stock delta atomically inside tx.
func (r *gormItemRepo) AdjustStockTx(tx *gorm.DB, id uuid.UUID, delta int) error {
	return tx.Model(&model.Item{}).
		Where("id = ?", id).
		UpdateColumn("current_stock", gorm.Expr("current_stock + ?", delta)).Error
}

func (r *gormItemRepo) DB() *gorm.DB { return r.db }
