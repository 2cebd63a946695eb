package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/uid0/openmakersuite/internal/model"
)

// priorityOrder sorts the queue highest priority first, oldest first
// within a priority band.
const priorityOrder = "CASE priority WHEN 'urgent' THEN 3 WHEN 'high' THEN 2 WHEN 'normal' THEN 1 ELSE 0 END DESC, requested_at ASC"

type ReorderRepository interface {
	CreateTx(tx *gorm.DB, req *model.ReorderRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.ReorderRequest, error)
	GetByIDTx(tx *gorm.DB, id uuid.UUID) (*model.ReorderRequest, error)
	// FindActiveByItemTx takes a NOWAIT row lock on the newest active
	// request for the item. Returns gorm.ErrRecordNotFound when none is
	// in flight.
	FindActiveByItemTx(tx *gorm.DB, itemID uuid.UUID) (*model.ReorderRequest, error)
	// ListActiveByItem returns the item's in-flight requests newest
	// first. More than one is an anomaly the caller should log.
	ListActiveByItem(ctx context.Context, itemID uuid.UUID) ([]model.ReorderRequest, error)
	ListByStatus(ctx context.Context, status string) ([]model.ReorderRequest, error)
	ListActive(ctx context.Context) ([]model.ReorderRequest, error)
	ListByItem(ctx context.Context, itemID uuid.UUID) ([]model.ReorderRequest, error)
	// ListReceived returns completed requests with both ordered and
	// delivery timestamps set, for lead time recomputation.
	ListReceived(ctx context.Context) ([]model.ReorderRequest, error)
	ListReceivedByItem(ctx context.Context, itemID uuid.UUID) ([]model.ReorderRequest, error)
	SaveTx(tx *gorm.DB, req *model.ReorderRequest) error
	CountByStatus(ctx context.Context, status string) (int64, error)
	DB() *gorm.DB
}

type gormReorderRepo struct {
	db *gorm.DB
}

func NewReorderRepository(db *gorm.DB) ReorderRepository {
	return &gormReorderRepo{db: db}
}

func (r *gormReorderRepo) CreateTx(tx *gorm.DB, req *model.ReorderRequest) error {
	return tx.Create(req).Error
}

func (r *gormReorderRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.ReorderRequest, error) {
	var req model.ReorderRequest
	err := r.db.WithContext(ctx).
		Preload("Item").Preload("Item.SupplierLinks").Preload("Item.SupplierLinks.Supplier").
		First(&req, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *gormReorderRepo) GetByIDTx(tx *gorm.DB, id uuid.UUID) (*model.ReorderRequest, error) {
	var req model.ReorderRequest
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "NOWAIT"}).
		First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *gormReorderRepo) FindActiveByItemTx(tx *gorm.DB, itemID uuid.UUID) (*model.ReorderRequest, error) {
	var req model.ReorderRequest
	err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "NOWAIT"}).
		Where("item_id = ? AND status IN ?", itemID, model.ActiveStatuses).
		Order("requested_at DESC").
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *gormReorderRepo) ListActiveByItem(ctx context.Context, itemID uuid.UUID) ([]model.ReorderRequest, error) {
	var reqs []model.ReorderRequest
	err := r.db.WithContext(ctx).
		Preload("Item").Preload("Item.SupplierLinks").Preload("Item.SupplierLinks.Supplier").
		Where("item_id = ? AND status IN ?", itemID, model.ActiveStatuses).
		Order("requested_at DESC").
		Find(&reqs).Error
	if err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *gormReorderRepo) ListByStatus(ctx context.Context, status string) ([]model.ReorderRequest, error) {
	var reqs []model.ReorderRequest
	err := r.db.WithContext(ctx).
		Preload("Item").Preload("Item.SupplierLinks").Preload("Item.SupplierLinks.Supplier").
		Where("status = ?", status).
		Order(priorityOrder).
		Find(&reqs).Error
	if err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *gormReorderRepo) ListActive(ctx context.Context) ([]model.ReorderRequest, error) {
	var reqs []model.ReorderRequest
	err := r.db.WithContext(ctx).
		Preload("Item").Preload("Item.SupplierLinks").Preload("Item.SupplierLinks.Supplier").
		Where("status IN ?", model.ActiveStatuses).
		Order(priorityOrder).
		Find(&reqs).Error
	if err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *gormReorderRepo) ListByItem(ctx context.Context, itemID uuid.UUID) ([]model.ReorderRequest, error) {
	var reqs []model.ReorderRequest
	err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("requested_at DESC").
		Find(&reqs).Error
	if err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *gormReorderRepo) ListReceived(ctx context.Context) ([]model.ReorderRequest, error) {
	var reqs []model.ReorderRequest
	err := r.db.WithContext(ctx).Preload("Item").
		Where("status = ? AND ordered_at IS NOT NULL AND actual_delivery IS NOT NULL", model.ReorderReceived).
		Find(&reqs).Error
	if err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *gormReorderRepo) ListReceivedByItem(ctx context.Context, itemID uuid.UUID) ([]model.ReorderRequest, error) {
	var reqs []model.ReorderRequest
	err := r.db.WithContext(ctx).
		Where("item_id = ? AND status = ? AND ordered_at IS NOT NULL AND actual_delivery IS NOT NULL",
			itemID, model.ReorderReceived).
		Find(&reqs).Error
	if err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *gormReorderRepo) SaveTx(tx *gorm.DB, req *model.ReorderRequest) error {
	return tx.Save(req).Error
}

func (r *gormReorderRepo) CountByStatus(ctx context.Context, status string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.ReorderRequest{}).
		Where("status = ?", status).Count(&n).Error
	return n, err
}

func (r *gormReorderRepo) DB() *gorm.DB { return r.db }
