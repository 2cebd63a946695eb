package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/uid0/openmakersuite/internal/model"
)

type SupplierLinkRepository interface {
	CreateTx(tx *gorm.DB, link *model.SupplierLink) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.SupplierLink, error)
	GetByIDTx(tx *gorm.DB, id uuid.UUID) (*model.SupplierLink, error)
	ListByItem(ctx context.Context, itemID uuid.UUID) ([]model.SupplierLink, error)
	ListActive(ctx context.Context) ([]model.SupplierLink, error)
	SaveTx(tx *gorm.DB, link *model.SupplierLink) error
	// ClearPrimaryTx unsets is_primary on every other link for the item,
	// keeping at most one primary per item.
	ClearPrimaryTx(tx *gorm.DB, itemID, exceptID uuid.UUID) error
	UpdateLeadTime(ctx context.Context, id uuid.UUID, days int) error
	DB() *gorm.DB
}

type gormSupplierLinkRepo struct {
	db *gorm.DB
}

func NewSupplierLinkRepository(db *gorm.DB) SupplierLinkRepository {
	return &gormSupplierLinkRepo{db: db}
}

func (r *gormSupplierLinkRepo) CreateTx(tx *gorm.DB, link *model.SupplierLink) error {
	return tx.Create(link).Error
}

func (r *gormSupplierLinkRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.SupplierLink, error) {
	var link model.SupplierLink
	err := r.db.WithContext(ctx).Preload("Supplier").Preload("Item").
		First(&link, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *gormSupplierLinkRepo) GetByIDTx(tx *gorm.DB, id uuid.UUID) (*model.SupplierLink, error) {
	var link model.SupplierLink
	if err := tx.First(&link, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

func (r *gormSupplierLinkRepo) ListByItem(ctx context.Context, itemID uuid.UUID) ([]model.SupplierLink, error) {
	var links []model.SupplierLink
	err := r.db.WithContext(ctx).Preload("Supplier").
		Where("item_id = ?", itemID).
		Order("is_primary DESC, created_at ASC").
		Find(&links).Error
	if err != nil {
		return nil, err
	}
	return links, nil
}

func (r *gormSupplierLinkRepo) ListActive(ctx context.Context) ([]model.SupplierLink, error) {
	var links []model.SupplierLink
	err := r.db.WithContext(ctx).Where("active = ?", true).Find(&links).Error
	if err != nil {
		return nil, err
	}
	return links, nil
}

func (r *gormSupplierLinkRepo) SaveTx(tx *gorm.DB, link *model.SupplierLink) error {
	return tx.Save(link).Error
}

func (r *gormSupplierLinkRepo) ClearPrimaryTx(tx *gorm.DB, itemID, exceptID uuid.UUID) error {
	return tx.Model(&model.SupplierLink{}).
		Where("item_id = ? AND id <> ?", itemID, exceptID).
		UpdateColumn("is_primary", false).Error
}

func (r *gormSupplierLinkRepo) UpdateLeadTime(ctx context.Context, id uuid.UUID, days int) error {
	return r.db.WithContext(ctx).Model(&model.SupplierLink{}).
		Where("id = ?", id).
		UpdateColumn("avg_lead_time_days", days).Error
}

func (r *gormSupplierLinkRepo) DB() *gorm.DB { return r.db }
