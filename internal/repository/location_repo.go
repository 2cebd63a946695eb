package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/uid0/openmakersuite/internal/model"
)

type LocationRepository interface {
	Create(ctx context.Context, l *model.Location) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Location, error)
	List(ctx context.Context) ([]model.Location, error)
	DB() *gorm.DB
}

type gormLocationRepo struct {
	db *gorm.DB
}

func NewLocationRepository(db *gorm.DB) LocationRepository {
	return &gormLocationRepo{db: db}
}

func (r *gormLocationRepo) Create(ctx context.Context, l *model.Location) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *gormLocationRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Location, error) {
	var l model.Location
	if err := r.db.WithContext(ctx).First(&l, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *gormLocationRepo) List(ctx context.Context) ([]model.Location, error) {
	var list []model.Location
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *gormLocationRepo) DB() *gorm.DB { return r.db }
