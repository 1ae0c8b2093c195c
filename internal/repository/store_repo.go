package repository

import (
	"context"

	"gorm.io/gorm"

	"storehub_v1_202608/internal/model"
)

// ==================== 接口定义 ====================

// StoreRepository 店铺仓储接口
type StoreRepository interface {
	Create(ctx context.Context, store *model.Store) error
	GetByID(ctx context.Context, id int64) (*model.Store, error)
	Update(ctx context.Context, store *model.Store) error
	List(ctx context.Context) ([]model.Store, error)
	ListActiveByPlatform(ctx context.Context, platform string) ([]model.Store, error)
}

// ==================== 仓储实现 ====================

type storeRepo struct {
	db *gorm.DB
}

// NewStoreRepository 创建店铺仓储
func NewStoreRepository(db *gorm.DB) StoreRepository {
	return &storeRepo{db: db}
}

func (r *storeRepo) Create(ctx context.Context, store *model.Store) error {
	return r.db.WithContext(ctx).Create(store).Error
}

func (r *storeRepo) GetByID(ctx context.Context, id int64) (*model.Store, error) {
	var store model.Store
	err := r.db.WithContext(ctx).First(&store, id).Error
	if err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *storeRepo) Update(ctx context.Context, store *model.Store) error {
	return r.db.WithContext(ctx).Save(store).Error
}

func (r *storeRepo) List(ctx context.Context) ([]model.Store, error) {
	var stores []model.Store
	err := r.db.WithContext(ctx).Order("id asc").Find(&stores).Error
	return stores, err
}

func (r *storeRepo) ListActiveByPlatform(ctx context.Context, platform string) ([]model.Store, error) {
	var stores []model.Store
	err := r.db.WithContext(ctx).
		Where("platform = ? AND is_active = ?", platform, true).
		Order("id asc").
		Find(&stores).Error
	return stores, err
}
