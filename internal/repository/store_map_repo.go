package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storehub_v1_202608/internal/model"
)

// ==================== 接口定义 ====================

// StoreMapRepository 店铺-商品映射仓储接口
// (store_id, product_id) 唯一约束由 idx_store_product 保证，
// Upsert 走 ON CONFLICT，绝不会为同一组合落第二行
type StoreMapRepository interface {
	GetByStoreAndProduct(ctx context.Context, storeID, productID int64) (*model.StoreProductMap, error)
	Upsert(ctx context.Context, m *model.StoreProductMap) error
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error
	ListByProduct(ctx context.Context, productID int64) ([]model.StoreProductMap, error)
	ListByStore(ctx context.Context, storeID int64, page, pageSize int, isActive *bool) ([]model.StoreProductMap, int64, error)
	MaxLastSyncedAt(ctx context.Context, storeID int64) (*time.Time, error)
}

// ==================== 仓储实现 ====================

type storeMapRepo struct {
	db *gorm.DB
}

// NewStoreMapRepository 创建映射仓储
func NewStoreMapRepository(db *gorm.DB) StoreMapRepository {
	return &storeMapRepo{db: db}
}

// GetByStoreAndProduct 未命中返回 (nil, nil)
func (r *storeMapRepo) GetByStoreAndProduct(ctx context.Context, storeID, productID int64) (*model.StoreProductMap, error) {
	var m model.StoreProductMap
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND product_id = ?", storeID, productID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Upsert 按 (store_id, product_id) 冲突更新
// 注意：价格覆盖字段不在更新列里，同步不得冲掉人工设置的店铺价
func (r *storeMapRepo) Upsert(ctx context.Context, m *model.StoreProductMap) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "store_id"}, {Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"external_id",
			"is_active",
			"last_synced_at",
			"sync_source",
			"updated_at",
		}),
	}).Create(m).Error
}

func (r *storeMapRepo) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&model.StoreProductMap{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *storeMapRepo) ListByProduct(ctx context.Context, productID int64) ([]model.StoreProductMap, error) {
	var maps []model.StoreProductMap
	err := r.db.WithContext(ctx).
		Preload("Store").
		Where("product_id = ?", productID).
		Order("store_id asc").
		Find(&maps).Error
	return maps, err
}

func (r *storeMapRepo) ListByStore(ctx context.Context, storeID int64, page, pageSize int, isActive *bool) ([]model.StoreProductMap, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&model.StoreProductMap{}).
		Where("store_id = ?", storeID)
	if isActive != nil {
		query = query.Where("is_active = ?", *isActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var maps []model.StoreProductMap
	offset := (page - 1) * pageSize
	err := query.
		Order("product_id asc").
		Limit(pageSize).
		Offset(offset).
		Find(&maps).Error
	if err != nil {
		return nil, 0, err
	}
	return maps, total, nil
}

// MaxLastSyncedAt 店铺最近一次成功同步时间，无记录返回 nil
func (r *storeMapRepo) MaxLastSyncedAt(ctx context.Context, storeID int64) (*time.Time, error) {
	var m model.StoreProductMap
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND last_synced_at IS NOT NULL", storeID).
		Order("last_synced_at DESC").
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return m.LastSyncedAt, nil
}
