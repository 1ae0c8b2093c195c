package repository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"storehub_v1_202608/internal/model"
)

// ==================== 接口定义 ====================

// ProductRepository 主目录商品仓储接口
type ProductRepository interface {
	// 基础 CRUD
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id int64) (*model.Product, error)
	Update(ctx context.Context, product *model.Product) error
	UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, page, pageSize int) ([]model.Product, int64, error)

	// 查重查询
	GetByHandle(ctx context.Context, handle string, excludeID int64) (*model.Product, error)
	SearchTitleCandidates(ctx context.Context, keywords []string, excludeID int64, limit int) ([]model.Product, error)

	// 变体操作
	CreateVariant(ctx context.Context, variant *model.ProductVariant) error
	UpdateVariant(ctx context.Context, variant *model.ProductVariant) error
	GetVariantBySKU(ctx context.Context, sku string, excludeProductID int64) (*model.ProductVariant, error)
	FirstVariant(ctx context.Context, productID int64) (*model.ProductVariant, error)

	// 重复簇报表
	ListVariantsWithDuplicateSKU(ctx context.Context) ([]model.ProductVariant, error)
	ListProductsWithDuplicateHandle(ctx context.Context) ([]model.Product, error)
}

// ==================== 仓储实现 ====================

type productRepo struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓储
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepo{db: db}
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepo) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Preload("Variants", func(db *gorm.DB) *gorm.DB {
			return db.Order("position asc, id asc")
		}).
		Preload("Brand").
		First(&product, id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) Update(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

func (r *productRepo) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *productRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&model.Product{}, id).Error
}

func (r *productRepo) List(ctx context.Context, page, pageSize int) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Product{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Preload("Variants").
		Order("updated_at DESC").
		Limit(pageSize).
		Offset(offset).
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// GetByHandle 按 handle 精确查找，excludeID > 0 时排除自身
// 未命中返回 (nil, nil)，调用方不必区分 ErrRecordNotFound
func (r *productRepo) GetByHandle(ctx context.Context, handle string, excludeID int64) (*model.Product, error) {
	var product model.Product
	query := r.db.WithContext(ctx).Where("handle = ?", handle)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// SearchTitleCandidates 取标题包含任一关键词的候选商品（大小写不敏感）
// 只做候选集收敛，相似度计算在服务层
func (r *productRepo) SearchTitleCandidates(ctx context.Context, keywords []string, excludeID int64, limit int) ([]model.Product, error) {
	if len(keywords) == 0 {
		return nil, nil
	}

	query := r.db.WithContext(ctx).Model(&model.Product{})

	conds := make([]string, 0, len(keywords))
	args := make([]interface{}, 0, len(keywords))
	for _, kw := range keywords {
		conds = append(conds, "LOWER(title) LIKE ?")
		args = append(args, "%"+strings.ToLower(kw)+"%")
	}
	query = query.Where(strings.Join(conds, " OR "), args...)

	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var products []model.Product
	err := query.Limit(limit).Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// ==================== 变体 ====================

func (r *productRepo) CreateVariant(ctx context.Context, variant *model.ProductVariant) error {
	return r.db.WithContext(ctx).Create(variant).Error
}

func (r *productRepo) UpdateVariant(ctx context.Context, variant *model.ProductVariant) error {
	return r.db.WithContext(ctx).Save(variant).Error
}

// GetVariantBySKU 按 SKU 精确查找变体（带所属商品）
// excludeProductID > 0 时排除该商品自身的变体，未命中返回 (nil, nil)
func (r *productRepo) GetVariantBySKU(ctx context.Context, sku string, excludeProductID int64) (*model.ProductVariant, error) {
	var variant model.ProductVariant
	query := r.db.WithContext(ctx).
		Preload("Product").
		Where("sku = ?", sku)
	if excludeProductID > 0 {
		query = query.Where("product_id <> ?", excludeProductID)
	}
	err := query.First(&variant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &variant, nil
}

func (r *productRepo) FirstVariant(ctx context.Context, productID int64) (*model.ProductVariant, error) {
	var variant model.ProductVariant
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("position asc, id asc").
		First(&variant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &variant, nil
}

// ==================== 重复簇报表 ====================

// ListVariantsWithDuplicateSKU 已入库的 SKU 重复变体（人工清理报表用）
func (r *productRepo) ListVariantsWithDuplicateSKU(ctx context.Context) ([]model.ProductVariant, error) {
	var variants []model.ProductVariant
	err := r.db.WithContext(ctx).
		Where("sku <> '' AND sku IN (?)",
			r.db.Model(&model.ProductVariant{}).
				Select("sku").
				Where("sku <> ''").
				Group("sku").
				Having("COUNT(*) > 1"),
		).
		Order("sku asc").
		Find(&variants).Error
	return variants, err
}

// ListProductsWithDuplicateHandle 已入库的 handle 重复商品
func (r *productRepo) ListProductsWithDuplicateHandle(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("handle <> '' AND handle IN (?)",
			r.db.Model(&model.Product{}).
				Select("handle").
				Where("handle <> ''").
				Group("handle").
				Having("COUNT(*) > 1"),
		).
		Order("handle asc").
		Find(&products).Error
	return products, err
}
