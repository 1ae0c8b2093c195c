package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"storehub_v1_202608/internal/model"
	"storehub_v1_202608/internal/repository"
)

// ==================== 数据结构 ====================

// ResolvedPrice 解析后的展示价
type ResolvedPrice struct {
	Price          float64                `json:"price"`
	CompareAtPrice float64                `json:"compare_at_price"`
	Currency       string                 `json:"currency"`
	Source         string                 `json:"price_source"` // MASTER / STORE_OVERRIDE / AUTO_ADJUSTED
	Adjustment     *model.PriceAdjustment `json:"adjustment,omitempty"`
}

// ResolvedProduct 商品 + 店铺维度解析结果
type ResolvedProduct struct {
	Product     *model.Product `json:"product"`
	StoreID     int64          `json:"store_id,omitempty"`
	Title       string         `json:"title"`       // 店铺文案覆盖后的标题
	Description string         `json:"description"` // 店铺文案覆盖后的描述
	IsActive    bool           `json:"is_active"`
	Price       ResolvedPrice  `json:"price"`
}

// StorePriceEntry 多店比价的单店条目
type StorePriceEntry struct {
	StoreID        int64                  `json:"store_id"`
	StoreName      string                 `json:"store_name"`
	Price          float64                `json:"price"`
	CompareAtPrice float64                `json:"compare_at_price"`
	Currency       string                 `json:"currency"`
	PriceSource    string                 `json:"price_source"`
	Adjustment     *model.PriceAdjustment `json:"adjustment,omitempty"`
}

// PriceComparison 多店比价结果
type PriceComparison struct {
	ProductID   int64             `json:"product_id"`
	Title       string            `json:"title"`
	MasterPrice ResolvedPrice     `json:"master_price"`
	Stores      []StorePriceEntry `json:"stores"`
}

// ==================== 服务实现 ====================

// PriceService 三级价格解析：店铺绝对价 > 调价规则 > 主价格
// 严格按档位取值，档位间绝不叠加
type PriceService struct {
	productRepo repository.ProductRepository
	mapRepo     repository.StoreMapRepository
}

// NewPriceService 创建价格服务
func NewPriceService(productRepo repository.ProductRepository, mapRepo repository.StoreMapRepository) *PriceService {
	return &PriceService{productRepo: productRepo, mapRepo: mapRepo}
}

// GetProductWithPrice 取商品并解析 storeID 维度的展示价
// 仅当商品不存在返回 (nil, nil)；无映射不算错，降级走主价格
func (s *PriceService) GetProductWithPrice(ctx context.Context, productID, storeID int64) (*ResolvedProduct, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var mapping *model.StoreProductMap
	if storeID > 0 {
		mapping, err = s.mapRepo.GetByStoreAndProduct(ctx, storeID, productID)
		if err != nil {
			return nil, err
		}
	}

	return s.resolve(product, mapping, storeID), nil
}

// resolve 组装店铺维度视图（价格 + 文案覆盖）
func (s *PriceService) resolve(product *model.Product, mapping *model.StoreProductMap, storeID int64) *ResolvedProduct {
	resolved := &ResolvedProduct{
		Product:     product,
		StoreID:     storeID,
		Title:       product.Title,
		Description: product.Description,
		IsActive:    true,
		Price:       s.ResolvePrice(product, mapping),
	}
	if mapping != nil {
		resolved.IsActive = mapping.IsActive
		if mapping.CustomTitle != "" {
			resolved.Title = mapping.CustomTitle
		}
		if mapping.CustomDescription != "" {
			resolved.Description = mapping.CustomDescription
		}
	}
	return resolved
}

// ResolvePrice 三级取价
func (s *PriceService) ResolvePrice(product *model.Product, mapping *model.StoreProductMap) ResolvedPrice {
	master := masterPrice(product)

	switch override := mapping.Override(); override.Kind {
	case model.OverrideCustom:
		// 店铺绝对价原样生效，币种缺省回落主币种
		resolved := ResolvedPrice{
			Price:    *override.Price,
			Currency: master.Currency,
			Source:   model.PriceSourceStoreOverride,
		}
		if override.CompareAtPrice != nil {
			resolved.CompareAtPrice = *override.CompareAtPrice
		}
		if override.Currency != "" {
			resolved.Currency = override.Currency
		}
		return resolved

	case model.OverrideAdjustment:
		// 规则作用于主价格；划线价存在时用同一规则
		// 不截断负值，越界规则由调用边界自行校验
		adj := override.Adjustment
		resolved := ResolvedPrice{
			Price:      adj.Apply(master.Price),
			Currency:   master.Currency,
			Source:     model.PriceSourceAutoAdjusted,
			Adjustment: adj,
		}
		if master.CompareAtPrice > 0 {
			resolved.CompareAtPrice = adj.Apply(master.CompareAtPrice)
		}
		return resolved
	}

	return master
}

// masterPrice 主价格：首变体兜底，无变体按 0 / USD
func masterPrice(product *model.Product) ResolvedPrice {
	resolved := ResolvedPrice{Currency: "USD", Source: model.PriceSourceMaster}
	if len(product.Variants) > 0 {
		base := product.Variants[0]
		resolved.Price = base.Price
		resolved.CompareAtPrice = base.CompareAtPrice
		if base.Currency != "" {
			resolved.Currency = base.Currency
		}
	}
	return resolved
}

// ==================== 写入侧 ====================

// SetStorePrice 设置店铺绝对价，同一次更新里清空调价规则
// 数值不做校验修正，原样落库，合法性由 API 边界负责
func (s *PriceService) SetStorePrice(ctx context.Context, storeID, productID int64, price float64, compareAtPrice *float64, currency string) error {
	mapping, err := s.mapRepo.GetByStoreAndProduct(ctx, storeID, productID)
	if err != nil {
		return err
	}

	if mapping == nil {
		return s.mapRepo.Upsert(ctx, &model.StoreProductMap{
			StoreID:              storeID,
			ProductID:            productID,
			IsActive:             true,
			CustomPrice:          &price,
			CustomCompareAtPrice: compareAtPrice,
			CustomCurrency:       currency,
		})
	}

	return s.mapRepo.UpdateFields(ctx, mapping.ID, map[string]interface{}{
		"custom_price":            price,
		"custom_compare_at_price": compareAtPrice,
		"custom_currency":         currency,
		"price_adjustment":        nil, // 互斥：绝对价生效即废弃规则
	})
}

// SetStorePriceAdjustment 设置调价规则，同一次更新里清空绝对价
func (s *PriceService) SetStorePriceAdjustment(ctx context.Context, storeID, productID int64, adj model.PriceAdjustment) error {
	raw, err := json.Marshal(adj)
	if err != nil {
		return fmt.Errorf("序列化调价规则失败: %w", err)
	}

	mapping, err := s.mapRepo.GetByStoreAndProduct(ctx, storeID, productID)
	if err != nil {
		return err
	}

	if mapping == nil {
		return s.mapRepo.Upsert(ctx, &model.StoreProductMap{
			StoreID:         storeID,
			ProductID:       productID,
			IsActive:        true,
			PriceAdjustment: datatypes.JSON(raw),
		})
	}

	return s.mapRepo.UpdateFields(ctx, mapping.ID, map[string]interface{}{
		"price_adjustment":        datatypes.JSON(raw),
		"custom_price":            nil, // 互斥：规则生效即废弃绝对价
		"custom_compare_at_price": nil,
		"custom_currency":         "",
	})
}

// ClearStoreOverride 清掉店铺的全部价格覆盖，回落主价格
func (s *PriceService) ClearStoreOverride(ctx context.Context, storeID, productID int64) error {
	mapping, err := s.mapRepo.GetByStoreAndProduct(ctx, storeID, productID)
	if err != nil {
		return err
	}
	if mapping == nil {
		return nil
	}
	return s.mapRepo.UpdateFields(ctx, mapping.ID, map[string]interface{}{
		"custom_price":            nil,
		"custom_compare_at_price": nil,
		"custom_currency":         "",
		"price_adjustment":        nil,
	})
}

// ==================== 聚合查询 ====================

// CompareProductPrices 多店比价：主价格 + 每个关联店铺的解析价
func (s *PriceService) CompareProductPrices(ctx context.Context, productID int64) (*PriceComparison, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	maps, err := s.mapRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	comparison := &PriceComparison{
		ProductID:   product.ID,
		Title:       product.Title,
		MasterPrice: masterPrice(product),
		Stores:      make([]StorePriceEntry, 0, len(maps)),
	}

	for i := range maps {
		m := &maps[i]
		price := s.ResolvePrice(product, m)

		entry := StorePriceEntry{
			StoreID:        m.StoreID,
			Price:          price.Price,
			CompareAtPrice: price.CompareAtPrice,
			Currency:       price.Currency,
			PriceSource:    price.Source,
			Adjustment:     price.Adjustment,
		}
		if m.Store != nil {
			entry.StoreName = m.Store.Name
		}
		comparison.Stores = append(comparison.Stores, entry)
	}

	return comparison, nil
}

// GetStoreProducts 店铺维度分页列表，逐条走三级取价
func (s *PriceService) GetStoreProducts(ctx context.Context, storeID int64, page, pageSize int, isActive *bool) ([]ResolvedProduct, int64, error) {
	maps, total, err := s.mapRepo.ListByStore(ctx, storeID, page, pageSize, isActive)
	if err != nil {
		return nil, 0, err
	}

	resolved := make([]ResolvedProduct, 0, len(maps))
	for i := range maps {
		m := &maps[i]
		product, err := s.productRepo.GetByID(ctx, m.ProductID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 主商品被删，映射留存属于脏数据，跳过不报错
			continue
		}
		if err != nil {
			return nil, 0, err
		}
		resolved = append(resolved, *s.resolve(product, m, storeID))
	}
	return resolved, total, nil
}
