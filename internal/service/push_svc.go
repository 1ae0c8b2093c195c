package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"gorm.io/gorm"

	"storehub_v1_202608/internal/model"
	"storehub_v1_202608/internal/repository"
)

// ==================== 服务实现 ====================

// PushService 推送路径：把主档商品发布到外部店铺
// 创建前先按 SKU 查远端，避免平台侧重复建档
type PushService struct {
	storeRepo     repository.StoreRepository
	productRepo   repository.ProductRepository
	mapRepo       repository.StoreMapRepository
	priceService  *PriceService
	clientFactory ClientFactory
}

// NewPushService 创建推送服务
func NewPushService(
	storeRepo repository.StoreRepository,
	productRepo repository.ProductRepository,
	mapRepo repository.StoreMapRepository,
	priceService *PriceService,
	clientFactory ClientFactory,
) *PushService {
	return &PushService{
		storeRepo:     storeRepo,
		productRepo:   productRepo,
		mapRepo:       mapRepo,
		priceService:  priceService,
		clientFactory: clientFactory,
	}
}

// PushProduct 推送商品到店铺，返回更新后的映射
func (s *PushService) PushProduct(ctx context.Context, productID, storeID int64) (*model.StoreProductMap, error) {
	store, err := s.checkStore(ctx, storeID)
	if err != nil {
		return nil, err
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("商品不存在: %d", productID)
	}
	if err != nil {
		return nil, err
	}

	mapping, err := s.mapRepo.GetByStoreAndProduct(ctx, storeID, productID)
	if err != nil {
		return nil, err
	}

	client := s.clientFactory(store)
	payload := s.buildPayload(product, mapping)

	// 已有远端 ID 走更新；否则先按 SKU 探测远端，命中也走更新
	var externalID int64
	if mapping != nil && mapping.ExternalID != nil {
		externalID = *mapping.ExternalID
	} else if sku := firstSKU(product); sku != "" {
		remotes, err := client.FindBySKU(ctx, sku)
		if err != nil {
			return nil, fmt.Errorf("远端 SKU 查重失败: %w", err)
		}
		if len(remotes) > 0 {
			externalID = remotes[0].ID
			log.Printf("[PushService] 远端已存在 SKU=%s (external_id=%d)，转为更新", sku, externalID)
		}
	}

	var remoteCreated bool
	if externalID > 0 {
		if _, err := client.UpdateProduct(ctx, externalID, payload); err != nil {
			return nil, err
		}
	} else {
		res, err := client.CreateProduct(ctx, payload)
		if err != nil {
			return nil, err
		}
		externalID = res.ExternalID
		remoteCreated = true
	}

	now := time.Now()
	err = s.mapRepo.Upsert(ctx, &model.StoreProductMap{
		StoreID:      storeID,
		ProductID:    productID,
		ExternalID:   &externalID,
		IsActive:     true,
		LastSyncedAt: &now,
		SyncSource:   model.SyncSourceWebPush,
	})
	if err != nil {
		// 远端已建档但本地映射失败：尽力回滚远端，避免孤儿商品
		if remoteCreated {
			if delErr := client.DeleteProduct(ctx, externalID, true); delErr != nil {
				log.Printf("[CRITICAL] 映射落库失败且远端回滚失败！store=%d product=%d external=%d: %v",
					storeID, productID, externalID, delErr)
			} else {
				log.Printf("[PushService] 映射落库失败，已回滚远端商品 external=%d", externalID)
			}
		}
		return nil, fmt.Errorf("写入店铺映射失败: %w", err)
	}

	return s.mapRepo.GetByStoreAndProduct(ctx, storeID, productID)
}

// RemoveProduct 从店铺下架：删除远端商品并停用映射
func (s *PushService) RemoveProduct(ctx context.Context, productID, storeID int64) error {
	store, err := s.checkStore(ctx, storeID)
	if err != nil {
		return err
	}

	mapping, err := s.mapRepo.GetByStoreAndProduct(ctx, storeID, productID)
	if err != nil {
		return err
	}
	if mapping == nil || mapping.ExternalID == nil {
		return fmt.Errorf("商品 %d 未推送到店铺 %d", productID, storeID)
	}

	client := s.clientFactory(store)
	if err := client.DeleteProduct(ctx, *mapping.ExternalID, true); err != nil {
		return err
	}

	return s.mapRepo.UpdateFields(ctx, mapping.ID, map[string]interface{}{
		"is_active":   false,
		"external_id": nil,
	})
}

// ==================== 内部方法 ====================

// checkStore 推送前置校验，口径与同步器一致
func (s *PushService) checkStore(ctx context.Context, storeID int64) (*model.Store, error) {
	store, err := s.storeRepo.GetByID(ctx, storeID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, configErrorf("店铺不存在: %d", storeID)
	}
	if err != nil {
		return nil, err
	}
	if !store.IsActive {
		return nil, configErrorf("店铺已停用: %s", store.Name)
	}
	if store.Platform != model.PlatformWoo {
		return nil, configErrorf("暂不支持的平台: %s（仅支持 %s）", store.Platform, model.PlatformWoo)
	}
	if !store.HasCredentials() {
		return nil, configErrorf("店铺缺少平台凭证: %s", store.Name)
	}
	return store, nil
}

// buildPayload 组装 Woo 商品载荷，价格与文案都取店铺维度生效值
func (s *PushService) buildPayload(product *model.Product, mapping *model.StoreProductMap) map[string]interface{} {
	price := s.priceService.ResolvePrice(product, mapping)

	title := product.Title
	description := product.Description
	if mapping != nil {
		if mapping.CustomTitle != "" {
			title = mapping.CustomTitle
		}
		if mapping.CustomDescription != "" {
			description = mapping.CustomDescription
		}
	}

	payload := map[string]interface{}{
		"name":          title,
		"slug":          product.Handle,
		"description":   description,
		"type":          "simple",
		"status":        "publish",
		"regular_price": formatPrice(price.Price),
	}
	if price.CompareAtPrice > 0 {
		// Woo 语义：regular_price 为划线价，sale_price 为现售价
		payload["regular_price"] = formatPrice(price.CompareAtPrice)
		payload["sale_price"] = formatPrice(price.Price)
	}
	if sku := firstSKU(product); sku != "" {
		payload["sku"] = sku
	}
	if len(product.Categories) > 0 {
		cats := make([]map[string]interface{}, 0, len(product.Categories))
		for _, name := range product.Categories {
			cats = append(cats, map[string]interface{}{"name": name})
		}
		payload["categories"] = cats
	}
	if len(product.Images) > 0 {
		imgs := make([]map[string]interface{}, 0, len(product.Images))
		for _, src := range product.Images {
			imgs = append(imgs, map[string]interface{}{"src": src})
		}
		payload["images"] = imgs
	}
	return payload
}

func firstSKU(product *model.Product) string {
	if len(product.Variants) > 0 {
		return product.Variants[0].SKU
	}
	return ""
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
