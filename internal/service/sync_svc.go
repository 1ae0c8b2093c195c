package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"storehub_v1_202608/internal/model"
	"storehub_v1_202608/internal/repository"
	"storehub_v1_202608/pkg/woo"
)

// ==================== 错误分类 ====================

// ConfigError 配置类错误：店铺缺失、停用、平台不符、无凭证
// 属于调用方可修复的问题，HTTP 边界据此映射 4xx；其余错误按内部故障处理
type ConfigError struct {
	msg string
}

func (e *ConfigError) Error() string { return e.msg }

func configErrorf(format string, args ...interface{}) error {
	return &ConfigError{msg: fmt.Sprintf(format, args...)}
}

// ==================== 数据结构 ====================

// SyncOptions 同步参数
type SyncOptions struct {
	ModifiedAfter *time.Time // 非空时做增量拉取
	PageSize      int        // 默认 100
	MaxPages      int        // 0 表示不限页数
}

// SyncError 单条商品失败明细
type SyncError struct {
	ProductID int64  `json:"product_id"` // 外部平台侧 ID
	Title     string `json:"title"`
	Error     string `json:"error"`
}

// SyncResult 一次同步的汇总，部分成功也完整返回
type SyncResult struct {
	RunID      string      `json:"run_id"`
	StoreID    int64       `json:"store_id"`
	Total      int         `json:"total"`
	Created    int         `json:"created"`
	Updated    int         `json:"updated"`
	Skipped    int         `json:"skipped"`
	Failed     int         `json:"failed"`
	Errors     []SyncError `json:"errors"`
	DurationMs int64       `json:"duration_ms"`
}

// ==================== 服务实现 ====================

// SyncService 目录同步器：从 WooCommerce 分页拉取，逐条判重后建档或更新
// 单条失败只计数不中断，页拉取失败停止翻页但保留已完成的结果
type SyncService struct {
	storeRepo     repository.StoreRepository
	productRepo   repository.ProductRepository
	mapRepo       repository.StoreMapRepository
	syncLogRepo   repository.SyncLogRepository
	dedupService  *DuplicateService
	clientFactory ClientFactory
}

// NewSyncService 创建同步服务
func NewSyncService(
	storeRepo repository.StoreRepository,
	productRepo repository.ProductRepository,
	mapRepo repository.StoreMapRepository,
	syncLogRepo repository.SyncLogRepository,
	dedupService *DuplicateService,
	clientFactory ClientFactory,
) *SyncService {
	return &SyncService{
		storeRepo:     storeRepo,
		productRepo:   productRepo,
		mapRepo:       mapRepo,
		syncLogRepo:   syncLogRepo,
		dedupService:  dedupService,
		clientFactory: clientFactory,
	}
}

// SyncStoreProducts 全量/条件同步店铺商品
// 前置校验不过立即报错（配置问题，不产生部分结果，也不重试）
func (s *SyncService) SyncStoreProducts(ctx context.Context, storeID int64, opts SyncOptions) (*SyncResult, error) {
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

	if opts.PageSize <= 0 {
		opts.PageSize = 100
	}

	client := s.clientFactory(store)
	start := time.Now()
	result := &SyncResult{
		RunID:   uuid.NewString(),
		StoreID: storeID,
		Errors:  []SyncError{},
	}

	log.Printf("[SyncService] 开始同步店铺 %d (%s), pageSize=%d", storeID, store.Name, opts.PageSize)

	for page := 1; ; page++ {
		if opts.MaxPages > 0 && page > opts.MaxPages {
			break
		}

		items, totalPages, err := client.ListProducts(ctx, page, opts.PageSize, "modified", "desc", opts.ModifiedAfter)
		if err != nil {
			// 页拉取失败：停止翻页，已完成的页保留在结果里
			log.Printf("[SyncService] 第 %d 页拉取失败，停止翻页: %v", page, err)
			break
		}
		if len(items) == 0 {
			break
		}

		for i := range items {
			item := &items[i]
			result.Total++

			created, err := s.syncOne(ctx, store, client, item)
			if err != nil {
				// 单条隔离：一条坏数据不拖垮整批
				result.Failed++
				result.Errors = append(result.Errors, SyncError{
					ProductID: item.ID,
					Title:     item.Name,
					Error:     err.Error(),
				})
				log.Printf("[SyncService] 商品同步失败 external_id=%d: %v", item.ID, err)
				continue
			}

			if created {
				result.Created++
			} else {
				result.Updated++
			}
		}

		if totalPages > 0 && page >= totalPages {
			break
		}
	}

	result.DurationMs = time.Since(start).Milliseconds()
	s.recordRun(ctx, store, result)

	log.Printf("[SyncService] 店铺 %d 同步完成: total=%d created=%d updated=%d failed=%d (%dms)",
		storeID, result.Total, result.Created, result.Updated, result.Failed, result.DurationMs)
	return result, nil
}

// SyncModifiedProducts 增量同步：以店铺映射里最新的 LastSyncedAt 为起点
// 无同步记录时回落全量
func (s *SyncService) SyncModifiedProducts(ctx context.Context, storeID int64) (*SyncResult, error) {
	since, err := s.mapRepo.MaxLastSyncedAt(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if since == nil {
		log.Printf("[SyncService] 店铺 %d 无同步记录，执行全量同步", storeID)
	}
	return s.SyncStoreProducts(ctx, storeID, SyncOptions{ModifiedAfter: since})
}

// ==================== 单条处理 ====================

// syncOne 处理一条外部商品：判重 → 建档或更新 → 变体 → 映射
// 返回值标记本条是建档（true）还是更新（false）
func (s *SyncService) syncOne(ctx context.Context, store *model.Store, client PlatformClient, item *woo.Product) (bool, error) {
	dup, err := s.dedupService.FindDuplicates(ctx, DuplicateQuery{
		SKU:    item.SKU,
		Handle: item.Slug,
		Title:  item.Name,
	})
	if err != nil {
		return false, fmt.Errorf("判重失败: %w", err)
	}

	var productID int64
	created := false
	if dup.Found {
		// 更新主档的非受保护字段；brand_id / is_shared 保持不动
		productID = dup.Match.ID
		err = s.productRepo.UpdateFields(ctx, productID, map[string]interface{}{
			"title":       item.Name,
			"description": pickDescription(item),
			"handle":      item.Slug,
			"categories":  categoryNames(item),
			"images":      imageURLs(item),
			"raw_payload": datatypes.JSON(item.Raw),
		})
		if err != nil {
			return false, fmt.Errorf("更新主档失败: %w", err)
		}
	} else {
		product := &model.Product{
			Title:       item.Name,
			Handle:      item.Slug,
			Description: pickDescription(item),
			Categories:  categoryNames(item),
			Images:      imageURLs(item),
			RawPayload:  datatypes.JSON(item.Raw),
		}
		if err := s.productRepo.Create(ctx, product); err != nil {
			return false, fmt.Errorf("创建主档失败: %w", err)
		}
		productID = product.ID
		created = true
	}

	if err := s.syncVariants(ctx, client, productID, item); err != nil {
		return created, err
	}

	// 映射 upsert：同一 (store, product) 永远只有一行
	now := time.Now()
	err = s.mapRepo.Upsert(ctx, &model.StoreProductMap{
		StoreID:      store.ID,
		ProductID:    productID,
		ExternalID:   &item.ID,
		IsActive:     item.Status == "publish",
		LastSyncedAt: &now,
		SyncSource:   model.SyncSourceWoo,
	})
	if err != nil {
		return created, fmt.Errorf("写入店铺映射失败: %w", err)
	}
	return created, nil
}

// syncVariants 同步变体
// simple 商品：单变体按 SKU upsert；variable 商品：逐个拉取变体，单个失败不影响其余
func (s *SyncService) syncVariants(ctx context.Context, client PlatformClient, productID int64, item *woo.Product) error {
	if item.Type == woo.TypeVariable && len(item.Variations) > 0 {
		for _, variationID := range item.Variations {
			variation, err := client.GetVariation(ctx, item.ID, variationID)
			if err != nil {
				log.Printf("[SyncService] 变体拉取失败 product=%d variation=%d: %v", item.ID, variationID, err)
				continue
			}

			sku := variation.SKU
			if sku == "" {
				// 无 SKU 的变体给确定性生成键，保证重复同步幂等
				sku = fmt.Sprintf("WOO-%d-VAR-%d", item.ID, variationID)
			}
			price, compareAt := variation.EffectivePrice()
			featured := ""
			if variation.Image != nil {
				featured = variation.Image.Src
			}

			if err := s.upsertVariant(ctx, productID, sku, price, compareAt, featured, variation.Raw); err != nil {
				log.Printf("[SyncService] 变体写入失败 product=%d variation=%d: %v", item.ID, variationID, err)
			}
		}
		return nil
	}

	price, compareAt := item.EffectivePrice()
	featured := ""
	if len(item.Images) > 0 {
		featured = item.Images[0].Src
	}
	if err := s.upsertVariant(ctx, productID, item.SKU, price, compareAt, featured, item.Raw); err != nil {
		return fmt.Errorf("变体同步失败: %w", err)
	}
	return nil
}

// upsertVariant 变体落库
// 有 SKU 按 SKU upsert；无 SKU 回落为更新首变体，否则新建一条
func (s *SyncService) upsertVariant(ctx context.Context, productID int64, sku string, price, compareAt float64, featuredImage string, raw json.RawMessage) error {
	var existing *model.ProductVariant
	var err error

	if sku != "" {
		existing, err = s.productRepo.GetVariantBySKU(ctx, sku, 0)
	} else {
		existing, err = s.productRepo.FirstVariant(ctx, productID)
	}
	if err != nil {
		return err
	}

	if existing != nil {
		existing.ProductID = productID
		existing.SKU = sku
		existing.Price = price
		existing.CompareAtPrice = compareAt
		existing.FeaturedImage = featuredImage
		existing.RawPayload = datatypes.JSON(raw)
		existing.Product = nil
		return s.productRepo.UpdateVariant(ctx, existing)
	}

	return s.productRepo.CreateVariant(ctx, &model.ProductVariant{
		ProductID:      productID,
		SKU:            sku,
		Price:          price,
		CompareAtPrice: compareAt,
		FeaturedImage:  featuredImage,
		RawPayload:     datatypes.JSON(raw),
	})
}

// recordRun 落一条同步运行记录（尽力而为，失败只记日志）
func (s *SyncService) recordRun(ctx context.Context, store *model.Store, result *SyncResult) {
	if s.syncLogRepo == nil {
		return
	}
	errJSON, _ := json.Marshal(result.Errors)
	entry := &model.SyncLog{
		RunID:      result.RunID,
		StoreID:    store.ID,
		Source:     model.SyncSourceWoo,
		Total:      result.Total,
		Created:    result.Created,
		Updated:    result.Updated,
		Skipped:    result.Skipped,
		Failed:     result.Failed,
		Errors:     datatypes.JSON(errJSON),
		DurationMs: result.DurationMs,
	}
	if err := s.syncLogRepo.Create(ctx, entry); err != nil {
		log.Printf("[SyncService] 同步记录落库失败 run=%s: %v", result.RunID, err)
	}
}

// ==================== 字段提取 ====================

func pickDescription(item *woo.Product) string {
	if item.Description != "" {
		return item.Description
	}
	return item.ShortDescription
}

func categoryNames(item *woo.Product) pq.StringArray {
	names := make(pq.StringArray, 0, len(item.Categories))
	for _, c := range item.Categories {
		if c.Name != "" {
			names = append(names, c.Name)
		}
	}
	return names
}

func imageURLs(item *woo.Product) pq.StringArray {
	urls := make(pq.StringArray, 0, len(item.Images))
	for _, img := range item.Images {
		if img.Src != "" {
			urls = append(urls, img.Src)
		}
	}
	return urls
}
