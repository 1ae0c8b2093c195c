package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"storehub_v1_202608/internal/model"
	"storehub_v1_202608/pkg/woo"
)

// ==================== 平台适配层 ====================

// PlatformClient 外部电商平台能力抽象
// 同步/推送只依赖这个接口，pkg/woo 提供 WooCommerce 实现，测试注入假实现
type PlatformClient interface {
	ListProducts(ctx context.Context, page, pageSize int, orderBy, order string, modifiedAfter *time.Time) ([]woo.Product, int, error)
	GetVariation(ctx context.Context, productID, variationID int64) (*woo.Variation, error)
	CreateProduct(ctx context.Context, payload map[string]interface{}) (*woo.CreateResult, error)
	UpdateProduct(ctx context.Context, externalID int64, payload map[string]interface{}) (*woo.CreateResult, error)
	DeleteProduct(ctx context.Context, externalID int64, force bool) error
	FindBySKU(ctx context.Context, sku string) ([]woo.Product, error)
}

// ClientFactory 按店铺凭证构造平台客户端
type ClientFactory func(store *model.Store) PlatformClient

// 客户端按 店铺ID+凭证 复用，凭证换了会自然失效重建
var clientCache sync.Map

// DefaultClientFactory 生产环境工厂：WooCommerce REST v3
func DefaultClientFactory(store *model.Store) PlatformClient {
	key := fmt.Sprintf("%d:%s", store.ID, store.ConsumerKey)
	if cached, ok := clientCache.Load(key); ok {
		return cached.(PlatformClient)
	}

	client := woo.NewClient(woo.Config{
		Domain:         store.Domain,
		ConsumerKey:    store.ConsumerKey,
		ConsumerSecret: store.ConsumerSecret,
	})
	clientCache.Store(key, client)
	return client
}
