package service

import (
	"context"
	"math"
	"testing"

	"gorm.io/gorm"

	"storehub_v1_202608/internal/model"
	"storehub_v1_202608/internal/repository"
)

// ==================== 测试辅助 ====================

func setupPriceService(t *testing.T) (*gorm.DB, *PriceService) {
	db := setupTestDB(t)
	svc := NewPriceService(
		repository.NewProductRepository(db),
		repository.NewStoreMapRepository(db),
	)
	return db, svc
}

// 浮点换算结果按分位精度比较
func priceEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func seedProductWithPrice(t *testing.T, db *gorm.DB, title string, price, compareAt float64) *model.Product {
	p := &model.Product{Title: title, Handle: ""}
	mustCreate(t, db, p)
	mustCreate(t, db, &model.ProductVariant{
		ProductID:      p.ID,
		SKU:            "SKU-" + title,
		Price:          price,
		CompareAtPrice: compareAt,
		Currency:       "USD",
	})
	return p
}

func seedStore(t *testing.T, db *gorm.DB, name string) *model.Store {
	s := &model.Store{
		Name: name, Platform: model.PlatformWoo, Domain: name + ".example.com",
		IsActive: true, ConsumerKey: "ck_test", ConsumerSecret: "cs_test",
	}
	mustCreate(t, db, s)
	return s
}

// ==================== 三级取价 ====================

// 无映射走主价格
func TestResolvePrice_MasterFallback(t *testing.T) {
	db, svc := setupPriceService(t)
	p := seedProductWithPrice(t, db, "Mug", 100, 0)

	resolved, err := svc.GetProductWithPrice(context.Background(), p.ID, 0)
	if err != nil {
		t.Fatalf("取价失败: %v", err)
	}
	if resolved.Price.Source != model.PriceSourceMaster {
		t.Errorf("source = %s, want MASTER", resolved.Price.Source)
	}
	if resolved.Price.Price != 100 || resolved.Price.Currency != "USD" {
		t.Errorf("price = %+v", resolved.Price)
	}
}

// 无变体商品按 0 / USD 兜底，不报错
func TestResolvePrice_NoVariants(t *testing.T) {
	db, svc := setupPriceService(t)
	p := &model.Product{Title: "Empty"}
	mustCreate(t, db, p)

	resolved, err := svc.GetProductWithPrice(context.Background(), p.ID, 0)
	if err != nil {
		t.Fatalf("取价失败: %v", err)
	}
	if resolved.Price.Price != 0 || resolved.Price.Currency != "USD" {
		t.Errorf("无变体兜底价错误: %+v", resolved.Price)
	}
}

// 商品不存在返回 (nil, nil)
func TestGetProductWithPrice_NotFound(t *testing.T) {
	_, svc := setupPriceService(t)

	resolved, err := svc.GetProductWithPrice(context.Background(), 999, 0)
	if err != nil {
		t.Fatalf("不存在商品不应报错: %v", err)
	}
	if resolved != nil {
		t.Error("不存在商品应返回 nil")
	}
}

// 店铺绝对价压过一切
func TestResolvePrice_StoreOverride(t *testing.T) {
	db, svc := setupPriceService(t)
	ctx := context.Background()
	p := seedProductWithPrice(t, db, "Mug", 100, 120)
	store := seedStore(t, db, "s1")

	compareAt := 150.0
	if err := svc.SetStorePrice(ctx, store.ID, p.ID, 88, &compareAt, "EUR"); err != nil {
		t.Fatalf("设置绝对价失败: %v", err)
	}

	resolved, err := svc.GetProductWithPrice(ctx, p.ID, store.ID)
	if err != nil {
		t.Fatalf("取价失败: %v", err)
	}
	if resolved.Price.Source != model.PriceSourceStoreOverride {
		t.Fatalf("source = %s, want STORE_OVERRIDE", resolved.Price.Source)
	}
	if resolved.Price.Price != 88 || resolved.Price.CompareAtPrice != 150 || resolved.Price.Currency != "EUR" {
		t.Errorf("price = %+v", resolved.Price)
	}
}

// 绝对价未带币种时回落主币种
func TestResolvePrice_OverrideCurrencyFallback(t *testing.T) {
	db, svc := setupPriceService(t)
	ctx := context.Background()
	p := seedProductWithPrice(t, db, "Mug", 100, 0)
	store := seedStore(t, db, "s1")

	if err := svc.SetStorePrice(ctx, store.ID, p.ID, 88, nil, ""); err != nil {
		t.Fatalf("设置绝对价失败: %v", err)
	}

	resolved, _ := svc.GetProductWithPrice(ctx, p.ID, store.ID)
	if resolved.Price.Currency != "USD" {
		t.Errorf("currency = %s, want USD", resolved.Price.Currency)
	}
}

// 调价规则作用于主价格
func TestResolvePrice_Adjustment(t *testing.T) {
	db, svc := setupPriceService(t)
	ctx := context.Background()
	store := seedStore(t, db, "s1")

	cases := []struct {
		name string
		adj  model.PriceAdjustment
		want float64
	}{
		{"加价20%", model.PriceAdjustment{Type: model.AdjustTypeMarkup, Value: 20, Unit: model.AdjustUnitPercent}, 120},
		{"减价10元", model.PriceAdjustment{Type: model.AdjustTypeDiscount, Value: 10, Unit: model.AdjustUnitAmount}, 90},
		{"固定价", model.PriceAdjustment{Type: model.AdjustTypeFixed, Value: 49.99}, 49.99},
		{"减价15%", model.PriceAdjustment{Type: model.AdjustTypeDiscount, Value: 15, Unit: model.AdjustUnitPercent}, 85},
		// 不截断负值，越界由 API 边界把关
		{"超额减价", model.PriceAdjustment{Type: model.AdjustTypeDiscount, Value: 150, Unit: model.AdjustUnitPercent}, -50},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := seedProductWithPrice(t, db, "Mug-"+c.name, 100, 0)
			if err := svc.SetStorePriceAdjustment(ctx, store.ID, p.ID, c.adj); err != nil {
				t.Fatalf("设置规则失败: %v", err)
			}

			resolved, err := svc.GetProductWithPrice(ctx, p.ID, store.ID)
			if err != nil {
				t.Fatalf("取价失败: %v", err)
			}
			if resolved.Price.Source != model.PriceSourceAutoAdjusted {
				t.Fatalf("source = %s, want AUTO_ADJUSTED", resolved.Price.Source)
			}
			if !priceEq(resolved.Price.Price, c.want) {
				t.Errorf("price = %v, want %v", resolved.Price.Price, c.want)
			}
			if resolved.Price.Adjustment == nil || resolved.Price.Adjustment.Type != c.adj.Type {
				t.Errorf("规则未回显: %+v", resolved.Price.Adjustment)
			}
		})
	}
}

// 划线价存在时用同一规则换算
func TestResolvePrice_AdjustmentCompareAt(t *testing.T) {
	db, svc := setupPriceService(t)
	ctx := context.Background()
	p := seedProductWithPrice(t, db, "Mug", 100, 200)
	store := seedStore(t, db, "s1")

	adj := model.PriceAdjustment{Type: model.AdjustTypeMarkup, Value: 10, Unit: model.AdjustUnitPercent}
	if err := svc.SetStorePriceAdjustment(ctx, store.ID, p.ID, adj); err != nil {
		t.Fatalf("设置规则失败: %v", err)
	}

	resolved, _ := svc.GetProductWithPrice(ctx, p.ID, store.ID)
	if !priceEq(resolved.Price.Price, 110) || !priceEq(resolved.Price.CompareAtPrice, 220) {
		t.Errorf("price = %+v", resolved.Price)
	}
}

// ==================== 互斥约束 ====================

// 先规则后绝对价：绝对价生效，规则被同一次更新清掉
func TestSetStorePrice_ClearsAdjustment(t *testing.T) {
	db, svc := setupPriceService(t)
	ctx := context.Background()
	p := seedProductWithPrice(t, db, "Mug", 100, 0)
	store := seedStore(t, db, "s1")

	adj := model.PriceAdjustment{Type: model.AdjustTypeMarkup, Value: 20, Unit: model.AdjustUnitPercent}
	if err := svc.SetStorePriceAdjustment(ctx, store.ID, p.ID, adj); err != nil {
		t.Fatalf("设置规则失败: %v", err)
	}
	if err := svc.SetStorePrice(ctx, store.ID, p.ID, 66, nil, ""); err != nil {
		t.Fatalf("设置绝对价失败: %v", err)
	}

	var mapping model.StoreProductMap
	if err := db.Where("store_id = ? AND product_id = ?", store.ID, p.ID).First(&mapping).Error; err != nil {
		t.Fatalf("查映射失败: %v", err)
	}
	if mapping.CustomPrice == nil || *mapping.CustomPrice != 66 {
		t.Errorf("custom_price = %v, want 66", mapping.CustomPrice)
	}
	if mapping.Adjustment() != nil {
		t.Error("规则应被清空")
	}

	resolved, _ := svc.GetProductWithPrice(ctx, p.ID, store.ID)
	if resolved.Price.Source != model.PriceSourceStoreOverride || resolved.Price.Price != 66 {
		t.Errorf("price = %+v", resolved.Price)
	}
}

// 先绝对价后规则：规则生效，绝对价被清掉
func TestSetStorePriceAdjustment_ClearsCustomPrice(t *testing.T) {
	db, svc := setupPriceService(t)
	ctx := context.Background()
	p := seedProductWithPrice(t, db, "Mug", 100, 0)
	store := seedStore(t, db, "s1")

	if err := svc.SetStorePrice(ctx, store.ID, p.ID, 66, nil, "EUR"); err != nil {
		t.Fatalf("设置绝对价失败: %v", err)
	}
	adj := model.PriceAdjustment{Type: model.AdjustTypeMarkup, Value: 20, Unit: model.AdjustUnitPercent}
	if err := svc.SetStorePriceAdjustment(ctx, store.ID, p.ID, adj); err != nil {
		t.Fatalf("设置规则失败: %v", err)
	}

	var mapping model.StoreProductMap
	if err := db.Where("store_id = ? AND product_id = ?", store.ID, p.ID).First(&mapping).Error; err != nil {
		t.Fatalf("查映射失败: %v", err)
	}
	if mapping.CustomPrice != nil {
		t.Errorf("custom_price 应被清空, got %v", *mapping.CustomPrice)
	}
	if mapping.CustomCurrency != "" {
		t.Errorf("custom_currency 应被清空, got %s", mapping.CustomCurrency)
	}

	resolved, _ := svc.GetProductWithPrice(ctx, p.ID, store.ID)
	if resolved.Price.Source != model.PriceSourceAutoAdjusted || !priceEq(resolved.Price.Price, 120) {
		t.Errorf("price = %+v", resolved.Price)
	}
}

// 历史脏数据两者都有时，绝对价优先
func TestResolvePrice_BothSetCustomWins(t *testing.T) {
	db, svc := setupPriceService(t)
	p := seedProductWithPrice(t, db, "Mug", 100, 0)
	store := seedStore(t, db, "s1")

	price := 66.0
	mustCreate(t, db, &model.StoreProductMap{
		StoreID:         store.ID,
		ProductID:       p.ID,
		IsActive:        true,
		CustomPrice:     &price,
		PriceAdjustment: []byte(`{"type":"markup","value":20,"unit":"percent"}`),
	})

	resolved, _ := svc.GetProductWithPrice(context.Background(), p.ID, store.ID)
	if resolved.Price.Source != model.PriceSourceStoreOverride || resolved.Price.Price != 66 {
		t.Errorf("两者并存时应取绝对价: %+v", resolved.Price)
	}
}

func TestClearStoreOverride(t *testing.T) {
	db, svc := setupPriceService(t)
	ctx := context.Background()
	p := seedProductWithPrice(t, db, "Mug", 100, 0)
	store := seedStore(t, db, "s1")

	if err := svc.SetStorePrice(ctx, store.ID, p.ID, 66, nil, ""); err != nil {
		t.Fatalf("设置绝对价失败: %v", err)
	}
	if err := svc.ClearStoreOverride(ctx, store.ID, p.ID); err != nil {
		t.Fatalf("清除失败: %v", err)
	}

	resolved, _ := svc.GetProductWithPrice(ctx, p.ID, store.ID)
	if resolved.Price.Source != model.PriceSourceMaster || resolved.Price.Price != 100 {
		t.Errorf("清除后应回落主价格: %+v", resolved.Price)
	}

	// 无映射时清除是空操作
	if err := svc.ClearStoreOverride(ctx, store.ID, 999); err != nil {
		t.Errorf("无映射清除不应报错: %v", err)
	}
}

// ==================== 聚合查询 ====================

func TestCompareProductPrices(t *testing.T) {
	db, svc := setupPriceService(t)
	ctx := context.Background()
	p := seedProductWithPrice(t, db, "Mug", 100, 0)
	s1 := seedStore(t, db, "s1")
	s2 := seedStore(t, db, "s2")
	s3 := seedStore(t, db, "s3")

	if err := svc.SetStorePrice(ctx, s1.ID, p.ID, 88, nil, ""); err != nil {
		t.Fatalf("设置绝对价失败: %v", err)
	}
	adj := model.PriceAdjustment{Type: model.AdjustTypeDiscount, Value: 15, Unit: model.AdjustUnitPercent}
	if err := svc.SetStorePriceAdjustment(ctx, s2.ID, p.ID, adj); err != nil {
		t.Fatalf("设置规则失败: %v", err)
	}
	mustCreate(t, db, &model.StoreProductMap{StoreID: s3.ID, ProductID: p.ID, IsActive: true})

	comparison, err := svc.CompareProductPrices(ctx, p.ID)
	if err != nil {
		t.Fatalf("比价失败: %v", err)
	}
	if comparison.MasterPrice.Price != 100 {
		t.Errorf("master = %v, want 100", comparison.MasterPrice.Price)
	}
	if len(comparison.Stores) != 3 {
		t.Fatalf("stores = %d, want 3", len(comparison.Stores))
	}

	bySource := make(map[string]float64)
	for _, entry := range comparison.Stores {
		bySource[entry.PriceSource] = entry.Price
	}
	if bySource[model.PriceSourceStoreOverride] != 88 {
		t.Errorf("STORE_OVERRIDE = %v, want 88", bySource[model.PriceSourceStoreOverride])
	}
	if !priceEq(bySource[model.PriceSourceAutoAdjusted], 85) {
		t.Errorf("AUTO_ADJUSTED = %v, want 85", bySource[model.PriceSourceAutoAdjusted])
	}
	if bySource[model.PriceSourceMaster] != 100 {
		t.Errorf("MASTER = %v, want 100", bySource[model.PriceSourceMaster])
	}
}

func TestGetStoreProducts(t *testing.T) {
	db, svc := setupPriceService(t)
	ctx := context.Background()
	store := seedStore(t, db, "s1")
	p1 := seedProductWithPrice(t, db, "Mug", 100, 0)
	p2 := seedProductWithPrice(t, db, "Bowl", 50, 0)

	if err := svc.SetStorePrice(ctx, store.ID, p1.ID, 88, nil, ""); err != nil {
		t.Fatalf("设置绝对价失败: %v", err)
	}
	mustCreate(t, db, &model.StoreProductMap{StoreID: store.ID, ProductID: p2.ID, IsActive: false})

	products, total, err := svc.GetStoreProducts(ctx, store.ID, 1, 20, nil)
	if err != nil {
		t.Fatalf("列表失败: %v", err)
	}
	if total != 2 || len(products) != 2 {
		t.Fatalf("total=%d len=%d, want 2/2", total, len(products))
	}

	// 过滤上架状态
	active := true
	products, total, err = svc.GetStoreProducts(ctx, store.ID, 1, 20, &active)
	if err != nil {
		t.Fatalf("列表失败: %v", err)
	}
	if total != 1 || len(products) != 1 {
		t.Fatalf("active 过滤后 total=%d len=%d, want 1/1", total, len(products))
	}
	if products[0].Price.Price != 88 {
		t.Errorf("price = %v, want 88", products[0].Price.Price)
	}
}

// 店铺文案覆盖只影响展示，不动主数据
func TestResolve_CustomTitleOverride(t *testing.T) {
	db, svc := setupPriceService(t)
	p := seedProductWithPrice(t, db, "Mug", 100, 0)
	store := seedStore(t, db, "s1")

	mustCreate(t, db, &model.StoreProductMap{
		StoreID: store.ID, ProductID: p.ID, IsActive: true,
		CustomTitle: "Store Exclusive Mug",
	})

	resolved, _ := svc.GetProductWithPrice(context.Background(), p.ID, store.ID)
	if resolved.Title != "Store Exclusive Mug" {
		t.Errorf("title = %s", resolved.Title)
	}
	if resolved.Product.Title != "Mug" {
		t.Errorf("主标题不应被改: %s", resolved.Product.Title)
	}
}
