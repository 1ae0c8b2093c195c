package service

import (
	"context"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"storehub_v1_202608/internal/model"
	"storehub_v1_202608/internal/repository"
)

// ==================== 测试辅助 ====================

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}

	err = db.AutoMigrate(
		&model.Brand{}, &model.Product{}, &model.ProductVariant{},
		&model.Store{}, &model.StoreProductMap{}, &model.SyncLog{},
	)
	if err != nil {
		t.Fatalf("建表失败: %v", err)
	}
	return db
}

func setupDedupService(t *testing.T) (*gorm.DB, *DuplicateService) {
	db := setupTestDB(t)
	return db, NewDuplicateService(repository.NewProductRepository(db))
}

func mustCreate(t *testing.T, db *gorm.DB, value interface{}) {
	if err := db.Create(value).Error; err != nil {
		t.Fatalf("造数失败: %v", err)
	}
}

// ==================== 单元测试 ====================

// SKU 命中权威返回，handle/标题都不再看
func TestFindDuplicates_SKUPrecedence(t *testing.T) {
	db, svc := setupDedupService(t)

	p1 := &model.Product{Title: "Ceramic Mug", Handle: "ceramic-mug"}
	mustCreate(t, db, p1)
	mustCreate(t, db, &model.ProductVariant{ProductID: p1.ID, SKU: "ABC-1", Price: 25})

	// handle 指向另一个商品，SKU 命中必须压过它
	p2 := &model.Product{Title: "Other Product", Handle: "shared-handle"}
	mustCreate(t, db, p2)

	res, err := svc.FindDuplicates(context.Background(), DuplicateQuery{
		SKU:    "ABC-1",
		Handle: "shared-handle",
		Title:  "X",
	})
	if err != nil {
		t.Fatalf("查重失败: %v", err)
	}

	if !res.Found {
		t.Fatal("期望命中，实际未命中")
	}
	if res.Method != MatchMethodSKU {
		t.Errorf("method = %s, want SKU", res.Method)
	}
	if res.Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0", res.Confidence)
	}
	if res.Match.ID != p1.ID {
		t.Errorf("match.ID = %d, want %d", res.Match.ID, p1.ID)
	}
}

// 无 SKU 命中时回落 handle，置信度固定 0.95
func TestFindDuplicates_HandleFallback(t *testing.T) {
	db, svc := setupDedupService(t)

	p := &model.Product{Title: "Ceramic Mug", Handle: "ceramic-mug"}
	mustCreate(t, db, p)

	res, err := svc.FindDuplicates(context.Background(), DuplicateQuery{
		SKU:    "NO-SUCH-SKU",
		Handle: "ceramic-mug",
		Title:  "whatever",
	})
	if err != nil {
		t.Fatalf("查重失败: %v", err)
	}

	if !res.Found || res.Method != MatchMethodHandle {
		t.Fatalf("method = %s, want HANDLE", res.Method)
	}
	if res.Confidence != 0.95 {
		t.Errorf("confidence = %v, want 0.95", res.Confidence)
	}
}

// 标题相似度过线命中，置信度即相似度
func TestFindDuplicates_TitleAboveThreshold(t *testing.T) {
	db, svc := setupDedupService(t)

	p := &model.Product{Title: "Nike Running Shoes Blue Size 41"}
	mustCreate(t, db, p)

	res, err := svc.FindDuplicates(context.Background(), DuplicateQuery{
		Title: "Nike Running Shoes Blue Size 42",
	})
	if err != nil {
		t.Fatalf("查重失败: %v", err)
	}

	if !res.Found || res.Method != MatchMethodTitle {
		t.Fatalf("期望标题命中, found=%v method=%s", res.Found, res.Method)
	}
	if res.SimilarityScore < 0.85 {
		t.Errorf("similarity = %v, want >= 0.85", res.SimilarityScore)
	}
	if res.Confidence != res.SimilarityScore {
		t.Errorf("confidence(%v) 应等于 similarity(%v)", res.Confidence, res.SimilarityScore)
	}
}

// 相似度不过线即无匹配，哪怕共享关键词
func TestFindDuplicates_TitleBelowThreshold(t *testing.T) {
	db, svc := setupDedupService(t)

	mustCreate(t, db, &model.Product{Title: "Nike Basketball Jersey Large Red"})

	res, err := svc.FindDuplicates(context.Background(), DuplicateQuery{
		Title: "Nike Running Shoes Blue Size 42",
	})
	if err != nil {
		t.Fatalf("查重失败: %v", err)
	}

	if res.Found {
		t.Errorf("不应命中，similarity=%v", res.SimilarityScore)
	}
	if res.Confidence != 0 {
		t.Errorf("confidence = %v, want 0", res.Confidence)
	}
}

// excludeId 在三个层级都要生效，编辑流程绝不能匹到自己
func TestFindDuplicates_ExcludeSelf(t *testing.T) {
	db, svc := setupDedupService(t)

	p := &model.Product{Title: "Handmade Ceramic Mug", Handle: "handmade-ceramic-mug"}
	mustCreate(t, db, p)
	mustCreate(t, db, &model.ProductVariant{ProductID: p.ID, SKU: "MUG-001", Price: 25})

	res, err := svc.FindDuplicates(context.Background(), DuplicateQuery{
		SKU:       "MUG-001",
		Handle:    "handmade-ceramic-mug",
		Title:     "Handmade Ceramic Mug",
		ExcludeID: p.ID,
	})
	if err != nil {
		t.Fatalf("查重失败: %v", err)
	}

	if res.Found {
		t.Errorf("排除自身后不应命中任何层级, method=%s", res.Method)
	}
}

// 空标题（无 SKU/handle）不报错，直接无匹配
func TestFindDuplicates_EmptyInput(t *testing.T) {
	_, svc := setupDedupService(t)

	res, err := svc.FindDuplicates(context.Background(), DuplicateQuery{})
	if err != nil {
		t.Fatalf("空输入不应报错: %v", err)
	}
	if res.Found {
		t.Error("空输入不应命中")
	}
}

func TestFindDuplicatesBatch(t *testing.T) {
	db, svc := setupDedupService(t)

	p := &model.Product{Title: "Ceramic Mug"}
	mustCreate(t, db, p)
	mustCreate(t, db, &model.ProductVariant{ProductID: p.ID, SKU: "MUG-001"})

	// 同批重复 SKU 合法
	results, err := svc.FindDuplicatesBatch(context.Background(), []DuplicateQuery{
		{SKU: "MUG-001", Title: "A"},
		{SKU: "MUG-001", Title: "B"},
		{Title: "Totally Unrelated Gadget"},
	})
	if err != nil {
		t.Fatalf("批量查重失败: %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	if !results[0].Found || !results[1].Found {
		t.Error("前两条应按 SKU 命中")
	}
	if results[1].Method != MatchMethodSKU {
		t.Errorf("results[1].Method = %s, want SKU", results[1].Method)
	}
	if results[2].Found {
		t.Error("第三条不应命中")
	}
}

func TestFindAllDuplicates(t *testing.T) {
	db, svc := setupDedupService(t)

	p1 := &model.Product{Title: "Mug A", Handle: "dup-handle"}
	p2 := &model.Product{Title: "Mug B", Handle: "dup-handle"}
	p3 := &model.Product{Title: "Mug C", Handle: "unique-handle"}
	mustCreate(t, db, p1)
	mustCreate(t, db, p2)
	mustCreate(t, db, p3)

	mustCreate(t, db, &model.ProductVariant{ProductID: p1.ID, SKU: "DUP-SKU"})
	mustCreate(t, db, &model.ProductVariant{ProductID: p2.ID, SKU: "DUP-SKU"})
	mustCreate(t, db, &model.ProductVariant{ProductID: p3.ID, SKU: "UNIQUE-SKU"})

	report, err := svc.FindAllDuplicates(context.Background())
	if err != nil {
		t.Fatalf("报表查询失败: %v", err)
	}

	if len(report.SKUClusters) != 1 {
		t.Fatalf("SKU 簇 = %d, want 1", len(report.SKUClusters))
	}
	if report.SKUClusters[0].Key != "DUP-SKU" || len(report.SKUClusters[0].ProductIDs) != 2 {
		t.Errorf("SKU 簇内容不对: %+v", report.SKUClusters[0])
	}

	if len(report.HandleClusters) != 1 {
		t.Fatalf("handle 簇 = %d, want 1", len(report.HandleClusters))
	}
	if report.HandleClusters[0].Key != "dup-handle" {
		t.Errorf("handle 簇 key = %s, want dup-handle", report.HandleClusters[0].Key)
	}
}

// ==================== 文本处理 ====================

func TestNormalizeTitle(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"  Nike  Running   Shoes ", "nike running shoes"},
		{"T-Shirt (Blue/XL)!", "t-shirt blue xl"},
		{"", ""},
		{"...", ""},
	}
	for _, c := range cases {
		if got := NormalizeTitle(c.in); got != c.want {
			t.Errorf("NormalizeTitle(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestExtractKeywords(t *testing.T) {
	kws := ExtractKeywords("The New Nike Running Shoes for Men")
	want := map[string]bool{"nike": true, "running": true, "shoes": true, "men": true}
	if len(kws) != len(want) {
		t.Fatalf("keywords = %v, want %v 个", kws, len(want))
	}
	for _, kw := range kws {
		if !want[kw] {
			t.Errorf("意外关键词: %s", kw)
		}
	}

	if got := ExtractKeywords(""); len(got) != 0 {
		t.Errorf("空标题应无关键词, got %v", got)
	}
}

func TestTitleSimilarity(t *testing.T) {
	if got := TitleSimilarity("", ""); got != 1.0 {
		t.Errorf("两空串 = %v, want 1.0", got)
	}
	if got := TitleSimilarity("abc", "abc"); got != 1.0 {
		t.Errorf("相同串 = %v, want 1.0", got)
	}
	if got := TitleSimilarity("abc", "xyz"); got != 0 {
		t.Errorf("完全不同 = %v, want 0", got)
	}
	// 31 字符差 1 位
	got := TitleSimilarity("nike running shoes blue size 42", "nike running shoes blue size 41")
	if got < 0.95 {
		t.Errorf("similarity = %v, want >= 0.95", got)
	}
}
