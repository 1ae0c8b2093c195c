package service

import (
	"context"
	"strings"
	"unicode"

	"storehub_v1_202608/internal/model"
	"storehub_v1_202608/internal/repository"
)

// ==================== 常量 ====================

// 匹配方式（消费方据此分支，值保持稳定）
const (
	MatchMethodSKU    = "SKU"
	MatchMethodHandle = "HANDLE"
	MatchMethodTitle  = "TITLE"
)

const (
	skuConfidence    = 1.0  // SKU 命中视为权威
	handleConfidence = 0.95 // handle 精确命中
	titleThreshold   = 0.85 // 标题相似度达标线
	candidateLimit   = 50   // 标题候选集上限
	minKeywordLen    = 3    // 关键词最短长度
)

// 英文停用词表（固定，不做配置）
var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "from": {},
	"this": {}, "that": {}, "are": {}, "was": {}, "has": {},
	"have": {}, "not": {}, "but": {}, "all": {}, "can": {},
	"you": {}, "your": {}, "our": {}, "new": {}, "set": {},
}

// ==================== 数据结构 ====================

// DuplicateQuery 查重输入
type DuplicateQuery struct {
	SKU       string `json:"sku"`
	Handle    string `json:"handle"`
	Title     string `json:"title"`
	ExcludeID int64  `json:"exclude_id"` // 编辑场景下排除自身
}

// DuplicateResult 查重结果
type DuplicateResult struct {
	Found           bool           `json:"found"`
	Match           *model.Product `json:"match,omitempty"`
	Method          string         `json:"method,omitempty"` // SKU / HANDLE / TITLE
	Confidence      float64        `json:"confidence"`
	SimilarityScore float64        `json:"similarity_score,omitempty"` // 仅 TITLE 命中时有值
}

// DuplicateCluster 已入库重复簇（报表）
type DuplicateCluster struct {
	Method     string  `json:"method"` // SKU / HANDLE
	Key        string  `json:"key"`    // 重复的 sku 或 handle
	ProductIDs []int64 `json:"product_ids"`
}

// DuplicateReport 全量重复报表
type DuplicateReport struct {
	SKUClusters    []DuplicateCluster `json:"sku_clusters"`
	HandleClusters []DuplicateCluster `json:"handle_clusters"`
}

// ==================== 服务实现 ====================

// DuplicateService 三级身份判重：SKU → handle → 标题模糊
// 只读不写，三级严格短路，绝不合并信号
type DuplicateService struct {
	productRepo repository.ProductRepository
}

// NewDuplicateService 创建查重服务
func NewDuplicateService(productRepo repository.ProductRepository) *DuplicateService {
	return &DuplicateService{productRepo: productRepo}
}

// FindDuplicates 单条查重
// 命中即返回：SKU 置信度 1.0，handle 0.95，标题为相似度（≥0.85 才算命中）
func (s *DuplicateService) FindDuplicates(ctx context.Context, q DuplicateQuery) (*DuplicateResult, error) {
	// 1. SKU 级
	if q.SKU != "" {
		variant, err := s.productRepo.GetVariantBySKU(ctx, q.SKU, q.ExcludeID)
		if err != nil {
			return nil, err
		}
		if variant != nil {
			match := variant.Product
			if match == nil {
				match, err = s.productRepo.GetByID(ctx, variant.ProductID)
				if err != nil {
					return nil, err
				}
			}
			return &DuplicateResult{
				Found:      true,
				Match:      match,
				Method:     MatchMethodSKU,
				Confidence: skuConfidence,
			}, nil
		}
	}

	// 2. handle 级
	if q.Handle != "" {
		product, err := s.productRepo.GetByHandle(ctx, q.Handle, q.ExcludeID)
		if err != nil {
			return nil, err
		}
		if product != nil {
			return &DuplicateResult{
				Found:      true,
				Match:      product,
				Method:     MatchMethodHandle,
				Confidence: handleConfidence,
			}, nil
		}
	}

	// 3. 标题级
	keywords := ExtractKeywords(q.Title)
	if len(keywords) == 0 {
		// 空标题不报错，直接无匹配
		return &DuplicateResult{Found: false}, nil
	}

	candidates, err := s.productRepo.SearchTitleCandidates(ctx, keywords, q.ExcludeID, candidateLimit)
	if err != nil {
		return nil, err
	}

	normalized := NormalizeTitle(q.Title)
	var best *model.Product
	bestScore := 0.0
	for i := range candidates {
		score := TitleSimilarity(normalized, NormalizeTitle(candidates[i].Title))
		if score > bestScore {
			bestScore = score
			best = &candidates[i]
		}
	}

	if best != nil && bestScore >= titleThreshold {
		return &DuplicateResult{
			Found:           true,
			Match:           best,
			Method:          MatchMethodTitle,
			Confidence:      bestScore,
			SimilarityScore: bestScore,
		}, nil
	}

	return &DuplicateResult{Found: false}, nil
}

// FindDuplicatesBatch 批量查重，逐条独立执行
// 同批重复 SKU 合法且常见（变体同款），按 SKU 做一层本次调用内的记忆
func (s *DuplicateService) FindDuplicatesBatch(ctx context.Context, queries []DuplicateQuery) ([]DuplicateResult, error) {
	results := make([]DuplicateResult, 0, len(queries))
	memo := make(map[string]*DuplicateResult)

	for _, q := range queries {
		if q.SKU != "" && q.ExcludeID == 0 {
			if cached, ok := memo[q.SKU]; ok {
				results = append(results, *cached)
				continue
			}
		}

		res, err := s.FindDuplicates(ctx, q)
		if err != nil {
			return nil, err
		}
		if q.SKU != "" && q.ExcludeID == 0 && res.Method == MatchMethodSKU {
			memo[q.SKU] = res
		}
		results = append(results, *res)
	}
	return results, nil
}

// FindAllDuplicates 已入库重复簇报表（人工清理入口，非热路径）
func (s *DuplicateService) FindAllDuplicates(ctx context.Context) (*DuplicateReport, error) {
	report := &DuplicateReport{
		SKUClusters:    []DuplicateCluster{},
		HandleClusters: []DuplicateCluster{},
	}

	variants, err := s.productRepo.ListVariantsWithDuplicateSKU(ctx)
	if err != nil {
		return nil, err
	}
	bySKU := make(map[string][]int64)
	skuOrder := make([]string, 0)
	for _, v := range variants {
		if _, ok := bySKU[v.SKU]; !ok {
			skuOrder = append(skuOrder, v.SKU)
		}
		bySKU[v.SKU] = append(bySKU[v.SKU], v.ProductID)
	}
	for _, sku := range skuOrder {
		report.SKUClusters = append(report.SKUClusters, DuplicateCluster{
			Method:     MatchMethodSKU,
			Key:        sku,
			ProductIDs: bySKU[sku],
		})
	}

	products, err := s.productRepo.ListProductsWithDuplicateHandle(ctx)
	if err != nil {
		return nil, err
	}
	byHandle := make(map[string][]int64)
	handleOrder := make([]string, 0)
	for _, p := range products {
		if _, ok := byHandle[p.Handle]; !ok {
			handleOrder = append(handleOrder, p.Handle)
		}
		byHandle[p.Handle] = append(byHandle[p.Handle], p.ID)
	}
	for _, handle := range handleOrder {
		report.HandleClusters = append(report.HandleClusters, DuplicateCluster{
			Method:     MatchMethodHandle,
			Key:        handle,
			ProductIDs: byHandle[handle],
		})
	}

	return report, nil
}

// ==================== 文本处理 ====================

// NormalizeTitle 标题归一化：小写、去标点（保留连字符）、压缩空白
func NormalizeTitle(title string) string {
	lower := strings.ToLower(title)

	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// ExtractKeywords 归一化后取长度 ≥3 且不在停用词表的去重词
func ExtractKeywords(title string) []string {
	tokens := strings.Fields(NormalizeTitle(title))

	seen := make(map[string]struct{}, len(tokens))
	keywords := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if len(tok) < minKeywordLen {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		keywords = append(keywords, tok)
	}
	return keywords
}

// TitleSimilarity 归一化 Levenshtein 相似度：1 - dist/maxLen
// 两个空串按 1.0 处理
func TitleSimilarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshtein(ra, rb))/float64(maxLen)
}

// levenshtein 双行 DP 编辑距离
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = minInt(
				prev[j]+1,      // 删除
				curr[j-1]+1,    // 插入
				prev[j-1]+cost, // 替换
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func minInt(nums ...int) int {
	m := nums[0]
	for _, n := range nums[1:] {
		if n < m {
			m = n
		}
	}
	return m
}
