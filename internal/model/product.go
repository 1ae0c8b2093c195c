package model

import (
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

type Product struct {
	BaseModel
	// --- 基本信息 ---
	Title       string `gorm:"size:255;index"` // 商品标题（模糊查重的匹配对象）
	Handle      string `gorm:"size:255;index"` // URL slug, 期望唯一但本层不强制
	Description string `gorm:"type:text"`
	Vendor      string `gorm:"size:100"`

	// --- 品牌关系 ---
	BrandID *int64 `gorm:"index"`
	Brand   *Brand `gorm:"foreignKey:BrandID"`

	// --- 分类与图片 (Postgres Array) ---
	Categories pq.StringArray `gorm:"type:text[]"` // 分类名集合，顺序无关
	Images     pq.StringArray `gorm:"type:text[]"` // 图片 URL，保持顺序

	// --- 共享目录 ---
	IsShared bool `gorm:"default:false;index"` // 是否出现在跨店共享目录

	// --- 审计快照 ---
	// 最近一次外部来源的原始 JSON，仅作审计/排查用，不做结构化解析
	RawPayload datatypes.JSON `gorm:"type:jsonb"`

	// --- 关联关系 ---
	Variants []ProductVariant `gorm:"foreignKey:ProductID"`
}

func (Product) TableName() string {
	return "products"
}

type ProductVariant struct {
	BaseModel
	// --- 关联 ---
	ProductID int64    `gorm:"index;not null"`
	Product   *Product `gorm:"foreignKey:ProductID"`

	// --- 身份 ---
	// SKU 可空，但非空时事实上是自然键：查重与 upsert 都依赖它
	SKU string `gorm:"size:100;index"`

	// --- 价格 ---
	// CompareAtPrice 恒为划线价（折扣前参考价），Price 为现售价
	Price          float64 `gorm:"type:decimal(12,2);default:0"`
	CompareAtPrice float64 `gorm:"type:decimal(12,2);default:0"`
	Currency       string  `gorm:"size:5"`

	// --- 展示 ---
	FeaturedImage string `gorm:"size:500"`
	Position      int    `gorm:"default:0"`

	// --- 审计快照 ---
	RawPayload datatypes.JSON `gorm:"type:jsonb"`
}

func (ProductVariant) TableName() string {
	return "product_variants"
}

type Brand struct {
	BaseModel
	Name string `gorm:"size:100;uniqueIndex"`
}

func (Brand) TableName() string {
	return "brands"
}
