package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// ==================== 常量 ====================

// 平台类型
const (
	PlatformWoo     = "WOO"
	PlatformShopify = "SHOPIFY" // 仅占位，同步/推送尚未支持
)

// 同步来源
const (
	SyncSourceWoo     = "WOO"      // 从 WooCommerce 拉取
	SyncSourceWebPush = "WEB_PUSH" // 后台手动推送
)

// 价格来源（解析结果的档位标识，消费方据此分支）
const (
	PriceSourceMaster        = "MASTER"
	PriceSourceStoreOverride = "STORE_OVERRIDE"
	PriceSourceAutoAdjusted  = "AUTO_ADJUSTED"
)

// 调价规则类型
const (
	AdjustTypeMarkup   = "markup"
	AdjustTypeDiscount = "discount"
	AdjustTypeFixed    = "fixed"
)

// 调价规则单位
const (
	AdjustUnitPercent = "percent"
	AdjustUnitAmount  = "amount"
)

// ==================== Store ====================

type Store struct {
	BaseModel
	Name     string `gorm:"size:100;not null"`
	Platform string `gorm:"size:20;index"` // WOO / SHOPIFY
	Domain   string `gorm:"size:255"`      // 如 shop.example.com
	IsActive bool   `gorm:"default:true;index"`

	// --- 平台凭证 ---
	// Woo REST v3 consumer key/secret，本层视作不透明能力令牌
	ConsumerKey    string `gorm:"size:255" json:"-"`
	ConsumerSecret string `gorm:"size:255" json:"-"`
}

func (Store) TableName() string {
	return "stores"
}

// HasCredentials 是否具备调用平台 API 的凭证
func (s *Store) HasCredentials() bool {
	return s.ConsumerKey != "" && s.ConsumerSecret != ""
}

// ==================== StoreProductMap ====================

// StoreProductMap 商品与店铺的关联记录
// (store_id, product_id) 唯一，违反必须报错而不是悄悄重复
type StoreProductMap struct {
	BaseModel
	StoreID   int64    `gorm:"uniqueIndex:idx_store_product;not null"`
	ProductID int64    `gorm:"uniqueIndex:idx_store_product;not null"`
	Store     *Store   `gorm:"foreignKey:StoreID"`
	Product   *Product `gorm:"foreignKey:ProductID"`

	// --- 外部平台侧身份 ---
	ExternalID *int64 `gorm:"index"` // 首次推送/同步前为空

	IsActive bool `gorm:"default:true;index"`

	// --- 店铺级文案覆盖 ---
	CustomTitle       string `gorm:"size:255"`
	CustomDescription string `gorm:"type:text"`

	// --- 店铺级价格覆盖 ---
	// CustomPrice 与 PriceAdjustment 互斥：写入一方必须清空另一方
	CustomPrice          *float64       `gorm:"type:decimal(12,2)"`
	CustomCompareAtPrice *float64       `gorm:"type:decimal(12,2)"`
	CustomCurrency       string         `gorm:"size:5"`
	PriceAdjustment      datatypes.JSON `gorm:"type:jsonb"`

	// --- 同步记录 ---
	LastSyncedAt *time.Time
	SyncSource   string `gorm:"size:20"` // WOO / WEB_PUSH
}

func (StoreProductMap) TableName() string {
	return "store_product_maps"
}

// ==================== 价格覆盖（标签化联合） ====================

// PriceAdjustment 调价规则
type PriceAdjustment struct {
	Type  string  `json:"type"`  // markup / discount / fixed
	Value float64 `json:"value"` // 数值
	Unit  string  `json:"unit"`  // percent / amount
}

// Apply 对基准价应用规则
// 注意：不做负值截断，折扣超过基准价会得到负数，由调用边界自行校验
func (a PriceAdjustment) Apply(base float64) float64 {
	if a.Type == AdjustTypeFixed {
		return a.Value
	}
	switch a.Unit {
	case AdjustUnitPercent:
		if a.Type == AdjustTypeDiscount {
			return base * (1 - a.Value/100)
		}
		return base * (1 + a.Value/100)
	case AdjustUnitAmount:
		if a.Type == AdjustTypeDiscount {
			return base - a.Value
		}
		return base + a.Value
	}
	return base
}

// OverrideKind 覆盖档位
type OverrideKind int

const (
	OverrideNone       OverrideKind = iota // 无覆盖，走主价格
	OverrideCustom                         // 绝对价覆盖
	OverrideAdjustment                     // 调价规则
)

// PriceOverride 覆盖信息的标签化视图
// 列层面仍是两个可空字段（关系库的现实），读写都经由本类型保证互斥语义
type PriceOverride struct {
	Kind           OverrideKind
	Price          *float64
	CompareAtPrice *float64
	Currency       string
	Adjustment     *PriceAdjustment
}

// Override 读取映射上生效的覆盖档位
// CustomPrice 优先：两者同时存在（非法状态）时按绝对价处理
func (m *StoreProductMap) Override() PriceOverride {
	if m == nil {
		return PriceOverride{Kind: OverrideNone}
	}
	if m.CustomPrice != nil {
		return PriceOverride{
			Kind:           OverrideCustom,
			Price:          m.CustomPrice,
			CompareAtPrice: m.CustomCompareAtPrice,
			Currency:       m.CustomCurrency,
		}
	}
	if adj := m.Adjustment(); adj != nil {
		return PriceOverride{Kind: OverrideAdjustment, Adjustment: adj}
	}
	return PriceOverride{Kind: OverrideNone}
}

// Adjustment 解码调价规则，无规则或解码失败返回 nil
func (m *StoreProductMap) Adjustment() *PriceAdjustment {
	if len(m.PriceAdjustment) == 0 {
		return nil
	}
	var adj PriceAdjustment
	if err := json.Unmarshal(m.PriceAdjustment, &adj); err != nil {
		return nil
	}
	if adj.Type == "" {
		return nil
	}
	return &adj
}
