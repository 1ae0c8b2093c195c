package woo

import (
	"encoding/json"
	"strconv"
)

// ==================== WooCommerce REST v3 DTO ====================

// 商品类型
const (
	TypeSimple   = "simple"
	TypeVariable = "variable"
)

// Product WooCommerce 商品
// 仅声明被消费的字段，其余内容留在 Raw 里原样入库
type Product struct {
	ID               int64      `json:"id"`
	Name             string     `json:"name"`
	Slug             string     `json:"slug"`
	Permalink        string     `json:"permalink"`
	Type             string     `json:"type"`   // simple / variable
	Status           string     `json:"status"` // publish / draft / ...
	SKU              string     `json:"sku"`
	Price            string     `json:"price"`
	RegularPrice     string     `json:"regular_price"`
	SalePrice        string     `json:"sale_price"`
	OnSale           bool       `json:"on_sale"`
	Description      string     `json:"description"`
	ShortDescription string     `json:"short_description"`
	Categories       []Category `json:"categories"`
	Images           []Image    `json:"images"`
	Attributes       []Attr     `json:"attributes"`
	Variations       []int64    `json:"variations"`
	DateModified     string     `json:"date_modified"`

	// 响应原文，落库作审计快照
	Raw json.RawMessage `json:"-"`
}

// Variation WooCommerce 变体
type Variation struct {
	ID           int64  `json:"id"`
	SKU          string `json:"sku"`
	Price        string `json:"price"`
	RegularPrice string `json:"regular_price"`
	SalePrice    string `json:"sale_price"`
	OnSale       bool   `json:"on_sale"`
	Image        *Image `json:"image"`
	Attributes   []Attr `json:"attributes"`

	Raw json.RawMessage `json:"-"`
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Image struct {
	ID  int64  `json:"id"`
	Src string `json:"src"`
}

type Attr struct {
	ID      int64    `json:"id"`
	Name    string   `json:"name"`
	Option  string   `json:"option,omitempty"`
	Options []string `json:"options,omitempty"`
}

// CreateResult 创建/更新商品的返回
type CreateResult struct {
	ExternalID int64  `json:"id"`
	Permalink  string `json:"permalink"`
}

// ==================== 价格解析 ====================

// parsePrice Woo 的价格以字符串下发，空串按 0 处理
func parsePrice(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// EffectivePrice 现售价与划线价
// 有折扣时现售价取 sale_price，regular_price 上移为划线价
func (p *Product) EffectivePrice() (price, compareAt float64) {
	return effectivePrice(p.OnSale, p.Price, p.RegularPrice, p.SalePrice)
}

// EffectivePrice 变体口径与商品一致
func (v *Variation) EffectivePrice() (price, compareAt float64) {
	return effectivePrice(v.OnSale, v.Price, v.RegularPrice, v.SalePrice)
}

func effectivePrice(onSale bool, price, regular, sale string) (float64, float64) {
	if onSale && sale != "" {
		return parsePrice(sale), parsePrice(regular)
	}
	if price != "" {
		return parsePrice(price), 0
	}
	return parsePrice(regular), 0
}
