package dto

// CreateStoreReq 新建店铺请求
type CreateStoreReq struct {
	Name           string `json:"name" binding:"required"`
	Platform       string `json:"platform" binding:"required,oneof=WOO SHOPIFY"`
	Domain         string `json:"domain" binding:"required"`
	ConsumerKey    string `json:"consumer_key"`
	ConsumerSecret string `json:"consumer_secret"`
}

// SetPriceReq 设置店铺绝对价请求
// 数值不在这里做业务校验，核心层按原值透传
type SetPriceReq struct {
	Price          *float64 `json:"price" binding:"required"`
	CompareAtPrice *float64 `json:"compare_at_price"`
	Currency       string   `json:"currency"`
}

// SetAdjustmentReq 设置调价规则请求
type SetAdjustmentReq struct {
	Type  string  `json:"type" binding:"required,oneof=markup discount fixed"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit" binding:"omitempty,oneof=percent amount"`
}

// SyncReq 手动触发同步请求
type SyncReq struct {
	PageSize int `json:"page_size"`
	MaxPages int `json:"max_pages"`
}
