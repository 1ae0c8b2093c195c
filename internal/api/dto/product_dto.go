package dto

// CheckDuplicateReq 查重请求
type CheckDuplicateReq struct {
	SKU       string `json:"sku"`
	Handle    string `json:"handle"`
	Title     string `json:"title" binding:"required"`
	ExcludeID int64  `json:"exclude_id"`
}

// CheckDuplicateBatchReq 批量查重请求
type CheckDuplicateBatchReq struct {
	Items []CheckDuplicateReq `json:"items" binding:"required,min=1"`
}

// ProductListResp 商品列表响应
type ProductListResp struct {
	Code     int         `json:"code"`
	Message  string      `json:"message"`
	Data     interface{} `json:"data"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}
