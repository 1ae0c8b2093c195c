package woo

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// ==================== 客户端 ====================

// Config Woo REST v3 客户端配置
type Config struct {
	Domain         string // 如 shop.example.com
	ConsumerKey    string
	ConsumerSecret string
	Timeout        time.Duration
	RPS            float64 // 出站限速，默认 5 req/s
}

// Client WooCommerce REST v3 客户端
// 不做自动重试，失败原样上抛，由调用方决定是否终止
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
}

// NewClient 创建 Woo 客户端
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RPS == 0 {
		cfg.RPS = 5
	}

	http := resty.New().
		SetBaseURL(fmt.Sprintf("https://%s/wp-json/wc/v3", cfg.Domain)).
		SetTimeout(cfg.Timeout).
		SetQueryParam("consumer_key", cfg.ConsumerKey).
		SetQueryParam("consumer_secret", cfg.ConsumerSecret)

	return &Client{
		http:    http,
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), 1),
	}
}

// ==================== 商品接口 ====================

// ListProducts 分页拉取商品
// modifiedAfter 非空时带 modified_after 过滤；总页数取 X-WP-TotalPages 头
func (c *Client) ListProducts(ctx context.Context, page, pageSize int, orderBy, order string, modifiedAfter *time.Time) ([]Product, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, err
	}

	req := c.http.R().SetContext(ctx).
		SetQueryParam("page", strconv.Itoa(page)).
		SetQueryParam("per_page", strconv.Itoa(pageSize)).
		SetQueryParam("orderby", orderBy).
		SetQueryParam("order", order)
	if modifiedAfter != nil {
		req.SetQueryParam("modified_after", modifiedAfter.UTC().Format("2006-01-02T15:04:05"))
	}

	resp, err := req.Get("/products")
	if err != nil {
		return nil, 0, fmt.Errorf("拉取商品列表失败: %w", err)
	}
	if resp.IsError() {
		return nil, 0, fmt.Errorf("Woo API 异常 [%d]: %s", resp.StatusCode(), resp.String())
	}

	items, err := decodeProducts(resp.Body())
	if err != nil {
		return nil, 0, err
	}

	totalPages, _ := strconv.Atoi(resp.Header().Get("X-WP-TotalPages"))
	return items, totalPages, nil
}

// GetVariation 拉取单个变体
func (c *Client) GetVariation(ctx context.Context, productID, variationID int64) (*Variation, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := c.http.R().SetContext(ctx).
		Get(fmt.Sprintf("/products/%d/variations/%d", productID, variationID))
	if err != nil {
		return nil, fmt.Errorf("拉取变体失败: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("Woo API 异常 [%d]: %s", resp.StatusCode(), resp.String())
	}

	var v Variation
	if err := json.Unmarshal(resp.Body(), &v); err != nil {
		return nil, fmt.Errorf("解析变体响应失败: %w", err)
	}
	v.Raw = append(json.RawMessage(nil), resp.Body()...)
	return &v, nil
}

// CreateProduct 创建远端商品
func (c *Client) CreateProduct(ctx context.Context, payload map[string]interface{}) (*CreateResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var res CreateResult
	resp, err := c.http.R().SetContext(ctx).
		SetBody(payload).
		SetResult(&res).
		Post("/products")
	if err != nil {
		return nil, fmt.Errorf("创建远端商品失败: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("Woo API 异常 [%d]: %s", resp.StatusCode(), resp.String())
	}
	return &res, nil
}

// UpdateProduct 更新远端商品
func (c *Client) UpdateProduct(ctx context.Context, externalID int64, payload map[string]interface{}) (*CreateResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var res CreateResult
	resp, err := c.http.R().SetContext(ctx).
		SetBody(payload).
		SetResult(&res).
		Put(fmt.Sprintf("/products/%d", externalID))
	if err != nil {
		return nil, fmt.Errorf("更新远端商品失败: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("Woo API 异常 [%d]: %s", resp.StatusCode(), resp.String())
	}
	return &res, nil
}

// DeleteProduct 删除远端商品，force=true 跳过回收站
func (c *Client) DeleteProduct(ctx context.Context, externalID int64, force bool) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	resp, err := c.http.R().SetContext(ctx).
		SetQueryParam("force", strconv.FormatBool(force)).
		Delete(fmt.Sprintf("/products/%d", externalID))
	if err != nil {
		return fmt.Errorf("删除远端商品失败: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("Woo API 异常 [%d]: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

// FindBySKU 按 SKU 查远端商品（推送前查重用）
func (c *Client) FindBySKU(ctx context.Context, sku string) ([]Product, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := c.http.R().SetContext(ctx).
		SetQueryParam("sku", sku).
		Get("/products")
	if err != nil {
		return nil, fmt.Errorf("按 SKU 查询远端商品失败: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("Woo API 异常 [%d]: %s", resp.StatusCode(), resp.String())
	}
	return decodeProducts(resp.Body())
}

// decodeProducts 双重解码：结构化字段 + 原文快照
func decodeProducts(body []byte) ([]Product, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(body, &raws); err != nil {
		return nil, fmt.Errorf("解析商品列表响应失败: %w", err)
	}

	items := make([]Product, 0, len(raws))
	for _, raw := range raws {
		var p Product
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("解析商品条目失败: %w", err)
		}
		p.Raw = append(json.RawMessage(nil), raw...)
		items = append(items, p)
	}
	return items, nil
}
