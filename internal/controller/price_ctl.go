package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"storehub_v1_202608/internal/api/dto"
	"storehub_v1_202608/internal/model"
	"storehub_v1_202608/internal/service"
)

type PriceController struct {
	priceService *service.PriceService
	pushService  *service.PushService
}

func NewPriceController(priceService *service.PriceService, pushService *service.PushService) *PriceController {
	return &PriceController{priceService: priceService, pushService: pushService}
}

// storeProductIDs 解析路径上的 店铺ID + 商品ID
func storeProductIDs(c *gin.Context) (storeID, productID int64, ok bool) {
	storeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || storeID <= 0 {
		c.JSON(400, gin.H{"code": 400, "message": "无效的店铺 ID"})
		return 0, 0, false
	}
	productID, err = strconv.ParseInt(c.Param("product_id"), 10, 64)
	if err != nil || productID <= 0 {
		c.JSON(400, gin.H{"code": 400, "message": "无效的商品 ID"})
		return 0, 0, false
	}
	return storeID, productID, true
}

// SetPrice 设置店铺绝对价（自动清掉调价规则）
// @Summary 设置店铺绝对价
// @Tags Price
// @Param id path int true "店铺ID"
// @Param product_id path int true "商品ID"
// @Param body body dto.SetPriceReq true "价格"
// @Success 200 {object} map[string]interface{}
// @Router /api/stores/{id}/products/{product_id}/price [put]
func (ctrl *PriceController) SetPrice(c *gin.Context) {
	storeID, productID, ok := storeProductIDs(c)
	if !ok {
		return
	}

	var req dto.SetPriceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}
	if *req.Price < 0 {
		// 负价属于边界校验职责，核心层不做修正，这里直接拒掉
		c.JSON(400, gin.H{"code": 400, "message": "价格不能为负数"})
		return
	}

	err := ctrl.priceService.SetStorePrice(c.Request.Context(), storeID, productID, *req.Price, req.CompareAtPrice, req.Currency)
	if err != nil {
		c.JSON(500, gin.H{"code": 500, "message": "设置失败: " + err.Error()})
		return
	}

	c.JSON(200, gin.H{"code": 0, "message": "success"})
}

// SetAdjustment 设置调价规则（自动清掉绝对价）
// @Summary 设置调价规则
// @Tags Price
// @Param id path int true "店铺ID"
// @Param product_id path int true "商品ID"
// @Param body body dto.SetAdjustmentReq true "规则"
// @Success 200 {object} map[string]interface{}
// @Router /api/stores/{id}/products/{product_id}/adjustment [put]
func (ctrl *PriceController) SetAdjustment(c *gin.Context) {
	storeID, productID, ok := storeProductIDs(c)
	if !ok {
		return
	}

	var req dto.SetAdjustmentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}
	if req.Type != model.AdjustTypeFixed && req.Unit == "" {
		c.JSON(400, gin.H{"code": 400, "message": "markup/discount 规则必须带 unit"})
		return
	}

	err := ctrl.priceService.SetStorePriceAdjustment(c.Request.Context(), storeID, productID, model.PriceAdjustment{
		Type:  req.Type,
		Value: req.Value,
		Unit:  req.Unit,
	})
	if err != nil {
		c.JSON(500, gin.H{"code": 500, "message": "设置失败: " + err.Error()})
		return
	}

	c.JSON(200, gin.H{"code": 0, "message": "success"})
}

// ClearOverride 清空店铺价格覆盖
// @Summary 清空店铺价格覆盖，回落主价格
// @Tags Price
// @Param id path int true "店铺ID"
// @Param product_id path int true "商品ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/stores/{id}/products/{product_id}/price [delete]
func (ctrl *PriceController) ClearOverride(c *gin.Context) {
	storeID, productID, ok := storeProductIDs(c)
	if !ok {
		return
	}

	if err := ctrl.priceService.ClearStoreOverride(c.Request.Context(), storeID, productID); err != nil {
		c.JSON(500, gin.H{"code": 500, "message": "清除失败: " + err.Error()})
		return
	}

	c.JSON(200, gin.H{"code": 0, "message": "success"})
}

// PushProduct 推送商品到店铺
// @Summary 推送商品到店铺（创建前按 SKU 查远端防重）
// @Tags Push
// @Param id path int true "店铺ID"
// @Param product_id path int true "商品ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/stores/{id}/products/{product_id}/push [post]
func (ctrl *PriceController) PushProduct(c *gin.Context) {
	storeID, productID, ok := storeProductIDs(c)
	if !ok {
		return
	}

	mapping, err := ctrl.pushService.PushProduct(c.Request.Context(), productID, storeID)
	if err != nil {
		c.JSON(400, gin.H{"code": 400, "message": err.Error()})
		return
	}

	c.JSON(200, gin.H{"code": 0, "message": "success", "data": mapping})
}

// RemoveProduct 从店铺下架商品
// @Summary 删除远端商品并停用映射
// @Tags Push
// @Param id path int true "店铺ID"
// @Param product_id path int true "商品ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/stores/{id}/products/{product_id} [delete]
func (ctrl *PriceController) RemoveProduct(c *gin.Context) {
	storeID, productID, ok := storeProductIDs(c)
	if !ok {
		return
	}

	if err := ctrl.pushService.RemoveProduct(c.Request.Context(), productID, storeID); err != nil {
		c.JSON(400, gin.H{"code": 400, "message": err.Error()})
		return
	}

	c.JSON(200, gin.H{"code": 0, "message": "success"})
}
