package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"storehub_v1_202608/internal/api/dto"
	"storehub_v1_202608/internal/repository"
	"storehub_v1_202608/internal/service"
)

type ProductController struct {
	productRepo  repository.ProductRepository
	priceService *service.PriceService
	dedupService *service.DuplicateService
}

func NewProductController(
	productRepo repository.ProductRepository,
	priceService *service.PriceService,
	dedupService *service.DuplicateService,
) *ProductController {
	return &ProductController{
		productRepo:  productRepo,
		priceService: priceService,
		dedupService: dedupService,
	}
}

// ==================== 查询接口 ====================

// GetProducts 主目录商品列表
// @Summary 主目录商品分页列表
// @Tags Product
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} dto.ProductListResp
// @Router /api/products [get]
func (ctrl *ProductController) GetProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	products, total, err := ctrl.productRepo.List(c.Request.Context(), page, pageSize)
	if err != nil {
		c.JSON(500, gin.H{"code": 500, "message": "查询失败: " + err.Error()})
		return
	}

	c.JSON(200, dto.ProductListResp{
		Code:     0,
		Message:  "success",
		Data:     products,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// GetProduct 商品详情（含店铺维度价格解析）
// @Summary 商品详情
// @Tags Product
// @Param id path int true "商品ID"
// @Param store_id query int false "店铺ID，传了按店铺档位取价"
// @Success 200 {object} map[string]interface{}
// @Router /api/products/{id} [get]
func (ctrl *ProductController) GetProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(400, gin.H{"code": 400, "message": "无效的商品 ID"})
		return
	}
	storeID, _ := strconv.ParseInt(c.Query("store_id"), 10, 64)

	resolved, err := ctrl.priceService.GetProductWithPrice(c.Request.Context(), id, storeID)
	if err != nil {
		c.JSON(500, gin.H{"code": 500, "message": "查询失败: " + err.Error()})
		return
	}
	if resolved == nil {
		c.JSON(404, gin.H{"code": 404, "message": "商品不存在"})
		return
	}

	c.JSON(200, gin.H{"code": 0, "message": "success", "data": resolved})
}

// ComparePrices 多店比价
// @Summary 商品在各关联店铺的解析价对比
// @Tags Product
// @Param id path int true "商品ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/products/{id}/compare [get]
func (ctrl *ProductController) ComparePrices(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(400, gin.H{"code": 400, "message": "无效的商品 ID"})
		return
	}

	comparison, err := ctrl.priceService.CompareProductPrices(c.Request.Context(), id)
	if err != nil {
		c.JSON(500, gin.H{"code": 500, "message": "查询失败: " + err.Error()})
		return
	}
	if comparison == nil {
		c.JSON(404, gin.H{"code": 404, "message": "商品不存在"})
		return
	}

	c.JSON(200, gin.H{"code": 0, "message": "success", "data": comparison})
}

// ==================== 查重接口 ====================

// CheckDuplicate 单条查重
// @Summary 三级查重（SKU → handle → 标题模糊）
// @Tags Product
// @Param body body dto.CheckDuplicateReq true "查重输入"
// @Success 200 {object} map[string]interface{}
// @Router /api/products/check-duplicate [post]
func (ctrl *ProductController) CheckDuplicate(c *gin.Context) {
	var req dto.CheckDuplicateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	result, err := ctrl.dedupService.FindDuplicates(c.Request.Context(), service.DuplicateQuery{
		SKU:       req.SKU,
		Handle:    req.Handle,
		Title:     req.Title,
		ExcludeID: req.ExcludeID,
	})
	if err != nil {
		c.JSON(500, gin.H{"code": 500, "message": "查重失败: " + err.Error()})
		return
	}

	c.JSON(200, gin.H{"code": 0, "message": "success", "data": result})
}

// CheckDuplicateBatch 批量查重
// @Summary 批量三级查重
// @Tags Product
// @Param body body dto.CheckDuplicateBatchReq true "查重输入列表"
// @Success 200 {object} map[string]interface{}
// @Router /api/products/check-duplicate/batch [post]
func (ctrl *ProductController) CheckDuplicateBatch(c *gin.Context) {
	var req dto.CheckDuplicateBatchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	queries := make([]service.DuplicateQuery, 0, len(req.Items))
	for _, item := range req.Items {
		queries = append(queries, service.DuplicateQuery{
			SKU:       item.SKU,
			Handle:    item.Handle,
			Title:     item.Title,
			ExcludeID: item.ExcludeID,
		})
	}

	results, err := ctrl.dedupService.FindDuplicatesBatch(c.Request.Context(), queries)
	if err != nil {
		c.JSON(500, gin.H{"code": 500, "message": "查重失败: " + err.Error()})
		return
	}

	c.JSON(200, gin.H{"code": 0, "message": "success", "data": results})
}

// GetDuplicateReport 已入库重复簇报表
// @Summary 已入库重复商品报表（人工清理入口）
// @Tags Product
// @Success 200 {object} map[string]interface{}
// @Router /api/products/duplicates [get]
func (ctrl *ProductController) GetDuplicateReport(c *gin.Context) {
	report, err := ctrl.dedupService.FindAllDuplicates(c.Request.Context())
	if err != nil {
		c.JSON(500, gin.H{"code": 500, "message": "查询失败: " + err.Error()})
		return
	}

	c.JSON(200, gin.H{"code": 0, "message": "success", "data": report})
}
