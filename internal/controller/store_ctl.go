package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"storehub_v1_202608/internal/api/dto"
	"storehub_v1_202608/internal/model"
	"storehub_v1_202608/internal/repository"
	"storehub_v1_202608/internal/service"
)

type StoreController struct {
	storeRepo    repository.StoreRepository
	priceService *service.PriceService
}

func NewStoreController(storeRepo repository.StoreRepository, priceService *service.PriceService) *StoreController {
	return &StoreController{storeRepo: storeRepo, priceService: priceService}
}

// GetStores 店铺列表
// @Summary 店铺列表
// @Tags Store
// @Success 200 {object} map[string]interface{}
// @Router /api/stores [get]
func (ctrl *StoreController) GetStores(c *gin.Context) {
	stores, err := ctrl.storeRepo.List(c.Request.Context())
	if err != nil {
		c.JSON(500, gin.H{"code": 500, "message": "查询失败: " + err.Error()})
		return
	}
	c.JSON(200, gin.H{"code": 0, "message": "success", "data": stores})
}

// CreateStore 新建店铺
// @Summary 新建店铺
// @Tags Store
// @Param body body dto.CreateStoreReq true "店铺信息"
// @Success 200 {object} map[string]interface{}
// @Router /api/stores [post]
func (ctrl *StoreController) CreateStore(c *gin.Context) {
	var req dto.CreateStoreReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"code": 400, "message": "参数错误: " + err.Error()})
		return
	}

	store := &model.Store{
		Name:           req.Name,
		Platform:       req.Platform,
		Domain:         req.Domain,
		IsActive:       true,
		ConsumerKey:    req.ConsumerKey,
		ConsumerSecret: req.ConsumerSecret,
	}
	if err := ctrl.storeRepo.Create(c.Request.Context(), store); err != nil {
		c.JSON(500, gin.H{"code": 500, "message": "创建失败: " + err.Error()})
		return
	}

	c.JSON(200, gin.H{"code": 0, "message": "success", "data": store})
}

// GetStoreProducts 店铺维度商品分页列表（逐条三级取价）
// @Summary 店铺商品列表
// @Tags Store
// @Param id path int true "店铺ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Param is_active query bool false "按上架状态过滤"
// @Success 200 {object} dto.ProductListResp
// @Router /api/stores/{id}/products [get]
func (ctrl *StoreController) GetStoreProducts(c *gin.Context) {
	storeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || storeID <= 0 {
		c.JSON(400, gin.H{"code": 400, "message": "无效的店铺 ID"})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	var isActive *bool
	if v := c.Query("is_active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(400, gin.H{"code": 400, "message": "无效的 is_active"})
			return
		}
		isActive = &b
	}

	products, total, err := ctrl.priceService.GetStoreProducts(c.Request.Context(), storeID, page, pageSize, isActive)
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
