package controller

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"storehub_v1_202608/internal/api/dto"
	"storehub_v1_202608/internal/repository"
	"storehub_v1_202608/internal/service"
)

// syncErrorStatus 同步错误分类：配置类错误归调用方（400），其余按内部故障（500）
func syncErrorStatus(err error) int {
	var cfgErr *service.ConfigError
	if errors.As(err, &cfgErr) {
		return 400
	}
	return 500
}

type SyncController struct {
	syncService *service.SyncService
	syncLogRepo repository.SyncLogRepository
}

func NewSyncController(syncService *service.SyncService, syncLogRepo repository.SyncLogRepository) *SyncController {
	return &SyncController{syncService: syncService, syncLogRepo: syncLogRepo}
}

// TriggerSync 手动触发全量同步
// @Summary 全量同步店铺商品
// @Tags Sync
// @Param id path int true "店铺ID"
// @Param body body dto.SyncReq false "分页参数"
// @Success 200 {object} map[string]interface{}
// @Router /api/stores/{id}/sync [post]
func (ctrl *SyncController) TriggerSync(c *gin.Context) {
	storeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || storeID <= 0 {
		c.JSON(400, gin.H{"code": 400, "message": "无效的店铺 ID"})
		return
	}

	var req dto.SyncReq
	_ = c.ShouldBindJSON(&req) // 空 body 合法，全部走默认值

	result, err := ctrl.syncService.SyncStoreProducts(c.Request.Context(), storeID, service.SyncOptions{
		PageSize: req.PageSize,
		MaxPages: req.MaxPages,
	})
	if err != nil {
		status := syncErrorStatus(err)
		c.JSON(status, gin.H{"code": status, "message": err.Error()})
		return
	}

	c.JSON(200, gin.H{"code": 0, "message": "success", "data": result})
}

// TriggerIncrementalSync 手动触发增量同步
// @Summary 增量同步店铺商品（基于上次同步时间）
// @Tags Sync
// @Param id path int true "店铺ID"
// @Success 200 {object} map[string]interface{}
// @Router /api/stores/{id}/sync/incremental [post]
func (ctrl *SyncController) TriggerIncrementalSync(c *gin.Context) {
	storeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || storeID <= 0 {
		c.JSON(400, gin.H{"code": 400, "message": "无效的店铺 ID"})
		return
	}

	result, err := ctrl.syncService.SyncModifiedProducts(c.Request.Context(), storeID)
	if err != nil {
		status := syncErrorStatus(err)
		c.JSON(status, gin.H{"code": status, "message": err.Error()})
		return
	}

	c.JSON(200, gin.H{"code": 0, "message": "success", "data": result})
}

// GetSyncLogs 同步历史
// @Summary 店铺同步运行记录
// @Tags Sync
// @Param id path int true "店铺ID"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(20)
// @Success 200 {object} dto.ProductListResp
// @Router /api/stores/{id}/sync/logs [get]
func (ctrl *SyncController) GetSyncLogs(c *gin.Context) {
	storeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || storeID <= 0 {
		c.JSON(400, gin.H{"code": 400, "message": "无效的店铺 ID"})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	logs, total, err := ctrl.syncLogRepo.ListByStore(c.Request.Context(), storeID, page, pageSize)
	if err != nil {
		c.JSON(500, gin.H{"code": 500, "message": "查询失败: " + err.Error()})
		return
	}

	c.JSON(200, dto.ProductListResp{
		Code:     0,
		Message:  "success",
		Data:     logs,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}
