package task

import (
	"log"

	"storehub_v1_202608/internal/repository"
	"storehub_v1_202608/internal/service"
)

// ==================== TaskManager 业务同步任务管理器 ====================

// TaskManager 统一管理后台同步任务
type TaskManager struct {
	catalogTask *CatalogSyncTask
}

// TaskManagerDeps 任务管理器依赖
type TaskManagerDeps struct {
	StoreRepo   repository.StoreRepository
	SyncService *service.SyncService
}

// TaskManagerConfig 任务管理器配置
type TaskManagerConfig struct {
	CatalogEnabled bool
}

// DefaultConfig 默认配置
func DefaultConfig() *TaskManagerConfig {
	return &TaskManagerConfig{
		CatalogEnabled: true,
	}
}

// NewTaskManager 创建任务管理器
func NewTaskManager(deps *TaskManagerDeps, cfg *TaskManagerConfig) *TaskManager {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	tm := &TaskManager{}
	if cfg.CatalogEnabled && deps.SyncService != nil {
		tm.catalogTask = NewCatalogSyncTask(deps.StoreRepo, deps.SyncService)
	}
	return tm
}

// StartAll 启动全部任务
func (tm *TaskManager) StartAll() {
	if tm.catalogTask != nil {
		tm.catalogTask.Start()
	}
	log.Println("[TaskManager] 同步任务已全部启动")
}

// StopAll 停止全部任务
func (tm *TaskManager) StopAll() {
	if tm.catalogTask != nil {
		tm.catalogTask.Stop()
	}
	log.Println("[TaskManager] 同步任务已全部停止")
}
