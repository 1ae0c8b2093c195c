package task

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"storehub_v1_202608/internal/model"
	"storehub_v1_202608/internal/repository"
	"storehub_v1_202608/internal/service"
)

// ==================== CatalogSyncTask 目录同步任务 ====================

// CatalogSyncTask 目录同步定时任务
// 同步策略：
//   - 增量同步：每 30 分钟，基于店铺映射的 LastSyncedAt
//   - 全量同步：每日凌晨 3 点
//
// 店铺逐个串行处理，天然满足同店同步不并发的约定
type CatalogSyncTask struct {
	storeRepo   repository.StoreRepository
	syncService *service.SyncService
	cron        *cron.Cron

	sleepTime time.Duration
}

// NewCatalogSyncTask 创建目录同步任务
func NewCatalogSyncTask(storeRepo repository.StoreRepository, syncService *service.SyncService) *CatalogSyncTask {
	return &CatalogSyncTask{
		storeRepo:   storeRepo,
		syncService: syncService,
		cron:        cron.New(cron.WithSeconds()),
		sleepTime:   300 * time.Millisecond,
	}
}

// Start 启动定时任务
func (t *CatalogSyncTask) Start() {
	// 首次执行（延迟 60 秒，等应用完全起来）
	go func() {
		time.Sleep(60 * time.Second)
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Hour)
		defer cancel()
		log.Println("[CatalogSyncTask] 执行首次增量同步...")
		t.syncAllStores(ctx, false)
	}()

	// 增量同步：每 30 分钟
	_, _ = t.cron.AddFunc("0 */30 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Hour)
		defer cancel()
		t.syncAllStores(ctx, false)
	})

	// 全量同步：每日凌晨 3 点
	_, _ = t.cron.AddFunc("0 0 3 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 4*time.Hour)
		defer cancel()
		log.Println("[CatalogSyncTask] 开始每日全量同步...")
		t.syncAllStores(ctx, true)
	})

	t.cron.Start()
	log.Println("[CatalogSyncTask] 定时任务已启动")
}

// Stop 停止定时任务
func (t *CatalogSyncTask) Stop() {
	t.cron.Stop()
}

// syncAllStores 遍历所有启用的 Woo 店铺，逐个同步
func (t *CatalogSyncTask) syncAllStores(ctx context.Context, full bool) {
	stores, err := t.storeRepo.ListActiveByPlatform(ctx, model.PlatformWoo)
	if err != nil {
		log.Printf("[CatalogSyncTask] 店铺列表查询失败: %v", err)
		return
	}

	for _, store := range stores {
		select {
		case <-ctx.Done():
			log.Println("[CatalogSyncTask] 超时退出，剩余店铺留到下一轮")
			return
		default:
		}

		var result *service.SyncResult
		if full {
			result, err = t.syncService.SyncStoreProducts(ctx, store.ID, service.SyncOptions{})
		} else {
			result, err = t.syncService.SyncModifiedProducts(ctx, store.ID)
		}
		if err != nil {
			log.Printf("[CatalogSyncTask] 店铺 %d 同步失败: %v", store.ID, err)
			continue
		}

		log.Printf("[CatalogSyncTask] 店铺 %d: created=%d updated=%d failed=%d",
			store.ID, result.Created, result.Updated, result.Failed)
		time.Sleep(t.sleepTime)
	}
}
