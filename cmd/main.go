package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"storehub_v1_202608/internal/controller"
	"storehub_v1_202608/internal/model"
	"storehub_v1_202608/internal/repository"
	"storehub_v1_202608/internal/router"
	"storehub_v1_202608/internal/service"
	"storehub_v1_202608/internal/task"
	"storehub_v1_202608/pkg/database"
)

func main() {
	// 1. 初始化数据库
	db := initDatabase()

	// 2. 初始化依赖
	deps := initDependencies(db)

	// 3. 启动定时任务
	initTasks(deps)

	// 4. 初始化路由
	r := router.SetupRouter(deps.Controllers)

	// 5. 启动服务
	startServer(r)
}

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB          *gorm.DB
	Repos       *Repositories
	Services    *Services
	Controllers *router.Controllers
}

// Repositories 仓库集合
type Repositories struct {
	Product  repository.ProductRepository
	Store    repository.StoreRepository
	StoreMap repository.StoreMapRepository
	SyncLog  repository.SyncLogRepository
}

// Services 服务集合
type Services struct {
	Dedup *service.DuplicateService
	Price *service.PriceService
	Sync  *service.SyncService
	Push  *service.PushService
}

// ==================== 初始化函数 ====================

// initDatabase 初始化数据库
func initDatabase() *gorm.DB {
	dsn := getEnv("DATABASE_URL",
		"host=localhost user=storehub password=storehub dbname=storehub port=5432 sslmode=disable")

	return database.InitDB(dsn,
		// Catalog
		&model.Brand{}, &model.Product{}, &model.ProductVariant{},
		// Store
		&model.Store{}, &model.StoreProductMap{},
		// Sync
		&model.SyncLog{},
	)
}

// initDependencies 初始化所有依赖
func initDependencies(db *gorm.DB) *Dependencies {
	// -------- Repo 层 --------
	repos := &Repositories{
		Product:  repository.NewProductRepository(db),
		Store:    repository.NewStoreRepository(db),
		StoreMap: repository.NewStoreMapRepository(db),
		SyncLog:  repository.NewSyncLogRepository(db),
	}

	// -------- 业务服务 --------
	dedupSvc := service.NewDuplicateService(repos.Product)
	priceSvc := service.NewPriceService(repos.Product, repos.StoreMap)
	syncSvc := service.NewSyncService(
		repos.Store, repos.Product, repos.StoreMap, repos.SyncLog,
		dedupSvc, service.DefaultClientFactory,
	)
	pushSvc := service.NewPushService(
		repos.Store, repos.Product, repos.StoreMap,
		priceSvc, service.DefaultClientFactory,
	)

	services := &Services{
		Dedup: dedupSvc,
		Price: priceSvc,
		Sync:  syncSvc,
		Push:  pushSvc,
	}

	// -------- 控制器 --------
	controllers := &router.Controllers{
		Product: controller.NewProductController(repos.Product, priceSvc, dedupSvc),
		Store:   controller.NewStoreController(repos.Store, priceSvc),
		Sync:    controller.NewSyncController(syncSvc, repos.SyncLog),
		Price:   controller.NewPriceController(priceSvc, pushSvc),
	}

	return &Dependencies{
		DB:          db,
		Repos:       repos,
		Services:    services,
		Controllers: controllers,
	}
}

// ==================== 定时任务 ====================

// initTasks 初始化定时任务
func initTasks(deps *Dependencies) {
	if getEnv("SYNC_TASKS_ENABLED", "true") != "true" {
		log.Println("定时同步任务已禁用 (SYNC_TASKS_ENABLED != true)")
		return
	}

	tm := task.NewTaskManager(&task.TaskManagerDeps{
		StoreRepo:   deps.Repos.Store,
		SyncService: deps.Services.Sync,
	}, task.DefaultConfig())
	tm.StartAll()
}

// ==================== 服务启动 ====================

// startServer 启动服务
func startServer(r *gin.Engine) {
	port := getEnv("SERVER_PORT", "8080")

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	// 异步启动服务
	go func() {
		log.Printf("服务启动在 :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务...")

	// 优雅关闭，最多等待 30 秒
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("服务强制关闭: %v", err)
	}

	log.Println("服务已退出")
}

// ==================== 工具函数 ====================

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
