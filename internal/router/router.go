package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"storehub_v1_202608/internal/controller"
	"storehub_v1_202608/internal/middleware"

	_ "storehub_v1_202608/docs"
)

// Controllers 路由依赖的控制器集合
type Controllers struct {
	Product *controller.ProductController
	Store   *controller.StoreController
	Sync    *controller.SyncController
	Price   *controller.PriceController
}

// SetupRouter 注册所有路由
func SetupRouter(ctrls *Controllers) *gin.Engine {
	r := gin.Default()

	// 1. Swagger 文档路由
	// 访问 http://localhost:8080/swagger/index.html 即可查看
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 2. API 路由组
	api := r.Group("/api")
	{
		// products 主目录
		products := api.Group("/products")
		{
			products.GET("", ctrls.Product.GetProducts)
			products.GET("/duplicates", ctrls.Product.GetDuplicateReport)
			products.POST("/check-duplicate", ctrls.Product.CheckDuplicate)
			products.POST("/check-duplicate/batch", ctrls.Product.CheckDuplicateBatch)
			products.GET("/:id", ctrls.Product.GetProduct)
			products.GET("/:id/compare", ctrls.Product.ComparePrices)
		}

		// stores 店铺管理
		stores := api.Group("/stores")
		{
			stores.GET("", ctrls.Store.GetStores)
			stores.POST("", ctrls.Store.CreateStore)
			stores.GET("/:id/products", ctrls.Store.GetStoreProducts)

			// 同步触发带店铺级冷却，防止同店并发同步
			stores.POST("/:id/sync", middleware.SyncRateLimit(0), ctrls.Sync.TriggerSync)
			stores.POST("/:id/sync/incremental", middleware.SyncRateLimit(0), ctrls.Sync.TriggerIncrementalSync)
			stores.GET("/:id/sync/logs", ctrls.Sync.GetSyncLogs)

			// 店铺级价格与推送
			stores.PUT("/:id/products/:product_id/price", ctrls.Price.SetPrice)
			stores.DELETE("/:id/products/:product_id/price", ctrls.Price.ClearOverride)
			stores.PUT("/:id/products/:product_id/adjustment", ctrls.Price.SetAdjustment)
			stores.POST("/:id/products/:product_id/push", ctrls.Price.PushProduct)
			stores.DELETE("/:id/products/:product_id", ctrls.Price.RemoveProduct)
		}
	}

	return r
}
