package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// ==================== 同步限流中间件 ====================

// 手动触发同步的默认冷却间隔
const DefaultSyncInterval = 60 * time.Second

// syncLimiter 按 key 记录上次触发时间
// 同店同步必须串行，这里在 HTTP 边界做冷却兜底（内核按约定不加锁）
type syncLimiter struct {
	mu      sync.Mutex
	lastRun map[string]time.Time
}

var limiter = &syncLimiter{lastRun: make(map[string]time.Time)}

// check 只判断冷却，不落时间戳；冷却期内返回 false 和剩余等待时间
func (l *syncLimiter) check(key string, interval time.Duration) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if last, ok := l.lastRun[key]; ok {
		if wait := interval - time.Since(last); wait > 0 {
			return false, wait
		}
	}
	return true, 0
}

// mark 成功触发后落冷却时间戳
// 前置校验被拒的请求不落，不然一次配置错误会白白烧掉整个冷却期
func (l *syncLimiter) mark(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastRun[key] = time.Now()
}

// SyncRateLimit 同步限流中间件，按店铺维度冷却
//
// 使用示例:
//
//	stores.POST("/:id/sync",
//	    middleware.SyncRateLimit(0),
//	    syncCtl.TriggerSync,
//	)
//
// interval 传 0 使用默认冷却间隔
func SyncRateLimit(interval time.Duration) gin.HandlerFunc {
	if interval == 0 {
		interval = DefaultSyncInterval
	}

	return func(c *gin.Context) {
		storeIDStr := c.Param("id")
		if storeIDStr == "" {
			storeIDStr = c.Query("store_id")
		}

		key := "sync:global"
		if storeIDStr != "" {
			storeID, err := strconv.ParseInt(storeIDStr, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "无效的店铺 ID"})
				c.Abort()
				return
			}
			key = fmt.Sprintf("sync:store:%d", storeID)
		}

		ok, wait := limiter.check(key, interval)
		if !ok {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    429,
				"message": fmt.Sprintf("同步冷却中，请 %d 秒后重试", int(wait.Seconds())+1),
			})
			c.Abort()
			return
		}

		c.Next()

		// 触发成功才进入冷却
		if c.Writer.Status() < http.StatusBadRequest {
			limiter.mark(key)
		}
	}
}
