package model

import (
	"gorm.io/datatypes"
)

// SyncLog 同步运行记录
// 每次 SyncStoreProducts 落一条，后台同步历史页直接读这张表
type SyncLog struct {
	BaseModel
	RunID   string `gorm:"size:40;uniqueIndex"` // uuid
	StoreID int64  `gorm:"index;not null"`
	Source  string `gorm:"size:20"` // WOO / WEB_PUSH

	Total   int `gorm:"default:0"`
	Created int `gorm:"default:0"`
	Updated int `gorm:"default:0"`
	Skipped int `gorm:"default:0"`
	Failed  int `gorm:"default:0"`

	// 逐条失败明细 [{product_id,title,error}]
	Errors datatypes.JSON `gorm:"type:jsonb"`

	DurationMs int64 `gorm:"default:0"`
}

func (SyncLog) TableName() string {
	return "sync_logs"
}
