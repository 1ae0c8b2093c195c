package repository

import (
	"context"

	"gorm.io/gorm"

	"storehub_v1_202608/internal/model"
)

// SyncLogRepository 同步运行记录仓储接口
type SyncLogRepository interface {
	Create(ctx context.Context, log *model.SyncLog) error
	ListByStore(ctx context.Context, storeID int64, page, pageSize int) ([]model.SyncLog, int64, error)
}

type syncLogRepo struct {
	db *gorm.DB
}

// NewSyncLogRepository 创建同步记录仓储
func NewSyncLogRepository(db *gorm.DB) SyncLogRepository {
	return &syncLogRepo{db: db}
}

func (r *syncLogRepo) Create(ctx context.Context, log *model.SyncLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *syncLogRepo) ListByStore(ctx context.Context, storeID int64, page, pageSize int) ([]model.SyncLog, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&model.SyncLog{}).
		Where("store_id = ?", storeID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []model.SyncLog
	offset := (page - 1) * pageSize
	err := query.
		Order("created_at DESC").
		Limit(pageSize).
		Offset(offset).
		Find(&logs).Error
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
