package database

import (
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ==================== 连接池参数 ====================

// 目录同步以分页批量写入为主，单条事务都很短，连接数不需要很大
const (
	maxIdleConns    = 10
	maxOpenConns    = 50
	connMaxLifetime = time.Hour
)

// ==================== 初始化 ====================

// InitDB 建立 Postgres 连接并迁移给定模型
// dsn: 连接串；models: 需要自动建表/迁移的结构体指针
// SQL 日志级别由 DB_LOG_LEVEL 控制（silent/error/warn/info，默认 warn）
func InitDB(dsn string, models ...interface{}) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel()),
	})
	if err != nil {
		log.Fatalf("[Database] 数据库连接失败: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("[Database] 获取底层连接池失败: %v", err)
	}
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)

	if len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			log.Fatalf("[Database] 自动迁移失败: %v", err)
		}
	}

	log.Println("[Database] 连接就绪")
	return db
}

// logLevel 解析 DB_LOG_LEVEL，未设置或拼错回落 warn
func logLevel() logger.LogLevel {
	switch os.Getenv("DB_LOG_LEVEL") {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
