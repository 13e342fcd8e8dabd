package database

import (
	"os"
	"path/filepath"

	"github.com/peyoba/Text2Image-audio/app/logger"
	"github.com/peyoba/Text2Image-audio/app/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Open 打开 SQLite 数据库并迁移表结构（store=sqlite 时使用）
func Open(dbPath string, log *logger.Logger) (*gorm.DB, error) {
	// 确保数据库文件目录存在
	if err := ensureDir(filepath.Dir(dbPath)); err != nil {
		log.Errorf("创建数据库目录失败: %v", err)
		return nil, err
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		log.Errorf("连接数据库失败: %v", err)
		return nil, err
	}
	log.Infof("数据库连接成功: %s", dbPath)

	// 自动迁移表结构
	if err := db.AutoMigrate(&model.TaskRecord{}); err != nil {
		log.Errorf("迁移表结构失败: %v", err)
		return nil, err
	}

	return db, nil
}

// ensureDir 确保目录存在
func ensureDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}
