package task

import (
	"context"
	"time"

	"github.com/peyoba/Text2Image-audio/app/logger"
	"github.com/peyoba/Text2Image-audio/app/model"

	"gorm.io/gorm"
)

// SQLiteStore 基于 gorm 的持久化任务存储
type SQLiteStore struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewSQLiteStore 创建持久化任务存储。
// 启动时把上次进程退出遗留的 STARTED 任务重置为 PENDING，等待重新调度。
func NewSQLiteStore(db *gorm.DB, log *logger.Logger) *SQLiteStore {
	result := db.Model(&model.TaskRecord{}).
		Where("status = ?", model.TaskStatusStarted).
		Update("status", model.TaskStatusPending)
	if result.Error != nil {
		log.Errorf("重置遗留任务状态失败: %v", result.Error)
	} else if result.RowsAffected > 0 {
		log.Infof("已将 %d 个遗留任务重置为待处理状态", result.RowsAffected)
	}

	return &SQLiteStore{db: db, log: log}
}

func (s *SQLiteStore) Create(ctx context.Context, task *model.Task) error {
	return s.db.WithContext(ctx).Create(model.RecordFromTask(task)).Error
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*model.Task, error) {
	var record model.TaskRecord
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return record.ToTask(), nil
}

func (s *SQLiteStore) Update(ctx context.Context, task *model.Task) error {
	// Save 整体覆盖记录，保证状态与结果同时落库
	return s.db.WithContext(ctx).Save(model.RecordFromTask(task)).Error
}

func (s *SQLiteStore) CleanupBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("status IN (?) AND last_updated < ?",
			[]model.TaskStatus{model.TaskStatusSuccess, model.TaskStatusFailure}, cutoff).
		Delete(&model.TaskRecord{})
	return result.RowsAffected, result.Error
}

func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// PendingTasks 返回所有待处理任务，供队列模式在启动时重新入队
func (s *SQLiteStore) PendingTasks(ctx context.Context) ([]*model.Task, error) {
	var records []model.TaskRecord
	err := s.db.WithContext(ctx).
		Where("status = ?", model.TaskStatusPending).
		Order("created_at ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	tasks := make([]*model.Task, 0, len(records))
	for i := range records {
		tasks = append(tasks, records[i].ToTask())
	}
	return tasks, nil
}
