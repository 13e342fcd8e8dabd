package service

import (
	"context"
	"time"

	"github.com/peyoba/Text2Image-audio/app/logger"
	"github.com/peyoba/Text2Image-audio/app/task"

	"github.com/robfig/cron/v3"
)

// CleanupService 定期清理超过保留窗口的终态任务
type CleanupService struct {
	store     task.Store
	retention time.Duration
	log       *logger.Logger
	cron      *cron.Cron
}

// NewCleanupService 创建清理服务
func NewCleanupService(store task.Store, retention time.Duration, log *logger.Logger) *CleanupService {
	return &CleanupService{
		store:     store,
		retention: retention,
		log:       log,
		cron:      cron.New(),
	}
}

// Start 启动定时清理，启动时先执行一次
func (s *CleanupService) Start() {
	s.cleanup()

	if _, err := s.cron.AddFunc("@hourly", s.cleanup); err != nil {
		s.log.Errorf("注册清理定时任务失败: %v", err)
		return
	}
	s.cron.Start()
	s.log.Infof("任务清理服务已启动，保留窗口: %v", s.retention)
}

// Stop 停止定时清理
func (s *CleanupService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("任务清理服务已停止")
}

// cleanup 删除保留窗口之前进入终态的任务
func (s *CleanupService) cleanup() {
	cutoff := time.Now().Add(-s.retention)
	removed, err := s.store.CleanupBefore(context.Background(), cutoff)
	if err != nil {
		s.log.Errorf("清理终态任务失败: %v", err)
		return
	}
	if removed > 0 {
		s.log.Infof("清理了 %d 个终态任务（早于 %s）", removed, cutoff.Format("2006-01-02 15:04:05"))
	}
}
