package task

import (
	"context"
	"time"

	"github.com/peyoba/Text2Image-audio/app/model"

	"github.com/patrickmn/go-cache"
)

// MemoryStore 基于进程内缓存的任务存储，按保留窗口自动淘汰
type MemoryStore struct {
	cache *cache.Cache
}

// NewMemoryStore 创建内存任务存储。retention 为任务记录的存活时间，
// 每次写入都会刷新，因此只有不再更新的记录才会被淘汰。
func NewMemoryStore(retention time.Duration) *MemoryStore {
	return &MemoryStore{
		cache: cache.New(retention, 10*time.Minute),
	}
}

func (s *MemoryStore) Create(_ context.Context, task *model.Task) error {
	s.cache.Set(task.ID, task.Clone(), cache.DefaultExpiration)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*model.Task, error) {
	value, found := s.cache.Get(id)
	if !found {
		return nil, ErrTaskNotFound
	}
	return value.(*model.Task).Clone(), nil
}

func (s *MemoryStore) Update(_ context.Context, task *model.Task) error {
	// 整体替换缓存项，读取方要么看到旧记录要么看到新记录
	s.cache.Set(task.ID, task.Clone(), cache.DefaultExpiration)
	return nil
}

func (s *MemoryStore) CleanupBefore(_ context.Context, cutoff time.Time) (int64, error) {
	var removed int64
	for id, item := range s.cache.Items() {
		t, ok := item.Object.(*model.Task)
		if !ok {
			continue
		}
		if t.Status.IsTerminal() && t.LastUpdated.Before(cutoff) {
			s.cache.Delete(id)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore) Close() error {
	s.cache.Flush()
	return nil
}
