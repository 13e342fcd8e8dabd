package task

import (
	"context"
	"fmt"
	"time"

	"github.com/peyoba/Text2Image-audio/app/model"

	"github.com/redis/go-redis/v9"
)

// 所有任务记录保存在一个 hash 中，字段为任务 ID
const taskHashKey = "text2image_audio:tasks"

// RedisStore 基于 Redis hash 的任务存储
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 创建 Redis 任务存储并验证连接
func NewRedisStore(addr string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("连接 Redis 失败: %w", err)
	}

	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Create(ctx context.Context, task *model.Task) error {
	return s.set(ctx, task)
}

func (s *RedisStore) Update(ctx context.Context, task *model.Task) error {
	return s.set(ctx, task)
}

func (s *RedisStore) set(ctx context.Context, task *model.Task) error {
	taskJSON, err := task.ToJSON()
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, taskHashKey, task.ID, taskJSON).Err()
}

func (s *RedisStore) Get(ctx context.Context, id string) (*model.Task, error) {
	taskJSON, err := s.client.HGet(ctx, taskHashKey, id).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return model.TaskFromJSON(taskJSON)
}

func (s *RedisStore) CleanupBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	taskMap, err := s.client.HGetAll(ctx, taskHashKey).Result()
	if err != nil {
		return 0, err
	}

	var removed int64
	for id, taskJSON := range taskMap {
		t, err := model.TaskFromJSON(taskJSON)
		if err != nil {
			continue
		}
		if t.Status.IsTerminal() && t.LastUpdated.Before(cutoff) {
			if err := s.client.HDel(ctx, taskHashKey, id).Err(); err != nil {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
