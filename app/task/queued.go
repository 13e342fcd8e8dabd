package task

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/peyoba/Text2Image-audio/app/logger"
	"github.com/peyoba/Text2Image-audio/app/model"

	"github.com/redis/go-redis/v9"
)

// 待执行任务 ID 的 Redis 列表
const queueKey = "text2image_audio:queue"

// QueuedExecutor 队列执行器：任务 ID 入 Redis 列表，
// 工作协程池通过 BRPOP 消费。BRPOP 保证每个条目只交付给一个工作协程。
type QueuedExecutor struct {
	client  *redis.Client
	store   Store
	runner  Runner
	log     *logger.Logger
	workers int

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewQueuedExecutor 创建队列执行器并验证 Redis 连接
func NewQueuedExecutor(addr string, workers int, store Store, runner Runner, log *logger.Logger) (*QueuedExecutor, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("连接 Redis 失败: %w", err)
	}

	if workers <= 0 {
		workers = 5
	}

	return &QueuedExecutor{
		client:  client,
		store:   store,
		runner:  runner,
		log:     log,
		workers: workers,
	}, nil
}

// Dispatch 将任务 ID 入队，任务记录已由引擎写入存储
func (e *QueuedExecutor) Dispatch(t *model.Task) error {
	return e.client.LPush(context.Background(), queueKey, t.ID).Err()
}

// Start 启动工作协程池
func (e *QueuedExecutor) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return
	}
	e.running = true

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel

	for i := 0; i < e.workers; i++ {
		e.wg.Add(1)
		go e.worker(ctx, i+1)
	}
	e.log.Infof("任务队列工作池已启动，协程数: %d", e.workers)
}

// Stop 停止工作协程池并等待在途任务完成
func (e *QueuedExecutor) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	e.running = false

	e.cancel()
	e.wg.Wait()
	if err := e.client.Close(); err != nil {
		e.log.Errorf("关闭 Redis 连接失败: %v", err)
	}
	e.log.Info("任务队列工作池已停止")
}

// worker 消费队列中的任务 ID 并执行
func (e *QueuedExecutor) worker(ctx context.Context, id int) {
	defer e.wg.Done()

	for {
		select {
		case <-ctx.Done():
			e.log.Infof("[worker %d] 收到停止信号", id)
			return
		default:
		}

		result, err := e.client.BRPop(ctx, 2*time.Second, queueKey).Result()
		if err != nil {
			if err == redis.Nil || ctx.Err() != nil {
				continue
			}
			e.log.Errorf("[worker %d] 出队失败: %v", id, err)
			continue
		}
		if len(result) != 2 {
			continue
		}

		taskID := result[1]
		t, err := e.store.Get(ctx, taskID)
		if err != nil {
			e.log.Errorf("[worker %d] 读取任务失败: TaskID=%s, %v", id, taskID, err)
			continue
		}
		// 终态任务不再执行，保证至多一次
		if t.Status.IsTerminal() || t.Status == model.TaskStatusStarted {
			e.log.Warnf("[worker %d] 跳过非待处理任务: TaskID=%s, 状态=%s", id, taskID, t.Status)
			continue
		}

		runTask(context.Background(), e.store, e.runner, e.log, t)
	}
}
