package task

import (
	"context"

	"github.com/peyoba/Text2Image-audio/app/logger"
	"github.com/peyoba/Text2Image-audio/app/model"
)

// Engine 任务引擎：提交、调度与状态查询。
// 状态机：PENDING → STARTED → SUCCESS/FAILURE，终态不可逆。
type Engine struct {
	store Store
	exec  Executor
	log   *logger.Logger
}

// NewEngine 创建任务引擎
func NewEngine(store Store, exec Executor, log *logger.Logger) *Engine {
	return &Engine{
		store: store,
		exec:  exec,
		log:   log,
	}
}

// Submit 创建任务记录并调度执行，立即返回任务 ID
func (e *Engine) Submit(ctx context.Context, taskType model.TaskType, prompt string) (string, error) {
	t := model.NewTask(taskType, prompt)

	if err := e.store.Create(ctx, t); err != nil {
		return "", err
	}

	if err := e.exec.Dispatch(t); err != nil {
		// 调度失败直接落为失败态，避免任务停留在 PENDING 无人认领
		e.log.Errorf("任务调度失败: TaskID=%s, %v", t.ID, err)
		t.MarkFailure("任务调度失败: "+err.Error(), "")
		if updateErr := e.store.Update(ctx, t); updateErr != nil {
			e.log.Errorf("保存任务失败状态出错: TaskID=%s, %v", t.ID, updateErr)
		}
		return "", err
	}

	e.log.Infof("任务已提交: TaskID=%s, 类型=%s, 文本: '%s'", t.ID, taskType, truncate(prompt, 50))
	return t.ID, nil
}

// GetStatus 查询任务当前状态，未知 ID 返回 ErrTaskNotFound
func (e *Engine) GetStatus(ctx context.Context, id string) (*model.Task, error) {
	return e.store.Get(ctx, id)
}

// Start 启动执行器
func (e *Engine) Start() {
	e.exec.Start()
}

// Stop 停止执行器并关闭存储
func (e *Engine) Stop() {
	e.exec.Stop()
	if err := e.store.Close(); err != nil {
		e.log.Errorf("关闭任务存储失败: %v", err)
	}
}

// truncate 截断日志中的长文本
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
