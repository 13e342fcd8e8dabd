package task

import (
	"context"
	"sync"

	"github.com/peyoba/Text2Image-audio/app/logger"
	"github.com/peyoba/Text2Image-audio/app/model"
)

// InlineExecutor 进程内执行器：每次提交启动一个协程，提交方不等待
type InlineExecutor struct {
	store  Store
	runner Runner
	log    *logger.Logger
	wg     sync.WaitGroup
}

// NewInlineExecutor 创建进程内执行器
func NewInlineExecutor(store Store, runner Runner, log *logger.Logger) *InlineExecutor {
	return &InlineExecutor{
		store:  store,
		runner: runner,
		log:    log,
	}
}

// Dispatch 为任务启动唯一一次执行
func (e *InlineExecutor) Dispatch(t *model.Task) error {
	e.wg.Add(1)
	go func(t *model.Task) {
		defer e.wg.Done()
		runTask(context.Background(), e.store, e.runner, e.log, t)
	}(t.Clone())
	return nil
}

func (e *InlineExecutor) Start() {}

// Stop 等待所有已调度的任务执行结束
func (e *InlineExecutor) Stop() {
	e.wg.Wait()
}
