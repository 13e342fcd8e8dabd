package task

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/peyoba/Text2Image-audio/app/logger"
	"github.com/peyoba/Text2Image-audio/app/model"
)

// Runner 执行一个任务的实际生成逻辑，由上层注入
type Runner func(ctx context.Context, task *model.Task) (*model.GenerationResult, error)

// Executor 任务执行器。Dispatch 只负责调度，立即返回；
// 每个任务 ID 至多被执行一次。
type Executor interface {
	Dispatch(task *model.Task) error
	Start()
	Stop()
}

// runTask 单次执行一个任务：PENDING → STARTED → SUCCESS/FAILURE。
// 状态与结果总是通过 Store.Update 整体发布，panic 也会被记录为失败。
func runTask(ctx context.Context, store Store, runner Runner, log *logger.Logger, t *model.Task) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("任务执行发生 panic: TaskID=%s, %v", t.ID, r)
			t.MarkFailure(fmt.Sprintf("任务执行异常: %v", r), string(debug.Stack()))
			if err := store.Update(ctx, t); err != nil {
				log.Errorf("保存任务失败状态出错: TaskID=%s, %v", t.ID, err)
			}
		}
	}()

	log.Infof("开始处理生成任务: TaskID=%s, 类型=%s", t.ID, t.Type)

	t.MarkStarted()
	if err := store.Update(ctx, t); err != nil {
		log.Errorf("更新任务状态失败: TaskID=%s, %v", t.ID, err)
		return
	}

	result, err := runner(ctx, t)
	if err != nil {
		log.Errorf("任务执行失败: TaskID=%s, 类型=%s, 错误: %v", t.ID, t.Type, err)
		t.MarkFailure(err.Error(), fmt.Sprintf("generation(%s): %v", t.Type, err))
		if updateErr := store.Update(ctx, t); updateErr != nil {
			log.Errorf("保存任务失败状态出错: TaskID=%s, %v", t.ID, updateErr)
		}
		return
	}

	t.MarkSuccess(result)
	if err := store.Update(ctx, t); err != nil {
		log.Errorf("保存任务结果出错: TaskID=%s, %v", t.ID, err)
		return
	}
	log.Infof("任务完成: TaskID=%s, 类型=%s", t.ID, t.Type)
}
