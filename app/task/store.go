// Package task 实现异步任务引擎：任务存储、调度执行与状态查询。
package task

import (
	"context"
	"errors"
	"time"

	"github.com/peyoba/Text2Image-audio/app/model"
)

// ErrTaskNotFound 任务 ID 未知（从未提交或已被淘汰）
var ErrTaskNotFound = errors.New("任务不存在")

// Store 任务存储。实现必须支持并发读取，单个任务 ID 只有其执行方写入。
// 淘汰策略由各实现自行决定（时间或容量）。
type Store interface {
	// Create 保存一条新任务记录
	Create(ctx context.Context, task *model.Task) error
	// Get 按 ID 读取任务，未知 ID 返回 ErrTaskNotFound
	Get(ctx context.Context, id string) (*model.Task, error)
	// Update 整体覆盖任务记录，状态与结果一次性发布
	Update(ctx context.Context, task *model.Task) error
	// CleanupBefore 删除在给定时间之前进入终态的任务，返回删除数量
	CleanupBefore(ctx context.Context, cutoff time.Time) (int64, error)
	// Close 释放存储资源
	Close() error
}
