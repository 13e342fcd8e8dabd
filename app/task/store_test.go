package task

import (
	"context"
	"testing"
	"time"

	"github.com/peyoba/Text2Image-audio/app/config"
	"github.com/peyoba/Text2Image-audio/app/logger"
	"github.com/peyoba/Text2Image-audio/app/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *logger.Logger {
	return logger.New(config.LogConfig{Level: "error", Output: "stdout"})
}

// 两种存储后端共用同一组契约测试
func runStoreContractTests(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("未知ID返回ErrTaskNotFound", func(t *testing.T) {
		_, err := store.Get(ctx, "no-such-task")
		require.ErrorIs(t, err, ErrTaskNotFound)
	})

	t.Run("创建后可读取", func(t *testing.T) {
		task := model.NewTask(model.TaskTypeImage, "a cute cat")
		require.NoError(t, store.Create(ctx, task))

		got, err := store.Get(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, task.ID, got.ID)
		assert.Equal(t, model.TaskStatusPending, got.Status)
		assert.Equal(t, "a cute cat", got.Prompt)
	})

	t.Run("更新整体覆盖记录", func(t *testing.T) {
		task := model.NewTask(model.TaskTypeAudio, "hello")
		require.NoError(t, store.Create(ctx, task))

		task.MarkStarted()
		require.NoError(t, store.Update(ctx, task))
		task.MarkSuccess(&model.GenerationResult{Type: "audio", Data: "data:audio/mpeg;base64,AAAA"})
		require.NoError(t, store.Update(ctx, task))

		got, err := store.Get(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, model.TaskStatusSuccess, got.Status)
		require.NotNil(t, got.Result)
		assert.Equal(t, "data:audio/mpeg;base64,AAAA", got.Result.Data)
		assert.Empty(t, got.Error)
	})

	t.Run("结果与错误互斥", func(t *testing.T) {
		task := model.NewTask(model.TaskTypeImage, "x")
		require.NoError(t, store.Create(ctx, task))

		task.MarkSuccess(&model.GenerationResult{Type: "image", Data: "data:image/jpeg;base64,BBBB"})
		task.MarkFailure("上游超时", "")
		require.NoError(t, store.Update(ctx, task))

		got, err := store.Get(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, model.TaskStatusFailure, got.Status)
		assert.Nil(t, got.Result)
		assert.Equal(t, "上游超时", got.Error)
	})

	t.Run("清理只删除窗口外的终态任务", func(t *testing.T) {
		oldTask := model.NewTask(model.TaskTypeImage, "old")
		oldTask.MarkFailure("失败", "")
		oldTask.LastUpdated = time.Now().Add(-48 * time.Hour)
		require.NoError(t, store.Create(ctx, oldTask))

		freshTask := model.NewTask(model.TaskTypeImage, "fresh")
		freshTask.MarkSuccess(&model.GenerationResult{Type: "image", Data: "data:image/jpeg;base64,CCCC"})
		require.NoError(t, store.Create(ctx, freshTask))

		pendingTask := model.NewTask(model.TaskTypeImage, "pending")
		pendingTask.LastUpdated = time.Now().Add(-48 * time.Hour)
		require.NoError(t, store.Create(ctx, pendingTask))

		removed, err := store.CleanupBefore(ctx, time.Now().Add(-24*time.Hour))
		require.NoError(t, err)
		assert.EqualValues(t, 1, removed)

		_, err = store.Get(ctx, oldTask.ID)
		assert.ErrorIs(t, err, ErrTaskNotFound)
		_, err = store.Get(ctx, freshTask.ID)
		assert.NoError(t, err)
		// 非终态任务永不被清理服务删除
		_, err = store.Get(ctx, pendingTask.ID)
		assert.NoError(t, err)
	})
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore(24 * time.Hour)
	defer store.Close()

	runStoreContractTests(t, store)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store := NewMemoryStore(24 * time.Hour)
	defer store.Close()
	ctx := context.Background()

	task := model.NewTask(model.TaskTypeImage, "a cat")
	require.NoError(t, store.Create(ctx, task))

	got, err := store.Get(ctx, task.ID)
	require.NoError(t, err)
	got.Status = model.TaskStatusFailure // 修改读取结果不能影响存储

	again, err := store.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusPending, again.Status)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)

	store, err := NewRedisStore(mr.Addr())
	require.NoError(t, err)
	defer store.Close()

	runStoreContractTests(t, store)
}
