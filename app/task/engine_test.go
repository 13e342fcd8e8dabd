package task

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/peyoba/Text2Image-audio/app/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okRunner(result *model.GenerationResult) Runner {
	return func(ctx context.Context, t *model.Task) (*model.GenerationResult, error) {
		return result, nil
	}
}

func waitForStatus(t *testing.T, engine *Engine, id string, want model.TaskStatus) *model.Task {
	t.Helper()
	var got *model.Task
	require.Eventually(t, func() bool {
		task, err := engine.GetStatus(context.Background(), id)
		if err != nil {
			return false
		}
		got = task
		return task.Status == want
	}, 3*time.Second, 10*time.Millisecond)
	return got
}

func TestInlineSubmitIsNonBlocking(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	release := make(chan struct{})
	runner := func(ctx context.Context, task *model.Task) (*model.GenerationResult, error) {
		<-release
		return &model.GenerationResult{Type: "image", Data: "data:image/jpeg;base64,AAAA"}, nil
	}
	engine := NewEngine(store, NewInlineExecutor(store, runner, newTestLogger()), newTestLogger())

	id, err := engine.Submit(context.Background(), model.TaskTypeImage, "a cute cat")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	// 执行尚未放行，提交后立即查询必须是非终态
	got, err := engine.GetStatus(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, got.Status.IsTerminal(), "提交后立即查询不应看到终态, 实际: %s", got.Status)
	assert.Nil(t, got.Result)
	assert.Empty(t, got.Error)

	close(release)
	got = waitForStatus(t, engine, id, model.TaskStatusSuccess)
	require.NotNil(t, got.Result)
	assert.Equal(t, "data:image/jpeg;base64,AAAA", got.Result.Data)
	assert.Empty(t, got.Error)

	engine.Stop()
}

func TestInlineRunnerErrorBecomesFailure(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	runner := func(ctx context.Context, task *model.Task) (*model.GenerationResult, error) {
		return nil, errors.New("pollinations-image: API 返回错误状态 (status=502)")
	}
	engine := NewEngine(store, NewInlineExecutor(store, runner, newTestLogger()), newTestLogger())

	id, err := engine.Submit(context.Background(), model.TaskTypeImage, "a cat")
	require.NoError(t, err)

	got := waitForStatus(t, engine, id, model.TaskStatusFailure)
	assert.Contains(t, got.Error, "502")
	assert.Contains(t, got.Traceback, "generation(image)")
	assert.Nil(t, got.Result)

	engine.Stop()
}

func TestInlineRunnerPanicBecomesFailure(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	runner := func(ctx context.Context, task *model.Task) (*model.GenerationResult, error) {
		panic("unexpected state")
	}
	engine := NewEngine(store, NewInlineExecutor(store, runner, newTestLogger()), newTestLogger())

	id, err := engine.Submit(context.Background(), model.TaskTypeAudio, "hello")
	require.NoError(t, err)

	got := waitForStatus(t, engine, id, model.TaskStatusFailure)
	assert.Contains(t, got.Error, "unexpected state")
	assert.NotEmpty(t, got.Traceback)

	engine.Stop()
}

func TestInlineExecutesAtMostOnce(t *testing.T) {
	store := NewMemoryStore(time.Hour)
	var calls atomic.Int64
	runner := func(ctx context.Context, task *model.Task) (*model.GenerationResult, error) {
		calls.Add(1)
		return &model.GenerationResult{Type: "image", Data: "data:image/jpeg;base64,BBBB"}, nil
	}
	engine := NewEngine(store, NewInlineExecutor(store, runner, newTestLogger()), newTestLogger())

	id, err := engine.Submit(context.Background(), model.TaskTypeImage, "a cat")
	require.NoError(t, err)
	waitForStatus(t, engine, id, model.TaskStatusSuccess)
	engine.Stop()

	assert.EqualValues(t, 1, calls.Load())
}

func TestQueuedExecutorProcessesTask(t *testing.T) {
	mr := miniredis.RunT(t)

	store, err := NewRedisStore(mr.Addr())
	require.NoError(t, err)

	runner := okRunner(&model.GenerationResult{Type: "audio", Data: "data:audio/mpeg;base64,CCCC"})
	executor, err := NewQueuedExecutor(mr.Addr(), 2, store, runner, newTestLogger())
	require.NoError(t, err)

	engine := NewEngine(store, executor, newTestLogger())
	engine.Start()
	defer engine.Stop()

	id, err := engine.Submit(context.Background(), model.TaskTypeAudio, "hello")
	require.NoError(t, err)

	got := waitForStatus(t, engine, id, model.TaskStatusSuccess)
	require.NotNil(t, got.Result)
	assert.Equal(t, "data:audio/mpeg;base64,CCCC", got.Result.Data)
}

func TestQueuedWorkerSkipsTerminalTask(t *testing.T) {
	mr := miniredis.RunT(t)

	store, err := NewRedisStore(mr.Addr())
	require.NoError(t, err)

	var calls atomic.Int64
	runner := func(ctx context.Context, task *model.Task) (*model.GenerationResult, error) {
		calls.Add(1)
		return &model.GenerationResult{Type: "image", Data: "data:image/jpeg;base64,DDDD"}, nil
	}
	executor, err := NewQueuedExecutor(mr.Addr(), 1, store, runner, newTestLogger())
	require.NoError(t, err)

	// 任务已是终态，即使 ID 再次出现在队列中也不得重复执行
	done := model.NewTask(model.TaskTypeImage, "done")
	done.MarkSuccess(&model.GenerationResult{Type: "image", Data: "data:image/jpeg;base64,EEEE"})
	require.NoError(t, store.Create(context.Background(), done))
	require.NoError(t, executor.Dispatch(done))

	executor.Start()
	defer executor.Stop()

	time.Sleep(200 * time.Millisecond)
	assert.EqualValues(t, 0, calls.Load())

	got, err := store.Get(context.Background(), done.ID)
	require.NoError(t, err)
	assert.Equal(t, "data:image/jpeg;base64,EEEE", got.Result.Data)
}
