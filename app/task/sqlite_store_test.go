package task

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/peyoba/Text2Image-audio/app/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "tasks.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.TaskRecord{}))
	return db
}

func TestSQLiteStore(t *testing.T) {
	store := NewSQLiteStore(newTestDB(t), newTestLogger())

	runStoreContractTests(t, store)
}

func TestSQLiteStoreResetsStartedOnStartup(t *testing.T) {
	db := newTestDB(t)

	// 模拟进程退出时遗留的 STARTED 任务
	orphan := model.NewTask(model.TaskTypeImage, "orphan")
	orphan.MarkStarted()
	require.NoError(t, db.Create(model.RecordFromTask(orphan)).Error)

	done := model.NewTask(model.TaskTypeImage, "done")
	done.MarkSuccess(&model.GenerationResult{Type: "image", Data: "data:image/jpeg;base64,DDDD"})
	require.NoError(t, db.Create(model.RecordFromTask(done)).Error)

	store := NewSQLiteStore(db, newTestLogger())

	got, err := store.Get(context.Background(), orphan.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusPending, got.Status)

	// 终态任务不受重置影响
	got, err = store.Get(context.Background(), done.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusSuccess, got.Status)
}

func TestSQLiteStorePendingTasks(t *testing.T) {
	store := NewSQLiteStore(newTestDB(t), newTestLogger())
	ctx := context.Background()

	first := model.NewTask(model.TaskTypeImage, "first")
	require.NoError(t, store.Create(ctx, first))
	second := model.NewTask(model.TaskTypeAudio, "second")
	require.NoError(t, store.Create(ctx, second))
	finished := model.NewTask(model.TaskTypeImage, "finished")
	finished.MarkFailure("err", "")
	require.NoError(t, store.Create(ctx, finished))

	pending, err := store.PendingTasks(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	ids := []string{pending[0].ID, pending[1].ID}
	assert.Contains(t, ids, first.ID)
	assert.Contains(t, ids, second.ID)
}
