package model

import (
	"time"
)

// TaskRecord 任务的数据库记录（SQLite 存储后端）
type TaskRecord struct {
	ID          string     `gorm:"primaryKey;size:36"`
	Type        string     `gorm:"not null;index"`
	Prompt      string     `gorm:"not null"`
	Status      TaskStatus `gorm:"default:'PENDING';index"`
	ResultType  string
	ResultData  string `gorm:"type:text"` // base64 数据可能很大
	ErrorMsg    string
	Traceback   string
	CreatedAt   time.Time
	LastUpdated time.Time
}

// ToTask 转换为领域任务
func (r *TaskRecord) ToTask() *Task {
	t := &Task{
		ID:          r.ID,
		Type:        TaskType(r.Type),
		Prompt:      r.Prompt,
		Status:      r.Status,
		Error:       r.ErrorMsg,
		Traceback:   r.Traceback,
		CreatedAt:   r.CreatedAt,
		LastUpdated: r.LastUpdated,
	}
	if r.Status == TaskStatusSuccess && r.ResultData != "" {
		t.Result = &GenerationResult{Type: r.ResultType, Data: r.ResultData}
	}
	return t
}

// RecordFromTask 从领域任务构造数据库记录
func RecordFromTask(t *Task) *TaskRecord {
	r := &TaskRecord{
		ID:          t.ID,
		Type:        string(t.Type),
		Prompt:      t.Prompt,
		Status:      t.Status,
		ErrorMsg:    t.Error,
		Traceback:   t.Traceback,
		CreatedAt:   t.CreatedAt,
		LastUpdated: t.LastUpdated,
	}
	if t.Result != nil {
		r.ResultType = t.Result.Type
		r.ResultData = t.Result.Data
	}
	return r
}
