package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TaskStatus 任务状态
type TaskStatus string

const (
	TaskStatusPending TaskStatus = "PENDING"
	TaskStatusStarted TaskStatus = "STARTED"
	// TaskStatusRetry 为状态模型保留，当前引擎不会主动产生该状态
	TaskStatusRetry   TaskStatus = "RETRY"
	TaskStatusSuccess TaskStatus = "SUCCESS"
	TaskStatusFailure TaskStatus = "FAILURE"
)

// IsTerminal 判断是否为终态
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusSuccess || s == TaskStatusFailure
}

// TaskType 生成类型
type TaskType string

const (
	TaskTypeImage TaskType = "image"
	TaskTypeAudio TaskType = "audio"
)

// IsValid 判断生成类型是否受支持
func (t TaskType) IsValid() bool {
	return t == TaskTypeImage || t == TaskTypeAudio
}

// GenerationResult 生成结果，Data 为 data:<mime>;base64,<payload> 形式
type GenerationResult struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

// Task 异步生成任务
type Task struct {
	ID          string            `json:"id"`
	Type        TaskType          `json:"type"`
	Prompt      string            `json:"prompt"`
	Status      TaskStatus        `json:"status"`
	Result      *GenerationResult `json:"result,omitempty"`
	Error       string            `json:"error,omitempty"`
	Traceback   string            `json:"traceback,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	LastUpdated time.Time         `json:"last_updated"`
}

// NewTask 创建一个处于 PENDING 状态的新任务
func NewTask(taskType TaskType, prompt string) *Task {
	now := time.Now()
	return &Task{
		ID:          uuid.New().String(),
		Type:        taskType,
		Prompt:      prompt,
		Status:      TaskStatusPending,
		CreatedAt:   now,
		LastUpdated: now,
	}
}

// MarkStarted 标记任务开始执行
func (t *Task) MarkStarted() {
	t.Status = TaskStatusStarted
	t.LastUpdated = time.Now()
}

// MarkSuccess 标记任务成功并记录结果
func (t *Task) MarkSuccess(result *GenerationResult) {
	t.Status = TaskStatusSuccess
	t.Result = result
	t.Error = ""
	t.Traceback = ""
	t.LastUpdated = time.Now()
}

// MarkFailure 标记任务失败并记录错误信息
func (t *Task) MarkFailure(errMsg, traceback string) {
	t.Status = TaskStatusFailure
	t.Result = nil
	t.Error = errMsg
	t.Traceback = traceback
	t.LastUpdated = time.Now()
}

// Clone 返回任务的独立副本，存储层借此保证读取方不会观察到中间状态
func (t *Task) Clone() *Task {
	clone := *t
	if t.Result != nil {
		result := *t.Result
		clone.Result = &result
	}
	return &clone
}

// ToJSON 序列化任务，供 Redis 存储和队列使用
func (t *Task) ToJSON() (string, error) {
	data, err := json.Marshal(t)
	return string(data), err
}

// TaskFromJSON 反序列化任务
func TaskFromJSON(data string) (*Task, error) {
	var task Task
	if err := json.Unmarshal([]byte(data), &task); err != nil {
		return nil, err
	}
	return &task, nil
}
