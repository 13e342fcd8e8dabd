package handler

import (
	"errors"
	"net/http"

	"github.com/peyoba/Text2Image-audio/app/logger"
	"github.com/peyoba/Text2Image-audio/app/model"
	"github.com/peyoba/Text2Image-audio/app/service"
	"github.com/peyoba/Text2Image-audio/app/task"

	"github.com/gin-gonic/gin"
)

// GenerationHandler 生成相关接口处理器
type GenerationHandler struct {
	service *service.GenerationService
	logger  *logger.Logger
}

// NewGenerationHandler 创建生成处理器
func NewGenerationHandler(svc *service.GenerationService, log *logger.Logger) *GenerationHandler {
	return &GenerationHandler{
		service: svc,
		logger:  log,
	}
}

// GenerateRequest 生成请求结构
type GenerateRequest struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

// OptimizeRequest 提示词优化请求结构
type OptimizeRequest struct {
	Text string `json:"text"`
}

// Generate 接收生成请求，提交异步任务并返回任务 ID
// POST /api/generate
func (h *GenerationHandler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求数据"})
		return
	}

	taskID, err := h.service.SubmitGeneration(c.Request.Context(), req.Text, req.Type)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingText):
			c.JSON(http.StatusBadRequest, gin.H{"error": "缺少必要的参数"})
		case errors.Is(err, service.ErrInvalidType):
			c.JSON(http.StatusBadRequest, gin.H{"error": "不支持的生成类型"})
		default:
			h.logger.Errorf("处理生成请求时出错: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status_url": "/api/tasks/" + taskID,
		"task_id":    taskID,
	})
}

// GetTask 查询指定任务的状态和结果
// GET /api/tasks/:task_id
func (h *GenerationHandler) GetTask(c *gin.Context) {
	taskID := c.Param("task_id")

	t, err := h.service.QueryTask(c.Request.Context(), taskID)
	if err != nil {
		if errors.Is(err, task.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "任务不存在"})
			return
		}
		h.logger.Errorf("获取任务状态时出错: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.logger.Infof("任务 %s 状态: %s", taskID, t.Status)
	c.JSON(http.StatusOK, taskStatusBody(t))
}

// Optimize 同步优化提示词。上游失败时仍返回 200，错误嵌入响应体，
// 调用方无需特判状态码即可回退到原始文本。
// POST /api/optimize
func (h *GenerationHandler) Optimize(c *gin.Context) {
	var req OptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少必要参数 text"})
		return
	}

	result := h.service.OptimizePrompt(c.Request.Context(), req.Text)
	c.JSON(http.StatusOK, result)
}

// Health 健康检查
// GET /api/health
func (h *GenerationHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "running"})
}

// taskStatusBody 构造任务状态响应体，终态才带 result/error 字段
func taskStatusBody(t *model.Task) gin.H {
	body := gin.H{
		"task_id":      t.ID,
		"status":       t.Status,
		"last_updated": t.LastUpdated,
	}

	switch t.Status {
	case model.TaskStatusSuccess:
		body["result"] = t.Result
	case model.TaskStatusFailure:
		body["error"] = t.Error
		if t.Traceback != "" {
			body["traceback"] = t.Traceback
		}
	}

	return body
}
