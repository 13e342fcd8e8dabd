package service

import (
	"context"
	"errors"

	"github.com/peyoba/Text2Image-audio/app/logger"
	"github.com/peyoba/Text2Image-audio/app/model"
	"github.com/peyoba/Text2Image-audio/app/sanitize"
	"github.com/peyoba/Text2Image-audio/app/task"
)

// 提交校验错误，处理器据此返回 400
var (
	ErrMissingText = errors.New("缺少必要的参数")
	ErrInvalidType = errors.New("不支持的生成类型")
)

// PromptOptimizer 提示词优化上游（由 DeepSeek 客户端实现）
type PromptOptimizer interface {
	Optimize(ctx context.Context, text string) (string, error)
}

// OptimizationResult 提示词优化结果，同步返回不落库。
// 上游失败时 Error 非空且 OptimizedText 回退为原始文本。
type OptimizationResult struct {
	OptimizedText  string `json:"optimized_text"`
	RawOptimized   string `json:"raw_optimized"`
	OriginalPrompt string `json:"original_prompt"`
	Error          string `json:"error,omitempty"`
}

// GenerationService 生成门面：提交任务、查询状态、优化提示词
type GenerationService struct {
	engine    *task.Engine
	optimizer PromptOptimizer
	sanitizer *sanitize.Sanitizer
	log       *logger.Logger
}

// NewGenerationService 创建生成服务
func NewGenerationService(engine *task.Engine, optimizer PromptOptimizer, sanitizer *sanitize.Sanitizer, log *logger.Logger) *GenerationService {
	return &GenerationService{
		engine:    engine,
		optimizer: optimizer,
		sanitizer: sanitizer,
		log:       log,
	}
}

// SubmitGeneration 校验输入并提交异步生成任务，返回任务 ID
func (s *GenerationService) SubmitGeneration(ctx context.Context, text, genType string) (string, error) {
	if text == "" || genType == "" {
		return "", ErrMissingText
	}

	taskType := model.TaskType(genType)
	if !taskType.IsValid() {
		return "", ErrInvalidType
	}

	return s.engine.Submit(ctx, taskType, text)
}

// QueryTask 按 ID 查询任务状态，未知 ID 返回 task.ErrTaskNotFound
func (s *GenerationService) QueryTask(ctx context.Context, id string) (*model.Task, error) {
	return s.engine.GetStatus(ctx, id)
}

// OptimizePrompt 同步优化提示词。任何上游失败都不向调用方抛错，
// 而是在结果中带上错误并回退到原始文本，保证调用方总有可用的提示词。
func (s *GenerationService) OptimizePrompt(ctx context.Context, text string) OptimizationResult {
	result := OptimizationResult{
		OptimizedText:  text,
		OriginalPrompt: text,
	}

	raw, err := s.optimizer.Optimize(ctx, text)
	if err != nil {
		s.log.Errorf("提示词优化失败: %v", err)
		result.Error = "优化API调用失败: " + err.Error()
		return result
	}
	result.RawOptimized = raw

	clean, usedFallback, err := s.sanitizer.Sanitize(raw)
	if err != nil {
		s.log.Errorf("提示词清洗失败: %v", err)
		result.Error = "优化API返回空内容"
		return result
	}
	if usedFallback {
		s.log.Warnf("提示词清洗触发回退，返回未清洗文本")
	}

	result.OptimizedText = clean
	s.log.Infof("提示词优化完成，清洗后长度: %d", len(clean))
	return result
}
