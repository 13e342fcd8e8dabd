package service

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/peyoba/Text2Image-audio/app/logger"
	"github.com/peyoba/Text2Image-audio/app/model"
	"github.com/peyoba/Text2Image-audio/app/task"
	"github.com/peyoba/Text2Image-audio/app/upstream"
)

// MediaGenerator 按提示词生成媒体字节流（由 Pollinations 客户端实现）
type MediaGenerator interface {
	GenerateImage(ctx context.Context, prompt string, opts upstream.ImageOptions) ([]byte, error)
	GenerateAudio(ctx context.Context, prompt, voice, audioModel string) ([]byte, error)
}

// NewGenerationRunner 构造任务执行函数：调用上游生成媒体，
// 并把结果打包为 data:<mime>;base64,<payload> 形式。
func NewGenerationRunner(generator MediaGenerator, log *logger.Logger) task.Runner {
	return func(ctx context.Context, t *model.Task) (*model.GenerationResult, error) {
		switch t.Type {
		case model.TaskTypeImage:
			imageBytes, err := generator.GenerateImage(ctx, t.Prompt, upstream.ImageOptions{})
			if err != nil {
				return nil, err
			}
			log.Infof("图片生成成功: TaskID=%s", t.ID)
			return &model.GenerationResult{
				Type: string(model.TaskTypeImage),
				Data: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(imageBytes),
			}, nil

		case model.TaskTypeAudio:
			audioBytes, err := generator.GenerateAudio(ctx, t.Prompt, "", "")
			if err != nil {
				return nil, err
			}
			log.Infof("音频生成成功: TaskID=%s", t.ID)
			return &model.GenerationResult{
				Type: string(model.TaskTypeAudio),
				Data: "data:audio/mpeg;base64," + base64.StdEncoding.EncodeToString(audioBytes),
			}, nil

		default:
			return nil, fmt.Errorf("不支持的生成类型: %s", t.Type)
		}
	}
}
