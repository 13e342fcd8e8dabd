package upstream

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/peyoba/Text2Image-audio/app/config"
	"github.com/peyoba/Text2Image-audio/app/logger"

	"resty.dev/v3"
)

const upstreamDeepSeek = "deepseek"

// 提示词优化的固定指令模板，要求模型只输出英文提示词
const optimizePromptTemplate = `你是一个顶级的提示词工程师，专注于为最先进的文生图模型创作具有艺术性和画面感的提示词。请严格基于用户提供的原始描述中的核心主体、数量、场景和明确指定的风格（例如"写实风格"、"卡通风格"、"油画风格"等），进行优化和丰富。
你的任务是：
1.  **精准翻译与丰富细节**：将用户的中文描述准确翻译成艺术感强且表意清晰的英文，并智能补充能显著提升画面效果的细节（人物姿态与表情、环境、光照、构图与视角等）。
2.  **保留并强化核心要素与主体完整清晰**：主体数量、性别、年龄段以及用户已明确指定的场景和风格必须保留并得到强化，面部特征必须清晰可见。
3.  **提升画面质量的通用词汇**：酌情加入如 'masterpiece', 'best quality', 'high resolution', 'highly detailed', 'sharp focus', 'cinematic lighting' 等通用高品质描述。
4.  **避免过度解读和无关添加**：不要添加与用户原始描述核心内容无关或冲突的概念。
5.  **输出格式**：只输出优化和丰富后的高质量英文提示词，不要包含任何其他解释或说明文字。

原始描述：`

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// DeepSeekClient DeepSeek 提示词优化 API 客户端
type DeepSeekClient struct {
	cfg    config.DeepSeekConfig
	client *resty.Client
	log    *logger.Logger
}

// NewDeepSeekClient 创建 DeepSeek 客户端
func NewDeepSeekClient(cfg config.DeepSeekConfig, log *logger.Logger) *DeepSeekClient {
	client := resty.New()
	client.SetTimeout(cfg.APITimeout())

	return &DeepSeekClient{
		cfg:    cfg,
		client: client,
		log:    log,
	}
}

// endpoint 规范化 API 地址，配置中缺少路径时补全 /v1/chat/completions
func (d *DeepSeekClient) endpoint() string {
	apiURL := d.cfg.APIURL
	if strings.HasSuffix(apiURL, "/v1/chat/completions") {
		return apiURL
	}
	return strings.TrimSuffix(apiURL, "/") + "/v1/chat/completions"
}

// Optimize 调用 DeepSeek 优化提示词，返回模型的原始输出文本
func (d *DeepSeekClient) Optimize(ctx context.Context, text string) (string, error) {
	if d.cfg.APIKey == "" {
		return "", &Error{
			Upstream: upstreamDeepSeek,
			Status:   StatusUnknown,
			Message:  "DeepSeek API 密钥未配置",
		}
	}

	payload := chatRequest{
		Model: d.cfg.Model,
		Messages: []chatMessage{
			{Role: "user", Content: optimizePromptTemplate + text},
		},
		Temperature: 0.5,
	}

	var result chatResponse
	resp, err := d.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+d.cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		SetResult(&result).
		Post(d.endpoint())
	if err != nil {
		d.log.Errorf("DeepSeek API 请求失败: %v", err)
		return "", &Error{
			Upstream: upstreamDeepSeek,
			Status:   StatusUnknown,
			Message:  fmt.Sprintf("请求失败: %v", err),
		}
	}

	if resp.StatusCode() != 200 {
		d.log.Errorf("DeepSeek API 返回错误状态码: %d, 响应: %s", resp.StatusCode(), excerpt(resp.String()))
		return "", &Error{
			Upstream: upstreamDeepSeek,
			Status:   strconv.Itoa(resp.StatusCode()),
			Message:  "API 返回错误状态",
			Body:     excerpt(resp.String()),
		}
	}

	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return "", &Error{
			Upstream: upstreamDeepSeek,
			Status:   strconv.Itoa(resp.StatusCode()),
			Message:  "响应中缺少 choices[0].message.content",
			Body:     excerpt(resp.String()),
		}
	}

	raw := strings.TrimSpace(result.Choices[0].Message.Content)
	d.log.Infof("DeepSeek 优化完成，原始输出长度: %d", len(raw))
	return raw, nil
}
