package upstream

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/peyoba/Text2Image-audio/app/config"
	"github.com/peyoba/Text2Image-audio/app/logger"

	"resty.dev/v3"
)

const (
	upstreamImage = "pollinations-image"
	upstreamAudio = "pollinations-text"

	// DefaultVoice 默认语音音色
	DefaultVoice = "nova"
	// DefaultAudioModel 默认语音模型
	DefaultAudioModel = "openai-audio"
	// 语音输出格式，用于 Content-Type 校验
	audioOutputFormat = "mp3"
)

// ImageOptions 图片生成的可选参数，零值表示省略
type ImageOptions struct {
	Width  int
	Height int
	Seed   int
}

// PollinationsClient Pollinations 图片/语音 API 客户端
type PollinationsClient struct {
	cfg    config.PollinationsConfig
	client *resty.Client
	log    *logger.Logger
}

// NewPollinationsClient 创建 Pollinations 客户端
func NewPollinationsClient(cfg config.PollinationsConfig, log *logger.Logger) *PollinationsClient {
	client := resty.New()
	client.SetTimeout(cfg.APITimeout())

	return &PollinationsClient{
		cfg:    cfg,
		client: client,
		log:    log,
	}
}

// GenerateImage 通过 Pollinations API 生成图片，返回未解析的响应体
func (p *PollinationsClient) GenerateImage(ctx context.Context, prompt string, opts ImageOptions) ([]byte, error) {
	requestURL := p.cfg.ImageAPIBase + url.PathEscape(prompt)

	req := p.client.R().SetContext(ctx)
	// 可选参数仅在提供时附加
	if opts.Width > 0 {
		req.SetQueryParam("width", strconv.Itoa(opts.Width))
	}
	if opts.Height > 0 {
		req.SetQueryParam("height", strconv.Itoa(opts.Height))
	}
	if opts.Seed > 0 {
		req.SetQueryParam("seed", strconv.Itoa(opts.Seed))
	}

	p.log.Infof("向 Pollinations 图片 API 发送请求: %s, 超时: %v", requestURL, p.cfg.APITimeout())

	resp, err := req.Get(requestURL)
	if err != nil {
		p.log.Errorf("Pollinations 图片 API 请求失败: %v", err)
		return nil, &Error{
			Upstream: upstreamImage,
			Status:   StatusUnknown,
			Message:  fmt.Sprintf("请求失败: %v", err),
		}
	}

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		p.log.Errorf("Pollinations 图片 API 返回错误状态码: %d", resp.StatusCode())
		return nil, &Error{
			Upstream: upstreamImage,
			Status:   strconv.Itoa(resp.StatusCode()),
			Message:  "API 返回错误状态",
			Body:     excerpt(resp.String()),
		}
	}

	p.log.Infof("Pollinations 图片 API 响应成功，状态码: %d", resp.StatusCode())
	return resp.Bytes(), nil
}

// GenerateAudio 通过 Pollinations API 生成语音，返回音频响应体。
// voice 和 audioModel 为空时使用默认值。
func (p *PollinationsClient) GenerateAudio(ctx context.Context, prompt, voice, audioModel string) ([]byte, error) {
	if voice == "" {
		voice = DefaultVoice
	}
	if audioModel == "" {
		audioModel = DefaultAudioModel
	}

	// 上游通过措辞而不是参数来识别 TTS 意图，必须加上指令前缀
	engineeredPrompt := "Say: " + prompt

	base := p.cfg.TextAPIBase
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	requestURL := base + url.PathEscape(engineeredPrompt)

	p.log.Infof("向 Pollinations 文本/语音 API 发送请求: %s, model=%s, voice=%s, 超时: %v",
		requestURL, audioModel, voice, p.cfg.APITimeout())

	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("model", audioModel).
		SetQueryParam("voice", voice).
		Get(requestURL)
	if err != nil {
		p.log.Errorf("Pollinations 文本/语音 API 请求失败: %v", err)
		return nil, &Error{
			Upstream: upstreamAudio,
			Status:   StatusUnknown,
			Message:  fmt.Sprintf("请求失败: %v", err),
		}
	}

	contentType := strings.ToLower(resp.Header().Get("Content-Type"))
	body := resp.Bytes()
	p.log.Infof("Pollinations 文本/语音 API 响应状态码: %d, 内容长度: %d", resp.StatusCode(), len(body))

	if resp.StatusCode() != 200 {
		return nil, &Error{
			Upstream: upstreamAudio,
			Status:   strconv.Itoa(resp.StatusCode()),
			Message:  fmt.Sprintf("API 请求失败, Content-Type: %s", contentType),
			Body:     excerpt(resp.String()),
		}
	}

	// 上游的已知故障模式：HTTP 200 返回错误页，必须校验 Content-Type
	if !strings.Contains(contentType, "audio/"+audioOutputFormat) && !strings.Contains(contentType, "audio/mpeg") {
		p.log.Errorf("Pollinations API 返回 200 但 Content-Type 不符合预期: %s", contentType)
		return nil, &Error{
			Upstream: upstreamAudio,
			Status:   "200",
			Message:  fmt.Sprintf("API 返回 200 但 Content-Type 不符合预期: %s", contentType),
			Body:     excerpt(resp.String()),
		}
	}

	// 过小的音频大概率是截断或空响应，只记录警告不视为失败
	if len(body) < 100 {
		p.log.Warnf("Pollinations API 返回的音频内容过小 (长度: %d)", len(body))
	}

	p.log.Infof("成功从 Pollinations API 接收到音频流, Content-Type: %s", contentType)
	return body, nil
}
