// Package sanitize 将 LLM 的原始输出清洗为适合图片 API 的纯英文提示词。
// 这里的正则与回退阈值是启发式约定，下游行为依赖其精确语义，不要"改进"。
package sanitize

import (
	"errors"
	"regexp"
	"strings"

	"github.com/peyoba/Text2Image-audio/app/logger"
)

// ErrEmptyContent 上游返回了完全空的内容，调用方必须按错误上报
var ErrEmptyContent = errors.New("优化 API 返回空内容")

// 匹配英文字母、数字、空白和常见标点的连续片段
var englishPattern = regexp.MustCompile("[a-zA-Z0-9\\s.,!?'\"\\:;()\\[\\]{}<>#@$%^&*+=_\\\\|/~`-]+")

// 清洗后长度减少超过该字符数且被移除内容含中日韩文字时，发出诊断警告
const shrinkWarnThreshold = 10

// Sanitizer 提示词清洗器
type Sanitizer struct {
	log *logger.Logger
}

// New 创建提示词清洗器
func New(log *logger.Logger) *Sanitizer {
	return &Sanitizer{log: log}
}

// Sanitize 清洗原始输出，返回清洗结果和是否触发了回退。
// 回退策略：清洗为空但原文非空时返回原文；原文也为空时返回 ErrEmptyContent。
func (s *Sanitizer) Sanitize(raw string) (string, bool, error) {
	if raw == "" {
		return "", false, ErrEmptyContent
	}

	parts := englishPattern.FindAllString(raw, -1)
	clean := strings.TrimSpace(strings.Join(parts, " "))

	if clean == "" {
		// 清洗到空说明清洗逻辑过于激进，按清洗器缺陷处理，回退到原文
		s.log.Warnf("提示词清洗后为空，原始输出为: '%s'，回退到原始文本", raw)
		return raw, true, nil
	}

	// 长度锐减且原文含中文，大概率是上游翻译失败漏出了源语言文本
	rawLen := len([]rune(raw))
	cleanLen := len([]rune(clean))
	if rawLen > cleanLen+shrinkWarnThreshold && containsCJK(raw) {
		s.log.Warnf("清洗后的提示词长度显著减少，可能丢失了信息。原始: '%s', 清洗后: '%s'", raw, clean)
	}

	return clean, false, nil
}

// containsCJK 判断文本中是否含有中日韩统一表意文字（U+4E00 至 U+9FFF）
func containsCJK(text string) bool {
	for _, r := range text {
		if r >= 0x4e00 && r <= 0x9fff {
			return true
		}
	}
	return false
}
