package upstream

import "fmt"

// StatusUnknown 未收到 HTTP 响应时的状态占位
const StatusUnknown = "unknown"

// Error 上游 API 调用错误，携带 HTTP 状态与响应体摘录
type Error struct {
	Upstream string // 上游名称：pollinations-image、pollinations-text、deepseek
	Status   string // HTTP 状态码文本，未收到响应时为 unknown
	Message  string
	Body     string // 原始响应体摘录（最多 500 字符）
}

func (e *Error) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s: %s (status=%s): %s", e.Upstream, e.Message, e.Status, e.Body)
	}
	return fmt.Sprintf("%s: %s (status=%s)", e.Upstream, e.Message, e.Status)
}

// excerpt 截取响应体摘录，避免把整个错误页塞进日志
func excerpt(body string) string {
	const limit = 500
	if len(body) > limit {
		return body[:limit] + "..."
	}
	return body
}
