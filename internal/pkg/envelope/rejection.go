package envelope

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// DefaultRejectionMessage 无法从响应中取得错误信息时使用
const DefaultRejectionMessage = "Unknown Error"

// Reason 失败原因分类
type Reason string

const (
	ReasonError        Reason = "error"
	ReasonUnauthorized Reason = "unauthorized"
	ReasonTimeout      Reason = "timeout"
	ReasonCancel       Reason = "cancel"
)

// Rejection 后端返回的失败响应
// Message 永远非空
type Rejection struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Title      string `json:"title,omitempty"`
	Reason     Reason `json:"reason"`
}

// NewRejection 创建 Rejection，空消息使用默认消息
func NewRejection(statusCode int, reason Reason, message string) *Rejection {
	if strings.TrimSpace(message) == "" {
		message = DefaultRejectionMessage
	}
	if reason == "" {
		reason = reasonFor(statusCode)
	}
	return &Rejection{StatusCode: statusCode, Message: message, Reason: reason}
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("request rejected (status %d, %s): %s", r.StatusCode, r.Reason, r.Message)
}

// IsUnauthorized 会话失效或未登录
func (r *Rejection) IsUnauthorized() bool {
	return r.Reason == ReasonUnauthorized
}

// AsRejection 从错误链中取出 Rejection
func AsRejection(err error) (*Rejection, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

// IsRejection 判断错误链中是否包含 Rejection
func IsRejection(err error) bool {
	_, ok := AsRejection(err)
	return ok
}

// rejectionSources 按优先级排列的错误信息来源
var rejectionSources = []string{"gsad_response", "action_result"}

// DecodeRejection 解码失败响应
// 错误信息优先取 gsad_response.message，其次 action_result.message，都没有时使用默认消息
// body 可以是完整的信封，也可以直接是 gsad_response / action_result 文档，无法解码时同样返回默认消息
func DecodeRejection(statusCode int, body any) *Rejection {
	rej := NewRejection(statusCode, "", "")

	name, value, err := decodeDocument(body)
	if err != nil {
		return rej
	}
	// 同时在文档根和信封内部查找
	candidates := []map[string]any{{name: value}}
	if inner, ok := value.(map[string]any); ok {
		candidates = append(candidates, inner)
	}

	if msg, ok := findSection(candidates, rejectionSources, "message"); ok {
		rej.Message = msg
	}
	if title, ok := findSection(candidates, rejectionSources[:1], "title"); ok {
		rej.Title = title
	}
	return rej
}

func findSection(candidates []map[string]any, sections []string, field string) (string, bool) {
	for _, section := range sections {
		for _, doc := range candidates {
			node, ok := doc[section].(map[string]any)
			if !ok {
				continue
			}
			if s, ok := TextOf(node[field]); ok && strings.TrimSpace(s) != "" {
				return s, true
			}
		}
	}
	return "", false
}

func reasonFor(statusCode int) Reason {
	if statusCode == http.StatusUnauthorized {
		return ReasonUnauthorized
	}
	return ReasonError
}
