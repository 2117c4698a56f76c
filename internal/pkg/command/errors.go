package command

import (
	"errors"

	"github.com/greenbone/gsa-sub043/internal/pkg/envelope"
)

var (
	// ErrUnknownResource 注册中心中不存在该资源
	ErrUnknownResource = errors.New("unknown resource")
	// ErrElementNotFound 响应中找不到期望的元素
	ErrElementNotFound = errors.New("element not found in response")
	// ErrMissingID 需要ID的命令未提供ID
	ErrMissingID = errors.New("missing id")
)

// asRejection 将传输层错误转换为 Rejection
func asRejection(err error) (*envelope.Rejection, bool) {
	var raw *RawRejection
	if errors.As(err, &raw) {
		rej := envelope.DecodeRejection(raw.StatusCode, raw.Body)
		if raw.Reason != "" {
			rej.Reason = raw.Reason
		}
		return rej, true
	}
	return envelope.AsRejection(err)
}
