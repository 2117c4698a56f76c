package envelope

import (
	"errors"
	"fmt"
)

// ParseError 响应无法解码（输入类型不支持、XML 格式错误、缺少外层节点）
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("envelope parse error: %s: %v", e.Reason, e.Err)
	}
	return "envelope parse error: " + e.Reason
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func newParseError(reason string, err error) *ParseError {
	return &ParseError{Reason: reason, Err: err}
}

// IsParseError 判断错误链中是否包含 ParseError
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
