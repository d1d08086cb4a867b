// Package errors 定义 quill 在 CLI、HTTP 与核心之间共享的结构化错误。
//
// 错误码按类别命名：
//   - INVALID_*：输入或配置校验失败，渲染开始前即被拒绝
//   - UNSUPPORTED：请求了不存在的后端或能力
//   - INTERNAL_ERROR：意外的内部错误
//
// 用法：
//
//	err := errors.New(errors.ErrCodeInvalidStyle, "字号必须大于 0，当前为 %g", size)
//	if errors.Is(err, errors.ErrCodeInvalidStyle) {
//	    // 配置错误，不会产生任何输出
//	}
package errors

import (
	"errors"
	"fmt"
)

// Code 是机器可读的错误码。
type Code string

const (
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidStyle  Code = "INVALID_STYLE"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidSheet  Code = "INVALID_SHEET"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"

	ErrCodeNotFound Code = "NOT_FOUND"

	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error 携带错误码、面向用户的消息与可选的底层原因。
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap 让 errors.Is/As 能继续向下查找。
func (e *Error) Unwrap() error {
	return e.Cause
}

// New 以格式化消息创建错误。
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap 包装已有错误并附加错误码。
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is 判断错误链中是否存在指定错误码。
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode 提取错误码，非 *Error 返回空字符串。
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsInvalid 判断是否属于 INVALID_* 类别。
func IsInvalid(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidStyle, ErrCodeInvalidFormat, ErrCodeInvalidSheet, ErrCodeInvalidConfig:
		return true
	}
	return false
}

// UserMessage 返回不带错误码前缀的消息。
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
