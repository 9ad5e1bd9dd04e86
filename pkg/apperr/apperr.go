package apperr

import "errors"

// Error 业务错误
// Status 对应HTTP状态码，Message 为可直接返回给客户端的提示
// 内部错误细节不放入 Message，由调用方记录日志

type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

// Validation 400 参数校验错误
func Validation(message string) *Error {
	return &Error{Status: 400, Message: message}
}

// Unauthorized 401 认证错误
func Unauthorized(message string) *Error {
	return &Error{Status: 401, Message: message}
}

// Forbidden 403 授权错误
func Forbidden(message string) *Error {
	return &Error{Status: 403, Message: message}
}

// NotFound 404 资源不存在
func NotFound(message string) *Error {
	return &Error{Status: 404, Message: message}
}

// Internal 500 内部错误
func Internal(message string) *Error {
	return &Error{Status: 500, Message: message}
}

// From 提取业务错误；非业务错误返回nil
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

// StatusOf 返回错误对应的HTTP状态码，未知错误按500处理
func StatusOf(err error) int {
	if e := From(err); e != nil {
		return e.Status
	}
	return 500
}

// MessageOf 返回可暴露给客户端的错误消息
// 未知错误统一返回 fallback，避免泄露内部细节
func MessageOf(err error, fallback string) string {
	if e := From(err); e != nil {
		return e.Message
	}
	return fallback
}
