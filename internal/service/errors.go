package service

import "errors"

// 站内信读路径的业务错误
var (
	// ErrForbidden 调用方无权以目标身份预览
	ErrForbidden = errors.New("access denied")
	// ErrPreviewTargetNotFound 预览目标身份无法解析
	ErrPreviewTargetNotFound = errors.New("preview target not found")
	// ErrMessageNotFound 邮件在当前门户下不存在
	ErrMessageNotFound = errors.New("message not found")
	// ErrBaseURLResolution 基础 URL 解析失败，属于不可恢复的内部错误
	ErrBaseURLResolution = errors.New("base url resolution failed")
	// ErrBaseURLNotConfigured 门户与默认配置均未提供基础 URL
	ErrBaseURLNotConfigured = errors.New("base url not configured")
)

// 令牌相关的业务错误
var (
	ErrTokenNotFound    = errors.New("token not found")
	ErrInvalidTokenType = errors.New("invalid token type")
	ErrUndefinedUserID  = errors.New("undefined user id")
)
