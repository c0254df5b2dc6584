package httptransport

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 成功响应结构
type Response struct {
	Success bool        `json:"success"`
	Status  int         `json:"status"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse 错误响应结构
type ErrorResponse struct {
	Success bool   `json:"success"`
	Status  int    `json:"status"`
	Error   string `json:"error"`
}

// Success 成功响应（200）
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Status:  http.StatusOK,
		Data:    data,
	})
}

// NoContent 无内容响应（204）- 通常用于删除成功
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error 通用错误响应
func Error(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Success: false,
		Status:  status,
		Error:   msg,
	})
}

// BadRequest 请求参数错误（400）
func BadRequest(c *gin.Context, msg string) {
	Error(c, http.StatusBadRequest, msg)
}

// NotFound 资源不存在错误（404）
func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, http.StatusText(http.StatusNotFound))
}

// InternalError 服务器内部错误（500），不向调用方暴露细节
func InternalError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}
