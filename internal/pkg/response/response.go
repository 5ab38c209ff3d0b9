package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/quran_app_server/internal/pkg/apperr"
)

// 错误码定义
const (
	CodeSuccess          = 0
	CodeParamError       = 1000
	CodeAuthFailed       = 1001
	CodePermissionDenied = 1002
	CodeResourceNotFound = 1003
	CodeQuotaExceeded    = 1004
	CodeDuplicateAction  = 1005
	CodeServerError      = 5000
)

// 错误码对应的默认消息
var codeMessages = map[int]string{
	CodeSuccess:          "success",
	CodeParamError:       "invalid request",
	CodeAuthFailed:       "authentication required",
	CodePermissionDenied: "permission denied",
	CodeResourceNotFound: "resource not found",
	CodeQuotaExceeded:    "too many requests",
	CodeDuplicateAction:  "resource already exists",
	CodeServerError:      "internal server error",
}

// 错误码对应的 HTTP 状态
var codeStatus = map[int]int{
	CodeSuccess:          http.StatusOK,
	CodeParamError:       http.StatusBadRequest,
	CodeAuthFailed:       http.StatusUnauthorized,
	CodePermissionDenied: http.StatusForbidden,
	CodeResourceNotFound: http.StatusNotFound,
	CodeQuotaExceeded:    http.StatusTooManyRequests,
	CodeDuplicateAction:  http.StatusConflict,
	CodeServerError:      http.StatusInternalServerError,
}

var kindCodes = map[apperr.Kind]int{
	apperr.KindValidation:     CodeParamError,
	apperr.KindAuthentication: CodeAuthFailed,
	apperr.KindAuthorization:  CodePermissionDenied,
	apperr.KindNotFound:       CodeResourceNotFound,
	apperr.KindRateLimit:      CodeQuotaExceeded,
	apperr.KindConflict:       CodeDuplicateAction,
	apperr.KindServer:         CodeServerError,
}

// Response 统一响应结构
type Response struct {
	Code    int                 `json:"code"`
	Message string              `json:"message"`
	Error   string              `json:"error,omitempty"`
	Errors  []apperr.FieldError `json:"errors,omitempty"`
	Data    interface{}         `json:"data"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// SuccessWithMessage 带自定义消息的成功响应
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: message,
		Data:    data,
	})
}

// Created 201 响应
func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    CodeSuccess,
		Message: message,
		Data:    data,
	})
}

// write 终止请求并写入错误响应，HTTP 状态由错误码决定
func write(c *gin.Context, code int, resp Response) {
	if resp.Message == "" {
		resp.Message = codeMessages[code]
	}
	status, ok := codeStatus[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	c.AbortWithStatusJSON(status, resp)
}

// FromError 将服务层错误转换为响应。未识别的错误一律视为服务器错误，且不向客户端暴露细节。
func FromError(c *gin.Context, err error) {
	appErr, ok := apperr.As(err)
	if !ok || appErr.Kind == apperr.KindServer {
		_ = c.Error(err)
		write(c, CodeServerError, Response{Code: CodeServerError, Error: "INTERNAL"})
		return
	}

	code := kindCodes[appErr.Kind]
	write(c, code, Response{
		Code:    code,
		Message: appErr.Message,
		Error:   appErr.Code,
		Errors:  appErr.Fields,
	})
}
