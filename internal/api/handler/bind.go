package handler

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/qs3c/quran_app_server/internal/pkg/apperr"
	"github.com/qs3c/quran_app_server/internal/pkg/response"
)

var (
	ErrInvalidBody  = apperr.Validation("INVALID_BODY", "request body is not valid JSON")
	ErrInvalidInput = apperr.Validation("VALIDATION_FAILED", "request validation failed")
	ErrInvalidParam = apperr.Validation("INVALID_PARAMETER", "path or query parameter is invalid")
)

func init() {
	// 校验错误使用 JSON 字段名
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	}
}

// bindJSON 绑定请求体，失败时写出 400 响应并返回 false
func bindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		response.FromError(c, bindError(err))
		return false
	}
	return true
}

func bindError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ErrInvalidBody.Wrap(err)
	}

	fields := make([]apperr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperr.FieldError{Field: fe.Field(), Message: ruleMessage(fe)})
	}
	return ErrInvalidInput.WithFields(fields...)
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	default:
		return "failed the " + fe.Tag() + " rule"
	}
}

// pathInt 解析整数路径参数
func pathInt(c *gin.Context, name string) (int, bool) {
	n, err := strconv.Atoi(c.Param(name))
	if err != nil {
		response.FromError(c, ErrInvalidParam.WithFields(apperr.FieldError{Field: name, Message: "must be an integer"}))
		return 0, false
	}
	return n, true
}
