package shared

import (
	"errors"

	"github.com/checkout-widget/internal/http/response"
	"github.com/checkout-widget/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if requestID, ok := c.Get("request_id"); ok {
		if id, ok := requestID.(string); ok && id != "" {
			return logger.SW("request_id", id)
		}
	}
	return logger.S()
}

// RespondError 返回错误响应，并在有原始错误时记录日志。
func RespondError(c *gin.Context, code int, msg string, err error) {
	appErr := response.WrapError(code, msg, err)
	if err != nil {
		RequestLog(c).Errorw("handler_error",
			"code", appErr.Code,
			"message", appErr.Message,
			"error", err,
		)
	}
	response.FromError(c, appErr)
}

// MappedError 业务错误到接口错误的映射关系。
type MappedError struct {
	Target  error
	Code    int
	Message string
}

// ResolveMappedError 查找匹配的映射；未命中时返回 fallback。
func ResolveMappedError(err error, rules []MappedError, fallback MappedError) (MappedError, bool) {
	for _, rule := range rules {
		if errors.Is(err, rule.Target) {
			return rule, true
		}
	}
	return fallback, false
}

// RespondMappedError 按映射表输出错误；未命中的错误会记录日志。
func RespondMappedError(c *gin.Context, err error, rules []MappedError, fallback MappedError) {
	rule, matched := ResolveMappedError(err, rules, fallback)
	if matched {
		RespondError(c, rule.Code, rule.Message, nil)
		return
	}
	RespondError(c, rule.Code, rule.Message, err)
}
