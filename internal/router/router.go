package router

import (
	"fmt"
	"strings"

	"github.com/checkout-widget/internal/cache"
	"github.com/checkout-widget/internal/config"
	widgethandlers "github.com/checkout-widget/internal/http/handlers/widget"
	"github.com/checkout-widget/internal/http/response"
	"github.com/checkout-widget/internal/logger"
	"github.com/checkout-widget/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	widgetHandler := widgethandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "cw"
	}
	submitRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:submit", redisPrefix),
		WindowSeconds: cfg.RateLimit.WindowSeconds,
		MaxRequests:   cfg.RateLimit.MaxRequests,
	}
	formRule := submitRule
	formRule.Prefix = fmt.Sprintf("%s:rate:form", redisPrefix)
	if !cfg.RateLimit.Enabled {
		submitRule = RateLimitRule{}
		formRule = RateLimitRule{}
	}
	// 查询串表单与 API 提交共用同一个限流器；路径表单按配置片段+IP 单独计数
	submitLimit := RateLimitMiddleware(cache.Client(), submitRule, KeyByIP)
	formLimit := RateLimitMiddleware(cache.Client(), formRule, KeyByIPAndParam("config"))

	// 中间件
	r.Use(RecoveryMiddleware(log))
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// 托管组件页面
	r.GET("/widget", widgetHandler.RenderWidget)
	r.POST("/widget", submitLimit, widgetHandler.SubmitWidgetForm)
	r.GET("/widget/:config", widgetHandler.RenderWidget)
	r.POST("/widget/:config/submit", formLimit, widgetHandler.SubmitWidgetForm)

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		widgetAPI := apiV1.Group("/widget")
		{
			widgetAPI.POST("/normalize", widgetHandler.NormalizeWidget)
			widgetAPI.POST("/submit", submitLimit, widgetHandler.SubmitWidget)
			widgetAPI.GET("/submissions/:id", widgetHandler.GetSubmission)
		}
	}

	// 健康检查
	r.GET("/healthz", func(ctx *gin.Context) {
		response.Success(ctx, gin.H{
			"status": "ok",
			"redis":  cache.Enabled(),
			"queue":  c != nil && c.QueueClient.Enabled(),
		})
	})

	return r
}
