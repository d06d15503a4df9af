package provider

import (
	"github.com/checkout-widget/internal/cache"
	"github.com/checkout-widget/internal/config"
	"github.com/checkout-widget/internal/logger"
	"github.com/checkout-widget/internal/queue"
	"github.com/checkout-widget/internal/service"
	"github.com/checkout-widget/internal/widget"
)

// Container 依赖注入容器
type Container struct {
	Config        *config.Config
	QueueClient   *queue.Client
	InFlightGuard *cache.InFlightGuard

	// Services
	WidgetService *service.WidgetService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:        cfg,
		QueueClient:   queueClient,
		InFlightGuard: cache.NewInFlightGuard(cache.Client()),
	}
	logger.Infow("provider_inflight_guard_ready", "distributed", c.InFlightGuard.Distributed())
	c.initServices()
	return c
}

func (c *Container) initServices() {
	var guard widget.InFlightGuard
	if c.InFlightGuard != nil {
		guard = c.InFlightGuard
	}
	var publisher widget.OutcomePublisher
	if c.QueueClient.Enabled() {
		publisher = c.QueueClient
	}
	c.WidgetService = service.NewWidgetService(c.Config, guard, publisher)
}

// Close 释放外部连接
func (c *Container) Close() {
	if c == nil {
		return
	}
	if err := c.QueueClient.Close(); err != nil {
		logger.Warnw("provider_close_queue_client_failed", "error", err)
	}
	if err := cache.Close(); err != nil {
		logger.Warnw("provider_close_redis_failed", "error", err)
	}
}
