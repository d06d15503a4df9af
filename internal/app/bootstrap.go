package app

import (
	"errors"

	"github.com/checkout-widget/internal/config"
	"github.com/checkout-widget/internal/logger"
	"github.com/checkout-widget/internal/provider"
	"github.com/checkout-widget/internal/router"
	"github.com/checkout-widget/internal/worker"
)

// BuildRunner 构建服务运行器，返回的容器需要在运行结束后关闭
func BuildRunner(cfg *config.Config, mode string) (*Runner, *provider.Container, error) {
	if cfg == nil {
		return nil, nil, errors.New("config is nil")
	}
	mode, err := ParseMode(mode)
	if err != nil {
		return nil, nil, err
	}

	container := provider.NewContainer(cfg)

	var services []Service

	// 初始化 HTTP 服务
	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		services = append(services, NewHTTPService(cfg.Server, engine))
	}

	// 初始化 Worker 服务；all 模式下队列未启用时只运行 HTTP
	if mode == ModeWorker || (mode == ModeAll && cfg.Queue.Enabled) {
		workerService, err := worker.NewService(&cfg.Queue, worker.NewConsumer(nil))
		if err != nil {
			container.Close()
			return nil, nil, err
		}
		services = append(services, workerService)
	} else if mode == ModeAll {
		logger.Infow("app_worker_skipped", "reason", "queue_disabled")
	}

	if len(services) == 0 {
		container.Close()
		return nil, nil, errors.New("no services initialized (check mode and config)")
	}

	return NewRunner(services...), container, nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, container, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}
	defer container.Close()

	opts.Logger.Infow("app_start", "addr", opts.Config.Server.Addr(), "mode", opts.Mode)
	return RunWithOptions(runner, opts)
}
