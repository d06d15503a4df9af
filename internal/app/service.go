package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var errServiceExited = errors.New("service exited")

// Service 可启动、可停止的后台服务
type Service interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Runner 并行运行一组服务，任意一个退出时全部停止
type Runner struct {
	services []Service
}

// NewRunner 创建服务运行器
func NewRunner(services ...Service) *Runner {
	return &Runner{services: services}
}

// RunWithOptions 运行服务并处理系统信号
func RunWithOptions(runner *Runner, opts Options) error {
	if runner == nil {
		return errors.New("runner is nil")
	}
	opts = normalizeOptions(opts)
	ctx := context.Background()
	if len(opts.Signals) > 0 {
		var cancel context.CancelFunc
		ctx, cancel = signal.NotifyContext(ctx, opts.Signals...)
		defer cancel()
	}
	return runner.Run(ctx, opts.ShutdownTimeout, opts.Logger)
}

// Run 启动全部服务并阻塞。ctx 取消或某个服务正常退出时返回 nil，
// 服务启动失败时返回该错误；两种情况都会在 stopTimeout 内停止其余服务。
func (r *Runner) Run(ctx context.Context, stopTimeout time.Duration, log *zap.SugaredLogger) error {
	if r == nil || len(r.services) == 0 {
		return errors.New("no services to run")
	}
	for _, svc := range r.services {
		if svc == nil {
			return errors.New("service is nil")
		}
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if stopTimeout <= 0 {
		stopTimeout = defaultShutdownTimeout
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, svc := range r.services {
		service := svc
		g.Go(func() error {
			log.Infow("service_start", "service", service.Name())
			err := service.Start(gctx)
			log.Infow("service_exit", "service", service.Name(), "error", err)
			if err != nil {
				return fmt.Errorf("%s: %w", service.Name(), err)
			}
			if gctx.Err() == nil {
				return fmt.Errorf("%s: %w", service.Name(), errServiceExited)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stopTimeout)
		defer cancel()
		for _, svc := range r.services {
			if err := svc.Stop(stopCtx); err != nil {
				log.Errorw("service_stop_failed", "service", svc.Name(), "error", err)
			}
		}
		return nil
	})

	err := g.Wait()
	if errors.Is(err, errServiceExited) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
