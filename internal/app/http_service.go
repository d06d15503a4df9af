package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/checkout-widget/internal/config"
	"github.com/checkout-widget/internal/logger"
)

// HTTPService 组件托管 HTTP 服务
type HTTPService struct {
	server *http.Server
}

// NewHTTPService 创建 HTTP 服务。不设置 WriteTimeout：表单提交会同步等待 webhook 返回。
func NewHTTPService(cfg config.ServerConfig, handler http.Handler) *HTTPService {
	return &HTTPService{
		server: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           handler,
			ReadHeaderTimeout: secondsOr(cfg.ReadHeaderTimeoutSeconds, 10*time.Second),
			IdleTimeout:       secondsOr(cfg.IdleTimeoutSeconds, 120*time.Second),
		},
	}
}

// Name 服务名称
func (s *HTTPService) Name() string {
	return "http"
}

// Start 监听并阻塞，直到 Stop 被调用
func (s *HTTPService) Start(ctx context.Context) error {
	if s == nil || s.server == nil {
		return errors.New("http server not initialized")
	}
	listener, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	logger.Infow("http_listening", "addr", listener.Addr().String())
	if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop 优雅关闭，等待进行中的提交完成或 ctx 超时
func (s *HTTPService) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func secondsOr(seconds int, fallback time.Duration) time.Duration {
	if seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}
