package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/checkout-widget/internal/config"
	"github.com/checkout-widget/internal/logger"

	"go.uber.org/zap"
)

// 启动模式
const (
	ModeAll    = "all"
	ModeAPI    = "api"
	ModeWorker = "worker"
)

const defaultShutdownTimeout = 15 * time.Second

// Options 应用启动选项
type Options struct {
	Config          *config.Config
	Logger          *zap.SugaredLogger
	Signals         []os.Signal
	ShutdownTimeout time.Duration
	Mode            string
}

// ParseMode 解析启动模式，空值视为 all
func ParseMode(raw string) (string, error) {
	mode := strings.ToLower(strings.TrimSpace(raw))
	switch mode {
	case "":
		return ModeAll, nil
	case ModeAll, ModeAPI, ModeWorker:
		return mode, nil
	default:
		return "", fmt.Errorf("unknown mode: %q", raw)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.Logger == nil {
		opts.Logger = logger.S()
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = defaultShutdownTimeout
	}
	if mode, err := ParseMode(opts.Mode); err == nil {
		opts.Mode = mode
	}
	return opts
}
