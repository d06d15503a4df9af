package main

import (
	"flag"
	"fmt"
	"os"
	"syscall"

	"github.com/checkout-widget/internal/app"
	"github.com/checkout-widget/internal/config"
	"github.com/checkout-widget/internal/logger"

	"github.com/gin-gonic/gin"
)

const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiDim   = "\033[2m"
	ansiGreen = "\033[32m"
	ansiCyan  = "\033[36m"
)

func main() {
	// 解析命令行参数
	var mode string
	flag.StringVar(&mode, "mode", app.ModeAll, "启动模式: all (默认), api, worker")
	flag.Parse()

	printStartupBanner(mode)

	// 加载配置
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	defer logger.Sync()

	if !cfg.Redis.Enabled {
		logger.Warnw("redis_disabled", "effect", "rate_limit_local_and_inflight_guard_process_only")
	}

	// 设置 Gin 模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := app.Run(app.Options{
		Config:  cfg,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    mode,
	}); err != nil {
		logger.Errorw("app_run_failed", "error", err)
		logger.Sync()
		os.Exit(1)
	}
}

func printStartupBanner(mode string) {
	fmt.Println(ansiCyan + ansiBold + "checkout-widget" + ansiReset + ansiDim + " embeddable payment form" + ansiReset)
	fmt.Println(ansiGreen + "mode: " + mode + ansiReset)
	fmt.Println(ansiDim + "--------------------------------------------------------------" + ansiReset)
}
