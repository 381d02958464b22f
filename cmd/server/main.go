package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"meme-radar/internal/tracker"
	"meme-radar/internal/tracker/config"
	"meme-radar/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	// 初始化配置文件
	cfg := config.InitConfig()

	// 初始化 trace provider
	shutdownTrace := logger.InitTrace("meme-radar", "server")
	ctx, span := logger.StartSpan(context.Background(), "main", "main")
	defer span.End()

	rootLogger := logger.NewLogger("server", logger.Options{Dir: cfg.Log.Dir})
	logger.SetLogLevel(cfg.Log.Level)
	tl := logger.WithTrace(ctx, rootLogger)

	// 启动配置热加载监听
	go config.WatchConfig(&cfg)

	core, err := tracker.New(cfg, tl)
	if err != nil {
		tl.Fatal("Failed to initialize tracker", zap.Error(err))
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		tl.Info("Starting meme-radar server...")
		core.Start(ctx)
	}()

	// 监听操作系统信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	tl.Info("Received shutdown signal, starting graceful shutdown...")
	cancel()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	core.Stop(stopCtx)
	_ = shutdownTrace(stopCtx)
	_ = rootLogger.Sync()
}
