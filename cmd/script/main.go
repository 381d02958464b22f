package main

import (
	"context"
	"flag"
	"os"
	"sync"
	"time"

	"meme-radar/internal/tracker/config"
	"meme-radar/internal/tracker/notify"
	"meme-radar/internal/tracker/repository"
	"meme-radar/internal/tracker/service"
	"meme-radar/pkg/logger"

	"go.uber.org/zap"
)

// 一次性任务：导入 / 导出浏览器版的配置 blob

func main() {
	mode := flag.String("mode", "export", "import or export")
	file := flag.String("file", "meme-radar-export.json", "blob file path")
	flag.Parse()

	startTime := time.Now()
	cfg := config.InitConfig()

	logger.InitTrace("meme-radar", "script")
	ctx, span := logger.StartSpan(context.Background(), "main", "main")
	defer span.End()

	rootLogger := logger.NewLogger("script", logger.Options{Dir: cfg.Log.Dir})
	logger.SetLogLevel(cfg.Log.Level)
	tl := logger.WithTrace(ctx, rootLogger)

	if cfg.Postgres.DSN == "" {
		tl.Fatal("postgres dsn is required for the script")
	}
	repo, err := repository.Open(cfg, tl)
	if err != nil {
		tl.Fatal("Failed to open repository", zap.Error(err))
	}
	defer repo.Close()

	daos := repo.GetDAO()
	var broker notify.Broker = notify.NewLocalBroker()
	if rdb := repo.GetRDB(); rdb != nil {
		broker = notify.NewRedisBroker(rdb, tl)
	}
	hub := notify.NewHub(broker, daos.TokenDAO, daos.AddressDAO, tl)
	svc := service.NewPortabilityService(daos.TokenDAO, daos.AddressDAO, hub, &sync.Mutex{}, cfg.Tracker.BatchSize, tl)

	if err := run(ctx, svc, *mode, *file, tl); err != nil {
		tl.Error("Task failed", zap.String("mode", *mode), zap.Error(err))
		os.Exit(1)
	}
	tl.Info("Task completed successfully", zap.String("mode", *mode), zap.Duration("taken_time", time.Since(startTime)))
}

func run(ctx context.Context, svc *service.PortabilityService, mode, file string, tl *zap.Logger) error {
	switch mode {
	case "export":
		data, err := svc.ExportJSON(ctx)
		if err != nil {
			return err
		}
		if err := os.WriteFile(file, data, 0o644); err != nil {
			return err
		}
		tl.Info("blob exported", zap.String("file", file), zap.Int("bytes", len(data)))
	case "import":
		data, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		blob, err := service.ParseLegacyBlob(data)
		if err != nil {
			return err
		}
		res, err := svc.Import(ctx, blob)
		if err != nil {
			return err
		}
		tl.Info("blob imported", zap.String("file", file), zap.Any("result", res))
	default:
		tl.Fatal("unknown mode, use import or export", zap.String("mode", mode))
	}
	return nil
}
