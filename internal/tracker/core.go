package tracker

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"meme-radar/internal/tracker/cache"
	"meme-radar/internal/tracker/config"
	"meme-radar/internal/tracker/handler"
	"meme-radar/internal/tracker/job"
	"meme-radar/internal/tracker/model"
	"meme-radar/internal/tracker/monitor"
	"meme-radar/internal/tracker/notify"
	"meme-radar/internal/tracker/repository"
	"meme-radar/internal/tracker/service"
	"meme-radar/internal/tracker/writer"
	"meme-radar/internal/tracker/writer/event"
	"meme-radar/pkg/birdeye"
	"meme-radar/pkg/dune"
	"meme-radar/pkg/rpcgateway"
	"meme-radar/pkg/utils"

	"go.uber.org/zap"
)

const (
	eventBatchSize     = 100
	eventFlushInterval = time.Second
)

type Core struct {
	cfg       config.Config
	tl        *zap.Logger
	repo      repository.Repository
	scheduler *job.Scheduler
	importer  *service.Importer
	events    *writer.AsyncBatchWriter[model.ImportEvent]
	gateway   *rpcgateway.Gateway
	server    *http.Server
	metrics   *monitor.MetricsServer
}

func New(cfg config.Config, logger *zap.Logger) (*Core, error) {
	repo, err := repository.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	daos := repo.GetDAO()

	// 有 redis 时跨进程通知，否则进程内
	var broker notify.Broker = notify.NewLocalBroker()
	if rdb := repo.GetRDB(); rdb != nil {
		broker = notify.NewRedisBroker(rdb, logger)
	}
	hub := notify.NewHub(broker, daos.TokenDAO, daos.AddressDAO, logger)

	duneClient := dune.NewClient(cfg.Dune, logger)
	birdeyeClient := birdeye.NewClient(cfg.Birdeye, logger)
	gateway := rpcgateway.New(cfg.QuickNode, logger)
	prices := cache.NewPriceCache(logger, repo.GetRDB())

	core := &Core{
		cfg:       cfg,
		tl:        logger,
		repo:      repo,
		gateway:   gateway,
		scheduler: job.NewScheduler(logger),
		metrics:   monitor.NewMetricsServer(cfg.Monitor, logger),
	}

	// 导入事件，kafka 未配置时不投递
	var sink service.EventSink
	if mq := repo.GetMQ(); mq != nil {
		core.events = writer.NewAsyncBatchWriter(logger,
			event.NewKafkaImportEventWriter(mq, logger, cfg.Kafka.TopicImport),
			eventBatchSize, eventFlushInterval, "import_events", 1)
		sink = core.events
	}

	writeLock := &sync.Mutex{}
	core.importer = service.NewImporter(duneClient, daos.TokenDAO, daos.AddressDAO, hub, cache.NewImportStatusBoard(), sink, writeLock,
		service.ImportOptions{
			BatchSize: cfg.Tracker.BatchSize,
			MaxWrites: cfg.Tracker.MaxWritesPerImport,
			Timeout:   time.Duration(cfg.Tracker.ImportTimeoutSeconds) * time.Second,
		}, logger)

	probes := []service.APIProbe{
		{Name: "dune", Configured: duneClient.Configured, Check: duneClient.Ping},
		{Name: "birdeye", Configured: birdeyeClient.Configured, Check: birdeyeClient.Ping},
		{
			Name:       "quicknode_solana",
			Configured: func() bool { return gateway.Configured(utils.ChainSolana) },
			Check: func(ctx context.Context) error {
				_, err := gateway.ProbeSolana(ctx)
				return err
			},
		},
		{
			Name:       "quicknode_ethereum",
			Configured: func() bool { return gateway.Configured(utils.ChainEthereum) },
			Check: func(ctx context.Context) error {
				_, err := gateway.ProbeEthereum(ctx)
				return err
			},
		},
	}

	refresh := job.NewPriceRefresh(daos.TokenDAO, birdeyeClient, prices, hub, logger)
	interval := time.Duration(cfg.Tracker.PriceRefreshMinutes) * time.Minute
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	core.scheduler.RegisterJob(job.PriceRefreshJobName, interval, refresh.Run)

	router := handler.NewRouter(cfg.Server.Mode, handler.Services{
		Tokens:      service.NewTokenService(daos.TokenDAO, hub, prices, core.importer, logger),
		Addresses:   service.NewAddressService(daos.AddressDAO, hub, logger),
		Importer:    core.importer,
		Settings:    service.NewSettingsService(probes, logger),
		Portability: service.NewPortabilityService(daos.TokenDAO, daos.AddressDAO, hub, writeLock, cfg.Tracker.BatchSize, logger),
		Hub:         hub,
		Prices:      refresh,
		Queries:     duneClient,
		RPC:         gateway,
	}, logger)
	core.server = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return core, nil
}

func (c *Core) Start(ctx context.Context) {
	c.tl.Info("Starting tracker core...")
	if c.metrics != nil {
		c.metrics.Run()
	}
	if c.events != nil {
		// 独立 ctx，Stop 时由 Close 写完剩余事件
		c.events.Start(context.Background())
	}
	c.scheduler.Start(ctx)

	go func() {
		c.tl.Info("HTTP server listening", zap.String("addr", c.server.Addr))
		if err := c.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.tl.Error("HTTP server stopped", zap.Error(err))
		}
	}()
	c.tl.Info("Tracker started successfully")

	<-ctx.Done()
	c.tl.Info("Shutting down tracker due to context cancellation...")
}

// Stop 优雅关闭 Core 的所有资源
func (c *Core) Stop(ctx context.Context) {
	c.tl.Info("Stopping tracker core...")

	if err := c.server.Shutdown(ctx); err != nil {
		c.tl.Warn("HTTP server shutdown", zap.Error(err))
	}
	c.scheduler.Stop(ctx)

	// 后台导入有自己的超时，这里等到 ctx 结束为止
	done := make(chan struct{})
	go func() {
		c.importer.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		c.tl.Warn("Background imports still running at shutdown")
	}

	if c.events != nil {
		c.events.Close()
	}
	if c.metrics != nil {
		_ = c.metrics.Stop(ctx)
	}
	c.gateway.Close()
	_ = c.repo.Close()

	c.tl.Info("Tracker core stopped.")
}
