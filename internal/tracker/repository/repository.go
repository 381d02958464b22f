package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"meme-radar/internal/tracker/config"
	"meme-radar/internal/tracker/dao"
	"meme-radar/internal/tracker/dao/memory"
	"meme-radar/internal/tracker/model"
	"meme-radar/pkg/database"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var once sync.Once
var r Repository
var initErr error

// New 进程内单例。postgres dsn 为空时使用内存 DAO
func New(cfg config.Config, logger *zap.Logger) (Repository, error) {
	once.Do(func() {
		r, initErr = Open(cfg, logger)
	})
	return r, initErr
}

// Open 不经过单例，命令行工具和测试直接用
func Open(cfg config.Config, logger *zap.Logger) (Repository, error) {
	repo := &repositoryImpl{
		cfg:    cfg,
		logger: logger.With(zap.String("component", "repository")),
	}
	if err := repo.init(); err != nil {
		_ = repo.Close()
		return nil, err
	}
	return repo, nil
}

type repositoryImpl struct {
	cfg    config.Config
	logger *zap.Logger
	db     *gorm.DB
	rdb    *redis.Client
	mq     *kafka.Writer
	daos   *dao.DAOManager
}

func (r *repositoryImpl) init() error {
	if dsn := strings.TrimSpace(r.cfg.Postgres.DSN); dsn != "" {
		db, err := database.InitPG(dsn, database.PoolConfig{
			MaxIdleConns: r.cfg.Postgres.MaxIdleConns,
			MaxOpenConns: r.cfg.Postgres.MaxOpenConns,
		})
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		r.db = db
		if r.cfg.Postgres.AutoMigrate {
			if err := db.AutoMigrate(&model.TokenConfig{}, &model.PromisingAddress{}); err != nil {
				return fmt.Errorf("auto migrate: %w", err)
			}
		}
		r.daos = dao.NewDAOManager(db)
	} else {
		r.logger.Warn("postgres dsn empty, using in-memory store")
		r.daos = &dao.DAOManager{
			TokenDAO:   memory.NewTokenStore(),
			AddressDAO: memory.NewAddressStore(),
		}
	}

	if addr := strings.TrimSpace(r.cfg.Redis.Address); addr != "" {
		r.rdb = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: r.cfg.Redis.Password,
			DB:       r.cfg.Redis.DB,
			PoolSize: 20,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.rdb.Ping(ctx).Err(); err != nil {
			r.logger.Warn("failed to connect to redis, continue", zap.Error(err))
		}
	} else {
		r.logger.Info("redis address empty, change feed stays in-process")
	}

	if brokers := splitBrokers(r.cfg.Kafka.Brokers); len(brokers) > 0 {
		r.mq = &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.Hash{},
			BatchSize:    100,
			BatchTimeout: 100 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
			Compression:  kafka.Snappy,
			MaxAttempts:  5,
			WriteTimeout: 2 * time.Second,
		}
	}
	return nil
}

func splitBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func (r *repositoryImpl) GetDB() *gorm.DB {
	return r.db
}

func (r *repositoryImpl) GetRDB() *redis.Client {
	return r.rdb
}

func (r *repositoryImpl) GetMQ() MQClient {
	return r.mq
}

func (r *repositoryImpl) GetDAO() *dao.DAOManager {
	return r.daos
}

func (r *repositoryImpl) Close() error {
	if r.db != nil {
		if sqlDB, err := r.db.DB(); err == nil {
			sqlDB.Close()
		}
	}
	if r.rdb != nil {
		r.rdb.Close()
	}
	if r.mq != nil {
		r.mq.Close()
	}
	return nil
}
