package repository

import (
	"meme-radar/internal/tracker/dao"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"gorm.io/gorm"
)

type RedisClient = *redis.Client
type DBClient = *gorm.DB
type MQClient = *kafka.Writer

// Repository 外部存储资源。未配置的资源返回 nil
type Repository interface {
	GetDB() DBClient
	GetRDB() RedisClient
	GetMQ() MQClient
	GetDAO() *dao.DAOManager
	Close() error
}
