package database

import (
	"context"
	"fmt"
	"log"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/viper"
)

// RedisConfig holds event-relay and payment-request cache
// configuration.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// GetRedisConfig returns Redis configuration with defaults.
func GetRedisConfig() *RedisConfig {
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", "6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	return &RedisConfig{
		Host:     viper.GetString("redis.host"),
		Port:     viper.GetString("redis.port"),
		Password: viper.GetString("redis.password"),
		DB:       viper.GetInt("redis.db"),
	}
}

// InitRedisClient opens and verifies the Redis connection used for
// the Transfer event relay and payment-request caching.
func InitRedisClient() (*redis.Client, error) {
	config := GetRedisConfig()

	rdb := redis.NewClient(&redis.Options{
		Addr:     config.Host + ":" + config.Port,
		Password: config.Password,
		DB:       config.DB,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("error connecting to redis: %w", err)
	}

	log.Println("Redis connection established")
	return rdb, nil
}

// InitRedis opens the Redis connection, degrading to nil when it is
// unreachable; the relay and QR cache both tolerate running without it.
func InitRedis() *redis.Client {
	rdb, err := InitRedisClient()
	if err != nil {
		log.Printf("Redis unavailable, continuing without event relay and payment requests: %v", err)
		return nil
	}
	return rdb
}
