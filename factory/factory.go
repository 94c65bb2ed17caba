package factory

import (
	"bookbyblock-backend/config"
	"bookbyblock-backend/logger"
	"context"
	"database/sql"
	"log"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

var db sync.Once
var rd sync.Once

type Factory interface {
	DB(ctx context.Context) *sql.DB
	Redis(ctx context.Context) *goredis.Client
}

type factory struct {
	db    *sql.DB
	redis *goredis.Client
}

func NewFactory() Factory {
	return &factory{}
}

func (f *factory) DB(ctx context.Context) *sql.DB {
	db.Do(func() {
		sqlDB, err := sql.Open("mysql", viper.GetString(config.DBURL))
		if err != nil {
			log.Fatal("Error creating connection pool: ", err.Error())
		}

		f.db = sqlDB
	})

	return f.db
}

func (f *factory) Redis(ctx context.Context) *goredis.Client {
	rd.Do(func() {
		client := goredis.NewClient(&goredis.Options{
			Addr:     viper.GetString(config.RedisAddress),
			Password: viper.GetString(config.RedisPassword),
			DB:       viper.GetInt(config.RedisDB),
		})

		if err := client.Ping(ctx).Err(); err != nil {
			logger.Fatalf(ctx, "redis: could not establish connection: %+v", err)
		}

		f.redis = client
	})

	return f.redis
}
