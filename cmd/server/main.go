package main

import (
	"log"
	"time"

	"kantinku-be/internal/config"
	"kantinku-be/internal/counts"
	"kantinku-be/internal/db"
	"kantinku-be/internal/logger"
	"kantinku-be/internal/metrics"
	"kantinku-be/internal/notify"
	"kantinku-be/internal/order"
	"kantinku-be/internal/realtime"
	"kantinku-be/internal/transport"
	"kantinku-be/internal/user"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database, err := db.NewDatabase(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer database.Close()

	registry := prometheus.NewRegistry()
	orderMetrics := metrics.NewOrderMetrics(registry)

	orderRepo := order.NewRepository(database)

	var snapStore counts.Store = counts.NewMemoryStore()
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("invalid REDIS_URL: %v", err)
		}
		snapStore = counts.NewRedisStore(redis.NewClient(opts))
	}
	countsSvc := counts.NewService(orderRepo, snapStore, time.Duration(cfg.CountsTTLSec)*time.Second)

	hub := realtime.NewHub()
	bridge := realtime.NewKafkaBridge(cfg.KafkaBrokers)
	defer bridge.Close()

	var notices order.NoticeDispatcher = notify.LogDispatcher{}
	if dispatcher := notify.NewKafkaDispatcher(cfg.KafkaBrokers); dispatcher != nil {
		defer dispatcher.Close()
		notices = dispatcher
	}

	orderSvc := order.NewService(
		orderRepo,
		countsSvc,
		realtime.Fanout{hub, bridge},
		notices,
		orderMetrics,
	)

	userRepo := user.NewRepository(database)
	userSvc := user.NewService(userRepo)

	handler := transport.NewHandler(orderSvc, countsSvc, hub, userSvc)
	router := transport.NewRouter(handler, registry)

	logger.L().Sugar().Infof("server listening on :%s", cfg.AppPort)
	log.Fatal(router.Run(":" + cfg.AppPort))
}
