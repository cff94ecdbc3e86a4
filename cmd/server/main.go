package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/asset-management/internal/config"
	"github.com/iliyamo/asset-management/internal/database"
	"github.com/iliyamo/asset-management/internal/handler"
	"github.com/iliyamo/asset-management/internal/router"
	"github.com/iliyamo/asset-management/internal/service"
	"github.com/iliyamo/asset-management/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	log, err := utils.NewLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		logrus.Fatalf("logger: %v", err)
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.WithError(err).Fatal("open database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = database.Migrate(ctx, db, cfg.DBDriver)
	cancel()
	if err != nil {
		log.WithError(err).Fatal("migrate database")
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable, rate limiting and catalog cache disabled")
	} else {
		defer rdb.Close()
	}

	var events handler.EventPublisher = service.NoopPublisher{}
	var async *service.AsyncPublisher
	if cfg.AMQPURL != "" {
		async = service.NewAsyncPublisher(service.NewAMQPPublisher(cfg.AMQPURL), 256, 5*time.Second, log)
		events = async
	} else {
		log.Info("AMQP_URL not set, domain events disabled")
	}

	e := router.New(router.Deps{
		Cfg:       cfg,
		DB:        db,
		Log:       log,
		Redis:     rdb,
		RateLimit: config.LoadRateLimitConfig(),
		Cache:     config.LoadCacheConfig(),
		Events:    events,
	})

	addr := ":" + cfg.Port
	go func() {
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env, "driver": cfg.DBDriver}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
	if async != nil {
		if err := async.Close(ctx); err != nil {
			log.WithError(err).Warn("pending events dropped")
		}
	}
}
