// Command notifier consumes domain events from RabbitMQ and appends them
// to the activity log.
package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/asset-management/internal/config"
	"github.com/iliyamo/asset-management/internal/queue"
	"github.com/iliyamo/asset-management/internal/utils"
)

func main() {
	cfg := config.LoadNotifierConfig()
	log, err := utils.NewLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		logrus.Fatalf("logger: %v", err)
	}
	activity, err := queue.OpenActivityLog(cfg.ActivityLog)
	if err != nil {
		log.WithError(err).Fatal("open activity log")
	}
	defer activity.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.WithField("queue", queue.ActivityQueue).Info("notifier started")
	err = queue.NewConsumer(cfg.AMQPURL, activity.Handle, log).Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Error("consumer stopped")
	}
	log.Info("notifier stopped")
}
