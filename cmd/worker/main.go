package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joripage/lightengine/config"
	postgres_wrapper "github.com/joripage/lightengine/pkg/infra/postgres"
	kafkawrapper "github.com/joripage/lightengine/pkg/kafka_wrapper"
	"github.com/joripage/lightengine/pkg/logging"
	"github.com/joripage/lightengine/pkg/oms/repo"
	"github.com/joripage/lightengine/pkg/oms/worker"
	"go.uber.org/zap"
)

func main() {
	var configFile string
	flag.StringVar(&configFile, "config-file", "", "Specify config file path")
	flag.Parse()

	cfg, err := config.Load(configFile)
	if err != nil {
		panic(err)
	}

	logger := logging.NewLogger(logging.ParseLevel(cfg.LogLevel)).With(zap.String("service", cfg.ServiceName+"-worker"))
	defer logger.ReplaceGlobals()()
	defer logger.Sync() // nolint

	configBytes, err := json.MarshalIndent(cfg, "", "   ")
	if err != nil {
		zap.S().Warnf("could not convert config to JSON: %v", err)
	} else {
		zap.S().Debugf("load config %s", string(configBytes))
	}

	if cfg.Kafka == nil || cfg.OmsDB == nil {
		panic("worker needs kafka and oms_db config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// init db
	db, err := postgres_wrapper.InitPostgresWithBackoff(cfg.OmsDB)
	if err != nil {
		zap.S().Errorf("init db fail with err: %v", err)
		panic(err)
	}

	// init repo
	sqlRepo := repo.NewRepo(db)

	consumer, err := kafkawrapper.NewConsumerGroup(kafkawrapper.ConsumerConfig{
		Brokers:     cfg.Kafka.Brokers,
		GroupID:     cfg.Kafka.GroupID,
		Topic:       cfg.Kafka.ReportTopic,
		WorkerCount: cfg.Kafka.WorkerCount,
		BatchSize:   cfg.Kafka.BatchSize,
		MaxRetries:  cfg.Kafka.MaxRetries,
		DLQTopic:    cfg.Kafka.DLQTopic,
	})
	if err != nil {
		zap.S().Errorf("init consumer error: %v", err)
		panic(err)
	}
	defer consumer.Close() // nolint

	w := worker.NewWorker(sqlRepo, logger)
	logger.Info(ctx, "worker started", zap.String("topic", cfg.Kafka.ReportTopic), zap.String("group", cfg.Kafka.GroupID))
	if err := w.Start(ctx, consumer); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error(ctx, "worker stopped", zap.Error(err))
	}
	logger.Info(context.Background(), "worker exited")
}
