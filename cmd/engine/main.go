package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joripage/lightengine/config"
	redis_wrapper "github.com/joripage/lightengine/pkg/infra/redis"
	kafkawrapper "github.com/joripage/lightengine/pkg/kafka_wrapper"
	"github.com/joripage/lightengine/pkg/logging"
	"github.com/joripage/lightengine/pkg/metrics"
	"github.com/joripage/lightengine/pkg/oms"
	fixgateway "github.com/joripage/lightengine/pkg/oms/fix"
	"github.com/joripage/lightengine/pkg/oms/publisher"
	"github.com/joripage/lightengine/pkg/orderbook"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
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
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	if cfg.Fix == nil {
		panic("fix gateway is not configured")
	}

	logger := logging.NewLogger(logging.ParseLevel(cfg.LogLevel)).With(zap.String("service", cfg.ServiceName))
	defer logger.ReplaceGlobals()()
	defer logger.Sync() // nolint

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// OS signals
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	manager := orderbook.NewOrderBookManager(&orderbook.OrderBookManagerConfig{
		SharedIDs: cfg.SharedOrderIDs,
		Logger:    logger.Zap(),
	})
	for _, inst := range cfg.Instruments {
		tick, _ := inst.Tick()
		if err := manager.AddInstrument(inst.Symbol, tick); err != nil {
			logger.Fatal(ctx, "add instrument", zap.String("symbol", inst.Symbol), zap.Error(err))
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := []oms.Option{
		oms.WithLogger(logger),
		oms.WithMetrics(metrics.New(registry)),
		oms.WithCleanInterval(cfg.CleanInterval()),
	}

	if cfg.Kafka != nil && len(cfg.Kafka.Brokers) > 0 {
		producer := kafkawrapper.NewProducer(kafkawrapper.ProducerConfig{Brokers: cfg.Kafka.Brokers})
		defer producer.Close(context.Background()) // nolint
		opts = append(opts, oms.WithReportPublisher(publisher.NewKafkaReportPublisher(producer, cfg.Kafka.ReportTopic)))
		logger.Info(ctx, "publishing reports to kafka", zap.String("topic", cfg.Kafka.ReportTopic))
	}

	if cfg.Redis != nil && cfg.Redis.ConnectionURL != "" {
		redisClient, err := redis_wrapper.InitRedis(ctx, cfg.Redis)
		if err != nil {
			logger.Fatal(ctx, "init redis", zap.Error(err))
		}
		defer redisClient.Close() // nolint
		opts = append(opts, oms.WithDepthPublisher(publisher.NewRedisDepthPublisher(redisClient, cfg.Redis.DepthTTL()), cfg.DepthLevels))
		logger.Info(ctx, "publishing depth to redis")
	}

	fixGateway := fixgateway.NewFixGateway(cfg.Fix, logger)
	omsInstance := oms.NewOMS(fixGateway, manager, opts...)
	fixGateway.AddOmsInstance(omsInstance)

	var srv *http.Server
	if cfg.MetricsAddr != "" {
		http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		srv = &http.Server{Addr: cfg.MetricsAddr, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error(ctx, "metrics server stopped", zap.Error(err))
			}
		}()
	}

	if err := omsInstance.Start(ctx); err != nil {
		logger.Fatal(ctx, "start oms", zap.Error(err))
	}
	logger.Info(ctx, "engine started", zap.Strings("instruments", manager.Instruments()))

	// wait for a signal
	<-sigs
	logger.Info(ctx, "shutting down")

	fixGateway.Stop()
	omsInstance.Stop()
	if srv != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = srv.Shutdown(shutdownCtx)
	}
	cancel()

	logger.Info(ctx, "exited cleanly")
}
