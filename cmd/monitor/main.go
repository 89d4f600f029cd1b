package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jitesh523/Real-Time-FX-Market-Microstructure-Monitor/internal/aggregator"
	"github.com/jitesh523/Real-Time-FX-Market-Microstructure-Monitor/internal/alerts"
	"github.com/jitesh523/Real-Time-FX-Market-Microstructure-Monitor/internal/anomaly"
	"github.com/jitesh523/Real-Time-FX-Market-Microstructure-Monitor/internal/api"
	"github.com/jitesh523/Real-Time-FX-Market-Microstructure-Monitor/internal/config"
	"github.com/jitesh523/Real-Time-FX-Market-Microstructure-Monitor/internal/consumer"
	"github.com/jitesh523/Real-Time-FX-Market-Microstructure-Monitor/internal/instrumentation"
	"github.com/jitesh523/Real-Time-FX-Market-Microstructure-Monitor/internal/models"
	"github.com/jitesh523/Real-Time-FX-Market-Microstructure-Monitor/internal/storage"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := buildLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("monitor_starting",
		zap.Strings("symbols", cfg.Symbols),
		zap.Strings("kafka_brokers", cfg.KafkaBrokers),
		zap.String("kafka_topic", cfg.KafkaTopic),
		zap.String("redis_url", cfg.RedisURL),
		zap.Duration("cache_ttl", cfg.CacheTTL))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := instrumentation.NewMetrics()

	// Prometheus endpoint on its own listener
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		addr := fmt.Sprintf(":%d", cfg.PrometheusPort)
		logger.Info("metrics_server_starting", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("metrics_server_failed", zap.Error(err))
		}
	}()

	publisher, err := aggregator.NewRedisPublisher(cfg.RedisURL, cfg.RedisPassword, cfg.CacheTTL, logger)
	if err != nil {
		logger.Fatal("failed to create redis publisher", zap.Error(err))
	}
	defer publisher.Close()

	redisOpt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal("invalid redis URL", zap.Error(err))
	}
	if cfg.RedisPassword != "" {
		redisOpt.Password = cfg.RedisPassword
	}
	redisClient := redis.NewClient(redisOpt)
	defer redisClient.Close()

	alertManager := alerts.NewManager(alerts.ManagerConfig{
		Cooldown:    cfg.AlertCooldown,
		HistorySize: 1000,
	}, logger, metrics,
		alerts.NewLogSink(logger),
		alerts.NewRedisSink(redisClient, cfg.AlertChannel),
	)

	monitorCfg := buildMonitorConfig(cfg)
	opts := []aggregator.Option{
		aggregator.WithPublisher(publisher),
		aggregator.WithInstrumentation(metrics),
	}
	if cfg.OracleEnabled {
		opts = append(opts, aggregator.WithOracleFactory(func(string) *anomaly.EnsembleScorer {
			ensembleCfg := anomaly.EnsembleConfig{ScoreThreshold: cfg.OracleScoreThreshold}
			return anomaly.NewEnsembleScorer(ensembleCfg,
				anomaly.NewZScoreOracle(cfg.ZScoreWindowSize, cfg.ZScoreThreshold),
				anomaly.NewZScoreOracle(cfg.ZScoreWindowSize, cfg.ZScoreThreshold),
				anomaly.NewZScoreOracle(cfg.ZScoreWindowSize, cfg.ZScoreThreshold))
		}))
	}
	engine := aggregator.New(monitorCfg, logger, opts...)

	inserter := storage.NewRedisStreamInserter(redisClient, "fx:metrics:history", 100000)
	writer, err := storage.NewBatchWriter(storage.BatchWriterConfig{
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.BatchFlush,
	}, inserter, logger)
	if err != nil {
		logger.Fatal("failed to create batch writer", zap.Error(err))
	}
	go func() {
		if err := writer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("batch_writer_stopped", zap.Error(err))
		}
	}()

	eventHandler := func(ctx context.Context, envelope *models.MarketEventEnvelope) error {
		if err := engine.ProcessEvent(ctx, envelope); err != nil {
			return err
		}
		if record, ok := engine.CurrentMetrics(envelope.Symbol); ok {
			if err := writer.Add(ctx, record); err != nil {
				logger.Warn("metrics_buffering_failed",
					zap.String("symbol", envelope.Symbol),
					zap.Error(err))
			}
			emitStressAlerts(ctx, engine, alertManager, envelope.Symbol, record)
		}
		return nil
	}

	cons, err := consumer.New(consumer.Config{
		Brokers:  cfg.KafkaBrokers,
		Topic:    cfg.KafkaTopic,
		GroupID:  cfg.ConsumerGroup,
		MinBytes: cfg.KafkaMinBytes,
		MaxBytes: cfg.KafkaMaxBytes,
	}, eventHandler, logger)
	if err != nil {
		logger.Fatal("failed to create consumer", zap.Error(err))
	}
	defer cons.Close()

	apiServer := api.NewServer(engine, alertManager, logger)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.APIPort),
		Handler: apiServer.Router(),
	}
	go func() {
		logger.Info("api_server_starting", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api_server_failed", zap.Error(err))
		}
	}()

	errChan := make(chan error, 1)
	go func() {
		if err := cons.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errChan <- err
		}
	}()

	logger.Info("monitor_running")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("shutdown_signal_received", zap.String("signal", sig.String()))
	case err := <-errChan:
		logger.Error("consumer_error", zap.Error(err))
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown_failed", zap.Error(err))
	}

	logger.Info("monitor_stopped")
}

func buildLogger(level string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

func buildMonitorConfig(cfg *config.Config) aggregator.MonitorConfig {
	mc := aggregator.DefaultMonitorConfig()
	mc.Spread.WindowSize = cfg.SpreadWindowSize
	mc.Depth.HistorySize = cfg.DepthHistorySize
	mc.Flow.TradeWindow = cfg.FlowWindow
	mc.Flow.VPINBuckets = cfg.VPINBuckets
	mc.Volatility.WindowSize = cfg.VolatilityWindow
	mc.QuoteStuffing.Threshold = float64(cfg.QuoteStuffingRate)
	mc.Spoofing.SizeMultiplier = cfg.SpoofingSizeMult
	mc.WashTrading.PriceTolerance = cfg.WashPriceTolerance
	mc.Ensemble.ScoreThreshold = cfg.OracleScoreThreshold
	mc.ZScoreWindow = cfg.ZScoreWindowSize
	mc.ZScoreThreshold = cfg.ZScoreThreshold
	return mc
}

func emitStressAlerts(ctx context.Context, engine *aggregator.Aggregator, mgr *alerts.Manager, symbol string, record models.MarketMetrics) {
	if record.IsAnomaly {
		mgr.Emit(ctx, symbol, alerts.TypeZScoreAnomaly, alerts.SeverityWarning,
			fmt.Sprintf("statistical anomaly on %s: %s", symbol, record.AnomalyType),
			map[string]any{"anomaly_type": record.AnomalyType, "anomaly_score": record.AnomalyScore})
	}

	if report, ok := engine.StressReport(symbol); ok && report.Any() {
		mgr.Emit(ctx, symbol, alerts.TypeMarketStress, alerts.SeverityWarning,
			fmt.Sprintf("market stress on %s", symbol),
			map[string]any{"stress": report})
	}

	if score, ok := engine.QualityScore(symbol); ok && score < 50 {
		mgr.Emit(ctx, symbol, alerts.TypeQualityDegrade, alerts.SeverityCritical,
			fmt.Sprintf("market quality degraded on %s", symbol),
			map[string]any{"quality_score": score})
	}
}
