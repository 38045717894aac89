package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Sentinel/internal/aggregate"
	"github.com/Alias1177/Sentinel/internal/config"
	"github.com/Alias1177/Sentinel/internal/database"
	"github.com/Alias1177/Sentinel/internal/engine"
	"github.com/Alias1177/Sentinel/internal/maintenance"
	"github.com/Alias1177/Sentinel/internal/market"
	"github.com/Alias1177/Sentinel/internal/protect"
	sig "github.com/Alias1177/Sentinel/internal/signal"
	"github.com/Alias1177/Sentinel/internal/structure"
	"github.com/Alias1177/Sentinel/internal/transport"
	"github.com/Alias1177/Sentinel/models"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl)
	logger := log.Logger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	logger.Info().Str("addr", cfg.RedisAddr).Msg("Connected to Redis")

	// Persistence is optional: without DB config everything runs in memory.
	var writer *database.Writer
	if cfg.DBHost != "" {
		db, err := database.New(database.ConnectionParams{
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			User:     cfg.DBUser,
			Password: cfg.DBPassword,
			DBName:   cfg.DBName,
			SSLMode:  cfg.DBSSLMode,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize database")
		}
		defer db.Close()
		writer = database.NewWriter(db, 4096, logger)
		logger.Info().Str("host", cfg.DBHost).Msg("Audit persistence enabled")
	} else {
		logger.Info().Msg("No DB_HOST configured, audit persistence disabled")
	}

	registry := market.NewRegistry(cfg.TickBufferSize, cfg.ZoneCap)
	aggregator := aggregate.New(models.Timeframes, cfg.CandleHistory, logger)
	detector := structure.NewDetector(cfg.StructureWindow, cfg.SwingLookback, logger)
	sweepDetector := structure.NewSweepDetector(cfg.SweepBreachPips, cfg.SweepLookback, logger)
	generator := sig.NewGenerator(
		cfg.ConfidenceThreshold,
		cfg.MinFactors,
		time.Duration(cfg.MinSignalGapMin)*time.Minute,
		cfg.DailySignalCap,
		logger,
	)
	publisher := transport.NewPublisher(rdb, cfg.SignalsChannel, logger)
	scorer := protect.NewScorer(registry, logger)

	eng := engine.New(registry, aggregator, detector, sweepDetector, generator, publisher, writer, logger)
	subscriber := transport.NewTickSubscriber(rdb, cfg.TicksChannel, 1024, logger)
	responder := transport.NewQueryResponder(rdb, cfg.RequestsList, cfg.ResponsesList, scorer, logger)
	sweeper := maintenance.NewSweeper(
		registry,
		time.Duration(cfg.MaintenanceIntervalMin)*time.Minute,
		time.Duration(cfg.ZoneStaleHours)*time.Hour,
		time.Duration(cfg.SweepTTLHours)*time.Hour,
		logger,
	)

	var wg sync.WaitGroup
	run := func(name string, fn func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(ctx)
			logger.Info().Str("worker", name).Msg("Worker stopped")
		}()
	}

	run("tick_subscriber", subscriber.Run)
	run("engine", func(c context.Context) { eng.Run(c, subscriber.Ticks()) })
	run("query_responder", responder.Run)
	run("maintenance", sweeper.Run)
	if writer != nil {
		run("db_writer", writer.Run)
	}

	logger.Info().Msg("Sentinel started")
	<-ctx.Done()
	logger.Info().Msg("Shutdown signal received")
	wg.Wait()
	logger.Info().Msg("Sentinel stopped")
}
