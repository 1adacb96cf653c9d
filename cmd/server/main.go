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

	"github.com/gin-gonic/gin"

	"github.com/Foresight-builder/Foresight-backend/internal/config"
	"github.com/Foresight-builder/Foresight-backend/internal/consumer"
	"github.com/Foresight-builder/Foresight-backend/internal/handler"
	"github.com/Foresight-builder/Foresight-backend/internal/reconciler"
	"github.com/Foresight-builder/Foresight-backend/internal/repository"
	"github.com/Foresight-builder/Foresight-backend/internal/service"
	"github.com/Foresight-builder/Foresight-backend/internal/store"
	"github.com/Foresight-builder/Foresight-backend/pkg/database"
	pkglog "github.com/Foresight-builder/Foresight-backend/pkg/log"
)

const serviceName = "follow-service"

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	// 2. Initialize structured logger
	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Level == "debug",
		ServiceName: serviceName,
	})
	logger := pkglog.L()

	// 3. Connect to the authoritative store. The schema is owned by
	// cmd/migrate; the server never alters it.
	db, err := database.New(cfg.Database.Connection())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to get underlying sql.DB")
	}
	defer sqlDB.Close()

	// 4. Fallback store. Required only when degradation is enabled.
	var fallback store.FallbackStore
	redisStore, err := store.NewRedisFallbackStore(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	switch {
	case err == nil:
		fallback = redisStore
		defer redisStore.Close()
		logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	case cfg.Follow.FallbackEnabled:
		logger.Fatal().Err(err).Msg("local follow fallback enabled but redis is unreachable")
	default:
		logger.Warn().Err(err).Msg("redis unavailable; fallback store, CDC mirror and reconciler disabled")
	}

	// 5. Repositories and services
	followRepo := repository.NewGormFollowRepository(db)
	eventRepo := repository.NewGormEventRepository(db)

	policy := service.FallbackPolicy{Enabled: cfg.Follow.FallbackEnabled, Local: fallback}
	var recorder service.AccessRecorder
	if fallback != nil {
		recorder = fallback
	}

	countSvc := service.NewFollowCountService(followRepo, policy, recorder)
	detailSvc := service.NewFollowDetailService(followRepo, eventRepo)
	followSvc := service.NewFollowService(followRepo, policy)
	catalogSvc := service.NewCatalogService(eventRepo)

	logger.Info().Bool("fallback_enabled", policy.Enabled).Msg("follow count policy configured")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 6. Kafka CDC consumer keeps the fallback sets current
	var kafkaConsumer *consumer.ConfluentConsumer
	switch {
	case fallback == nil:
		logger.Info().Msg("no fallback store; CDC consumer disabled")
	case cfg.Kafka.Brokers == "":
		logger.Warn().Msg("KAFKA_BROKERS not configured; CDC consumer disabled")
	default:
		kc, err := consumer.NewConfluentConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID, followSvc)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to create kafka consumer, CDC updates disabled")
			break
		}
		if err := kc.Start(ctx); err != nil {
			logger.Warn().Err(err).Msg("failed to start kafka consumer")
			break
		}
		kafkaConsumer = kc
		logger.Info().Str("topic", cfg.Kafka.Topic).Msg("kafka CDC consumer started")
	}

	// 7. Reconciler rebuilds the hottest fallback sets
	var rec *reconciler.Reconciler
	if fallback != nil {
		rec = reconciler.New(fallback, followRepo, cfg.Reconciler)
		rec.Start(ctx)
		logger.Info().Dur("interval", cfg.Reconciler.Interval).Int("top_n", cfg.Reconciler.TopN).Msg("reconciler started")
	}

	// 8. Setup Gin router + HTTP server
	httpHandler := handler.NewHandler(countSvc, detailSvc, followSvc, catalogSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	httpHandler.RegisterRoutes(r)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logger.Info().Str("addr", addr).Msg(serviceName + " starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// 9. Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutdown signal received")

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)

		// Stop the consumer loop and the reconciler ticker first, then drain HTTP.
		cancel()

		if kafkaConsumer != nil {
			if err := kafkaConsumer.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing kafka consumer")
			}
		}

		if rec != nil {
			rec.Stop()
			<-rec.Done()
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("HTTP server forced to shutdown")
		}
	}()

	select {
	case <-shutdownDone:
		logger.Info().Msg(serviceName + " stopped")
	case <-time.After(30 * time.Second):
		logger.Warn().Msg("shutdown timed out after 30s")
	}
}
