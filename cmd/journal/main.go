package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"trading-journal/internal/auth"
	"trading-journal/internal/config"
	"trading-journal/internal/database"
	"trading-journal/internal/imaging"
	"trading-journal/internal/logger"
	"trading-journal/internal/playbook"
	"trading-journal/internal/realtime"
	"trading-journal/internal/repository"
	"trading-journal/internal/tracing"
	"trading-journal/internal/web"
)

func main() {
	configDir := flag.String("config", "./configs", "directory containing config.yml")
	flag.Parse()

	// A missing .env is fine; the environment and config file still apply.
	_ = godotenv.Load()

	// Load application configuration
	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		// We can't use the logger here because it's not initialized yet.
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, level, err := logger.NewLoggerWithLevel(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log.Info("Configuration loaded")

	// Log level is the one setting that is safe to change at runtime.
	config.Watch(*configDir, func(next config.Config, err error) {
		if err != nil {
			log.Warn("Ignoring invalid config change", zap.Error(err))
			return
		}
		if err := logger.SetLevel(level, next.Logger.Level); err != nil {
			log.Warn("Ignoring invalid log level", zap.String("level", next.Logger.Level), zap.Error(err))
			return
		}
		log.Info("Log level updated", zap.String("level", next.Logger.Level))
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	// Initialize database
	db, err := database.NewDatabase(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connection successful and schema migrated.", zap.String("driver", cfg.Database.Driver))

	broker, err := realtime.NewBroker(ctx, cfg.Realtime, log)
	if err != nil {
		log.Fatal("Failed to start change broker", zap.Error(err))
	}

	pb, err := playbook.Load()
	if err != nil {
		log.Fatal("Failed to load playbook", zap.Error(err))
	}

	if cfg.Logger.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	sessions := auth.NewSessionManager(cfg.Auth.SessionTTL)
	go sessions.RunCleanup(ctx, time.Hour)

	server := web.NewServer(cfg.Server, web.Deps{
		Auth:          auth.NewService(db, sessions, cfg.Auth, log),
		Repo:          repository.NewGormRepository(db, broker, log),
		Compressor:    imaging.NewJPEGCompressor(cfg.Imaging, log),
		Playbook:      pb,
		SecureCookies: cfg.Auth.CookieSecure,
	}, log)
	server.Start()

	<-ctx.Done()
	log.Info("Shutdown signal received, gracefully shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("Failed to stop web server", zap.Error(err))
	}
	if err := broker.Close(); err != nil {
		log.Error("Failed to close change broker", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("Failed to flush traces", zap.Error(err))
	}
	log.Info("Journal server has been shut down.")
}
