package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/claimsuite/claimflow/internal/application/dispatcher"
	"github.com/claimsuite/claimflow/internal/application/engine"
	"github.com/claimsuite/claimflow/internal/config"
	"github.com/claimsuite/claimflow/internal/domain/event"
	"github.com/claimsuite/claimflow/internal/infrastructure/authority"
	"github.com/claimsuite/claimflow/internal/infrastructure/persistence/repository"
	"github.com/claimsuite/claimflow/internal/infrastructure/persistence/sqlite"
	httpserver "github.com/claimsuite/claimflow/internal/interfaces/http"
	"github.com/claimsuite/claimflow/internal/scheduler"
	"github.com/claimsuite/claimflow/pkg/database"
	"github.com/claimsuite/claimflow/pkg/utils"
)

func main() {
	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting claim workflow engine",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	// Initialize database
	if dir := filepath.Dir(cfg.Database.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Fatal("Failed to create database directory", zap.Error(err))
		}
	}
	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Initialize repositories and transaction manager
	claimRepo := repository.NewClaimRepository(db.DB, logger)
	auditRepo := repository.NewAuditRepository(db.DB, logger)
	txManager := sqlite.NewDB(db.DB, logger)
	authChecker := authority.NewStaticChecker(cfg.Authority.Coordinators, cfg.Authority.Managers)

	// Verification thresholds
	thresholds, err := cfg.VerificationThresholds()
	if err != nil {
		logger.Fatal("Invalid verification thresholds", zap.Error(err))
	}

	kvLogger := utils.NewKVLogger(logger)

	// Event dispatcher: transition events are logged; deployments hang
	// notification handlers here
	disp := dispatcher.NewDispatcher(dispatcher.WithLogger(kvLogger))
	defer disp.Close()
	disp.SubscribeNamed(event.TypeClaimAutoRejected, "log-auto-reject", func(ctx context.Context, evt *event.Event) error {
		logger.Info("Claim auto-rejected",
			zap.Int64("claim_id", evt.ClaimID),
			zap.String("reason", evt.GetPayloadString("reason")))
		return nil
	})

	// Initialize workflow engine
	workflowEngine := engine.New(
		claimRepo,
		auditRepo,
		authChecker,
		txManager,
		kvLogger,
		engine.WithDispatcher(disp),
		engine.WithThresholds(thresholds),
	)

	// Automated pass scheduler
	var sched *scheduler.Scheduler
	if cfg.Batch.Enabled {
		sched = scheduler.New(workflowEngine, cfg.Batch.Schedule, logger)
		if err := sched.Start(); err != nil {
			logger.Fatal("Failed to start scheduler", zap.Error(err))
		}
	}

	// HTTP server
	server := httpserver.NewServer(httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, workflowEngine, auditRepo, kvLogger)

	// Serve until interrupted
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Error("HTTP server terminated", zap.Error(err))
	}

	if sched != nil {
		sched.Stop()
	}

	logger.Info("Server exited successfully")
}
