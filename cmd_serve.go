package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"bert-gateway/config"
	"bert-gateway/handlers"
	"bert-gateway/services"
)

func newServeCmd(load loadFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logrus.NewEntry(logger))
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *logrus.Entry) error {
	if cfg.XRay.Enabled {
		if err := xray.Configure(xray.Config{
			DaemonAddr:     cfg.XRay.DaemonAddr,
			ServiceVersion: version,
		}); err != nil {
			return fmt.Errorf("failed to configure X-Ray: %w", err)
		}
		logger.WithField("daemon", cfg.XRay.DaemonAddr).Info("X-Ray tracing enabled")
	}

	registry, closers, err := buildRegistry(cfg, logger)
	defer func() { closeAll(closers, logger) }()
	if err != nil {
		return err
	}
	logger.WithField("languages", registry.Names()).Info("Runtimes registered")

	sessions, err := newSessionStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if c, ok := sessions.(io.Closer); ok {
		closers = append(closers, c)
	}

	// Execution history is optional
	var history *services.DBService
	if cfg.Database.Host != "" {
		db := cfg.Database
		history, err = services.NewDBService(db.Host, db.Port, db.User, db.Password, db.Name)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		closers = append(closers, history)
		if err := history.InitSchema(ctx); err != nil {
			return fmt.Errorf("failed to initialize database schema: %w", err)
		}
		logger.WithFields(logrus.Fields{"host": db.Host, "database": db.Name}).Info("Database schema initialized")
	}

	storage, err := services.NewStorageService(cfg.Storage.Type, cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize storage service: %w", err)
	}

	execOpts := services.ExecutionServiceOptions{
		DefaultTimeout:     cfg.Worker.DefaultTimeout.Duration,
		MaxTimeout:         cfg.Worker.MaxTimeout.Duration,
		DefaultMemoryLimit: cfg.Worker.DefaultMemoryLimit,
		Storage:            storage,
		Logger:             logger,
	}
	jobOpts := services.JobQueueOptions{
		Concurrency:        cfg.Jobs.Concurrency,
		QueueSize:          cfg.Jobs.QueueSize,
		StartDelay:         cfg.Jobs.StartDelay.Duration,
		StepTimeout:        cfg.Jobs.StepTimeout.Duration,
		DefaultMemoryLimit: cfg.Worker.DefaultMemoryLimit,
		TempDir:            cfg.Worker.TempDir,
		Logger:             logger,
	}
	svc := handlers.Services{}
	if storage != nil {
		svc.Scripts = storage
		logger.WithFields(logrus.Fields{"type": cfg.Storage.Type, "path": cfg.Storage.Path}).Info("Script archive enabled")
	}
	if history != nil {
		execOpts.Recorder = history
		jobOpts.Recorder = history
		svc.History = history
	}

	jobStore := services.NewJobStore(nil)
	svc.Executions = services.NewExecutionService(registry, execOpts)
	svc.Jobs = services.NewJobQueue(registry, sessions, jobStore, jobOpts)
	svc.Sessions = sessions

	svc.Jobs.Start()
	defer svc.Jobs.Stop()

	sweeper := services.NewSweeper(sessions, jobStore, cfg.Session.SweepInterval.Duration, cfg.Session.MaxAge.Duration, logger)
	sweeper.Start()
	defer sweeper.Stop()

	app := handlers.NewApp(handlers.AppOptions{
		Name:            "BERT Gateway",
		Version:         version,
		ProxyHeader:     cfg.Server.ProxyHeader,
		BodyLimit:       cfg.Server.BodyLimit,
		RateLimitMax:    cfg.RateLimit.Max,
		RateLimitWindow: cfg.RateLimit.Window.Duration,
		XRayEnabled:     cfg.XRay.Enabled,
		XRayServiceName: cfg.XRay.ServiceName,
		Logger:          logger,
	}, svc)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithField("port", cfg.Server.Port).Info("BERT Gateway starting")
		return app.Listen(":" + cfg.Server.Port)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")
		return app.ShutdownWithTimeout(cfg.Server.ShutdownTimeout.Duration)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func newSessionStore(ctx context.Context, cfg *config.Config, logger *logrus.Entry) (services.SessionStore, error) {
	if cfg.Session.Backend != "redis" {
		return services.NewMemorySessionStore(nil), nil
	}

	r := cfg.Redis
	store := services.NewRedisSessionStore(r.Host, r.Port, r.Password, r.DB, cfg.Session.MaxAge.Duration)
	if err := store.Ping(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s:%d: %w", r.Host, r.Port, err)
	}
	logger.WithField("addr", fmt.Sprintf("%s:%d", r.Host, r.Port)).Info("Sessions stored in Redis")
	return store, nil
}
