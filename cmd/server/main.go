package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/planwise/backend/api/handler"
	"github.com/planwise/backend/internal/config"
	"github.com/planwise/backend/internal/infrastructure/buffer"
	"github.com/planwise/backend/internal/infrastructure/monitor"
	pgInfra "github.com/planwise/backend/internal/infrastructure/postgres"
	redisInfra "github.com/planwise/backend/internal/infrastructure/redis"
	"github.com/planwise/backend/internal/middleware"
	"github.com/planwise/backend/internal/router"
	"github.com/planwise/backend/internal/services"
	"github.com/planwise/backend/internal/services/lifecycle"
	"github.com/planwise/backend/pkg/httpcontext"
	"github.com/planwise/backend/pkg/logger"
	"github.com/planwise/backend/repository/postgres"
	redisRepo "github.com/planwise/backend/repository/redis"
	"github.com/planwise/backend/usecase"
	accountUC "github.com/planwise/backend/usecase/account"
	"github.com/planwise/backend/usecase/ops"
	planUC "github.com/planwise/backend/usecase/plan"
	scheduleUC "github.com/planwise/backend/usecase/schedule"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	redisClient, err := redisInfra.NewClient(appCtx, cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	bufferStore, err := buffer.Open(cfg.Buffer.Path, "snapshots")
	if err != nil {
		zapLogger.Fatal("failed to open buffer store", zap.Error(err))
	}
	manager.Register("buffer", func(ctx context.Context) error {
		return bufferStore.Close()
	})

	mon := monitor.New(pool, redisClient, bufferStore, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	planRepo := postgres.NewPlanRepository(pool)
	scheduleRepo := postgres.NewScheduleRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	planCache := redisRepo.NewPlanCache(redisClient, cfg.Redis.PlanCacheTTL)

	flusher := services.NewSnapshotFlusher(
		bufferStore,
		mon,
		planRepo,
		scheduleRepo,
		zapLogger,
		services.FlusherConfig{
			Interval:   cfg.Buffer.FlushInterval,
			BatchSize:  cfg.Buffer.BatchSize,
			MaxRetries: cfg.Buffer.MaxRetry,
		},
	)
	flusher.Start()
	manager.Register("snapshot_flusher", func(ctx context.Context) error {
		flusher.Stop(ctx)
		return nil
	})

	coordinator := usecase.NewCoordinator(planRepo, scheduleRepo, userRepo, planCache, bufferStore, zapLogger)

	planUseCase := planUC.New(coordinator, zapLogger)
	scheduleUseCase := scheduleUC.New(coordinator, zapLogger)
	accountUseCase := accountUC.New(coordinator, zapLogger)

	dispatcher := usecase.NewDispatcher()
	ops.Register(dispatcher, planUseCase, scheduleUseCase, accountUseCase)

	if cfg.Scheduler.Enabled {
		scheduler := services.NewScheduler(coordinator, userRepo, zapLogger,
			services.SchedulerConfig{Interval: cfg.Scheduler.Interval})
		scheduler.Start()
		manager.Register("scheduler", func(ctx context.Context) error {
			scheduler.Stop(ctx)
			return nil
		})
	}

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)
	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, cfg.JWT.Issuer, zapLogger)

	handlers := router.Handlers{
		Ops:    apiHandler.NewOpsHandler(dispatcher, authMiddleware, ctxAdapter, zapLogger),
		Health: apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	r := router.New(handlers)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
