package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/yukikurage/household-api/internal/auth"
	"github.com/yukikurage/household-api/internal/config"
	"github.com/yukikurage/household-api/internal/database"
	"github.com/yukikurage/household-api/internal/handlers"
	"github.com/yukikurage/household-api/internal/jobs"
	"github.com/yukikurage/household-api/internal/middleware"
	"github.com/yukikurage/household-api/internal/notifier"
	"github.com/yukikurage/household-api/internal/realtime"
	"github.com/yukikurage/household-api/internal/repository"
	"github.com/yukikurage/household-api/internal/services"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	jobTimeout        = 5 * time.Minute
	shutdownTimeout   = 10 * time.Second
	limiterSweep      = time.Minute
	readHeaderTimeout = 10 * time.Second
)

var storageModule = fx.Options(
	fx.Provide(
		provideDB,
		repository.NewStore,
		provideTokenManager,
	),
)

var realtimeModule = fx.Options(
	fx.Provide(
		realtime.NewHub,
		provideBroadcaster,
		provideRealtimeHandler,
	),
)

var notifierModule = fx.Options(
	fx.Provide(
		providePostmark,
		providePush,
	),
)

var serviceModule = fx.Options(
	fx.Provide(
		services.NewMembershipGuard,
		services.NewAuthService,
		provideHouseholdService,
		services.NewChoreService,
		services.NewSubtaskService,
		services.NewEventService,
		services.NewExpenseService,
		services.NewTransactionService,
		services.NewThreadService,
		services.NewMessageService,
		services.NewPollService,
		services.NewNotificationService,
		provideSuggestionService,
	),
)

var httpModule = fx.Options(
	fx.Provide(
		handlers.NewHealthHandler,
		provideAuthHandler,
		handlers.NewHouseholdHandler,
		handlers.NewChoreHandler,
		handlers.NewEventHandler,
		handlers.NewExpenseHandler,
		handlers.NewThreadHandler,
		provideNotificationHandler,
		provideAuthLimiter,
		provideRouter,
	),
	fx.Invoke(startServer),
)

var jobsModule = fx.Options(
	fx.Invoke(startJobs),
)

func provideDB(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	db, err := database.Connect(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := database.MigrateDatabase(db, logger); err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})
	return db, nil
}

func provideTokenManager(cfg *config.Config) *auth.TokenManager {
	return auth.NewTokenManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
}

// provideBroadcaster fans events out through redis when configured so every
// instance's hub sees them. Otherwise the local hub delivers directly.
func provideBroadcaster(lc fx.Lifecycle, cfg *config.Config, hub *realtime.Hub, logger *zap.Logger) realtime.Broadcaster {
	if cfg.RealtimeBackend != "redis" {
		return hub
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.RedisPassword,
	})
	broadcaster := realtime.NewRedisBroadcaster(client, hub, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				if err := broadcaster.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("realtime relay stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			return client.Close()
		},
	})
	return broadcaster
}

func provideRealtimeHandler(cfg *config.Config, hub *realtime.Hub, tokens *auth.TokenManager, guard *services.MembershipGuard, logger *zap.Logger) *realtime.Handler {
	// websocket origin patterns match hosts, not full origins
	var hosts []string
	for _, origin := range corsOrigins(cfg) {
		hosts = append(hosts, strings.TrimPrefix(strings.TrimPrefix(origin, "https://"), "http://"))
	}
	return realtime.NewHandler(hub, tokens, guard, logger, hosts)
}

func providePostmark(cfg *config.Config, logger *zap.Logger) *notifier.PostmarkSender {
	return notifier.NewPostmarkSender(cfg.PostmarkToken, cfg.PostmarkFrom, cfg.PostmarkBaseURL, logger)
}

func providePush(cfg *config.Config, store *repository.Store, logger *zap.Logger) *notifier.PushSender {
	return notifier.NewPushSender(store.Notifications, cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.VAPIDSubject, logger)
}

func provideHouseholdService(store *repository.Store, guard *services.MembershipGuard, broadcaster realtime.Broadcaster, mailer *notifier.PostmarkSender, logger *zap.Logger) *services.HouseholdService {
	return services.NewHouseholdService(store, guard, broadcaster, mailer, logger)
}

func provideSuggestionService(cfg *config.Config, guard *services.MembershipGuard, logger *zap.Logger) *services.SuggestionService {
	return services.NewSuggestionService(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, guard, logger)
}

func provideAuthHandler(cfg *config.Config, authService *services.AuthService) *handlers.AuthHandler {
	return handlers.NewAuthHandler(authService, cfg.IsProduction())
}

func provideNotificationHandler(cfg *config.Config, notifications *services.NotificationService) *handlers.NotificationHandler {
	return handlers.NewNotificationHandler(notifications, cfg.VAPIDPublicKey)
}

func provideAuthLimiter(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) *middleware.RateLimiter {
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, logger)
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go limiter.RunCleanup(ctx, limiterSweep)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
	return limiter
}

type routerParams struct {
	fx.In

	Config        *config.Config
	Logger        *zap.Logger
	Tokens        *auth.TokenManager
	AuthLimiter   *middleware.RateLimiter
	Health        *handlers.HealthHandler
	Auth          *handlers.AuthHandler
	Households    *handlers.HouseholdHandler
	Chores        *handlers.ChoreHandler
	Events        *handlers.EventHandler
	Expenses      *handlers.ExpenseHandler
	Threads       *handlers.ThreadHandler
	Notifications *handlers.NotificationHandler
}

func provideRouter(p routerParams) *gin.Engine {
	gin.SetMode(p.Config.GinMode)
	return handlers.NewRouter(handlers.RouterDeps{
		Logger:        p.Logger,
		Tokens:        p.Tokens,
		AuthLimiter:   p.AuthLimiter,
		CORSOrigins:   corsOrigins(p.Config),
		Health:        p.Health,
		Auth:          p.Auth,
		Households:    p.Households,
		Chores:        p.Chores,
		Events:        p.Events,
		Expenses:      p.Expenses,
		Threads:       p.Threads,
		Notifications: p.Notifications,
	})
}

func startServer(lc fx.Lifecycle, cfg *config.Config, engine *gin.Engine, ws *realtime.Handler, logger *zap.Logger) {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.Mount(engine, ws),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				logger.Info("http server starting", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("http server stopping")
			ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	})
}

type jobParams struct {
	fx.In

	Lifecycle     fx.Lifecycle
	Config        *config.Config
	Logger        *zap.Logger
	Store         *repository.Store
	Broadcaster   realtime.Broadcaster
	Notifications *services.NotificationService
	Mailer        *notifier.PostmarkSender
	Push          *notifier.PushSender
}

func startJobs(p jobParams) error {
	if !p.Config.JobsEnabled {
		p.Logger.Info("background jobs disabled")
		return nil
	}

	scheduler := jobs.NewScheduler(p.Logger, jobTimeout)
	schedule := []struct {
		spec string
		job  jobs.Job
	}{
		{p.Config.CronNotifications, jobs.NewNotificationDispatch(p.Store.Notifications, p.Notifications, p.Mailer, p.Push, p.Logger)},
		{p.Config.CronChoreRotation, jobs.NewChoreRotation(p.Store, p.Broadcaster, p.Logger)},
		{p.Config.CronReminders, jobs.NewDueReminders(p.Store, p.Notifications, p.Logger)},
	}
	for _, s := range schedule {
		if err := scheduler.Register(s.spec, s.job); err != nil {
			return err
		}
	}

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			scheduler.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return scheduler.Stop(ctx)
		},
	})
	return nil
}

func corsOrigins(cfg *config.Config) []string {
	var origins []string
	for _, origin := range strings.Split(cfg.CORSOrigin, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
