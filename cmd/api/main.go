package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httptransport "github.com/deskline/helpdesk/internal/api/http"
	"github.com/deskline/helpdesk/internal/api/http/handlers"
	"github.com/deskline/helpdesk/internal/auth"
	"github.com/deskline/helpdesk/internal/config"
	"github.com/deskline/helpdesk/internal/events"
	"github.com/deskline/helpdesk/internal/observability"
	"github.com/deskline/helpdesk/internal/persistence"
	"github.com/deskline/helpdesk/internal/repository"
	"github.com/deskline/helpdesk/internal/repository/memory"
	"github.com/deskline/helpdesk/internal/service"
	"github.com/deskline/helpdesk/internal/worker"
)

type stores struct {
	tickets    repository.TicketRepository
	comments   repository.CommentRepository
	categories repository.CategoryRepository
	users      repository.UserRepository
}

type sessionStore interface {
	auth.RoleCache
	auth.RevocationStore
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Env)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()
	dependencies := map[string]handlers.Pinger{}

	var repos stores
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()

		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		pool := pg.PoolHandle()
		repos = stores{
			tickets:    repository.NewTicketRepository(pool),
			comments:   repository.NewCommentRepository(pool),
			categories: repository.NewCategoryRepository(pool),
			users:      repository.NewUserRepository(pool),
		}
		dependencies["postgres"] = pg
	default:
		logger.Warn("using in-memory store; data is lost on restart")
		mem := memory.NewStore()
		repos = stores{
			tickets:    mem.Tickets(),
			comments:   mem.Comments(),
			categories: mem.Categories(),
			users:      mem.Users(),
		}
	}

	var sessions sessionStore
	switch cfg.Session.Store {
	case config.SessionStoreRedis:
		redis, err := persistence.NewRedis(ctx, cfg.Redis, logger)
		if err != nil {
			if cfg.Redis.Required {
				logger.Fatal("failed to connect redis", zap.Error(err))
			}
			logger.Warn("starting without redis; authenticated requests report DEPENDENCY_UNAVAILABLE until it recovers", zap.Error(err))
			redis = persistence.OpenRedis(cfg.Redis)
		}
		defer redis.Close()
		sessions = auth.NewRedisSessionStore(redis.Client, cfg.Session.KeyPrefix)
		dependencies["redis"] = redis
	default:
		sessions = auth.NewMemorySessionStore()
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.AccessTokenTTLMinutes)
	claims := auth.NewSessionClaimsSource(tokens, sessions)
	resolver := auth.NewResolver(claims, sessions, cfg.Session.RoleCacheTTL(), logger)

	dispatcher := events.NewInMemoryDispatcher(logger)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	var forwarder *worker.EventForwarder
	if cfg.Broker.URL != "" {
		publisher := events.NewAMQPPublisher(cfg.Broker.URL, cfg.Broker.Queue, logger)
		forwarder = worker.NewEventForwarder(publisher, 0, logger)
		forwarder.Start(ctx)
		defer forwarder.Stop()
	}
	worker.StartNotificationWorker(dispatcher, notificationService, forwarder)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:   repos.tickets,
		CategoryRepo: repos.categories,
		Dispatcher:   dispatcher,
		Metrics:      metrics,
		Logger:       logger,
	})
	commentService := service.NewCommentService(service.CommentDependencies{
		TicketRepo:  repos.tickets,
		CommentRepo: repos.comments,
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Logger:      logger,
	})
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		TicketRepo: repos.tickets,
		UserRepo:   repos.users,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	categoryService := service.NewCategoryService(service.CategoryDependencies{
		CategoryRepo: repos.categories,
		Dispatcher:   dispatcher,
		Metrics:      metrics,
		Logger:       logger,
	})
	dashboardService := service.NewDashboardService(service.DashboardDependencies{
		TicketRepo:   repos.tickets,
		UserRepo:     repos.users,
		CategoryRepo: repos.categories,
		RecentWindow: cfg.Dashboard.RecentWindow,
		Metrics:      metrics,
		Logger:       logger,
	})
	userService := service.NewUserService(service.UserDependencies{
		UserRepo:   repos.users,
		Sessions:   claims,
		BcryptCost: cfg.Auth.BcryptCost,
		Metrics:    metrics,
		Logger:     logger,
	})
	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo:     repos.users,
		TokenManager: tokens,
		Revoker:      claims,
		Invalidator:  resolver,
		BcryptCost:   cfg.Auth.BcryptCost,
		Logger:       logger,
	})

	if cfg.Bootstrap.Enabled() {
		if _, err := userService.EnsureAdministrator(ctx, cfg.Bootstrap.AdminUsername, cfg.Bootstrap.AdminPassword); err != nil {
			logger.Fatal("failed to bootstrap administrator", zap.Error(err))
		}
	}

	app := httptransport.NewApp(cfg.App.Name, logger, cfg.App.RequestTimeout(), httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, dependencies),
		Users:          handlers.NewUsersHandler(authService),
		AdminUsers:     handlers.NewAdminUsersHandler(userService),
		Tickets:        handlers.NewTicketsHandler(ticketService, commentService),
		Assignments:    handlers.NewAssignmentHandler(assignmentService),
		Categories:     handlers.NewCategoriesHandler(categoryService),
		Dashboard:      handlers.NewDashboardHandler(dashboardService),
		AuthMiddleware: auth.NewAuthMiddleware(resolver),
		Metrics:        metrics,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("store", cfg.Store.Driver))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
