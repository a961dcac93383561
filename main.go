// Package main provides the main entry point for the P57 feedback hub
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/p57/feedback-hub/app/handlers"
	"github.com/p57/feedback-hub/app/middleware"
	"github.com/p57/feedback-hub/app/router"
	"github.com/p57/feedback-hub/app/services"
	businessflow "github.com/p57/feedback-hub/business_flow"
	"github.com/p57/feedback-hub/config"
	"github.com/p57/feedback-hub/models"
	"github.com/p57/feedback-hub/repository"
	"github.com/redis/go-redis/v9"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Application represents the main application structure
type Application struct {
	router    *router.FiberRouter
	config    *config.ProductionConfig
	server    *fiber.App
	stopFuncs []func()
}

func main() {
	cfg, err := config.LoadProductionConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	closeLog := initializeLogging(cfg.Logging)
	defer closeLog()

	log.Printf("Starting P57 feedback hub %s (%s, commit %s, built %s)...",
		cfg.Deployment.Version, cfg.Deployment.Environment, cfg.Deployment.CommitHash, cfg.Deployment.BuildTime)

	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	app.router.SetupRoutes()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Server starting on %s", address)

		if err := app.server.Listen(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-sigChan
	log.Println("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	// Publishers and connections close after in-flight requests drain
	for _, fn := range app.stopFuncs {
		fn()
	}

	log.Println("Server stopped")
}

// initializeLogging routes the standard logger to stdout, a rotating file, or both
func initializeLogging(cfg config.LoggingConfig) func() {
	log.SetFlags(log.LstdFlags | log.LUTC | log.Lmicroseconds)

	if cfg.Output == "stdout" || cfg.FilePath == "" {
		log.SetOutput(os.Stdout)
		return func() {}
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
		LocalTime:  false,
	}

	var w io.Writer = rotator
	if cfg.Output == "both" {
		w = io.MultiWriter(os.Stdout, rotator)
	}
	log.SetOutput(w)

	return func() {
		if err := rotator.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to close log file: %v\n", err)
		}
	}
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig, logging config.LoggingConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	logLevel := gormlogger.Warn
	switch {
	case logging.Enabled("debug"):
		logLevel = gormlogger.Info
	case !cfg.SlowQueryLog || !logging.Enabled("warn"):
		logLevel = gormlogger.Error
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		// Unique violations surface as gorm.ErrDuplicatedKey for ticket number retries
		TranslateError: true,
		Logger: gormlogger.New(log.Default(), gormlogger.Config{
			SlowThreshold:             cfg.SlowQueryTime,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("Database connection established with %d max open connections, %d max idle connections",
		cfg.MaxOpenConns, cfg.MaxIdleConns)

	if cfg.AutoMigrate {
		if err := db.AutoMigrate(
			&models.User{},
			&models.Category{},
			&models.Subcategory{},
			&models.AssignmentRule{},
			&models.Ticket{},
			&models.TicketHistory{},
			&models.TicketComment{},
			&models.TicketAttachment{},
			&models.Notification{},
		); err != nil {
			return nil, fmt.Errorf("failed to migrate schema: %w", err)
		}
		log.Println("Database schema migrated")
	}

	return db, nil
}

// initializeCache initializes the Redis client and verifies connectivity; nil when disabled
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opt.DB = cfg.RedisDB

	rc := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Redis connection established (db=%d)", cfg.RedisDB)
	return rc, nil
}

// startCacheHealthMonitor periodically pings Redis; the returned func stops it
func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(context.Background(), 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					log.Printf("Redis healthcheck failed: %v", err)
				}
				c()
			}
		}
	}()
	return cancel
}

func initializeEventPublisher(cfg config.EventsConfig) (services.EventPublisher, error) {
	if !cfg.Enabled {
		log.Println("Ticket event stream disabled")
		return services.NewNoopEventPublisher(), nil
	}
	publisher, err := services.NewKafkaEventPublisher(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize event publisher: %w", err)
	}
	log.Printf("Publishing ticket events to %s on %v", cfg.Topic, cfg.Brokers)
	return publisher, nil
}

func initializeAnalyzer(cfg *config.AIConfig) services.TicketAnalyzer {
	if !cfg.Enabled || cfg.BaseURL == "" {
		return services.NewNoopTicketAnalyzer()
	}
	log.Printf("Ticket analysis enabled (model=%s)", cfg.Model)
	return services.NewHTTPTicketAnalyzer(cfg)
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.ProductionConfig) (*Application, error) {
	var stopFuncs []func()

	db, err := initializeDatabase(cfg.Database, cfg.Logging)
	if err != nil {
		return nil, err
	}
	stopFuncs = append(stopFuncs, func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		return nil, err
	}
	// A typed nil would defeat the catalog's nil check
	var cache redis.Cmdable
	if rc != nil {
		cache = rc
		stopFuncs = append(stopFuncs,
			startCacheHealthMonitor(context.Background(), rc, 30*time.Second),
			func() { _ = rc.Close() },
		)
	}

	publisher, err := initializeEventPublisher(cfg.Events)
	if err != nil {
		return nil, err
	}
	stopFuncs = append(stopFuncs, func() {
		if err := publisher.Close(); err != nil {
			log.Printf("Failed to close event publisher: %v", err)
		}
	})

	analyzer := initializeAnalyzer(&cfg.AI)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	subcategoryRepo := repository.NewSubcategoryRepository(db)
	ruleRepo := repository.NewAssignmentRuleRepository(db)
	ticketRepo := repository.NewTicketRepository(db)
	historyRepo := repository.NewTicketHistoryRepository(db)
	commentRepo := repository.NewTicketCommentRepository(db)
	attachmentRepo := repository.NewTicketAttachmentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	txRunner := repository.NewTxRunner(db)

	tokenService, err := services.NewTokenService(cfg.Supabase.JWTSecret, cfg.Supabase.JWTAudience, supabaseIssuer(cfg.Supabase.URL))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}
	log.Printf("Token service initialized with audience: %s", cfg.Supabase.JWTAudience)

	metrics := middleware.NewIntakeMetrics()

	// Flows
	catalog := businessflow.NewFieldCatalog(categoryRepo, subcategoryRepo, cache, cfg.Cache.DefaultTTL, cfg.Cache.RedisPrefix)
	resolver := businessflow.NewAssignmentResolver(ruleRepo, categoryRepo, subcategoryRepo)

	userFlow := businessflow.NewUserFlow(userRepo, cfg.Supabase.AdminEmails)
	catalogFlow := businessflow.NewCatalogFlow(categoryRepo, catalog, metrics)
	categoryFlow := businessflow.NewCategoryFlow(categoryRepo, subcategoryRepo, catalog)
	importFlow := businessflow.NewCatalogImportFlow(categoryRepo, subcategoryRepo, txRunner, catalog)
	ruleFlow := businessflow.NewAssignmentRuleFlow(ruleRepo, categoryRepo, subcategoryRepo, userRepo)
	notificationFlow := businessflow.NewNotificationFlow(notificationRepo)
	ticketFlow := businessflow.NewTicketFlow(
		businessflow.TicketRepositories{
			Tickets:       ticketRepo,
			History:       historyRepo,
			Comments:      commentRepo,
			Attachments:   attachmentRepo,
			Notifications: notificationRepo,
			Users:         userRepo,
			Categories:    categoryRepo,
			Subcategories: subcategoryRepo,
		},
		txRunner,
		resolver,
		analyzer,
		publisher,
		metrics,
		cfg.Ticket,
	)

	if cfg.Catalog.SeedFile != "" {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		res, err := importFlow.LoadSeedFile(ctx, cfg.Catalog.SeedFile)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog seed %s: %w", cfg.Catalog.SeedFile, err)
		}
		log.Printf("Catalog seed applied: %d categories, %d subcategories, %d fields added, %d skipped",
			res.CategoriesCreated, res.SubcategoriesCreated, res.FieldsAdded, res.RowsSkipped)
		for _, w := range res.Warnings {
			log.Printf("Catalog seed warning: %s", w)
		}
	}

	authMiddleware := middleware.NewAuthMiddleware(tokenService, userFlow)

	appRouter := router.NewFiberRouter(cfg, router.Handlers{
		Catalog:        handlers.NewCatalogHandler(catalogFlow),
		Ticket:         handlers.NewTicketHandler(ticketFlow),
		AdminCatalog:   handlers.NewAdminCatalogHandler(categoryFlow, importFlow),
		AssignmentRule: handlers.NewAssignmentRuleHandler(ruleFlow),
		Notification:   handlers.NewNotificationHandler(notificationFlow),
		User:           handlers.NewUserHandler(userFlow),
	}, authMiddleware)

	return &Application{
		router:    appRouter,
		config:    cfg,
		server:    appRouter.GetApp(),
		stopFuncs: stopFuncs,
	}, nil
}

// supabaseIssuer derives the token issuer from the project URL; empty disables the check
func supabaseIssuer(projectURL string) string {
	if projectURL == "" {
		return ""
	}
	return strings.TrimRight(projectURL, "/") + "/auth/v1"
}
