package admin

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/sagepath-app/sagepath/internal/api/handlers"
	"github.com/sagepath-app/sagepath/internal/config"
	"github.com/sagepath-app/sagepath/internal/jobs"
	"github.com/sagepath-app/sagepath/internal/openai"
	"github.com/sagepath-app/sagepath/internal/repository"
	"github.com/sagepath-app/sagepath/internal/server"
	"github.com/sagepath-app/sagepath/internal/service"
	"github.com/sagepath-app/sagepath/internal/telemetry"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the sagepath API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")
	cmd.Flags().Bool("no-backfill", false, "Disable the background embedding backfill worker")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	// Fail fast: a server without its database URL or embedding credential
	// cannot serve its core path.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              dsn,
			Environment:      environment,
			TracesSampleRate: sampleRate,
			Debug:            cfg.Debug,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	log.Println("connected to database")

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	questionRepo := repository.NewQuestionRepository(pool, cfg.MatchThreshold)
	profileRepo := repository.NewProfileRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	searchLogRepo := repository.NewSearchLogRepository(pool)

	embeddingClient := openai.NewClientWithConfig(openai.Config{
		APIKey:              cfg.OpenAIAPIKey,
		BaseURL:             cfg.OpenAIBaseURL,
		EmbeddingModel:      cfg.EmbeddingModel,
		EmbeddingDimensions: cfg.EmbeddingDimensions,
		Timeout:             cfg.UpstreamTimeout,
	})

	uuidGen := &service.DefaultUUIDGenerator{}

	searchSvc := service.NewSearchService(embeddingClient, questionRepo, searchLogRepo, cfg.MatchCount)
	recommendSvc := service.NewRecommendationService(profileRepo, questionRepo, searchSvc, searchLogRepo, cfg.FallbackSampleSize)
	authSvc := service.NewAuthService(userRepo, sessionRepo, uuidGen, cfg.SessionTTL)
	backfillSvc := service.NewBackfillServiceWithConfig(questionRepo, embeddingClient, service.BackfillConfig{
		BatchSize:    cfg.BackfillBatchSize,
		BatchDelay:   cfg.BackfillBatchDelay,
		MaxRetries:   cfg.BackfillMaxRetries,
		RetryBackoff: 500 * time.Millisecond,
	})

	var backfillWorker *jobs.Worker
	noBackfill, _ := cmd.Flags().GetBool("no-backfill")
	if !noBackfill {
		backfillWorker = jobs.NewWorker(jobs.NewBackfillWorker(backfillSvc), cfg.BackfillInterval)
		go backfillWorker.Start(ctx)
		log.Println("embedding backfill worker started")
	}

	routerCfg := server.RouterConfig{
		SessionValidator:      authSvc,
		SearchHandler:         handlers.NewSearchHandler(searchSvc),
		ChatHandler:           handlers.NewChatHandler(embeddingClient, cfg.ChatModel),
		RecommendationHandler: handlers.NewRecommendationHandler(recommendSvc),
		QuestionHandler:       handlers.NewQuestionHandler(questionRepo),
		ProfileHandler:        handlers.NewProfileHandler(profileRepo),
		AuthHandler:           handlers.NewAuthHandler(authSvc),
	}

	router := server.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if backfillWorker != nil {
		backfillWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

func runMigrations(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
