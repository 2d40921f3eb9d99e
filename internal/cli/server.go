package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"mechedu-quiz-service/internal/achievements"
	"mechedu-quiz-service/internal/activity"
	"mechedu-quiz-service/internal/app"
	"mechedu-quiz-service/internal/catalog"
	"mechedu-quiz-service/internal/config"
	"mechedu-quiz-service/internal/infra/memory"
	pgsource "mechedu-quiz-service/internal/infra/postgres"
	redisinfra "mechedu-quiz-service/internal/infra/redis"
	"mechedu-quiz-service/internal/kvstore"
	"mechedu-quiz-service/internal/logger"
	"mechedu-quiz-service/internal/progress"
	transport "mechedu-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, log, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	defer log.Sync()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	service, err := buildService(ctx, cfg, redisClient, pool, log)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", transport.NewWSHandler(service, log).ServeWS)
	transport.NewAPIHandler(service, log).Register(mux)

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
		// no WriteTimeout: it would cut long-lived quiz sockets
	}

	go func() {
		log.Info("starting quiz service", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("failed to start server", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildService wires the catalog sources, the learner ledgers and the session store.
// Postgres and Redis are both optional; without them everything runs in process.
func buildService(ctx context.Context, cfg config.Config, redisClient *redis.Client, pool *pgxpool.Pool, log *logger.Logger) (*app.QuizService, error) {
	static := memory.NewStaticSource(memory.DefaultContent())

	var source catalog.Source = static
	if pool != nil {
		source = catalog.NewFallbackSource(pgsource.NewSource(pool, log), static, log)
	}
	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	if redisClient != nil {
		source = redisinfra.NewCachedSource(redisClient, source, quizTTL)
	} else {
		source = memory.NewCachedSource(source, quizTTL)
	}

	var backend kvstore.Backend = kvstore.NewMemoryBackend()
	if cfg.StorageBackend() == config.StorageRedis {
		backend = redisinfra.NewBackend(redisClient)
	}
	store := kvstore.New(backend,
		kvstore.WithNamespace(cfg.Storage.Namespace),
		kvstore.WithTimeout(config.TTLDuration(cfg.Storage.Timeout, kvstore.DefaultTimeout)),
		kvstore.WithLogger(log),
	)
	if err := store.Err(); err != nil {
		log.Warn("learner progress will not be saved", "backend", cfg.StorageBackend(), "error", err)
	}

	knownIDs := cfg.Quiz.KnownQuizIDs
	if len(knownIDs) == 0 {
		quizzes, err := source.QuizList(ctx)
		if err != nil {
			return nil, err
		}
		knownIDs = catalog.IDs(quizzes)
	}

	tracker := app.NewProgressTracker(
		progress.NewLedger(store, knownIDs),
		achievements.NewLedger(store),
		activity.NewLog(store),
		log,
	)
	tracker.Load()

	var sessions app.SessionRepository = memory.NewSessionStore()
	if redisClient != nil {
		sessions = redisinfra.NewSessionStore(redisClient, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute))
	}

	return app.NewQuizService(source, sessions, tracker,
		app.WithServiceRevealDelay(config.TTLDuration(cfg.Quiz.RevealDelay, app.DefaultRevealDelay)),
		app.WithServiceLogger(log),
	), nil
}
