package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"study-session-service/internal/app"
	"study-session-service/internal/config"
	"study-session-service/internal/domain"
	"study-session-service/internal/infra/memory"
	"study-session-service/internal/infra/postgres"
	redisinfra "study-session-service/internal/infra/redis"
	transport "study-session-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the study session server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg, os.Stderr)
	slog.SetDefault(logger)

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
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
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 30*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var (
		loader memory.CollectionLoader
		sink   app.SubmissionSink
	)
	if pool != nil {
		loader = postgres.NewCollectionLoader(pool)
		sink = postgres.NewSubmissionSink(pool)
	} else {
		static := memory.NewStaticCollectionLoader(seedCollections(cfg))
		loader = static
		sink = memory.NewSubmissionSink(static)
	}

	collectionTTL := config.TTLDuration(cfg.Collections.TTL, 10*time.Minute)
	var collections app.CollectionRepository
	if redisClient != nil {
		collections = redisinfra.NewCollectionRepository(redisClient, loader, collectionTTL)
	} else {
		collections = memory.NewCollectionRepository(loader, collectionTTL)
	}

	var store app.SessionRepository
	var bridges transport.BridgeFactory
	if redisClient != nil {
		store = redisinfra.NewSessionStore(redisClient, redisTTL)
		bridges = func(userID string) app.ContextBridge {
			return redisinfra.NewContextBridge(redisClient, userID, redisTTL)
		}
	} else {
		store = memory.NewSessionStore()
		local := memory.NewContextBridges()
		bridges = func(userID string) app.ContextBridge { return local.For(userID) }
	}

	service := app.NewStudyService(store, collections, sink,
		app.WithLogger(logger),
		app.WithPolicy(domain.KindQuestion, applyPolicy(app.QuizPolicy(), cfg.Session.Quiz)),
		app.WithPolicy(domain.KindFlashcard, applyPolicy(app.FlashcardPolicy(), cfg.Session.Flashcard)),
	)
	wsHandler := transport.NewWSHandler(service, bridges, logger)

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     transport.NewRouter(service, wsHandler, logger),
		ReadTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting study session service", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to start server", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func applyPolicy(p app.Policy, c config.PolicyConfig) app.Policy {
	if c.CelebrateAt != nil {
		p.CelebrateAt = *c.CelebrateAt
	}
	if c.WrapPrev != nil {
		p.WrapPrev = *c.WrapPrev
	}
	if c.Shuffle != nil {
		p.Shuffle = *c.Shuffle
	}
	return p
}

// seedCollections returns the configured seed, or a small demo set when the
// config has none.
func seedCollections(cfg config.Config) map[string]domain.Collection {
	out := make(map[string]domain.Collection)
	for _, c := range cfg.Collections.Seed {
		out[c.ID] = c
	}
	if len(out) > 0 {
		return out
	}
	out["quiz-1"] = domain.Collection{
		ID:   "quiz-1",
		Name: "Arithmetic warm-up",
		Kind: domain.KindQuestion,
		Items: []domain.Item{
			domain.NewQuestion("q1", "What is 2 + 2?", "4", "3", "4", "5"),
			domain.NewQuestion("q2", "What is 3 * 3?", "9", "6", "9", "12"),
		},
	}
	out["deck-1"] = domain.Collection{
		ID:   "deck-1",
		Name: "Capitals",
		Kind: domain.KindFlashcard,
		Items: []domain.Item{
			domain.NewFlashcard("c1", "France", "Paris"),
			domain.NewFlashcard("c2", "Japan", "Tokyo"),
			domain.NewFlashcard("c3", "Kenya", "Nairobi"),
		},
	}
	return out
}
