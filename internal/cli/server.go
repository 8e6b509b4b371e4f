package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"udp-trivia-service/internal/admin"
	"udp-trivia-service/internal/config"
	"udp-trivia-service/internal/domain"
	"udp-trivia-service/internal/game"
	filequiz "udp-trivia-service/internal/infra/file"
	"udp-trivia-service/internal/infra/memory"
	pgloader "udp-trivia-service/internal/infra/postgres"
	redisquiz "udp-trivia-service/internal/infra/redis"
	spectator "udp-trivia-service/internal/transport/http"
	"udp-trivia-service/internal/transport/udp"
	"udp-trivia-service/internal/watch"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewServeCmd builds the CLI subcommand that runs the trivia server.
func NewServeCmd(configPath, bind *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the trivia server and admin console",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *bind)
		},
	}
}

func runServer(ctx context.Context, configPath, bindFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	bind := bindFlag
	if bind == "" {
		bind = cfg.Server.Bind
	}
	if bind == "" {
		bind = "127.0.0.1:9876"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(builtinQuizzes())
	switch {
	case pool != nil:
		loader = pgloader.NewQuizLoader(pool)
	case cfg.Quiz.File != "":
		loader = filequiz.NewQuizLoader(cfg.Quiz.File)
	}

	quizTTL := config.Duration(cfg.Quiz.TTL, 10*time.Minute)
	var source game.QuestionSource
	if redisClient != nil {
		source = redisquiz.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		source = memory.NewQuizRepository(loader, quizTTL)
	}

	gateway, err := udp.Listen(bind)
	if err != nil {
		return err
	}
	defer gateway.Close()

	hub := watch.NewHub()
	engine := game.New(game.Settings{
		QuizID:           cfg.Quiz.ID,
		AnswerWindow:     config.Duration(cfg.Game.AnswerWindow, 30*time.Second),
		QuestionGap:      config.Duration(cfg.Game.QuestionGap, 3*time.Second),
		PointsPerCorrect: cfg.Game.PointsPerCorrect,
	}, source, gateway, hub)
	console := admin.New(engine, os.Stdin, os.Stdout)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		// Once the engine stops (exit command), tear everything else down.
		defer cancel()
		return engine.Run(gctx)
	})
	g.Go(func() error {
		return gateway.Run(gctx, engine.HandleDatagram)
	})
	g.Go(func() error {
		return console.Run(gctx)
	})

	if cfg.HTTP.Addr != "" {
		server := &http.Server{
			Addr:         cfg.HTTP.Addr,
			Handler:      spectator.NewHandler(hub).Router(),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		g.Go(func() error {
			log.Printf("spectator feed on %s", cfg.HTTP.Addr)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelShutdown()
			return server.Shutdown(shutdownCtx)
		})
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	g.Go(func() error {
		select {
		case <-stop:
			log.Println("signal received, shutting down...")
			cancel()
		case <-gctx.Done():
		}
		return nil
	})

	log.Printf("trivia server listening on %s", gateway.Addr())
	return g.Wait()
}

// builtinQuizzes backs the server when neither a quiz file nor Postgres is
// configured.
func builtinQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"general": {
			ID: "general",
			Questions: []domain.Question{
				{
					Prompt:  "What is the capital of France?",
					Options: []string{"London", "Paris", "Berlin", "Madrid"},
					Correct: 1,
				},
				{
					Prompt:  "Which planet is known as the Red Planet?",
					Options: []string{"Earth", "Mars", "Jupiter", "Venus"},
					Correct: 1,
				},
				{
					Prompt:  "What is the largest mammal?",
					Options: []string{"Elephant", "Giraffe", "Blue Whale", "Gorilla"},
					Correct: 2,
				},
				{
					Prompt:  "Who wrote 'Romeo and Juliet'?",
					Options: []string{"Charles Dickens", "William Shakespeare", "Jane Austen", "Mark Twain"},
					Correct: 1,
				},
				{
					Prompt:  "What is the chemical symbol for gold?",
					Options: []string{"Go", "Gd", "Au", "Ag"},
					Correct: 2,
				},
			},
		},
	}
}
